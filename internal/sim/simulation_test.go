package sim

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cylsim/internal/dynamo"
	"github.com/san-kum/cylsim/internal/integrators"
	"github.com/san-kum/cylsim/internal/metrics"
	"github.com/san-kum/cylsim/internal/physics"
)

func cloud(n int, seed int64) []mgl64.Vec3 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]mgl64.Vec3, n)
	for i := range out {
		out[i] = mgl64.Vec3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
	}
	return out
}

func allFinite(s dynamo.State) bool {
	return s.Consistent() && s.IsValid()
}

var _ = Describe("Simulation", func() {
	var params physics.Params

	BeforeEach(func() {
		params = physics.DefaultParams()
	})

	Describe("construction", func() {
		It("rejects an empty particle set", func() {
			_, err := New(params, nil)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())

			var cfgErr *dynamo.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("particles"))
		})

		It("rejects invalid params", func() {
			params.Timescale = 0
			_, err := New(params, cloud(4, 1))
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects non-finite initial positions", func() {
			pos := cloud(4, 1)
			pos[2] = mgl64.Vec3{math.NaN(), 0, 0}
			_, err := New(params, pos)
			Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
		})

		It("copies the initial positions and starts at rest", func() {
			pos := cloud(8, 2)
			s, err := New(params, pos)
			Expect(err).NotTo(HaveOccurred())

			pos[0] = mgl64.Vec3{9, 9, 9}
			Expect(s.Positions()[0]).NotTo(Equal(pos[0]))
			for _, v := range s.Velocities() {
				Expect(v).To(Equal(mgl64.Vec3{}))
			}
			Expect(s.NumParticles()).To(Equal(8))
			Expect(s.Steps()).To(Equal(0))
			Expect(s.Integrator().Name()).To(Equal("rk4"))
		})
	})

	Describe("Step", func() {
		It("applies the gravity impulse to a lone particle at the centre", func() {
			params.Gravity = mgl64.Vec3{0, -10, 0}
			s, err := New(params, []mgl64.Vec3{{0, 0, 0}})
			Expect(err).NotTo(HaveOccurred())

			s.Step()

			// No pair partner, no wall penetration: only gravity acts.
			v := s.Velocities()[0]
			Expect(v.Y()).To(BeNumerically("~", -10*params.Dt, 1e-15))
			Expect(s.Positions()[0]).To(Equal(mgl64.Vec3{}))
			Expect(s.Steps()).To(Equal(1))
			Expect(s.Time()).To(BeNumerically("~", params.Dt, 1e-18))
		})

		It("keeps buffers intact and finite over many steps", func() {
			pos := cloud(200, 3)
			pos[0] = mgl64.Vec3{0, 0, 0}
			pos[1] = mgl64.Vec3{0, 1, 0}
			pos[2] = mgl64.Vec3{0.5, 0.5, 0.5}
			pos[3] = mgl64.Vec3{0.5, 0.5, 0.5}

			s, err := New(params, pos)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 300; i++ {
				s.Step()
			}

			st := s.State()
			Expect(st.Positions).To(HaveLen(200))
			Expect(st.Velocities).To(HaveLen(200))
			Expect(allFinite(st)).To(BeTrue())
			Expect(s.Steps()).To(Equal(300))
		})

		It("is deterministic across worker counts", func() {
			pos := cloud(300, 4)
			serial, err := New(params, pos)
			Expect(err).NotTo(HaveOccurred())
			parallel, err := New(params, pos, WithWorkers(4))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 50; i++ {
				serial.Step()
				parallel.Step()
			}
			Expect(parallel.Positions()).To(Equal(serial.Positions()))
			Expect(parallel.Velocities()).To(Equal(serial.Velocities()))
		})

		It("resolves collisions, then integrates against the snapshot, then adds gravity", func() {
			params.Gravity = mgl64.Vec3{0, -10, 0}
			// Particle 0 crosses the side wall, 1 and 2 overlap, 3 crosses
			// the top cap.
			pos := []mgl64.Vec3{
				{2.98, 0, 0},
				{0, 0, 0},
				{0.04, 0, 0},
				{0.3, 1.97, 0},
				{-1, -1, 0.5},
			}
			s, err := New(params, pos)
			Expect(err).NotTo(HaveOccurred())

			want := dynamo.NewState(pos)
			contacts := physics.NewResolver(params).Resolve(&want)
			snapshot := make([]mgl64.Vec3, len(pos))
			copy(snapshot, want.Positions)
			field := physics.NewForceField(params)
			rk4 := integrators.NewRK4()
			gravity := params.Gravity.Mul(params.Dt)
			for i := range snapshot {
				p, v := rk4.Advance(field, snapshot, i, snapshot[i], want.Velocities[i], params.Dt)
				want.Positions[i] = p
				want.Velocities[i] = v.Add(gravity)
			}

			s.Step()

			Expect(contacts).To(Equal(dynamo.Contacts{Wall: 2, Pair: 1}))
			Expect(s.LastContacts()).To(Equal(contacts))
			Expect(s.Positions()).To(Equal(want.Positions))
			Expect(s.Velocities()).To(Equal(want.Velocities))
		})

		It("honours the integrator option", func() {
			s, err := New(params, cloud(10, 5), WithIntegrator(integrators.NewEuler()))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Integrator().Name()).To(Equal("euler"))
			s.Step()
			Expect(allFinite(s.State())).To(BeTrue())
		})
	})

	Describe("Retune", func() {
		It("continues from the current state under new params", func() {
			s, err := New(params, cloud(30, 10))
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 5; i++ {
				s.Step()
			}

			tuned := params
			tuned.Restitution = 0.3
			r, err := s.Retune(tuned)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Params().Restitution).To(Equal(0.3))
			Expect(r.Steps()).To(Equal(5))
			Expect(r.Positions()).To(Equal(s.Positions()))
			Expect(r.Velocities()).To(Equal(s.Velocities()))

			r.Step()
			Expect(s.Steps()).To(Equal(5))
			Expect(r.Steps()).To(Equal(6))
		})

		It("rejects invalid params", func() {
			s, err := New(params, cloud(3, 11))
			Expect(err).NotTo(HaveOccurred())
			bad := params
			bad.DampingFactor = -1
			_, err = s.Retune(bad)
			Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
		})
	})

	Describe("FillPositions", func() {
		It("writes xyz triples and reuses the buffer", func() {
			s, err := New(params, []mgl64.Vec3{{1, 2, 0.5}, {-1, 0.25, 0}})
			Expect(err).NotTo(HaveOccurred())

			buf := make([]float32, 0, 16)
			out := s.FillPositions(buf)
			Expect(out).To(Equal([]float32{1, 2, 0.5, -1, 0.25, 0}))
			Expect(&out[0]).To(BeIdenticalTo(&buf[:1][0]))
		})
	})
})

var _ = Describe("Runner", func() {
	var params physics.Params

	BeforeEach(func() {
		params = physics.DefaultParams()
	})

	It("feeds metrics and observers once per frame", func() {
		s, err := New(params, cloud(50, 6))
		Expect(err).NotTo(HaveOccurred())

		ms := metrics.Default(params)
		rec := NewRecorder(ms, 2)
		r := NewRunner(s, RunConfig{StepsPerFrame: 3, ValidateState: true})
		for _, m := range ms {
			r.AddMetric(m)
		}
		r.AddObserver(rec)

		frames := 0
		r.AddObserver(dynamo.ObserverFunc(func(f dynamo.Frame) { frames++ }))

		res, err := r.Run(context.Background(), 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(Equal(10))
		Expect(res.Frames).To(Equal(10))
		Expect(res.Steps).To(Equal(30))
		Expect(res.Metrics).To(HaveKey("kinetic_energy"))
		Expect(res.Metrics["containment"]).To(BeNumerically(">", 0))
		Expect(res.Final.Len()).To(Equal(50))

		Expect(rec.Samples()).To(HaveLen(5))
		Expect(rec.Columns()).To(HaveLen(len(ms)))
		Expect(rec.Column("max_speed")).To(HaveLen(5))
		Expect(rec.Column("missing")).To(BeNil())
	})

	It("rejects a non-positive frame count", func() {
		s, err := New(params, cloud(2, 7))
		Expect(err).NotTo(HaveOccurred())
		_, err = NewRunner(s, RunConfig{}).Run(context.Background(), 0)
		Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
	})

	It("stops between steps when the context is canceled", func() {
		s, err := New(params, cloud(20, 8))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		r := NewRunner(s, RunConfig{})
		r.AddObserver(dynamo.ObserverFunc(func(f dynamo.Frame) {
			if f.Step == 5 {
				cancel()
			}
		}))

		res, err := r.Run(ctx, 100)
		Expect(errors.Is(err, dynamo.ErrContextCanceled)).To(BeTrue())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(res.Steps).To(Equal(5))
		Expect(res.Frames).To(Equal(5))
	})

	It("reports a simulation error when the state goes non-finite", func() {
		s, err := New(params, cloud(4, 9))
		Expect(err).NotTo(HaveOccurred())
		s.state.Velocities[1] = mgl64.Vec3{math.Inf(1), 0, 0}

		res, err := NewRunner(s, RunConfig{ValidateState: true}).Run(context.Background(), 10)
		Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Step).To(Equal(1))
		Expect(res.Frames).To(Equal(0))
	})
})
