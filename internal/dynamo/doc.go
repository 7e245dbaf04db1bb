// Package dynamo provides the core primitives shared by the particle
// simulation packages.
//
// The package defines the state buffers and the interfaces the rest of the
// module plugs into:
//
//   - [State]: parallel position and velocity buffers, one entry per particle
//   - [ForceSampler]: force on one particle at a trial position
//   - [Integrator]: advances one particle over one timestep
//   - [Metric], [Observer]: per-frame instrumentation
//
// # Example
//
//	params := physics.DefaultParams()
//	s, err := sim.New(params, initial)
//	if err != nil {
//	    return err
//	}
//	s.Step()
//	buf = s.FillPositions(buf)
//
// # Thread Safety
//
// A [State] has no internal locking. Whoever owns it must serialise
// mutation; the simulation treats each step as a critical section.
package dynamo
