package viz

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cylsim/internal/physics"
)

const (
	minZoom  = 0.25
	maxZoom  = 8
	maxPitch = 1.45
)

// Camera orbits the origin. Orbit and ZoomBy move targets; Update eases the
// current yaw, pitch and zoom toward them with critically damped springs.
type Camera struct {
	Yaw, Pitch, Zoom float64
	// Distance from the eye to the origin, in world units.
	Distance float64
	// Extent is the world size mapped onto the shorter screen side at zoom 1.
	Extent float64

	targetYaw, targetPitch, targetZoom float64
	yawVel, pitchVel, zoomVel          float64
	spring                             harmonica.Spring
}

func NewCamera(fps int, extent float64) *Camera {
	return &Camera{
		Pitch:       0.35,
		Zoom:        1,
		Distance:    4 * extent,
		Extent:      extent,
		targetPitch: 0.35,
		targetZoom:  1,
		spring:      harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.targetYaw += dYaw
	c.targetPitch = mgl64.Clamp(c.targetPitch+dPitch, -maxPitch, maxPitch)
}

func (c *Camera) ZoomBy(factor float64) {
	c.targetZoom = mgl64.Clamp(c.targetZoom*factor, minZoom, maxZoom)
}

// Update advances the springs by one frame.
func (c *Camera) Update() {
	c.Yaw, c.yawVel = c.spring.Update(c.Yaw, c.yawVel, c.targetYaw)
	c.Pitch, c.pitchVel = c.spring.Update(c.Pitch, c.pitchVel, c.targetPitch)
	c.Zoom, c.zoomVel = c.spring.Update(c.Zoom, c.zoomVel, c.targetZoom)
}

// Snap jumps straight to the targets.
func (c *Camera) Snap() {
	c.Yaw, c.Pitch, c.Zoom = c.targetYaw, c.targetPitch, c.targetZoom
	c.yawVel, c.pitchVel, c.zoomVel = 0, 0, 0
}

// Settled reports whether the camera is within eps of its targets.
func (c *Camera) Settled(eps float64) bool {
	return math.Abs(c.Yaw-c.targetYaw) < eps &&
		math.Abs(c.Pitch-c.targetPitch) < eps &&
		math.Abs(c.Zoom-c.targetZoom) < eps
}

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(c.Yaw))
}

// Project maps a world point onto a sw x sh pixel screen. It returns the
// pixel, the view-space depth and whether the pixel is on screen.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	return c.project(c.rotation(), p, sw, sh)
}

func (c *Camera) project(rot mgl64.Mat3, p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	r := rot.Mul3x1(p).Mul(c.Zoom)
	if r.Z() >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - r.Z())
	pScale := float64(min(sw, sh)) / c.Extent
	sx := int(math.Round(r.X()*scale*pScale)) + sw/2
	sy := int(math.Round(-r.Y()*scale*pScale)) + sh/2
	return sx, sy, r.Z(), sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

type Edge struct {
	Start, End mgl64.Vec3
}

// CylinderWireframe outlines a cylinder of the given radius and height,
// centred on the origin with its axis along y.
func CylinderWireframe(radius, height float64, segments int) []Edge {
	if segments < 3 {
		segments = 3
	}
	half := height / 2
	ring := func(i int, y float64) mgl64.Vec3 {
		a := 2 * math.Pi * float64(i) / float64(segments)
		return mgl64.Vec3{radius * math.Cos(a), y, radius * math.Sin(a)}
	}

	edges := make([]Edge, 0, 2*segments+4)
	for i := 0; i < segments; i++ {
		edges = append(edges,
			Edge{ring(i, half), ring(i+1, half)},
			Edge{ring(i, -half), ring(i+1, -half)},
		)
	}
	for i := 0; i < 4; i++ {
		k := i * segments / 4
		edges = append(edges, Edge{ring(k, half), ring(k, -half)})
	}
	return edges
}

// DrawEdges projects and draws every edge with at least one visible end.
func (c *Camera) DrawEdges(cv *Canvas, edges []Edge) {
	sw, sh := cv.PixelSize()
	rot := c.rotation()
	for _, e := range edges {
		x1, y1, _, v1 := c.project(rot, e.Start, sw, sh)
		x2, y2, _, v2 := c.project(rot, e.End, sw, sh)
		if v1 || v2 {
			cv.DrawLine(x1, y1, x2, y2)
		}
	}
}

// DrawPoints projects and sets one dot per point; it returns how many
// landed on screen.
func (c *Camera) DrawPoints(cv *Canvas, points []mgl64.Vec3) int {
	sw, sh := cv.PixelSize()
	rot := c.rotation()
	drawn := 0
	for _, p := range points {
		if x, y, _, ok := c.project(rot, p, sw, sh); ok {
			cv.Set(x, y)
			drawn++
		}
	}
	return drawn
}

// SceneExtent is the world size that frames the whole container with some
// margin.
func SceneExtent(params physics.Params) float64 {
	return 2 * max(params.CylinderRadius, params.HalfHeight()) * 1.25
}

// DrawScene clears cv and draws the container edges and the particles.
func (c *Camera) DrawScene(cv *Canvas, edges []Edge, positions []mgl64.Vec3) int {
	cv.Clear()
	c.DrawEdges(cv, edges)
	return c.DrawPoints(cv, positions)
}

// RenderScene draws positions inside the container outline on a fresh w x h
// cell canvas, seen from the default camera turned by yaw.
func RenderScene(positions []mgl64.Vec3, params physics.Params, w, h int, yaw float64) *Canvas {
	cam := NewCamera(30, SceneExtent(params))
	cam.Orbit(yaw, 0)
	cam.Snap()
	cv := NewCanvas(w, h)
	cam.DrawScene(cv, CylinderWireframe(params.CylinderRadius, params.CylinderHeight, 32), positions)
	return cv
}
