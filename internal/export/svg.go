// Package export renders runs as standalone SVG images.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/cylsim/internal/physics"
	"github.com/san-kum/cylsim/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG draws every lit dot of canvas as a circle, scale units apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}
	pw, ph := canvas.PixelSize()
	width := float64(pw) * scale
	height := float64(ph) * scale

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// View selects the projection used by ParticlesToSVG.
type View string

const (
	ViewSide View = "side" // x horizontal, y up
	ViewTop  View = "top"  // x horizontal, z down
)

func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewSide, ViewTop:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown view %q (want side or top)", s)
}

// ParticlesToSVG draws positions inside the container outline, as seen from
// the side or from above. size is the image width in pixels.
func ParticlesToSVG(positions []mgl64.Vec3, params physics.Params, view View, size int, color string) string {
	r := params.CylinderRadius
	halfW := r
	halfH := params.HalfHeight()
	if view == ViewTop {
		halfH = r
	}
	pad := 0.05 * math.Max(halfW, halfH)
	halfW += pad
	halfH += pad

	width := float64(size)
	s := width / (2 * halfW)
	height := math.Round(2 * halfH * s)

	toScreen := func(u, v float64) (float64, float64) {
		return (u + halfW) * s, (halfH - v) * s
	}

	var sb strings.Builder
	header(&sb, width, height)

	cx, cy := toScreen(0, 0)
	if view == ViewTop {
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"none\" stroke=\"#4a6a7a\" stroke-width=\"1.5\"/>\n",
			cx, cy, r*s)
	} else {
		x0, y0 := toScreen(-r, params.HalfHeight())
		fmt.Fprintf(&sb, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"none\" stroke=\"#4a6a7a\" stroke-width=\"1.5\"/>\n",
			x0, y0, 2*r*s, params.CylinderHeight*s)
	}

	dot := math.Max(params.ParticleRadius*s, 0.75)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", color)
	for _, p := range positions {
		v := p.Y()
		if view == ViewTop {
			v = -p.Z()
		}
		x, y := toScreen(p.X(), v)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.2f\"/>\n", x, y, dot)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG plots ys against xs as a single polyline.
func SeriesToSVG(xs, ys []float64, width, height int, strokeColor string) string {
	n := min(len(xs), len(ys))
	if n < 2 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i := 0; i < n; i++ {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}
