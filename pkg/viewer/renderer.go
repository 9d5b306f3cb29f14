// Package viewer renders headless previews of meshes: flat-shaded triangles
// with a z-buffer, seen from an orbit camera that frames the mesh bounds.
package viewer

import (
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/geometry"
	"github.com/philipparndt/stlcut/pkg/mesh"
)

// Options control a preview render
type Options struct {
	Size        int     // output width and height in pixels
	Supersample int     // render at Size*Supersample and downscale
	Elevation   float64 // degrees above the XY plane
	Azimuth     float64 // degrees around Z
	Background  color.NRGBA
	Color       color.NRGBA
	Planes      []cutter.Plane // drawn as outlines
	PlaneColor  color.NRGBA
	Caption     string // drawn bottom-left after downscaling
	TextColor   color.NRGBA
}

// DefaultOptions returns a 512 px isometric-ish view on a transparent
// background
func DefaultOptions() Options {
	return Options{
		Size:        512,
		Supersample: 2,
		Elevation:   30,
		Azimuth:     -35,
		Color:       color.NRGBA{R: 120, G: 170, B: 220, A: 255},
		PlaneColor:  color.NRGBA{R: 230, G: 80, B: 60, A: 255},
		TextColor:   color.NRGBA{R: 40, G: 40, B: 40, A: 255},
	}
}

// Render rasterizes the mesh. An empty mesh gives an image filled with the
// background color.
func Render(m *mesh.Mesh, opts Options) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	size := opts.Size * ss

	cv := newCanvas(size, opts.Background)
	if m == nil || m.IsEmpty() {
		return finish(cv.img, opts)
	}

	camera := NewCamera(m.Bounds, degToRad(opts.Elevation), degToRad(opts.Azimuth))
	w, h := float64(size), float64(size)
	project := func(v geometry.Vector3) point {
		x, y, z := camera.Project(v, w, h)
		return point{x, y, z}
	}

	forward := camera.Forward()
	for i := range m.Triangles {
		tri := m.Triangle(i)
		// headlight shading; back faces are lit the same so open meshes
		// still read
		shade := 0.3 + 0.7*math.Abs(tri.Normal.Dot(forward))
		cv.fill(project(tri.V1), project(tri.V2), project(tri.V3), shadeColor(opts.Color, shade))
	}

	for _, plane := range opts.Planes {
		drawPlaneOutline(cv, project, plane, m.Bounds, opts.PlaneColor, ss)
	}

	return finish(cv.img, opts)
}

func finish(img *image.NRGBA, opts Options) *image.NRGBA {
	out := Downsample(img, opts.Size)
	if opts.Caption != "" {
		// font errors leave the image uncaptioned
		_ = drawCaption(out, opts.Caption, opts.TextColor)
	}
	return out
}

// drawPlaneOutline draws a square on the plane, centered at the projection
// of the bounds center and as wide as the bounds diagonal.
func drawPlaneOutline(cv *canvas, project func(geometry.Vector3) point, plane cutter.Plane, bounds geometry.BoundingBox, col color.NRGBA, thickness int) {
	plane, err := plane.Normalized()
	if err != nil {
		return
	}
	center := bounds.Center()
	center = center.Sub(plane.Normal.Mul(plane.SignedDistance(center)))
	frame := cutter.Orientation(plane.Normal)
	half := bounds.Diagonal() / 2
	u := frame.Column(0).Mul(half)
	v := frame.Column(1).Mul(half)
	corners := [4]geometry.Vector3{
		center.Sub(u).Sub(v),
		center.Add(u).Sub(v),
		center.Add(u).Add(v),
		center.Sub(u).Add(v),
	}

	w, h := float64(cv.width()), float64(cv.height())
	for i := range corners {
		a := project(corners[i])
		b := project(corners[(i+1)%4])
		if a.Z <= 0.01 || b.Z <= 0.01 || !onCanvas(a.X, a.Y, w, h) || !onCanvas(b.X, b.Y, w, h) {
			continue
		}
		for d := 0; d < thickness; d++ {
			off := float64(d)
			cv.line(a.X+off, a.Y, b.X+off, b.Y, col)
			cv.line(a.X, a.Y+off, b.X, b.Y+off, col)
		}
	}
}

func onCanvas(x, y, w, h float64) bool {
	return x > -w && x < 2*w && y > -h && y < 2*h
}

func shadeColor(c color.NRGBA, shade float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Min(255, float64(c.R)*shade)),
		G: uint8(math.Min(255, float64(c.G)*shade)),
		B: uint8(math.Min(255, float64(c.B)*shade)),
		A: c.A,
	}
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
