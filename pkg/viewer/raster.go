package viewer

import (
	"image"
	"image/color"
	"math"
)

// point is a projected vertex: pixel x, y and view depth z
type point struct {
	X, Y, Z float64
}

// canvas is a square NRGBA image with a depth buffer. Smaller depth wins.
type canvas struct {
	img   *image.NRGBA
	depth []float64
}

func newCanvas(size int, background color.NRGBA) *canvas {
	c := &canvas{
		img:   image.NewNRGBA(image.Rect(0, 0, size, size)),
		depth: make([]float64, size*size),
	}
	for i := 0; i < len(c.img.Pix); i += 4 {
		c.img.Pix[i] = background.R
		c.img.Pix[i+1] = background.G
		c.img.Pix[i+2] = background.B
		c.img.Pix[i+3] = background.A
	}
	for i := range c.depth {
		c.depth[i] = math.MaxFloat64
	}
	return c
}

func (c *canvas) width() int  { return c.img.Rect.Dx() }
func (c *canvas) height() int { return c.img.Rect.Dy() }

// fill rasterizes a triangle by testing pixel centers inside its clipped
// bounding box against the edge functions. Both windings are filled.
func (c *canvas) fill(a, b, p point, col color.NRGBA) {
	area := edge(a, b, p.X, p.Y)
	if area == 0 || math.IsNaN(area) {
		return
	}

	minX := int(math.Max(0, math.Floor(math.Min(a.X, math.Min(b.X, p.X)))))
	maxX := int(math.Min(float64(c.width()-1), math.Ceil(math.Max(a.X, math.Max(b.X, p.X)))))
	minY := int(math.Max(0, math.Floor(math.Min(a.Y, math.Min(b.Y, p.Y)))))
	maxY := int(math.Min(float64(c.height()-1), math.Ceil(math.Max(a.Y, math.Max(b.Y, p.Y)))))

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(b, p, px, py) / area
			w1 := edge(p, a, px, py) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.Z + w1*b.Z + w2*p.Z
			idx := y*c.width() + x
			if z < c.depth[idx] {
				c.depth[idx] = z
				c.img.SetNRGBA(x, y, col)
			}
		}
	}
}

// edge is twice the signed area of (a, b, (x, y))
func edge(a, b point, x, y float64) float64 {
	return (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
}

// line draws a depth-ignoring line, stepping one pixel along the major axis.
// Pixels outside the image are skipped.
func (c *canvas) line(x1, y1, x2, y2 float64, col color.NRGBA) {
	dx, dy := x2-x1, y2-y1
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		c.plot(x1, y1, col)
		return
	}
	sx, sy := dx/float64(steps), dy/float64(steps)
	for i := 0; i <= steps; i++ {
		c.plot(x1+float64(i)*sx, y1+float64(i)*sy, col)
	}
}

func (c *canvas) plot(x, y float64, col color.NRGBA) {
	ix, iy := int(math.Floor(x)), int(math.Floor(y))
	if ix < 0 || iy < 0 || ix >= c.width() || iy >= c.height() {
		return
	}
	c.img.SetNRGBA(ix, iy, col)
}
