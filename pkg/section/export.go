package section

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/yofu/dxf"
)

// Format selects the outline file format
type Format int

const (
	FormatSVG Format = iota
	FormatDXF
)

func (f Format) String() string {
	if f == FormatDXF {
		return "dxf"
	}
	return "svg"
}

// FormatFromPath picks the format from the file extension, SVG by default
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".dxf") {
		return FormatDXF
	}
	return FormatSVG
}

// WriteSVG draws the outline scaled by pixels per unit. The Y axis points up
// as in the plane coordinates; closed loops are filled with the even-odd
// rule so holes stay empty.
func WriteSVG(w io.Writer, o *Outline, scale float64) error {
	if scale <= 0 {
		scale = 1
	}
	lo, hi := o.Bounds()
	if o.IsEmpty() {
		lo, hi = Point{}, Point{}
	}
	margin := 2.0
	width := int(math.Ceil((hi.X-lo.X)*scale + 2*margin))
	height := int(math.Ceil((hi.Y-lo.Y)*scale + 2*margin))
	toPixel := func(p Point) (int, int) {
		x := (p.X-lo.X)*scale + margin
		y := (hi.Y-p.Y)*scale + margin
		return int(math.Round(x)), int(math.Round(y))
	}

	canvas := svg.New(w)
	canvas.Start(width, height)
	for _, path := range o.Paths {
		xs := make([]int, len(path.Points))
		ys := make([]int, len(path.Points))
		for i, p := range path.Points {
			xs[i], ys[i] = toPixel(p)
		}
		if path.Closed {
			canvas.Polygon(xs, ys, "fill:#cfe0f5;fill-rule:evenodd;stroke:#1f4e8c;stroke-width:1")
		} else {
			canvas.Polyline(xs, ys, "fill:none;stroke:#c0392b;stroke-width:1")
		}
	}
	canvas.End()
	return nil
}

// SaveDXF writes every path as LINE entities in plane coordinates (z = 0)
func SaveDXF(path string, o *Outline) error {
	d := dxf.NewDrawing()
	for _, p := range o.Paths {
		n := len(p.Points)
		edges := n - 1
		if p.Closed {
			edges = n
		}
		for i := 0; i < edges; i++ {
			a := p.Points[i]
			b := p.Points[(i+1)%n]
			if _, err := d.Line(a.X, a.Y, 0, b.X, b.Y, 0); err != nil {
				return fmt.Errorf("failed to add line: %w", err)
			}
		}
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write DXF: %w", err)
	}
	return nil
}

// Save writes the outline in the format given by the path extension
func Save(path string, o *Outline, scale float64) error {
	if FormatFromPath(path) == FormatDXF {
		return SaveDXF(path, o)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSVG(f, o, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
