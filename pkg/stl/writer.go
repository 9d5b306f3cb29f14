package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/philipparndt/stlcut/pkg/geometry"
)

// Format selects the STL flavour written by Encode
type Format int

const (
	FormatBinary Format = iota
	FormatASCII
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatASCII:
		return "ascii"
	default:
		return "unknown"
	}
}

// ParseFormat parses "binary" or "ascii" (case-insensitive, empty means binary)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "binary", "bin":
		return FormatBinary, nil
	case "ascii", "text":
		return FormatASCII, nil
	default:
		return FormatBinary, fmt.Errorf("unknown STL format %q (expected binary or ascii)", s)
	}
}

// Encode serialises the model in the given format
func Encode(model *Model, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatASCII:
		err = WriteASCII(&buf, model)
	default:
		err = WriteBinary(&buf, model)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the model to a file
func Save(filename string, model *Model, format Format) error {
	data, err := Encode(model, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// WriteBinary writes the model as binary STL
func WriteBinary(w io.Writer, model *Model) error {
	header := make([]byte, binaryHeaderSize)
	copy(header, model.Name)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(model.Triangles))); err != nil {
		return fmt.Errorf("failed to write triangle count: %w", err)
	}

	var facet struct {
		Normal, V1, V2, V3 [3]float32
		Attribute          uint16
	}
	bw := bufio.NewWriter(w)
	for i, tri := range model.Triangles {
		facet.Normal = fromVector(facetNormal(tri))
		facet.V1 = fromVector(tri.V1)
		facet.V2 = fromVector(tri.V2)
		facet.V3 = fromVector(tri.V3)
		if err := binary.Write(bw, binary.LittleEndian, &facet); err != nil {
			return fmt.Errorf("failed to write triangle %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteASCII writes the model as ASCII STL
func WriteASCII(w io.Writer, model *Model) error {
	name := strings.ReplaceAll(model.Name, "\n", " ")
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "solid %s\n", name)
	for _, tri := range model.Triangles {
		n := facetNormal(tri)
		fmt.Fprintf(bw, "  facet normal %e %e %e\n", n.X, n.Y, n.Z)
		fmt.Fprintln(bw, "    outer loop")
		for _, v := range [3]geometry.Vector3{tri.V1, tri.V2, tri.V3} {
			fmt.Fprintf(bw, "      vertex %e %e %e\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)

	return bw.Flush()
}

// facetNormal prefers the stored normal and falls back to the winding.
func facetNormal(tri geometry.Triangle) geometry.Vector3 {
	if tri.Normal.Length() > 0 {
		return tri.Normal
	}
	return tri.CalculateNormal()
}

func fromVector(v geometry.Vector3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}
