package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/philipparndt/stlcut/pkg/geometry"
)

const (
	binaryHeaderSize   = 80
	binaryTriangleSize = 50
)

// Parse reads an STL file and returns a Model
// It automatically detects whether the file is ASCII or binary format
func Parse(filename string) (*Model, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return Decode(data)
}

// ParseReader reads an STL stream until EOF and decodes it
func ParseReader(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL stream: %w", err)
	}
	return Decode(data)
}

// Decode decodes STL bytes. Binary files whose header happens to start with
// "solid" are recognised by their exact size.
func Decode(data []byte) (*Model, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("failed to read file header: %d bytes", len(data))
	}

	if isBinary(data) {
		return parseBinary(bytes.NewReader(data))
	}

	// Check if it's ASCII format (starts with "solid")
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return parseASCII(bytes.NewReader(data))
	}

	return parseBinary(bytes.NewReader(data))
}

func isBinary(data []byte) bool {
	if len(data) < binaryHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[binaryHeaderSize : binaryHeaderSize+4])
	return int64(binaryHeaderSize+4)+int64(count)*binaryTriangleSize == int64(len(data))
}

// parseASCII parses an ASCII STL file
func parseASCII(reader io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	model := NewModel("")

	var currentNormal geometry.Vector3
	var vertices []geometry.Vector3
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)

		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "solid":
			if len(fields) > 1 {
				model.Name = strings.Join(fields[1:], " ")
			}

		case "facet":
			if len(fields) >= 5 && fields[1] == "normal" {
				n, err := parseFloats(fields[2:5])
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid facet normal: %w", lineNo, err)
				}
				currentNormal = n
			}

		case "vertex":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", lineNo)
			}
			v, err := parseFloats(fields[1:4])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex: %w", lineNo, err)
			}
			vertices = append(vertices, v)

		case "endfacet":
			if len(vertices) != 3 {
				return nil, fmt.Errorf("line %d: facet has %d vertices, expected 3", lineNo, len(vertices))
			}
			model.AddTriangle(geometry.NewTriangle(
				currentNormal,
				vertices[0],
				vertices[1],
				vertices[2],
			))
			vertices = vertices[:0]
			currentNormal = geometry.Vector3{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASCII STL: %w", err)
	}

	return model, nil
}

func parseFloats(fields []string) (geometry.Vector3, error) {
	var xyz [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geometry.Vector3{}, err
		}
		xyz[i] = v
	}
	return geometry.NewVector3(xyz[0], xyz[1], xyz[2]), nil
}

// parseBinary parses a binary STL file
func parseBinary(reader *bytes.Reader) (*Model, error) {
	model := NewModel("")

	header := make([]byte, binaryHeaderSize)
	if _, err := io.ReadFull(reader, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerStr := strings.TrimSpace(string(bytes.TrimRight(header, "\x00")))
	if len(headerStr) > 0 {
		model.Name = headerStr
	}

	var triangleCount uint32
	if err := binary.Read(reader, binary.LittleEndian, &triangleCount); err != nil {
		return nil, fmt.Errorf("failed to read triangle count: %w", err)
	}
	if int64(triangleCount)*binaryTriangleSize > int64(reader.Len()) {
		return nil, fmt.Errorf("truncated binary STL: header announces %d triangles, %d bytes remain",
			triangleCount, reader.Len())
	}

	model.Triangles = make([]geometry.Triangle, 0, triangleCount)

	// normal, three vertices, attribute byte count
	var facet struct {
		Normal, V1, V2, V3 [3]float32
		Attribute          uint16
	}
	for i := uint32(0); i < triangleCount; i++ {
		if err := binary.Read(reader, binary.LittleEndian, &facet); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d: %w", i, err)
		}
		model.AddTriangle(geometry.NewTriangle(
			toVector(facet.Normal),
			toVector(facet.V1),
			toVector(facet.V2),
			toVector(facet.V3),
		))
	}

	return model, nil
}

func toVector(v [3]float32) geometry.Vector3 {
	return geometry.NewVector3(float64(v[0]), float64(v[1]), float64(v[2]))
}
