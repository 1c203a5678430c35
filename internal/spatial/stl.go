// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package spatial

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	stlHeaderSize   = 80
	stlFacetSize    = 50
	stlMaxTriangles = 20_000_000
)

// ErrInvalidSTL is returned for payloads that decode as neither binary nor
// ASCII STL.
var ErrInvalidSTL = errors.New("invalid STL payload")

// Triangle is one facet in model-local coordinates.
type Triangle [3]mgl64.Vec3

// Mesh is a decoded, non-indexed triangle soup.
type Mesh struct {
	Triangles []Triangle
}

// Vertices returns the candidate vertex set: three corners per facet, in
// file order. Shared corners appear once per facet that uses them.
func (m *Mesh) Vertices() []mgl64.Vec3 {
	if m == nil {
		return nil
	}
	out := make([]mgl64.Vec3, 0, len(m.Triangles)*3)
	for _, t := range m.Triangles {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}

// ParseSTL decodes data as binary STL when its length matches the facet
// count in the header, and as ASCII STL otherwise.
func ParseSTL(data []byte) (*Mesh, error) {
	if len(data) >= stlHeaderSize+4 {
		n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if n <= stlMaxTriangles && uint64(len(data)) == stlHeaderSize+4+uint64(n)*stlFacetSize {
			return parseBinarySTL(data, int(n))
		}
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) >= 5 && strings.EqualFold(string(trimmed[:5]), "solid") {
		return parseASCIISTL(trimmed)
	}
	return nil, ErrInvalidSTL
}

func parseBinarySTL(data []byte, n int) (*Mesh, error) {
	if n == 0 {
		return nil, fmt.Errorf("%w: no facets", ErrInvalidSTL)
	}
	m := &Mesh{Triangles: make([]Triangle, n)}
	off := stlHeaderSize + 4
	for i := 0; i < n; i++ {
		// 12 bytes of facet normal precede the corners
		p := off + 12
		for c := 0; c < 3; c++ {
			var v mgl64.Vec3
			for k := 0; k < 3; k++ {
				f := math.Float32frombits(binary.LittleEndian.Uint32(data[p:]))
				if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
					return nil, fmt.Errorf("%w: non-finite coordinate in facet %d", ErrInvalidSTL, i)
				}
				v[k] = float64(f)
				p += 4
			}
			m.Triangles[i][c] = v
		}
		off += stlFacetSize
	}
	return m, nil
}

func parseASCIISTL(data []byte) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var corners []mgl64.Vec3
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrInvalidSTL, line)
			}
			var v mgl64.Vec3
			for k := 0; k < 3; k++ {
				f, err := strconv.ParseFloat(fields[k+1], 64)
				if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
					return nil, fmt.Errorf("%w: line %d: bad coordinate %q", ErrInvalidSTL, line, fields[k+1])
				}
				v[k] = f
			}
			corners = append(corners, v)
		case "endloop":
			if len(corners) != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrInvalidSTL, line, len(corners))
			}
			m.Triangles = append(m.Triangles, Triangle{corners[0], corners[1], corners[2]})
			corners = corners[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSTL, err)
	}
	if len(corners) != 0 {
		return nil, fmt.Errorf("%w: unterminated facet", ErrInvalidSTL)
	}
	if len(m.Triangles) == 0 {
		return nil, fmt.Errorf("%w: no facets", ErrInvalidSTL)
	}
	return m, nil
}

// EncodeBinarySTL writes m as binary STL with zero normals. Used to build
// fixtures and by the SDK when uploading generated geometry.
func EncodeBinarySTL(m *Mesh) []byte {
	buf := make([]byte, stlHeaderSize+4+len(m.Triangles)*stlFacetSize)
	copy(buf, "modelview")
	binary.LittleEndian.PutUint32(buf[stlHeaderSize:], uint32(len(m.Triangles)))
	p := stlHeaderSize + 4
	for _, t := range m.Triangles {
		p += 12
		for _, v := range t {
			for k := 0; k < 3; k++ {
				binary.LittleEndian.PutUint32(buf[p:], math.Float32bits(float32(v[k])))
				p += 4
			}
		}
		p += 2
	}
	return buf
}
