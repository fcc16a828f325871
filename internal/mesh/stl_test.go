package mesh

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func writeBinarySTL(m *Mesh) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(len(m.Triangles)))
	for _, tri := range m.Triangles {
		binary.Write(&buf, binary.LittleEndian, [3]float32{0, 0, 0}) // normal, recomputed on read
		for _, vi := range tri {
			v := m.Vertices[vi]
			binary.Write(&buf, binary.LittleEndian, [3]float32{float32(v.X), float32(v.Y), float32(v.Z)})
		}
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestReadSTL_Binary(t *testing.T) {
	src := Box(10, 20, 30)
	m, err := ReadSTL(bytes.NewReader(writeBinarySTL(src)))
	if err != nil {
		t.Fatalf("ReadSTL: %v", err)
	}
	if len(m.Triangles) != 12 {
		t.Errorf("got %d triangles, want 12", len(m.Triangles))
	}
	if len(m.Vertices) != 8 {
		t.Errorf("got %d welded vertices, want 8", len(m.Vertices))
	}
	bb := m.BoundingBox(Identity())
	if math.Abs(bb.MaxZ-30) > 1e-9 || math.Abs(bb.MaxY-20) > 1e-9 {
		t.Errorf("bounding box = %+v", bb)
	}
}

func TestReadSTL_ASCII(t *testing.T) {
	const src = `solid tetra
facet normal 0 0 -1
 outer loop
  vertex 0 0 0
  vertex 1 0 0
  vertex 0 1 0
 endloop
endfacet
facet normal 0 -1 0
 outer loop
  vertex 0 0 0
  vertex 0 0 1
  vertex 1 0 0
 endloop
endfacet
endsolid tetra
`
	m, err := ReadSTL(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadSTL: %v", err)
	}
	if len(m.Triangles) != 2 {
		t.Errorf("got %d triangles, want 2", len(m.Triangles))
	}
	if len(m.Vertices) != 5 {
		t.Errorf("got %d vertices, want 5", len(m.Vertices))
	}
}
