package cfr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// createTestGeometry builds a geometry of n vertices along the x axis with a
// triangle list referencing them in order.
func createTestGeometry(t *testing.T, layout Layout, n int) *Geometry {
	t.Helper()
	g := NewGeometry()
	if err := g.SetLayout(layout); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		f := float32(i) / float32(n)
		g.PushVertex(Vertex{
			Position: [3]float32{float32(i), f, -f},
			Texcoord: [2]float32{f, 1 - f},
			Normal:   [3]float32{0, f, 1 - f},
			Tangent:  [4]float32{1 - f, 0, f, 1},
		})
		if err := g.AddElement(uint32(i)); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func allFloat() Layout {
	return Layout{TypeFloat, TypeFloat, TypeFloat, TypeFloat}
}

func roundTrip(t *testing.T, g *Geometry) *Geometry {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteGeometry(&buf, g); err != nil {
		t.Fatalf("WriteGeometry failed: %v", err)
	}
	out := NewGeometry()
	if err := ReadGeometry(&buf, out); err != nil {
		t.Fatalf("ReadGeometry failed: %v", err)
	}
	return out
}

func TestGeometry_RoundTripFloat(t *testing.T) {
	g := createTestGeometry(t, allFloat(), 37)
	g.PushVertex(Vertex{Position: [3]float32{float32(math.Inf(1)), float32(math.Copysign(0, -1)), 1e-40}})

	out := roundTrip(t, g)
	if out.Layout() != g.Layout() {
		t.Errorf("layout = %v, want %v", out.Layout(), g.Layout())
	}
	if out.VertexCount() != g.VertexCount() {
		t.Fatalf("expected %d vertices, got %d", g.VertexCount(), out.VertexCount())
	}
	for i := 0; i < g.VertexCount(); i++ {
		if out.Vertex(i).Key() != g.Vertex(i).Key() {
			t.Errorf("vertex %d differs: %v vs %v", i, out.Vertex(i), g.Vertex(i))
		}
	}
	if out.ElementCount() != g.ElementCount() {
		t.Fatalf("expected %d elements, got %d", g.ElementCount(), out.ElementCount())
	}
	for i := 0; i < g.ElementCount(); i++ {
		if out.Element(i) != g.Element(i) {
			t.Errorf("element %d: expected %d, got %d", i, g.Element(i), out.Element(i))
		}
	}
}

func TestGeometry_RoundTripLossy(t *testing.T) {
	layouts := []struct {
		name   string
		layout Layout
	}{
		{"default", DefaultLayout()},
		{"normalized", Layout{TypeHalfFloat, TypeNormUnsignedShort, TypeNormByte, TypeNormShort}},
		{"integer", Layout{TypeShort, TypeNormUnsignedByte, TypeNormByte, TypeDisable}},
	}

	for _, tt := range layouts {
		t.Run(tt.name, func(t *testing.T) {
			g := createTestGeometry(t, tt.layout, 50)
			out := roundTrip(t, g)

			// Vertices were quantized on insert, so the read-back is exact.
			for i := 0; i < g.VertexCount(); i++ {
				if out.Vertex(i).Key() != g.Vertex(i).Key() {
					t.Errorf("vertex %d differs: %v vs %v", i, out.Vertex(i), g.Vertex(i))
				}
			}
		})
	}
}

func TestGeometry_RoundTripLossyErrorBound(t *testing.T) {
	layout := Layout{TypeHalfFloat, TypeNormUnsignedByte, TypeNormByte, TypeHalfFloat}
	g := NewGeometry()
	if err := g.SetLayout(layout); err != nil {
		t.Fatal(err)
	}

	var source []Vertex
	for i := 1; i <= 64; i++ {
		f := float32(i) / 64
		v := Vertex{
			Position: [3]float32{f * 10, -f, f},
			Texcoord: [2]float32{f, 1 - f},
			Normal:   [3]float32{f, -f, 0.5},
			Tangent:  [4]float32{f, 1, -1, 1},
		}
		source = append(source, v)
		g.PushVertex(v)
	}

	out := roundTrip(t, g)
	for i, v := range source {
		got := out.Vertex(i)
		for c := range v.Position {
			if rel := math.Abs(float64(got.Position[c]-v.Position[c]) / float64(v.Position[c])); rel > 1.0/2048 {
				t.Errorf("vertex %d position[%d]: relative error %g", i, c, rel)
			}
		}
		for c := range v.Texcoord {
			if d := math.Abs(float64(got.Texcoord[c] - v.Texcoord[c])); d > 1.0/255 {
				t.Errorf("vertex %d texcoord[%d]: error %g", i, c, d)
			}
		}
		for c := range v.Normal {
			if d := math.Abs(float64(got.Normal[c] - v.Normal[c])); d > 1.0/127 {
				t.Errorf("vertex %d normal[%d]: error %g", i, c, d)
			}
		}
	}
}

func TestGeometry_DisabledAttributeOmitted(t *testing.T) {
	layout := Layout{TypeFloat, TypeDisable, TypeFloat, TypeDisable}
	g := createTestGeometry(t, layout, 3)

	var buf bytes.Buffer
	if err := WriteGeometry(&buf, g); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if want := geometryHeaderSize + 3*24 + 3; len(data) != want {
		t.Fatalf("expected %d bytes, got %d", want, len(data))
	}
	if data[16] != 24 || data[17] != 1 {
		t.Errorf("expected vertex size 24 and element size 1, got %d and %d", data[16], data[17])
	}
	// texcoord descriptor
	if data[20] != attribUnused || data[21] != uint8(TypeDisable) {
		t.Errorf("expected disabled texcoord descriptor, got %d/%d", data[20], data[21])
	}
	// normal descriptor
	if data[22] != 12 || data[23] != uint8(TypeFloat) {
		t.Errorf("expected normal at offset 12, got %d/%d", data[22], data[23])
	}

	out := NewGeometry()
	if err := ReadGeometry(bytes.NewReader(data), out); err != nil {
		t.Fatal(err)
	}
	if out.Enabled(AttribTexcoord) || out.Enabled(AttribTangent) {
		t.Error("expected texcoord and tangent disabled after read")
	}
	if got := out.Vertex(1).Texcoord; got != [2]float32{} {
		t.Errorf("expected zero texcoord, got %v", got)
	}
}

func TestElementWidth(t *testing.T) {
	tests := []struct {
		max  uint64
		want int
	}{
		{0, 1},
		{200, 1},
		{255, 1},
		{256, 2},
		{50000, 2},
		{65535, 2},
		{65536, 4},
		{math.MaxUint32, 4},
	}

	for _, tt := range tests {
		got, err := ElementWidth(tt.max)
		if err != nil {
			t.Errorf("ElementWidth(%d) failed: %v", tt.max, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ElementWidth(%d) = %d, want %d", tt.max, got, tt.want)
		}
	}

	if _, err := ElementWidth(5_000_000_000); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("expected ErrValueOutOfRange for 5e9, got %v", err)
	}
}

func TestWriteGeometry_ElementWidthOnDisk(t *testing.T) {
	layout := Layout{TypeUnsignedShort, TypeDisable, TypeDisable, TypeDisable}
	tests := []struct {
		count int
		width uint8
	}{
		{201, 1},
		{256, 1},
		{257, 2},
		{50001, 2},
		{65536, 2},
		{65537, 4},
	}

	for _, tt := range tests {
		// Vertex i has elementMax count-1.
		g := createTestGeometry(t, layout, tt.count)
		var buf bytes.Buffer
		if err := WriteGeometry(&buf, g); err != nil {
			t.Fatalf("count %d: %v", tt.count, err)
		}
		data := buf.Bytes()
		if data[17] != tt.width {
			t.Errorf("max %d: expected element width %d, got %d", tt.count-1, tt.width, data[17])
		}
		if want := geometryHeaderSize + tt.count*6 + tt.count*int(tt.width); len(data) != want {
			t.Errorf("max %d: expected %d bytes, got %d", tt.count-1, want, len(data))
		}
	}
}

func TestWriteGeometry_Rejects(t *testing.T) {
	g := NewGeometry()
	g.Disable(Attributes[:]...)
	if err := WriteGeometry(io.Discard, g); !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("expected ErrValueOutOfRange for zero vertex size, got %v", err)
	}

	g = NewGeometry()
	g.layout[AttribNormal] = AttribType(0x33)
	if err := WriteGeometry(io.Discard, g); !errors.Is(err, ErrInvalidAttributeType) {
		t.Errorf("expected ErrInvalidAttributeType, got %v", err)
	}
}

// createTestHeader encodes a geometry header with the given fields.
func createTestHeader(magic, version uint32, f geometryFields) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, magic)
	binary.Write(buf, binary.LittleEndian, version)
	binary.Write(buf, binary.LittleEndian, &f)
	return buf.Bytes()
}

func validFields() geometryFields {
	return geometryFields{
		VertexBytes:  12,
		ElementBytes: 1,
		Attribs: [attribCount]attribDesc{
			{0, TypeFloat},
			{attribUnused, TypeDisable},
			{attribUnused, TypeDisable},
			{attribUnused, TypeDisable},
		},
	}
}

func TestReadGeometry_HeaderRejection(t *testing.T) {
	withElementBytes := func(n uint8) geometryFields {
		f := validFields()
		f.ElementBytes = n
		return f
	}
	badType := validFields()
	badType.Attribs[AttribNormal] = attribDesc{12, AttribType(0x09)}
	widthMismatch := validFields()
	widthMismatch.VertexBytes = 16
	outside := validFields()
	outside.Attribs[AttribPosition].Offset = 4
	overlap := validFields()
	overlap.VertexBytes = 24
	overlap.Attribs[AttribNormal] = attribDesc{6, TypeFloat}
	empty := validFields()
	empty.VertexBytes = 0
	empty.Attribs[AttribPosition] = attribDesc{attribUnused, TypeDisable}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"wrong magic", createTestHeader(0x4D524643, GeometryVersion, validFields()), ErrBadMagic},
		{"wrong version", createTestHeader(GeometryMagic, 2, validFields()), ErrBadVersion},
		{"element width 0", createTestHeader(GeometryMagic, GeometryVersion, withElementBytes(0)), ErrCorruptHeader},
		{"element width 3", createTestHeader(GeometryMagic, GeometryVersion, withElementBytes(3)), ErrCorruptHeader},
		{"unknown type", createTestHeader(GeometryMagic, GeometryVersion, badType), ErrCorruptHeader},
		{"vertex width mismatch", createTestHeader(GeometryMagic, GeometryVersion, widthMismatch), ErrCorruptHeader},
		{"attribute outside vertex", createTestHeader(GeometryMagic, GeometryVersion, outside), ErrCorruptHeader},
		{"overlapping attributes", createTestHeader(GeometryMagic, GeometryVersion, overlap), ErrCorruptHeader},
		{"no enabled attribute", createTestHeader(GeometryMagic, GeometryVersion, empty), ErrCorruptHeader},
		{"empty input", nil, io.ErrUnexpectedEOF},
		{"truncated header", createTestHeader(GeometryMagic, GeometryVersion, validFields())[:20], io.ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGeometry()
			err := ReadGeometry(bytes.NewReader(tt.data), g)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReadGeometry_Truncated(t *testing.T) {
	g := createTestGeometry(t, DefaultLayout(), 10)
	var buf bytes.Buffer
	if err := WriteGeometry(&buf, g); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	for _, n := range []int{geometryHeaderSize + 1, geometryHeaderSize + 30*10, len(data) - 1} {
		err := ReadGeometry(bytes.NewReader(data[:n]), NewGeometry())
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("truncated at %d: expected io.ErrUnexpectedEOF, got %v", n, err)
		}
	}
}

func TestReadGeometry_ErrorKeepsGeometry(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGeometry(&buf, createTestGeometry(t, allFloat(), 10)); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	g := createTestGeometry(t, DefaultLayout(), 3)
	before := g.Vertices()
	for _, n := range []int{geometryHeaderSize + 48*5, len(data) - 1} {
		if err := ReadGeometry(bytes.NewReader(data[:n]), g); err == nil {
			t.Fatalf("truncated at %d: expected error", n)
		}
		if g.Layout() != DefaultLayout() || g.VertexCount() != 3 || g.ElementCount() != 3 {
			t.Fatalf("truncated at %d: geometry changed to %d vertices, %d elements, layout %v",
				n, g.VertexCount(), g.ElementCount(), g.Layout())
		}
		for i, v := range g.Vertices() {
			if !v.Equal(before[i]) {
				t.Errorf("truncated at %d: vertex %d = %v, want %v", n, i, v, before[i])
			}
		}
	}
}

func TestReadGeometry_QuantizesThroughTarget(t *testing.T) {
	g := roundTrip(t, createTestGeometry(t, allFloat(), 3))
	g.Disable(AttribNormal)
	i := g.AddVertex(Vertex{Position: [3]float32{9, 9, 9}, Normal: [3]float32{0, 1, 0}})
	if n := g.Vertex(int(i)).Normal; n != [3]float32{} {
		t.Errorf("normal = %v, want zero after disabling it", n)
	}
}

func TestReadGeometry_ElementOutOfRange(t *testing.T) {
	f := validFields()
	f.VertexCount = 1
	f.ElementCount = 1
	data := createTestHeader(GeometryMagic, GeometryVersion, f)
	data = append(data, make([]byte, 12)...) // one vertex
	data = append(data, 5)                   // element 5

	err := ReadGeometry(bytes.NewReader(data), NewGeometry())
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestReadGeometry_NoDeduplication(t *testing.T) {
	f := validFields()
	f.VertexCount = 3
	f.ElementCount = 3
	data := createTestHeader(GeometryMagic, GeometryVersion, f)
	data = append(data, make([]byte, 36)...) // three identical vertices
	data = append(data, 0, 1, 2)

	g := NewGeometry()
	if err := ReadGeometry(bytes.NewReader(data), g); err != nil {
		t.Fatal(err)
	}
	if g.VertexCount() != 3 {
		t.Errorf("expected 3 vertices as stored, got %d", g.VertexCount())
	}
}

func TestGeometry_SharedVertexScenario(t *testing.T) {
	corner := func(x, y, u, v float32) Vertex {
		return Vertex{
			Position: [3]float32{x, y, 0},
			Texcoord: [2]float32{u, v},
			Normal:   [3]float32{0, 0, 1},
			Tangent:  [4]float32{1, 0, 0, 1},
		}
	}
	a := corner(0, 0, 0, 0)
	b := corner(1, 0, 1, 0)
	c := corner(1, 1, 1, 1)
	d := corner(0, 1, 0, 1)

	triangles := [][3]Vertex{
		{a, b, c},
		{a, c, d},
		{d, c, a},
	}

	g := NewGeometry()
	for _, tri := range triangles {
		for _, v := range tri {
			if err := g.AddElement(g.AddVertex(v)); err != nil {
				t.Fatal(err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "quad.cfrg")
	if err := SaveGeometryFile(path, g); err != nil {
		t.Fatalf("SaveGeometryFile failed: %v", err)
	}
	out := NewGeometry()
	if err := LoadGeometryFile(path, out); err != nil {
		t.Fatalf("LoadGeometryFile failed: %v", err)
	}

	if out.VertexCount() != 4 {
		t.Errorf("expected 4 vertices, got %d", out.VertexCount())
	}
	want := []uint32{0, 1, 2, 0, 2, 3, 3, 2, 0}
	got := out.Elements()
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestSaveGeometryFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.cfrg")
	g := createTestGeometry(t, DefaultLayout(), 4)

	if err := SaveGeometryFile(path, g); err != nil {
		t.Fatal(err)
	}
	// Overwrite in place.
	if err := SaveGeometryFile(path, g); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "mesh.cfrg" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only mesh.cfrg, got %v", names)
	}
}

func TestSaveGeometryFile_FailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.cfrg")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := NewGeometry()
	g.Disable(Attributes[:]...)
	if err := SaveGeometryFile(path, g); err == nil {
		t.Fatal("expected error")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Errorf("original file was modified: %q", data)
	}
}

func TestLoadGeometryFile_Missing(t *testing.T) {
	err := LoadGeometryFile(filepath.Join(t.TempDir(), "missing.cfrg"), NewGeometry())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
