package cfr

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Geometry container constants.
const (
	GeometryMagic   uint32 = 0x47524643 // "CFRG" little-endian
	GeometryVersion uint32 = 1

	geometryHeaderSize = 32
	attribUnused       = 0xFF

	// maxReserve bounds the capacity taken from an untrusted header.
	maxReserve = 1 << 22
)

// attribDesc is the per-attribute header entry.
type attribDesc struct {
	Offset uint8
	Type   AttribType
}

// geometryFields follows magic and version in the header.
type geometryFields struct {
	ElementCount uint32
	VertexCount  uint32
	VertexBytes  uint8
	ElementBytes uint8
	Attribs      [attribCount]attribDesc
	_            [6]byte
}

// readStage names the part of a container being decoded, for error context.
type readStage int

const (
	stageMagic readStage = iota
	stageVersion
	stageHeader
	stageVertices
	stageElements
)

func (s readStage) String() string {
	switch s {
	case stageMagic:
		return "magic"
	case stageVersion:
		return "version"
	case stageHeader:
		return "header"
	case stageVertices:
		return "vertex block"
	case stageElements:
		return "element block"
	}
	return "unknown"
}

// readFailure wraps a stream error with the stage it happened in. A clean
// EOF inside a container is always a truncation.
func readFailure(stage readStage, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("reading %s: %w", stage, err)
}

// ElementWidth returns the narrowest element size in bytes (1, 2 or 4)
// able to hold max.
func ElementWidth(max uint64) (int, error) {
	switch {
	case max <= math.MaxUint8:
		return 1, nil
	case max <= math.MaxUint16:
		return 2, nil
	case max <= math.MaxUint32:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: element %d exceeds 32 bits", ErrValueOutOfRange, max)
}

// WriteGeometry serializes g to w.
func WriteGeometry(w io.Writer, g *Geometry) error {
	layout := g.Layout()
	if err := layout.Validate(); err != nil {
		return err
	}
	if uint64(g.ElementCount()) > math.MaxUint32 {
		return fmt.Errorf("%w: %d elements", ErrValueOutOfRange, g.ElementCount())
	}
	if uint64(g.VertexCount()) > math.MaxUint32 {
		return fmt.Errorf("%w: %d vertices", ErrValueOutOfRange, g.VertexCount())
	}
	vertexBytes := layout.VertexSize()
	if vertexBytes == 0 {
		return fmt.Errorf("%w: no bytes per vertex", ErrValueOutOfRange)
	}
	elementBytes, err := ElementWidth(uint64(g.ElementMax()))
	if err != nil {
		return err
	}

	fields := geometryFields{
		ElementCount: uint32(g.ElementCount()),
		VertexCount:  uint32(g.VertexCount()),
		VertexBytes:  uint8(vertexBytes),
		ElementBytes: uint8(elementBytes),
	}
	offsets := layout.Offsets()
	for _, a := range Attributes {
		if offsets[a] < 0 {
			fields.Attribs[a] = attribDesc{Offset: attribUnused, Type: TypeDisable}
			continue
		}
		fields.Attribs[a] = attribDesc{Offset: uint8(offsets[a]), Type: layout[a]}
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, [2]uint32{GeometryMagic, GeometryVersion}); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, &fields); err != nil {
		return err
	}

	buf := make([]byte, vertexBytes)
	for i := 0; i < g.VertexCount(); i++ {
		v := g.Vertex(i)
		for _, a := range Attributes {
			if offsets[a] < 0 {
				continue
			}
			t := layout[a]
			for c, value := range v.attrib(a) {
				t.put(buf[offsets[a]+c*t.Size():], value)
			}
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	ebuf := make([]byte, elementBytes)
	for i := 0; i < g.ElementCount(); i++ {
		e := g.Element(i)
		switch elementBytes {
		case 1:
			ebuf[0] = uint8(e)
		case 2:
			binary.LittleEndian.PutUint16(ebuf, uint16(e))
		case 4:
			binary.LittleEndian.PutUint32(ebuf, e)
		}
		if _, err := bw.Write(ebuf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// ReadGeometry replaces the contents of g with a container read from r.
// Vertices are stored as read, without deduplication. On error g is left
// unchanged.
func ReadGeometry(r io.Reader, g *Geometry) error {
	br := bufio.NewReader(r)

	var word uint32
	if err := binary.Read(br, binary.LittleEndian, &word); err != nil {
		return readFailure(stageMagic, err)
	}
	if word != GeometryMagic {
		return fmt.Errorf("%w: 0x%08X", ErrBadMagic, word)
	}
	if err := binary.Read(br, binary.LittleEndian, &word); err != nil {
		return readFailure(stageVersion, err)
	}
	if word != GeometryVersion {
		return fmt.Errorf("%w: %d", ErrBadVersion, word)
	}

	var fields geometryFields
	if err := binary.Read(br, binary.LittleEndian, &fields); err != nil {
		return readFailure(stageHeader, err)
	}
	layout, offsets, err := decodeLayout(&fields)
	if err != nil {
		return err
	}

	next := NewGeometry()
	if err := next.SetLayout(layout); err != nil {
		return err
	}
	next.ReserveVertices(int(min(fields.VertexCount, maxReserve)))
	next.ReserveElements(int(min(fields.ElementCount, maxReserve)))

	buf := make([]byte, fields.VertexBytes)
	for i := uint32(0); i < fields.VertexCount; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return readFailure(stageVertices, err)
		}
		var v Vertex
		for _, a := range Attributes {
			if offsets[a] < 0 {
				continue
			}
			t := layout[a]
			c := v.attrib(a)
			for j := range c {
				c[j] = t.get(buf[offsets[a]+j*t.Size():])
			}
		}
		next.PushVertex(v)
	}

	ebuf := make([]byte, fields.ElementBytes)
	for i := uint32(0); i < fields.ElementCount; i++ {
		if _, err := io.ReadFull(br, ebuf); err != nil {
			return readFailure(stageElements, err)
		}
		var e uint32
		switch fields.ElementBytes {
		case 1:
			e = uint32(ebuf[0])
		case 2:
			e = uint32(binary.LittleEndian.Uint16(ebuf))
		case 4:
			e = binary.LittleEndian.Uint32(ebuf)
		}
		if err := next.AddElement(e); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	g.adopt(next)
	return nil
}

// decodeLayout validates the header fields and returns the declared layout
// together with the offset of every enabled attribute (-1 when disabled).
func decodeLayout(f *geometryFields) (Layout, [attribCount]int, error) {
	var layout Layout
	var offsets [attribCount]int

	switch f.ElementBytes {
	case 1, 2, 4:
	default:
		return layout, offsets, fmt.Errorf("%w: %d bytes per element", ErrCorruptHeader, f.ElementBytes)
	}

	// used marks which bytes of a vertex are claimed by an attribute.
	used := make([]bool, f.VertexBytes)
	total := 0
	for _, a := range Attributes {
		d := f.Attribs[a]
		if !d.Type.Valid() {
			return layout, offsets, fmt.Errorf("%w: %s type 0x%02X", ErrCorruptHeader, a, uint8(d.Type))
		}
		layout[a] = d.Type
		if d.Type == TypeDisable {
			offsets[a] = -1
			continue
		}
		size := layout.AttribSize(a)
		start, end := int(d.Offset), int(d.Offset)+size
		if end > int(f.VertexBytes) {
			return layout, offsets, fmt.Errorf("%w: %s at offset %d exceeds %d bytes per vertex",
				ErrCorruptHeader, a, d.Offset, f.VertexBytes)
		}
		for i := start; i < end; i++ {
			if used[i] {
				return layout, offsets, fmt.Errorf("%w: %s overlaps another attribute", ErrCorruptHeader, a)
			}
			used[i] = true
		}
		offsets[a] = start
		total += size
	}
	if total != int(f.VertexBytes) {
		return layout, offsets, fmt.Errorf("%w: %d bytes per vertex, types need %d",
			ErrCorruptHeader, f.VertexBytes, total)
	}
	if total == 0 {
		return layout, offsets, fmt.Errorf("%w: no bytes per vertex", ErrCorruptHeader)
	}
	return layout, offsets, nil
}

// LoadGeometryFile reads a .cfrg file into g.
func LoadGeometryFile(path string, g *Geometry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening geometry: %w", err)
	}
	defer f.Close()

	if err := ReadGeometry(f, g); err != nil {
		return fmt.Errorf("loading geometry %s: %w", path, err)
	}
	return nil
}

// SaveGeometryFile writes g to path. The data goes to a temporary file in
// the same directory that replaces path only once fully written.
func SaveGeometryFile(path string, g *Geometry) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteGeometry(w, g)
	})
}

func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	name := tmp.Name()
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}
