package cfr

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/x448/float16"
)

// AttribType is the storage type of a vertex attribute. The low seven bits
// select the variable type (GL numbering), bit 7 marks normalized integers.
type AttribType uint8

// Attribute types.
const (
	TypeDisable           AttribType = 0xFF
	TypeByte              AttribType = 0x00
	TypeUnsignedByte      AttribType = 0x01
	TypeShort             AttribType = 0x02
	TypeUnsignedShort     AttribType = 0x03
	TypeFloat             AttribType = 0x06
	TypeHalfFloat         AttribType = 0x0B
	TypeNormByte          AttribType = 0x80
	TypeNormUnsignedByte  AttribType = 0x81
	TypeNormShort         AttribType = 0x82
	TypeNormUnsignedShort AttribType = 0x83
)

const normalizedBit AttribType = 0x80

var attribTypeNames = map[AttribType]string{
	TypeDisable:           "disable",
	TypeByte:              "byte",
	TypeUnsignedByte:      "ubyte",
	TypeShort:             "short",
	TypeUnsignedShort:     "ushort",
	TypeFloat:             "float",
	TypeHalfFloat:         "half",
	TypeNormByte:          "norm_byte",
	TypeNormUnsignedByte:  "norm_ubyte",
	TypeNormShort:         "norm_short",
	TypeNormUnsignedShort: "norm_ushort",
}

// ParseAttribType converts a configuration name such as "half" or
// "norm_short" to its type code.
func ParseAttribType(name string) (AttribType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "float32":
		return TypeFloat, nil
	case "half_float", "float16":
		return TypeHalfFloat, nil
	case "disabled", "none":
		return TypeDisable, nil
	}
	for t, n := range attribTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAttributeType, name)
}

// Valid reports whether t is one of the recognized type codes.
func (t AttribType) Valid() bool {
	_, ok := attribTypeNames[t]
	return ok
}

// Normalized reports whether t maps integers to [-1,1] or [0,1].
func (t AttribType) Normalized() bool {
	return t != TypeDisable && t&normalizedBit != 0
}

// Size returns the number of bytes used to store one component.
func (t AttribType) Size() int {
	switch t &^ normalizedBit {
	case TypeByte, TypeUnsignedByte:
		return 1
	case TypeShort, TypeUnsignedShort, TypeHalfFloat:
		return 2
	case TypeFloat:
		return 4
	}
	return 0
}

// String returns the configuration name of the type.
func (t AttribType) String() string {
	if n, ok := attribTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
}

// Quantize returns v as it reads back after being stored with type t.
func (t AttribType) Quantize(v float32) float32 {
	if t == TypeDisable {
		return 0
	}
	if t == TypeFloat {
		return v
	}
	return t.decode(t.encode(v))
}

// encode converts v to the raw stored representation of t, right-aligned in
// a uint32 (two's complement for signed integers).
func (t AttribType) encode(v float32) uint32 {
	switch t {
	case TypeFloat:
		return math.Float32bits(v)
	case TypeHalfFloat:
		return uint32(float16.Fromfloat32(v).Bits())
	case TypeByte:
		return uint32(uint8(int8(roundClamp(v, -127, 127))))
	case TypeUnsignedByte:
		return uint32(roundClamp(v, 0, 255))
	case TypeShort:
		return uint32(uint16(int16(roundClamp(v, -32767, 32767))))
	case TypeUnsignedShort:
		return uint32(roundClamp(v, 0, 65535))
	case TypeNormByte:
		return uint32(uint8(int8(roundClamp(clamp(v, -1, 1)*127, -127, 127))))
	case TypeNormUnsignedByte:
		return uint32(roundClamp(clamp(v, 0, 1)*255, 0, 255))
	case TypeNormShort:
		return uint32(uint16(int16(roundClamp(clamp(v, -1, 1)*32767, -32767, 32767))))
	case TypeNormUnsignedShort:
		return uint32(roundClamp(clamp(v, 0, 1)*65535, 0, 65535))
	}
	return 0
}

// decode is the inverse of encode.
func (t AttribType) decode(raw uint32) float32 {
	switch t {
	case TypeFloat:
		return math.Float32frombits(raw)
	case TypeHalfFloat:
		return float16.Frombits(uint16(raw)).Float32()
	case TypeByte:
		return float32(int8(raw))
	case TypeUnsignedByte:
		return float32(uint8(raw))
	case TypeShort:
		return float32(int16(raw))
	case TypeUnsignedShort:
		return float32(uint16(raw))
	case TypeNormByte:
		return max(float32(int8(raw))/127, -1)
	case TypeNormUnsignedByte:
		return float32(uint8(raw)) / 255
	case TypeNormShort:
		return max(float32(int16(raw))/32767, -1)
	case TypeNormUnsignedShort:
		return float32(uint16(raw)) / 65535
	}
	return 0
}

// put stores v into b using t's width, little-endian.
func (t AttribType) put(b []byte, v float32) {
	raw := t.encode(v)
	switch t.Size() {
	case 1:
		b[0] = uint8(raw)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(raw))
	case 4:
		binary.LittleEndian.PutUint32(b, raw)
	}
}

// get reads one component stored with type t from b.
func (t AttribType) get(b []byte) float32 {
	var raw uint32
	switch t.Size() {
	case 1:
		raw = uint32(b[0])
	case 2:
		raw = uint32(binary.LittleEndian.Uint16(b))
	case 4:
		raw = binary.LittleEndian.Uint32(b)
	}
	return t.decode(raw)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundClamp rounds half away from zero and clamps to [lo, hi]. NaN maps to 0.
func roundClamp(v, lo, hi float32) int32 {
	if v != v {
		return 0
	}
	r := math.Round(float64(v))
	if r < float64(lo) {
		return int32(lo)
	}
	if r > float64(hi) {
		return int32(hi)
	}
	return int32(r)
}

// Attribute identifies one attribute group of a vertex.
type Attribute int

// Attribute groups in canonical storage order.
const (
	AttribPosition Attribute = iota
	AttribTexcoord
	AttribNormal
	AttribTangent
	attribCount
)

// Attributes lists every attribute group in storage order.
var Attributes = [attribCount]Attribute{AttribPosition, AttribTexcoord, AttribNormal, AttribTangent}

// Components returns the number of float components of the attribute.
func (a Attribute) Components() int {
	switch a {
	case AttribPosition, AttribNormal:
		return 3
	case AttribTexcoord:
		return 2
	case AttribTangent:
		return 4
	}
	return 0
}

// String returns the attribute name.
func (a Attribute) String() string {
	switch a {
	case AttribPosition:
		return "position"
	case AttribTexcoord:
		return "texcoord"
	case AttribNormal:
		return "normal"
	case AttribTangent:
		return "tangent"
	}
	return fmt.Sprintf("Attribute(%d)", int(a))
}

// Layout holds the storage type of every attribute group.
type Layout [attribCount]AttribType

// DefaultLayout stores positions as 32-bit floats and everything else as
// half floats.
func DefaultLayout() Layout {
	return Layout{TypeFloat, TypeHalfFloat, TypeHalfFloat, TypeHalfFloat}
}

// Validate checks that every type code is recognized.
func (l Layout) Validate() error {
	for _, a := range Attributes {
		if !l[a].Valid() {
			return fmt.Errorf("%w: %s type 0x%02X", ErrInvalidAttributeType, a, uint8(l[a]))
		}
	}
	return nil
}

// AttribSize returns the number of bytes attribute a occupies in a vertex.
func (l Layout) AttribSize(a Attribute) int {
	return a.Components() * l[a].Size()
}

// VertexSize returns the number of bytes of one serialized vertex.
func (l Layout) VertexSize() int {
	n := 0
	for _, a := range Attributes {
		n += l.AttribSize(a)
	}
	return n
}

// Offsets returns the canonical byte offset of every enabled attribute.
// Disabled attributes get -1.
func (l Layout) Offsets() [attribCount]int {
	var offsets [attribCount]int
	offset := 0
	for _, a := range Attributes {
		if l[a] == TypeDisable {
			offsets[a] = -1
			continue
		}
		offsets[a] = offset
		offset += l.AttribSize(a)
	}
	return offsets
}

// Quantize replaces every component of v with its stored representation.
func (l Layout) Quantize(v Vertex) Vertex {
	for _, a := range Attributes {
		c := v.attrib(a)
		for i := range c {
			c[i] = l[a].Quantize(c[i])
		}
	}
	return v
}
