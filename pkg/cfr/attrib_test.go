package cfr

import (
	"errors"
	"math"
	"testing"
)

func TestParseAttribType(t *testing.T) {
	tests := []struct {
		name string
		want AttribType
	}{
		{"float", TypeFloat},
		{"float32", TypeFloat},
		{"half", TypeHalfFloat},
		{"Half_Float", TypeHalfFloat},
		{"short", TypeShort},
		{"ushort", TypeUnsignedShort},
		{"byte", TypeByte},
		{"ubyte", TypeUnsignedByte},
		{"norm_short", TypeNormShort},
		{"norm_ushort", TypeNormUnsignedShort},
		{"norm_byte", TypeNormByte},
		{" norm_ubyte ", TypeNormUnsignedByte},
		{"disable", TypeDisable},
		{"none", TypeDisable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAttribType(tt.name)
			if err != nil {
				t.Fatalf("ParseAttribType(%q) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseAttribType(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}

	if _, err := ParseAttribType("double"); !errors.Is(err, ErrInvalidAttributeType) {
		t.Errorf("expected ErrInvalidAttributeType, got %v", err)
	}
}

func TestAttribType_Properties(t *testing.T) {
	tests := []struct {
		typ        AttribType
		size       int
		normalized bool
	}{
		{TypeDisable, 0, false},
		{TypeByte, 1, false},
		{TypeUnsignedByte, 1, false},
		{TypeShort, 2, false},
		{TypeUnsignedShort, 2, false},
		{TypeFloat, 4, false},
		{TypeHalfFloat, 2, false},
		{TypeNormByte, 1, true},
		{TypeNormUnsignedByte, 1, true},
		{TypeNormShort, 2, true},
		{TypeNormUnsignedShort, 2, true},
	}

	for _, tt := range tests {
		if !tt.typ.Valid() {
			t.Errorf("%s: expected valid", tt.typ)
		}
		if got := tt.typ.Size(); got != tt.size {
			t.Errorf("%s: size = %d, want %d", tt.typ, got, tt.size)
		}
		if got := tt.typ.Normalized(); got != tt.normalized {
			t.Errorf("%s: normalized = %v, want %v", tt.typ, got, tt.normalized)
		}
	}

	for _, code := range []uint8{0x04, 0x05, 0x07, 0x84, 0x8B, 0xFE} {
		if AttribType(code).Valid() {
			t.Errorf("code 0x%02X should be invalid", code)
		}
	}
}

func TestAttribType_Quantize(t *testing.T) {
	tests := []struct {
		name string
		typ  AttribType
		in   float32
		want float32
	}{
		{"disable", TypeDisable, 3.5, 0},
		{"float identity", TypeFloat, 0.1, 0.1},
		{"byte round half away", TypeByte, 2.5, 3},
		{"byte negative round", TypeByte, -2.5, -3},
		{"byte clamp high", TypeByte, 300, 127},
		{"byte clamp low", TypeByte, -300, -127},
		{"ubyte clamp negative", TypeUnsignedByte, -4, 0},
		{"ubyte clamp high", TypeUnsignedByte, 1000, 255},
		{"short clamp", TypeShort, -40000, -32767},
		{"ushort round", TypeUnsignedShort, 41.4, 41},
		{"norm byte one", TypeNormByte, 1, 1},
		{"norm byte minus one", TypeNormByte, -1, -1},
		{"norm byte clamp", TypeNormByte, 7, 1},
		{"norm ubyte clamp negative", TypeNormUnsignedByte, -0.5, 0},
		{"norm ushort one", TypeNormUnsignedShort, 1, 1},
		{"norm short clamp low", TypeNormShort, -2, -1},
		{"half exact", TypeHalfFloat, 0.5, 0.5},
		{"byte nan", TypeByte, float32(math.NaN()), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.Quantize(tt.in); got != tt.want {
				t.Errorf("Quantize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAttribType_QuantizeErrorBounds(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		v := float32(i)/500 - 1 // [-1, 1]

		if got := TypeHalfFloat.Quantize(v); v != 0 && math.Abs(float64(got-v)/float64(v)) > 1.0/2048 {
			t.Errorf("half %v -> %v exceeds relative error 2^-11", v, got)
		}
		if got := TypeNormByte.Quantize(v); math.Abs(float64(got-v)) > 1.0/127 {
			t.Errorf("norm_byte %v -> %v exceeds 1/127", v, got)
		}
		if got := TypeNormShort.Quantize(v); math.Abs(float64(got-v)) > 1.0/32767 {
			t.Errorf("norm_short %v -> %v exceeds 1/32767", v, got)
		}

		u := float32(i) / 1000 // [0, 1]
		if got := TypeNormUnsignedByte.Quantize(u); math.Abs(float64(got-u)) > 1.0/255 {
			t.Errorf("norm_ubyte %v -> %v exceeds 1/255", u, got)
		}
		if got := TypeNormUnsignedShort.Quantize(u); math.Abs(float64(got-u)) > 1.0/65535 {
			t.Errorf("norm_ushort %v -> %v exceeds 1/65535", u, got)
		}
	}
}

func TestAttribType_QuantizeIdempotent(t *testing.T) {
	types := []AttribType{
		TypeByte, TypeUnsignedByte, TypeShort, TypeUnsignedShort, TypeHalfFloat,
		TypeNormByte, TypeNormUnsignedByte, TypeNormShort, TypeNormUnsignedShort,
	}
	values := []float32{-1.7, -1, -0.33, 0, 0.001, 0.25, 0.7071, 1, 12.5, 65504}

	for _, typ := range types {
		for _, v := range values {
			q := typ.Quantize(v)
			if qq := typ.Quantize(q); math.Float32bits(qq) != math.Float32bits(q) {
				t.Errorf("%s: Quantize(Quantize(%v)) = %v, want %v", typ, v, qq, q)
			}
		}
	}
}

func TestLayout(t *testing.T) {
	l := DefaultLayout()
	if err := l.Validate(); err != nil {
		t.Fatalf("default layout invalid: %v", err)
	}
	// 3*4 + 2*2 + 3*2 + 4*2
	if got := l.VertexSize(); got != 30 {
		t.Errorf("expected vertex size 30, got %d", got)
	}
	if got, want := l.Offsets(), [attribCount]int{0, 12, 16, 22}; got != want {
		t.Errorf("offsets = %v, want %v", got, want)
	}

	l[AttribTexcoord] = TypeDisable
	l[AttribTangent] = TypeNormByte
	if got, want := l.Offsets(), [attribCount]int{0, -1, 12, 18}; got != want {
		t.Errorf("offsets = %v, want %v", got, want)
	}
	if got := l.VertexSize(); got != 22 {
		t.Errorf("expected vertex size 22, got %d", got)
	}

	l[AttribNormal] = AttribType(0x42)
	if err := l.Validate(); !errors.Is(err, ErrInvalidAttributeType) {
		t.Errorf("expected ErrInvalidAttributeType, got %v", err)
	}
}
