package cfr

// Pixel8 is an RGBA pixel with 8-bit channels.
type Pixel8 struct {
	R, G, B, A uint8
}

// Pixel16 is an RGBA pixel with 16-bit channels.
type Pixel16 struct {
	R, G, B, A uint16
}

// Pixel32 is an RGBA pixel with 32-bit channels.
type Pixel32 struct {
	R, G, B, A uint32
}

// Channel widening repeats the narrow value so that the maximum maps to the
// maximum; narrowing keeps the most significant bits.
func widen8to16(v uint8) uint16  { return uint16(v)<<8 | uint16(v) }
func widen8to32(v uint8) uint32  { return uint32(v) * 0x01010101 }
func widen16to32(v uint16) uint32 { return uint32(v)<<16 | uint32(v) }
func narrow16to8(v uint16) uint8  { return uint8(v >> 8) }
func narrow32to8(v uint32) uint8  { return uint8(v >> 24) }
func narrow32to16(v uint32) uint16 { return uint16(v >> 16) }

// PackRGBA packs four 8-bit channels as 0xRRGGBBAA.
func PackRGBA(r, g, b, a uint8) uint32 {
	return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a)
}

// UnpackRGBA splits a 0xRRGGBBAA value into a Pixel8.
func UnpackRGBA(p uint32) Pixel8 {
	return Pixel8{R: uint8(p >> 24), G: uint8(p >> 16), B: uint8(p >> 8), A: uint8(p)}
}

// Packed returns the pixel as 0xRRGGBBAA.
func (p Pixel8) Packed() uint32 { return PackRGBA(p.R, p.G, p.B, p.A) }

// Pixel16 widens the pixel to 16-bit channels.
func (p Pixel8) Pixel16() Pixel16 {
	return Pixel16{widen8to16(p.R), widen8to16(p.G), widen8to16(p.B), widen8to16(p.A)}
}

// Pixel32 widens the pixel to 32-bit channels.
func (p Pixel8) Pixel32() Pixel32 {
	return Pixel32{widen8to32(p.R), widen8to32(p.G), widen8to32(p.B), widen8to32(p.A)}
}

// Packed returns the pixel as 0xRRGGBBAA, keeping the high byte of each channel.
func (p Pixel16) Packed() uint32 { return p.Pixel8().Packed() }

// Pixel8 narrows the pixel to 8-bit channels.
func (p Pixel16) Pixel8() Pixel8 {
	return Pixel8{narrow16to8(p.R), narrow16to8(p.G), narrow16to8(p.B), narrow16to8(p.A)}
}

// Pixel32 widens the pixel to 32-bit channels.
func (p Pixel16) Pixel32() Pixel32 {
	return Pixel32{widen16to32(p.R), widen16to32(p.G), widen16to32(p.B), widen16to32(p.A)}
}

// Packed returns the pixel as 0xRRGGBBAA, keeping the high byte of each channel.
func (p Pixel32) Packed() uint32 { return p.Pixel8().Packed() }

// Pixel8 narrows the pixel to 8-bit channels.
func (p Pixel32) Pixel8() Pixel8 {
	return Pixel8{narrow32to8(p.R), narrow32to8(p.G), narrow32to8(p.B), narrow32to8(p.A)}
}

// Pixel16 narrows the pixel to 16-bit channels.
func (p Pixel32) Pixel16() Pixel16 {
	return Pixel16{narrow32to16(p.R), narrow32to16(p.G), narrow32to16(p.B), narrow32to16(p.A)}
}
