package cfr

import (
	"encoding/binary"
	"fmt"
)

// Texture is a (possibly layered) pixel array. Channels are stored in RGBA
// order, each sample little-endian with 1, 2 or 4 bytes. Row 0 is the bottom
// row of the image.
type Texture struct {
	width, height, depth int
	channels, bytes      int
	pixels               []byte
}

// NewTexture allocates a zeroed texture.
func NewTexture(width, height, depth, channels, bytes int) (*Texture, error) {
	t := &Texture{}
	if err := t.Resize(width, height, depth, channels, bytes); err != nil {
		return nil, err
	}
	return t, nil
}

// Resize reallocates the pixel array, discarding its contents.
func (t *Texture) Resize(width, height, depth, channels, bytes int) error {
	if width < 0 || height < 0 || depth < 0 {
		return fmt.Errorf("%w: dimensions %dx%dx%d", ErrValueOutOfRange, width, height, depth)
	}
	if channels < 1 || channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrValueOutOfRange, channels)
	}
	if !validSampleBytes(bytes) {
		return fmt.Errorf("%w: %d bytes per channel", ErrValueOutOfRange, bytes)
	}
	t.width, t.height, t.depth = width, height, depth
	t.channels, t.bytes = channels, bytes
	t.pixels = make([]byte, t.RawSize())
	return nil
}

func validSampleBytes(n int) bool {
	return n == 1 || n == 2 || n == 4
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Depth returns the number of layers.
func (t *Texture) Depth() int { return t.depth }

// Channels returns the number of channels per pixel (1 to 4).
func (t *Texture) Channels() int { return t.channels }

// Bytes returns the number of bytes per channel (1, 2 or 4).
func (t *Texture) Bytes() int { return t.bytes }

// RawSize returns the size of the pixel array in bytes.
func (t *Texture) RawSize() int {
	return t.width * t.height * t.depth * t.channels * t.bytes
}

// Raw returns the pixel array. It aliases the texture storage.
func (t *Texture) Raw() []byte { return t.pixels }

// Offset returns the byte offset of pixel (x, y, z).
func (t *Texture) Offset(x, y, z int) int {
	return ((z*t.height+y)*t.width + x) * t.channels * t.bytes
}

// Clone returns a deep copy of t.
func (t *Texture) Clone() *Texture {
	c := *t
	c.pixels = append([]byte(nil), t.pixels...)
	return &c
}

// samples reads the channels of one pixel as raw values; missing color
// channels are 0 and a missing alpha channel is full.
func (t *Texture) samples(x, y, z int) [4]uint32 {
	s := [4]uint32{0, 0, 0, fullSample(t.bytes)}
	p := t.pixels[t.Offset(x, y, z):]
	for c := 0; c < t.channels; c++ {
		b := p[c*t.bytes:]
		switch t.bytes {
		case 1:
			s[c] = uint32(b[0])
		case 2:
			s[c] = uint32(binary.LittleEndian.Uint16(b))
		case 4:
			s[c] = binary.LittleEndian.Uint32(b)
		}
	}
	return s
}

func (t *Texture) setSamples(x, y, z int, s [4]uint32) {
	p := t.pixels[t.Offset(x, y, z):]
	for c := 0; c < t.channels; c++ {
		b := p[c*t.bytes:]
		switch t.bytes {
		case 1:
			b[0] = uint8(s[c])
		case 2:
			binary.LittleEndian.PutUint16(b, uint16(s[c]))
		case 4:
			binary.LittleEndian.PutUint32(b, s[c])
		}
	}
}

func fullSample(bytes int) uint32 {
	switch bytes {
	case 1:
		return 0xFF
	case 2:
		return 0xFFFF
	}
	return 0xFFFFFFFF
}

// Pixel8 returns pixel (x, y, z) with 8-bit channels.
func (t *Texture) Pixel8(x, y, z int) Pixel8 {
	s := t.samples(x, y, z)
	switch t.bytes {
	case 2:
		return Pixel16{uint16(s[0]), uint16(s[1]), uint16(s[2]), uint16(s[3])}.Pixel8()
	case 4:
		return Pixel32{s[0], s[1], s[2], s[3]}.Pixel8()
	}
	return Pixel8{uint8(s[0]), uint8(s[1]), uint8(s[2]), uint8(s[3])}
}

// Pixel16 returns pixel (x, y, z) with 16-bit channels.
func (t *Texture) Pixel16(x, y, z int) Pixel16 {
	s := t.samples(x, y, z)
	switch t.bytes {
	case 1:
		return Pixel8{uint8(s[0]), uint8(s[1]), uint8(s[2]), uint8(s[3])}.Pixel16()
	case 4:
		return Pixel32{s[0], s[1], s[2], s[3]}.Pixel16()
	}
	return Pixel16{uint16(s[0]), uint16(s[1]), uint16(s[2]), uint16(s[3])}
}

// Pixel32 returns pixel (x, y, z) with 32-bit channels.
func (t *Texture) Pixel32(x, y, z int) Pixel32 {
	s := t.samples(x, y, z)
	switch t.bytes {
	case 1:
		return Pixel8{uint8(s[0]), uint8(s[1]), uint8(s[2]), uint8(s[3])}.Pixel32()
	case 2:
		return Pixel16{uint16(s[0]), uint16(s[1]), uint16(s[2]), uint16(s[3])}.Pixel32()
	}
	return Pixel32{s[0], s[1], s[2], s[3]}
}

// Pixel returns pixel (x, y, z) packed as 0xRRGGBBAA.
func (t *Texture) Pixel(x, y, z int) uint32 {
	return t.Pixel8(x, y, z).Packed()
}

// SetPixel8 stores p at (x, y, z), converting to the texture's depth.
func (t *Texture) SetPixel8(p Pixel8, x, y, z int) {
	switch t.bytes {
	case 1:
		t.setSamples(x, y, z, [4]uint32{uint32(p.R), uint32(p.G), uint32(p.B), uint32(p.A)})
	case 2:
		t.SetPixel16(p.Pixel16(), x, y, z)
	case 4:
		t.SetPixel32(p.Pixel32(), x, y, z)
	}
}

// SetPixel16 stores p at (x, y, z), converting to the texture's depth.
func (t *Texture) SetPixel16(p Pixel16, x, y, z int) {
	switch t.bytes {
	case 1:
		t.SetPixel8(p.Pixel8(), x, y, z)
	case 2:
		t.setSamples(x, y, z, [4]uint32{uint32(p.R), uint32(p.G), uint32(p.B), uint32(p.A)})
	case 4:
		t.SetPixel32(p.Pixel32(), x, y, z)
	}
}

// SetPixel32 stores p at (x, y, z), converting to the texture's depth.
func (t *Texture) SetPixel32(p Pixel32, x, y, z int) {
	switch t.bytes {
	case 1:
		t.SetPixel8(p.Pixel8(), x, y, z)
	case 2:
		t.SetPixel16(p.Pixel16(), x, y, z)
	case 4:
		t.setSamples(x, y, z, [4]uint32{p.R, p.G, p.B, p.A})
	}
}

// SetPixel stores a 0xRRGGBBAA value at (x, y, z).
func (t *Texture) SetPixel(p uint32, x, y, z int) {
	t.SetPixel8(UnpackRGBA(p), x, y, z)
}

// Flip mirrors every layer vertically in place.
func (t *Texture) Flip() {
	row := t.width * t.channels * t.bytes
	tmp := make([]byte, row)
	for z := 0; z < t.depth; z++ {
		for y := 0; y < t.height/2; y++ {
			a := t.pixels[t.Offset(0, y, z):][:row]
			b := t.pixels[t.Offset(0, t.height-1-y, z):][:row]
			copy(tmp, a)
			copy(a, b)
			copy(b, tmp)
		}
	}
}
