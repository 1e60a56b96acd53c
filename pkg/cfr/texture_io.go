package cfr

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Texture container constants.
const (
	TextureMagic   uint32 = 0x54524643 // "CFRT" little-endian
	TextureVersion uint8  = 1
)

// textureHeader follows the magic word.
type textureHeader struct {
	Version  uint8
	Width    uint16
	Height   uint16
	Depth    uint16
	Channels uint8
	Bytes    uint8
}

// WriteTexture serializes t to w.
func WriteTexture(w io.Writer, t *Texture) error {
	for _, d := range []int{t.width, t.height, t.depth} {
		if d > math.MaxUint16 {
			return fmt.Errorf("%w: dimensions %dx%dx%d", ErrValueOutOfRange, t.width, t.height, t.depth)
		}
	}
	h := textureHeader{
		Version:  TextureVersion,
		Width:    uint16(t.width),
		Height:   uint16(t.height),
		Depth:    uint16(t.depth),
		Channels: uint8(t.channels),
		Bytes:    uint8(t.bytes),
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, TextureMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return err
	}
	if _, err := bw.Write(t.pixels); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadTexture replaces the contents of t with a container read from r. On
// error t is left unchanged.
func ReadTexture(r io.Reader, t *Texture) error {
	br := bufio.NewReader(r)

	var magic uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return readFailure(stageMagic, err)
	}
	if magic != TextureMagic {
		return fmt.Errorf("%w: 0x%08X", ErrBadMagic, magic)
	}

	var h textureHeader
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return readFailure(stageHeader, err)
	}
	if h.Version != TextureVersion {
		return fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	if h.Channels < 1 || h.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrCorruptHeader, h.Channels)
	}
	if !validSampleBytes(int(h.Bytes)) {
		return fmt.Errorf("%w: %d bytes per channel", ErrCorruptHeader, h.Bytes)
	}

	// The buffer grows with the data actually present, so a header
	// declaring more pixels than the stream holds fails with a short read.
	size := int64(h.Width) * int64(h.Height) * int64(h.Depth) * int64(h.Channels) * int64(h.Bytes)
	var pixels bytes.Buffer
	pixels.Grow(int(min(size, maxReserve)))
	if _, err := io.CopyN(&pixels, br, size); err != nil {
		return fmt.Errorf("reading pixels: %w", unexpected(err))
	}

	t.width, t.height, t.depth = int(h.Width), int(h.Height), int(h.Depth)
	t.channels, t.bytes = int(h.Channels), int(h.Bytes)
	t.pixels = pixels.Bytes()
	return nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// LoadTextureFile reads a .cfrt file.
func LoadTextureFile(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening texture: %w", err)
	}
	defer f.Close()

	t := &Texture{}
	if err := ReadTexture(f, t); err != nil {
		return nil, fmt.Errorf("loading texture %s: %w", path, err)
	}
	return t, nil
}

// SaveTextureFile writes t to path atomically.
func SaveTextureFile(path string, t *Texture) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteTexture(w, t)
	})
}
