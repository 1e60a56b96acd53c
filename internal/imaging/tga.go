package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types.
const (
	TGATypeTrueColor    = 2
	TGATypeGray         = 3
	TGATypeTrueColorRLE = 10
	TGATypeGrayRLE      = 11

	tgaHeaderSize = 18
)

// ErrTGA is wrapped by every TGA decoding failure.
var ErrTGA = errors.New("invalid TGA")

// DecodeTGA decodes an uncompressed or RLE compressed TGA image. True-color
// images (24 or 32 bit) decode to *image.NRGBA, grayscale images (8 bit) to
// *image.Gray.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("%w: data too short", ErrTGA)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped images are not supported", ErrTGA)
	}
	gray := imageType == TGATypeGray || imageType == TGATypeGrayRLE
	switch {
	case imageType == TGATypeTrueColor || imageType == TGATypeTrueColorRLE:
		if bpp != 24 && bpp != 32 {
			return nil, fmt.Errorf("%w: unsupported true-color depth %d", ErrTGA, bpp)
		}
	case gray:
		if bpp != 8 {
			return nil, fmt.Errorf("%w: unsupported grayscale depth %d", ErrTGA, bpp)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported image type %d", ErrTGA, imageType)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: data truncated", ErrTGA)
	}

	d := &tgaDecoder{
		src:         data[offset:],
		width:       width,
		height:      height,
		bytes:       bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}
	if gray {
		img := image.NewGray(image.Rect(0, 0, width, height))
		d.set = func(x, y int, p []byte) { img.SetGray(x, y, color.Gray{Y: p[0]}) }
		d.out = img
	} else {
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		d.set = func(x, y int, p []byte) {
			a := uint8(255)
			if len(p) == 4 {
				a = p[3]
			}
			img.SetNRGBA(x, y, color.NRGBA{R: p[2], G: p[1], B: p[0], A: a})
		}
		d.out = img
	}

	var err error
	if imageType == TGATypeTrueColorRLE || imageType == TGATypeGrayRLE {
		err = d.decodeRLE()
	} else {
		err = d.decodeRaw()
	}
	if err != nil {
		return nil, err
	}
	return d.out, nil
}

type tgaDecoder struct {
	src           []byte
	width, height int
	bytes         int
	topToBottom   bool
	set           func(x, y int, p []byte)
	out           image.Image
}

// put stores the i-th pixel in file order.
func (d *tgaDecoder) put(i int, p []byte) {
	x, y := i%d.width, i/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.set(x, y, p)
}

func (d *tgaDecoder) decodeRaw() error {
	count := d.width * d.height
	if len(d.src) < count*d.bytes {
		return fmt.Errorf("%w: pixel data truncated", ErrTGA)
	}
	for i := 0; i < count; i++ {
		d.put(i, d.src[i*d.bytes:(i+1)*d.bytes])
	}
	return nil
}

func (d *tgaDecoder) decodeRLE() error {
	count := d.width * d.height
	pos := 0
	for i := 0; i < count; {
		if pos >= len(d.src) {
			return fmt.Errorf("%w: RLE data truncated at pixel %d", ErrTGA, i)
		}
		packet := d.src[pos]
		pos++
		n := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if pos+d.bytes > len(d.src) {
				return fmt.Errorf("%w: RLE data truncated at pixel %d", ErrTGA, i)
			}
			p := d.src[pos : pos+d.bytes]
			pos += d.bytes
			for ; n > 0 && i < count; n-- {
				d.put(i, p)
				i++
			}
			continue
		}

		for ; n > 0 && i < count; n-- {
			if pos+d.bytes > len(d.src) {
				return fmt.Errorf("%w: RLE data truncated at pixel %d", ErrTGA, i)
			}
			d.put(i, d.src[pos:pos+d.bytes])
			pos += d.bytes
			i++
		}
	}
	return nil
}
