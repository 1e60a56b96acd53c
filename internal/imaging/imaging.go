// Package imaging loads common image formats and converts them to and from
// CFR textures.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// Formats understood by Decode.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/cfrtools/pkg/cfr"
)

// ErrUnsupportedImage is returned for images whose pixel layout cannot be
// expressed as a texture.
var ErrUnsupportedImage = errors.New("unsupported image")

// Extensions lists the file extensions Load accepts.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".tga"}

// Supported reports whether path has an image extension Load understands.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load decodes the image at path. TGA files are selected by extension, all
// other formats by content.
func Load(path string) (image.Image, string, error) {
	if strings.EqualFold(filepath.Ext(path), ".tga") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("reading image: %w", err)
		}
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, "", fmt.Errorf("decoding %s: %w", path, err)
		}
		return img, "tga", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, format, nil
}

// Layout describes the channel count and sample width chosen for an image.
type Layout struct {
	Channels int
	Bytes    int
}

// Detect picks the smallest texture layout that holds img without loss:
// one channel for grayscale, three for opaque color, four otherwise, and
// 16-bit samples for 16-bit source images.
func Detect(img image.Image) Layout {
	l := Layout{Channels: 4, Bytes: 1}
	switch img.(type) {
	case *image.Gray:
		return Layout{Channels: 1, Bytes: 1}
	case *image.Gray16:
		return Layout{Channels: 1, Bytes: 2}
	case *image.RGBA64, *image.NRGBA64:
		l.Bytes = 2
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		l.Channels = 3
	}
	return l
}

// FromImage converts img to a single-layer texture with the layout chosen
// by Detect. Texture row 0 is the bottom row of the image.
func FromImage(img image.Image) (*cfr.Texture, error) {
	return FromImageLayout(img, Detect(img))
}

// FromImageLayout converts img using an explicit layout.
func FromImageLayout(img image.Image, l Layout) (*cfr.Texture, error) {
	b := img.Bounds()
	if b.Dx() > 0xFFFF || b.Dy() > 0xFFFF {
		return nil, fmt.Errorf("%w: %dx%d exceeds 65535 pixels per side", ErrUnsupportedImage, b.Dx(), b.Dy())
	}
	tex, err := cfr.NewTexture(b.Dx(), b.Dy(), 1, l.Channels, l.Bytes)
	if err != nil {
		return nil, err
	}

	h := b.Dy()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		ty := h - 1 - (y - b.Min.Y)
		for x := b.Min.X; x < b.Max.X; x++ {
			var p cfr.Pixel16
			if l.Channels == 1 {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
				p = cfr.Pixel16{R: g.Y, G: g.Y, B: g.Y, A: 0xFFFF}
			} else {
				c := nrgba64At(img, x, y)
				p = cfr.Pixel16{R: c.R, G: c.G, B: c.B, A: c.A}
			}
			tex.SetPixel16(p, x-b.Min.X, ty, 0)
		}
	}
	return tex, nil
}

// nrgba64At returns the non-premultiplied color at (x, y). Straight-alpha
// sources are read directly so their samples survive unchanged.
func nrgba64At(img image.Image, x, y int) color.NRGBA64 {
	switch src := img.(type) {
	case *image.NRGBA:
		c := src.NRGBAAt(x, y)
		return color.NRGBA64{R: uint16(c.R) * 0x101, G: uint16(c.G) * 0x101, B: uint16(c.B) * 0x101, A: uint16(c.A) * 0x101}
	case *image.NRGBA64:
		return src.NRGBA64At(x, y)
	}
	return color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
}

// ToImage converts one layer of tex to an image with the top row first.
// Grayscale textures become *image.Gray or *image.Gray16, everything else
// *image.NRGBA or *image.NRGBA64.
func ToImage(tex *cfr.Texture, layer int) (image.Image, error) {
	if layer < 0 || layer >= tex.Depth() {
		return nil, fmt.Errorf("%w: layer %d of %d", cfr.ErrValueOutOfRange, layer, tex.Depth())
	}
	w, h := tex.Width(), tex.Height()
	rect := image.Rect(0, 0, w, h)
	wide := tex.Bytes() > 1

	switch {
	case tex.Channels() == 1 && wide:
		img := image.NewGray16(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray16(x, h-1-y, color.Gray16{Y: tex.Pixel16(x, y, layer).R})
			}
		}
		return img, nil
	case tex.Channels() == 1:
		img := image.NewGray(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray(x, h-1-y, color.Gray{Y: tex.Pixel8(x, y, layer).R})
			}
		}
		return img, nil
	case wide:
		img := image.NewNRGBA64(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p := tex.Pixel16(x, y, layer)
				img.SetNRGBA64(x, h-1-y, color.NRGBA64{R: p.R, G: p.G, B: p.B, A: p.A})
			}
		}
		return img, nil
	}
	img := image.NewNRGBA(rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := tex.Pixel8(x, y, layer)
			img.SetNRGBA(x, h-1-y, color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A})
		}
	}
	return img, nil
}

// SavePNG encodes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// TextureExt is the extension of converted texture files.
const TextureExt = ".cfrt"

// ConvertFile loads the image at path and saves it as a texture next to it.
// Zero fields of override are detected from the image.
func ConvertFile(path string, override Layout) (string, *cfr.Texture, error) {
	img, _, err := Load(path)
	if err != nil {
		return "", nil, err
	}
	l := Detect(img)
	if override.Channels > 0 {
		l.Channels = override.Channels
	}
	if override.Bytes > 0 {
		l.Bytes = override.Bytes
	}
	tex, err := FromImageLayout(img, l)
	if err != nil {
		return "", nil, fmt.Errorf("converting %s: %w", path, err)
	}
	out := strings.TrimSuffix(path, filepath.Ext(path)) + TextureExt
	if err := cfr.SaveTextureFile(out, tex); err != nil {
		return "", nil, err
	}
	return out, tex, nil
}
