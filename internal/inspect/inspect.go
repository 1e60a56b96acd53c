// Package inspect prints summaries of CFR files.
package inspect

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/Faultbox/cfrtools/internal/imaging"
	"github.com/Faultbox/cfrtools/pkg/cfr"
)

// Geometry writes the header fields and bounds of g.
func Geometry(w io.Writer, name string, g *cfr.Geometry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	width, err := cfr.ElementWidth(uint64(g.ElementMax()))
	if err != nil {
		return err
	}
	l := g.Layout()
	fmt.Fprintf(tw, "%s\n", name)
	fmt.Fprintf(tw, "  vertices\t%d\n", g.VertexCount())
	fmt.Fprintf(tw, "  elements\t%d\t(%d triangles)\n", g.ElementCount(), g.ElementCount()/3)
	fmt.Fprintf(tw, "  element width\t%d bytes\n", width)
	fmt.Fprintf(tw, "  vertex size\t%d bytes\n", l.VertexSize())

	offsets := l.Offsets()
	for _, a := range cfr.Attributes {
		if offsets[a] < 0 {
			fmt.Fprintf(tw, "  %s\t%s\n", a, l[a])
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\toffset %d\n", a, l[a], offsets[a])
	}

	if g.VertexCount() > 0 {
		lo, hi := bounds(g)
		fmt.Fprintf(tw, "  bounds\t%s - %s\n", vec(lo), vec(hi))
	}
	return tw.Flush()
}

func bounds(g *cfr.Geometry) (lo, hi [3]float32) {
	for i := range lo {
		lo[i] = math.MaxFloat32
		hi[i] = -math.MaxFloat32
	}
	for _, v := range g.Vertices() {
		for i, c := range v.Position {
			lo[i] = min(lo[i], c)
			hi[i] = max(hi[i], c)
		}
	}
	return lo, hi
}

func vec(v [3]float32) string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}

// Texture writes the dimensions and sample layout of t.
func Texture(w io.Writer, name string, t *cfr.Texture) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", name)
	fmt.Fprintf(tw, "  size\t%dx%dx%d\n", t.Width(), t.Height(), t.Depth())
	fmt.Fprintf(tw, "  channels\t%d\n", t.Channels())
	fmt.Fprintf(tw, "  bytes\t%d per channel\n", t.Bytes())
	fmt.Fprintf(tw, "  data\t%d bytes\n", t.RawSize())
	return tw.Flush()
}

// ExportPNG writes every layer of t to dir as a PNG named after name. A
// single-layer texture becomes name.png, deeper ones name_<layer>.png.
func ExportPNG(dir, name string, t *cfr.Texture) ([]string, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var out []string
	for z := 0; z < t.Depth(); z++ {
		img, err := imaging.ToImage(t, z)
		if err != nil {
			return out, err
		}
		file := base + ".png"
		if t.Depth() > 1 {
			file = fmt.Sprintf("%s_%d.png", base, z)
		}
		path := filepath.Join(dir, file)
		if err := imaging.SavePNG(path, img); err != nil {
			return out, err
		}
		out = append(out, path)
	}
	return out, nil
}
