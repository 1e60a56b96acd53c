package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/cfrtools/pkg/cfr"
	"github.com/Faultbox/cfrtools/pkg/encoding"
	"github.com/Faultbox/cfrtools/pkg/obj"
)

// Result summarizes a finished conversion.
type Result struct {
	Output   string
	Vertices int
	Elements int
	Ranges   []Range
	Removed  int // vertices merged by texcoord rebuilds
	Invalid  int // skipped OBJ statements
	Duration time.Duration
}

// OutputPath replaces the extension of path with ext.
func OutputPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// File converts the OBJ file at path and writes the geometry next to it.
func File(path string, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	log = log.With(zap.String("file", filepath.Base(path)))

	total, err := countLines(path)
	if err != nil {
		return nil, err
	}
	log.Info("Counted lines", zap.Int("total", total))

	conv, err := NewConverter(opts, filepath.Dir(path), log)
	if err != nil {
		return nil, err
	}

	reader := obj.NewReader(conv)
	reader.Warn = func(e *obj.LineError) {
		log.Warn("Invalid statement", zap.Int("line", e.Line), zap.Error(e.Err), zap.String("text", e.Text))
	}

	progress := func() Progress {
		g := conv.Geometry()
		return Progress{Line: reader.Line(), Total: total, Elements: g.ElementCount(), Vertices: g.VertexCount()}
	}
	rep := NewReporter(opts.Interval, func(p Progress) {
		log.Info(fmt.Sprintf("Progress %.2f%%", p.Percent()),
			zap.Int("line", p.Line),
			zap.Int("elements", p.Elements),
			zap.Int("vertices", p.Vertices))
	})
	conv.OnTriangle = func() { rep.Report(progress(), false) }

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening obj: %w", err)
	}
	defer f.Close()
	src, err := encoding.NewReader(f, opts.Encoding)
	if err != nil {
		return nil, err
	}
	if err := reader.Read(src); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	conv.Finish()
	rep.Report(progress(), true)

	g := conv.Geometry()
	for _, a := range cfr.Attributes {
		if !g.Enabled(a) {
			log.Info("Attribute disabled", zap.Stringer("attribute", a))
		}
	}

	out := OutputPath(path, GeometryExt)
	log.Info("Saving geometry", zap.String("output", filepath.Base(out)))
	if err := cfr.SaveGeometryFile(out, g); err != nil {
		return nil, err
	}

	res := &Result{
		Output:   out,
		Vertices: g.VertexCount(),
		Elements: g.ElementCount(),
		Ranges:   conv.Ranges(),
		Removed:  conv.Removed(),
		Invalid:  reader.Invalid(),
		Duration: time.Since(start),
	}
	for _, r := range res.Ranges {
		log.Info("Range",
			zap.String("material", r.Material),
			zap.Int("start", r.Start),
			zap.Int("end", r.End),
			zap.String("diffuse_map", r.DiffuseMap))
	}
	return res, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening obj: %w", err)
	}
	defer f.Close()
	n, err := obj.CountLines(f)
	if err != nil {
		return 0, fmt.Errorf("counting lines of %s: %w", path, err)
	}
	return n, nil
}
