// Package convert turns OBJ triangle streams into CFR geometry.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/cfrtools/pkg/cfr"
	"github.com/Faultbox/cfrtools/pkg/encoding"
	"github.com/Faultbox/cfrtools/pkg/obj"
)

// GeometryExt is the extension of converted geometry files.
const GeometryExt = ".cfrg"

// ErrUnknownDedupMode is returned for dedup mode names other than exact and similar.
var ErrUnknownDedupMode = errors.New("unknown dedup mode")

// DedupMode selects how triangle corners are merged into stored vertices.
type DedupMode int

const (
	// DedupExact merges bit-identical vertices through the mesh index.
	DedupExact DedupMode = iota
	// DedupSimilar merges vertices within a tolerance of a vertex added
	// since the last group, object, smoothing or material marker.
	DedupSimilar
)

// ParseDedupMode maps "exact" and "similar" to a DedupMode.
func ParseDedupMode(name string) (DedupMode, error) {
	switch strings.ToLower(name) {
	case "", "exact":
		return DedupExact, nil
	case "similar":
		return DedupSimilar, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDedupMode, name)
}

func (m DedupMode) String() string {
	if m == DedupSimilar {
		return "similar"
	}
	return "exact"
}

// Options controls a conversion.
type Options struct {
	Layout    cfr.Layout
	Tangents  bool
	Dedup     DedupMode
	Tolerance float32
	Encoding  string        // text encoding of the OBJ and MTL files
	Interval  time.Duration // progress report period
}

// DefaultOptions returns the settings of a plain conversion: float
// positions, half float for the rest, tangents and exact dedup.
func DefaultOptions() Options {
	return Options{
		Layout:    cfr.DefaultLayout(),
		Tangents:  true,
		Dedup:     DedupExact,
		Tolerance: 1e-4,
		Interval:  time.Second,
	}
}

// Range is a run of elements drawn with one material.
type Range struct {
	Start, End int

	Material         string
	Set              obj.Property
	Diffuse          [3]float32
	DiffuseMap       string
	Specular         float32 // average of the specular color
	SpecularMap      string
	SpecularExponent float32
	MaskMap          string
	Emission         float32 // average of the emission color
}

// newRange copies the fields of m that a renderer consumes.
func newRange(start, end int, name string, m *obj.Material) Range {
	r := Range{Start: start, End: end, Material: name}
	if m == nil {
		return r
	}
	r.Set = m.Set
	if m.Has(obj.HasDiffuse) {
		r.Diffuse = m.Diffuse
	}
	if m.Has(obj.HasDiffuseMap) {
		r.DiffuseMap = m.DiffuseMap
	}
	if m.Has(obj.HasSpecular) {
		r.Specular = average(m.Specular)
	}
	if m.Has(obj.HasSpecularMap) {
		r.SpecularMap = m.SpecularMap
	}
	if m.Has(obj.HasSpecularExponent) {
		r.SpecularExponent = m.SpecularExponent
	}
	if m.Has(obj.HasAlphaMap) {
		r.MaskMap = m.AlphaMap
	}
	if m.Has(obj.HasEmission) {
		r.Emission = average(m.Emission)
	}
	return r
}

func average(c [3]float32) float32 {
	return (c[0] + c[1] + c[2]) / 3
}

// Converter receives OBJ statements and builds a geometry from them.
type Converter struct {
	geom *cfr.Geometry
	opts Options
	log  *zap.Logger

	dir       string
	materials *obj.MaterialStore

	ranges      []Range
	rangeStart  int
	material    string
	current     *obj.Material
	windowStart int
	removed     int

	// OnTriangle, if set, is called after every triangle is stored.
	OnTriangle func()
}

// NewConverter creates a converter for the given options. dir is the
// directory material libraries are resolved against.
func NewConverter(opts Options, dir string, log *zap.Logger) (*Converter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	g := cfr.NewGeometry()
	if err := g.SetLayout(opts.Layout); err != nil {
		return nil, err
	}
	if !opts.Tangents {
		g.Disable(cfr.AttribTangent)
	}
	if g.Layout().VertexSize() == 0 {
		return nil, fmt.Errorf("%w: every attribute is disabled", cfr.ErrValueOutOfRange)
	}
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("%w: negative tolerance %v", cfr.ErrValueOutOfRange, opts.Tolerance)
	}

	materials := obj.NewMaterialStore()
	materials.Warn = func(e *obj.LineError) {
		log.Warn("Invalid material statement", zap.Int("line", e.Line), zap.Error(e.Err), zap.String("text", e.Text))
	}
	return &Converter{
		geom:      g,
		opts:      opts,
		log:       log,
		dir:       dir,
		materials: materials,
	}, nil
}

// Geometry returns the geometry built so far.
func (c *Converter) Geometry() *cfr.Geometry { return c.geom }

// Ranges returns the material ranges closed so far.
func (c *Converter) Ranges() []Range { return c.ranges }

// Removed returns the number of vertices merged away by rebuilds.
func (c *Converter) Removed() int { return c.removed }

// Materials returns the loaded material libraries.
func (c *Converter) Materials() *obj.MaterialStore { return c.materials }

// Triangle stores the three corners of t.
func (c *Converter) Triangle(t *obj.Triangle) error {
	g := c.geom
	if !t.HasTexcoords() && (g.Enabled(cfr.AttribTexcoord) || g.Enabled(cfr.AttribTangent)) {
		c.disableTexcoords()
	}

	var v [3]cfr.Vertex
	for i := range t {
		copy(v[i].Position[:], t[i].Position[:3])
		if t.HasTexcoords() {
			copy(v[i].Texcoord[:], t[i].Texcoord[:2])
		}
	}

	if g.Enabled(cfr.AttribNormal) {
		var face mgl32.Vec3
		synthesized := false
		for i := range t {
			if t[i].HasNormal {
				v[i].Normal = t[i].Normal
				continue
			}
			if !synthesized {
				face = faceNormal(mgl32.Vec3(v[0].Position), mgl32.Vec3(v[1].Position), mgl32.Vec3(v[2].Position))
				synthesized = true
			}
			v[i].Normal = face
		}
	}

	if g.Enabled(cfr.AttribTangent) {
		for i := range v {
			v[i].Tangent = tangent(&v[i], &v[(i+1)%3], &v[(i+2)%3])
		}
	}

	for i := range v {
		if err := g.AddElement(c.insert(v[i])); err != nil {
			return err
		}
	}
	if c.OnTriangle != nil {
		c.OnTriangle()
	}
	return nil
}

func (c *Converter) insert(v cfr.Vertex) uint32 {
	if c.opts.Dedup == DedupSimilar {
		return c.geom.AddSimilarVertex(v, c.opts.Tolerance, c.windowStart, 0)
	}
	return c.geom.AddVertex(v)
}

// disableTexcoords drops texture coordinates and tangents from the whole
// mesh and merges the vertices that became identical.
func (c *Converter) disableTexcoords() {
	if !c.geom.Disable(cfr.AttribTexcoord, cfr.AttribTangent) {
		return
	}
	c.log.Info("Disabling texture coordinates and tangents")
	before := c.geom.VertexCount()
	c.geom.Recalculate()
	removed := before - c.geom.VertexCount()
	c.removed += removed
	c.windowStart = c.geom.VertexCount()
	c.log.Info("Recalculated geometry", zap.Int("removed", removed))
}

func (c *Converter) mark() {
	c.windowStart = c.geom.VertexCount()
}

// Group starts a new dedup window.
func (c *Converter) Group([]string) error {
	c.mark()
	return nil
}

// Object starts a new dedup window.
func (c *Converter) Object(string) error {
	c.mark()
	return nil
}

// Smoothing starts a new dedup window.
func (c *Converter) Smoothing(int) error {
	c.mark()
	return nil
}

// UseMaterial closes the current material range. Selecting the current
// material again is a no-op.
func (c *Converter) UseMaterial(name string) error {
	c.mark()
	if name == c.material {
		return nil
	}
	c.closeRange()
	c.material = name
	m, err := c.materials.Find(name)
	if err != nil {
		c.log.Warn("Material not defined", zap.String("material", name))
		m = nil
	}
	c.current = m
	return nil
}

// MaterialLib loads material libraries. Libraries that cannot be read are
// reported and skipped.
func (c *Converter) MaterialLib(files []string) error {
	for _, name := range files {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.dir, name)
		}
		if err := c.readLibrary(path); err != nil {
			c.log.Warn("Failed to load material library", zap.String("file", path), zap.Error(err))
		}
	}
	c.log.Info("Materials loaded", zap.Int("count", c.materials.Len()))
	return nil
}

func (c *Converter) readLibrary(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := encoding.NewReader(f, c.opts.Encoding)
	if err != nil {
		return err
	}
	return c.materials.Read(r)
}

func (c *Converter) closeRange() {
	end := c.geom.ElementCount()
	if end == c.rangeStart {
		return
	}
	r := newRange(c.rangeStart, end, c.material, c.current)
	c.ranges = append(c.ranges, r)
	c.log.Debug("Material range",
		zap.String("material", r.Material),
		zap.Int("start", r.Start),
		zap.Int("end", r.End))
	c.rangeStart = end
}

// Finish closes the last material range.
func (c *Converter) Finish() {
	c.closeRange()
}

var _ obj.Handler = (*Converter)(nil)
