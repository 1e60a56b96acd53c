// Package obj reads Wavefront OBJ geometry and MTL material libraries.
//
// Only the statements that build triangles and mark groups, objects,
// smoothing groups and materials are interpreted. Polygons are
// triangulated as fans; points, lines and free-form geometry are skipped.
package obj

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OBJ errors.
var (
	ErrSyntax           = errors.New("syntax error")
	ErrIndexOutOfRange  = errors.New("reference out of range")
	ErrMaterialNotFound = errors.New("material not found")
)

// TriangleVertex is one corner of a triangle with its resolved attributes.
type TriangleVertex struct {
	Position    [4]float32 // w defaults to 1
	Texcoord    [3]float32
	Normal      [3]float32
	HasTexcoord bool
	HasNormal   bool
}

// Triangle is a face or a fan slice of a polygon, in file winding order.
type Triangle [3]TriangleVertex

// HasTexcoords reports whether all three corners reference a texture vertex.
func (t *Triangle) HasTexcoords() bool {
	return t[0].HasTexcoord && t[1].HasTexcoord && t[2].HasTexcoord
}

// Handler receives the interpreted contents of an OBJ file. Returning an
// error aborts the read.
type Handler interface {
	Triangle(t *Triangle) error
	Group(names []string) error
	Object(name string) error
	Smoothing(group int) error
	UseMaterial(name string) error
	MaterialLib(files []string) error
}

// BaseHandler implements Handler with no-ops for embedding.
type BaseHandler struct{}

func (BaseHandler) Triangle(*Triangle) error { return nil }
func (BaseHandler) Group([]string) error { return nil }
func (BaseHandler) Object(string) error { return nil }
func (BaseHandler) Smoothing(int) error { return nil }
func (BaseHandler) UseMaterial(string) error { return nil }
func (BaseHandler) MaterialLib([]string) error { return nil }

// LineError describes a statement that could not be interpreted.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }

// Reader interprets OBJ statements and forwards them to a Handler.
type Reader struct {
	handler Handler

	// Warn, if set, is called for every invalid statement. Reading
	// continues after an invalid statement.
	Warn func(*LineError)

	positions [][4]float32
	texcoords [][3]float32
	normals   [][3]float32
	face      []faceRef
	corners   []TriangleVertex
	line      int
	invalid   int
}

// faceRef is a face corner as written, before index resolution.
type faceRef struct {
	v, vt, vn int
}

// NewReader creates a reader that reports to h.
func NewReader(h Handler) *Reader {
	return &Reader{handler: h}
}

// Line returns the number of the statement being processed.
func (r *Reader) Line() int { return r.line }

// Invalid returns the number of statements skipped as invalid.
func (r *Reader) Invalid() int { return r.invalid }

// Read processes every statement in src. Vertex data accumulates across
// calls, so an OBJ split over several readers can be read in sequence.
func (r *Reader) Read(src io.Reader) error {
	return scan(src, func(st *statement) error {
		r.line = st.line
		err := r.statement(st)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrSyntax) || errors.Is(err, ErrIndexOutOfRange) {
			r.invalid++
			if r.Warn != nil {
				r.Warn(&LineError{Line: st.line, Text: st.text, Err: err})
			}
			return nil
		}
		return fmt.Errorf("line %d: %w", st.line, err)
	})
}

// ReadFile opens path and processes it with Read.
func (r *Reader) ReadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening obj: %w", err)
	}
	defer f.Close()
	return r.Read(f)
}

func (r *Reader) statement(st *statement) error {
	switch st.keyword {
	case "v":
		return r.position(st)
	case "vt":
		return r.texcoord(st)
	case "vn":
		return r.normal(st)
	case "f", "fo":
		return r.faces(st)
	case "g":
		return r.handler.Group(st.args)
	case "o":
		if err := st.checkArgs(1, -1); err != nil {
			return err
		}
		return r.handler.Object(strings.Join(st.args, " "))
	case "s":
		return r.smoothing(st)
	case "usemtl":
		if err := st.checkArgs(1, -1); err != nil {
			return err
		}
		return r.handler.UseMaterial(strings.Join(st.args, " "))
	case "mtllib":
		if err := st.checkArgs(1, -1); err != nil {
			return err
		}
		return r.handler.MaterialLib(st.args)
	case "p", "l", "mg", "bevel", "c_interp", "d_interp", "lod",
		"shadow_obj", "trace_obj", "vp", "cstype", "deg", "bmat", "step",
		"curv", "curv2", "surf", "parm", "trim", "hole", "scrv", "sp",
		"end", "con", "ctech", "stech":
		return nil
	}
	return fmt.Errorf("%w: unknown statement %q", ErrSyntax, st.keyword)
}

func (r *Reader) position(st *statement) error {
	if err := st.checkArgs(3, 7); err != nil {
		return err
	}
	p := [4]float32{0, 0, 0, 1}
	n := 3
	if len(st.args) == 4 {
		n = 4
	}
	if err := parseFloats(st.args, p[:n]); err != nil {
		return err
	}
	r.positions = append(r.positions, p)
	return nil
}

func (r *Reader) texcoord(st *statement) error {
	if err := st.checkArgs(1, 3); err != nil {
		return err
	}
	var t [3]float32
	if err := parseFloats(st.args, t[:len(st.args)]); err != nil {
		return err
	}
	r.texcoords = append(r.texcoords, t)
	return nil
}

func (r *Reader) normal(st *statement) error {
	if err := st.checkArgs(3, 3); err != nil {
		return err
	}
	var n [3]float32
	if err := parseFloats(st.args, n[:]); err != nil {
		return err
	}
	r.normals = append(r.normals, n)
	return nil
}

func (r *Reader) smoothing(st *statement) error {
	if err := st.checkArgs(1, 1); err != nil {
		return err
	}
	if st.args[0] == "off" {
		return r.handler.Smoothing(0)
	}
	g, err := strconv.Atoi(st.args[0])
	if err != nil {
		return fmt.Errorf("%w: smoothing group %q", ErrSyntax, st.args[0])
	}
	return r.handler.Smoothing(g)
}

// faces triangulates a polygon as the fan (0, i, i-1). Every corner is
// resolved before the first triangle is reported, so an invalid polygon
// reports nothing.
func (r *Reader) faces(st *statement) error {
	if err := st.checkArgs(3, -1); err != nil {
		return err
	}
	r.face = r.face[:0]
	for _, arg := range st.args {
		ref, err := parseFaceRef(arg)
		if err != nil {
			return err
		}
		r.face = append(r.face, ref)
	}

	r.corners = r.corners[:0]
	for _, ref := range r.face {
		var tv TriangleVertex
		if err := r.resolve(ref, &tv); err != nil {
			return err
		}
		r.corners = append(r.corners, tv)
	}

	for i := 2; i < len(r.corners); i++ {
		t := Triangle{r.corners[0], r.corners[i], r.corners[i-1]}
		if err := r.handler.Triangle(&t); err != nil {
			return err
		}
	}
	return nil
}

// parseFaceRef parses v, v/vt, v//vn or v/vt/vn. Missing references are 0.
func parseFaceRef(s string) (faceRef, error) {
	var ref faceRef
	parts := strings.Split(s, "/")
	if len(parts) > 3 || parts[0] == "" {
		return ref, fmt.Errorf("%w: face vertex %q", ErrSyntax, s)
	}
	dst := [3]*int{&ref.v, &ref.vt, &ref.vn}
	for i, p := range parts {
		if p == "" {
			if i == 1 && len(parts) == 3 {
				continue
			}
			return ref, fmt.Errorf("%w: face vertex %q", ErrSyntax, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n == 0 {
			return ref, fmt.Errorf("%w: face vertex %q", ErrSyntax, s)
		}
		*dst[i] = n
	}
	return ref, nil
}

// index converts a 1-based or negative (relative) reference to a slice index.
func index(ref, count int) (int, bool) {
	if ref < 0 {
		ref = count + 1 + ref
	}
	if ref <= 0 || ref > count {
		return 0, false
	}
	return ref - 1, true
}

func (r *Reader) resolve(ref faceRef, tv *TriangleVertex) error {
	*tv = TriangleVertex{}
	i, ok := index(ref.v, len(r.positions))
	if !ok {
		return fmt.Errorf("%w: vertex %d of %d", ErrIndexOutOfRange, ref.v, len(r.positions))
	}
	tv.Position = r.positions[i]

	if ref.vt != 0 {
		i, ok := index(ref.vt, len(r.texcoords))
		if !ok {
			return fmt.Errorf("%w: texture vertex %d of %d", ErrIndexOutOfRange, ref.vt, len(r.texcoords))
		}
		tv.Texcoord = r.texcoords[i]
		tv.HasTexcoord = true
	}
	if ref.vn != 0 {
		i, ok := index(ref.vn, len(r.normals))
		if !ok {
			return fmt.Errorf("%w: normal %d of %d", ErrIndexOutOfRange, ref.vn, len(r.normals))
		}
		tv.Normal = r.normals[i]
		tv.HasNormal = true
	}
	return nil
}
