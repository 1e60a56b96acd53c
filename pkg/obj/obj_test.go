package obj

import (
	"errors"
	"strings"
	"testing"
)

// recorder collects everything a Reader reports.
type recorder struct {
	BaseHandler
	triangles []Triangle
	events    []string
	failOn    int
}

var errStop = errors.New("stop")

func (r *recorder) Triangle(t *Triangle) error {
	r.triangles = append(r.triangles, *t)
	if r.failOn > 0 && len(r.triangles) == r.failOn {
		return errStop
	}
	return nil
}

func (r *recorder) Group(names []string) error {
	r.events = append(r.events, "g "+strings.Join(names, ","))
	return nil
}

func (r *recorder) Object(name string) error {
	r.events = append(r.events, "o "+name)
	return nil
}

func (r *recorder) UseMaterial(name string) error {
	r.events = append(r.events, "usemtl "+name)
	return nil
}

func (r *recorder) MaterialLib(files []string) error {
	r.events = append(r.events, "mtllib "+strings.Join(files, ","))
	return nil
}

func readOBJ(t *testing.T, src string) (*recorder, *Reader, []*LineError) {
	t.Helper()
	rec := &recorder{}
	r := NewReader(rec)
	var warnings []*LineError
	r.Warn = func(e *LineError) { warnings = append(warnings, e) }
	if err := r.Read(strings.NewReader(src)); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return rec, r, warnings
}

const quad = `# a unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestReader_FanTriangulation(t *testing.T) {
	rec, _, warnings := readOBJ(t, quad)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(rec.triangles) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(rec.triangles))
	}

	// Fan corners are (0, i, i-1).
	want := [][3]float32{{0, 0, 0}, {1, 1, 0}, {1, 0, 0}}
	for k, tv := range rec.triangles[0] {
		if [3]float32(tv.Position[:3]) != want[k] {
			t.Errorf("triangle 0 corner %d = %v, want %v", k, tv.Position, want[k])
		}
	}
	want = [][3]float32{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	for k, tv := range rec.triangles[1] {
		if [3]float32(tv.Position[:3]) != want[k] {
			t.Errorf("triangle 1 corner %d = %v, want %v", k, tv.Position, want[k])
		}
	}

	tri := rec.triangles[0]
	if !tri.HasTexcoords() {
		t.Error("expected texcoords on every corner")
	}
	if tri[1].Texcoord != [3]float32{1, 1, 0} {
		t.Errorf("unexpected texcoord %v", tri[1].Texcoord)
	}
	if !tri[2].HasNormal || tri[2].Normal != [3]float32{0, 0, 1} {
		t.Errorf("unexpected normal %v", tri[2].Normal)
	}
	if tri[0].Position[3] != 1 {
		t.Errorf("expected default w = 1, got %v", tri[0].Position[3])
	}
}

func TestReader_FaceForms(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0.5 0.5
vn 0 0 -1
f 1 2 3
f 1/1 2/1 3/1
f 1//1 2//1 3//1
f -3/-1/-1 -2/-1/-1 -1/-1/-1
`
	rec, _, warnings := readOBJ(t, src)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(rec.triangles) != 4 {
		t.Fatalf("expected 4 triangles, got %d", len(rec.triangles))
	}

	tests := []struct {
		texcoord, normal bool
	}{
		{false, false},
		{true, false},
		{false, true},
		{true, true},
	}
	for i, tt := range tests {
		tv := rec.triangles[i][0]
		if tv.HasTexcoord != tt.texcoord || tv.HasNormal != tt.normal {
			t.Errorf("face %d: texcoord=%v normal=%v, want %v/%v", i, tv.HasTexcoord, tv.HasNormal, tt.texcoord, tt.normal)
		}
	}

	// Relative references resolve to the same corners as absolute ones.
	for k := range rec.triangles[3] {
		if rec.triangles[3][k].Position != rec.triangles[0][k].Position {
			t.Errorf("corner %d: relative %v, absolute %v", k, rec.triangles[3][k].Position, rec.triangles[0][k].Position)
		}
	}
}

func TestReader_InvalidStatements(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 2
vn x y z
f 1 2 3
f 1 2 9
f 1 2
f 1/ 2 3
blorb 1 2 3
f 1 2 3
`
	rec, r, warnings := readOBJ(t, src)
	if len(rec.triangles) != 2 {
		t.Errorf("expected 2 valid triangles, got %d", len(rec.triangles))
	}
	if r.Invalid() != 6 {
		t.Errorf("expected 6 invalid statements, got %d", r.Invalid())
	}
	if len(warnings) != 6 {
		t.Fatalf("expected 6 warnings, got %d", len(warnings))
	}

	wantLines := []int{4, 5, 7, 8, 9, 10}
	for i, w := range warnings {
		if w.Line != wantLines[i] {
			t.Errorf("warning %d on line %d, want %d", i, w.Line, wantLines[i])
		}
	}
	if !errors.Is(warnings[2], ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange for f 1 2 9, got %v", warnings[2])
	}
	if !errors.Is(warnings[0], ErrSyntax) {
		t.Errorf("expected ErrSyntax for short vertex, got %v", warnings[0])
	}
}

func TestReader_InvalidPolygonReportsNothing(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4 9
f 1 2 3 4/7
f 1 -2 -1
`
	rec, r, warnings := readOBJ(t, src)
	if r.Invalid() != 2 || len(warnings) != 2 {
		t.Fatalf("expected 2 invalid statements, got %d (%d warnings)", r.Invalid(), len(warnings))
	}
	for i, w := range warnings {
		if !errors.Is(w, ErrIndexOutOfRange) {
			t.Errorf("warning %d: expected ErrIndexOutOfRange, got %v", i, w)
		}
	}
	if len(rec.triangles) != 1 {
		t.Fatalf("expected only the valid face, got %d triangles", len(rec.triangles))
	}
	if p := rec.triangles[0][1].Position; [3]float32(p[:3]) != [3]float32{0, 1, 0} {
		t.Errorf("unexpected corner %v", p)
	}
}

func TestReader_Markers(t *testing.T) {
	src := `mtllib a.mtl b.mtl
o Box Top
g side front
usemtl wood
s off
s 2
p 1
l 1 2
`
	rec, _, warnings := readOBJ(t, src)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	want := []string{"mtllib a.mtl,b.mtl", "o Box Top", "g side,front", "usemtl wood"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

func TestReader_CommentsAndContinuation(t *testing.T) {
	src := "v 0 0 0 # origin\r\nv 1 0 0\r\n\r\n   \t\nv 0 1 \\\n 0\nf 1 2 \\\n3\n"
	rec, r, warnings := readOBJ(t, src)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(rec.triangles) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(rec.triangles))
	}
	if got := rec.triangles[0][2].Position; got != [4]float32{1, 0, 0, 1} {
		t.Errorf("unexpected position %v", got)
	}
	if r.Line() != 8 {
		t.Errorf("expected last line 8, got %d", r.Line())
	}
}

func TestReader_HandlerErrorAborts(t *testing.T) {
	rec := &recorder{failOn: 1}
	r := NewReader(rec)
	err := r.Read(strings.NewReader(quad))
	if !errors.Is(err, errStop) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if len(rec.triangles) != 1 {
		t.Errorf("expected reading to stop after the first triangle, got %d", len(rec.triangles))
	}
}

func TestReader_VertexW(t *testing.T) {
	rec, _, _ := readOBJ(t, "v 0 0 0 2\nv 1 0 0 1 0 0\nv 0 1 0\nf 1 2 3\n")
	tri := rec.triangles[0]
	if tri[0].Position[3] != 2 {
		t.Errorf("expected w = 2, got %v", tri[0].Position[3])
	}
	// Vertex colors are ignored.
	if tri[2].Position != [4]float32{1, 0, 0, 1} {
		t.Errorf("unexpected colored vertex %v", tri[2].Position)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n\n", 3},
	}
	for _, tt := range tests {
		got, err := CountLines(strings.NewReader(tt.src))
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("CountLines(%q) = %d, want %d", tt.src, got, tt.want)
		}
	}
}
