package cfr

import "fmt"

// Transform rewrites a vertex before it is stored in a Mesh.
type Transform func(Vertex) Vertex

// Mesh is an indexed triangle list. Vertices are deduplicated through an
// exact-match index keyed by their bit patterns.
type Mesh struct {
	vertices   []Vertex
	elements   []uint32
	elementMax uint32
	index      map[VertexKey]uint32
	transform  Transform
}

// NewMesh creates an empty mesh. A nil transform stores vertices unchanged.
func NewMesh(transform Transform) *Mesh {
	return &Mesh{
		index:     make(map[VertexKey]uint32),
		transform: transform,
	}
}

func (m *Mesh) apply(v Vertex) Vertex {
	if m.transform == nil {
		return v
	}
	return m.transform(v)
}

// AddVertex stores v unless an identical vertex already exists and returns
// its index.
func (m *Mesh) AddVertex(v Vertex) uint32 {
	return m.addVertex(m.apply(v))
}

// PushVertex appends v even if an identical vertex exists.
func (m *Mesh) PushVertex(v Vertex) uint32 {
	return m.pushVertex(m.apply(v))
}

// AddSimilarVertex returns the first vertex in [start, end) whose components
// all lie within tolerance of v. If end <= start the scan runs to the last
// vertex. When nothing matches, v is added with AddVertex.
func (m *Mesh) AddSimilarVertex(v Vertex, tolerance float32, start, end int) uint32 {
	v = m.apply(v)
	if end <= start || end > len(m.vertices) {
		end = len(m.vertices)
	}
	for i := max(start, 0); i < end; i++ {
		if m.vertices[i].Similar(v, tolerance) {
			return uint32(i)
		}
	}
	return m.addVertex(v)
}

func (m *Mesh) addVertex(v Vertex) uint32 {
	if i, ok := m.index[v.Key()]; ok {
		return i
	}
	return m.pushVertex(v)
}

func (m *Mesh) pushVertex(v Vertex) uint32 {
	i := uint32(len(m.vertices))
	k := v.Key()
	if m.index == nil {
		m.index = make(map[VertexKey]uint32)
	}
	if _, ok := m.index[k]; !ok {
		m.index[k] = i
	}
	m.vertices = append(m.vertices, v)
	return i
}

// AddElement appends an index to the element list.
func (m *Mesh) AddElement(e uint32) error {
	if int(e) >= len(m.vertices) {
		return fmt.Errorf("%w: %d (vertex count %d)", ErrIndexOutOfRange, e, len(m.vertices))
	}
	m.elements = append(m.elements, e)
	if e > m.elementMax {
		m.elementMax = e
	}
	return nil
}

// ReserveVertices grows vertex capacity to hold at least n vertices.
func (m *Mesh) ReserveVertices(n int) {
	if n <= cap(m.vertices) {
		return
	}
	vertices := make([]Vertex, len(m.vertices), n)
	copy(vertices, m.vertices)
	m.vertices = vertices
	if len(m.index) == 0 {
		m.index = make(map[VertexKey]uint32, n)
	}
}

// ReserveElements grows element capacity to hold at least n elements.
func (m *Mesh) ReserveElements(n int) {
	if n <= cap(m.elements) {
		return
	}
	elements := make([]uint32, len(m.elements), n)
	copy(elements, m.elements)
	m.elements = elements
}

// Clear removes every vertex and element.
func (m *Mesh) Clear() {
	m.vertices = nil
	m.elements = nil
	m.elementMax = 0
	m.index = make(map[VertexKey]uint32)
}

// Recalculate rebuilds the vertex list by replaying every element through
// AddVertex. Vertices that became identical, for example after an attribute
// was disabled, collapse into one. Element order is preserved.
func (m *Mesh) Recalculate() {
	vertices, elements := m.vertices, m.elements
	m.Clear()
	m.ReserveVertices(len(vertices))
	m.ReserveElements(len(elements))
	for _, e := range elements {
		i := m.AddVertex(vertices[e])
		m.elements = append(m.elements, i)
		if i > m.elementMax {
			m.elementMax = i
		}
	}
}

// Empty reports whether the mesh has neither vertices nor elements.
func (m *Mesh) Empty() bool {
	return len(m.vertices) == 0 && len(m.elements) == 0
}

// VertexCount returns the number of stored vertices.
func (m *Mesh) VertexCount() int { return len(m.vertices) }

// ElementCount returns the number of stored elements.
func (m *Mesh) ElementCount() int { return len(m.elements) }

// ElementMax returns the largest element added so far.
func (m *Mesh) ElementMax() uint32 { return m.elementMax }

// Vertex returns the vertex at index i.
func (m *Mesh) Vertex(i int) Vertex { return m.vertices[i] }

// Element returns the element at index i.
func (m *Mesh) Element(i int) uint32 { return m.elements[i] }

// Vertices returns a copy of the vertex list.
func (m *Mesh) Vertices() []Vertex {
	return append([]Vertex(nil), m.vertices...)
}

// Elements returns a copy of the element list.
func (m *Mesh) Elements() []uint32 {
	return append([]uint32(nil), m.elements...)
}
