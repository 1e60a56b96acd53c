package cfr

import "math"

// Vertex is a single mesh vertex. Tangent.W holds the handedness (±1) of the
// tangent frame: binormal = cross(tangent.xyz, normal) * tangent.w.
type Vertex struct {
	Position [3]float32
	Texcoord [2]float32
	Normal   [3]float32
	Tangent  [4]float32
}

// vertexComponents is the total number of float components in a Vertex.
const vertexComponents = 3 + 2 + 3 + 4

// VertexKey is the bit pattern of every vertex component in field order.
// Two vertices with the same key are interchangeable.
type VertexKey [vertexComponents]uint32

// Key returns the exact-match key of v.
func (v Vertex) Key() VertexKey {
	var k VertexKey
	for i, c := range v.components() {
		k[i] = math.Float32bits(c)
	}
	return k
}

// Equal reports whether v and o are bit-for-bit identical.
func (v Vertex) Equal(o Vertex) bool {
	return v.Key() == o.Key()
}

// Similar reports whether every component of v is within tolerance of the
// corresponding component of o.
func (v Vertex) Similar(o Vertex, tolerance float32) bool {
	a, b := v.components(), o.components()
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if !(d <= tolerance) {
			return false
		}
	}
	return true
}

func (v Vertex) components() [vertexComponents]float32 {
	return [vertexComponents]float32{
		v.Position[0], v.Position[1], v.Position[2],
		v.Texcoord[0], v.Texcoord[1],
		v.Normal[0], v.Normal[1], v.Normal[2],
		v.Tangent[0], v.Tangent[1], v.Tangent[2], v.Tangent[3],
	}
}

// attrib returns the components of attribute a, aliasing v.
func (v *Vertex) attrib(a Attribute) []float32 {
	switch a {
	case AttribPosition:
		return v.Position[:]
	case AttribTexcoord:
		return v.Texcoord[:]
	case AttribNormal:
		return v.Normal[:]
	case AttribTangent:
		return v.Tangent[:]
	}
	return nil
}
