package cfr

import "fmt"

// Geometry is a Mesh whose vertices are quantized to the storage type of
// each attribute group before they are inserted.
type Geometry struct {
	*Mesh
	layout Layout
}

// NewGeometry creates an empty geometry with the default layout.
func NewGeometry() *Geometry {
	g := &Geometry{layout: DefaultLayout()}
	g.Mesh = NewMesh(g.quantize)
	return g
}

func (g *Geometry) quantize(v Vertex) Vertex {
	return g.layout.Quantize(v)
}

// adopt takes over the layout and contents of o. The mesh quantizes through
// g's layout afterwards.
func (g *Geometry) adopt(o *Geometry) {
	g.layout = o.layout
	g.Mesh = o.Mesh
	g.Mesh.transform = g.quantize
}

// SetType changes the storage type of one attribute group. Vertices already
// stored keep their values until the next Recalculate.
func (g *Geometry) SetType(a Attribute, t AttribType) error {
	if a < 0 || a >= attribCount {
		return fmt.Errorf("unknown attribute %d", int(a))
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %s type 0x%02X", ErrInvalidAttributeType, a, uint8(t))
	}
	g.layout[a] = t
	return nil
}

// Type returns the storage type of an attribute group.
func (g *Geometry) Type(a Attribute) AttribType {
	return g.layout[a]
}

// Layout returns the storage types of all attribute groups.
func (g *Geometry) Layout() Layout {
	return g.layout
}

// SetLayout replaces all storage types at once.
func (g *Geometry) SetLayout(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	g.layout = l
	return nil
}

// Disable sets the listed attribute groups to TypeDisable and reports
// whether any of them was enabled before.
func (g *Geometry) Disable(attrs ...Attribute) bool {
	changed := false
	for _, a := range attrs {
		if g.layout[a] != TypeDisable {
			g.layout[a] = TypeDisable
			changed = true
		}
	}
	return changed
}

// Enabled reports whether attribute group a is stored.
func (g *Geometry) Enabled(a Attribute) bool {
	return g.layout[a] != TypeDisable
}
