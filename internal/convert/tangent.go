package convert

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/cfrtools/pkg/cfr"
)

// epsilon is the length below which a vector counts as degenerate.
const epsilon = 1e-6

// faceNormal returns the unit normal of the triangle (a, b, c) as
// normalize(cross(c-a, b-a)), matching the reversed fan winding of the OBJ
// reader. Degenerate triangles get a zero normal.
func faceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := c.Sub(a).Cross(b.Sub(a))
	if n.Len() < epsilon {
		return mgl32.Vec3{}
	}
	return unsigned(n.Normalize())
}

// tangent computes the tangent of corner a of the triangle (a, b, c) from
// its texture coordinate gradients. The result is orthogonalized against the
// normal of a; w holds the handedness of the frame. Triangles with
// degenerate texture coordinates get (0, 0, 0, 1).
func tangent(a, b, c *cfr.Vertex) [4]float32 {
	n := mgl32.Vec3(a.Normal)
	pa := mgl32.Vec3(a.Position)
	ta := mgl32.Vec2(a.Texcoord)

	dpB := mgl32.Vec3(b.Position).Sub(pa)
	dpC := mgl32.Vec3(c.Position).Sub(pa)
	dtB := mgl32.Vec2(b.Texcoord).Sub(ta)
	dtC := mgl32.Vec2(c.Texcoord).Sub(ta)

	det := dtB.X()*dtC.Y() - dtC.X()*dtB.Y()
	if det == 0 {
		return [4]float32{0, 0, 0, 1}
	}
	r := 1 / det
	sdir := dpB.Mul(dtC.Y()).Sub(dpC.Mul(dtB.Y())).Mul(r)
	tdir := dpC.Mul(dtB.X()).Sub(dpB.Mul(dtC.X())).Mul(r)

	t := sdir.Sub(n.Mul(n.Dot(sdir)))
	if t.Len() < epsilon {
		return [4]float32{0, 0, 0, 1}
	}
	t = unsigned(t.Normalize())

	w := float32(1)
	if n.Cross(sdir).Dot(tdir) < 0 {
		w = -1
	}
	return [4]float32{t.X(), t.Y(), t.Z(), w}
}

// unsigned replaces negative zeros so that vectors synthesized on adjacent
// faces compare bit-equal.
func unsigned(v mgl32.Vec3) mgl32.Vec3 {
	for i := range v {
		if v[i] == 0 {
			v[i] = 0
		}
	}
	return v
}
