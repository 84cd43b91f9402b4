package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
)

// Transform maps a node's local frame into its parent's frame: p' = tm*p + pos.
// The inverse matrix is cached so rays can be localized without inverting per call.
type Transform struct {
	tm  mgl64.Mat3
	itm mgl64.Mat3
	pos core.Vec3
}

// Identity returns the transform that leaves everything unchanged
func Identity() Transform {
	return Transform{tm: mgl64.Ident3(), itm: mgl64.Ident3()}
}

// NewTransform creates a transform from a linear part and a translation
func NewTransform(m mgl64.Mat3, pos core.Vec3) Transform {
	return Transform{tm: m, itm: m.Inv(), pos: pos}
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// Matrix returns the linear part of the transform
func (t Transform) Matrix() mgl64.Mat3 {
	return t.tm
}

// Position returns the translation of the transform
func (t Transform) Position() core.Vec3 {
	return t.pos
}

// IsInvertible reports whether the linear part has a non-zero determinant
func (t Transform) IsInvertible() bool {
	return t.tm.Det() != 0
}

// Translate returns the transform followed by a translation
func (t Transform) Translate(v core.Vec3) Transform {
	t.pos = t.pos.Add(v)
	return t
}

// Rotate returns the transform followed by a rotation of degrees around axis
func (t Transform) Rotate(axis core.Vec3, degrees float64) Transform {
	if axis.IsZero() {
		return t
	}
	r := mgl64.HomogRotate3D(mgl64.DegToRad(degrees), toMgl(axis.Normalize())).Mat3()
	return t.apply(r)
}

// Scale returns the transform followed by a per-axis scale
func (t Transform) Scale(s core.Vec3) Transform {
	return t.apply(mgl64.Diag3(toMgl(s)))
}

// apply composes m after the transform, in the parent's frame
func (t Transform) apply(m mgl64.Mat3) Transform {
	return NewTransform(m.Mul3(t.tm), fromMgl(m.Mul3x1(toMgl(t.pos))))
}

// TransformPoint maps a local point into the parent frame
func (t Transform) TransformPoint(p core.Vec3) core.Vec3 {
	return fromMgl(t.tm.Mul3x1(toMgl(p))).Add(t.pos)
}

// PointToLocal maps a parent-frame point into the local frame
func (t Transform) PointToLocal(p core.Vec3) core.Vec3 {
	return fromMgl(t.itm.Mul3x1(toMgl(p.Subtract(t.pos))))
}

// VectorToLocal maps a parent-frame direction into the local frame without normalizing it
func (t Transform) VectorToLocal(v core.Vec3) core.Vec3 {
	return fromMgl(t.itm.Mul3x1(toMgl(v)))
}

// NormalFromLocal maps a local normal into the parent frame using the inverse transpose
func (t Transform) NormalFromLocal(n core.Vec3) core.Vec3 {
	return fromMgl(t.itm.Transpose().Mul3x1(toMgl(n))).Normalize()
}

// NormalToLocal maps a parent-frame normal into the local frame
func (t Transform) NormalToLocal(n core.Vec3) core.Vec3 {
	return fromMgl(t.tm.Transpose().Mul3x1(toMgl(n))).Normalize()
}

// ToLocal maps a ray into the local frame. The direction is not normalized, so
// a parameter t along the local ray reaches the same point as t along the original.
func (t Transform) ToLocal(ray core.Ray) core.Ray {
	origin := t.PointToLocal(ray.Origin)
	return core.NewRay(origin, t.PointToLocal(ray.Origin.Add(ray.Direction)).Subtract(origin))
}

// FromLocal maps a hit recorded in the local frame into the parent frame
func (t Transform) FromLocal(hit *geometry.HitInfo) {
	hit.P = t.TransformPoint(hit.P)
	hit.N = t.NormalFromLocal(hit.N)
}

// TransformBox returns the parent-frame box bounding the 8 transformed corners of b
func (t Transform) TransformBox(b core.Box) core.Box {
	if b.IsEmpty() {
		return b
	}
	out := core.EmptyBox()
	for i := 0; i < 8; i++ {
		out = out.AddPoint(t.TransformPoint(b.Corner(i)))
	}
	return out
}
