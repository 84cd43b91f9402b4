package geometry

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// Sphere is the canonical unit sphere centered at the local origin.
// Position and radius come from the owning scene node's transform.
type Sphere struct{}

// IntersectRay tests if a ray intersects with the sphere
func (s Sphere) IntersectRay(ray core.Ray, hit *HitInfo, side HitSide) bool {
	// Quadratic equation coefficients: at² + 2bt + c = 0
	a := ray.Direction.LengthSquared()
	if a == 0 {
		return false
	}
	halfB := ray.Origin.Dot(ray.Direction)
	c := ray.Origin.LengthSquared() - 1

	// A tangent ray (zero discriminant) is treated as a miss
	discriminant := halfB*halfB - a*c
	if discriminant <= 0 {
		return false
	}
	sqrtD := math.Sqrt(discriminant)

	// The near root enters the sphere, the far root leaves it
	near := (-halfB - sqrtD) / a
	far := (-halfB + sqrtD) / a

	var t float64
	var front bool
	// A back-only query from outside skips the near root and takes the far one
	switch {
	case near > core.Epsilon && side&HitFront != 0:
		t, front = near, true
	case far > core.Epsilon && side&HitBack != 0:
		t, front = far, false
	default:
		return false
	}

	if !hit.Accepts(t, front) {
		return false
	}

	p := ray.At(t)
	hit.Z = t
	hit.P = p
	hit.N = p.Normalize()
	hit.Front = front
	hit.UVW = sphereUVW(hit.N)
	hit.DUVW = [2]core.Vec3{}
	hit.MtlID = 0
	return true
}

// BoundBox returns the local bounding box of the unit sphere
func (s Sphere) BoundBox() core.Box {
	return core.NewBox(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
}

// sphereUVW maps a unit-sphere point to longitude/latitude texture coordinates
func sphereUVW(n core.Vec3) core.Vec3 {
	u := 0.5 + math.Atan2(n.Y, n.X)/(2*math.Pi)
	v := 0.5 + math.Asin(max(-1, min(1, n.Z)))/math.Pi
	return core.NewVec3(u, v, 0)
}
