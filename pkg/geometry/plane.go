package geometry

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// Plane is the unit square [-1,1]x[-1,1] in the local XY plane, facing +Z.
type Plane struct{}

// IntersectRay tests if a ray intersects with the plane
func (p Plane) IntersectRay(ray core.Ray, hit *HitInfo, side HitSide) bool {
	// Parallel rays never hit
	if ray.Direction.Z == 0 {
		return false
	}

	front := ray.Direction.Z < 0
	if front && side&HitFront == 0 {
		return false
	}
	if !front && side&HitBack == 0 {
		return false
	}

	t := -ray.Origin.Z / ray.Direction.Z
	if !hit.Accepts(t, front) {
		return false
	}

	point := ray.At(t)
	if math.Abs(point.X) > 1 || math.Abs(point.Y) > 1 {
		return false
	}
	point.Z = 0

	hit.Z = t
	hit.P = point
	hit.N = core.NewVec3(0, 0, 1)
	hit.Front = front
	hit.UVW = core.NewVec3((point.X+1)*0.5, (point.Y+1)*0.5, 0)
	hit.DUVW = [2]core.Vec3{}
	hit.MtlID = 0
	return true
}

// BoundBox returns a bounding box for this plane
func (p Plane) BoundBox() core.Box {
	return core.NewBox(core.NewVec3(-1, -1, 0), core.NewVec3(1, 1, 0))
}
