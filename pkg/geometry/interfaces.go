package geometry

import (
	"github.com/df07/go-photon-raytracer/pkg/core"
)

// HitSide selects which faces a ray test reports
type HitSide int

const (
	HitFront        HitSide = 1 << iota // Surfaces facing the ray
	HitBack                             // Surfaces facing away from the ray
	HitFrontAndBack = HitFront | HitBack
)

// Object is geometry defined in its own local frame. Implementations update hit
// only when they find a hit that HitInfo.Accepts, and report whether they did.
type Object interface {
	IntersectRay(ray core.Ray, hit *HitInfo, side HitSide) bool
	BoundBox() core.Box
}

// HitInfo describes the closest intersection found so far along a ray.
// Objects fill it in their local frame; the scene converts it back to world space.
type HitInfo struct {
	Z     float64      // Ray parameter of the hit, core.Big when nothing was hit
	P     core.Vec3    // Hit point
	N     core.Vec3    // Outward surface normal, unit length
	UVW   core.Vec3    // Texture coordinate
	DUVW  [2]core.Vec3 // Texture coordinate derivatives along screen x and y
	Node  int          // Scene node that owns the hit geometry, -1 for none
	Front bool         // True when the ray hit the outward-facing side
	MtlID int          // Sub-material index for multi-material objects
}

// NewHitInfo returns a HitInfo with no hit recorded
func NewHitInfo() HitInfo {
	var h HitInfo
	h.Init()
	return h
}

// Init resets the record to "no hit"
func (h *HitInfo) Init() {
	*h = HitInfo{
		Z:     core.Big,
		Node:  -1,
		Front: true,
		UVW:   core.NewVec3(0.5, 0.5, 0.5),
	}
}

// HasHit reports whether any intersection has been recorded
func (h *HitInfo) HasHit() bool {
	return h.Z < core.Big
}

// Accepts reports whether a candidate at ray parameter t, with the given facing,
// should replace the current hit. Hits closer than core.Epsilon are rejected and
// at equal distance a front face wins over a back face.
func (h *HitInfo) Accepts(t float64, front bool) bool {
	if !(t > core.Epsilon) {
		return false
	}
	if t < h.Z {
		return true
	}
	return t == h.Z && front && !h.Front
}
