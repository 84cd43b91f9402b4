package scene

import (
	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
)

// Trace finds the nearest hit along a world-space ray closer than hit.Z. On
// success hit is in world space and hit.Node identifies the hit node.
func (s *Scene) Trace(ray core.Ray, hit *geometry.HitInfo, side geometry.HitSide) bool {
	if len(s.Nodes) == 0 {
		return false
	}
	return s.traceNode(s.Root(), ray, hit, side)
}

// traceNode intersects the subtree at id with a ray in the parent's frame and
// leaves any hit it records in the parent's frame
func (s *Scene) traceNode(id int, ray core.Ray, hit *geometry.HitInfo, side geometry.HitSide) bool {
	node := &s.Nodes[id]
	local := node.Transform.ToLocal(ray)

	found := false
	if node.HasObject() && s.Objects[node.Object].IntersectRay(local, hit, side) {
		hit.Node = id
		node.Transform.FromLocal(hit)
		found = true
	}

	if len(node.Children) == 0 {
		return found
	}
	if _, ok := node.childBox.IntersectRay(local, hit.Z); !ok {
		return found
	}

	// Child hits come back in this node's frame
	childFound := false
	for _, child := range node.Children {
		if s.traceNode(child, local, hit, side) {
			childFound = true
		}
	}
	if childFound {
		node.Transform.FromLocal(hit)
	}
	return found || childFound
}

// ShadowTrace reports whether any surface lies along the ray before tMax
func (s *Scene) ShadowTrace(ray core.Ray, tMax float64) bool {
	if len(s.Nodes) == 0 {
		return false
	}
	hit := geometry.NewHitInfo()
	hit.Z = tMax
	return s.shadowNode(s.Root(), ray, &hit)
}

func (s *Scene) shadowNode(id int, ray core.Ray, hit *geometry.HitInfo) bool {
	node := &s.Nodes[id]
	local := node.Transform.ToLocal(ray)

	if node.HasObject() && s.Objects[node.Object].IntersectRay(local, hit, geometry.HitFrontAndBack) {
		return true
	}
	if len(node.Children) == 0 {
		return false
	}
	if _, ok := node.childBox.IntersectRay(local, hit.Z); !ok {
		return false
	}
	for _, child := range node.Children {
		if s.shadowNode(child, local, hit) {
			return true
		}
	}
	return false
}
