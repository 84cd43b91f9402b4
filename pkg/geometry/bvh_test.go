package geometry

import (
	"testing"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// unitBoxes returns count unit boxes laid out along the X axis
func unitBoxes(count int) func(i int) core.Box {
	return func(i int) core.Box {
		return core.NewBox(core.NewVec3(float64(i), 0, 0), core.NewVec3(float64(i)+1, 1, 1))
	}
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	// Exactly leafThreshold elements should create a single leaf
	bvh := NewBVH(leafThreshold, unitBoxes(leafThreshold))
	stats := bvh.getStats()
	if stats.totalNodes != 1 || stats.leafNodes != 1 {
		t.Errorf("Expected a single leaf for %d elements, got %+v", leafThreshold, stats)
	}

	// One more should split
	bvh = NewBVH(leafThreshold+1, unitBoxes(leafThreshold+1))
	stats = bvh.getStats()
	if stats.totalNodes == 1 {
		t.Errorf("Expected split for %d elements, but got single node", leafThreshold+1)
	}
	if stats.leafNodes < 2 {
		t.Errorf("Expected at least 2 leaf nodes after split, got %d", stats.leafNodes)
	}
	if stats.totalElements != leafThreshold+1 {
		t.Errorf("Expected every element in exactly one leaf, got %d", stats.totalElements)
	}
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(0, unitBoxes(0))
	if !bvh.Bounds().IsEmpty() {
		t.Error("Empty BVH should have empty bounds")
	}
	hit := NewHitInfo()
	ray := core.NewRay(core.NewVec3(-1, 0.5, 0.5), core.NewVec3(1, 0, 0))
	if bvh.Intersect(ray, &hit, func(int) bool { t.Fatal("No element should be tested"); return false }) {
		t.Error("Expected no hit for empty BVH")
	}
}

func TestBVH_FrontToBackOrder(t *testing.T) {
	const count = 256
	bvh := NewBVH(count, unitBoxes(count))

	// Elements are hit at distance i+1 along +X; record the order they are tested
	ray := core.NewRay(core.NewVec3(-1, 0.5, 0.5), core.NewVec3(1, 0, 0))
	hit := NewHitInfo()
	var tested []int
	found := bvh.Intersect(ray, &hit, func(i int) bool {
		tested = append(tested, i)
		z := float64(i) + 1
		if hit.Accepts(z, true) {
			hit.Z = z
			return true
		}
		return false
	})

	if !found || hit.Z != 1 {
		t.Fatalf("Expected nearest element at z=1, got z=%f found=%t", hit.Z, found)
	}
	// The first leaf holds the nearest elements and prunes every farther leaf
	if len(tested) > 2*leafThreshold {
		t.Errorf("Expected front-to-back traversal to prune far leaves, tested %d elements", len(tested))
	}
	if tested[0] >= leafThreshold {
		t.Errorf("Expected the nearest leaf to be visited first, first element %d", tested[0])
	}
}

func TestBVH_ReverseDirection(t *testing.T) {
	const count = 64
	bvh := NewBVH(count, unitBoxes(count))

	ray := core.NewRay(core.NewVec3(count+1, 0.5, 0.5), core.NewVec3(-1, 0, 0))
	hit := NewHitInfo()
	found := bvh.Intersect(ray, &hit, func(i int) bool {
		z := float64(count+1) - float64(i+1)
		if hit.Accepts(z, true) {
			hit.Z = z
			return true
		}
		return false
	})
	if !found || hit.Z != 1 {
		t.Errorf("Expected nearest element from the far side at z=1, got z=%f", hit.Z)
	}
}

func TestBVH_Stats(t *testing.T) {
	const count = 1000
	bvh := NewBVH(count, unitBoxes(count))
	stats := bvh.getStats()
	if stats.totalElements != count {
		t.Errorf("Expected %d elements, got %d", count, stats.totalElements)
	}
	if stats.maxDepth >= bvhStackSize {
		t.Errorf("Median split depth %d should stay under the traversal stack size", stats.maxDepth)
	}
}
