package geometry

import (
	"sort"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// Leaf threshold: if we have this many or fewer elements, store them in a leaf node
const leafThreshold = 8

// bvhStackSize bounds traversal depth; deeper subtrees are skipped rather than overflowing
const bvhStackSize = 64

// bvhNode is either an interior node with two child indices or a leaf
// referencing a contiguous range of the element index array.
type bvhNode struct {
	box         core.Box
	left, right int // child node indices (interior only)
	start       int // first entry in BVH.indices (leaf only)
	count       int // number of elements, zero for interior nodes
}

func (n *bvhNode) isLeaf() bool {
	return n.count > 0
}

// BVH is a flat bounding volume hierarchy over element indices, built once and
// read-only afterwards, so concurrent traversals need no locking.
type BVH struct {
	nodes   []bvhNode
	indices []int
}

// NewBVH builds a hierarchy over count elements whose bounds are given by elementBox
func NewBVH(count int, elementBox func(i int) core.Box) *BVH {
	bvh := &BVH{indices: make([]int, count)}
	if count == 0 {
		return bvh
	}

	boxes := make([]core.Box, count)
	centers := make([]core.Vec3, count)
	for i := 0; i < count; i++ {
		bvh.indices[i] = i
		boxes[i] = elementBox(i)
		centers[i] = boxes[i].Center()
	}

	bvh.nodes = make([]bvhNode, 0, 2*count/leafThreshold+1)
	bvh.build(0, count, boxes, centers)
	return bvh
}

// build creates the node for indices[start:end] and returns its node index
func (bvh *BVH) build(start, end int, boxes []core.Box, centers []core.Vec3) int {
	box := core.EmptyBox()
	for _, idx := range bvh.indices[start:end] {
		box = box.Union(boxes[idx])
	}

	nodeIndex := len(bvh.nodes)
	bvh.nodes = append(bvh.nodes, bvhNode{box: box})

	// Base case: few elements, store them in a leaf for linear search
	if end-start <= leafThreshold {
		bvh.nodes[nodeIndex].start = start
		bvh.nodes[nodeIndex].count = end - start
		return nodeIndex
	}

	// Median split along the longest axis of the element centers
	centerBox := core.EmptyBox()
	for _, idx := range bvh.indices[start:end] {
		centerBox = centerBox.AddPoint(centers[idx])
	}
	axis := centerBox.LongestAxis()
	span := bvh.indices[start:end]
	sort.Slice(span, func(i, j int) bool {
		return centers[span[i]].Axis(axis) < centers[span[j]].Axis(axis)
	})

	mid := start + (end-start)/2
	left := bvh.build(start, mid, boxes, centers)
	right := bvh.build(mid, end, boxes, centers)
	bvh.nodes[nodeIndex].left = left
	bvh.nodes[nodeIndex].right = right
	return nodeIndex
}

// Bounds returns the box of the whole hierarchy
func (bvh *BVH) Bounds() core.Box {
	if len(bvh.nodes) == 0 {
		return core.EmptyBox()
	}
	return bvh.nodes[0].box
}

type bvhStackEntry struct {
	node  int
	enter float64
}

// Intersect walks the hierarchy front to back with an explicit stack. For each
// element in a reached leaf it calls testElement, which returns true when it
// recorded a closer hit in hit. Subtrees entered beyond hit.Z are skipped.
func (bvh *BVH) Intersect(ray core.Ray, hit *HitInfo, testElement func(i int) bool) bool {
	if len(bvh.nodes) == 0 {
		return false
	}
	enter, ok := bvh.nodes[0].box.IntersectRay(ray, hit.Z)
	if !ok {
		return false
	}

	var stack [bvhStackSize]bvhStackEntry
	stack[0] = bvhStackEntry{node: 0, enter: enter}
	sp := 1
	push := func(node int, enter float64) {
		if sp < bvhStackSize {
			stack[sp] = bvhStackEntry{node: node, enter: enter}
			sp++
		}
	}

	found := false
	for sp > 0 {
		sp--
		entry := stack[sp]
		// A closer hit may have been found since this entry was pushed
		if entry.enter > hit.Z {
			continue
		}

		node := &bvh.nodes[entry.node]
		if node.isLeaf() {
			for _, idx := range bvh.indices[node.start : node.start+node.count] {
				if testElement(idx) {
					found = true
				}
			}
			continue
		}

		tLeft, okLeft := bvh.nodes[node.left].box.IntersectRay(ray, hit.Z)
		tRight, okRight := bvh.nodes[node.right].box.IntersectRay(ray, hit.Z)
		switch {
		case okLeft && okRight:
			// Push the farther child first so the nearer one is popped first
			if tLeft < tRight {
				push(node.right, tRight)
				push(node.left, tLeft)
			} else {
				push(node.left, tLeft)
				push(node.right, tRight)
			}
		case okLeft:
			push(node.left, tLeft)
		case okRight:
			push(node.right, tRight)
		}
	}

	return found
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes    int
	leafNodes     int
	maxDepth      int
	avgDepth      float64
	totalElements int
}

// getStats returns statistics about the BVH structure
func (bvh *BVH) getStats() bvhStats {
	stats := bvhStats{}
	if len(bvh.nodes) == 0 {
		return stats
	}
	bvh.collectStats(0, 0, &stats)

	// Calculate average depth after collecting all data
	if stats.leafNodes > 0 {
		stats.avgDepth = stats.avgDepth / float64(stats.leafNodes)
	}
	return stats
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(nodeIndex, depth int, stats *bvhStats) {
	node := &bvh.nodes[nodeIndex]
	stats.totalNodes++
	stats.maxDepth = max(stats.maxDepth, depth)

	if node.isLeaf() {
		stats.leafNodes++
		stats.totalElements += node.count
		stats.avgDepth += float64(depth)
		return
	}
	bvh.collectStats(node.left, depth+1, stats)
	bvh.collectStats(node.right, depth+1, stats)
}
