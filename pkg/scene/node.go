package scene

import (
	"github.com/df07/go-photon-raytracer/pkg/core"
)

// None marks an absent object or material reference
const None = -1

// Node is one entry of the scene graph arena. Children, Object and Material are
// indices into the owning Scene's Nodes, Objects and Materials.
type Node struct {
	Name      string
	Children  []int
	Transform Transform
	Object    int // Index into Scene.Objects, or None
	Material  int // Index into Scene.Materials, or None

	// childBox bounds every descendant in this node's local frame
	childBox core.Box
}

// HasObject reports whether the node carries geometry
func (n *Node) HasObject() bool {
	return n.Object != None
}

// ChildBox returns the cached local-frame box of the node's subtree, excluding its own object
func (n *Node) ChildBox() core.Box {
	return n.childBox
}
