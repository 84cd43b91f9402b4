package scene

import (
	"fmt"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/lights"
	"github.com/df07/go-photon-raytracer/pkg/material"
)

// Scene contains all the elements needed for rendering. It is populated by a
// loader, prepared once with Preprocess, and read-only while rendering.
type Scene struct {
	Nodes          []Node // Nodes[0] is the root
	Objects        []geometry.Object
	Materials      []material.Material
	Lights         []lights.Light
	CameraConfig   geometry.CameraConfig
	Background     material.TexturedColor // Seen by camera rays that miss, sampled at screen uv
	Environment    material.TexturedColor // Seen by secondary rays that miss, sampled by direction
	SamplingConfig SamplingConfig

	prepared bool
}

// NewScene creates a scene holding only an empty root node
func NewScene() *Scene {
	return &Scene{
		Nodes:          []Node{{Name: "root", Transform: Identity(), Object: None, Material: None, childBox: core.EmptyBox()}},
		CameraConfig:   geometry.DefaultCameraConfig(),
		SamplingConfig: DefaultSamplingConfig(),
	}
}

// Root returns the index of the root node
func (s *Scene) Root() int {
	return 0
}

// AddObject registers geometry and returns its index
func (s *Scene) AddObject(obj geometry.Object) int {
	s.Objects = append(s.Objects, obj)
	s.prepared = false
	return len(s.Objects) - 1
}

// AddMaterial registers a material and returns its index
func (s *Scene) AddMaterial(m material.Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// AddLight adds a light to the scene
func (s *Scene) AddLight(light lights.Light) {
	s.Lights = append(s.Lights, light)
}

// AddNode creates a node under parent and returns its index
func (s *Scene) AddNode(parent int, name string, transform Transform, object, mtl int) int {
	id := len(s.Nodes)
	s.Nodes = append(s.Nodes, Node{
		Name:      name,
		Transform: transform,
		Object:    object,
		Material:  mtl,
		childBox:  core.EmptyBox(),
	})
	if parent >= 0 && parent < id {
		s.Nodes[parent].Children = append(s.Nodes[parent].Children, id)
	}
	s.prepared = false
	return id
}

// Node returns the node at index id
func (s *Scene) Node(id int) *Node {
	return &s.Nodes[id]
}

// MaterialOf returns the material of a node, or nil if it has none
func (s *Scene) MaterialOf(id int) material.Material {
	if id < 0 || id >= len(s.Nodes) {
		return nil
	}
	mtl := s.Nodes[id].Material
	if mtl == None {
		return nil
	}
	return s.Materials[mtl]
}

// Camera builds the camera described by the scene
func (s *Scene) Camera() *geometry.Camera {
	return geometry.NewCamera(s.CameraConfig)
}

// Validate rejects scenes that cannot be rendered
func (s *Scene) Validate() error {
	cfg := s.CameraConfig
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrNoImage, cfg.Width, cfg.Height)
	}
	if cfg.Direction.IsZero() || cfg.Direction.Normalize().Cross(cfg.Up).IsZero() {
		return fmt.Errorf("%w: direction %v and up %v", ErrNoCamera, cfg.Direction, cfg.Up)
	}
	if cfg.FOV <= 0 || cfg.FOV >= 180 {
		return fmt.Errorf("%w: field of view %g", ErrNoCamera, cfg.FOV)
	}
	if len(s.Nodes) == 0 {
		return ErrEmptyScene
	}
	if err := s.SamplingConfig.Validate(); err != nil {
		return err
	}

	// Every node but the root must be reachable exactly once
	parents := make([]int, len(s.Nodes))
	for i := range parents {
		parents[i] = None
	}
	objects := 0
	for id := range s.Nodes {
		node := &s.Nodes[id]
		for _, child := range node.Children {
			if child <= 0 || child >= len(s.Nodes) {
				return fmt.Errorf("%w: node %d has child %d", ErrBadNodeRef, id, child)
			}
			if parents[child] != None {
				return fmt.Errorf("%w: node %d has parents %d and %d", ErrBadNodeRef, child, parents[child], id)
			}
			parents[child] = id
		}
		if !node.Transform.IsInvertible() {
			return fmt.Errorf("%w: node %d %q", ErrSingularTransform, id, node.Name)
		}
		if node.Object != None {
			if node.Object < 0 || node.Object >= len(s.Objects) {
				return fmt.Errorf("%w: node %d references object %d of %d", ErrBadNodeRef, id, node.Object, len(s.Objects))
			}
			if node.Material == None {
				return fmt.Errorf("%w: node %d %q has an object but no material", ErrBadMaterialRef, id, node.Name)
			}
			objects++
		}
		if node.Material != None && (node.Material < 0 || node.Material >= len(s.Materials)) {
			return fmt.Errorf("%w: node %d references material %d of %d", ErrBadMaterialRef, id, node.Material, len(s.Materials))
		}
	}
	// With single parents, a node unreachable from the root is detached or on a cycle
	reached := make([]bool, len(s.Nodes))
	stack := []int{s.Root()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached[id] = true
		stack = append(stack, s.Nodes[id].Children...)
	}
	for id, ok := range reached {
		if !ok {
			return fmt.Errorf("%w: node %d %q is not reachable from the root", ErrBadNodeRef, id, s.Nodes[id].Name)
		}
	}
	if objects == 0 {
		return ErrEmptyScene
	}
	return nil
}

// Preprocess validates the scene and computes every node's child box bottom-up.
// It must be called again after changing nodes, objects or transforms.
func (s *Scene) Preprocess() error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.updateChildBox(s.Root())
	s.prepared = true
	return nil
}

// IsPrepared reports whether Preprocess has run since the last change
func (s *Scene) IsPrepared() bool {
	return s.prepared
}

// updateChildBox recomputes the child boxes of the subtree at id and returns
// the box of the subtree including the node's own object, in its local frame
func (s *Scene) updateChildBox(id int) core.Box {
	node := &s.Nodes[id]
	box := core.EmptyBox()
	for _, child := range node.Children {
		childBox := s.updateChildBox(child)
		box = box.Union(s.Nodes[child].Transform.TransformBox(childBox))
	}
	node.childBox = box

	if node.HasObject() {
		return box.Union(s.Objects[node.Object].BoundBox())
	}
	return box
}

// Bounds returns the world-space box of the whole scene
func (s *Scene) Bounds() core.Box {
	root := &s.Nodes[s.Root()]
	box := root.childBox
	if root.HasObject() {
		box = box.Union(s.Objects[root.Object].BoundBox())
	}
	return root.Transform.TransformBox(box)
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	count := 0
	for i := range s.Nodes {
		if !s.Nodes[i].HasObject() {
			continue
		}
		switch obj := s.Objects[s.Nodes[i].Object].(type) {
		case *geometry.TriangleMesh:
			// Triangle meshes contain multiple triangles
			count += obj.FaceCount()
		default:
			count++
		}
	}
	return count
}
