package geometry

import (
	"errors"
	"fmt"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/log"
)

var logger = log.New("geometry")

// ErrInvalidMesh is returned when mesh arrays are inconsistent
var ErrInvalidMesh = errors.New("geometry: invalid triangle mesh")

// TriangleMesh represents a collection of triangles with efficient ray intersection
// It uses an internal BVH over face indices for fast intersection tests
type TriangleMesh struct {
	vertices      []core.Vec3
	normals       []core.Vec3 // optional, one per vertex
	texCoords     []core.Vec3 // optional, one per vertex
	faces         [][3]int
	faceMaterials []int // optional, one per face
	bvh           *BVH
}

// TriangleMeshOptions contains optional parameters for triangle mesh creation
type TriangleMeshOptions struct {
	Normals       []core.Vec3 // Optional per-vertex shading normals
	TexCoords     []core.Vec3 // Optional per-vertex texture coordinates
	FaceMaterials []int       // Optional per-face sub-material indices
}

// NewTriangleMesh creates a new triangle mesh from vertices and face indices and
// builds its BVH. options may be nil.
func NewTriangleMesh(vertices []core.Vec3, faces [][3]int, options *TriangleMeshOptions) (*TriangleMesh, error) {
	mesh := &TriangleMesh{
		vertices: vertices,
		faces:    faces,
	}

	if options != nil {
		if options.Normals != nil && len(options.Normals) != len(vertices) {
			return nil, fmt.Errorf("%w: %d normals for %d vertices", ErrInvalidMesh, len(options.Normals), len(vertices))
		}
		if options.TexCoords != nil && len(options.TexCoords) != len(vertices) {
			return nil, fmt.Errorf("%w: %d texture coordinates for %d vertices", ErrInvalidMesh, len(options.TexCoords), len(vertices))
		}
		if options.FaceMaterials != nil && len(options.FaceMaterials) != len(faces) {
			return nil, fmt.Errorf("%w: %d face materials for %d faces", ErrInvalidMesh, len(options.FaceMaterials), len(faces))
		}
		mesh.normals = options.Normals
		mesh.texCoords = options.TexCoords
		mesh.faceMaterials = options.FaceMaterials
	}

	for i, face := range faces {
		for _, v := range face {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("%w: face %d references vertex %d of %d", ErrInvalidMesh, i, v, len(vertices))
			}
		}
	}

	mesh.bvh = NewBVH(len(faces), mesh.faceBox)
	stats := mesh.bvh.getStats()
	logger.Debugf("mesh BVH: %d faces, %d nodes, %d leaves, depth max %d avg %.1f",
		len(faces), stats.totalNodes, stats.leafNodes, stats.maxDepth, stats.avgDepth)
	return mesh, nil
}

// faceBox returns the bounding box of a single face
func (m *TriangleMesh) faceBox(i int) core.Box {
	f := m.faces[i]
	return core.NewBoxFromPoints(m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]])
}

// IntersectRay tests the ray against every face the BVH lets through
func (m *TriangleMesh) IntersectRay(ray core.Ray, hit *HitInfo, side HitSide) bool {
	return m.bvh.Intersect(ray, hit, func(face int) bool {
		return m.intersectFace(ray, hit, side, face)
	})
}

// BoundBox returns the axis-aligned bounding box for the entire mesh
func (m *TriangleMesh) BoundBox() core.Box {
	return m.bvh.Bounds()
}

// FaceCount returns the number of triangles in this mesh
func (m *TriangleMesh) FaceCount() int {
	return len(m.faces)
}

// VertexCount returns the number of vertices in this mesh
func (m *TriangleMesh) VertexCount() int {
	return len(m.vertices)
}

// intersectFace tests one triangle using the Möller-Trumbore algorithm
func (m *TriangleMesh) intersectFace(ray core.Ray, hit *HitInfo, side HitSide, face int) bool {
	const epsilon = 1e-12

	f := m.faces[face]
	v0, v1, v2 := m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]

	// Calculate two edge vectors
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	// Calculate determinant
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// If determinant is near zero, ray lies in plane of triangle
	if a > -epsilon && a < epsilon {
		return false
	}

	// Counter-clockwise winding faces the viewer, which gives a positive determinant
	front := a > 0
	if front && side&HitFront == 0 {
		return false
	}
	if !front && side&HitBack == 0 {
		return false
	}

	inv := 1.0 / a
	s := ray.Origin.Subtract(v0)
	u := inv * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return false
	}

	q := s.Cross(edge1)
	v := inv * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return false
	}

	t := inv * edge2.Dot(q)
	if !hit.Accepts(t, front) {
		return false
	}

	w := 1 - u - v
	hit.Z = t
	hit.P = ray.At(t)
	hit.Front = front
	hit.N = edge1.Cross(edge2).Normalize()
	if m.normals != nil {
		// Faces without shading normals keep the geometric normal
		n := m.normals[f[0]].Multiply(w).Add(m.normals[f[1]].Multiply(u)).Add(m.normals[f[2]].Multiply(v))
		if n.LengthSquared() > 1e-12 {
			hit.N = n.Normalize()
		}
	}
	if m.texCoords != nil {
		hit.UVW = m.texCoords[f[0]].Multiply(w).Add(m.texCoords[f[1]].Multiply(u)).Add(m.texCoords[f[2]].Multiply(v))
	} else {
		hit.UVW = core.NewVec3(u, v, 0)
	}
	hit.DUVW = [2]core.Vec3{}
	hit.MtlID = 0
	if m.faceMaterials != nil {
		hit.MtlID = m.faceMaterials[face]
	}
	return true
}
