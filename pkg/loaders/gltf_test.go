package loaders

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
)

// quadDocument returns a glTF document with a unit quad at z=0 facing +Z,
// split into two primitives of one triangle each
func quadDocument() *gltf.Document {
	doc := gltf.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}})
	normals := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uvs := modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}})
	first := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	second := modeler.WriteIndices(doc, []uint16{0, 2, 3})

	attributes := map[string]int{gltf.POSITION: positions, gltf.NORMAL: normals, gltf.TEXCOORD_0: uvs}
	doc.Meshes = []*gltf.Mesh{{
		Name: "quad",
		Primitives: []*gltf.Primitive{
			{Indices: gltf.Index(first), Attributes: attributes},
			{Indices: gltf.Index(second), Attributes: attributes},
		},
	}}
	return doc
}

func TestMeshFromDocument(t *testing.T) {
	mesh, err := meshFromDocument(quadDocument())
	if err != nil {
		t.Fatalf("meshFromDocument failed: %v", err)
	}
	// Each primitive brings its own copy of the vertices
	if mesh.VertexCount() != 8 || mesh.FaceCount() != 2 {
		t.Fatalf("Expected 8 vertices and 2 faces, got %d and %d", mesh.VertexCount(), mesh.FaceCount())
	}

	tests := []struct {
		name      string
		x, y      float64
		mtlID     int
		expectedU float64
		expectedV float64
	}{
		{"first primitive", 0.5, -0.5, 0, 0.75, 0.25},
		{"second primitive", -0.5, 0.5, 1, 0.25, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := geometry.NewHitInfo()
			ray := core.NewRay(core.NewVec3(tt.x, tt.y, 3), core.NewVec3(0, 0, -1))
			if !mesh.IntersectRay(ray, &hit, geometry.HitFront) {
				t.Fatalf("Expected hit")
			}
			if hit.MtlID != tt.mtlID {
				t.Errorf("Expected sub-material %d, got %d", tt.mtlID, hit.MtlID)
			}
			if math.Abs(hit.N.Z-1) > 1e-6 {
				t.Errorf("Expected normal +Z, got %v", hit.N)
			}
			// Texture v is flipped so the image bottom sits at v=0
			if math.Abs(hit.UVW.X-tt.expectedU) > 1e-6 || math.Abs(hit.UVW.Y-tt.expectedV) > 1e-6 {
				t.Errorf("Expected uv (%v, %v), got %v", tt.expectedU, tt.expectedV, hit.UVW)
			}
		})
	}
}

func TestLoadGLTFMesh_Binary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.glb")
	if err := gltf.SaveBinary(quadDocument(), path); err != nil {
		t.Fatalf("Failed to write GLB: %v", err)
	}

	mesh, err := LoadGLTFMesh(path)
	if err != nil {
		t.Fatalf("LoadGLTFMesh failed: %v", err)
	}
	box := mesh.BoundBox()
	if math.Abs(box.Min.X+1) > 1e-6 || math.Abs(box.Max.Y-1) > 1e-6 {
		t.Errorf("Expected bounds [-1,1]², got %v", box)
	}
}

func TestMeshFromDocument_NoTriangles(t *testing.T) {
	doc := gltf.NewDocument()
	_, err := meshFromDocument(doc)
	if !errors.Is(err, ErrNoGeometry) {
		t.Errorf("Expected ErrNoGeometry, got %v", err)
	}
}

func TestLoadGLTFMesh_Missing(t *testing.T) {
	if _, err := LoadGLTFMesh("missing.glb"); err == nil {
		t.Error("Expected error for missing file")
	}
}
