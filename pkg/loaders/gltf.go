package loaders

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
)

// LoadGLTFMesh loads every triangle primitive of a glTF or GLB file into one
// triangle mesh. Each primitive becomes its own sub-material index, in the
// order the primitives appear.
func LoadGLTFMesh(path string) (*geometry.TriangleMesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %s: %w", path, err)
	}
	mesh, err := meshFromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Infof("loaded mesh %s: %d vertices, %d faces", path, mesh.VertexCount(), mesh.FaceCount())
	return mesh, nil
}

// meshBuilder accumulates primitives into shared vertex arrays
type meshBuilder struct {
	vertices      []core.Vec3
	normals       []core.Vec3
	texCoords     []core.Vec3
	faces         [][3]int
	faceMaterials []int

	hasNormals, hasTexCoords bool
}

func meshFromDocument(doc *gltf.Document) (*geometry.TriangleMesh, error) {
	b := &meshBuilder{}
	primitive := 0
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := b.addPrimitive(doc, prim, primitive); err != nil {
				return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
			primitive++
		}
	}
	if len(b.faces) == 0 {
		return nil, ErrNoGeometry
	}

	// Per-vertex arrays must cover every vertex or be left out
	options := &geometry.TriangleMeshOptions{}
	if b.hasNormals {
		options.Normals = b.normals
	}
	if b.hasTexCoords {
		options.TexCoords = b.texCoords
	}
	if primitive > 1 {
		options.FaceMaterials = b.faceMaterials
	}
	return geometry.NewTriangleMesh(b.vertices, b.faces, options)
}

func (b *meshBuilder) addPrimitive(doc *gltf.Document, prim *gltf.Primitive, mtlID int) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("read texture coordinates: %w", err)
		}
	}

	base := len(b.vertices)
	if normals != nil && !b.hasNormals {
		// Earlier primitives without normals get zero normals, which fall back to the face normal
		b.normals = make([]core.Vec3, base)
		b.hasNormals = true
	}
	if uvs != nil && !b.hasTexCoords {
		b.texCoords = make([]core.Vec3, base)
		b.hasTexCoords = true
	}

	for i, p := range positions {
		b.vertices = append(b.vertices, vec3From32(p))
		if b.hasNormals {
			var n core.Vec3
			if i < len(normals) {
				n = vec3From32(normals[i])
			}
			b.normals = append(b.normals, n)
		}
		if b.hasTexCoords {
			var uv core.Vec3
			if i < len(uvs) {
				// glTF puts v=0 at the top of the image
				uv = core.NewVec3(float64(uvs[i][0]), 1-float64(uvs[i][1]), 0)
			}
			b.texCoords = append(b.texCoords, uv)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		b.faces = append(b.faces, [3]int{base + int(indices[i]), base + int(indices[i+1]), base + int(indices[i+2])})
		b.faceMaterials = append(b.faceMaterials, mtlID)
	}
	return nil
}

func vec3From32(v [3]float32) core.Vec3 {
	return core.NewVec3(float64(v[0]), float64(v[1]), float64(v[2]))
}
