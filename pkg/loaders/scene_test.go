package loaders

import (
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/lights"
	"github.com/df07/go-photon-raytracer/pkg/log"
	"github.com/df07/go-photon-raytracer/pkg/material"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

func init() {
	log.Discard()
}

const testSceneJSON = `{
	"camera": {"position": [0, 1, 8], "direction": [0, 0, -1], "width": 64, "height": 48},
	"render": {"maxSamples": 16, "integrator": "pathtrace", "cache": {"enabled": true, "minSubdiv": -3}},
	"background": [0.1, 0.2, 0.3],
	"environment": {"color": [1, 1, 1], "texture": "sky"},
	"textures": {
		"checks": {"type": "checker", "color1": [1, 1, 1], "color2": [0, 0, 0], "checks": 8},
		"sky": {"type": "image", "file": "sky.png"}
	},
	"materials": {
		"floor": {"diffuse": {"color": [0.8, 0.8, 0.8], "texture": "checks", "scale": [4, 4, 1]}},
		"glass": {"diffuse": [0, 0, 0], "refraction": [1, 1, 1], "ior": 1.5, "absorption": [0.1, 0.2, 0.3]},
		"both": {"type": "multi", "materials": ["floor", "glass"]}
	},
	"lights": [
		{"type": "ambient", "intensity": [0.1, 0.1, 0.1]},
		{"type": "point", "intensity": [1, 1, 1], "position": [0, 5, 0], "size": 0.2},
		{"type": "directional", "intensity": [0.5, 0.5, 0.5], "direction": [0, -1, 0]}
	],
	"nodes": [
		{"name": "ground", "object": "plane", "material": "floor", "rotation": [{"axis": [1, 0, 0], "degrees": -90}], "scale": [10, 1, 10]},
		{"name": "group", "position": [0, 1, 0], "children": [
			{"name": "ball", "object": "sphere", "material": "glass"},
			{"name": "quad", "object": "mesh", "mesh": "quad.glb", "material": "both", "position": [3, 0, 0]},
			{"name": "ball2", "object": "sphere", "material": "glass", "position": [-3, 0, 0], "scale": [0.5, 0.5, 0.5]}
		]}
	]
}`

// writeSceneFiles writes the scene and the files it references to a temp dir
func writeSceneFiles(t *testing.T, doc string) string {
	t.Helper()
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "sky.png"), png.Encode)
	if err := gltf.SaveBinary(quadDocument(), filepath.Join(dir, "quad.glb")); err != nil {
		t.Fatalf("Failed to write mesh: %v", err)
	}
	filename := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(filename, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write scene: %v", err)
	}
	return filename
}

func TestLoadScene(t *testing.T) {
	s, err := LoadScene(writeSceneFiles(t, testSceneJSON))
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Loaded scene does not validate: %v", err)
	}

	// Spheres share one object
	if len(s.Objects) != 3 {
		t.Errorf("Expected sphere, plane and mesh objects, got %d", len(s.Objects))
	}
	if len(s.Nodes) != 6 {
		t.Errorf("Expected root plus 5 nodes, got %d", len(s.Nodes))
	}
	if len(s.Materials) != 3 {
		t.Fatalf("Expected 3 materials, got %d", len(s.Materials))
	}
	if _, ok := s.Materials[2].(*material.Multi); !ok {
		t.Errorf("Expected multi-material registered last, got %T", s.Materials[2])
	}
	if len(s.Lights) != 3 {
		t.Fatalf("Expected 3 lights, got %d", len(s.Lights))
	}
	if p, ok := s.Lights[1].(*lights.Point); !ok || p.Size != 0.2 {
		t.Errorf("Expected point light with size 0.2, got %#v", s.Lights[1])
	}

	cam := s.CameraConfig
	if cam.Width != 64 || cam.Height != 48 || cam.Position != core.NewVec3(0, 1, 8) {
		t.Errorf("Unexpected camera %+v", cam)
	}
	// Fields missing from the file keep their defaults
	if cam.FOV != geometry.DefaultCameraConfig().FOV || cam.Up != core.NewVec3(0, 1, 0) {
		t.Errorf("Expected default fov and up, got %+v", cam)
	}

	cfg := s.SamplingConfig
	defaults := scene.DefaultSamplingConfig()
	if cfg.MaxSamples != 16 || cfg.MinSamples != defaults.MinSamples {
		t.Errorf("Expected samples %d..16, got %d..%d", defaults.MinSamples, cfg.MinSamples, cfg.MaxSamples)
	}
	if cfg.Integrator != scene.IntegratorPathTrace {
		t.Errorf("Expected pathtrace, got %q", cfg.Integrator)
	}
	if !cfg.Cache.Enabled || cfg.Cache.MinSubdiv != -3 || cfg.Cache.Samples != defaults.Cache.Samples {
		t.Errorf("Unexpected cache config %+v", cfg.Cache)
	}

	if s.Background.Color != core.NewVec3(0.1, 0.2, 0.3) || s.Background.Texture != nil {
		t.Errorf("Expected plain background color, got %+v", s.Background)
	}
	if _, ok := s.Environment.Texture.(*material.ImageTexture); !ok {
		t.Errorf("Expected image environment texture, got %T", s.Environment.Texture)
	}

	// The ball sits one unit up inside the group
	hit := geometry.NewHitInfo()
	ray := core.NewRay(core.NewVec3(0, 1, 8), core.NewVec3(0, 0, -1))
	if !s.Trace(ray, &hit, geometry.HitFront) {
		t.Fatalf("Expected camera ray to hit the ball")
	}
	if math.Abs(hit.Z-7) > 1e-6 {
		t.Errorf("Expected ball at distance 7, got %v", hit.Z)
	}
}

func TestParseScene_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected error
	}{
		{"unknown object", `{"nodes": [{"name": "x", "object": "teapot"}]}`, ErrUnknownObject},
		{"unknown node material", `{"nodes": [{"name": "x", "object": "sphere", "material": "gold"}]}`, ErrUnknownMaterial},
		{"unknown material type", `{"materials": {"m": {"type": "velvet"}}}`, ErrUnknownMaterial},
		{"unknown sub-material", `{"materials": {"m": {"type": "multi", "materials": ["nope"]}}}`, ErrUnknownMaterial},
		{"unknown texture", `{"materials": {"m": {"diffuse": {"color": [1, 1, 1], "texture": "wood"}}}}`, ErrUnknownTexture},
		{"unknown texture type", `{"textures": {"t": {"type": "noise"}}}`, ErrUnknownTexture},
		{"unknown light", `{"lights": [{"type": "spot"}]}`, ErrUnknownLight},
		{"unknown integrator", `{"render": {"integrator": "bidir"}}`, scene.ErrBadConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScene([]byte(tt.doc), t.TempDir())
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestParseScene_Malformed(t *testing.T) {
	if _, err := ParseScene([]byte(`{"nodes": [`), "."); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestLoadScene_MissingFile(t *testing.T) {
	if _, err := LoadScene(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing scene file")
	}
}
