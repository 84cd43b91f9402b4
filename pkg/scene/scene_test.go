package scene

import (
	"errors"
	"testing"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/material"
)

func TestScene_Validate(t *testing.T) {
	valid := func() *Scene {
		s := NewScene()
		mtl := s.AddMaterial(material.NewBlinn(core.NewVec3(1, 1, 1)))
		sphere := s.AddObject(geometry.Sphere{})
		s.AddNode(s.Root(), "sphere", Identity(), sphere, mtl)
		return s
	}

	tests := []struct {
		name     string
		mutate   func(s *Scene)
		expected error
	}{
		{"valid", func(s *Scene) {}, nil},
		{"zero width", func(s *Scene) { s.CameraConfig.Width = 0 }, ErrNoImage},
		{"zero height", func(s *Scene) { s.CameraConfig.Height = -1 }, ErrNoImage},
		{"zero direction", func(s *Scene) { s.CameraConfig.Direction = core.Vec3{} }, ErrNoCamera},
		{"up parallel to direction", func(s *Scene) { s.CameraConfig.Up = s.CameraConfig.Direction }, ErrNoCamera},
		{"bad fov", func(s *Scene) { s.CameraConfig.FOV = 0 }, ErrNoCamera},
		{"no objects", func(s *Scene) { s.Nodes[1].Object = None }, ErrEmptyScene},
		{"object out of range", func(s *Scene) { s.Nodes[1].Object = 5 }, ErrBadNodeRef},
		{"child out of range", func(s *Scene) { s.Nodes[1].Children = []int{9} }, ErrBadNodeRef},
		{"root as child", func(s *Scene) { s.Nodes[1].Children = []int{0} }, ErrBadNodeRef},
		{"two parents", func(s *Scene) {
			s.AddNode(1, "shared", Identity(), None, None)
			s.Nodes[0].Children = append(s.Nodes[0].Children, 2)
		}, ErrBadNodeRef},
		{"cycle", func(s *Scene) {
			a := s.AddNode(None, "a", Identity(), None, None)
			b := s.AddNode(a, "b", Identity(), None, None)
			s.Nodes[b].Children = []int{a}
		}, ErrBadNodeRef},
		{"missing material", func(s *Scene) { s.Nodes[1].Material = None }, ErrBadMaterialRef},
		{"material out of range", func(s *Scene) { s.Nodes[1].Material = 3 }, ErrBadMaterialRef},
		{"singular transform", func(s *Scene) { s.Nodes[1].Transform = Identity().Scale(core.NewVec3(1, 0, 1)) }, ErrSingularTransform},
		{"bad sampling", func(s *Scene) { s.SamplingConfig.MinSamples = 0 }, ErrBadConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.expected == nil {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestSamplingConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SamplingConfig)
		ok     bool
	}{
		{"defaults", func(c *SamplingConfig) {}, true},
		{"max below min", func(c *SamplingConfig) { c.MaxSamples = c.MinSamples - 1 }, false},
		{"zero gamma", func(c *SamplingConfig) { c.Gamma = 0 }, false},
		{"unknown integrator", func(c *SamplingConfig) { c.Integrator = "bidirectional" }, false},
		{"photon without k", func(c *SamplingConfig) { c.Integrator = IntegratorPhoton; c.Photon.NearestK = 0 }, false},
		{"photon defaults", func(c *SamplingConfig) { c.Integrator = IntegratorPhoton }, true},
		{"cache inverted levels", func(c *SamplingConfig) { c.Cache.Enabled = true; c.Cache.MinSubdiv = 1 }, false},
		{"cache defaults", func(c *SamplingConfig) { c.Cache.Enabled = true }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultSamplingConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("Expected valid config, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrBadConfig) {
				t.Errorf("Expected ErrBadConfig, got %v", err)
			}
		})
	}
}

func TestParseIntegrator(t *testing.T) {
	tests := []struct {
		input    string
		expected Integrator
		ok       bool
	}{
		{"direct", IntegratorDirect, true},
		{" PathTrace ", IntegratorPathTrace, true},
		{"photon", IntegratorPhoton, true},
		{"bdpt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIntegrator(tt.input)
			if (err == nil) != tt.ok || got != tt.expected {
				t.Errorf("ParseIntegrator(%q) = %q, %v", tt.input, got, err)
			}
		})
	}
}

func TestDefaultScene(t *testing.T) {
	s := NewDefaultScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Default scene should be valid: %v", err)
	}
	if !s.IsPrepared() {
		t.Error("Scene should be marked prepared")
	}
	if got := s.GetPrimitiveCount(); got != 4 {
		t.Errorf("Expected 4 primitives, got %d", got)
	}
	if len(s.Lights) != 3 {
		t.Errorf("Expected 3 lights, got %d", len(s.Lights))
	}

	bounds := s.Bounds()
	if bounds.Min.X > -10 || bounds.Max.X < 10 || bounds.Max.Y < 2 {
		t.Errorf("Scene bounds %v should cover the ground and spheres", bounds)
	}

	// A camera ray through the image center lands on something
	camera := s.Camera()
	ray := camera.GetRay(float64(s.CameraConfig.Width)/2, float64(s.CameraConfig.Height)/2, core.Vec2{})
	hit := geometry.NewHitInfo()
	if !s.Trace(ray, &hit, geometry.HitFront) {
		t.Error("Expected the center ray to hit the scene")
	}
	if s.MaterialOf(hit.Node) == nil {
		t.Error("Hit node should have a material")
	}
}

func TestScene_AddNodeInvalidatesPreprocess(t *testing.T) {
	s := NewDefaultScene()
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	s.AddNode(s.Root(), "extra", Identity(), None, None)
	if s.IsPrepared() {
		t.Error("Adding a node should require preprocessing again")
	}
}
