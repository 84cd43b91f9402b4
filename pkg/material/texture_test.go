package material

import (
	"math"
	"testing"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

func TestImageTexture_Sample(t *testing.T) {
	// 2x2 image, top row first
	//   white black
	//   red   green
	white := core.NewVec3(1, 1, 1)
	black := core.NewVec3(0, 0, 0)
	red := core.NewVec3(1, 0, 0)
	green := core.NewVec3(0, 1, 0)
	texture := NewImageTexture(2, 2, []core.Vec3{white, black, red, green})

	tests := []struct {
		name     string
		uvw      core.Vec3
		expected core.Vec3
	}{
		{"top-left pixel center", core.NewVec3(0.25, 0.75, 0), white},
		{"top-right pixel center", core.NewVec3(0.75, 0.75, 0), black},
		{"bottom-left pixel center", core.NewVec3(0.25, 0.25, 0), red},
		{"bottom-right pixel center", core.NewVec3(0.75, 0.25, 0), green},
		{"between bottom pixels", core.NewVec3(0.5, 0.25, 0), core.NewVec3(0.5, 0.5, 0)},
		{"tiles in u", core.NewVec3(1.25, 0.75, 0), white},
		{"tiles negative v", core.NewVec3(0.75, -0.75, 0), green},
		{"wraps across the edge", core.NewVec3(0, 0.75, 0), core.NewVec3(0.5, 0.5, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := texture.Sample(tt.uvw); !closeVec(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestChecker_Sample(t *testing.T) {
	a := core.NewVec3(1, 1, 1)
	b := core.NewVec3(0, 0, 0)
	checker := NewChecker(a, b, 4)

	tests := []struct {
		name     string
		uvw      core.Vec3
		expected core.Vec3
	}{
		{"origin square", core.NewVec3(0.1, 0.1, 0), a},
		{"next in u", core.NewVec3(0.3, 0.1, 0), b},
		{"diagonal", core.NewVec3(0.3, 0.3, 0), a},
		{"negative coordinates", core.NewVec3(-0.1, 0.1, 0), b},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.Sample(tt.uvw); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTexturedColor_Sample(t *testing.T) {
	plain := NewColor(core.NewVec3(0.2, 0.4, 0.6))
	if got := plain.Sample(core.NewVec3(0.3, 0.3, 0), [2]core.Vec3{}); got != core.NewVec3(0.2, 0.4, 0.6) {
		t.Errorf("Untextured color should be returned as is, got %v", got)
	}

	checker := NewTexturedColor(core.NewVec3(0.5, 0.5, 0.5), NewChecker(core.NewVec3(1, 1, 1), core.Vec3{}, 2))
	if got := checker.Sample(core.NewVec3(0.25, 0.25, 0), [2]core.Vec3{}); !closeVec(got, core.NewVec3(0.5, 0.5, 0.5)) {
		t.Errorf("Expected color times texture, got %v", got)
	}

	// A footprint covering many squares averages towards grey
	footprint := [2]core.Vec3{core.NewVec3(8, 0, 0), core.NewVec3(0, 8, 0)}
	got := checker.Sample(core.NewVec3(0.25, 0.25, 0), footprint)
	if math.Abs(got.X-0.25) > 0.1 {
		t.Errorf("Expected a filtered value near 0.25, got %v", got)
	}

	scaled := checker
	scaled.Scale = core.NewVec3(2, 2, 1)
	if got := scaled.Sample(core.NewVec3(0.3, 0.1, 0), [2]core.Vec3{}); !got.IsZero() {
		t.Errorf("Scaled lookup should land in the dark square, got %v", got)
	}
}

func TestEnvironmentUVW(t *testing.T) {
	tests := []struct {
		name     string
		dir      core.Vec3
		expected core.Vec3
	}{
		{"forward maps to center", core.NewVec3(0, 0, 1), core.NewVec3(0.5, 0.5, 0)},
		{"right", core.NewVec3(1, 0, 0), core.NewVec3(0.75, 0.5, 0)},
		{"up", core.NewVec3(0, 2, 0), core.NewVec3(0.5, 0.75, 0)},
		{"zero direction", core.Vec3{}, core.NewVec3(0.5, 0.5, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnvironmentUVW(tt.dir); !closeVec(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}

	env := NewTexturedColor(core.NewVec3(1, 1, 1), NewImageTexture(1, 1, []core.Vec3{core.NewVec3(0.1, 0.2, 0.3)}))
	if got := env.SampleEnvironment(core.NewVec3(0, 1, 0)); !closeVec(got, core.NewVec3(0.1, 0.2, 0.3)) {
		t.Errorf("Expected texture color, got %v", got)
	}
}
