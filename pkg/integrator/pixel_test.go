package integrator

import (
	"math"
	"testing"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/lights"
	"github.com/df07/go-photon-raytracer/pkg/material"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

func TestPixelStats_Variance(t *testing.T) {
	tests := []struct {
		name     string
		lums     []float64
		mean     float64
		variance float64
	}{
		{"empty", nil, 0, 0},
		{"single sample", []float64{0.7}, 0.7, 0},
		{"constant", []float64{0.3, 0.3, 0.3, 0.3}, 0.3, 0},
		{"two values", []float64{0, 1}, 0.5, 0.5},
		{"spread", []float64{1, 2, 3, 4, 5}, 3, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ps PixelStats
			for _, l := range tt.lums {
				// Grey samples have luminance equal to their value
				ps.AddSample(core.NewVec3(l, l, l))
			}
			if math.Abs(ps.GetColor().X-tt.mean) > 1e-9 {
				t.Errorf("Expected mean %v, got %v", tt.mean, ps.GetColor().X)
			}
			if math.Abs(ps.Variance()-tt.variance) > 1e-9 {
				t.Errorf("Expected variance %v, got %v", tt.variance, ps.Variance())
			}
		})
	}
}

func TestPixelStats_Converged(t *testing.T) {
	tests := []struct {
		name      string
		lums      []float64
		min       int
		threshold float64
		want      bool
	}{
		{"below minimum", []float64{0.5, 0.5}, 4, 0.01, false},
		{"constant at minimum", []float64{0.5, 0.5, 0.5, 0.5}, 4, 0, true},
		{"noisy", []float64{0, 1, 0, 1}, 4, 0.01, false},
		{"noisy with loose threshold", []float64{0, 1, 0, 1}, 4, 0.5, true},
		{"single sample", []float64{0.5}, 1, 0, false},
		{"two constant samples at minimum one", []float64{0.5, 0.5}, 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ps PixelStats
			for _, l := range tt.lums {
				ps.AddSample(core.NewVec3(l, l, l))
			}
			if got := ps.Converged(tt.min, tt.threshold); got != tt.want {
				t.Errorf("Converged = %v, expected %v (stderr %v)", got, tt.want, ps.StandardError())
			}
		})
	}
}

func TestJitter_InsidePixel(t *testing.T) {
	for i := 0; i < 100; i++ {
		for _, rot := range []float64{0, 0.3, 0.999} {
			if v := jitter(i, 2, rot); v < 0 || v >= 1 {
				t.Fatalf("jitter(%d, 2, %v) = %v outside [0,1)", i, rot, v)
			}
		}
	}
	// Without rotation the offsets are the Halton sequence itself
	if v := jitter(0, 2, 0); v != 0.5 {
		t.Errorf("Expected first offset 0.5, got %v", v)
	}
}

// sphereAheadScene puts a unit sphere at the origin in front of the default camera at z = 5
func sphereAheadScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.NewScene()
	s.CameraConfig.Position = core.NewVec3(0, 0, 5)
	s.Background = material.NewColor(core.NewVec3(0.2, 0.3, 0.4))
	mtl := s.AddMaterial(material.NewBlinn(core.NewVec3(1, 1, 1)))
	sphere := s.AddObject(geometry.Sphere{})
	s.AddNode(s.Root(), "sphere", scene.Identity(), sphere, mtl)
	s.AddLight(lights.NewPoint(core.NewVec3(1, 1, 1), core.NewVec3(5, 5, 5), 0))
	s.SamplingConfig.MinSamples = 4
	s.SamplingConfig.MaxSamples = 32
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	return s
}

func TestRenderPixel_BackgroundStopsAtMinimum(t *testing.T) {
	s := sphereAheadScene(t)
	tracer := NewTracer(s, Options{Seed: 1})

	// Top-left corner looks past the sphere
	got := tracer.RenderPixel(0, 0)
	if got.Samples != s.SamplingConfig.MinSamples {
		t.Errorf("Constant background should stop at %d samples, took %d", s.SamplingConfig.MinSamples, got.Samples)
	}
	if !closeVec(got.Color, s.Background.Color, 1e-12) {
		t.Errorf("Expected background %v, got %v", s.Background.Color, got.Color)
	}
	if got.Z != core.Big {
		t.Errorf("Expected core.Big depth, got %v", got.Z)
	}
}

func TestRenderPixel_HitsSphere(t *testing.T) {
	s := sphereAheadScene(t)
	tracer := NewTracer(s, Options{Seed: 1})
	cfg := s.CameraConfig

	got := tracer.RenderPixel(cfg.Width/2, cfg.Height/2)
	if got.Samples < s.SamplingConfig.MinSamples || got.Samples > s.SamplingConfig.MaxSamples {
		t.Errorf("Sample count %d outside [%d,%d]", got.Samples, s.SamplingConfig.MinSamples, s.SamplingConfig.MaxSamples)
	}
	if math.Abs(got.Z-4) > 0.01 {
		t.Errorf("Expected depth near 4, got %v", got.Z)
	}
	if got.Color.IsZero() {
		t.Error("Expected a lit sphere")
	}
}

func TestRenderPixel_CapsSamples(t *testing.T) {
	s := sphereAheadScene(t)
	s.SamplingConfig.VarianceThreshold = 0
	tracer := NewTracer(s, Options{Seed: 1})
	cfg := s.CameraConfig

	// The silhouette mixes sphere and background, so variance never reaches zero
	y := cfg.Height / 2
	for x := 0; x < cfg.Width/2; x++ {
		first := tracer.RenderPixel(x, y)
		if first.Samples == s.SamplingConfig.MaxSamples {
			return
		}
	}
	t.Error("Expected an edge pixel to use the full sample budget")
}

func TestRenderPixel_MinimumOneStillAdapts(t *testing.T) {
	s := sphereAheadScene(t)
	s.SamplingConfig.MinSamples = 1
	s.SamplingConfig.VarianceThreshold = 0
	tracer := NewTracer(s, Options{Seed: 1})
	cfg := s.CameraConfig

	// A constant background pixel needs exactly the second sample to show zero variance
	if got := tracer.RenderPixel(0, 0); got.Samples != 2 {
		t.Errorf("Background pixel with minimum 1 should take 2 samples, took %d", got.Samples)
	}

	maxUsed := 0
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			maxUsed = max(maxUsed, tracer.RenderPixel(x, y).Samples)
		}
	}
	if maxUsed != s.SamplingConfig.MaxSamples {
		t.Errorf("Expected silhouette pixels to reach %d samples, max used %d", s.SamplingConfig.MaxSamples, maxUsed)
	}
}
