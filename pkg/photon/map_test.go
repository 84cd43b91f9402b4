package photon

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/kdtree"

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

// enclosedLight builds a point light at the center of a large diffuse sphere
func enclosedLight(t *testing.T, albedo float64) (*scene.Scene, *lights.Point) {
	t.Helper()
	s := scene.NewScene()
	mtl := s.AddMaterial(&material.Blinn{Diffuse: material.NewColor(core.NewVec3(albedo, albedo, albedo)), IOR: 1})
	sphere := s.AddObject(geometry.Sphere{})
	s.AddNode(s.Root(), "room", scene.Identity().Scale(core.NewVec3(5, 5, 5)), sphere, mtl)
	light := lights.NewPoint(core.NewVec3(1, 0.5, 0.25), core.Vec3{}, 0)
	s.AddLight(light)
	if err := s.Preprocess(); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	return s, light
}

func relativeError(got, expected core.Vec3) float64 {
	return got.Subtract(expected).Length() / expected.Length()
}

func TestBuild_DirectPhotonsConserveEnergy(t *testing.T) {
	s, light := enclosedLight(t, 0.5)
	config := scene.PhotonConfig{MaxPhotons: 100000, MaxEmitted: 5000, MaxBounces: 0, NearestK: 10, Radius: 1, StoreDirect: true}
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	m, err := Build(context.Background(), s, config, sampler)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.Len() != 5000 {
		t.Errorf("Every photon should land on the enclosure, stored %d", m.Len())
	}
	if e := relativeError(m.TotalPower(), light.PhotonIntensity()); e > 1e-9 {
		t.Errorf("Stored power %v should equal emitted power %v", m.TotalPower(), light.PhotonIntensity())
	}
}

func TestBuild_IndirectPhotonsConserveEnergy(t *testing.T) {
	// With albedo 1/2 each photon is stored once on average after the first bounce
	s, light := enclosedLight(t, 0.5)
	config := scene.PhotonConfig{MaxPhotons: 1000000, MaxEmitted: 20000, MaxBounces: 60, NearestK: 10, Radius: 1}
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(2)))

	m, err := Build(context.Background(), s, config, sampler)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if e := relativeError(m.TotalPower(), light.PhotonIntensity()); e > 0.05 {
		t.Errorf("Stored power %v differs from %v by %.1f%%", m.TotalPower(), light.PhotonIntensity(), 100*e)
	}
	for _, p := range m.photons {
		if p.Position.Length() < 4.99 || p.Position.Length() > 5.01 {
			t.Fatalf("Photon stored off the enclosure at %v", p.Position)
		}
	}
}

func TestBuild_StorageCap(t *testing.T) {
	s, _ := enclosedLight(t, 0.9)
	config := scene.PhotonConfig{MaxPhotons: 100, MaxEmitted: 100000, MaxBounces: 10, NearestK: 10, Radius: 1}
	m, err := Build(context.Background(), s, config, core.NewRandomSampler(rand.New(rand.NewSource(3))))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	stats := m.Stats()
	if stats.Stored != 100 || !stats.Truncated {
		t.Errorf("Expected truncation at 100 photons, got %+v", stats)
	}
	if stats.Emitted >= 100000 {
		t.Errorf("Emission should stop at the cap, emitted %d", stats.Emitted)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	s, _ := enclosedLight(t, 0.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	config := scene.PhotonConfig{MaxPhotons: 1000, MaxEmitted: 1000, MaxBounces: 1, NearestK: 10, Radius: 1}
	if _, err := Build(ctx, s, config, core.NewRandomSampler(rand.New(rand.NewSource(4)))); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestBuild_NoSources(t *testing.T) {
	s, _ := enclosedLight(t, 0.5)
	s.Lights = []lights.Light{lights.NewAmbient(core.NewVec3(1, 1, 1))}
	m, err := Build(context.Background(), s, scene.PhotonConfig{MaxPhotons: 10, MaxEmitted: 10, NearestK: 1, Radius: 1}, core.NewRandomSampler(rand.New(rand.NewSource(5))))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Expected empty map, got %d photons", m.Len())
	}
	if e, d := m.Estimate(core.Vec3{}, core.NewVec3(0, 0, 1)); !e.IsZero() || !d.IsZero() {
		t.Errorf("Empty map should estimate nothing, got %v %v", e, d)
	}
}

// gridMap stores unit-power photons on a grid in the z=0 plane
func gridMap(dir core.Vec3, k int, radius float64) *Map {
	var ph photons
	for i := -10; i <= 10; i++ {
		for j := -10; j <= 10; j++ {
			ph = append(ph, Photon{
				Position: core.NewVec3(float64(i)*0.1, float64(j)*0.1, 0),
				Dir:      dir,
				Power:    core.NewVec3(1, 1, 1),
			})
		}
	}
	m := &Map{photons: ph, config: scene.PhotonConfig{NearestK: k, Radius: radius}}
	m.tree = kdtree.New(m.photons, false)
	return m
}

func TestEstimate(t *testing.T) {
	down := core.NewVec3(0, 0, -1)
	up := core.NewVec3(0, 0, 1)

	// Count grid points within the search radius of the origin
	within := 0
	for i := -10; i <= 10; i++ {
		for j := -10; j <= 10; j++ {
			if float64(i*i+j*j)*0.01 <= 0.3025 {
				within++
			}
		}
	}

	tests := []struct {
		name       string
		m          *Map
		expected   float64
		expectDown bool
	}{
		{"radius bounded", gridMap(down, 1000, 0.55), float64(within) / (math.Pi * 0.3025), true},
		{"k bounded", gridMap(down, 5, 0.5), 5 / (math.Pi * 0.01), true},
		{"photons from behind", gridMap(up, 1000, 0.5), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, dir := tt.m.Estimate(core.Vec3{}, up)
			if math.Abs(e.X-tt.expected) > 1e-6*math.Max(1, tt.expected) {
				t.Errorf("Expected irradiance %v, got %v", tt.expected, e.X)
			}
			if tt.expectDown && math.Abs(dir.Dot(down)-1) > 1e-9 {
				t.Errorf("Expected direction %v, got %v", down, dir)
			}
			if !tt.expectDown && !dir.IsZero() {
				t.Errorf("Expected no direction, got %v", dir)
			}
		})
	}
}
