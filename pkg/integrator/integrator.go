package integrator

import (
	"math/rand"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/irradiance"
	"github.com/df07/go-photon-raytracer/pkg/lights"
	"github.com/df07/go-photon-raytracer/pkg/material"
	"github.com/df07/go-photon-raytracer/pkg/photon"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

// Tracer is the per-worker integrator. It owns its sampler and scratch state,
// so each render goroutine needs its own Tracer; the scene, photon map and
// cache it reads are shared.
type Tracer struct {
	scene   *scene.Scene
	camera  *geometry.Camera
	config  scene.SamplingConfig
	photons *photon.Map       // nil unless the photon integrator is selected
	cache   *irradiance.Cache // nil unless primary hits read indirect light from the cache
	sampler core.Sampler

	// Image position of the camera sample being shaded, for cache lookups
	screenX, screenY float64
}

// Options carries the shared acceleration structures a Tracer may use
type Options struct {
	Photons *photon.Map
	Cache   *irradiance.Cache
	Seed    int64
}

// NewTracer creates a tracer for a prepared scene
func NewTracer(s *scene.Scene, opts Options) *Tracer {
	return &Tracer{
		scene:   s,
		camera:  s.Camera(),
		config:  s.SamplingConfig,
		photons: opts.Photons,
		cache:   opts.Cache,
		sampler: core.NewRandomSampler(rand.New(rand.NewSource(opts.Seed))),
	}
}

// Lights implements material.ShadeContext
func (t *Tracer) Lights() []lights.Light {
	return t.scene.Lights
}

// Occluder implements material.ShadeContext
func (t *Tracer) Occluder() lights.Occluder {
	return t.scene
}

// Sampler implements material.ShadeContext
func (t *Tracer) Sampler() core.Sampler {
	return t.sampler
}

// budget returns the allowance of a camera ray
func (t *Tracer) budget() core.Budget {
	return core.NewBudget(t.config.MaxBounces, t.config.IndirectDepth)
}

// TraceRadiance implements material.ShadeContext. Secondary rays that escape
// see the environment.
func (t *Tracer) TraceRadiance(ray core.Ray, side geometry.HitSide, budget core.Budget) (core.Vec3, float64) {
	hit := geometry.NewHitInfo()
	if !t.scene.Trace(ray, &hit, side) {
		return t.scene.Environment.SampleEnvironment(ray.Direction), core.Big
	}
	return t.shade(ray, &hit, budget), hit.Z
}

// shade dispatches a hit to the material of its node
func (t *Tracer) shade(ray core.Ray, hit *geometry.HitInfo, budget core.Budget) core.Vec3 {
	mtl := t.scene.MaterialOf(hit.Node)
	if mtl == nil {
		return core.Vec3{}
	}
	return mtl.Shade(t, ray, hit, budget)
}

// facingNormal returns the hit normal on the side the ray arrived from
func facingNormal(hit *geometry.HitInfo) core.Vec3 {
	if hit.Front {
		return hit.N
	}
	return hit.N.Negate()
}

var _ material.ShadeContext = (*Tracer)(nil)
