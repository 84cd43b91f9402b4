package integrator

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/irradiance"
	"github.com/df07/go-photon-raytracer/pkg/lights"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

// Photon estimates arriving closer to grazing than this are spread evenly
// instead of being divided by a tiny cosine
const minPhotonCosine = 0.25

// Indirect implements material.ShadeContext. It returns the indirect light at
// hit as a synthetic light, or nil when the mode has none (direct lighting) or
// the gather budget is spent; the material then falls back to ambient lights.
func (t *Tracer) Indirect(ray core.Ray, hit *geometry.HitInfo, budget core.Budget) lights.Light {
	if t.cache != nil && budget.IsPrimary() {
		p := t.cache.Sample(t.screenX, t.screenY)
		return lights.NewSynthetic(p.Color, core.Vec3{})
	}

	n := facingNormal(hit)
	switch t.config.Integrator {
	case scene.IntegratorPathTrace:
		if !budget.CanGather() {
			return nil
		}
		return lights.NewSynthetic(t.gather(hit.P, n, t.config.IndirectSamples, budget), core.Vec3{})
	case scene.IntegratorPhoton:
		return t.photonLight(hit.P, n)
	}
	return nil
}

// gather averages the radiance arriving at p over cosine-weighted directions
// around n. The mean is the irradiance divided by pi, which a diffuse surface
// reflects as diffuse * mean, the same way it reflects an ambient light.
func (t *Tracer) gather(p, n core.Vec3, samples int, budget core.Budget) core.Vec3 {
	if samples < 1 {
		return core.Vec3{}
	}
	next := budget.Gather()

	var sum core.Vec3
	for i := 0; i < samples; i++ {
		dir := core.SampleCosineHemisphere(n, t.sampler.Get2D())
		radiance, _ := t.TraceRadiance(core.NewRay(p, dir), geometry.HitFrontAndBack, next)
		sum = sum.Add(radiance)
	}
	return sum.Multiply(1.0 / float64(samples))
}

// photonLight turns the photon map estimate at p into a light shining along
// the dominant photon direction, scaled so the cosine term in shading gives
// back the estimated irradiance
func (t *Tracer) photonLight(p, n core.Vec3) lights.Light {
	if t.photons == nil {
		return nil
	}
	irr, dir := t.photons.Estimate(p, n)
	radiance := irr.Multiply(1 / math.Pi)

	cos := -dir.Dot(n)
	if dir.IsZero() || cos < minPhotonCosine {
		return lights.NewSynthetic(radiance, core.Vec3{})
	}
	return lights.NewSynthetic(radiance.Multiply(1/cos), dir)
}

// CachePoint evaluates the irradiance cache at image position (x, y): the
// indirect light arriving at the first hit through that position, with the
// hit depth and normal used to decide which neighbors may be interpolated.
// It is the irradiance.ComputeFunc of a cache pass.
func (t *Tracer) CachePoint(x, y float64) irradiance.Point {
	ray := t.camera.GetRay(x, y, core.Vec2{})
	hit := geometry.NewHitInfo()
	if !t.scene.Trace(ray, &hit, geometry.HitFront) {
		return irradiance.Point{Z: core.Big}
	}

	n := facingNormal(&hit)
	point := irradiance.Point{Z: hit.Z, Normal: n}

	budget := t.budget()
	switch t.config.Integrator {
	case scene.IntegratorPathTrace:
		if budget.CanGather() {
			point.Color = t.gather(hit.P, n, t.config.Cache.Samples, budget)
		} else {
			point.Color = lights.AmbientIntensity(t.scene.Lights)
		}
	case scene.IntegratorPhoton:
		if t.photons != nil {
			irr, _ := t.photons.Estimate(hit.P, n)
			point.Color = irr.Multiply(1 / math.Pi)
		}
	default:
		point.Color = lights.AmbientIntensity(t.scene.Lights)
	}
	return point
}
