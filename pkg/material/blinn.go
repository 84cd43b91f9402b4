package material

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/lights"
)

// Blinn is a Blinn-Phong surface with optional mirror reflection, refraction
// and colored absorption inside the medium
type Blinn struct {
	Diffuse    TexturedColor
	Specular   TexturedColor
	Reflection TexturedColor
	Refraction TexturedColor
	Absorption core.Vec3 // Per unit distance travelled inside the medium
	Emission   core.Vec3
	Glossiness float64
	IOR        float64
}

// NewBlinn creates a diffuse material with the default specular highlight
func NewBlinn(diffuse core.Vec3) *Blinn {
	return &Blinn{
		Diffuse:    NewColor(diffuse),
		Specular:   NewColor(core.NewVec3(0.7, 0.7, 0.7)),
		Glossiness: 20,
		IOR:        1,
	}
}

// Shade implements the Material interface
func (m *Blinn) Shade(ctx ShadeContext, ray core.Ray, hit *geometry.HitInfo, budget core.Budget) core.Vec3 {
	// Shading happens on the side the ray arrived from
	n := hit.N
	if !hit.Front {
		n = n.Negate()
	}
	view := ray.Direction.Normalize().Negate()

	diffuse := m.Diffuse.Sample(hit.UVW, hit.DUVW)
	specular := m.Specular.Sample(hit.UVW, hit.DUVW)

	indirect := ctx.Indirect(ray, hit, budget)

	var result core.Vec3
	for _, light := range ctx.Lights() {
		// The indirect estimate replaces the flat ambient term
		if indirect != nil && light.IsAmbient() {
			continue
		}
		result = result.Add(m.illuminate(ctx, light, hit.P, n, view, diffuse, specular))
	}
	if indirect != nil {
		result = result.Add(m.illuminate(ctx, indirect, hit.P, n, view, diffuse, specular))
	}

	if budget.CanReflect() {
		result = result.Add(m.shadeSpecular(ctx, ray, hit, n, budget))
	}

	result = result.Add(m.Emission)
	if !result.IsFinite() {
		return core.Vec3{}
	}
	return result
}

// illuminate returns the light reflected towards view from one light
func (m *Blinn) illuminate(ctx ShadeContext, light lights.Light, p, n, view, diffuse, specular core.Vec3) core.Vec3 {
	if light.IsAmbient() {
		return diffuse.MultiplyVec(light.Illuminate(p, n, ctx.Occluder(), ctx.Sampler()))
	}

	toLight := light.Direction(p).Negate()
	nDotL := n.Dot(toLight)
	if nDotL <= 0 {
		return core.Vec3{}
	}

	intensity := light.Illuminate(p, n, ctx.Occluder(), ctx.Sampler())
	if intensity.IsZero() {
		return core.Vec3{}
	}

	half := toLight.Add(view).Normalize()
	nDotH := math.Max(0, n.Dot(half))
	brdf := diffuse.Add(specular.Multiply(math.Pow(nDotH, m.Glossiness)))
	return intensity.MultiplyVec(brdf).Multiply(nDotL)
}

// shadeSpecular traces reflection and refraction rays
func (m *Blinn) shadeSpecular(ctx ShadeContext, ray core.Ray, hit *geometry.HitInfo, n core.Vec3, budget core.Budget) core.Vec3 {
	reflection := m.Reflection.Sample(hit.UVW, hit.DUVW)
	transmission := m.Refraction.Sample(hit.UVW, hit.DUVW)
	if reflection.IsZero() && transmission.IsZero() {
		return core.Vec3{}
	}

	d := ray.Direction.Normalize()
	var result core.Vec3

	if !transmission.IsZero() {
		n1, n2 := m.indices(hit.Front)
		split := refract(d, n, n1, n2)

		// Energy that cannot be transmitted is reflected
		reflection = reflection.Add(transmission.Multiply(split.reflectance))
		if !split.total {
			radiance, dist := ctx.TraceRadiance(core.NewRay(hit.P, split.direction), geometry.HitFrontAndBack, budget.Reflect())
			if hit.Front {
				radiance = radiance.MultiplyVec(m.attenuation(dist))
			}
			result = result.Add(transmission.Multiply(1 - split.reflectance).MultiplyVec(radiance))
		}
	}

	if !reflection.IsZero() {
		radiance, dist := ctx.TraceRadiance(core.NewRay(hit.P, reflectVector(d, n)), geometry.HitFrontAndBack, budget.Reflect())
		if !hit.Front {
			radiance = radiance.MultiplyVec(m.attenuation(dist))
		}
		result = result.Add(reflection.MultiplyVec(radiance))
	}

	return result
}

// indices returns the refractive indices on the incoming and outgoing sides
func (m *Blinn) indices(front bool) (float64, float64) {
	ior := m.IOR
	if ior <= 0 {
		ior = 1
	}
	if front {
		return 1, ior
	}
	return ior, 1
}

// attenuation returns the Beer-Lambert transmittance over dist inside the medium
func (m *Blinn) attenuation(dist float64) core.Vec3 {
	if m.Absorption.IsZero() {
		return core.NewVec3(1, 1, 1)
	}
	return m.Absorption.Multiply(-dist).Exp()
}

// IsPhotonSurface reports whether photons are stored on this surface
func (m *Blinn) IsPhotonSurface(mtlID int) bool {
	return !m.Diffuse.IsZero()
}

// RandomPhotonBounce implements Russian roulette between diffuse, mirror and
// refracted continuations, weighted by the strongest channel of each color
func (m *Blinn) RandomPhotonBounce(ray *core.Ray, power *core.Vec3, hit *geometry.HitInfo, sampler core.Sampler) bool {
	diffuse := m.Diffuse.Sample(hit.UVW, hit.DUVW)
	reflection := m.Reflection.Sample(hit.UVW, hit.DUVW)
	transmission := m.Refraction.Sample(hit.UVW, hit.DUVW)

	pd := diffuse.MaxComponent()
	pr := reflection.MaxComponent()
	pt := transmission.MaxComponent()
	if sum := pd + pr + pt; sum > 1 {
		pd /= sum
		pr /= sum
		pt /= sum
	}

	n := hit.N
	if !hit.Front {
		n = n.Negate()
	}
	d := ray.Direction.Normalize()

	// Photons leaving the medium were attenuated along the way
	if !hit.Front {
		*power = power.MultiplyVec(m.attenuation(hit.Z))
	}

	u := sampler.Get1D()
	var direction core.Vec3
	switch {
	case u < pd:
		direction = core.SampleCosineHemisphere(n, sampler.Get2D())
		*power = power.MultiplyVec(diffuse.Multiply(1 / pd))
	case u < pd+pr:
		direction = reflectVector(d, n)
		*power = power.MultiplyVec(reflection.Multiply(1 / pr))
	case u < pd+pr+pt:
		n1, n2 := m.indices(hit.Front)
		split := refract(d, n, n1, n2)
		if split.total {
			direction = reflectVector(d, n)
		} else {
			direction = split.direction
		}
		*power = power.MultiplyVec(transmission.Multiply(1 / pt))
	default:
		return false
	}

	*ray = core.NewRay(hit.P, direction)
	return true
}
