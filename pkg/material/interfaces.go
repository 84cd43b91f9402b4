package material

import (
	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/lights"
)

// ShadeContext is the view of the scene and the integrator a material sees
// while shading one hit. Each render worker owns its own context.
type ShadeContext interface {
	Lights() []lights.Light
	Occluder() lights.Occluder
	Sampler() core.Sampler

	// TraceRadiance traces a secondary ray and returns the radiance it carries
	// back along with the hit distance (core.Big on a miss)
	TraceRadiance(ray core.Ray, side geometry.HitSide, budget core.Budget) (core.Vec3, float64)

	// Indirect returns the indirect illumination at hit as a synthetic light, or
	// nil when none is available and ambient lights stand in for it
	Indirect(ray core.Ray, hit *geometry.HitInfo, budget core.Budget) lights.Light
}

// Material determines the light leaving a surface and how photons scatter off it
type Material interface {
	// Shade returns the radiance leaving hit towards the ray origin
	Shade(ctx ShadeContext, ray core.Ray, hit *geometry.HitInfo, budget core.Budget) core.Vec3

	// IsPhotonSurface reports whether photons landing on the sub-material are stored
	IsPhotonSurface(mtlID int) bool

	// RandomPhotonBounce picks a random continuation for a photon arriving at hit.
	// It updates ray and power in place and returns false when the photon is absorbed.
	RandomPhotonBounce(ray *core.Ray, power *core.Vec3, hit *geometry.HitInfo, sampler core.Sampler) bool
}
