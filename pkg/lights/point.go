package lights

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// Shadow samples used for lights with a size: a first batch, then more only
// when the first batch is partially occluded.
const (
	areaShadowMinSamples = 4
	areaShadowMaxSamples = 16
)

// Point is a point light that becomes a spherical area light when Size > 0
type Point struct {
	Intensity core.Vec3
	Position  core.Vec3
	Size      float64 // Radius of the emitting sphere
}

// NewPoint creates a point light
func NewPoint(intensity, position core.Vec3, size float64) *Point {
	return &Point{Intensity: intensity, Position: position, Size: size}
}

// Visibility returns the fraction of the light visible from p. Point lights
// return 0 or 1; lights with a size average shadow rays over their disk as seen from p.
func (l *Point) Visibility(p core.Vec3, occluder Occluder, sampler core.Sampler) float64 {
	if occluder == nil {
		return 1
	}
	if l.Size <= 0 || sampler == nil {
		return l.shadowSample(p, l.Position, occluder)
	}

	// Sample the disk facing p, which is the silhouette of the emitting sphere
	toLight := l.Position.Subtract(p).Normalize()
	u, v := core.OrthonormalBasis(toLight)

	visible := 0.0
	samples := 0
	for samples < areaShadowMaxSamples {
		disk := core.SamplePointInUnitDisk(sampler.Get2D())
		target := l.Position.Add(u.Multiply(disk.X * l.Size)).Add(v.Multiply(disk.Y * l.Size))
		visible += l.shadowSample(p, target, occluder)
		samples++

		// Stop early when the first batch fully agrees
		if samples == areaShadowMinSamples && (visible == 0 || visible == float64(samples)) {
			break
		}
	}
	return visible / float64(samples)
}

// shadowSample traces one shadow ray from p to target
func (l *Point) shadowSample(p, target core.Vec3, occluder Occluder) float64 {
	toLight := target.Subtract(p)
	dist := toLight.Length()
	if dist == 0 {
		return 1
	}
	if occluder.ShadowTrace(core.NewRay(p, toLight.Multiply(1/dist)), dist) {
		return 0
	}
	return 1
}

// Illuminate returns the intensity scaled by visibility
func (l *Point) Illuminate(p, n core.Vec3, occluder Occluder, sampler core.Sampler) core.Vec3 {
	return l.Intensity.Multiply(l.Visibility(p, occluder, sampler))
}

// Direction returns the unit direction from the light to p
func (l *Point) Direction(p core.Vec3) core.Vec3 {
	return p.Subtract(l.Position).Normalize()
}

func (l *Point) IsAmbient() bool { return false }

func (l *Point) IsPhotonSource() bool { return true }

// PhotonIntensity returns the power radiated over the full sphere of directions
func (l *Point) PhotonIntensity() core.Vec3 {
	return l.Intensity.Multiply(4 * math.Pi)
}

// RandomPhoton returns a ray leaving the light in a uniformly random direction
func (l *Point) RandomPhoton(sampler core.Sampler) core.Ray {
	origin := l.Position
	if l.Size > 0 {
		origin = origin.Add(core.SampleOnUnitSphere(sampler.Get2D()).Multiply(l.Size))
	}
	return core.NewRay(origin, core.SampleOnUnitSphere(sampler.Get2D()))
}
