package lights

import "github.com/df07/go-photon-raytracer/pkg/core"

// Ambient is a constant light arriving from every direction without shadows
type Ambient struct {
	Intensity core.Vec3
}

// NewAmbient creates an ambient light
func NewAmbient(intensity core.Vec3) *Ambient {
	return &Ambient{Intensity: intensity}
}

// Illuminate returns the constant intensity
func (a *Ambient) Illuminate(p, n core.Vec3, occluder Occluder, sampler core.Sampler) core.Vec3 {
	return a.Intensity
}

// Direction is undefined for ambient light
func (a *Ambient) Direction(p core.Vec3) core.Vec3 {
	return core.Vec3{}
}

func (a *Ambient) IsAmbient() bool { return true }
