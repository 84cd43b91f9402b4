package lights

import (
	"github.com/df07/go-photon-raytracer/pkg/core"
)

// Occluder answers binary visibility queries against the scene
type Occluder interface {
	// ShadowTrace reports whether anything blocks ray before parameter tMax
	ShadowTrace(ray core.Ray, tMax float64) bool
}

// Light is a light source evaluated during shading
type Light interface {
	// Illuminate returns the intensity arriving at p, visibility included
	Illuminate(p, n core.Vec3, occluder Occluder, sampler core.Sampler) core.Vec3
	// Direction returns the unit direction light travels from the source towards p
	Direction(p core.Vec3) core.Vec3
	// IsAmbient reports whether the light arrives equally from every direction
	IsAmbient() bool
}

// PhotonSource is implemented by lights that can seed a photon map
type PhotonSource interface {
	Light
	IsPhotonSource() bool
	// PhotonIntensity returns the total power the light radiates into the scene
	PhotonIntensity() core.Vec3
	// RandomPhoton returns a ray leaving the light in a random direction
	RandomPhoton(sampler core.Sampler) core.Ray
}

// AmbientIntensity sums the intensity of every ambient light
func AmbientIntensity(lights []Light) core.Vec3 {
	var sum core.Vec3
	for _, light := range lights {
		if light.IsAmbient() {
			sum = sum.Add(light.Illuminate(core.Vec3{}, core.Vec3{}, nil, nil))
		}
	}
	return sum
}
