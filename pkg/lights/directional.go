package lights

import "github.com/df07/go-photon-raytracer/pkg/core"

// Directional is an infinitely distant light with parallel rays
type Directional struct {
	Intensity core.Vec3
	Dir       core.Vec3 // Direction the light travels, unit length
}

// NewDirectional creates a directional light travelling along direction
func NewDirectional(intensity, direction core.Vec3) *Directional {
	return &Directional{Intensity: intensity, Dir: direction.Normalize()}
}

// Visibility returns 1 when nothing blocks the light from p, 0 otherwise
func (d *Directional) Visibility(p core.Vec3, occluder Occluder) float64 {
	if occluder != nil && occluder.ShadowTrace(core.NewRay(p, d.Dir.Negate()), core.Big) {
		return 0
	}
	return 1
}

// Illuminate returns the intensity scaled by visibility
func (d *Directional) Illuminate(p, n core.Vec3, occluder Occluder, sampler core.Sampler) core.Vec3 {
	return d.Intensity.Multiply(d.Visibility(p, occluder))
}

// Direction returns the constant travel direction
func (d *Directional) Direction(p core.Vec3) core.Vec3 {
	return d.Dir
}

func (d *Directional) IsAmbient() bool { return false }
