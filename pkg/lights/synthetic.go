package lights

import "github.com/df07/go-photon-raytracer/pkg/core"

// Synthetic is an unshadowed light built at a shading point to carry an indirect
// illumination estimate. With a zero direction it behaves as an ambient light.
type Synthetic struct {
	Intensity core.Vec3
	Dir       core.Vec3
}

// NewSynthetic creates a synthetic light; direction may be zero
func NewSynthetic(intensity, direction core.Vec3) *Synthetic {
	return &Synthetic{Intensity: intensity, Dir: direction.Normalize()}
}

// Illuminate returns the estimate without any shadow test
func (s *Synthetic) Illuminate(p, n core.Vec3, occluder Occluder, sampler core.Sampler) core.Vec3 {
	return s.Intensity
}

// Direction returns the dominant travel direction of the estimate
func (s *Synthetic) Direction(p core.Vec3) core.Vec3 {
	return s.Dir
}

func (s *Synthetic) IsAmbient() bool { return s.Dir.IsZero() }
