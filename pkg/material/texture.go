package material

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// footprintSamples is the number of texture lookups averaged over a non-zero footprint
const footprintSamples = 32

// Texture provides color at a texture coordinate
type Texture interface {
	Sample(uvw core.Vec3) core.Vec3
}

// TexturedColor is a color optionally modulated by a texture. The texture
// coordinate is scaled and offset before lookup.
type TexturedColor struct {
	Color   core.Vec3
	Texture Texture   // Optional
	Scale   core.Vec3 // Zero means no scaling
	Offset  core.Vec3
}

// NewColor creates an untextured color
func NewColor(color core.Vec3) TexturedColor {
	return TexturedColor{Color: color}
}

// NewTexturedColor creates a color modulated by texture
func NewTexturedColor(color core.Vec3, texture Texture) TexturedColor {
	return TexturedColor{Color: color, Texture: texture, Scale: core.NewVec3(1, 1, 1)}
}

// IsZero reports whether the color contributes nothing
func (tc TexturedColor) IsZero() bool {
	return tc.Color.IsZero()
}

// transform maps a surface coordinate into texture space
func (tc TexturedColor) transform(uvw core.Vec3) core.Vec3 {
	if !tc.Scale.IsZero() {
		uvw = uvw.MultiplyVec(tc.Scale)
	}
	return uvw.Add(tc.Offset)
}

// Sample returns the color at uvw. When duvw spans a non-zero footprint the
// texture is averaged over Halton points of the parallelogram centered on uvw.
func (tc TexturedColor) Sample(uvw core.Vec3, duvw [2]core.Vec3) core.Vec3 {
	if tc.Texture == nil {
		return tc.Color
	}
	if duvw[0].IsZero() && duvw[1].IsZero() {
		return tc.Color.MultiplyVec(tc.Texture.Sample(tc.transform(uvw)))
	}

	var sum core.Vec3
	for i := 0; i < footprintSamples; i++ {
		x := core.Halton(i, 3)
		y := core.Halton(i, 2)
		if x > 0.5 {
			x--
		}
		if y > 0.5 {
			y--
		}
		p := uvw.Add(duvw[0].Multiply(x)).Add(duvw[1].Multiply(y))
		sum = sum.Add(tc.Texture.Sample(tc.transform(p)))
	}
	return tc.Color.MultiplyVec(sum.Multiply(1.0 / footprintSamples))
}

// SampleEnvironment returns the color seen along direction dir, mapping the
// direction onto the texture with an angular map
func (tc TexturedColor) SampleEnvironment(dir core.Vec3) core.Vec3 {
	if tc.Texture == nil {
		return tc.Color
	}
	return tc.Color.MultiplyVec(tc.Texture.Sample(tc.transform(EnvironmentUVW(dir))))
}

// EnvironmentUVW maps a direction to texture coordinates. +Z maps to the
// center of the texture and -Z to its rim.
func EnvironmentUVW(dir core.Vec3) core.Vec3 {
	length := dir.Length()
	if length == 0 {
		return core.NewVec3(0.5, 0.5, 0)
	}
	z := math.Asin(-dir.Z/length)/math.Pi + 0.5
	var x, y float64
	if s := math.Abs(dir.X) + math.Abs(dir.Y); s > 0 {
		x = dir.X / s
		y = dir.Y / s
	}
	return core.NewVec3(0.5+z*x/2, 0.5+z*y/2, 0)
}
