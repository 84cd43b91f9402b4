package material

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// reflectVector calculates the reflection of a vector v off a surface with normal n
func reflectVector(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}

// refraction describes how a unit direction splits at a dielectric boundary
type refraction struct {
	direction   core.Vec3 // Transmitted direction, zero on total internal reflection
	reflectance float64   // Fraction of energy reflected
	total       bool      // Total internal reflection
}

// refract splits unit direction d at a surface with normal n facing d's origin,
// going from index n1 into index n2
func refract(d, n core.Vec3, n1, n2 float64) refraction {
	eta := n1 / n2
	cosI := math.Min(-d.Dot(n), 1.0)
	sin2T := eta * eta * (1 - cosI*cosI)

	// Check for total internal reflection
	if sin2T > 1 {
		return refraction{reflectance: 1, total: true}
	}

	cosT := math.Sqrt(1 - sin2T)
	direction := d.Multiply(eta).Add(n.Multiply(eta*cosI - cosT)).Normalize()

	// Schlick's approximation uses the angle on the denser side
	cosine := cosI
	if n1 > n2 {
		cosine = cosT
	}
	return refraction{direction: direction, reflectance: Reflectance(cosine, eta)}
}

// Reflectance calculates the Fresnel reflectance using Schlick's approximation
func Reflectance(cosine, refractionRatio float64) float64 {
	// Calculate R0 for normal incidence
	r0 := (1 - refractionRatio) / (1 + refractionRatio)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
