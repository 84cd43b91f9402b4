package material

import (
	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
)

// Multi selects a sub-material by the sub-material index of the hit
type Multi struct {
	Materials []Material
}

// NewMulti creates a multi-material from its sub-materials
func NewMulti(materials ...Material) *Multi {
	return &Multi{Materials: materials}
}

// pick returns the sub-material for mtlID, wrapping out of range indices
func (m *Multi) pick(mtlID int) Material {
	if len(m.Materials) == 0 {
		return nil
	}
	mtlID %= len(m.Materials)
	if mtlID < 0 {
		mtlID += len(m.Materials)
	}
	return m.Materials[mtlID]
}

// Shade delegates to the sub-material of the hit
func (m *Multi) Shade(ctx ShadeContext, ray core.Ray, hit *geometry.HitInfo, budget core.Budget) core.Vec3 {
	if sub := m.pick(hit.MtlID); sub != nil {
		return sub.Shade(ctx, ray, hit, budget)
	}
	return core.Vec3{}
}

func (m *Multi) IsPhotonSurface(mtlID int) bool {
	sub := m.pick(mtlID)
	return sub != nil && sub.IsPhotonSurface(mtlID)
}

func (m *Multi) RandomPhotonBounce(ray *core.Ray, power *core.Vec3, hit *geometry.HitInfo, sampler core.Sampler) bool {
	if sub := m.pick(hit.MtlID); sub != nil {
		return sub.RandomPhotonBounce(ray, power, hit, sampler)
	}
	return false
}
