package photon

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
	"github.com/df07/go-photon-raytracer/pkg/lights"
	"github.com/df07/go-photon-raytracer/pkg/log"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

var logger = log.New("photon")

// Map is a static photon map. It is built once by a single goroutine and is
// safe for concurrent queries afterwards.
type Map struct {
	photons photons
	tree    *kdtree.Tree
	emitted int
	config  scene.PhotonConfig
}

// Stats summarizes a photon map build
type Stats struct {
	Emitted   int
	Stored    int
	Truncated bool // Emission stopped because the storage cap was reached
}

// Build emits photons from every photon source of the scene, traces them and
// stores their diffuse arrivals. Sources are picked in proportion to their
// luminance and photon powers are normalized by the number emitted.
func Build(ctx context.Context, s *scene.Scene, config scene.PhotonConfig, sampler core.Sampler) (*Map, error) {
	m := &Map{config: config}

	sources := lights.PhotonSources(s.Lights)
	if len(sources) == 0 {
		logger.Warning("no photon sources in scene, photon map is empty")
		m.tree = kdtree.New(m.photons, false)
		return m, nil
	}
	picker, err := lights.NewLuminanceSampler(sources)
	if err != nil {
		return nil, err
	}
	logger.Infof("emitting photons from %d sources", picker.Count())
	for i := 0; i < picker.Count(); i++ {
		logger.Debugf("source %d emits %.1f%% of photons", i, 100*picker.Probability(i))
	}

	truncated := false
emit:
	for m.emitted < config.MaxEmitted {
		// Check for cancellation between batches
		if m.emitted%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		source, prob, _ := picker.Sample(sampler.Get1D())
		m.emitted++
		if prob <= 0 {
			continue
		}
		ray := source.RandomPhoton(sampler)
		power := source.PhotonIntensity().Multiply(1 / prob)

		for bounce := 0; bounce <= config.MaxBounces; bounce++ {
			hit := geometry.NewHitInfo()
			if !s.Trace(ray, &hit, geometry.HitFrontAndBack) {
				break
			}
			mtl := s.MaterialOf(hit.Node)
			if mtl == nil {
				break
			}

			if (bounce > 0 || config.StoreDirect) && mtl.IsPhotonSurface(hit.MtlID) {
				m.photons = append(m.photons, Photon{Position: hit.P, Dir: ray.Direction.Normalize(), Power: power})
				if len(m.photons) >= config.MaxPhotons {
					truncated = true
					break emit
				}
			}

			if !mtl.RandomPhotonBounce(&ray, &power, &hit, sampler) {
				break
			}
		}
	}

	if m.emitted > 0 {
		scale := 1.0 / float64(m.emitted)
		for i := range m.photons {
			m.photons[i].Power = m.photons[i].Power.Multiply(scale)
		}
	}

	if truncated {
		logger.Noticef("photon storage cap of %d reached after %d emitted", config.MaxPhotons, m.emitted)
	}
	logger.Infof("photon map: %d emitted, %d stored", m.emitted, len(m.photons))

	m.tree = kdtree.New(m.photons, false)
	return m, nil
}

// Stats returns the build statistics
func (m *Map) Stats() Stats {
	return Stats{
		Emitted:   m.emitted,
		Stored:    len(m.photons),
		Truncated: len(m.photons) >= m.config.MaxPhotons && m.config.MaxPhotons > 0,
	}
}

// Len returns the number of stored photons
func (m *Map) Len() int {
	return len(m.photons)
}

// TotalPower returns the summed power of every stored photon
func (m *Map) TotalPower() core.Vec3 {
	var sum core.Vec3
	for _, p := range m.photons {
		sum = sum.Add(p.Power)
	}
	return sum
}

// Estimate returns the irradiance at p on a surface with normal n facing the
// viewer, and the luminance-weighted mean travel direction of the photons used.
// Photons arriving from behind the surface are ignored. The direction is zero
// when no photon contributes.
func (m *Map) Estimate(p, n core.Vec3) (core.Vec3, core.Vec3) {
	if m.tree == nil || len(m.photons) == 0 {
		return core.Vec3{}, core.Vec3{}
	}

	k := m.config.NearestK
	radius2 := m.config.Radius * m.config.Radius
	keeper := kdtree.NewNKeeper(k)
	m.tree.NearestSet(keeper, Photon{Position: p})

	var power, dir core.Vec3
	found := 0
	farthest := 0.0
	for _, c := range keeper.Heap {
		if c.Comparable == nil || c.Dist > radius2 {
			continue
		}
		found++
		farthest = math.Max(farthest, c.Dist)

		photon := c.Comparable.(Photon)
		if photon.Dir.Dot(n) >= 0 {
			continue
		}
		power = power.Add(photon.Power)
		dir = dir.Add(photon.Dir.Multiply(photon.Power.Luminance()))
	}
	if power.IsZero() {
		return core.Vec3{}, core.Vec3{}
	}

	// A full set of k neighbors bounds the disk more tightly than the search radius
	area := radius2
	if found >= k && farthest > 0 {
		area = farthest
	}
	return power.Multiply(1 / (math.Pi * area)), dir.Normalize()
}
