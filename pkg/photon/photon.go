package photon

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// Photon is one recorded arrival of light at a surface
type Photon struct {
	Position core.Vec3
	Dir      core.Vec3 // Unit travel direction when the photon arrived
	Power    core.Vec3
}

// Compare implements kdtree.Comparable
func (p Photon) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Photon)
	return p.Position.Axis(int(d)) - q.Position.Axis(int(d))
}

// Dims implements kdtree.Comparable
func (p Photon) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between photon positions
func (p Photon) Distance(c kdtree.Comparable) float64 {
	q := c.(Photon)
	return p.Position.Subtract(q.Position).LengthSquared()
}

// photons is a kdtree.Interface over a photon slice
type photons []Photon

func (p photons) Index(i int) kdtree.Comparable         { return p[i] }
func (p photons) Len() int                              { return len(p) }
func (p photons) Pivot(d kdtree.Dim) int                { return plane{Dim: d, photons: p}.Pivot() }
func (p photons) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts photons along one dimension
type plane struct {
	kdtree.Dim
	photons
}

func (p plane) Less(i, j int) bool {
	return p.photons[i].Position.Axis(int(p.Dim)) < p.photons[j].Position.Axis(int(p.Dim))
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.photons = p.photons[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.photons[i], p.photons[j] = p.photons[j], p.photons[i]
}
