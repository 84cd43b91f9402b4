package core

import "math"

// Box represents an axis-aligned bounding box.
// A box whose Min exceeds its Max on any axis is empty.
type Box struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// EmptyBox returns a box that contains nothing and grows from the first union
func EmptyBox() Box {
	return Box{
		Min: NewVec3(Big, Big, Big),
		Max: NewVec3(-Big, -Big, -Big),
	}
}

// NewBox creates a new box from min and max points
func NewBox(min, max Vec3) Box {
	return Box{Min: min, Max: max}
}

// NewBoxFromPoints creates a box that bounds all given points
func NewBoxFromPoints(points ...Vec3) Box {
	box := EmptyBox()
	for _, p := range points {
		box = box.AddPoint(p)
	}
	return box
}

// IsEmpty returns true if min exceeds max on any axis
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// AddPoint returns the box grown to contain p
func (b Box) AddPoint(p Vec3) Box {
	return Box{
		Min: Vec3{min(b.Min.X, p.X), min(b.Min.Y, p.Y), min(b.Min.Z, p.Z)},
		Max: Vec3{max(b.Max.X, p.X), max(b.Max.Y, p.Y), max(b.Max.Z, p.Z)},
	}
}

// Union returns a box that bounds both this box and another
func (b Box) Union(other Box) Box {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	return b.AddPoint(other.Min).AddPoint(other.Max)
}

// Corner returns one of the 8 corners. Bit 0 of i selects max X, bit 1 max Y, bit 2 max Z.
func (b Box) Corner(i int) Vec3 {
	c := b.Min
	if i&1 != 0 {
		c.X = b.Max.X
	}
	if i&2 != 0 {
		c.Y = b.Max.Y
	}
	if i&4 != 0 {
		c.Z = b.Max.Z
	}
	return c
}

// Center returns the center point of the box
func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// Size returns the extent of the box along each axis
func (b Box) Size() Vec3 {
	return b.Max.Subtract(b.Min)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (b Box) LongestAxis() int {
	size := b.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// Slab computes the parametric interval where the ray lies inside the box using
// the slab method. The interval is unclipped: tEnter may be negative when the
// origin is inside. An axis with a zero direction component constrains nothing
// if the origin lies within that slab and rejects the ray otherwise.
func (b Box) Slab(ray Ray) (tEnter, tExit float64, ok bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}

	tEnter = math.Inf(-1)
	tExit = math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		lo := b.Min.Axis(axis)
		hi := b.Max.Axis(axis)
		origin := ray.Origin.Axis(axis)
		direction := ray.Direction.Axis(axis)

		// Ray is parallel to this slab
		if direction == 0 {
			if origin < lo || origin > hi {
				return 0, 0, false
			}
			continue
		}

		inv := 1.0 / direction
		t1 := (lo - origin) * inv
		t2 := (hi - origin) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tEnter = max(tEnter, t1)
		tExit = min(tExit, t2)
		if tEnter > tExit {
			return 0, 0, false
		}
	}
	return tEnter, tExit, true
}

// IntersectRay tests the ray against the box, accepting only overlap with (0, tMax].
// The returned entry distance is the unclipped slab entry.
func (b Box) IntersectRay(ray Ray, tMax float64) (float64, bool) {
	tEnter, tExit, ok := b.Slab(ray)
	if !ok || tExit <= 0 || tEnter > tMax {
		return 0, false
	}
	return tEnter, true
}
