package irradiance

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/log"
)

var logger = log.New("irradiance")

// ErrBadGrid is returned for subdivision levels the image cannot be divided by
var ErrBadGrid = errors.New("irradiance: invalid grid")

// Point is the value cached at one grid location
type Point struct {
	Color  core.Vec3 // Indirect light arriving at the first hit
	Z      float64   // Distance to the first hit, core.Big on a miss
	Normal core.Vec3 // Shading normal at the first hit, zero on a miss
}

func (p Point) add(o Point) Point {
	return Point{Color: p.Color.Add(o.Color), Z: p.Z + o.Z, Normal: p.Normal.Add(o.Normal)}
}

func (p Point) scale(f float64) Point {
	return Point{Color: p.Color.Multiply(f), Z: p.Z * f, Normal: p.Normal.Multiply(f)}
}

func lerp(a, b Point, f float64) Point {
	return a.scale(1 - f).add(b.scale(f))
}

// Thresholds decide when four neighbors agree well enough to skip a computation
type Thresholds struct {
	Color  float64 // Max per-channel color difference from the average
	Z      float64 // Max depth difference from the average
	Normal float64 // Min cosine between a neighbor normal and the average normal
}

// isMiss reports whether z is the depth of a point that saw no geometry. The
// average of four misses may round slightly below core.Big.
func isMiss(z float64) bool {
	return z >= core.Big*0.999
}

// similar reports whether p is close enough to the average avg. Two misses
// match on depth and normal; only their colors are compared.
func (t Thresholds) similar(avg, p Point) bool {
	d := avg.Color.Subtract(p.Color)
	if math.Abs(d.X) >= t.Color || math.Abs(d.Y) >= t.Color || math.Abs(d.Z) >= t.Color {
		return false
	}
	if isMiss(avg.Z) && isMiss(p.Z) {
		return true
	}
	if math.Abs(avg.Z-p.Z) >= t.Z {
		return false
	}
	return avg.Normal.Normalize().Dot(p.Normal) > t.Normal
}

// ComputeFunc evaluates the cache value at image position (x, y) in pixels
type ComputeFunc func(x, y float64) Point

// Point states
const (
	statePending int32 = iota
	stateEstimated
	stateComputed
)

// Stats reports how the grid was filled
type Stats struct {
	Points    int // Grid locations
	Computed  int // Locations evaluated with ComputeFunc
	Estimated int // Locations filled from their neighbors
}

// Cache is a multiresolution grid of indirect light samples over the image.
// Workers call ComputeNext concurrently until it returns false; Sample is
// valid once the grid is complete.
type Cache struct {
	width, height  int
	countX, countY int
	maxSubdiv      int
	thresholds     Thresholds

	mu      sync.Mutex
	stepper stepper

	data  []Point
	state []atomic.Int32

	computed  atomic.Int64
	estimated atomic.Int64
}

// New creates a cache for a width x height image. There are 2^maxSubdiv grid
// points per pixel along each axis, so a negative maxSubdiv spaces points
// 2^-maxSubdiv pixels apart and then requires both dimensions to be a
// multiple of that spacing. minSubdiv sets the coarsest lattice.
func New(width, height, minSubdiv, maxSubdiv int, thresholds Thresholds) (*Cache, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrBadGrid, width, height)
	}
	if maxSubdiv < minSubdiv {
		return nil, fmt.Errorf("%w: max subdivision %d below min %d", ErrBadGrid, maxSubdiv, minSubdiv)
	}
	if maxSubdiv-minSubdiv > 16 || maxSubdiv > 4 {
		return nil, fmt.Errorf("%w: subdivision range %d..%d too large", ErrBadGrid, minSubdiv, maxSubdiv)
	}

	var countX, countY int
	if maxSubdiv < 0 {
		mask := 1<<(-maxSubdiv) - 1
		if width&mask != 0 || height&mask != 0 {
			return nil, fmt.Errorf("%w: %dx%d is not a multiple of %d", ErrBadGrid, width, height, mask+1)
		}
		countX = width>>(-maxSubdiv) + 1
		countY = height>>(-maxSubdiv) + 1
	} else {
		countX = width<<maxSubdiv + 1
		countY = height<<maxSubdiv + 1
	}

	n := countX * countY
	return &Cache{
		width:      width,
		height:     height,
		countX:     countX,
		countY:     countY,
		maxSubdiv:  maxSubdiv,
		thresholds: thresholds,
		stepper:    newStepper(countX, countY, minSubdiv, maxSubdiv),
		data:       make([]Point, n),
		state:      make([]atomic.Int32, n),
	}, nil
}

// GridSize returns the number of grid points along each axis
func (c *Cache) GridSize() (int, int) {
	return c.countX, c.countY
}

// spacing returns the distance in pixels between neighboring grid points
func (c *Cache) spacing() float64 {
	if c.maxSubdiv < 0 {
		return float64(int(1) << (-c.maxSubdiv))
	}
	return 1 / float64(int(1)<<c.maxSubdiv)
}

func (c *Cache) claim() (claim, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepper.next()
}

// ComputeNext fills the next grid location, estimating it from its four
// neighbors when they agree and calling compute otherwise. It returns false
// once every location has been handed out.
func (c *Cache) ComputeNext(compute ComputeFunc) bool {
	cl, ok := c.claim()
	if !ok {
		return false
	}

	i := cl.y*c.countX + cl.x
	if avg, ok := c.estimate(cl); ok {
		c.data[i] = avg
		c.state[i].Store(stateEstimated)
		c.estimated.Add(1)
		return true
	}

	s := c.spacing()
	c.data[i] = compute(float64(cl.x)*s, float64(cl.y)*s)
	c.state[i].Store(stateComputed)
	c.computed.Add(1)
	return true
}

// neighbors returns the indices of the four points a claim is estimated from
func (c *Cache) neighbors(cl claim) ([4]int, bool) {
	h := cl.halfSkip
	x, y := cl.x, cl.y
	if h == 0 || x+h >= c.countX || y+h >= c.countY {
		return [4]int{}, false
	}

	switch cl.phase {
	case 1:
		// Corners of the square centered on (x, y)
		return [4]int{
			(y-h)*c.countX + x - h,
			(y-h)*c.countX + x + h,
			(y+h)*c.countX + x - h,
			(y+h)*c.countX + x + h,
		}, true
	case 2:
		if x == 0 || y == 0 {
			return [4]int{}, false
		}
		// Ends of the two edges crossing at (x, y)
		return [4]int{
			(y-h)*c.countX + x,
			y*c.countX + x - h,
			y*c.countX + x + h,
			(y+h)*c.countX + x,
		}, true
	}
	return [4]int{}, false
}

func (c *Cache) estimate(cl claim) (Point, bool) {
	idx, ok := c.neighbors(cl)
	if !ok {
		return Point{}, false
	}

	// Another worker may still be filling a neighbor
	for _, i := range idx {
		if c.state[i].Load() == statePending {
			return Point{}, false
		}
	}

	avg := c.data[idx[0]].add(c.data[idx[1]]).add(c.data[idx[2]]).add(c.data[idx[3]]).scale(0.25)
	for _, i := range idx {
		if !c.thresholds.similar(avg, c.data[i]) {
			return Point{}, false
		}
	}
	return avg, true
}

// Sample bilinearly interpolates the grid at image position (x, y) in pixels.
// Positions past the last grid row or column clamp to it.
func (c *Cache) Sample(x, y float64) Point {
	s := c.spacing()
	xx := max(x/s, 0)
	yy := max(y/s, 0)
	ix, iy := int(xx), int(yy)
	fx, fy := xx-float64(ix), yy-float64(iy)

	ix2, iy2 := ix+1, iy+1
	if ix >= c.countX {
		ix, ix2 = c.countX-1, c.countX-1
	} else if ix2 >= c.countX {
		ix2 = c.countX - 1
	}
	if iy >= c.countY {
		iy, iy2 = c.countY-1, c.countY-1
	} else if iy2 >= c.countY {
		iy2 = c.countY - 1
	}

	top := lerp(c.data[iy*c.countX+ix], c.data[iy*c.countX+ix2], fx)
	bottom := lerp(c.data[iy2*c.countX+ix], c.data[iy2*c.countX+ix2], fx)
	return lerp(top, bottom, fy)
}

// IsComputed reports whether grid point (gx, gy) was evaluated rather than estimated
func (c *Cache) IsComputed(gx, gy int) bool {
	return c.state[gy*c.countX+gx].Load() == stateComputed
}

// IsFilled reports whether grid point (gx, gy) holds a value
func (c *Cache) IsFilled(gx, gy int) bool {
	return c.state[gy*c.countX+gx].Load() != statePending
}

// Progress returns the fraction of grid points filled so far
func (c *Cache) Progress() float64 {
	done := c.computed.Load() + c.estimated.Load()
	return float64(done) / float64(len(c.data))
}

// Stats returns the fill counters
func (c *Cache) Stats() Stats {
	return Stats{
		Points:    len(c.data),
		Computed:  int(c.computed.Load()),
		Estimated: int(c.estimated.Load()),
	}
}

// LogStats reports the fill counters once the grid is complete
func (c *Cache) LogStats() {
	st := c.Stats()
	logger.Infof("irradiance cache %dx%d: %d points, %d computed, %d estimated",
		c.countX, c.countY, st.Points, st.Computed, st.Estimated)
}
