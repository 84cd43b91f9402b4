package integrator

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/geometry"
)

// PixelStats tracks sampling statistics for a single pixel. Luminance mean and
// variance are kept with Welford's running update.
type PixelStats struct {
	ColorAccum  core.Vec3 // RGB accumulator for final result
	SampleCount int       // Number of samples taken

	mean float64 // Running luminance mean
	m2   float64 // Sum of squared luminance deviations
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	ps.SampleCount++

	luminance := color.Luminance()
	delta := luminance - ps.mean
	ps.mean += delta / float64(ps.SampleCount)
	ps.m2 += delta * (luminance - ps.mean)
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// Variance returns the sample variance of the luminance, zero below two samples
func (ps *PixelStats) Variance() float64 {
	if ps.SampleCount < 2 {
		return 0
	}
	return ps.m2 / float64(ps.SampleCount-1)
}

// StandardError returns the standard error of the luminance mean
func (ps *PixelStats) StandardError() float64 {
	if ps.SampleCount == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(ps.Variance() / float64(ps.SampleCount))
}

// Converged reports whether sampling can stop: the minimum count is reached
// and the mean luminance is known to within threshold. A single sample says
// nothing about variance, so at least two are always taken.
func (ps *PixelStats) Converged(minSamples int, threshold float64) bool {
	return ps.SampleCount >= max(minSamples, 2) && ps.StandardError() <= threshold
}

// PixelResult is the outcome of rendering one pixel
type PixelResult struct {
	Color   core.Vec3 // Mean linear radiance
	Z       float64   // Distance to the first hit of the first sample, core.Big on a miss
	Samples int
}

// RenderPixel adaptively samples pixel (px, py) until its luminance converges
// or the sample cap is reached
func (t *Tracer) RenderPixel(px, py int) PixelResult {
	minSamples := max(1, t.config.MinSamples)
	maxSamples := max(minSamples, t.config.MaxSamples)

	// Each pixel walks the same Halton sequence under its own random rotation
	rotation := t.sampler.Get2D()
	footprint := pixelFootprint{node: -1}

	var ps PixelStats
	result := PixelResult{Z: core.Big}
	for ps.SampleCount < maxSamples && !ps.Converged(minSamples, t.config.VarianceThreshold) {
		x := float64(px) + jitter(ps.SampleCount, 2, rotation.X)
		y := float64(py) + jitter(ps.SampleCount, 3, rotation.Y)

		color, z := t.samplePrimary(x, y, &footprint)
		if ps.SampleCount == 0 {
			result.Z = z
		}
		ps.AddSample(color)
	}

	result.Color = ps.GetColor()
	result.Samples = ps.SampleCount
	return result
}

// jitter returns the rotated Halton offset of sample i within the pixel
func jitter(i, base int, rotation float64) float64 {
	v := core.Halton(i+1, base) + rotation
	return v - math.Floor(v)
}

const maxFootprint = 0.5

// pixelFootprint caches the texture derivatives of the first sample hit in a
// pixel; later samples on the same node reuse them
type pixelFootprint struct {
	node int
	duvw [2]core.Vec3
}

// samplePrimary shades one camera ray through image position (x, y)
func (t *Tracer) samplePrimary(x, y float64, footprint *pixelFootprint) (core.Vec3, float64) {
	var lens core.Vec2
	if t.camera.Config().DOF > 0 {
		d := core.SamplePointInUnitDisk(t.sampler.Get2D())
		lens = core.NewVec2(d.X, d.Y)
	}
	ray := t.camera.GetRay(x, y, lens)

	hit := geometry.NewHitInfo()
	if !t.scene.Trace(ray, &hit, geometry.HitFront) {
		return t.background(x, y), core.Big
	}

	if footprint.node < 0 {
		footprint.node = hit.Node
		footprint.duvw = t.uvDerivatives(x, y, lens, &hit)
	}
	if hit.Node == footprint.node {
		hit.DUVW = footprint.duvw
	}

	t.screenX, t.screenY = x, y
	color := t.shade(ray, &hit, t.budget())
	if !color.IsFinite() {
		color = core.Vec3{}
	}
	return color, hit.Z
}

// uvDerivatives estimates how the texture coordinate changes across one pixel
// by tracing the neighboring image positions. Neighbors that land on another
// node contribute nothing.
func (t *Tracer) uvDerivatives(x, y float64, lens core.Vec2, hit *geometry.HitInfo) [2]core.Vec3 {
	var duvw [2]core.Vec3
	offsets := [2][2]float64{{1, 0}, {0, 1}}
	for i, o := range offsets {
		neighbor := geometry.NewHitInfo()
		if !t.scene.Trace(t.camera.GetRay(x+o[0], y+o[1], lens), &neighbor, geometry.HitFront) {
			continue
		}
		if neighbor.Node != hit.Node || neighbor.MtlID != hit.MtlID {
			continue
		}
		// A jump this large is a texture seam, not a footprint
		if d := neighbor.UVW.Subtract(hit.UVW); d.Length() < maxFootprint {
			duvw[i] = d
		}
	}
	return duvw
}

// background returns the color behind image position (x, y)
func (t *Tracer) background(x, y float64) core.Vec3 {
	cfg := t.camera.Config()
	uvw := core.NewVec3(x/float64(cfg.Width), y/float64(cfg.Height), 0)
	return t.scene.Background.Sample(uvw, [2]core.Vec3{})
}
