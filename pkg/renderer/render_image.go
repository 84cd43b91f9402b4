package renderer

import (
	"image"
	"image/color"
	"sync/atomic"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// RenderImage is the framebuffer of a render session. Each pixel is written
// once by the worker that claimed it, so the buffers need no locking; the
// rendered counter publishes progress to readers.
type RenderImage struct {
	width, height int
	gamma         float64

	pixels      []core.Vec3 // Linear color
	z           []float64   // First hit distance, core.Big on a miss
	sampleCount []int
	done        []atomic.Bool

	rendered atomic.Int64
}

// NewRenderImage allocates buffers for a width x height image
func NewRenderImage(width, height int, gamma float64) *RenderImage {
	n := width * height
	img := &RenderImage{
		width:       width,
		height:      height,
		gamma:       gamma,
		pixels:      make([]core.Vec3, n),
		z:           make([]float64, n),
		sampleCount: make([]int, n),
		done:        make([]atomic.Bool, n),
	}
	for i := range img.z {
		img.z[i] = core.Big
	}
	return img
}

// Width returns the image width in pixels
func (img *RenderImage) Width() int { return img.width }

// Height returns the image height in pixels
func (img *RenderImage) Height() int { return img.height }

// SetPixel records the result of pixel (x, y) and counts it as rendered
func (img *RenderImage) SetPixel(x, y int, c core.Vec3, z float64, samples int) {
	i := y*img.width + x
	img.pixels[i] = c
	img.z[i] = z
	img.sampleCount[i] = samples
	img.done[i].Store(true)
	img.rendered.Add(1)
}

// Pixel returns the linear color, depth and sample count of pixel (x, y)
func (img *RenderImage) Pixel(x, y int) (core.Vec3, float64, int) {
	i := y*img.width + x
	return img.pixels[i], img.z[i], img.sampleCount[i]
}

// IsRendered reports whether pixel (x, y) has been written
func (img *RenderImage) IsRendered(x, y int) bool {
	return img.done[y*img.width+x].Load()
}

// RenderedCount returns the number of pixels written so far
func (img *RenderImage) RenderedCount() int {
	return int(img.rendered.Load())
}

// IsComplete reports whether every pixel has been written
func (img *RenderImage) IsComplete() bool {
	return img.RenderedCount() >= img.width*img.height
}

// Progress returns the fraction of pixels written
func (img *RenderImage) Progress() float64 {
	return float64(img.RenderedCount()) / float64(img.width*img.height)
}

// toRGBA converts a linear color to 8-bit with gamma correction and clamping
func (img *RenderImage) toRGBA(c core.Vec3) color.RGBA {
	if img.gamma > 0 && img.gamma != 1 {
		c = c.GammaCorrect(img.gamma)
	}
	c = c.Clamp(0.0, 1.0)
	return color.RGBA{
		R: uint8(255*c.X + 0.5),
		G: uint8(255*c.Y + 0.5),
		B: uint8(255*c.Z + 0.5),
		A: 255,
	}
}

// ColorImage returns the framebuffer as an 8-bit image. Pixels not yet
// rendered are black.
func (img *RenderImage) ColorImage() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.width, img.height))
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			i := y*img.width + x
			if !img.done[i].Load() {
				out.SetRGBA(x, y, color.RGBA{A: 255})
				continue
			}
			out.SetRGBA(x, y, img.toRGBA(img.pixels[i]))
		}
	}
	return out
}

// DepthImage visualizes the z-buffer: hits map (zmax-z)/(zmax-zmin) to
// brightness and misses are black
func (img *RenderImage) DepthImage() *image.Gray {
	zmin, zmax := core.Big, -core.Big
	for i, z := range img.z {
		if !img.done[i].Load() || z >= core.Big {
			continue
		}
		zmin = min(zmin, z)
		zmax = max(zmax, z)
	}

	out := image.NewGray(image.Rect(0, 0, img.width, img.height))
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			i := y*img.width + x
			z := img.z[i]
			if !img.done[i].Load() || z >= core.Big {
				continue
			}
			v := 1.0
			if zmax > zmin {
				v = (zmax - z) / (zmax - zmin)
			}
			out.SetGray(x, y, color.Gray{Y: uint8(255*v + 0.5)})
		}
	}
	return out
}

// SampleImage visualizes the sample count buffer normalized between the
// smallest and largest count
func (img *RenderImage) SampleImage() *image.Gray {
	lo, hi := -1, 0
	for i, n := range img.sampleCount {
		if !img.done[i].Load() {
			continue
		}
		if lo < 0 || n < lo {
			lo = n
		}
		hi = max(hi, n)
	}

	out := image.NewGray(image.Rect(0, 0, img.width, img.height))
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			i := y*img.width + x
			if !img.done[i].Load() {
				continue
			}
			v := 1.0
			if hi > lo {
				v = float64(img.sampleCount[i]-lo) / float64(hi-lo)
			}
			out.SetGray(x, y, color.Gray{Y: uint8(255*v + 0.5)})
		}
	}
	return out
}

// Snapshot copies the current framebuffer for display
func (img *RenderImage) Snapshot() *image.RGBA {
	return img.ColorImage()
}
