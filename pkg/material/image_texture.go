package material

import (
	"math"

	"github.com/df07/go-photon-raytracer/pkg/core"
)

// ImageTexture provides color from a 2D image with bilinear filtering.
// Coordinates outside [0,1] tile the image.
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x]
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Sample returns the bilinearly filtered color at uvw. V=0 is the bottom row
// of the image, which is stored top-down.
func (t *ImageTexture) Sample(uvw core.Vec3) core.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return core.Vec3{}
	}

	u := uvw.X - math.Floor(uvw.X)
	v := uvw.Y - math.Floor(uvw.Y)

	// Pixel centers sit at half-integer positions
	fx := u*float64(t.Width) - 0.5
	fy := (1.0-v)*float64(t.Height) - 0.5
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	dx := fx - x0
	dy := fy - y0

	ix, iy := int(x0), int(y0)
	c00 := t.pixel(ix, iy)
	c10 := t.pixel(ix+1, iy)
	c01 := t.pixel(ix, iy+1)
	c11 := t.pixel(ix+1, iy+1)

	top := c00.Multiply(1 - dx).Add(c10.Multiply(dx))
	bottom := c01.Multiply(1 - dx).Add(c11.Multiply(dx))
	return top.Multiply(1 - dy).Add(bottom.Multiply(dy))
}

// pixel returns the pixel at (x, y) with wrap-around tiling
func (t *ImageTexture) pixel(x, y int) core.Vec3 {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	y %= t.Height
	if y < 0 {
		y += t.Height
	}
	return t.Pixels[y*t.Width+x]
}

// Checker is a procedural checkerboard in uv space
type Checker struct {
	Color1 core.Vec3
	Color2 core.Vec3
	Checks float64 // Squares along each side of the unit uv square
}

// NewChecker creates a checkerboard texture
func NewChecker(color1, color2 core.Vec3, checks float64) *Checker {
	return &Checker{Color1: color1, Color2: color2, Checks: checks}
}

// Sample returns the color of the square containing uvw
func (c *Checker) Sample(uvw core.Vec3) core.Vec3 {
	checks := c.Checks
	if checks <= 0 {
		checks = 2
	}
	checkX := int(math.Floor(uvw.X * checks))
	checkY := int(math.Floor(uvw.Y * checks))

	// Alternate colors based on check position
	if (checkX+checkY)%2 == 0 {
		return c.Color1
	}
	return c.Color2
}
