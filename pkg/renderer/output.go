package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/df07/go-photon-raytracer/pkg/irradiance"
)

// CacheImage shows how the irradiance cache was filled, one pixel per grid
// point: white where the point was computed, grey where it was estimated
func CacheImage(cache *irradiance.Cache) *image.Gray {
	cx, cy := cache.GridSize()
	out := image.NewGray(image.Rect(0, 0, cx, cy))
	for y := 0; y < cy; y++ {
		for x := 0; x < cx; x++ {
			switch {
			case cache.IsComputed(x, y):
				out.SetGray(x, y, color.Gray{Y: 255})
			case cache.IsFilled(x, y):
				out.SetGray(x, y, color.Gray{Y: 128})
			}
		}
	}
	return out
}

// SavePNG writes img to filename, creating parent directories as needed
func SavePNG(filename string, img image.Image) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", filename, err)
	}
	return file.Close()
}
