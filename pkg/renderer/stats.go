package renderer

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/irradiance"
	"github.com/df07/go-photon-raytracer/pkg/photon"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Maximum samples allowed per pixel
	MinSamples     int     // Minimum samples taken per pixel
	MaxSamplesUsed int     // Maximum samples actually used by any pixel
	Workers        int
	Primitives     int  // Spheres, planes and mesh triangles in the scene
	Complete       bool // Every pixel was rendered

	AverageLuminance float64 // Mean luminance of the rendered pixels after gamma

	Photons *photon.Stats     // nil when no photon map was built
	Cache   *irradiance.Stats // nil when the cache was disabled

	Elapsed time.Duration
}

// collectStats gathers the sample statistics of a finished image
func collectStats(img *RenderImage, maxSamples int) RenderStats {
	stats := RenderStats{MaxSamples: maxSamples, MinSamples: maxSamples, Complete: img.IsComplete()}
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if !img.IsRendered(x, y) {
				continue
			}
			_, _, n := img.Pixel(x, y)
			stats.TotalPixels++
			stats.TotalSamples += n
			stats.MinSamples = min(stats.MinSamples, n)
			stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, n)
		}
	}
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
		// Unrendered pixels are black; rescale to the mean over rendered ones
		stats.AverageLuminance = CalculateAverageLuminance(img.ColorImage()) * float64(img.Width()*img.Height()) / float64(stats.TotalPixels)
	} else {
		stats.MinSamples = 0
	}
	return stats
}

// FormatDuration renders d as H:MM:SS
func FormatDuration(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// Table returns a tabular report of the render
func (s RenderStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Metric", "Value"})
	table.Append([]string{"Pixels", "Rendered", fmt.Sprintf("%d", s.TotalPixels)})
	table.Append([]string{"", "Samples", fmt.Sprintf("%d", s.TotalSamples)})
	table.Append([]string{"", "Samples/pixel (min/avg/max)", fmt.Sprintf("%d / %.2f / %d", s.MinSamples, s.AverageSamples, s.MaxSamplesUsed)})
	table.Append([]string{"", "Sample cap", fmt.Sprintf("%d", s.MaxSamples)})
	table.Append([]string{"", "Workers", fmt.Sprintf("%d", s.Workers)})
	table.Append([]string{"", "Average luminance", fmt.Sprintf("%.3f", s.AverageLuminance)})
	table.Append([]string{"", "Status", s.status()})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Scene", "Primitives", fmt.Sprintf("%d", s.Primitives)})
	if s.Photons != nil {
		table.Append([]string{" ", " ", " "})
		table.Append([]string{"Photon map", "Emitted", fmt.Sprintf("%d", s.Photons.Emitted)})
		table.Append([]string{"", "Stored", fmt.Sprintf("%d", s.Photons.Stored)})
		table.Append([]string{"", "Truncated", fmt.Sprintf("%t", s.Photons.Truncated)})
	}
	if s.Cache != nil {
		table.Append([]string{" ", " ", " "})
		table.Append([]string{"Irradiance cache", "Points", fmt.Sprintf("%d", s.Cache.Points)})
		table.Append([]string{"", "Computed", fmt.Sprintf("%d", s.Cache.Computed)})
		table.Append([]string{"", "Estimated", fmt.Sprintf("%d", s.Cache.Estimated)})
	}
	table.SetFooter([]string{"Total", "Elapsed", FormatDuration(s.Elapsed)})
	table.Render()
	return buf.String()
}

func (s RenderStats) status() string {
	if s.Complete {
		return "completed"
	}
	return "stopped"
}

// CalculateAverageLuminance returns the mean luminance of an 8-bit image in [0, 1]
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	count := bounds.Dx() * bounds.Dy()
	if count == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := core.NewVec3(float64(r), float64(g), float64(b)).Multiply(1.0 / 0xffff)
			total += c.Luminance()
		}
	}
	return total / float64(count)
}
