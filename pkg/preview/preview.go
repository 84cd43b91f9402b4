// Package preview draws a render in progress on the terminal with half-block
// characters: each cell shows two image rows, the top one as the foreground
// color and the bottom one as the background.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/df07/go-photon-raytracer/pkg/renderer"
)

// Surface is a cell grid that can present what was drawn on it
type Surface interface {
	SetCell(x, y int, c *uv.Cell)
	Display() error
}

// Preview draws frames on a surface of width x height cells. The last row
// is a status line with a spring-smoothed progress bar.
type Preview struct {
	surface       Surface
	width, height int

	spring   harmonica.Spring
	shown    float64 // Progress shown by the bar
	velocity float64
}

// New creates a preview updated fps times per second
func New(surface Surface, width, height, fps int) *Preview {
	return &Preview{
		surface: surface,
		width:   width,
		height:  height,
		// Critically damped so the bar never runs ahead of the render
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
}

// Frame draws img scaled to fit above the status line, then presents it
func (p *Preview) Frame(img image.Image, status string, progress float64) error {
	p.shown, p.velocity = p.spring.Update(p.shown, p.velocity, progress)
	p.shown = min(max(p.shown, 0), 1)

	if rows := p.height - 1; rows > 0 {
		p.drawImage(img, rows)
	}
	p.drawStatus(status)
	return p.surface.Display()
}

// Shown returns the progress currently displayed by the bar
func (p *Preview) Shown() float64 {
	return p.shown
}

func (p *Preview) drawImage(img image.Image, rows int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return
	}

	// One cell is one pixel wide and two pixels tall
	scale := min(float64(p.width)/float64(w), float64(2*rows)/float64(h))
	cols := min(p.width, int(float64(w)*scale))
	pixelRows := min(2*rows, int(float64(h)*scale))

	at := func(x, y int) color.Color {
		sx := bounds.Min.X + min(w-1, int(float64(x)/scale))
		sy := bounds.Min.Y + min(h-1, int(float64(y)/scale))
		return img.At(sx, sy)
	}

	for row := 0; row < (pixelRows+1)/2; row++ {
		for col := 0; col < cols; col++ {
			cell := &uv.Cell{Content: "▀", Width: 1, Style: uv.Style{Fg: at(col, 2*row)}}
			if 2*row+1 < pixelRows {
				cell.Style.Bg = at(col, 2*row+1)
			}
			p.surface.SetCell(col, row, cell)
		}
	}
}

// drawStatus writes the status text and the progress bar on the last row
func (p *Preview) drawStatus(status string) {
	row := p.height - 1
	text := fmt.Sprintf(" %3.0f%% %s ", 100*p.shown, status)

	barWidth := max(0, p.width-len([]rune(text)))
	filled := int(p.shown*float64(barWidth) + 0.5)
	line := text + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	x := 0
	for _, r := range line {
		if x >= p.width {
			break
		}
		p.surface.SetCell(x, row, &uv.Cell{Content: string(r), Width: 1})
		x++
	}
}

// Run shows the session's framebuffer on the terminal until the render finishes
func Run(ctx context.Context, session *renderer.Session, fps int) error {
	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)
	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	preview := New(term, width, height, fps)
	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()

	draw := func() error {
		img, err := session.Snapshot()
		if err != nil {
			return err
		}
		phase, progress := session.Phase()
		return preview.Frame(img, phase.String(), progress)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-session.Done():
			return draw()
		case <-ticker.C:
			if err := draw(); err != nil {
				return err
			}
		}
	}
}
