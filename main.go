package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli"

	"github.com/df07/go-photon-raytracer/pkg/loaders"
	"github.com/df07/go-photon-raytracer/pkg/log"
	"github.com/df07/go-photon-raytracer/pkg/preview"
	"github.com/df07/go-photon-raytracer/pkg/renderer"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

var logger = log.New("main")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "raytracer"
	app.Usage = "render a scene with adaptive sampling, photon mapping and an irradiance cache"
	app.ArgsUsage = "[scene.json]"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "width", Usage: "image width, 0 keeps the scene's"},
		cli.IntFlag{Name: "height", Usage: "image height, 0 keeps the scene's"},
		cli.IntFlag{Name: "spp", Usage: "maximum samples per pixel, 0 keeps the scene's"},
		cli.IntFlag{Name: "min-spp", Usage: "minimum samples per pixel, 0 keeps the scene's"},
		cli.IntFlag{Name: "workers", Usage: "render goroutines, 0 keeps the scene's"},
		cli.StringFlag{Name: "integrator", Usage: "indirect light: direct, pathtrace or photon"},
		cli.BoolFlag{Name: "cache", Usage: "enable the irradiance cache"},
		cli.StringFlag{Name: "out", Value: "output/render.png", Usage: "color image file"},
		cli.StringFlag{Name: "depth-out", Value: "output/depth.png", Usage: "depth image file"},
		cli.StringFlag{Name: "samples-image", Usage: "sample count image file"},
		cli.StringFlag{Name: "cache-image", Usage: "irradiance cache map file"},
		cli.BoolFlag{Name: "preview", Usage: "show the render in the terminal while it runs"},
		cli.BoolFlag{Name: "v", Usage: "verbose logging"},
		cli.BoolFlag{Name: "vv", Usage: "debug logging"},
	}
	app.Action = run
	return app
}

// overrides are the scene settings replaced from the command line. Zero values keep the scene's.
type overrides struct {
	width, height          int
	maxSamples, minSamples int
	workers                int
	integrator             string
	cache                  bool
}

func overridesFrom(c *cli.Context) overrides {
	return overrides{
		width:      c.Int("width"),
		height:     c.Int("height"),
		maxSamples: c.Int("spp"),
		minSamples: c.Int("min-spp"),
		workers:    c.Int("workers"),
		integrator: c.String("integrator"),
		cache:      c.Bool("cache"),
	}
}

func (o overrides) apply(s *scene.Scene) error {
	if o.width > 0 {
		s.CameraConfig.Width = o.width
	}
	if o.height > 0 {
		s.CameraConfig.Height = o.height
	}

	cfg := &s.SamplingConfig
	if o.maxSamples > 0 {
		cfg.MaxSamples = o.maxSamples
		// A lower cap pulls the minimum down with it
		cfg.MinSamples = min(cfg.MinSamples, cfg.MaxSamples)
	}
	if o.minSamples > 0 {
		cfg.MinSamples = o.minSamples
	}
	if o.workers > 0 {
		cfg.NumWorkers = o.workers
	}
	if o.integrator != "" {
		mode, err := scene.ParseIntegrator(o.integrator)
		if err != nil {
			return err
		}
		cfg.Integrator = mode
	}
	if o.cache {
		cfg.Cache.Enabled = true
	}
	return nil
}

// createScene loads a JSON scene, or the built-in default scene when path is empty
func createScene(path string) (*scene.Scene, error) {
	if path == "" {
		logger.Info("using the default scene")
		return scene.NewDefaultScene(), nil
	}
	return loaders.LoadScene(path)
}

func configureLogging(c *cli.Context) {
	switch {
	case c.Bool("vv"):
		log.SetLevel(log.Debug)
	case c.Bool("v"):
		log.SetLevel(log.Info)
	}
}

func run(c *cli.Context) error {
	configureLogging(c)

	s, err := createScene(c.Args().First())
	if err != nil {
		return err
	}
	if err := overridesFrom(c).apply(s); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session := renderer.NewSession(s)
	logger.Infof("system: %s", renderer.SystemInfo())
	if err := session.Begin(ctx); err != nil {
		return err
	}

	if c.Bool("preview") {
		if err := preview.Run(ctx, session, 15); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warningf("preview stopped: %v", err)
		}
	}

	stats, err := session.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	img, err := session.Image()
	if err != nil {
		return err
	}
	if err := writeOutputs(c, img, session); err != nil {
		return err
	}

	if stats.Complete {
		fmt.Printf("Render completed in %s\n", renderer.FormatDuration(stats.Elapsed))
	} else {
		fmt.Printf("Render stopped after %s\n", renderer.FormatDuration(stats.Elapsed))
	}
	fmt.Print(stats.Table())
	return nil
}

// writeOutputs saves the color and depth images, plus the optional diagnostic images
func writeOutputs(c *cli.Context, img *renderer.RenderImage, session *renderer.Session) error {
	if err := renderer.SavePNG(c.String("out"), img.ColorImage()); err != nil {
		return err
	}
	if err := renderer.SavePNG(c.String("depth-out"), img.DepthImage()); err != nil {
		return err
	}
	if path := c.String("samples-image"); path != "" {
		if err := renderer.SavePNG(path, img.SampleImage()); err != nil {
			return err
		}
	}
	if path := c.String("cache-image"); path != "" {
		cache := session.Cache()
		if cache == nil {
			logger.Warning("no irradiance cache was built, skipping the cache image")
		} else if err := renderer.SavePNG(path, renderer.CacheImage(cache)); err != nil {
			return err
		}
	}
	logger.Noticef("saved %s and %s", c.String("out"), c.String("depth-out"))
	return nil
}
