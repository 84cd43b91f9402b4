package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-photon-raytracer/pkg/core"
	"github.com/df07/go-photon-raytracer/pkg/integrator"
	"github.com/df07/go-photon-raytracer/pkg/irradiance"
	"github.com/df07/go-photon-raytracer/pkg/log"
	"github.com/df07/go-photon-raytracer/pkg/photon"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

var logger = log.New("renderer")

// Phase is the stage a render session is in
type Phase int32

const (
	PhaseIdle Phase = iota
	PhasePhotons
	PhaseCache
	PhasePixels
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePhotons:
		return "photon map"
	case PhaseCache:
		return "irradiance cache"
	case PhasePixels:
		return "pixels"
	case PhaseDone:
		return "done"
	}
	return "idle"
}

// Session owns the mutable state of one render: the framebuffer, the pixel
// cursor, the photon map and the irradiance cache. The scene it renders is
// read-only while the session runs.
type Session struct {
	scene  *scene.Scene
	config scene.SamplingConfig
	pool   *WorkerPool

	// Seed for the per-worker samplers
	Seed int64

	mu      sync.Mutex
	image   *RenderImage
	cache   *irradiance.Cache
	photons *photon.Map
	cancel  context.CancelFunc
	done    chan struct{}
	stats   RenderStats
	err     error

	rendering atomic.Bool
	phase     atomic.Int32
}

// NewSession creates a session for a scene populated by a loader
func NewSession(s *scene.Scene) *Session {
	return &Session{
		scene:  s,
		config: s.SamplingConfig,
		pool:   NewWorkerPool(s.SamplingConfig.NumWorkers),
		Seed:   time.Now().UnixNano(),
	}
}

// Begin validates the scene and starts rendering in the background.
// Configuration errors are returned before any worker starts.
func (s *Session) Begin(ctx context.Context) error {
	if !s.rendering.CompareAndSwap(false, true) {
		return ErrRenderInProgress
	}

	if err := s.prepare(); err != nil {
		s.rendering.Store(false)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.err = nil
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// prepare validates the scene and allocates the render buffers
func (s *Session) prepare() error {
	if err := s.scene.Preprocess(); err != nil {
		return err
	}
	s.config = s.scene.SamplingConfig

	cfg := s.scene.CameraConfig
	var cache *irradiance.Cache
	if s.useCache() {
		c := s.config.Cache
		thresholds := irradiance.Thresholds{Color: c.ColorThreshold, Z: c.ZThreshold, Normal: c.NormalThreshold}
		var err error
		cache, err = irradiance.New(cfg.Width, cfg.Height, c.MinSubdiv, c.MaxSubdiv, thresholds)
		if err != nil {
			return fmt.Errorf("%w: %w", scene.ErrBadConfig, err)
		}
	}

	s.mu.Lock()
	s.image = NewRenderImage(cfg.Width, cfg.Height, s.config.Gamma)
	s.cache = cache
	s.photons = nil
	s.mu.Unlock()
	s.phase.Store(int32(PhaseIdle))
	return nil
}

// useCache reports whether primary hits read indirect light from the cache
func (s *Session) useCache() bool {
	return s.config.Cache.Enabled && s.config.Integrator != scene.IntegratorDirect
}

func (s *Session) run(ctx context.Context) {
	start := time.Now()
	err := s.render(ctx)
	// Completion is the pixel counter reaching the total, not the workers returning
	if err == nil && !s.image.IsComplete() {
		err = ErrIncomplete
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("render failed: %v", err)
	}

	s.mu.Lock()
	img := s.image
	s.stats = collectStats(img, s.config.MaxSamples)
	s.stats.Workers = s.pool.GetNumWorkers()
	s.stats.Primitives = s.scene.GetPrimitiveCount()
	s.stats.Elapsed = time.Since(start)
	if s.photons != nil {
		st := s.photons.Stats()
		s.stats.Photons = &st
	}
	if s.cache != nil {
		st := s.cache.Stats()
		s.stats.Cache = &st
	}
	s.err = err
	s.cancel()
	done := s.done
	s.mu.Unlock()

	s.phase.Store(int32(PhaseDone))
	s.rendering.Store(false)
	logger.Noticef("render %s in %s, %d of %d pixels", s.stats.status(), FormatDuration(s.stats.Elapsed), img.RenderedCount(), img.Width()*img.Height())
	close(done)
}

func (s *Session) render(ctx context.Context) error {
	if !s.scene.IsPrepared() {
		return scene.ErrNotPrepared
	}

	var photons *photon.Map
	if s.config.Integrator == scene.IntegratorPhoton {
		// Single-threaded, and complete before any worker starts
		s.phase.Store(int32(PhasePhotons))
		sampler := core.NewRandomSampler(rand.New(rand.NewSource(s.Seed)))
		m, err := photon.Build(ctx, s.scene, s.config.Photon, sampler)
		if err != nil {
			return fmt.Errorf("building photon map: %w", err)
		}
		photons = m
		s.mu.Lock()
		s.photons = m
		s.mu.Unlock()
	}

	if s.cache != nil {
		s.phase.Store(int32(PhaseCache))
		logger.Infof("filling irradiance cache with %d workers", s.pool.GetNumWorkers())
		err := s.pool.Run(ctx, func(ctx context.Context, worker int) error {
			tracer := integrator.NewTracer(s.scene, integrator.Options{Photons: photons, Seed: s.Seed + int64(worker) + 1})
			for ctx.Err() == nil {
				if !s.cache.ComputeNext(tracer.CachePoint) {
					return nil
				}
			}
			return ctx.Err()
		})
		if err != nil {
			return err
		}
		s.cache.LogStats()
	}

	s.phase.Store(int32(PhasePixels))
	logger.Infof("rendering %dx%d with %d workers", s.image.Width(), s.image.Height(), s.pool.GetNumWorkers())
	pixels := NewPixelIterator(s.image.Width(), s.image.Height())
	return s.pool.Run(ctx, func(ctx context.Context, worker int) error {
		tracer := integrator.NewTracer(s.scene, integrator.Options{
			Photons: photons,
			Cache:   s.cache,
			Seed:    s.Seed + int64(s.pool.GetNumWorkers()+worker) + 1,
		})
		for ctx.Err() == nil {
			x, y, ok := pixels.Next()
			if !ok {
				return nil
			}
			result := tracer.RenderPixel(x, y)
			s.image.SetPixel(x, y, result.Color, result.Z, result.Samples)
		}
		return ctx.Err()
	})
}

// Stop cancels a running render. Pixels already being shaded finish first.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the render finishes and returns its statistics
func (s *Session) Wait() (RenderStats, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return RenderStats{}, ErrNotStarted
	}
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, s.err
}

// Done returns a channel closed when the current render finishes. It is nil
// before the first Begin.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Render runs a whole render and waits for it
func (s *Session) Render(ctx context.Context) (RenderStats, error) {
	if err := s.Begin(ctx); err != nil {
		return RenderStats{}, err
	}
	return s.Wait()
}

// IsRendering reports whether a render is in progress
func (s *Session) IsRendering() bool {
	return s.rendering.Load()
}

// Phase returns the current stage and its completion fraction
func (s *Session) Phase() (Phase, float64) {
	phase := Phase(s.phase.Load())
	s.mu.Lock()
	img, cache := s.image, s.cache
	s.mu.Unlock()

	switch phase {
	case PhaseCache:
		return phase, cache.Progress()
	case PhasePixels, PhaseDone:
		return phase, img.Progress()
	}
	return phase, 0
}

// Image returns the framebuffer of the current or last render
func (s *Session) Image() (*RenderImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image == nil {
		return nil, ErrNotStarted
	}
	return s.image, nil
}

// Snapshot copies the framebuffer as it is now, for display while rendering
func (s *Session) Snapshot() (*image.RGBA, error) {
	img, err := s.Image()
	if err != nil {
		return nil, err
	}
	return img.Snapshot(), nil
}

// Cache returns the irradiance cache, or nil when it is disabled
func (s *Session) Cache() *irradiance.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}
