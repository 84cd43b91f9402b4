package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-photon-raytracer/pkg/loaders"
	"github.com/df07/go-photon-raytracer/pkg/log"
	"github.com/df07/go-photon-raytracer/pkg/renderer"
	"github.com/df07/go-photon-raytracer/pkg/scene"
)

var logger = log.New("web")

// ErrUnknownScene is returned for scene names with no built-in or file scene
var ErrUnknownScene = errors.New("server: unknown scene")

// Server streams renders to the browser
type Server struct {
	port      int
	scenesDir string
	interval  time.Duration // Time between preview frames
	console   *Console
}

// NewServer creates a new web server serving JSON scenes from scenesDir.
// Log output is mirrored to the console of every active render.
func NewServer(port int, scenesDir string) *Server {
	console := NewConsole()
	log.SetSink(io.MultiWriter(os.Stderr, console))
	return &Server{
		port:      port,
		scenesDir: scenesDir,
		interval:  250 * time.Millisecond,
		console:   console,
	}
}

// RenderRequest represents a render request from the client. Zero values
// keep the scene's own settings.
type RenderRequest struct {
	Scene      string           `json:"scene"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	MinSamples int              `json:"minSamples"`
	MaxSamples int              `json:"maxSamples"`
	Integrator scene.Integrator `json:"integrator"`
	Cache      bool             `json:"cache"`
}

// ProgressUpdate represents a single preview frame sent via SSE
type ProgressUpdate struct {
	Phase      string  `json:"phase"`
	Progress   float64 `json:"progress"`
	ImageData  string  `json:"imageData"` // Base64 encoded PNG
	Stats      *Stats  `json:"stats,omitempty"`
	IsComplete bool    `json:"isComplete"`
	ElapsedMs  int64   `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int64   `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MaxSamples     int     `json:"maxSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
	Photons        int     `json:"photons,omitempty"`
	CachePoints    int     `json:"cachePoints,omitempty"`
	CacheComputed  int64   `json:"cacheComputed,omitempty"`
	Primitives     int     `json:"primitives"`
	Complete       bool    `json:"complete"`
}

func newStats(rs renderer.RenderStats) *Stats {
	stats := &Stats{
		TotalPixels:    rs.TotalPixels,
		TotalSamples:   int64(rs.TotalSamples),
		AverageSamples: rs.AverageSamples,
		MaxSamples:     rs.MaxSamples,
		MinSamples:     rs.MinSamples,
		MaxSamplesUsed: rs.MaxSamplesUsed,
		Primitives:     rs.Primitives,
		Complete:       rs.Complete,
	}
	if rs.Photons != nil {
		stats.Photons = rs.Photons.Stored
	}
	if rs.Cache != nil {
		stats.CachePoints = rs.Cache.Points
		stats.CacheComputed = int64(rs.Cache.Computed)
	}
	return stats
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir("static/")))
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	logger.Noticef("starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleRender renders a scene and streams preview frames with SSE until the
// render completes or the client disconnects
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.sendSSEError(w, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	sceneObj, err := s.createScene(req.Scene)
	if err != nil {
		s.sendSSEError(w, err.Error())
		return
	}
	req.apply(sceneObj)

	console, unsubscribe := s.console.Subscribe(100)
	defer unsubscribe()

	ctx := r.Context()
	session := renderer.NewSession(sceneObj)
	if err := session.Begin(ctx); err != nil {
		s.sendSSEError(w, fmt.Sprintf("Render error: %v", err))
		return
	}

	start := time.Now()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for done := false; !done; {
		select {
		case <-ctx.Done():
			session.Stop()
			session.Wait()
			return
		case msg := <-console:
			if data, err := json.Marshal(msg); err == nil {
				s.sendSSEEvent(w, "console", string(data))
			}
		case <-ticker.C:
			if err := s.sendFrame(w, session, start, nil); err != nil {
				session.Stop()
			}
		case <-session.Done():
			done = true
		}
	}

	stats, err := session.Wait()
	if err != nil {
		s.sendSSEError(w, fmt.Sprintf("Render error: %v", err))
		return
	}
	s.sendFrame(w, session, start, newStats(stats))
	s.sendSSEEvent(w, "complete", "Rendering completed")
}

// sendFrame sends the current framebuffer. stats is set on the final frame.
func (s *Server) sendFrame(w http.ResponseWriter, session *renderer.Session, start time.Time, stats *Stats) error {
	snapshot, err := session.Snapshot()
	if err != nil {
		return err
	}
	imageData, err := s.imageToBase64PNG(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	phase, progress := session.Phase()
	return s.sendSSEUpdate(w, ProgressUpdate{
		Phase:      phase.String(),
		Progress:   progress,
		ImageData:  imageData,
		Stats:      stats,
		IsComplete: stats != nil,
		ElapsedMs:  time.Since(start).Milliseconds(),
	})
}

func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, 8, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 0, 8, 2000); err != nil {
		return nil, err
	}
	if req.MinSamples, err = parseIntParam(query, "minSamples", 0, 1, 1000); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(query, "maxSamples", 0, 1, 10000); err != nil {
		return nil, err
	}
	if name := query.Get("integrator"); name != "" {
		if req.Integrator, err = scene.ParseIntegrator(name); err != nil {
			return nil, err
		}
	}
	req.Cache = query.Get("cache") == "true"

	if req.Width*req.Height > 800*600 && req.MaxSamples > 100 {
		logger.Warning("large image with high samples may render slowly")
	}
	return req, nil
}

// apply overrides the scene settings named by the request
func (req *RenderRequest) apply(s *scene.Scene) {
	if req.Width > 0 {
		s.CameraConfig.Width = req.Width
	}
	if req.Height > 0 {
		s.CameraConfig.Height = req.Height
	}
	cfg := &s.SamplingConfig
	if req.MinSamples > 0 {
		cfg.MinSamples = req.MinSamples
	}
	if req.MaxSamples > 0 {
		cfg.MaxSamples = req.MaxSamples
	}
	cfg.MinSamples = min(cfg.MinSamples, cfg.MaxSamples)
	if req.Integrator != "" {
		cfg.Integrator = req.Integrator
	}
	if req.Cache {
		cfg.Cache.Enabled = true
	}
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene returns the built-in default scene or loads <name>.json from the scenes directory
func (s *Server) createScene(name string) (*scene.Scene, error) {
	if name == "default" {
		return scene.NewDefaultScene(), nil
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	path := filepath.Join(s.scenesDir, name+".json")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return loaders.LoadScene(path)
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// sendSSEUpdate sends a progress update via SSE
func (s *Server) sendSSEUpdate(w http.ResponseWriter, update ProgressUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return s.sendSSEEvent(w, "progress", string(data))
}

// sendSSEError sends an error via SSE
func (s *Server) sendSSEError(w http.ResponseWriter, message string) error {
	return s.sendSSEEvent(w, "error", message)
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	if flusher, ok := w.(http.Flusher); ok {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = "default"
	}

	sceneObj, err := s.createScene(sceneName)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	cam := sceneObj.CameraConfig
	config := sceneObj.SamplingConfig
	response := map[string]interface{}{
		"scene": sceneName,
		"defaults": map[string]interface{}{
			"width":             cam.Width,
			"height":            cam.Height,
			"minSamples":        config.MinSamples,
			"maxSamples":        config.MaxSamples,
			"varianceThreshold": config.VarianceThreshold,
			"maxBounces":        config.MaxBounces,
			"integrator":        config.Integrator,
			"cache":             config.Cache.Enabled,
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": 8, "max": 2000},
			"height":     map[string]int{"min": 8, "max": 2000},
			"minSamples": map[string]int{"min": 1, "max": 1000},
			"maxSamples": map[string]int{"min": 1, "max": 10000},
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
