package scene

import (
	"fmt"
	"strings"
)

// Integrator selects how indirect light is estimated
type Integrator string

const (
	IntegratorDirect    Integrator = "direct"    // Direct light, ambient lights and specular recursion
	IntegratorPathTrace Integrator = "pathtrace" // Direct plus Monte-Carlo hemisphere sampling
	IntegratorPhoton    Integrator = "photon"    // Direct plus the photon map estimate
)

// ParseIntegrator converts a name into an Integrator
func ParseIntegrator(name string) (Integrator, error) {
	switch mode := Integrator(strings.ToLower(strings.TrimSpace(name))); mode {
	case IntegratorDirect, IntegratorPathTrace, IntegratorPhoton:
		return mode, nil
	}
	return "", fmt.Errorf("%w: unknown integrator %q", ErrBadConfig, name)
}

// PhotonConfig controls the photon map pre-pass
type PhotonConfig struct {
	MaxPhotons  int     // Photons stored before emission stops
	MaxEmitted  int     // Photons emitted before emission stops, even if few were stored
	MaxBounces  int     // Bounces traced per photon
	NearestK    int     // Photons gathered per estimate
	Radius      float64 // Search radius of an estimate
	StoreDirect bool    // Also store photons arriving straight from a light
}

// CacheConfig controls the irradiance cache
type CacheConfig struct {
	Enabled         bool
	MinSubdiv       int     // Coarsest level; negative means 2^-MinSubdiv pixels apart
	MaxSubdiv       int     // Finest level; zero means one point per pixel
	ColorThreshold  float64 // Largest per-channel difference for neighbors to be similar
	ZThreshold      float64 // Largest depth difference for neighbors to be similar
	NormalThreshold float64 // Smallest normal dot product for neighbors to be similar
	Samples         int     // Hemisphere samples per computed point
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	MinSamples        int        // Samples taken before the variance test applies
	MaxSamples        int        // Upper bound on samples per pixel
	VarianceThreshold float64    // Standard error of luminance at which sampling stops
	MaxBounces        int        // Reflection and refraction depth
	IndirectDepth     int        // Hemisphere gather depth
	IndirectSamples   int        // Hemisphere samples per gather
	Gamma             float64    // Output gamma, 1 disables correction
	Integrator        Integrator // Indirect light strategy
	NumWorkers        int        // Render goroutines, zero for one per core
	Photon            PhotonConfig
	Cache             CacheConfig
}

// DefaultSamplingConfig returns the configuration used when a scene does not override it
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		MinSamples:        4,
		MaxSamples:        64,
		VarianceThreshold: 0.005,
		MaxBounces:        5,
		IndirectDepth:     1,
		IndirectSamples:   8,
		Gamma:             2.2,
		Integrator:        IntegratorDirect,
		Photon: PhotonConfig{
			MaxPhotons: 100000,
			MaxEmitted: 1000000,
			MaxBounces: 8,
			NearestK:   100,
			Radius:     1.0,
		},
		Cache: CacheConfig{
			MinSubdiv:       -4,
			MaxSubdiv:       0,
			ColorThreshold:  0.05,
			ZThreshold:      1.0,
			NormalThreshold: 0.7,
			Samples:         64,
		},
	}
}

// Validate checks the configuration for values that cannot render
func (c SamplingConfig) Validate() error {
	if c.MinSamples < 1 || c.MaxSamples < c.MinSamples {
		return fmt.Errorf("%w: samples min=%d max=%d", ErrBadConfig, c.MinSamples, c.MaxSamples)
	}
	if c.MaxBounces < 0 || c.IndirectDepth < 0 || c.IndirectSamples < 0 {
		return fmt.Errorf("%w: negative depth or sample count", ErrBadConfig)
	}
	if c.Gamma <= 0 {
		return fmt.Errorf("%w: gamma %g", ErrBadConfig, c.Gamma)
	}
	if _, err := ParseIntegrator(string(c.Integrator)); err != nil {
		return err
	}
	if c.Integrator == IntegratorPhoton && (c.Photon.NearestK < 1 || c.Photon.Radius <= 0 || c.Photon.MaxPhotons < 1) {
		return fmt.Errorf("%w: photon map needs k, radius and capacity", ErrBadConfig)
	}
	if c.Cache.Enabled {
		if c.Cache.MaxSubdiv < c.Cache.MinSubdiv {
			return fmt.Errorf("%w: cache subdivision min=%d max=%d", ErrBadConfig, c.Cache.MinSubdiv, c.Cache.MaxSubdiv)
		}
		if c.Cache.Samples < 1 {
			return fmt.Errorf("%w: cache needs at least one sample", ErrBadConfig)
		}
	}
	return nil
}
