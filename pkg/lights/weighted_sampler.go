package lights

import (
	"fmt"
)

// WeightedSampler selects photon sources with fixed probabilities.
// Weights are normalized to sum to 1.0.
type WeightedSampler struct {
	sources []PhotonSource
	weights []float64
}

// NewWeightedSampler creates a sampler over sources with the given weights.
// A zero total weight falls back to a uniform distribution.
func NewWeightedSampler(sources []PhotonSource, weights []float64) (*WeightedSampler, error) {
	if len(sources) != len(weights) {
		return nil, fmt.Errorf("lights: %d sources but %d weights", len(sources), len(weights))
	}

	totalWeight := 0.0
	for _, weight := range weights {
		if weight < 0 {
			return nil, fmt.Errorf("lights: negative weight %g", weight)
		}
		totalWeight += weight
	}

	normalized := make([]float64, len(weights))
	for i, weight := range weights {
		if totalWeight == 0 {
			normalized[i] = 1.0 / float64(len(weights))
		} else {
			normalized[i] = weight / totalWeight
		}
	}
	return &WeightedSampler{sources: sources, weights: normalized}, nil
}

// NewLuminanceSampler weights every photon source by the luminance of its photon intensity
func NewLuminanceSampler(sources []PhotonSource) (*WeightedSampler, error) {
	weights := make([]float64, len(sources))
	for i, source := range sources {
		weights[i] = source.PhotonIntensity().Luminance()
	}
	return NewWeightedSampler(sources, weights)
}

// PhotonSources returns the lights that can emit photons
func PhotonSources(all []Light) []PhotonSource {
	var sources []PhotonSource
	for _, light := range all {
		if source, ok := light.(PhotonSource); ok && source.IsPhotonSource() {
			sources = append(sources, source)
		}
	}
	return sources
}

// Sample selects a source using the cumulative distribution.
// Returns the source, its selection probability and its index.
func (ws *WeightedSampler) Sample(u float64) (PhotonSource, float64, int) {
	if len(ws.sources) == 0 {
		return nil, 0, -1
	}

	var cumulative float64
	for i := range ws.sources {
		cumulative += ws.weights[i]
		if u <= cumulative {
			return ws.sources[i], ws.weights[i], i
		}
	}

	// Rounding can leave u just above the final cumulative value
	last := len(ws.sources) - 1
	return ws.sources[last], ws.weights[last], last
}

// Probability returns the selection probability of the source at index
func (ws *WeightedSampler) Probability(index int) float64 {
	if index < 0 || index >= len(ws.weights) {
		return 0
	}
	return ws.weights[index]
}

// Count returns the number of sources
func (ws *WeightedSampler) Count() int {
	return len(ws.sources)
}
