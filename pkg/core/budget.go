package core

// Budget is the remaining recursion allowance of a shading path. It is passed
// by value so each branch of the path tree consumes its own copy.
type Budget struct {
	Specular int // Reflection and refraction bounces left
	Diffuse  int // Indirect (hemisphere) bounces left
	Depth    int // Bounces already taken to reach the current hit
}

// NewBudget creates a budget for a primary ray
func NewBudget(specular, diffuse int) Budget {
	return Budget{Specular: specular, Diffuse: diffuse}
}

// CanReflect reports whether a reflection or refraction ray may be spawned
func (b Budget) CanReflect() bool {
	return b.Specular > 0
}

// CanGather reports whether indirect light may still be sampled recursively.
// When false, indirect light falls back to the ambient estimate.
func (b Budget) CanGather() bool {
	return b.Diffuse > 0
}

// IsPrimary reports whether the current hit was reached directly from the camera
func (b Budget) IsPrimary() bool {
	return b.Depth == 0
}

// Reflect returns the budget for a reflection or refraction ray
func (b Budget) Reflect() Budget {
	b.Specular--
	b.Depth++
	return b
}

// Gather returns the budget for an indirect hemisphere ray
func (b Budget) Gather() Budget {
	b.Diffuse--
	b.Depth++
	return b
}
