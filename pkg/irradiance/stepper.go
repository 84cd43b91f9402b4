package irradiance

// claim is one grid location handed out by the stepper
type claim struct {
	subdiv   int
	phase    int
	x, y     int
	halfSkip int // Distance to the neighbors used for estimation
}

// stepper walks the sample grid coarse to fine. Each level first visits a
// regular lattice (phase 0, coarsest level only), then the centers of its
// squares (phase 1), then the midpoints of its edges (phase 2), which leaves a
// lattice of half the spacing for the next level.
//
// Transitions after handing out (x, y):
//
//	x += skipX
//	x past the row end:     y += skipY, x restarts for the phase (see below)
//	y past the last row:    phase 0 -> 1 (subdiv+1), 1 -> 2, 2 -> 1 (subdiv+1)
//	entering phase 1:       skip = 2^(max-subdiv+1), x = y = skip/2
//	entering phase 2:       skipY /= 2, x = skipX/2, y = 0
//	row restart, phase 0:   x = 0
//	row restart, phase 1:   x = skipX/2
//	row restart, phase 2:   x = skipX/2 on even rows, 0 on odd rows
//
// The walk is exhausted once subdiv exceeds maxSubdiv.
type stepper struct {
	countX, countY int
	maxSubdiv      int

	subdiv, phase int
	x, y          int
	skipX, skipY  int
}

func newStepper(countX, countY, minSubdiv, maxSubdiv int) stepper {
	skip := 1 << (maxSubdiv - minSubdiv)
	return stepper{
		countX:    countX,
		countY:    countY,
		maxSubdiv: maxSubdiv,
		subdiv:    minSubdiv,
		skipX:     skip,
		skipY:     skip,
	}
}

// next returns the next grid location, or false when the grid is complete
func (s *stepper) next() (claim, bool) {
	for s.subdiv <= s.maxSubdiv {
		c := claim{subdiv: s.subdiv, phase: s.phase, x: s.x, y: s.y, halfSkip: s.skipX / 2}
		s.advance()
		// Small grids can start a pass outside the grid
		if c.x < s.countX && c.y < s.countY {
			return c, true
		}
	}
	return claim{}, false
}

func (s *stepper) advance() {
	s.x += s.skipX
	if s.x < s.countX {
		return
	}

	s.y += s.skipY
	if s.y < s.countY {
		switch s.phase {
		case 0:
			s.x = 0
		case 1:
			s.x = s.skipX / 2
		case 2:
			s.x = (1 - ((s.y / s.skipY) & 1)) * (s.skipX / 2)
		}
		return
	}

	// Pass complete
	if s.phase == 0 {
		s.subdiv++
	}
	s.phase++
	if s.phase > 2 {
		s.subdiv++
		s.phase = 1
	}
	if s.phase == 1 {
		if s.subdiv > s.maxSubdiv {
			return
		}
		s.skipX = 1 << (s.maxSubdiv - s.subdiv + 1)
		s.skipY = s.skipX
		s.x = s.skipX / 2
		s.y = s.skipY / 2
	} else {
		s.skipY /= 2
		s.x = s.skipX / 2
		s.y = 0
	}
}
