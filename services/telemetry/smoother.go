package telemetry

import (
	"hwpanel-go/x/mathx"
)

// Smoother is an asymmetric exponential smoother over a fixed number of
// channels. Rising and falling values blend with independent factors.
type Smoother struct {
	up, down float64
	smoothed []float64
	seeded   []bool
}

// NewSmoother creates a smoother for channels values. Factors are
// clamped to [0,1]; a factor of 1 follows the input exactly and 0 holds.
func NewSmoother(channels int, up, down float64) *Smoother {
	if channels < 0 {
		channels = 0
	}
	return &Smoother{
		up:       mathx.Clamp(up, 0, 1),
		down:     mathx.Clamp(down, 0, 1),
		smoothed: make([]float64, channels),
		seeded:   make([]bool, channels),
	}
}

// Update folds in one sample per channel and returns the rounded values.
// Extra inputs are ignored; channels without an input keep their value.
func (s *Smoother) Update(values []float64) []int {
	n := mathx.Min(len(values), len(s.smoothed))
	for i := 0; i < n; i++ {
		v := values[i]
		if !s.seeded[i] {
			s.smoothed[i] = v
			s.seeded[i] = true
			continue
		}
		prev := s.smoothed[i]
		f := s.down
		if v > prev {
			f = s.up
		}
		s.smoothed[i] = mathx.Lerp(prev, v, f)
	}
	return s.Values()
}

func (s *Smoother) Values() []int {
	out := make([]int, len(s.smoothed))
	for i, v := range s.smoothed {
		out[i] = mathx.RoundInt(v)
	}
	return out
}

func (s *Smoother) Channels() int { return len(s.smoothed) }

// Reset forgets all history; the next Update seeds again.
func (s *Smoother) Reset() {
	for i := range s.smoothed {
		s.smoothed[i] = 0
		s.seeded[i] = false
	}
}
