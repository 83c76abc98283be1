package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoother_FirstUpdateSeeds(t *testing.T) {
	s := NewSmoother(3, 0.5, 0.5)
	assert.Equal(t, []int{10, 20, 30}, s.Update([]float64{10, 20, 30}))
}

func TestSmoother_AsymmetricFactors(t *testing.T) {
	s := NewSmoother(1, 1, 0)
	var got []int
	for _, v := range []float64{0, 50, 0} {
		got = append(got, s.Update([]float64{v})[0])
	}
	assert.Equal(t, []int{0, 50, 50}, got)
}

func TestSmoother_Blend(t *testing.T) {
	s := NewSmoother(1, 0.5, 0.25)
	s.Update([]float64{40})
	assert.Equal(t, []int{70}, s.Update([]float64{100})) // 40*0.5 + 100*0.5
	assert.Equal(t, []int{53}, s.Update([]float64{0}))   // 70*0.75 = 52.5
}

func TestSmoother_FactorsClamped(t *testing.T) {
	s := NewSmoother(1, 7, -3)
	s.Update([]float64{10})
	assert.Equal(t, []int{90}, s.Update([]float64{90}))
	assert.Equal(t, []int{90}, s.Update([]float64{0}))
}

func TestSmoother_LengthMismatch(t *testing.T) {
	s := NewSmoother(2, 1, 1)
	assert.Equal(t, []int{1, 2}, s.Update([]float64{1, 2, 3, 4}))
	assert.Equal(t, []int{5, 2}, s.Update([]float64{5}))
	assert.Equal(t, 2, s.Channels())
}

func TestSmoother_OutputBounded(t *testing.T) {
	s := NewSmoother(1, 0.3, 0.7)
	for _, v := range []float64{0, 100, 0, 100, 37, 99, 1} {
		out := s.Update([]float64{v})[0]
		assert.GreaterOrEqual(t, out, 0)
		assert.LessOrEqual(t, out, 100)
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(1, 0, 0)
	s.Update([]float64{10})
	s.Reset()
	assert.Equal(t, []int{80}, s.Update([]float64{80}))
}
