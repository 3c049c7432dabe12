package cohort

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateEmpty(t *testing.T) {
	s := Calculate(nil)
	assert.Equal(t, Stats{}, s, "empty input yields all-zero statistics")

	s = Calculate([]float64{})
	assert.Equal(t, Stats{}, s)
}

func TestCalculateSingle(t *testing.T) {
	s := Calculate([]float64{42})
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 42.0, s.Mean)
	assert.Equal(t, 42.0, s.Median)
	assert.Equal(t, 42.0, s.P75)
	assert.Equal(t, 42.0, s.P90)
	assert.Equal(t, 42.0, s.Sum)
}

func TestCalculateOddCount(t *testing.T) {
	s := Calculate([]float64{30, 10, 20})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 20.0, s.Mean)
	assert.Equal(t, 20.0, s.Median)
	assert.Equal(t, 60.0, s.Sum)
	// ceil(3*0.75)-1 = 2, ceil(3*0.9)-1 = 2
	assert.Equal(t, 30.0, s.P75)
	assert.Equal(t, 30.0, s.P90)
}

func TestCalculateEvenCount(t *testing.T) {
	s := Calculate([]float64{40, 10, 30, 20})
	assert.Equal(t, 25.0, s.Median, "even count averages the two middle elements")
	// ceil(4*0.75)-1 = 2 -> 30; ceil(4*0.9)-1 = 3 -> 40
	assert.Equal(t, 30.0, s.P75)
	assert.Equal(t, 40.0, s.P90)
}

func TestCalculateTenValues(t *testing.T) {
	vals := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	s := Calculate(vals)
	assert.Equal(t, 55.0, s.Mean)
	assert.Equal(t, 55.0, s.Median)
	// ceil(10*0.75)-1 = 7 -> 80; ceil(10*0.9)-1 = 8 -> 90
	assert.Equal(t, 80.0, s.P75)
	assert.Equal(t, 90.0, s.P90)
	assert.Equal(t, 550.0, s.Sum)
}

func TestCalculateDoesNotMutateInput(t *testing.T) {
	vals := []float64{3, 1, 2}
	_ = Calculate(vals)
	assert.Equal(t, []float64{3, 1, 2}, vals)
}
