package calculator

import (
	"math"
)

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values))), nil
}

// CoefficientOfVariation returns StdDev/Mean. A zero mean yields 0.
func CoefficientOfVariation(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, err
	}
	if mean == 0 {
		return 0, nil
	}
	sd, _ := StdDev(values)
	return sd / math.Abs(mean), nil
}

// PercentChange returns the change from prev to next in percent. A zero prev yields 0.
func PercentChange(prev, next float64) float64 {
	if prev == 0 {
		return 0
	}
	return (next - prev) / prev * 100
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
