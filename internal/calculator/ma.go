package calculator

import (
	"errors"
)

// ErrEmptySeries is returned by functions that need at least one observation.
var ErrEmptySeries = errors.New("empty series")

// SMA computes the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySeries
	}
	return SMA(values, len(values))
}

// MeanOr returns the mean of values, or fallback when values is empty.
func MeanOr(values []float64, fallback float64) float64 {
	m, err := Mean(values)
	if err != nil {
		return fallback
	}
	return m
}
