package calculator

import (
	"errors"
	"math"
)

// MinMax scans the most recent window values and returns the low and high.
// A non-positive window scans the whole series.
func MinMax(values []float64, window int) (low, high float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrEmptySeries
	}
	n := len(values)
	start := 0
	if window > 0 && n > window {
		start = n - window
	}
	low = math.Inf(1)
	high = math.Inf(-1)
	for i := start; i < n; i++ {
		if values[i] > high {
			high = values[i]
		}
		if values[i] < low {
			low = values[i]
		}
	}
	return low, high, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, low, high float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
