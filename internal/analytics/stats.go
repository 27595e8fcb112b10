package analytics

import "math"

// WindowStats holds the trailing-window mean and standard deviation at one
// position of a series.
type WindowStats struct {
	Mean float64
	Std  float64
}

// MeanStd returns the arithmetic mean and sample standard deviation (N-1
// denominator) of values. A single value has a standard deviation of 0 and an
// empty slice yields zeros.
func MeanStd(values []float64) (mean, std float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	if n == 1 {
		return mean, 0
	}

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(n - 1)

	return mean, math.Sqrt(variance)
}

// RollingStats computes, for every position i, the mean and standard deviation
// of values[max(0, i-window+1) : i+1]. The window narrows at the start of the
// series, so position 0 always has Std == 0.
func RollingStats(values []float64, window int) []WindowStats {
	if window < 1 {
		window = 1
	}

	out := make([]WindowStats, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		mean, std := MeanStd(values[start : i+1])
		out[i] = WindowStats{Mean: mean, Std: std}
	}
	return out
}

// LinearFit fits y = slope*x + intercept by ordinary least squares. When x has
// no variance (including a single point) the slope is 0 and the intercept is
// the mean of y.
func LinearFit(xs, ys []float64) (slope, intercept float64) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n == 0 {
		return 0, 0
	}

	xMean, _ := MeanStd(xs[:n])
	yMean, _ := MeanStd(ys[:n])

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - xMean
		sxx += dx * dx
		sxy += dx * (ys[i] - yMean)
	}

	if sxx == 0 {
		return 0, yMean
	}

	slope = sxy / sxx
	return slope, yMean - slope*xMean
}
