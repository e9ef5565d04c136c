package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/phys-praktikum/fplab/internal/fit"
)

// ErrNoData reports a series too short for the requested diagnostic.
var ErrNoData = errors.New("analysis: not enough data")

// DominantFrequency returns the angular frequency of the strongest non-DC
// component of xs, sampled at spacing dt. The series is zero-padded to a
// power-of-two length before the transform, so the result is quantized to
// the bin width 2*pi/(n*dt).
func DominantFrequency(xs []float64, dt float64) (float64, error) {
	if len(xs) < 4 {
		return 0, fmt.Errorf("%w: %d samples for spectrum", ErrNoData, len(xs))
	}
	if dt <= 0 {
		return 0, fmt.Errorf("analysis: non-positive sample spacing %g", dt)
	}

	padded := NextPow2(xs)
	ps := PowerSpectrum(padded)

	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return 2 * math.Pi * float64(best) / (float64(len(padded)) * dt), nil
}

// Peak is a local extremum of the absolute displacement.
type Peak struct {
	T float64
	X float64
}

// Peaks extracts the local maxima of |xs| together with their times. The
// first and last samples are never reported as peaks.
func Peaks(ts, xs []float64) ([]Peak, error) {
	if len(ts) != len(xs) {
		return nil, fmt.Errorf("analysis: %d times for %d values", len(ts), len(xs))
	}

	var peaks []Peak
	for i := 1; i < len(xs)-1; i++ {
		v := math.Abs(xs[i])
		if v > 0 && v >= math.Abs(xs[i-1]) && v > math.Abs(xs[i+1]) {
			peaks = append(peaks, Peak{T: ts[i], X: v})
		}
	}
	return peaks, nil
}

// DampingEstimate recovers the exponential decay constant of an oscillation
// by fitting a line to the log of its envelope. The absolute extrema of the
// series decay as A0*exp(-delta*t), so the slope of ln|peak| against time is
// -delta.
func DampingEstimate(ts, xs []float64) (float64, error) {
	peaks, err := Peaks(ts, xs)
	if err != nil {
		return 0, err
	}
	if len(peaks) < 3 {
		return 0, fmt.Errorf("%w: %d envelope peaks for damping fit", ErrNoData, len(peaks))
	}

	pts := make([]float64, len(peaks))
	logs := make([]float64, len(peaks))
	for i, p := range peaks {
		pts[i] = p.T
		logs[i] = math.Log(p.X)
	}

	res, err := fit.LeastSquares(pts, logs, fit.Polynomial(1))
	if err != nil {
		return 0, fmt.Errorf("analysis: envelope fit: %w", err)
	}
	return -res.Coeffs[1], nil
}
