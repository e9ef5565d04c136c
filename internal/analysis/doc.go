// Package analysis provides spectral and envelope diagnostics for recorded
// oscillator datasets.
//
// The package includes tools for recovering physical parameters from data:
//
//   - [DominantFrequency]: angular frequency of the strongest spectral line
//   - [Peaks]: local extrema of the absolute displacement
//   - [DampingEstimate]: decay constant from a log-linear envelope fit
//   - [PowerSpectrum]: one-sided power spectrum via radix-2 FFT
//
// # Parameter Recovery
//
// A free-decay dataset determines both the damped frequency and the damping
// constant:
//
//	omega, _ := analysis.DominantFrequency(xs, dt)
//	delta, _ := analysis.DampingEstimate(ts, xs)
package analysis
