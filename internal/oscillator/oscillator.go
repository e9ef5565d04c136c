// Package oscillator provides closed-form damped and driven harmonic
// oscillator formulas.
package oscillator

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for oscillator parameters.
var (
	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("oscillator: parameter out of valid bounds")

	// ErrOverdamped indicates damping at or above the undamped frequency,
	// where no oscillatory solution exists.
	ErrOverdamped = errors.New("oscillator: damping exceeds undamped frequency")
)

// Oscillator models a damped harmonic oscillator with an optional
// sinusoidal drive.
//
// Free motion (underdamped, Delta < Omega0):
//
//	x(t) = A0 exp(-Delta t) cos(omega_d t + Phi)
//	omega_d = sqrt(Omega0^2 - Delta^2)
//
// Steady-state response to a driving acceleration Drive*cos(omega t):
//
//	A(omega)   = Drive / sqrt((Omega0^2 - omega^2)^2 + (2 Delta omega)^2)
//	phi(omega) = -atan2(2 Delta omega, Omega0^2 - omega^2)
type Oscillator struct {
	A0     float64 // initial amplitude
	Omega0 float64 // undamped angular frequency
	Delta  float64 // damping coefficient
	Phi    float64 // initial phase
	Drive  float64 // driving acceleration amplitude F0/m
}

// New returns an oscillator with one oscillation per second and light
// damping.
func New() Oscillator {
	return Oscillator{
		A0:     1.0,
		Omega0: 2 * math.Pi,
		Delta:  0.3,
		Phi:    0,
		Drive:  1.0,
	}
}

// Validate checks the parameters for free motion: Omega0 must be positive,
// Delta non-negative and below Omega0.
func (o Oscillator) Validate() error {
	if o.Omega0 <= 0 {
		return fmt.Errorf("%w: omega0 = %g", ErrParameterBounds, o.Omega0)
	}
	if o.Delta < 0 {
		return fmt.Errorf("%w: delta = %g", ErrParameterBounds, o.Delta)
	}
	if o.Delta >= o.Omega0 {
		return fmt.Errorf("%w: delta = %g, omega0 = %g", ErrOverdamped, o.Delta, o.Omega0)
	}
	return nil
}

// OmegaD returns the damped angular frequency sqrt(Omega0^2 - Delta^2).
// Only meaningful for validated (underdamped) parameters.
func (o Oscillator) OmegaD() float64 {
	return math.Sqrt(o.Omega0*o.Omega0 - o.Delta*o.Delta)
}

// Period returns the period of the damped free oscillation.
func (o Oscillator) Period() float64 {
	return 2 * math.Pi / o.OmegaD()
}

// Quality returns the quality factor Omega0 / (2 Delta).
func (o Oscillator) Quality() float64 {
	return o.Omega0 / (2 * o.Delta)
}

// Displacement returns the free damped displacement at time t.
func (o Oscillator) Displacement(t float64) float64 {
	return o.Envelope(t) * math.Cos(o.OmegaD()*t+o.Phi)
}

// Envelope returns the decay envelope A0 exp(-Delta t).
func (o Oscillator) Envelope(t float64) float64 {
	return o.A0 * math.Exp(-o.Delta*t)
}

// ResponseAmplitude returns the steady-state amplitude of the driven
// oscillator at driving angular frequency w.
func (o Oscillator) ResponseAmplitude(w float64) float64 {
	d := o.Omega0*o.Omega0 - w*w
	return o.Drive / math.Sqrt(d*d+4*o.Delta*o.Delta*w*w)
}

// ResonanceOmega returns the driving frequency of maximum response,
// sqrt(Omega0^2 - 2 Delta^2), or 0 when damping is too strong for a
// resonance peak.
func (o Oscillator) ResonanceOmega() float64 {
	d := o.Omega0*o.Omega0 - 2*o.Delta*o.Delta
	if d <= 0 {
		return 0
	}
	return math.Sqrt(d)
}

// PhaseShift returns the phase of the steady-state response relative to
// the drive at driving angular frequency w. The result is single-valued in
// (-pi, 0] for w >= 0, with no separate branch correction needed: it is 0
// in the static limit, exactly -pi/2 at w = Omega0, and approaches -pi far
// above resonance.
func (o Oscillator) PhaseShift(w float64) float64 {
	return -math.Atan2(2*o.Delta*w, o.Omega0*o.Omega0-w*w)
}

// GetParams returns the tunable parameters by name.
func (o Oscillator) GetParams() map[string]float64 {
	return map[string]float64{
		"a0":     o.A0,
		"omega0": o.Omega0,
		"delta":  o.Delta,
		"phi":    o.Phi,
		"drive":  o.Drive,
	}
}

// SetParam sets a tunable parameter by name.
func (o *Oscillator) SetParam(name string, value float64) error {
	switch name {
	case "a0":
		o.A0 = value
	case "omega0":
		o.Omega0 = value
	case "delta":
		o.Delta = value
	case "phi":
		o.Phi = value
	case "drive":
		o.Drive = value
	default:
		return fmt.Errorf("oscillator: unknown parameter: %s", name)
	}
	return nil
}
