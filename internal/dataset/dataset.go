// Package dataset generates reproducible noisy measurement series from the
// closed-form oscillator.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/phys-praktikum/fplab/internal/oscillator"
)

// ErrInvalidConfig indicates a sampling configuration outside valid bounds.
var ErrInvalidConfig = errors.New("dataset: invalid config")

// FreeConfig controls sampling of the free damped oscillation.
type FreeConfig struct {
	Dt       float64 // time step
	Duration float64 // total time span
	Sigma    float64 // absolute Gaussian noise level on the position
}

func (c FreeConfig) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt = %g", ErrInvalidConfig, c.Dt)
	}
	if c.Duration < c.Dt {
		return fmt.Errorf("%w: duration = %g shorter than dt = %g", ErrInvalidConfig, c.Duration, c.Dt)
	}
	if c.Sigma < 0 {
		return fmt.Errorf("%w: sigma = %g", ErrInvalidConfig, c.Sigma)
	}
	return nil
}

// DrivenConfig controls sampling of the driven steady-state response over a
// uniform grid of driving angular frequencies.
type DrivenConfig struct {
	OmegaMin   float64
	OmegaMax   float64
	Steps      int
	SigmaAmp   float64 // Gaussian noise level on the amplitude
	RelAmp     bool    // interpret SigmaAmp relative to the local amplitude
	SigmaPhase float64 // absolute Gaussian noise level on the phase
}

func (c DrivenConfig) validate() error {
	if c.Steps < 2 {
		return fmt.Errorf("%w: steps = %d", ErrInvalidConfig, c.Steps)
	}
	if c.OmegaMin < 0 || c.OmegaMax <= c.OmegaMin {
		return fmt.Errorf("%w: omega range [%g, %g]", ErrInvalidConfig, c.OmegaMin, c.OmegaMax)
	}
	if c.SigmaAmp < 0 || c.SigmaPhase < 0 {
		return fmt.Errorf("%w: sigma_amp = %g, sigma_phase = %g", ErrInvalidConfig, c.SigmaAmp, c.SigmaPhase)
	}
	return nil
}

// Generator produces noisy datasets from an oscillator. The noise source is
// seeded, so identical seeds reproduce identical datasets.
type Generator struct {
	osc oscillator.Oscillator
	rng *rand.Rand
}

func NewGenerator(osc oscillator.Oscillator, seed int64) *Generator {
	return &Generator{osc: osc, rng: rand.New(rand.NewSource(seed))}
}

// Free samples the free damped displacement on a uniform time grid and adds
// Gaussian noise. The per-sample uncertainty column records the noise sigma.
func (g *Generator) Free(cfg FreeConfig) (*FreeSeries, error) {
	if err := g.osc.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	n := int(math.Round(cfg.Duration/cfg.Dt)) + 1
	samples := make([]FreeSample, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * cfg.Dt
		samples = append(samples, FreeSample{
			T:     t,
			X:     g.osc.Displacement(t) + g.rng.NormFloat64()*cfg.Sigma,
			Sigma: cfg.Sigma,
		})
	}
	return &FreeSeries{Osc: g.osc, Cfg: cfg, Samples: samples}, nil
}

// Driven samples the steady-state amplitude and phase on a uniform frequency
// grid and adds Gaussian noise. Amplitude noise is absolute or, with RelAmp,
// proportional to the local amplitude; the per-sample sigmas record whichever
// was used. Positive damping is required so the response stays finite across
// the grid.
func (g *Generator) Driven(cfg DrivenConfig) (*DrivenSeries, error) {
	if err := g.osc.Validate(); err != nil {
		return nil, err
	}
	if g.osc.Delta == 0 {
		return nil, fmt.Errorf("%w: driven response requires positive damping", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	step := (cfg.OmegaMax - cfg.OmegaMin) / float64(cfg.Steps-1)
	samples := make([]DrivenSample, 0, cfg.Steps)
	for i := 0; i < cfg.Steps; i++ {
		w := cfg.OmegaMin + float64(i)*step
		amp := g.osc.ResponseAmplitude(w)
		sigmaAmp := cfg.SigmaAmp
		if cfg.RelAmp {
			sigmaAmp *= math.Abs(amp)
		}
		samples = append(samples, DrivenSample{
			Omega:      w,
			Amp:        amp + g.rng.NormFloat64()*sigmaAmp,
			SigmaAmp:   sigmaAmp,
			Phase:      g.osc.PhaseShift(w) + g.rng.NormFloat64()*cfg.SigmaPhase,
			SigmaPhase: cfg.SigmaPhase,
		})
	}
	return &DrivenSeries{Osc: g.osc, Cfg: cfg, Samples: samples}, nil
}
