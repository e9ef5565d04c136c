// Package ensemble validates propagated uncertainties by Monte Carlo
// resampling. Inputs are drawn from the measured values and their
// uncertainties, the formula is evaluated per draw, and the spread of the
// outputs is compared against the propagated sigma. [RunParallel] is the
// underlying seeded concurrent map, reusable for ensembles over whole
// dataset realizations.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/phys-praktikum/fplab/internal/propagate"
	"github.com/phys-praktikum/fplab/internal/symbolic"
)

var (
	// ErrBadCovariance reports a covariance matrix that cannot drive the
	// sampler, either by shape or by failing the Cholesky factorization.
	ErrBadCovariance = errors.New("ensemble: unusable covariance")

	// ErrNoRuns reports a run count below one.
	ErrNoRuns = errors.New("ensemble: run count must be positive")
)

// Runner draws inputs around the measured values and evaluates a formula
// once per draw. Independent draws use each measurement's sigma; a
// covariance installed with [Runner.UseCovariance] switches to correlated
// sampling.
type Runner struct {
	f         symbolic.Expr
	ms        []propagate.Measurement
	lower     *mat.TriDense
	runs      int
	seedStart int64
}

func New(f symbolic.Expr, ms []propagate.Measurement, runs int, seedStart int64) *Runner {
	return &Runner{f: f, ms: ms, runs: runs, seedStart: seedStart}
}

// UseCovariance switches the runner to correlated sampling from the given
// covariance. The matrix must be positive definite and sized to the
// measurements.
func (r *Runner) UseCovariance(cov *mat.SymDense) error {
	if n := cov.SymmetricDim(); n != len(r.ms) {
		return fmt.Errorf("%w: %dx%d for %d variables", ErrBadCovariance, n, n, len(r.ms))
	}

	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return fmt.Errorf("%w: not positive definite", ErrBadCovariance)
	}

	r.lower = mat.NewTriDense(len(r.ms), mat.Lower, nil)
	chol.LTo(r.lower)
	return nil
}

// RunParallel evaluates job once per index, in parallel, with seeds
// seedStart, seedStart+1, ... and collects the outputs in index order, so a
// run is reproducible for a fixed seed start regardless of scheduling. The
// first error in index order wins; a cancelled context surfaces as its
// error.
func RunParallel(ctx context.Context, runs int, seedStart int64, job func(seed int64) (float64, error)) ([]float64, error) {
	if runs < 1 {
		return nil, fmt.Errorf("%w: %d", ErrNoRuns, runs)
	}

	outputs := make([]float64, runs)
	errs := make([]error, runs)

	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}

			outputs[idx], errs[idx] = job(seedStart + int64(idx))
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return outputs, nil
}

// Run evaluates the formula over all draws and returns one output value per
// draw.
func (r *Runner) Run(ctx context.Context) ([]float64, error) {
	seen := make(map[string]bool, len(r.ms))
	for _, m := range r.ms {
		if seen[m.Name] {
			return nil, fmt.Errorf("ensemble: duplicate variable %s", m.Name)
		}
		seen[m.Name] = true
	}

	return RunParallel(ctx, r.runs, r.seedStart, func(seed int64) (float64, error) {
		rng := rand.New(rand.NewSource(seed))
		return r.f.Eval(r.draw(rng))
	})
}

// draw samples one input vector. With a factorized covariance installed the
// draw is mu + L*z for standard normal z; otherwise each input is drawn
// independently with its own sigma.
func (r *Runner) draw(rng *rand.Rand) symbolic.Env {
	env := make(symbolic.Env, len(r.ms))

	if r.lower == nil {
		for _, m := range r.ms {
			env[m.Name] = m.Value + m.Sigma*rng.NormFloat64()
		}
		return env
	}

	z := make([]float64, len(r.ms))
	for i := range z {
		z[i] = rng.NormFloat64()
	}
	for i, m := range r.ms {
		x := m.Value
		for j := 0; j <= i; j++ {
			x += r.lower.At(i, j) * z[j]
		}
		env[m.Name] = x
	}
	return env
}

// Summary aggregates the sampled outputs of a run.
type Summary struct {
	Runs int
	Mean float64
	Std  float64
}

// Summarize reduces raw draw outputs to their count, mean and sample
// standard deviation.
func Summarize(samples []float64) Summary {
	n := len(samples)
	if n == 0 {
		return Summary{}
	}

	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range samples {
		d := v - mean
		ss += d * d
	}
	std := 0.0
	if n > 1 {
		std = math.Sqrt(ss / float64(n-1))
	}

	return Summary{Runs: n, Mean: mean, Std: std}
}
