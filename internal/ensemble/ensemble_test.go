package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/phys-praktikum/fplab/internal/analysis"
	"github.com/phys-praktikum/fplab/internal/dataset"
	"github.com/phys-praktikum/fplab/internal/oscillator"
	"github.com/phys-praktikum/fplab/internal/propagate"
	"github.com/phys-praktikum/fplab/internal/symbolic"
)

func cylinderVolume() symbolic.Expr {
	return symbolic.Mul(
		symbolic.Num(math.Pi),
		symbolic.Pow(symbolic.Var("r"), symbolic.Num(2)),
		symbolic.Var("h"),
	)
}

func TestReproducibleWithSeed(t *testing.T) {
	ms := []propagate.Measurement{
		{Name: "r", Value: 2, Sigma: 0.05},
		{Name: "h", Value: 3, Sigma: 0.05},
	}

	a, err := New(cylinderVolume(), ms, 100, 42).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := New(cylinderVolume(), ms, 100, 42).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("identical seeds produced different draws")
	}
}

func TestUncorrelatedMatchesPropagation(t *testing.T) {
	ms := []propagate.Measurement{
		{Name: "r", Value: 2, Sigma: 0.05},
		{Name: "h", Value: 3, Sigma: 0.05},
	}

	want, err := propagate.Uncorrelated(cylinderVolume(), ms)
	if err != nil {
		t.Fatalf("Uncorrelated() error = %v", err)
	}

	samples, err := New(cylinderVolume(), ms, 20000, 1).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	sum := Summarize(samples)

	if sum.Runs != 20000 {
		t.Fatalf("Summarize() counted %d runs, want 20000", sum.Runs)
	}
	if math.Abs(sum.Mean-want.Value) > 0.2 {
		t.Errorf("Monte Carlo mean = %v, want near %v", sum.Mean, want.Value)
	}
	if math.Abs(sum.Std-want.Sigma)/want.Sigma > 0.05 {
		t.Errorf("Monte Carlo std = %v, want within 5%% of %v", sum.Std, want.Sigma)
	}
}

func TestCorrelatedMatchesPropagation(t *testing.T) {
	f := symbolic.Add(symbolic.Var("x"), symbolic.Var("y"))
	ms := []propagate.Measurement{
		{Name: "x", Value: 1, Sigma: 1},
		{Name: "y", Value: 2, Sigma: 2},
	}

	cov, err := propagate.FromCorrelation(
		[]float64{1, 2},
		mat.NewSymDense(2, []float64{1, 0.5, 0.5, 1}),
	)
	if err != nil {
		t.Fatalf("FromCorrelation() error = %v", err)
	}

	want, err := propagate.Correlated(f, propagate.PointsOf(ms), cov)
	if err != nil {
		t.Fatalf("Correlated() error = %v", err)
	}

	r := New(f, ms, 20000, 7)
	if err := r.UseCovariance(cov); err != nil {
		t.Fatalf("UseCovariance() error = %v", err)
	}
	samples, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	sum := Summarize(samples)

	// sigma = sqrt(1 + 4 + 2*0.5*1*2) = sqrt(7)
	if math.Abs(want.Sigma-math.Sqrt(7)) > 1e-12 {
		t.Fatalf("propagated sigma = %v, want sqrt(7)", want.Sigma)
	}
	if math.Abs(sum.Std-want.Sigma)/want.Sigma > 0.05 {
		t.Errorf("Monte Carlo std = %v, want within 5%% of %v", sum.Std, want.Sigma)
	}
}

func TestUseCovarianceRejectsBadMatrices(t *testing.T) {
	f := symbolic.Add(symbolic.Var("x"), symbolic.Var("y"))
	ms := []propagate.Measurement{
		{Name: "x", Value: 1, Sigma: 1},
		{Name: "y", Value: 2, Sigma: 2},
	}

	r := New(f, ms, 10, 1)
	if err := r.UseCovariance(mat.NewSymDense(3, nil)); !errors.Is(err, ErrBadCovariance) {
		t.Errorf("wrong size error = %v, want ErrBadCovariance", err)
	}
	if err := r.UseCovariance(mat.NewSymDense(2, []float64{1, 5, 5, 1})); !errors.Is(err, ErrBadCovariance) {
		t.Errorf("indefinite matrix error = %v, want ErrBadCovariance", err)
	}
}

func TestRunValidation(t *testing.T) {
	f := symbolic.Var("x")

	_, err := New(f, []propagate.Measurement{{Name: "x", Value: 1}}, 0, 1).Run(context.Background())
	if !errors.Is(err, ErrNoRuns) {
		t.Errorf("zero runs error = %v, want ErrNoRuns", err)
	}

	dup := []propagate.Measurement{
		{Name: "x", Value: 1, Sigma: 0.1},
		{Name: "x", Value: 2, Sigma: 0.1},
	}
	if _, err := New(f, dup, 10, 1).Run(context.Background()); err == nil {
		t.Error("expected error for duplicate variable names")
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ms := []propagate.Measurement{{Name: "x", Value: 1, Sigma: 0.1}}
	_, err := New(symbolic.Var("x"), ms, 50, 1).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled run error = %v, want context.Canceled", err)
	}
}

func TestRunParallelOrdering(t *testing.T) {
	out, err := RunParallel(context.Background(), 32, 100, func(seed int64) (float64, error) {
		return float64(seed), nil
	})
	if err != nil {
		t.Fatalf("RunParallel() error = %v", err)
	}
	for i, v := range out {
		if v != float64(100+i) {
			t.Fatalf("out[%d] = %v, want %v", i, v, 100+i)
		}
	}
}

func TestRunParallelSurfacesJobErrors(t *testing.T) {
	_, err := RunParallel(context.Background(), 8, 0, func(seed int64) (float64, error) {
		if seed == 5 {
			return 0, fmt.Errorf("boom at seed %d", seed)
		}
		return 1, nil
	})
	if err == nil || err.Error() != "boom at seed 5" {
		t.Errorf("RunParallel() error = %v, want the job's error", err)
	}
}

// An ensemble over whole dataset realizations: each job generates a seeded
// free decay and recovers the damping from its peak envelope.
func TestRunParallelDatasetRealizations(t *testing.T) {
	osc := oscillator.New()

	deltas, err := RunParallel(context.Background(), 60, 500, func(seed int64) (float64, error) {
		series, err := dataset.NewGenerator(osc, seed).Free(dataset.FreeConfig{
			Dt: 0.01, Duration: 10, Sigma: 0.005,
		})
		if err != nil {
			return 0, err
		}
		table := series.Table()
		ts, _ := table.Column("time")
		xs, _ := table.Column("position")
		return analysis.DampingEstimate(ts, xs)
	})
	if err != nil {
		t.Fatalf("RunParallel() error = %v", err)
	}

	sum := Summarize(deltas)
	if math.Abs(sum.Mean-osc.Delta) > 0.02 {
		t.Errorf("mean recovered delta = %v, want near %v", sum.Mean, osc.Delta)
	}
	if sum.Std > 0.05 {
		t.Errorf("recovered delta spread = %v, want below 0.05", sum.Std)
	}
}
