// Package fit provides weighted linear least squares over arbitrary basis
// functions.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Domain errors for fitting.
var (
	// ErrInsufficientData indicates fewer points than fit parameters.
	ErrInsufficientData = errors.New("fit: fewer points than parameters")

	// ErrSingular indicates linearly dependent basis columns.
	ErrSingular = errors.New("fit: singular normal equations")

	// ErrLengthMismatch indicates input slices of differing lengths.
	ErrLengthMismatch = errors.New("fit: input lengths differ")

	// ErrBadSigma indicates a non-positive measurement uncertainty.
	ErrBadSigma = errors.New("fit: non-positive sigma")
)

// Basis maps x to the values of the basis functions at x.
type Basis func(x float64) []float64

// Polynomial returns the monomial basis 1, x, ..., x^degree.
func Polynomial(degree int) Basis {
	return func(x float64) []float64 {
		vals := make([]float64, degree+1)
		p := 1.0
		for i := range vals {
			vals[i] = p
			p *= x
		}
		return vals
	}
}

// Result holds fitted coefficients, their covariance and the fit quality.
type Result struct {
	Coeffs []float64
	Cov    *mat.SymDense // parameter covariance (A^T W A)^-1
	Chi2   float64
	NDF    int
}

// Sigma returns the standard deviation of coefficient i.
func (r *Result) Sigma(i int) float64 {
	return math.Sqrt(r.Cov.At(i, i))
}

// ReducedChi2 returns chi^2 per degree of freedom, or 0 when there are none.
func (r *Result) ReducedChi2() float64 {
	if r.NDF <= 0 {
		return 0
	}
	return r.Chi2 / float64(r.NDF)
}

// Eval evaluates the fitted model at x.
func (r *Result) Eval(basis Basis, x float64) float64 {
	pred := 0.0
	for j, v := range basis(x) {
		pred += r.Coeffs[j] * v
	}
	return pred
}

// LeastSquares fits ys = sum_k c_k b_k(x) by minimizing the unweighted sum
// of squared residuals. The returned covariance assumes unit measurement
// errors.
func LeastSquares(xs, ys []float64, basis Basis) (*Result, error) {
	return solve(xs, ys, nil, basis)
}

// Weighted fits with per-point standard deviations, minimizing chi^2. The
// returned covariance is the true parameter covariance when the sigmas are
// the actual measurement errors, ready for correlated error propagation.
func Weighted(xs, ys, sigmas []float64, basis Basis) (*Result, error) {
	if len(sigmas) != len(xs) {
		return nil, fmt.Errorf("%w: %d xs, %d sigmas", ErrLengthMismatch, len(xs), len(sigmas))
	}
	return solve(xs, ys, sigmas, basis)
}

// solve scales rows by 1/sigma and solves the normal equations
// (A^T A) c = A^T y with an explicit inverse, which doubles as the
// parameter covariance.
func solve(xs, ys, sigmas []float64, basis Basis) (*Result, error) {
	n := len(xs)
	if len(ys) != n {
		return nil, fmt.Errorf("%w: %d xs, %d ys", ErrLengthMismatch, n, len(ys))
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no data", ErrInsufficientData)
	}
	p := len(basis(xs[0]))
	if n < p {
		return nil, fmt.Errorf("%w: %d points for %d parameters", ErrInsufficientData, n, p)
	}

	a := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		w := 1.0
		if sigmas != nil {
			if sigmas[i] <= 0 {
				return nil, fmt.Errorf("%w: sigma[%d] = %g", ErrBadSigma, i, sigmas[i])
			}
			w = 1 / sigmas[i]
		}
		row := basis(xs[i])
		if len(row) != p {
			return nil, fmt.Errorf("%w: basis size changed at x = %g", ErrLengthMismatch, xs[i])
		}
		for j, v := range row {
			a.Set(i, j, v*w)
		}
		y.SetVec(i, ys[i]*w)
	}

	var ata mat.Dense
	ata.Product(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	var aty mat.Dense
	aty.Product(a.T(), y)
	var c mat.Dense
	c.Product(&inv, &aty)

	coeffs := make([]float64, p)
	for j := range coeffs {
		coeffs[j] = c.At(j, 0)
	}
	cov := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			cov.SetSym(i, j, 0.5*(inv.At(i, j)+inv.At(j, i)))
		}
	}

	chi2 := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j, v := range basis(xs[i]) {
			pred += coeffs[j] * v
		}
		r := ys[i] - pred
		if sigmas != nil {
			r /= sigmas[i]
		}
		chi2 += r * r
	}

	return &Result{Coeffs: coeffs, Cov: cov, Chi2: chi2, NDF: n - p}, nil
}
