package propagate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Diagonal builds the covariance matrix of independent measurements, with
// sigma_i^2 on the diagonal and zeros elsewhere.
func Diagonal(ms []Measurement) *mat.SymDense {
	v := mat.NewSymDense(len(ms), nil)
	for i, m := range ms {
		v.SetSym(i, i, m.Sigma*m.Sigma)
	}
	return v
}

// FromCorrelation builds a covariance matrix from per-variable standard
// deviations and a correlation matrix: V_ij = corr_ij * sigma_i * sigma_j.
// The correlation matrix must have a unit diagonal and coefficients in
// [-1, 1].
func FromCorrelation(sigmas []float64, corr *mat.SymDense) (*mat.SymDense, error) {
	n := len(sigmas)
	if d := corr.SymmetricDim(); d != n {
		return nil, fmt.Errorf("propagate: %dx%d correlation for %d sigmas: %w", d, d, n, ErrDimensionMismatch)
	}
	for i, s := range sigmas {
		if s < 0 {
			return nil, fmt.Errorf("%w: sigma[%d] = %g", ErrNegativeSigma, i, s)
		}
	}
	v := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if math.Abs(corr.At(i, i)-1) > 1e-12 {
			return nil, fmt.Errorf("%w: diagonal entry %g at (%d,%d)", ErrBadCorrelation, corr.At(i, i), i, i)
		}
		for j := i; j < n; j++ {
			rho := corr.At(i, j)
			if math.Abs(rho) > 1 {
				return nil, fmt.Errorf("%w: rho = %g at (%d,%d)", ErrBadCorrelation, rho, i, j)
			}
			v.SetSym(i, j, rho*sigmas[i]*sigmas[j])
		}
	}
	return v, nil
}
