// Package propagate implements first-order Gaussian error propagation.
//
// Given a scalar formula f over measured variables, the package computes
// the propagated standard deviation three ways:
//
//   - [Uncorrelated]: independent inputs,
//     sigma_f = sqrt(sum_i (df/dx_i)^2 sigma_i^2)
//   - [Correlated]: a full covariance matrix V,
//     sigma_f = sqrt(sum_ij (df/dx_i)(df/dx_j) V_ij)
//   - [Transform]: a vector of output formulas, returning the full output
//     covariance U = G V G^T through the Jacobian G
//
// Partial derivatives come from [symbolic.Expr.Diff], so the gradients are
// exact rather than finite differences. Covariance matrices are explicit
// [mat.SymDense] values and the congruence transform is ordinary matrix
// multiplication.
//
// Positive-semidefiniteness of a caller-supplied covariance is NOT
// validated. A violating matrix can drive the propagated variance negative;
// that surfaces as [ErrNegativeVariance] instead of a silently truncated
// or NaN result. Shape violations surface as [ErrDimensionMismatch].
package propagate
