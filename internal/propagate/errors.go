package propagate

import "errors"

// Domain errors for propagation operations.
var (
	// ErrDimensionMismatch indicates a covariance matrix whose dimension
	// does not match the variable list.
	ErrDimensionMismatch = errors.New("propagate: covariance dimension does not match variable list")

	// ErrNegativeVariance indicates a negative radicand, i.e. a covariance
	// matrix that is not positive semidefinite at the evaluation point.
	ErrNegativeVariance = errors.New("propagate: negative propagated variance (covariance not positive semidefinite)")

	// ErrDuplicateVariable indicates a variable listed more than once.
	ErrDuplicateVariable = errors.New("propagate: duplicate variable")

	// ErrNegativeSigma indicates a negative standard deviation.
	ErrNegativeSigma = errors.New("propagate: negative standard deviation")

	// ErrBadCorrelation indicates a correlation matrix with a non-unit
	// diagonal or a coefficient outside [-1, 1].
	ErrBadCorrelation = errors.New("propagate: invalid correlation matrix")
)
