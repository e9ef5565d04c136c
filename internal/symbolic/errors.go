package symbolic

import (
	"errors"
	"fmt"
)

// Domain errors for expression evaluation.
var (
	// ErrUnboundVar indicates a variable with no binding in the environment.
	ErrUnboundVar = errors.New("symbolic: unbound variable")

	// ErrDomain indicates an evaluation outside a function's numeric domain.
	ErrDomain = errors.New("symbolic: value outside function domain")
)

// EvalError wraps an evaluation failure with the expression that produced it.
type EvalError struct {
	Expr    string
	Wrapped error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%v in %q", e.Wrapped, e.Expr)
}

func (e *EvalError) Unwrap() error {
	return e.Wrapped
}

// checkFinite rejects NaN and Inf results so domain violations surface as
// errors at the node that produced them instead of propagating silently.
func checkFinite(v float64, e Expr) (float64, error) {
	if isBad(v) {
		return 0, &EvalError{Expr: e.String(), Wrapped: ErrDomain}
	}
	return v, nil
}
