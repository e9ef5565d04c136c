package propagate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/phys-praktikum/fplab/internal/symbolic"
)

// Measurement is a measured variable with its standard deviation.
type Measurement struct {
	Name  string
	Value float64
	Sigma float64
}

// Point is a variable binding for the correlated and matrix forms, where
// uncertainties live in the covariance matrix instead.
type Point struct {
	Name  string
	Value float64
}

// Result is an evaluated quantity with its propagated uncertainty.
type Result struct {
	Value float64
	Sigma float64
}

// PointsOf strips the sigmas off a measurement list.
func PointsOf(ms []Measurement) []Point {
	ps := make([]Point, len(ms))
	for i, m := range ms {
		ps[i] = Point{Name: m.Name, Value: m.Value}
	}
	return ps
}

func envOf(ps []Point) (symbolic.Env, error) {
	env := make(symbolic.Env, len(ps))
	for _, p := range ps {
		if _, ok := env[p.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVariable, p.Name)
		}
		env[p.Name] = p.Value
	}
	return env, nil
}

// gradient evaluates df/dx_i at env for every listed variable.
func gradient(f symbolic.Expr, ps []Point, env symbolic.Env) ([]float64, error) {
	g := make([]float64, len(ps))
	for i, p := range ps {
		v, err := f.Diff(p.Name).Eval(env)
		if err != nil {
			return nil, fmt.Errorf("propagate: partial wrt %s: %w", p.Name, err)
		}
		g[i] = v
	}
	return g, nil
}

// Uncorrelated propagates independent per-variable uncertainties through f:
//
//	sigma_f = sqrt( sum_i (df/dx_i)^2 sigma_i^2 )
//
// Differentiation treats variables not listed in ms as constants, but
// evaluation needs a value for every free variable of f, so ms must cover
// them all.
func Uncorrelated(f symbolic.Expr, ms []Measurement) (Result, error) {
	env, err := envOf(PointsOf(ms))
	if err != nil {
		return Result{}, err
	}
	val, err := f.Eval(env)
	if err != nil {
		return Result{}, fmt.Errorf("propagate: evaluate function: %w", err)
	}
	var radicand float64
	for _, m := range ms {
		d, err := f.Diff(m.Name).Eval(env)
		if err != nil {
			return Result{}, fmt.Errorf("propagate: partial wrt %s: %w", m.Name, err)
		}
		radicand += d * d * m.Sigma * m.Sigma
	}
	return Result{Value: val, Sigma: math.Sqrt(radicand)}, nil
}

// SigmaFormula returns the symbolic uncorrelated uncertainty formula for f
// over the named variables, with the uncertainty of x appearing as the
// variable sigma_x:
//
//	sqrt( sum_i (df/dx_i)^2 sigma_x_i^2 )
//
// The returned expression is immutable; evaluating it repeatedly under the
// same bindings yields identical results.
func SigmaFormula(f symbolic.Expr, names []string) symbolic.Expr {
	terms := make([]symbolic.Expr, len(names))
	for i, n := range names {
		terms[i] = symbolic.Mul(
			symbolic.Pow(f.Diff(n), symbolic.Num(2)),
			symbolic.Pow(symbolic.Var("sigma_"+n), symbolic.Num(2)),
		)
	}
	return symbolic.Sqrt(symbolic.Add(terms...))
}

// Correlated propagates a full covariance matrix through f:
//
//	sigma_f = sqrt( sum_ij (df/dx_i)(df/dx_j) V_ij )
//
// cov is indexed in the order of ps. It is not checked for positive
// semidefiniteness; a violating matrix surfaces as [ErrNegativeVariance]
// when the radicand goes negative. With a diagonal cov the result agrees
// with [Uncorrelated] up to floating-point rounding.
func Correlated(f symbolic.Expr, ps []Point, cov *mat.SymDense) (Result, error) {
	n := len(ps)
	if n == 0 {
		return Result{}, fmt.Errorf("propagate: empty variable list: %w", ErrDimensionMismatch)
	}
	if d := cov.SymmetricDim(); d != n {
		return Result{}, fmt.Errorf("propagate: %dx%d covariance for %d variables: %w", d, d, n, ErrDimensionMismatch)
	}
	env, err := envOf(ps)
	if err != nil {
		return Result{}, err
	}
	val, err := f.Eval(env)
	if err != nil {
		return Result{}, fmt.Errorf("propagate: evaluate function: %w", err)
	}
	g, err := gradient(f, ps, env)
	if err != nil {
		return Result{}, err
	}
	gv := mat.NewVecDense(n, g)
	radicand := mat.Inner(gv, cov, gv)
	if radicand < 0 {
		return Result{}, fmt.Errorf("propagate: radicand %g: %w", radicand, ErrNegativeVariance)
	}
	return Result{Value: val, Sigma: math.Sqrt(radicand)}, nil
}

// Transform maps the covariance of the inputs through a vector of output
// formulas: it evaluates the Jacobian G[i][j] = df_i/dx_j at ps and returns
//
//	U = G V G^T
//
// as the covariance of the outputs. U is symmetrized against floating-point
// drift before it is returned. With a single output this is [Correlated]
// squared, entry for entry. Off-diagonal structure in U arising from
// outputs that share input variables is correct and preserved.
func Transform(fs []symbolic.Expr, ps []Point, cov *mat.SymDense) (*mat.SymDense, error) {
	m, n := len(fs), len(ps)
	if m == 0 {
		return nil, fmt.Errorf("propagate: no output functions: %w", ErrDimensionMismatch)
	}
	if n == 0 {
		return nil, fmt.Errorf("propagate: empty variable list: %w", ErrDimensionMismatch)
	}
	if d := cov.SymmetricDim(); d != n {
		return nil, fmt.Errorf("propagate: %dx%d covariance for %d variables: %w", d, d, n, ErrDimensionMismatch)
	}
	env, err := envOf(ps)
	if err != nil {
		return nil, err
	}
	g := mat.NewDense(m, n, nil)
	for i, f := range fs {
		row, err := gradient(f, ps, env)
		if err != nil {
			return nil, err
		}
		g.SetRow(i, row)
	}
	var u mat.Dense
	u.Product(g, cov, g.T())

	out := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			out.SetSym(i, j, 0.5*(u.At(i, j)+u.At(j, i)))
		}
	}
	return out, nil
}
