// Package formula holds the builtin named formulas the CLI can propagate
// uncertainties through.
package formula

import (
	"fmt"
	"math"
	"sort"

	"github.com/phys-praktikum/fplab/internal/symbolic"
)

// Formula is a named formula over measured variables. Scalar formulas have
// a single output; coordinate maps have one output per target coordinate.
type Formula struct {
	Name        string
	Description string
	Vars        []string // canonical argument order
	OutputNames []string
	Outputs     []symbolic.Expr
}

// Scalar reports whether the formula has exactly one output.
func (f Formula) Scalar() bool { return len(f.Outputs) == 1 }

// Registry resolves formulas by name.
type Registry struct {
	formulas map[string]Formula
}

func NewRegistry() *Registry {
	r := &Registry{formulas: make(map[string]Formula)}
	for _, f := range builtins() {
		r.formulas[f.Name] = f
	}
	return r
}

func (r *Registry) Get(name string) (Formula, error) {
	f, ok := r.formulas[name]
	if !ok {
		return Formula{}, fmt.Errorf("unknown formula: %s", name)
	}
	return f, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formulas))
	for name := range r.formulas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtins() []Formula {
	x, y := symbolic.Var("x"), symbolic.Var("y")
	r, h, m := symbolic.Var("r"), symbolic.Var("h"), symbolic.Var("m")
	length, period := symbolic.Var("L"), symbolic.Var("T")
	drive, omega0, delta, omega := symbolic.Var("drive"), symbolic.Var("omega0"), symbolic.Var("delta"), symbolic.Var("omega")
	pi := symbolic.Num(math.Pi)
	sq := func(e symbolic.Expr) symbolic.Expr { return symbolic.Pow(e, symbolic.Num(2)) }

	return []Formula{
		{
			Name:        "cylinder-volume",
			Description: "volume of a solid cylinder from radius and height",
			Vars:        []string{"r", "h"},
			OutputNames: []string{"V"},
			Outputs:     []symbolic.Expr{symbolic.Mul(pi, sq(r), h)},
		},
		{
			Name:        "cylinder-density",
			Description: "density of a solid cylinder from mass, radius and height",
			Vars:        []string{"m", "r", "h"},
			OutputNames: []string{"rho"},
			Outputs:     []symbolic.Expr{symbolic.Div(m, symbolic.Mul(pi, sq(r), h))},
		},
		{
			Name:        "pendulum-g",
			Description: "gravitational acceleration from pendulum length and period",
			Vars:        []string{"L", "T"},
			OutputNames: []string{"g"},
			Outputs: []symbolic.Expr{symbolic.Mul(
				symbolic.Num(4), sq(pi), length, symbolic.Pow(period, symbolic.Num(-2)),
			)},
		},
		{
			Name:        "polar",
			Description: "plane polar coordinates from cartesian x and y",
			Vars:        []string{"x", "y"},
			OutputNames: []string{"r", "theta"},
			Outputs: []symbolic.Expr{
				symbolic.Sqrt(symbolic.Add(sq(x), sq(y))),
				symbolic.Atan2(y, x),
			},
		},
		{
			Name:        "response-amplitude",
			Description: "driven oscillator steady-state amplitude at drive frequency omega",
			Vars:        []string{"drive", "omega0", "delta", "omega"},
			OutputNames: []string{"A"},
			Outputs: []symbolic.Expr{symbolic.Div(drive, symbolic.Sqrt(symbolic.Add(
				sq(symbolic.Sub(sq(omega0), sq(omega))),
				symbolic.Mul(symbolic.Num(4), sq(delta), sq(omega)),
			)))},
		},
		{
			Name:        "phase-shift",
			Description: "driven oscillator phase shift at drive frequency omega",
			Vars:        []string{"omega0", "delta", "omega"},
			OutputNames: []string{"phi"},
			Outputs: []symbolic.Expr{symbolic.Neg(symbolic.Atan2(
				symbolic.Mul(symbolic.Num(2), delta, omega),
				symbolic.Sub(sq(omega0), sq(omega)),
			))},
		},
	}
}
