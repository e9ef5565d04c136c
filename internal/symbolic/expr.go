package symbolic

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Env maps variable names to values for evaluation.
type Env map[string]float64

// Expr is an immutable symbolic expression over named scalar variables.
type Expr interface {
	// Diff returns the exact partial derivative with respect to name.
	// Variables other than name are treated as constants.
	Diff(name string) Expr

	// Eval evaluates the expression under env.
	Eval(env Env) (float64, error)

	String() string

	freeVars(set map[string]struct{})
}

// Vars returns the sorted free variables of e.
func Vars(e Expr) []string {
	set := make(map[string]struct{})
	e.freeVars(set)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

type num struct {
	val float64
}

// Num returns a constant expression.
func Num(v float64) Expr {
	return &num{val: v}
}

func (n *num) Diff(string) Expr { return &num{} }

func (n *num) Eval(Env) (float64, error) { return n.val, nil }

func (n *num) String() string {
	return strconv.FormatFloat(n.val, 'g', -1, 64)
}

func (n *num) freeVars(map[string]struct{}) {}

type variable struct {
	name string
}

// Var returns a variable expression.
func Var(name string) Expr {
	return &variable{name: name}
}

func (v *variable) Diff(name string) Expr {
	if v.name == name {
		return &num{val: 1}
	}
	return &num{}
}

func (v *variable) Eval(env Env) (float64, error) {
	val, ok := env[v.name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnboundVar, v.name)
	}
	return val, nil
}

func (v *variable) String() string { return v.name }

func (v *variable) freeVars(set map[string]struct{}) {
	set[v.name] = struct{}{}
}

// numVal reports whether e is the constant v.
func numVal(e Expr, v float64) bool {
	n, ok := e.(*num)
	return ok && n.val == v
}

// needsParens reports whether e should be parenthesized when rendered
// inside an operator of higher precedence.
func needsParens(e Expr, insidePow bool) bool {
	switch t := e.(type) {
	case *num:
		return t.val < 0
	case *sum:
		return true
	case *product:
		return true
	case *power:
		return insidePow
	}
	return false
}

func render(e Expr, insidePow bool) string {
	s := e.String()
	if needsParens(e, insidePow) {
		return "(" + s + ")"
	}
	return s
}

// joinSum renders terms with "+" folded into "-" for negative leads.
func joinSum(terms []Expr) string {
	var b strings.Builder
	for i, t := range terms {
		s := t.String()
		switch {
		case i == 0:
			b.WriteString(s)
		case strings.HasPrefix(s, "-"):
			b.WriteString(" - ")
			b.WriteString(s[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}
