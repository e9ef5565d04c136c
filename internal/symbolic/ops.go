package symbolic

import (
	"math"
	"strings"
)

type sum struct {
	terms []Expr
}

// Add returns the sum of terms. Nested sums are flattened and constants
// folded; an empty sum is 0.
func Add(terms ...Expr) Expr {
	c := 0.0
	var ts []Expr
	var flatten func([]Expr)
	flatten = func(list []Expr) {
		for _, t := range list {
			switch v := t.(type) {
			case *num:
				c += v.val
			case *sum:
				flatten(v.terms)
			default:
				ts = append(ts, t)
			}
		}
	}
	flatten(terms)
	if c != 0 || len(ts) == 0 {
		ts = append(ts, &num{val: c})
	}
	if len(ts) == 1 {
		return ts[0]
	}
	return &sum{terms: ts}
}

// Sub returns a - b.
func Sub(a, b Expr) Expr { return Add(a, Neg(b)) }

// Neg returns -e.
func Neg(e Expr) Expr { return Mul(Num(-1), e) }

func (s *sum) Diff(name string) Expr {
	ds := make([]Expr, len(s.terms))
	for i, t := range s.terms {
		ds[i] = t.Diff(name)
	}
	return Add(ds...)
}

func (s *sum) Eval(env Env) (float64, error) {
	total := 0.0
	for _, t := range s.terms {
		v, err := t.Eval(env)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return checkFinite(total, s)
}

func (s *sum) String() string { return joinSum(s.terms) }

func (s *sum) freeVars(set map[string]struct{}) {
	for _, t := range s.terms {
		t.freeVars(set)
	}
}

type product struct {
	factors []Expr
}

// Mul returns the product of factors. Nested products are flattened and
// constants folded into a leading coefficient; an empty product is 1 and a
// zero coefficient collapses the whole product to 0.
func Mul(factors ...Expr) Expr {
	c := 1.0
	var fs []Expr
	var flatten func([]Expr)
	flatten = func(list []Expr) {
		for _, f := range list {
			switch v := f.(type) {
			case *num:
				c *= v.val
			case *product:
				flatten(v.factors)
			default:
				fs = append(fs, f)
			}
		}
	}
	flatten(factors)
	if c == 0 {
		return &num{}
	}
	if len(fs) == 0 {
		return &num{val: c}
	}
	if c != 1 {
		fs = append([]Expr{&num{val: c}}, fs...)
	}
	if len(fs) == 1 {
		return fs[0]
	}
	return &product{factors: fs}
}

// Div returns a / b, represented as a * b^-1.
func Div(a, b Expr) Expr { return Mul(a, Pow(b, Num(-1))) }

func (p *product) Diff(name string) Expr {
	// Product rule over n factors.
	terms := make([]Expr, 0, len(p.factors))
	for i := range p.factors {
		fs := make([]Expr, len(p.factors))
		copy(fs, p.factors)
		fs[i] = p.factors[i].Diff(name)
		terms = append(terms, Mul(fs...))
	}
	return Add(terms...)
}

func (p *product) Eval(env Env) (float64, error) {
	total := 1.0
	for _, f := range p.factors {
		v, err := f.Eval(env)
		if err != nil {
			return 0, err
		}
		total *= v
	}
	return checkFinite(total, p)
}

func (p *product) String() string {
	fs := p.factors
	prefix := ""
	if n, ok := fs[0].(*num); ok && n.val == -1 && len(fs) > 1 {
		prefix = "-"
		fs = fs[1:]
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = render(f, false)
	}
	return prefix + strings.Join(parts, "*")
}

func (p *product) freeVars(set map[string]struct{}) {
	for _, f := range p.factors {
		f.freeVars(set)
	}
}

type power struct {
	base Expr
	exp  Expr
}

// Pow returns base raised to exp. Trivial exponents simplify and constant
// powers fold when the result is finite.
func Pow(base, exp Expr) Expr {
	if numVal(exp, 0) {
		return &num{val: 1}
	}
	if numVal(exp, 1) {
		return base
	}
	if numVal(base, 1) {
		return &num{val: 1}
	}
	if nb, ok := base.(*num); ok {
		if ne, ok := exp.(*num); ok {
			if v := math.Pow(nb.val, ne.val); !isBad(v) {
				return &num{val: v}
			}
		}
	}
	return &power{base: base, exp: exp}
}

// Sqrt returns the square root of e, represented as e^0.5.
func Sqrt(e Expr) Expr { return Pow(e, Num(0.5)) }

func (p *power) Diff(name string) Expr {
	if k, ok := p.exp.(*num); ok {
		return Mul(Num(k.val), Pow(p.base, Num(k.val-1)), p.base.Diff(name))
	}
	// General case: d(u^v) = u^v * (v' ln u + v u'/u).
	return Mul(p, Add(
		Mul(p.exp.Diff(name), Ln(p.base)),
		Mul(p.exp, p.base.Diff(name), Pow(p.base, Num(-1))),
	))
}

func (p *power) Eval(env Env) (float64, error) {
	b, err := p.base.Eval(env)
	if err != nil {
		return 0, err
	}
	e, err := p.exp.Eval(env)
	if err != nil {
		return 0, err
	}
	return checkFinite(math.Pow(b, e), p)
}

func (p *power) String() string {
	if numVal(p.exp, 0.5) {
		return "sqrt(" + p.base.String() + ")"
	}
	b := render(p.base, true)
	e := p.exp.String()
	if needsParens(p.exp, true) {
		e = "(" + e + ")"
	}
	return b + "^" + e
}

func (p *power) freeVars(set map[string]struct{}) {
	p.base.freeVars(set)
	p.exp.freeVars(set)
}
