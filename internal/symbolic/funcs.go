package symbolic

import "math"

type call struct {
	name string
	arg  Expr
}

func evalFunc(name string, x float64) float64 {
	switch name {
	case "sin":
		return math.Sin(x)
	case "cos":
		return math.Cos(x)
	case "tan":
		return math.Tan(x)
	case "exp":
		return math.Exp(x)
	case "ln":
		return math.Log(x)
	case "atan":
		return math.Atan(x)
	}
	panic("symbolic: unknown function " + name)
}

func newCall(name string, arg Expr) Expr {
	if n, ok := arg.(*num); ok {
		if v := evalFunc(name, n.val); !isBad(v) {
			return &num{val: v}
		}
	}
	return &call{name: name, arg: arg}
}

// Sin returns sin(e).
func Sin(e Expr) Expr { return newCall("sin", e) }

// Cos returns cos(e).
func Cos(e Expr) Expr { return newCall("cos", e) }

// Tan returns tan(e).
func Tan(e Expr) Expr { return newCall("tan", e) }

// Exp returns e raised to the argument.
func Exp(e Expr) Expr { return newCall("exp", e) }

// Ln returns the natural logarithm of e.
func Ln(e Expr) Expr { return newCall("ln", e) }

// Atan returns the single-argument arctangent of e.
func Atan(e Expr) Expr { return newCall("atan", e) }

func (c *call) Diff(name string) Expr {
	du := c.arg.Diff(name)
	switch c.name {
	case "sin":
		return Mul(Cos(c.arg), du)
	case "cos":
		return Mul(Num(-1), Sin(c.arg), du)
	case "tan":
		return Mul(du, Pow(Cos(c.arg), Num(-2)))
	case "exp":
		return Mul(c, du)
	case "ln":
		return Mul(du, Pow(c.arg, Num(-1)))
	case "atan":
		return Mul(du, Pow(Add(Num(1), Pow(c.arg, Num(2))), Num(-1)))
	}
	panic("symbolic: unknown function " + c.name)
}

func (c *call) Eval(env Env) (float64, error) {
	x, err := c.arg.Eval(env)
	if err != nil {
		return 0, err
	}
	return checkFinite(evalFunc(c.name, x), c)
}

func (c *call) String() string {
	return c.name + "(" + c.arg.String() + ")"
}

func (c *call) freeVars(set map[string]struct{}) {
	c.arg.freeVars(set)
}

type atan2Call struct {
	y Expr
	x Expr
}

// Atan2 returns the two-argument arctangent atan2(y, x).
func Atan2(y, x Expr) Expr {
	ny, okY := y.(*num)
	nx, okX := x.(*num)
	if okY && okX {
		if v := math.Atan2(ny.val, nx.val); !isBad(v) {
			return &num{val: v}
		}
	}
	return &atan2Call{y: y, x: x}
}

func (a *atan2Call) Diff(name string) Expr {
	// d atan2(y, x) = (x dy - y dx) / (x^2 + y^2)
	dy := a.y.Diff(name)
	dx := a.x.Diff(name)
	denom := Add(Pow(a.x, Num(2)), Pow(a.y, Num(2)))
	return Mul(Sub(Mul(a.x, dy), Mul(a.y, dx)), Pow(denom, Num(-1)))
}

func (a *atan2Call) Eval(env Env) (float64, error) {
	y, err := a.y.Eval(env)
	if err != nil {
		return 0, err
	}
	x, err := a.x.Eval(env)
	if err != nil {
		return 0, err
	}
	return checkFinite(math.Atan2(y, x), a)
}

func (a *atan2Call) String() string {
	return "atan2(" + a.y.String() + ", " + a.x.String() + ")"
}

func (a *atan2Call) freeVars(set map[string]struct{}) {
	a.y.freeVars(set)
	a.x.freeVars(set)
}
