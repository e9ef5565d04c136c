// Package symbolic provides exact symbolic differentiation for formulas
// over named scalar variables.
//
// Expressions are immutable trees built from constructors:
//
//   - [Num], [Var]: constants and variables
//   - [Add], [Sub], [Mul], [Div], [Neg]: arithmetic
//   - [Pow], [Sqrt]: powers
//   - [Sin], [Cos], [Tan], [Exp], [Ln], [Atan], [Atan2]: named functions
//
// Every expression supports [Expr.Diff] (exact partial derivative, with
// variables not named treated as constants) and [Expr.Eval] under an [Env]
// of bindings. Evaluation fails loudly: unbound variables and numeric
// domain violations (ln of a non-positive value, negative radicands,
// division by zero) return errors instead of NaN or Inf.
//
// # Example
//
//	v := symbolic.Mul(symbolic.Num(math.Pi), symbolic.Pow(symbolic.Var("r"), symbolic.Num(2)), symbolic.Var("h"))
//	dv := v.Diff("r")
//	val, err := dv.Eval(symbolic.Env{"r": 2, "h": 3})
package symbolic
