package checker

import (
	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// Coercer implements §4.4: given an expression already typed by the
// bottom-up typer and a target type, either hands the expression back
// unchanged or wraps it in the appropriate built-in coercion call,
// resolving that call's signature against the function registry so the
// wrapper carries a concrete Decl like any other Call.
type Coercer struct {
	Env *Env
}

// NewCoercer creates a coercer bound to env's function registry.
func NewCoercer(env *Env) *Coercer { return &Coercer{Env: env} }

// Coerce implements the five ordered rules of §4.4.
func (c *Coercer) Coerce(expr ast.Expression, target types.Type) (ast.Expression, error) {
	src := expr.Type()

	// Rule 1: identical dimensionality and (target is BOT/TOP, bases
	// equal, or source is BOT) ⇒ unchanged.
	if src.Dim == target.Dim {
		if target.Base == types.Bot || target.Base == types.Top || src.Base == target.Base || src.Base == types.Bot {
			return expr, nil
		}
	}

	// Rule 2: scalar source, array target.
	if src.Dim == 0 && target.Dim != 0 {
		if src.IsVar() && src.IsSet() {
			return nil, fail(KindVarSetToArray, expr.Pos(), "cannot coerce a var set to an array")
		}
		expr = c.wrapSetToArray(expr, target)
		src = expr.Type()
	}

	// Rule 3: after rule 2, target TOP, bases equal, or source BOT ⇒ done.
	if target.Base == types.Top || src.Base == target.Base || src.Base == types.Bot {
		return expr, nil
	}

	// Rule 4: element coercions.
	var fn string
	switch {
	case src.Base == types.Bool && target.Base == types.Int:
		fn = "bool2int"
	case src.Base == types.Bool && target.Base == types.Float:
		fn = "bool2float"
	case src.Base == types.Int && target.Base == types.Float:
		fn = "int2float"
	default:
		return nil, fail(KindNoCoercion, expr.Pos(), "no coercion from %s to %s", src, target)
	}
	return c.wrap(expr, fn, target)
}

// wrapSetToArray builds the `set2array` wrapper. Its return shape depends
// on the target's dimensionality and is therefore synthesised here rather
// than matched against a finite, pre-registered signature list the way
// the other coercions are: there is one overload per array rank a model
// might declare, an infinite family no static registration could cover.
func (c *Coercer) wrapSetToArray(expr ast.Expression, target types.Type) ast.Expression {
	src := expr.Type()
	ret := src
	ret.Structure = types.Plain
	ret.Dim = target.Dim
	sig := &ast.FuncSig{
		Name:       "set2array",
		ParamTypes: []types.Type{src},
		Ret:        ret,
		Builtin:    true,
	}
	call := &ast.Call{
		Node: ast.NewNode(expr.Pos()),
		Name: "set2array",
		Args: []ast.Expression{expr},
		Decl: sig,
	}
	call.SetType(ret)
	return call
}

// wrap builds a Call to the named coercion function around expr, resolves
// its signature against the function registry, and sets the call's type
// to the signature's return type with the target's dim and structure and
// expr's enum ID and cv flag. The inst comes from the matched signature:
// the registry carries par and var forms, so bool2int(par) yields par int
// and bool2int(var) yields var int.
func (c *Coercer) wrap(expr ast.Expression, fn string, target types.Type) (ast.Expression, error) {
	sig, ok := c.Env.Functions.MatchFn(fn, []types.Type{expr.Type()})
	if !ok {
		return nil, fail(KindNoCoercion, expr.Pos(), "coercion function `%s' has no matching signature for %s", fn, expr.Type())
	}
	call := &ast.Call{
		Node: ast.NewNode(expr.Pos()),
		Name: fn,
		Args: []ast.Expression{expr},
		Decl: sig,
	}
	ret := sig.Ret
	ret.Dim = target.Dim
	ret.Structure = target.Structure
	ret.EnumID = expr.Type().EnumID
	ret.CV = expr.Type().CV
	call.SetType(ret)
	return call, nil
}
