package checker

import (
	"github.com/cwbudde/mzn-typecheck/internal/ast"
	cerrors "github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// FznTyper implements §4.7: the fallback used when the model arrives
// already in solver-input form, where most declarations carry no
// type-inst domain expression beyond a bare range or an identifier.
type FznTyper struct {
	Scopes *ScopeStack
}

// NewFznTyper creates a fallback typer sharing scopes with the rest of
// the checker run (a FlatZinc model is still expected to have its
// top-level declarations bound before this runs).
func NewFznTyper(scopes *ScopeStack) *FznTyper {
	return &FznTyper{Scopes: scopes}
}

// Run infers a base kind for every VarDecl in m whose type is still
// UNKNOWN, by inspecting its domain: a `lo..hi` range takes the base of
// `lo`, a bare identifier resolves to the referenced declaration's base,
// and anything else fails with fzn-unknown-type.
func (f *FznTyper) Run(m *ast.Model) []Diagnostic {
	diags := &Collector{}
	for _, vd := range m.VarDeclItems() {
		if vd.Ti == nil || !vd.Ti.Type().IsUnknown() {
			continue
		}
		base, err := f.inferBase(vd.Ti.Domain)
		if err != nil {
			if ce, ok := err.(*CheckError); ok {
				diags.Add(ce.Kind, ce.Pos, "%s", ce.Msg)
			}
			continue
		}
		t := vd.Ti.Type()
		t.Base = base
		vd.Ti.SetType(t)
	}
	return diags.Diags
}

func (f *FznTyper) inferBase(domain ast.Expression) (types.BaseKind, error) {
	switch d := domain.(type) {
	case nil:
		return types.Unknown, fail(KindFznUnknownType, cerrors.Position{}, "declaration has no domain to infer a base from")
	case *ast.Call:
		if d.Name == ".." && len(d.Args) == 2 {
			return f.baseOfLiteral(d.Args[0])
		}
	case *ast.BinOp:
		if d.Op == ".." {
			return f.baseOfLiteral(d.LHS)
		}
	case *ast.Id:
		decl, ok := f.Scopes.Find(d.Name)
		if !ok {
			return types.Unknown, fail(KindFznUnknownType, d.Pos(), "cannot resolve domain identifier %s", d.Name)
		}
		return decl.Ti.Type().Base, nil
	}
	return types.Unknown, fail(KindFznUnknownType, domain.Pos(), "cannot infer a base kind from this domain")
}

func (f *FznTyper) baseOfLiteral(e ast.Expression) (types.BaseKind, error) {
	switch e.(type) {
	case *ast.IntLit:
		return types.Int, nil
	case *ast.FloatLit:
		return types.Float, nil
	}
	return types.Unknown, fail(KindFznUnknownType, e.Pos(), "range bound is not a literal")
}
