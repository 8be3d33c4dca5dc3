package checker

import (
	"testing"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

func typedBoolLit() *ast.BoolLit {
	b := &ast.BoolLit{Node: ast.NewNode(errors.Position{Line: 1, Column: 1}), Value: true}
	b.SetType(types.ParBool())
	return b
}

func TestCoerceUnchangedWhenBasesMatch(t *testing.T) {
	c := NewCoercer(NewEnv())
	lit := &ast.IntLit{Node: ast.NewNode(errors.Position{}), Value: 1}
	lit.SetType(types.ParInt())
	got, err := c.Coerce(lit, types.ParInt())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ast.Expression(lit) {
		t.Errorf("expected the same expression back unchanged")
	}
}

func TestCoerceBoolToInt(t *testing.T) {
	c := NewCoercer(NewEnv())
	got, err := c.Coerce(typedBoolLit(), types.ParInt())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call, ok := got.(*ast.Call)
	if !ok || call.Name != "bool2int" {
		t.Fatalf("expected a bool2int wrapper, got %#v", got)
	}
	if call.Type().Base != types.Int {
		t.Errorf("wrapped result base = %s, want int", call.Type().Base)
	}
}

func TestCoerceNoCoercionFails(t *testing.T) {
	c := NewCoercer(NewEnv())
	str := &ast.StringLit{Node: ast.NewNode(errors.Position{}), Value: "x"}
	str.SetType(types.ParString())
	_, err := c.Coerce(str, types.ParInt())
	ce, ok := err.(*CheckError)
	if !ok || ce.Kind != KindNoCoercion {
		t.Fatalf("expected no-coercion error, got %v", err)
	}
}

func TestCoerceVarSetToArrayFails(t *testing.T) {
	c := NewCoercer(NewEnv())
	set := &ast.SetLit{Node: ast.NewNode(errors.Position{})}
	set.SetType(types.Type{Base: types.Int, Inst: types.Var, Structure: types.Set})
	_, err := c.Coerce(set, types.Type{Base: types.Int, Dim: 1, Inst: types.Var})
	ce, ok := err.(*CheckError)
	if !ok || ce.Kind != KindVarSetToArray {
		t.Fatalf("expected var-set-to-array error, got %v", err)
	}
}

func TestCoerceSetToArray(t *testing.T) {
	c := NewCoercer(NewEnv())
	set := &ast.SetLit{Node: ast.NewNode(errors.Position{})}
	set.SetType(types.Type{Base: types.Int, Inst: types.Par, Structure: types.Set})
	got, err := c.Coerce(set, types.Type{Base: types.Int, Dim: 1, Inst: types.Par})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call, ok := got.(*ast.Call)
	if !ok || call.Name != "set2array" {
		t.Fatalf("expected a set2array wrapper, got %#v", got)
	}
	if call.Type().Dim != 1 {
		t.Errorf("wrapped result dim = %d, want 1", call.Type().Dim)
	}
}
