package checker

import (
	"testing"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

func newTyper() (*Typer, *ScopeStack) {
	scopes := NewScopeStack()
	return NewTyper(NewEnv(), scopes, &Collector{}, false), scopes
}

// A bare `int` domain types as ParInt via the baseKeywordOf keyword path,
// not by evaluating the identifier as a value.
func TestTyperTypeInstBareKeyword(t *testing.T) {
	ty, _ := newTyper()
	pos := errors.Position{Line: 1, Column: 1}
	ti := &ast.TypeInst{Node: ast.NewNode(pos), Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "int"}}
	if err := ty.Type(ti); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if got := ti.Type(); got.Base != types.Int || got.Dim != 0 {
		t.Errorf("got %s, want par int", got)
	}
}

// var bool: the VarInst flag promotes the result to VAR.
func TestTyperTypeInstVarBool(t *testing.T) {
	ty, _ := newTyper()
	pos := errors.Position{Line: 1, Column: 1}
	ti := &ast.TypeInst{Node: ast.NewNode(pos), Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "bool"}, VarInst: true}
	if err := ty.Type(ti); err != nil {
		t.Fatalf("Type: %v", err)
	}
	got := ti.Type()
	if got.Base != types.Bool || !got.IsVar() {
		t.Errorf("got %s, want var bool", got)
	}
}

// An Id resolves its type from the declaration's already-typed TypeInst.
func TestTyperTypeId(t *testing.T) {
	ty, scopes := newTyper()
	pos := errors.Position{Line: 1, Column: 1}
	ti := &ast.TypeInst{Node: ast.NewNode(pos), Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "int"}}
	if err := ty.Type(ti); err != nil {
		t.Fatalf("Type ti: %v", err)
	}
	decl := ast.NewVarDecl(pos, "n", ti, nil)
	decl.TopLevel = true
	if err := scopes.Add(decl); err != nil {
		t.Fatalf("Add: %v", err)
	}

	id := &ast.Id{Node: ast.NewNode(pos), Name: "n", Decl: decl}
	if err := ty.Type(id); err != nil {
		t.Fatalf("Type id: %v", err)
	}
	if id.Type().Base != types.Int {
		t.Errorf("id type = %s, want int", id.Type())
	}
}

// Undefined identifiers (nil Decl, as left by a topo-sort pass that never
// ran) fail with undefined-identifier.
func TestTyperTypeIdUndefined(t *testing.T) {
	ty, _ := newTyper()
	pos := errors.Position{Line: 1, Column: 1}
	id := &ast.Id{Node: ast.NewNode(pos), Name: "ghost"}
	err := ty.Type(id)
	ce, ok := err.(*CheckError)
	if !ok || ce.Kind != KindUndefinedIdentifier {
		t.Fatalf("expected undefined-identifier, got %v", err)
	}
}

// An empty set literal types as BOT.
func TestTyperSetLitEmpty(t *testing.T) {
	ty, _ := newTyper()
	pos := errors.Position{Line: 1, Column: 1}
	set := &ast.SetLit{Node: ast.NewNode(pos)}
	if err := ty.Type(set); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if set.Type().Base != types.Bot {
		t.Errorf("empty set type = %s, want bot", set.Type())
	}
}

// A set literal mixing int and string elements is rejected with
// non-uniform-set.
func TestTyperSetLitNonUniformRejected(t *testing.T) {
	ty, _ := newTyper()
	pos := errors.Position{Line: 1, Column: 1}
	i := &ast.IntLit{Node: ast.NewNode(pos), Value: 1}
	s := &ast.StringLit{Node: ast.NewNode(pos), Value: "x"}
	set := &ast.SetLit{Node: ast.NewNode(pos), Elems: []ast.Expression{i, s}}
	err := ty.Type(set)
	ce, ok := err.(*CheckError)
	if !ok || ce.Kind != KindNonUniformSet {
		t.Fatalf("expected non-uniform-set, got %v", err)
	}
}

// A var condition in an if-then-else forces the result to var.
func TestTyperITEVarConditionForcesVarResult(t *testing.T) {
	ty, _ := newTyper()
	pos := errors.Position{Line: 1, Column: 1}
	condTi := &ast.TypeInst{Node: ast.NewNode(pos)}
	condTi.SetType(types.VarBool())
	condDecl := ast.NewVarDecl(pos, "b", condTi, nil)
	cond := &ast.Id{Node: ast.NewNode(pos), Name: "b", Decl: condDecl}
	then := &ast.IntLit{Node: ast.NewNode(pos), Value: 1}
	els := &ast.IntLit{Node: ast.NewNode(pos), Value: 2}

	ite := &ast.ITE{
		Node:     ast.NewNode(pos),
		Branches: []ast.IfThen{{Cond: cond, Then: then}},
		Else:     els,
	}
	if err := ty.Type(ite); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if !ite.Type().IsVar() {
		t.Errorf("ite type = %s, want var", ite.Type())
	}
}

// bool + int has no direct "+" overload; the typer inserts a bool2int
// coercion on the bool operand via the registry's element-coercion rule.
func TestTyperBinOpInsertsCoercion(t *testing.T) {
	ty, _ := newTyper()
	pos := errors.Position{Line: 1, Column: 1}
	lhs := &ast.BoolLit{Node: ast.NewNode(pos), Value: true}
	rhs := &ast.IntLit{Node: ast.NewNode(pos), Value: 1}
	bo := &ast.BinOp{Node: ast.NewNode(pos), Op: "+", LHS: lhs, RHS: rhs}
	if err := ty.Type(bo); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if bo.Type().Base != types.Int {
		t.Errorf("result base = %s, want int", bo.Type().Base)
	}
	call, ok := bo.LHS.(*ast.Call)
	if !ok || call.Name != "bool2int" {
		t.Errorf("expected lhs rewritten to a bool2int wrapper, got %#v", bo.LHS)
	}
}
