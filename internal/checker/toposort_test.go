package checker

import (
	"testing"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/errors"
)

func intTI(pos errors.Position) *ast.TypeInst {
	return &ast.TypeInst{Node: ast.NewNode(pos), Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "int"}}
}

func idRef(pos errors.Position, name string) *ast.Id {
	return &ast.Id{Node: ast.NewNode(pos), Name: name}
}

// a references b references c; the sorter must order c, b, a regardless of
// declaration order in the scope.
func TestTopoSorterOrdersForwardReferences(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	c := ast.NewVarDecl(pos, "c", intTI(pos), &ast.IntLit{Node: ast.NewNode(pos), Value: 1})
	b := ast.NewVarDecl(pos, "b", intTI(pos), idRef(pos, "c"))
	a := ast.NewVarDecl(pos, "a", intTI(pos), idRef(pos, "b"))
	c.TopLevel, b.TopLevel, a.TopLevel = true, true, true

	scopes := NewScopeStack()
	for _, d := range []*ast.VarDecl{a, b, c} {
		if err := scopes.Add(d); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	ts := NewTopoSorter(NewEnv(), scopes, &Collector{})
	if err := ts.Run(a); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if c.Payload >= b.Payload || b.Payload >= a.Payload {
		t.Fatalf("expected pos(c) < pos(b) < pos(a), got c=%d b=%d a=%d", c.Payload, b.Payload, a.Payload)
	}
	if len(ts.Order) != 3 {
		t.Fatalf("expected 3 decls in topo order, got %d", len(ts.Order))
	}
	if ts.Order[0] != c || ts.Order[2] != a {
		t.Errorf("expected order [c, b, a], got %v", ts.Order)
	}
}

// a = b + 1; b = a + 1 is a direct cycle.
func TestTopoSorterDetectsCycle(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	a := ast.NewVarDecl(pos, "a", intTI(pos), nil)
	b := ast.NewVarDecl(pos, "b", intTI(pos), nil)
	a.Init = &ast.BinOp{Node: ast.NewNode(pos), Op: "+", LHS: idRef(pos, "b"), RHS: &ast.IntLit{Node: ast.NewNode(pos), Value: 1}}
	b.Init = &ast.BinOp{Node: ast.NewNode(pos), Op: "+", LHS: idRef(pos, "a"), RHS: &ast.IntLit{Node: ast.NewNode(pos), Value: 1}}
	a.TopLevel, b.TopLevel = true, true

	scopes := NewScopeStack()
	if err := scopes.Add(a); err != nil {
		t.Fatalf("Add a: %v", err)
	}
	if err := scopes.Add(b); err != nil {
		t.Fatalf("Add b: %v", err)
	}

	ts := NewTopoSorter(NewEnv(), scopes, &Collector{})
	err := ts.Run(a)
	ce, ok := err.(*CheckError)
	if !ok || ce.Kind != KindCircularDefinition {
		t.Fatalf("expected circular-definition, got %v", err)
	}
}

// Bindings in a let are stably reordered by topological position after
// running, so a binding referencing a later one sorts after it.
func TestTopoSorterReordersLetBindings(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	y := ast.NewVarDecl(pos, "y", intTI(pos), &ast.IntLit{Node: ast.NewNode(pos), Value: 3})
	x := ast.NewVarDecl(pos, "x", intTI(pos), idRef(pos, "y"))
	let := &ast.Let{
		Node:     ast.NewNode(pos),
		Bindings: []ast.Expression{x, y},
		Body:     idRef(pos, "x"),
	}

	scopes := NewScopeStack()
	ts := NewTopoSorter(NewEnv(), scopes, &Collector{})
	if err := ts.Run(let); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(let.Bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(let.Bindings))
	}
	first, ok := let.Bindings[0].(*ast.VarDecl)
	if !ok || first.Name != "y" {
		t.Errorf("expected y to sort before x, got %v first", let.Bindings[0])
	}
}
