package checker

import (
	"testing"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/fixture"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// S1: a cycle between two par int declarations reports circular-definition.
func TestDriverCycleDetection(t *testing.T) {
	doc := `{
		"decls": [
			{"name": "a", "type": "int", "init": {"id": "b"}},
			{"name": "b", "type": "int", "init": {"id": "a"}}
		]
	}`
	m, err := fixture.Load(doc)
	if err != nil {
		t.Fatalf("fixture.Load: %v", err)
	}
	diags := NewDriver(NewEnv(), Options{}).Run(m)
	found := false
	for _, d := range diags {
		if d.Kind == KindCircularDefinition {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a circular-definition diagnostic, got %v", diags)
	}
}

// S2: a forward reference type-checks, and the referenced declaration's
// topological position precedes the referrer's.
func TestDriverForwardReference(t *testing.T) {
	doc := `{
		"decls": [
			{"name": "x", "type": "int", "init": {"op": "+", "args": [{"id": "y"}, 1]}},
			{"name": "y", "type": "int", "init": 3}
		]
	}`
	m, err := fixture.Load(doc)
	if err != nil {
		t.Fatalf("fixture.Load: %v", err)
	}
	diags := NewDriver(NewEnv(), Options{}).Run(m)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}

	var x, y *int
	for _, vd := range m.VarDeclItems() {
		p := vd.Payload
		switch vd.Name {
		case "x":
			x = &p
		case "y":
			y = &p
		}
	}
	if x == nil || y == nil {
		t.Fatalf("expected both x and y to remain as top-level VarDecls")
	}
	if !(*y < *x) {
		t.Errorf("expected pos(y) < pos(x), got pos(y)=%d pos(x)=%d", *y, *x)
	}
}

func TestDriverMissingParameterDiagnostic(t *testing.T) {
	doc := `{"decls": [{"name": "n", "type": "int"}]}`
	m, err := fixture.Load(doc)
	if err != nil {
		t.Fatalf("fixture.Load: %v", err)
	}
	diags := NewDriver(NewEnv(), Options{}).Run(m)
	found := false
	for _, d := range diags {
		if d.Kind == KindMissingParameter {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing-parameter for an uninitialised par decl, got %v", diags)
	}
}

// An enum declared with an inline element list expands at P0 into its
// element VarDecls and _toString_ helper, not only when an assignment
// arrives later.
func TestDriverExpandsInlineEnumAtP0(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	ti := &ast.TypeInst{Node: ast.NewNode(pos), EnumName: "Color"}
	init := &ast.SetLit{Node: ast.NewNode(pos), Elems: []ast.Expression{
		&ast.Id{Node: ast.NewNode(pos), Name: "red"},
		&ast.Id{Node: ast.NewNode(pos), Name: "green"},
	}}
	decl := ast.NewVarDecl(pos, "Color", ti, init)
	decl.TopLevel = true

	m := ast.NewModel()
	m.Add(&ast.VarDeclItem{Decl: decl})

	NewDriver(NewEnv(), Options{}).Run(m)

	var foundRed, foundHelper bool
	for _, vd := range m.VarDeclItems() {
		if vd.Name == "red" {
			foundRed = true
		}
	}
	for _, fi := range m.FunctionItems() {
		if fi.Name == "_toString_Color" {
			foundHelper = true
		}
	}
	if !foundRed {
		t.Errorf("expected element VarDecl `red` to be synthesised at P0")
	}
	if !foundHelper {
		t.Errorf("expected _toString_Color helper to be synthesised at P0")
	}
}

// A second solve item is rejected with one-solve-item and dropped, leaving
// only the first for objective typing.
func TestDriverRejectsSecondSolveItem(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	m := ast.NewModel()
	m.Add(&ast.SolveItem{Method: ast.Satisfy})
	m.Add(&ast.SolveItem{Method: ast.Maximize, Obj: &ast.IntLit{Node: ast.NewNode(pos), Value: 1}})

	diags := NewDriver(NewEnv(), Options{}).Run(m)
	found := false
	for _, d := range diags {
		if d.Kind == KindOneSolveItem {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected one-solve-item for a second solve item, got %v", diags)
	}
	count := 0
	for _, it := range m.Items {
		if _, ok := it.(*ast.SolveItem); ok {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one remaining solve item, got %d", count)
	}
}

// A top-level declaration whose type-inst is a bare TIId is rejected;
// TIIds are only meaningful inside a function signature.
func TestDriverRejectsTIIdInTopDecl(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	ti := &ast.TypeInst{Node: ast.NewNode(pos), IsTIId: true, TIIdName: "T"}
	decl := ast.NewVarDecl(pos, "x", ti, nil)
	decl.TopLevel = true

	m := ast.NewModel()
	m.Add(&ast.VarDeclItem{Decl: decl})

	diags := NewDriver(NewEnv(), Options{}).Run(m)
	found := false
	for _, d := range diags {
		if d.Kind == KindTIIdInTopDecl {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tiid-in-top-decl, got %v", diags)
	}
}

// S3: an anonymous enum's variable declaration types to a nonzero enum
// ID, and a call to its synthesised to-string helper type-checks to
// string.
func TestDriverAnonEnumVarDeclAndToString(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	colorTi := &ast.TypeInst{Node: ast.NewNode(pos), EnumName: "Color", AnonEnumN: 3}
	colorInit := &ast.Call{Node: ast.NewNode(pos), Name: "anon_enum", Args: []ast.Expression{
		&ast.IntLit{Node: ast.NewNode(pos), Value: 3},
	}}
	colorDecl := ast.NewVarDecl(pos, "Color", colorTi, colorInit)
	colorDecl.TopLevel = true

	cTi := &ast.TypeInst{Node: ast.NewNode(pos), VarInst: true, Domain: &ast.Id{Node: ast.NewNode(pos), Name: "Color"}}
	cDecl := ast.NewVarDecl(pos, "c", cTi, nil)
	cDecl.TopLevel = true

	m := ast.NewModel()
	m.Add(&ast.VarDeclItem{Decl: colorDecl})
	m.Add(&ast.VarDeclItem{Decl: cDecl})

	env := NewEnv()
	d := NewDriver(env, Options{})
	diags := d.Run(m)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}

	ct := cDecl.Ti.Type()
	if ct.Base != types.Int || ct.EnumID == 0 {
		t.Fatalf("expected c's type to be a nonzero-enum int, got %s", ct)
	}

	var toStringFn *ast.FunctionItem
	for _, fi := range m.FunctionItems() {
		if fi.Name == "_toString_Color" && len(fi.Params) == 2 {
			toStringFn = fi
		}
	}
	if toStringFn == nil {
		t.Fatalf("expected a 2-arg _toString_Color helper among the synthesised items")
	}

	// The helper's x parameter is par (buildScalarToString), so the call
	// is driven with a fresh par-Color value rather than the var `c`
	// itself, which would need a var-accepting overload this enum does
	// not synthesise.
	parTi := &ast.TypeInst{Node: ast.NewNode(pos)}
	parTi.SetType(types.Type{Base: types.Int, Inst: types.Par, EnumID: ct.EnumID})
	parDecl := ast.NewVarDecl(pos, "p", parTi, nil)

	typer := NewTyper(env, d.Scopes, &Collector{}, false)
	call := &ast.Call{Node: ast.NewNode(pos), Name: "_toString_Color", Args: []ast.Expression{
		&ast.Id{Node: ast.NewNode(pos), Name: "p", Decl: parDecl},
		&ast.BoolLit{Node: ast.NewNode(pos), Value: false},
	}}
	if err := typer.Type(call); err != nil {
		t.Fatalf("Type(call): %v", err)
	}
	if call.Type().Base != types.String {
		t.Errorf("call type = %s, want string", call.Type())
	}
}

// S4: an array declared over a named-element enum axis carries the
// array-enum tuple (D, int) on its declared type, and a plain integer
// array literal initialiser is accepted via implicit enum-index erasure.
func TestDriverArrayOverEnumAxis(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	dTi := &ast.TypeInst{Node: ast.NewNode(pos), EnumName: "D"}
	dInit := &ast.SetLit{Node: ast.NewNode(pos), Elems: []ast.Expression{
		&ast.Id{Node: ast.NewNode(pos), Name: "red"},
		&ast.Id{Node: ast.NewNode(pos), Name: "green"},
		&ast.Id{Node: ast.NewNode(pos), Name: "blue"},
	}}
	dDecl := ast.NewVarDecl(pos, "D", dTi, dInit)
	dDecl.TopLevel = true

	axisTi := &ast.TypeInst{Node: ast.NewNode(pos), SetOf: true, Domain: &ast.Id{Node: ast.NewNode(pos), Name: "D"}}
	aTi := &ast.TypeInst{
		Node:   ast.NewNode(pos),
		Ranges: []ast.Expression{axisTi},
		Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "int"},
	}
	aInit := &ast.ArrayLit{Node: ast.NewNode(pos), Dim: 1, Elems: []ast.Expression{
		&ast.IntLit{Node: ast.NewNode(pos), Value: 1},
		&ast.IntLit{Node: ast.NewNode(pos), Value: 2},
		&ast.IntLit{Node: ast.NewNode(pos), Value: 3},
	}}
	aDecl := ast.NewVarDecl(pos, "a", aTi, aInit)
	aDecl.TopLevel = true

	m := ast.NewModel()
	m.Add(&ast.VarDeclItem{Decl: dDecl})
	m.Add(&ast.VarDeclItem{Decl: aDecl})

	env := NewEnv()
	diags := NewDriver(env, Options{}).Run(m)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}

	at := aDecl.Ti.Type()
	if at.EnumID == 0 {
		t.Fatalf("expected a's declared type to carry a nonzero array-enum tuple, got %s", at)
	}
	tuple := env.Enums.Arrays.Tuple(at.EnumID)
	if len(tuple) != 2 || tuple[0] == 0 || tuple[1] != 0 {
		t.Fatalf("expected array-enum tuple (D, int), got %v", tuple)
	}
}

// Annotation expressions naming a built-in constant (add_to_output) are
// resolved by the topological sorter and type-checked, rather than
// raising undefined-identifier.
func TestDriverAnnotationBuiltinTypeChecks(t *testing.T) {
	pos := errors.Position{Line: 1, Column: 1}
	ti := &ast.TypeInst{Node: ast.NewNode(pos), Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "int"}}
	decl := ast.NewVarDecl(pos, "n", ti, &ast.IntLit{Node: ast.NewNode(pos), Value: 1})
	decl.TopLevel = true
	decl.Annotations = []ast.Expression{
		&ast.Id{Node: ast.NewNode(pos), Name: "add_to_output"},
	}

	m := ast.NewModel()
	m.Add(&ast.VarDeclItem{Decl: decl})

	diags := NewDriver(NewEnv(), Options{}).Run(m)
	for _, d := range diags {
		if d.Kind == KindUndefinedIdentifier {
			t.Fatalf("unexpected undefined-identifier for a built-in annotation, got %v", diags)
		}
	}
}

func TestDriverIgnoreUndefinedParameters(t *testing.T) {
	doc := `{"decls": [{"name": "n", "type": "int"}]}`
	m, err := fixture.Load(doc)
	if err != nil {
		t.Fatalf("fixture.Load: %v", err)
	}
	diags := NewDriver(NewEnv(), Options{IgnoreUndefinedParameters: true}).Run(m)
	for _, d := range diags {
		if d.Kind == KindMissingParameter {
			t.Fatalf("missing-parameter should be suppressed when IgnoreUndefinedParameters is set")
		}
	}
}
