package checker

import (
	"bytes"
	"testing"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/fixture"
	"github.com/tidwall/gjson"
)

func loadAndTypeFixture(t *testing.T, doc string) *ast.Model {
	t.Helper()
	m, err := fixture.Load(doc)
	if err != nil {
		t.Fatalf("fixture.Load: %v", err)
	}
	// Type every declaration so WriteModelInterface sees real base kinds;
	// an uninitialised par is expected here, so ignore it as undefined.
	NewDriver(NewEnv(), Options{IgnoreUndefinedParameters: true}).Run(m)
	return m
}

// A par int with no initialiser classifies as input; a var bool with no
// initialiser classifies as output; the solve method is reported verbatim.
func TestWriteModelInterfaceClassifiesInputsAndOutputs(t *testing.T) {
	doc := `{
		"decls": [
			{"name": "n", "type": "int"},
			{"name": "ok", "type": "bool", "inst": "var"}
		]
	}`
	m := loadAndTypeFixture(t, doc)

	var buf bytes.Buffer
	if err := WriteModelInterface(m, ast.Satisfy, &buf); err != nil {
		t.Fatalf("WriteModelInterface: %v", err)
	}
	out := buf.String()

	if got := gjson.Get(out, "method").String(); got != "sat" {
		t.Errorf("method = %q, want sat", got)
	}
	if got := gjson.Get(out, "input.n.type").String(); got != "int" {
		t.Errorf("input.n.type = %q, want int", got)
	}
	if got := gjson.Get(out, "output.ok.type").String(); got != "bool" {
		t.Errorf("output.ok.type = %q, want bool", got)
	}
}

// A par decl with a real initialiser is neither input nor output.
func TestWriteModelInterfaceSkipsInitialisedPar(t *testing.T) {
	doc := `{"decls": [{"name": "n", "type": "int", "init": 3}]}`
	m := loadAndTypeFixture(t, doc)

	var buf bytes.Buffer
	if err := WriteModelInterface(m, ast.Maximize, &buf); err != nil {
		t.Fatalf("WriteModelInterface: %v", err)
	}
	out := buf.String()

	if gjson.Get(out, "input.n").Exists() {
		t.Errorf("expected n to be omitted once initialised, got %s", out)
	}
	if got := gjson.Get(out, "method").String(); got != "max" {
		t.Errorf("method = %q, want max", got)
	}
}
