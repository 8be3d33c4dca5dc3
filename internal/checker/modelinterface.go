package checker

import (
	"io"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/types"
	"github.com/tidwall/sjson"
)

// WriteModelInterface implements §4.8: classifies every top-level VarDecl
// as input or output and emits a JSON object describing the model's
// parameter/decision-variable surface, built incrementally with sjson
// rather than assembled into an intermediate map — the emitter never
// needs to read back what it just wrote, so the set/path style of sjson
// fits more directly than round-tripping through encoding/json.
func WriteModelInterface(m *ast.Model, method ast.Method, sink io.Writer) error {
	doc := "{}"
	var err error

	doc, err = sjson.Set(doc, "method", methodString(method))
	if err != nil {
		return err
	}

	for _, vd := range m.VarDeclItems() {
		if vd.Ti == nil {
			continue
		}
		t := vd.Ti.Type()
		switch classify(vd, t) {
		case classInput:
			doc, err = setVarEntry(doc, "input."+vd.Name, t)
		case classOutput:
			doc, err = setVarEntry(doc, "output."+vd.Name, t)
		}
		if err != nil {
			return err
		}
	}

	_, err = io.WriteString(sink, doc)
	return err
}

type varClass int

const (
	classNeither varClass = iota
	classInput
	classOutput
)

// classify implements the §4.8 rule: a par declaration with no
// initialiser or an `absent` initialiser is an input; a var declaration
// with no initialiser or annotated `add_to_output` is an output.
func classify(vd *ast.VarDecl, t types.Type) varClass {
	noInitOrAbsent := vd.Init == nil || isAbsentId(vd.Init)
	if t.IsPar() && noInitOrAbsent {
		return classInput
	}
	if t.IsVar() && (vd.Init == nil || vd.HasAnnotation("add_to_output")) {
		return classOutput
	}
	return classNeither
}

func isAbsentId(e ast.Expression) bool {
	id, ok := e.(*ast.Id)
	return ok && id.Name == "absent"
}

func setVarEntry(doc, path string, t types.Type) (string, error) {
	var err error
	doc, err = sjson.Set(doc, path+".type", baseName(t.Base))
	if err != nil {
		return doc, err
	}
	if t.IsOptional() {
		doc, err = sjson.Set(doc, path+".optional", true)
		if err != nil {
			return doc, err
		}
	}
	if t.IsSet() {
		doc, err = sjson.Set(doc, path+".set", true)
		if err != nil {
			return doc, err
		}
	}
	if t.Dim != 0 {
		doc, err = sjson.Set(doc, path+".dim", t.Dim)
		if err != nil {
			return doc, err
		}
	}
	return doc, nil
}

func baseName(b types.BaseKind) string {
	switch b {
	case types.Int:
		return "int"
	case types.Bool:
		return "bool"
	case types.Float:
		return "float"
	case types.String:
		return "string"
	case types.Ann:
		return "ann"
	default:
		return "?"
	}
}

func methodString(m ast.Method) string {
	switch m {
	case ast.Minimize:
		return "min"
	case ast.Maximize:
		return "max"
	default:
		return "sat"
	}
}
