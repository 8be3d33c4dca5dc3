// Package fixture loads a small JSON model format into the checker's AST.
// It is not a MiniZinc parser — source-text recovery and parse-error
// reporting are explicitly out of scope for this checker — but it gives
// the CLI and the test suite a compact, inspectable way to construct
// Models without hand-building AST nodes at every call site.
package fixture

import (
	"fmt"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/tidwall/gjson"
)

// Load parses the JSON document doc into a Model. The document shape is:
//
//	{
//	  "decls": [{"name":"x","type":"int","inst":"var","init":3,"opt":false}],
//	  "constraints": [{"op":"<=","args":[{"id":"x"},10]}],
//	  "solve": {"method":"min","obj":{"id":"x"}},
//	  "output": [{"op":"++","args":["x = ", {"id":"x"}]}]
//	}
//
// Every node gets position {1,1}: fixtures carry no source text to
// recover real positions from.
func Load(doc string) (*ast.Model, error) {
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("fixture: invalid JSON")
	}
	root := gjson.Parse(doc)
	m := ast.NewModel()

	var loadErr error
	root.Get("decls").ForEach(func(_, v gjson.Result) bool {
		vd, err := decodeDecl(v)
		if err != nil {
			loadErr = err
			return false
		}
		m.Add(&ast.VarDeclItem{Decl: vd})
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}

	root.Get("constraints").ForEach(func(_, v gjson.Result) bool {
		expr, err := decodeExpr(v)
		if err != nil {
			loadErr = err
			return false
		}
		m.Add(&ast.ConstraintItem{Expr: expr})
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}

	if solve := root.Get("solve"); solve.Exists() {
		si := &ast.SolveItem{Method: ast.Satisfy}
		switch solve.Get("method").String() {
		case "min":
			si.Method = ast.Minimize
		case "max":
			si.Method = ast.Maximize
		}
		if obj := solve.Get("obj"); obj.Exists() {
			expr, err := decodeExpr(obj)
			if err != nil {
				return nil, err
			}
			si.Obj = expr
		}
		m.Add(si)
	}

	root.Get("output").ForEach(func(_, v gjson.Result) bool {
		expr, err := decodeExpr(v)
		if err != nil {
			loadErr = err
			return false
		}
		m.Add(&ast.OutputItem{Expr: expr})
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}

	return m, nil
}

func pos() errors.Position { return errors.Position{Line: 1, Column: 1} }

func decodeDecl(v gjson.Result) (*ast.VarDecl, error) {
	name := v.Get("name").String()
	if name == "" {
		return nil, fmt.Errorf("fixture: declaration missing \"name\"")
	}
	ti := &ast.TypeInst{
		Node:     ast.NewNode(pos()),
		Domain:   &ast.TIId{Node: ast.NewNode(pos()), Name: v.Get("type").String()},
		VarInst:  v.Get("inst").String() == "var",
		SetOf:    v.Get("set").Bool(),
		Optional: v.Get("opt").Bool(),
	}
	var init ast.Expression
	if iv := v.Get("init"); iv.Exists() {
		e, err := decodeExpr(iv)
		if err != nil {
			return nil, err
		}
		init = e
	}
	vd := ast.NewVarDecl(pos(), name, ti, init)
	vd.TopLevel = true
	return vd, nil
}

// decodeExpr decodes one fixture expression node. A JSON scalar is a
// literal; a JSON object with "id" is an identifier reference; a JSON
// object with "op"/"args" is an operator application dispatched to
// BinOp/UnOp/Call by arity; a JSON object with "set"/"array" is a
// collection literal.
func decodeExpr(v gjson.Result) (ast.Expression, error) {
	switch v.Type {
	case gjson.Number:
		if v.Num == float64(int64(v.Num)) {
			return &ast.IntLit{Node: ast.NewNode(pos()), Value: int64(v.Num)}, nil
		}
		return &ast.FloatLit{Node: ast.NewNode(pos()), Value: v.Num}, nil
	case gjson.True, gjson.False:
		return &ast.BoolLit{Node: ast.NewNode(pos()), Value: v.Bool()}, nil
	case gjson.String:
		return &ast.StringLit{Node: ast.NewNode(pos()), Value: v.String()}, nil
	}
	if v.Get("id").Exists() {
		return &ast.Id{Node: ast.NewNode(pos()), Name: v.Get("id").String()}, nil
	}
	if setArr := v.Get("set"); setArr.Exists() {
		elems, err := decodeExprArray(setArr)
		if err != nil {
			return nil, err
		}
		return &ast.SetLit{Node: ast.NewNode(pos()), Elems: elems}, nil
	}
	if arrArr := v.Get("array"); arrArr.Exists() {
		elems, err := decodeExprArray(arrArr)
		if err != nil {
			return nil, err
		}
		dim := int(v.Get("dim").Int())
		if dim == 0 {
			dim = 1
		}
		return &ast.ArrayLit{Node: ast.NewNode(pos()), Dim: dim, Elems: elems}, nil
	}
	if op := v.Get("op"); op.Exists() {
		args, err := decodeExprArray(v.Get("args"))
		if err != nil {
			return nil, err
		}
		switch len(args) {
		case 1:
			return &ast.UnOp{Node: ast.NewNode(pos()), Op: op.String(), X: args[0]}, nil
		case 2:
			return &ast.BinOp{Node: ast.NewNode(pos()), Op: op.String(), LHS: args[0], RHS: args[1]}, nil
		default:
			return &ast.Call{Node: ast.NewNode(pos()), Name: op.String(), Args: args}, nil
		}
	}
	return nil, fmt.Errorf("fixture: cannot decode expression %s", v.Raw)
}

func decodeExprArray(v gjson.Result) ([]ast.Expression, error) {
	var out []ast.Expression
	var err error
	v.ForEach(func(_, el gjson.Result) bool {
		e, derr := decodeExpr(el)
		if derr != nil {
			err = derr
			return false
		}
		out = append(out, e)
		return true
	})
	return out, err
}
