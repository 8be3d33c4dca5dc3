package checker

import (
	"github.com/cwbudde/mzn-typecheck/internal/ast"
	cerrors "github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// Expander synthesises the support machinery for enum declarations
// (§4.3): the element VarDecls for a named enum, the integer-set
// rewrite of its initialiser, and up to three `_toString_<E>` helper
// functions plus the `_enum_to_string_<E>` array. The element and array
// VarDecls it creates are pinned to env's memory guard for the duration of
// Expand; the helper FunctionItems and their parameters are not pinned.
type Expander struct {
	Env *Env
}

// NewExpander creates an expander bound to env.
func NewExpander(env *Env) *Expander { return &Expander{Env: env} }

// Expand runs the enum expansion for decl and returns the new top-level
// items (element VarDecls plus helper FunctionItems/the to-string array
// VarDecl) to be appended to the model. It is a no-op, returning nothing,
// for a declaration whose type-inst is not an enum.
func (ex *Expander) Expand(decl *ast.VarDecl) ([]ast.Item, error) {
	if decl.Ti == nil || decl.Ti.EnumName == "" {
		return nil, nil
	}
	ex.Env.Guard().Acquire()
	defer ex.Env.Guard().Release()

	enumID := ex.Env.Enums.Intern(decl)
	pos := decl.Pos()

	toStringArrayName := prefixInsertName("_enum_to_string_", decl.Name)

	var items []ast.Item

	switch {
	case decl.Init == nil:
		// No initialiser: only the skeleton to-string array, to be filled
		// later if an assignment arrives.
		arr := ex.newToStringArraySkeleton(pos, toStringArrayName)
		items = append(items, &ast.VarDeclItem{Decl: arr})

	case isAnonEnumCall(decl.Init):
		// anon_enum(N): accepted, no element-name machinery.

	case isIdentSetLit(decl.Init):
		setLit := decl.Init.(*ast.SetLit)
		n := len(setLit.Elems)
		elemNames := make([]string, n)
		for i, e := range setLit.Elems {
			elemNames[i] = e.(*ast.Id).Name
		}
		for i, name := range elemNames {
			item := ast.NewVarDecl(pos, name, decl.Ti, &ast.Call{
				Node: ast.NewNode(pos),
				Name: "to_enum",
				Args: []ast.Expression{
					&ast.IntLit{Node: ast.NewNode(pos), Value: int64(enumID)},
					&ast.IntLit{Node: ast.NewNode(pos), Value: int64(i + 1)},
				},
			})
			item.IsEnumItem = true
			ex.Env.Guard().Pin(item)
			items = append(items, &ast.VarDeclItem{Decl: item})
		}
		// Rewrite the original declaration's initialiser to 1..N (the
		// integer-set literal), preserving its enum tag via decl.Ti.
		decl.Init = makeIntRange(pos, 1, int64(n))

		arr := ex.newToStringArray(pos, toStringArrayName, elemNames)
		items = append(items, &ast.VarDeclItem{Decl: arr})

	default:
		return nil, fail(KindInvalidEnumInit, decl.Init.Pos(),
			"initialisation of enum `%s' must be anon_enum(n) or a set literal of identifiers", decl.Name)
	}

	helperItems := ex.synthesizeHelpers(decl, enumID)
	items = append(items, helperItems...)

	return items, nil
}

// Reexpand runs the expander a second time for an assignment that
// supplies the initialiser of a previously-declared (initialiser-less)
// enum, feeding the new items back to the caller so they can be
// reinserted into the model and the topological order.
func (ex *Expander) Reexpand(decl *ast.VarDecl, assignedInit ast.Expression) ([]ast.Item, error) {
	decl.Init = assignedInit
	decl.Payload = ast.PayloadUnset
	return ex.Expand(decl)
}

func prefixInsertName(prefix, name string) string {
	// When the enum identifier is quoted (e.g. `'My Enum'`), the prefix is
	// inserted after the opening quote so the result re-quotes correctly;
	// plain identifiers are simply prefixed.
	if len(name) > 0 && name[0] == '\'' {
		return "'" + prefix + name[1:]
	}
	return prefix + name
}

func toStringFnName(enumName string) string {
	if len(enumName) > 0 && enumName[0] == '\'' {
		return "'_toString_" + enumName[1:]
	}
	return "_toString_" + enumName
}

func isAnonEnumCall(e ast.Expression) bool {
	c, ok := e.(*ast.Call)
	return ok && c.Name == "anon_enum"
}

func isIdentSetLit(e ast.Expression) bool {
	sl, ok := e.(*ast.SetLit)
	if !ok {
		return false
	}
	for _, el := range sl.Elems {
		if _, ok := el.(*ast.Id); !ok {
			return false
		}
	}
	return true
}

func makeIntRange(pos cerrors.Position, lo, hi int64) ast.Expression {
	return &ast.Call{
		Node: ast.NewNode(pos),
		Name: "..",
		Args: []ast.Expression{
			&ast.IntLit{Node: ast.NewNode(pos), Value: lo},
			&ast.IntLit{Node: ast.NewNode(pos), Value: hi},
		},
	}
}

// newToStringArraySkeleton builds the bare `array[int] of string:
// _enum_to_string_E` declaration for an enum with no initialiser yet.
func (ex *Expander) newToStringArraySkeleton(pos cerrors.Position, name string) *ast.VarDecl {
	ti := &ast.TypeInst{
		Node:   ast.NewNode(pos),
		Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "string"},
		Ranges: []ast.Expression{&ast.TypeInst{Node: ast.NewNode(pos), SetOf: true, Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "int"}}},
	}
	vd := ast.NewVarDecl(pos, name, ti, nil)
	ex.Env.Guard().Pin(vd)
	return vd
}

// newToStringArray builds `array[int] of string: _enum_to_string_E = [...]`
// populated with each element's display name.
func (ex *Expander) newToStringArray(pos cerrors.Position, name string, elemNames []string) *ast.VarDecl {
	elems := make([]ast.Expression, len(elemNames))
	for i, n := range elemNames {
		elems[i] = &ast.StringLit{Node: ast.NewNode(pos), Value: n}
	}
	ti := &ast.TypeInst{
		Node:   ast.NewNode(pos),
		Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "string"},
		Ranges: []ast.Expression{&ast.TypeInst{Node: ast.NewNode(pos), SetOf: true, Domain: &ast.TIId{Node: ast.NewNode(pos), Name: "int"}}},
	}
	vd := ast.NewVarDecl(pos, name, ti, &ast.ArrayLit{Node: ast.NewNode(pos), Dim: 1, Elems: elems})
	ex.Env.Guard().Pin(vd)
	return vd
}

// synthesizeHelpers builds up to three `_toString_E` overloads (scalar,
// array, set) for the enum named by decl, per §4.3.
func (ex *Expander) synthesizeHelpers(decl *ast.VarDecl, enumID int) []ast.Item {
	pos := decl.Pos()
	fnName := toStringFnName(decl.Name)
	named := hasNamedElements(decl)

	enumType := types.Type{Base: types.Int, Inst: types.Par, EnumID: enumID}

	scalar := ex.buildScalarToString(pos, fnName, decl.Name, enumType, named)
	arrayFn := ex.buildArrayToString(pos, fnName, decl.Name, enumType)
	setFn := ex.buildSetToString(pos, fnName, decl.Name, enumType)

	for _, fn := range []*ast.FunctionItem{scalar, arrayFn, setFn} {
		ex.Env.Functions.Register(&ast.FuncSig{
			Name:       fnName,
			ParamTypes: paramTypesOf(fn),
			Ret:        types.ParString(),
			Decl:       fn,
		})
	}

	return []ast.Item{scalar, arrayFn, setFn}
}

func paramTypesOf(fn *ast.FunctionItem) []types.Type {
	out := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		out[i] = p.Ti.Type()
	}
	return out
}

func hasNamedElements(decl *ast.VarDecl) bool {
	// After rewrite, a named enum's initialiser is specifically the 1..N
	// int range synthesised by Expand; anon_enum(N) is left as-is, so
	// checking the call name (not just that it is a Call) distinguishes
	// the two forms.
	call, ok := decl.Init.(*ast.Call)
	return ok && call.Name == ".."
}

// buildScalarToString builds `function string: _toString_E(x: E, b: bool)`.
// A named enum looks its element up in the to-string array; an anonymous
// one formats `"E_" ++ show(x)` (or the data-file form when b).
func (ex *Expander) buildScalarToString(pos cerrors.Position, fnName, enumName string, enumType types.Type, named bool) *ast.FunctionItem {
	xParam := ast.NewVarDecl(pos, "x", &ast.TypeInst{Node: ast.NewNode(pos)}, nil)
	xParam.Ti.SetType(enumType)
	bParam := ast.NewVarDecl(pos, "b", &ast.TypeInst{Node: ast.NewNode(pos)}, nil)
	bParam.Ti.SetType(types.ParBool())

	var body ast.Expression
	if named {
		body = &ast.ArrayAccess{
			Node:  ast.NewNode(pos),
			Base:  &ast.Id{Node: ast.NewNode(pos), Name: prefixInsertName("_enum_to_string_", enumName)},
			Index: []ast.Expression{&ast.Id{Node: ast.NewNode(pos), Name: "x"}},
		}
	} else {
		plain := &ast.BinOp{
			Node: ast.NewNode(pos), Op: "++",
			LHS: &ast.StringLit{Node: ast.NewNode(pos), Value: enumName + "_"},
			RHS: &ast.Call{Node: ast.NewNode(pos), Name: "show", Args: []ast.Expression{&ast.Id{Node: ast.NewNode(pos), Name: "x"}}},
		}
		dataFile := &ast.BinOp{
			Node: ast.NewNode(pos), Op: "++",
			LHS: &ast.StringLit{Node: ast.NewNode(pos), Value: "to_enum(" + enumName + ","},
			RHS: &ast.BinOp{
				Node: ast.NewNode(pos), Op: "++",
				LHS: &ast.Call{Node: ast.NewNode(pos), Name: "show", Args: []ast.Expression{&ast.Id{Node: ast.NewNode(pos), Name: "x"}}},
				RHS: &ast.StringLit{Node: ast.NewNode(pos), Value: ")"},
			},
		}
		body = &ast.ITE{
			Node: ast.NewNode(pos),
			Branches: []ast.IfThen{
				{Cond: &ast.Id{Node: ast.NewNode(pos), Name: "b"}, Then: dataFile},
			},
			Else: plain,
		}
	}

	return &ast.FunctionItem{Name: fnName, Params: []*ast.VarDecl{xParam, bParam}, Body: body}
}

// buildArrayToString builds `function string: _toString_E(x: array[$U] of
// E, b: bool)`: flatten via array1d, map each element through the scalar
// helper, join with ", ", bracket with "[" / "]".
func (ex *Expander) buildArrayToString(pos cerrors.Position, fnName, enumName string, enumType types.Type) *ast.FunctionItem {
	arrTi := &ast.TypeInst{Node: ast.NewNode(pos)}
	arrTi.SetType(types.Type{Base: enumType.Base, Inst: types.Par, Dim: types.PolyDim, EnumID: enumType.EnumID})
	xParam := ast.NewVarDecl(pos, "x", arrTi, nil)
	bParam := ast.NewVarDecl(pos, "b", &ast.TypeInst{Node: ast.NewNode(pos)}, nil)
	bParam.Ti.SetType(types.ParBool())

	gen := &ast.Generator{
		Decls:  []*ast.VarDecl{ast.NewVarDecl(pos, "e", nil, nil)},
		Source: &ast.Call{Node: ast.NewNode(pos), Name: "array1d", Args: []ast.Expression{&ast.Id{Node: ast.NewNode(pos), Name: "x"}}},
	}
	comp := &ast.Comprehension{
		Node:  ast.NewNode(pos),
		Gens:  []*ast.Generator{gen},
		Result: &ast.Call{Node: ast.NewNode(pos), Name: toStringFnName(enumName), Args: []ast.Expression{
			&ast.Id{Node: ast.NewNode(pos), Name: "e"},
			&ast.Id{Node: ast.NewNode(pos), Name: "b"},
		}},
	}
	joined := &ast.Call{Node: ast.NewNode(pos), Name: "join", Args: []ast.Expression{
		&ast.StringLit{Node: ast.NewNode(pos), Value: ", "}, comp,
	}}
	body := &ast.BinOp{Node: ast.NewNode(pos), Op: "++",
		LHS: &ast.StringLit{Node: ast.NewNode(pos), Value: "["},
		RHS: &ast.BinOp{Node: ast.NewNode(pos), Op: "++", LHS: joined, RHS: &ast.StringLit{Node: ast.NewNode(pos), Value: "]"}},
	}
	return &ast.FunctionItem{Name: fnName, Params: []*ast.VarDecl{xParam, bParam}, Body: body}
}

// buildSetToString builds `function string: _toString_E(x: set of E, b:
// bool)`: a comprehension over x, joined with ", ", bracketed with "{" /
// "}".
func (ex *Expander) buildSetToString(pos cerrors.Position, fnName, enumName string, enumType types.Type) *ast.FunctionItem {
	setTi := &ast.TypeInst{Node: ast.NewNode(pos)}
	setTi.SetType(types.Type{Base: enumType.Base, Inst: types.Par, Structure: types.Set, EnumID: enumType.EnumID})
	xParam := ast.NewVarDecl(pos, "x", setTi, nil)
	bParam := ast.NewVarDecl(pos, "b", &ast.TypeInst{Node: ast.NewNode(pos)}, nil)
	bParam.Ti.SetType(types.ParBool())

	gen := &ast.Generator{
		Decls:  []*ast.VarDecl{ast.NewVarDecl(pos, "e", nil, nil)},
		Source: &ast.Id{Node: ast.NewNode(pos), Name: "x"},
	}
	comp := &ast.Comprehension{
		Node: ast.NewNode(pos),
		Gens: []*ast.Generator{gen},
		Result: &ast.Call{Node: ast.NewNode(pos), Name: toStringFnName(enumName), Args: []ast.Expression{
			&ast.Id{Node: ast.NewNode(pos), Name: "e"},
			&ast.Id{Node: ast.NewNode(pos), Name: "b"},
		}},
	}
	joined := &ast.Call{Node: ast.NewNode(pos), Name: "join", Args: []ast.Expression{
		&ast.StringLit{Node: ast.NewNode(pos), Value: ", "}, comp,
	}}
	body := &ast.BinOp{Node: ast.NewNode(pos), Op: "++",
		LHS: &ast.StringLit{Node: ast.NewNode(pos), Value: "{"},
		RHS: &ast.BinOp{Node: ast.NewNode(pos), Op: "++", LHS: joined, RHS: &ast.StringLit{Node: ast.NewNode(pos), Value: "}"}},
	}
	return &ast.FunctionItem{Name: fnName, Params: []*ast.VarDecl{xParam, bParam}, Body: body}
}
