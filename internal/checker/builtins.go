package checker

import (
	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// registerBuiltins installs the operator and coercion function signatures
// every model can call by surface name (§4.5 "Binary/Unary", §4.4
// "Coercion inserter"). Par overloads are registered before their var
// counterpart so that an all-par call site resolves to the par overload
// (both are distance-0 matches via the PAR<=VAR subtype rule; ties break
// by registration order, earliest wins — see FunctionRegistry.MatchFn).
func registerBuiltins(r *FunctionRegistry) {
	reg := func(name string, ret types.Type, params ...types.Type) {
		r.Register(&ast.FuncSig{Name: name, Ret: ret, ParamTypes: params, Builtin: true})
	}

	numeric := []types.BaseKind{types.Int, types.Float}
	arith := []string{"+", "-", "*"}
	for _, op := range arith {
		for _, bk := range numeric {
			par := types.Type{Base: bk, Inst: types.Par}
			vr := types.Type{Base: bk, Inst: types.Var}
			reg(op, par, par, par)
			reg(op, vr, vr, vr)
		}
	}
	// Unary +/-.
	for _, bk := range numeric {
		par := types.Type{Base: bk, Inst: types.Par}
		vr := types.Type{Base: bk, Inst: types.Var}
		reg("-", par, par)
		reg("-", vr, vr)
		reg("+", par, par)
		reg("+", vr, vr)
	}
	reg("/", types.ParFloat(), types.ParFloat(), types.ParFloat())
	reg("/", types.VarFloat(), types.VarFloat(), types.VarFloat())
	reg("div", types.ParInt(), types.ParInt(), types.ParInt())
	reg("div", types.VarInt(), types.VarInt(), types.VarInt())
	reg("mod", types.ParInt(), types.ParInt(), types.ParInt())
	reg("mod", types.VarInt(), types.VarInt(), types.VarInt())

	// Comparisons, over int/float/bool/string, returning bool at matching inst.
	cmpOps := []string{"<", "<=", ">", ">=", "==", "!=", "="}
	for _, op := range cmpOps {
		for _, bk := range []types.BaseKind{types.Int, types.Float, types.Bool, types.String} {
			par := types.Type{Base: bk, Inst: types.Par}
			vr := types.Type{Base: bk, Inst: types.Var}
			reg(op, types.ParBool(), par, par)
			reg(op, types.VarBool(), vr, vr)
		}
	}

	// Boolean connectives.
	boolOps := []string{"/\\", "\\/", "xor", "->", "<-", "<->"}
	for _, op := range boolOps {
		reg(op, types.ParBool(), types.ParBool(), types.ParBool())
		reg(op, types.VarBool(), types.VarBool(), types.VarBool())
	}
	reg("not", types.ParBool(), types.ParBool())
	reg("not", types.VarBool(), types.VarBool())

	// Set operators, over par/var sets of int, float, bool and string.
	for _, bk := range []types.BaseKind{types.Int, types.Float, types.Bool, types.String} {
		parSet := types.Type{Base: bk, Inst: types.Par, Structure: types.Set}
		varSet := types.Type{Base: bk, Inst: types.Var, Structure: types.Set}
		for _, op := range []string{"union", "intersect", "diff", "symdiff"} {
			reg(op, parSet, parSet, parSet)
			reg(op, varSet, varSet, varSet)
		}
		reg("subset", types.ParBool(), parSet, parSet)
		reg("subset", types.VarBool(), varSet, varSet)
		reg("superset", types.ParBool(), parSet, parSet)
		reg("superset", types.VarBool(), varSet, varSet)
		elemPar := types.Type{Base: bk, Inst: types.Par}
		elemVar := types.Type{Base: bk, Inst: types.Var}
		reg("in", types.ParBool(), elemPar, parSet)
		reg("in", types.VarBool(), elemVar, varSet)
	}

	// Coercions.
	reg("bool2int", types.ParInt(), types.ParBool())
	reg("bool2int", types.VarInt(), types.VarBool())
	reg("bool2float", types.ParFloat(), types.ParBool())
	reg("bool2float", types.VarFloat(), types.VarBool())
	reg("int2float", types.ParFloat(), types.ParInt())
	reg("int2float", types.VarFloat(), types.VarInt())

	// show/string conversion, accepting any argument via a TOP parameter
	// (every type is a subtype of TOP, so MatchFn resolves it directly).
	reg("show", types.ParString(), types.TopType())

	// Enum support: the range constructor and the anon_enum/to_enum calls
	// that enum declarations and their expanded element VarDecls carry.
	reg("..", types.ParSetInt(), types.ParInt(), types.ParInt())
	reg("anon_enum", types.ParSetInt(), types.ParInt())
	reg("to_enum", types.ParInt(), types.ParInt(), types.ParInt())
}
