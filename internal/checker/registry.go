package checker

import (
	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// FunctionRegistry holds every registered function/predicate/operator
// signature and resolves call sites against it by best-match overload
// resolution (§4.5, "Binary / Unary", "Call"). Registration happens only
// during P0–P1 (§5); afterward the registry is read-only.
type FunctionRegistry struct {
	byName map[string][]*ast.FuncSig
	order  []*ast.FuncSig // registration order, for deterministic conflict reporting
}

// NewFunctionRegistry creates an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{byName: make(map[string][]*ast.FuncSig)}
}

// Register adds sig under its name, allowing overloads.
func (r *FunctionRegistry) Register(sig *ast.FuncSig) {
	r.byName[sig.Name] = append(r.byName[sig.Name], sig)
	r.order = append(r.order, sig)
}

// Signatures returns every signature registered under name, in
// registration order.
func (r *FunctionRegistry) Signatures(name string) []*ast.FuncSig {
	return r.byName[name]
}

// coercionDistance reports how many built-in coercion steps are needed to
// bring arg in line with param (0 for a direct subtype, 1 for one
// implicit coercion), and whether it is possible at all. This mirrors
// the rules consulted by the coercion inserter (§4.4) but only scores
// compatibility; it performs no AST rewriting.
func coercionDistance(arg, param types.Type) (int, bool) {
	if arg.IsSubtypeOf(param) {
		return 0, true
	}
	// Scalar source, array target: set2array, then retry at dim 0.
	if arg.Dim == 0 && param.Dim != 0 {
		if arg.IsVar() && arg.IsSet() {
			return 0, false
		}
		scalarArg := arg
		scalarArg.Dim = param.Dim
		scalarArg.Structure = types.Plain
		if d, ok := coercionDistance(scalarArg, param); ok {
			return d + 1, true
		}
		return 0, false
	}
	if arg.Dim != param.Dim {
		return 0, false
	}
	if arg.Structure != param.Structure {
		return 0, false
	}
	// Element coercions: bool->int, bool->float, int->float.
	switch {
	case arg.Base == types.Bool && (param.Base == types.Int || param.Base == types.Float):
	case arg.Base == types.Int && param.Base == types.Float:
	default:
		return 0, false
	}
	coerced := arg
	coerced.Base = param.Base
	if coerced.IsSubtypeOf(param) {
		return 1, true
	}
	return 0, false
}

// MatchFn resolves the best-matching signature among those registered
// under name for the given argument types. It returns ok == false (callers
// then report overload-none) if no candidate's arity and
// coercion-compatible parameter shapes match;
// among matches it prefers the fewest total coercions, breaking ties by
// registration order (earliest wins) since the grammar never specifies a
// tie-break rule more precise than "first applicable declaration".
func (r *FunctionRegistry) MatchFn(name string, argTypes []types.Type) (*ast.FuncSig, bool) {
	var best *ast.FuncSig
	bestDist := -1
	for _, sig := range r.byName[name] {
		if len(sig.ParamTypes) != len(argTypes) {
			continue
		}
		total := 0
		ok := true
		for i, pt := range sig.ParamTypes {
			d, compat := coercionDistance(argTypes[i], pt)
			if !compat {
				ok = false
				break
			}
			total += d
		}
		if !ok {
			continue
		}
		if best == nil || total < bestDist {
			best, bestDist = sig, total
		}
	}
	return best, best != nil
}

// signaturesIndistinguishable reports whether two same-named signatures
// would be ambiguous for some call: identical arity where every parameter
// pair is equal under types.Type.Equal.
func signaturesIndistinguishable(a, b *ast.FuncSig) bool {
	if len(a.ParamTypes) != len(b.ParamTypes) {
		return false
	}
	for i := range a.ParamTypes {
		pa, pb := a.ParamTypes[i], b.ParamTypes[i]
		if !pa.Equal(pb) {
			return false
		}
	}
	return true
}

// CheckOverloadConflicts implements P7: a one-shot scan for two
// registered, user-declared functions under the same name whose
// parameter shapes are indistinguishable. Builtins are assumed
// consistent by construction and are skipped.
func (r *FunctionRegistry) CheckOverloadConflicts(c *Collector) {
	for name, sigs := range r.byName {
		for i := 0; i < len(sigs); i++ {
			if sigs[i].Builtin {
				continue
			}
			for j := i + 1; j < len(sigs); j++ {
				if sigs[j].Builtin {
					continue
				}
				if signaturesIndistinguishable(sigs[i], sigs[j]) {
					pos := sigs[j].Decl.Params[0].Pos()
					if len(sigs[j].Decl.Params) == 0 {
						pos = sigs[i].Decl.Params[0].Pos()
					}
					c.Add(KindOverloadConflict, pos, "function `%s' is declared with indistinguishable signatures", name)
				}
			}
		}
	}
}

// EnumRegistry interns enum-bearing declarations, assigning each a stable
// positive ID, and separately interns array-enum tuples to a single ID
// (§3, "Enum registry").
type EnumRegistry struct {
	Scalars *types.EnumTable
	Arrays  *types.ArrayEnumTable
	decls   map[*ast.VarDecl]int
}

// NewEnumRegistry creates an empty enum registry.
func NewEnumRegistry() *EnumRegistry {
	return &EnumRegistry{
		Scalars: types.NewEnumTable(),
		Arrays:  types.NewArrayEnumTable(),
		decls:   make(map[*ast.VarDecl]int),
	}
}

// Intern assigns (or returns the existing) enum ID for decl.
func (r *EnumRegistry) Intern(decl *ast.VarDecl) int {
	if id, ok := r.decls[decl]; ok {
		return id
	}
	id := r.Scalars.Intern(decl.Name)
	r.decls[decl] = id
	return id
}

// IDOf returns decl's enum ID, or 0 if it was never interned.
func (r *EnumRegistry) IDOf(decl *ast.VarDecl) int {
	return r.decls[decl]
}

// ConstantsTable holds the built-in identifiers the checker must
// recognise by name: coercion functions, `show`, `absent`, boolean
// literals-as-constants, and annotation names such as `add_to_output`.
// It is populated once when the Env is constructed and read thereafter.
type ConstantsTable struct {
	names map[string]bool
}

// NewConstantsTable creates the table pre-populated with the identifiers
// named throughout §2–§4 of the design.
func NewConstantsTable() *ConstantsTable {
	t := &ConstantsTable{names: make(map[string]bool)}
	for _, n := range []string{
		"show", "bool2int", "bool2float", "int2float", "set2array",
		"absent", "true", "false", "add_to_output", "array1d",
	} {
		t.names[n] = true
	}
	return t
}

// Has reports whether name is a recognised built-in constant/function name.
func (t *ConstantsTable) Has(name string) bool { return t.names[name] }
