package checker

import (
	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// Typer implements §4.5: a bottom-up visitor computing the Type of every
// expression node. The same visitor runs twice over a model — phase 1
// with IgnoreVarDecl set, visiting only declarations' type-insts and
// function signatures, and phase 2 with it cleared, visiting every item
// body including VarDecl initialisers.
type Typer struct {
	Env           *Env
	Scopes        *ScopeStack
	Coercer       *Coercer
	Collector     *Collector
	IgnoreVarDecl bool
}

// NewTyper creates a typer sharing env's registries and scopes.
func NewTyper(env *Env, scopes *ScopeStack, collector *Collector, ignoreVarDecl bool) *Typer {
	return &Typer{
		Env:           env,
		Scopes:        scopes,
		Coercer:       NewCoercer(env),
		Collector:     collector,
		IgnoreVarDecl: ignoreVarDecl,
	}
}

// Type computes (and caches onto e) the type of e, dispatching per node
// kind. Every failure is returned as a *CheckError and stops typing of
// the enclosing top-level item; the Typer itself never adds to the
// Collector, so the driver's per-item boundary (Driver.tryItem) is what
// turns the error into a diagnostic and lets the remaining items proceed.
func (t *Typer) Type(e ast.Expression) error {
	switch n := e.(type) {
	case *ast.IntLit:
		n.SetType(types.ParInt())
	case *ast.FloatLit:
		n.SetType(types.ParFloat())
	case *ast.BoolLit:
		n.SetType(types.ParBool())
	case *ast.StringLit:
		n.SetType(types.ParString())
	case *ast.AnonVar:
		n.SetType(types.Type{Base: types.Unknown})
	case *ast.TIId:
		n.SetType(types.TopType())
	case *ast.Id:
		return t.typeId(n)
	case *ast.SetLit:
		return t.typeSetLit(n)
	case *ast.ArrayLit:
		return t.typeArrayLit(n)
	case *ast.ArrayAccess:
		return t.typeArrayAccess(n)
	case *ast.Comprehension:
		return t.typeComprehension(n)
	case *ast.ITE:
		return t.typeITE(n)
	case *ast.BinOp:
		return t.typeBinOp(n)
	case *ast.UnOp:
		return t.typeUnOp(n)
	case *ast.Call:
		return t.typeCall(n)
	case *ast.Let:
		return t.typeLet(n)
	case *ast.VarDecl:
		return t.typeVarDecl(n)
	case *ast.TypeInst:
		return t.typeTypeInst(n)
	}
	return nil
}

func (t *Typer) typeId(n *ast.Id) error {
	if n.Decl == nil {
		if t.Env.Constants.Has(n.Name) {
			// A built-in constant/annotation name such as `add_to_output`
			// has no VarDecl of its own to type against.
			n.SetType(types.Type{Base: types.Ann})
			return nil
		}
		return fail(KindUndefinedIdentifier, n.Pos(), "undefined identifier %s", n.Name)
	}
	n.SetType(n.Decl.Ti.Type())
	return nil
}

// typeSetLit implements the set-literal rule: merge element base kinds
// under subtyping, any var element promotes the whole literal to VAR (and
// requires every element to be int-compatible), enum IDs collapse to 0 on
// disagreement, and an empty set types as BOT.
func (t *Typer) typeSetLit(n *ast.SetLit) error {
	if len(n.Elems) == 0 {
		n.SetType(types.Type{Base: types.Bot, Structure: types.Set})
		return nil
	}
	var result types.Type
	isVar := false
	for _, el := range n.Elems {
		if err := t.Type(el); err != nil {
			return err
		}
		if el.Type().IsVar() {
			isVar = true
		}
	}
	result = n.Elems[0].Type()
	for _, el := range n.Elems[1:] {
		et := el.Type()
		if et.Base != result.Base {
			return fail(KindNonUniformSet, n.Pos(), "set literal has non-uniform element type (%s vs %s)", result, et)
		}
		if et.EnumID != result.EnumID {
			result.EnumID = 0
		}
	}
	if isVar {
		for _, el := range n.Elems {
			if el.Type().Base == types.Bool {
				continue
			}
			if el.Type().Base != types.Int {
				return fail(KindSetElemNotInt, n.Pos(), "var set elements must be int, found %s", el.Type())
			}
		}
		result.Base = types.Int
		result.Inst = types.Var
	} else {
		result.Inst = types.Par
	}
	result.Structure = types.Set
	result.Dim = 0
	n.SetType(result)
	return nil
}

// typeArrayLit implements the array-literal rule: dim comes from the
// node's declared dimensionality, base/structure/enum are taken from the
// first non-anonymous element, subsequent elements must be
// subtype-comparable under the same structure, and any anonymous element
// is typed to the inferred element type once the scan completes.
func (t *Typer) typeArrayLit(n *ast.ArrayLit) error {
	if len(n.Elems) == 0 {
		n.SetType(types.Type{Base: types.Bot, Dim: n.Dim})
		return nil
	}
	var elemType types.Type
	haveElemType := false
	var anons []ast.Expression
	for _, el := range n.Elems {
		if _, ok := el.(*ast.AnonVar); ok {
			anons = append(anons, el)
			continue
		}
		if err := t.Type(el); err != nil {
			return err
		}
		et := el.Type()
		if et.Dim != 0 {
			return fail(KindArrayNested, el.Pos(), "array literal elements must be scalar, found nested array")
		}
		if !haveElemType {
			elemType = et
			haveElemType = true
			continue
		}
		if et.Structure != elemType.Structure || et.Base != elemType.Base {
			return fail(KindNonUniformArray, el.Pos(), "array literal has non-uniform element type (%s vs %s)", elemType, et)
		}
		if et.EnumID != elemType.EnumID {
			elemType.EnumID = 0
		}
		joined, ok := elemType.Join(et)
		if !ok {
			return fail(KindNonUniformArray, el.Pos(), "array literal has incompatible element types (%s vs %s)", elemType, et)
		}
		elemType = joined
	}
	if !haveElemType {
		return fail(KindNonUniformArray, n.Pos(), "array literal of all-anonymous elements has no inferable type")
	}
	for _, a := range anons {
		a.SetType(elemType.WithInst(types.Var))
	}
	result := elemType
	result.Dim = n.Dim
	if result.EnumID != 0 {
		tuple := make([]int, n.Dim+1)
		tuple[n.Dim] = result.EnumID
		result.EnumID = t.Env.Enums.Arrays.Intern(tuple)
	}
	n.SetType(result)
	return nil
}

// typeArrayAccess implements the array-access rule: a set base is
// auto-coerced to an array, dim must match the index list's length, each
// index is checked against its axis's enum tag (when the axis carries
// one) or else must be int/bool, a var index makes the result var, and an
// optional index makes the result optional.
func (t *Typer) typeArrayAccess(n *ast.ArrayAccess) error {
	if err := t.Type(n.Base); err != nil {
		return err
	}
	base := n.Base.Type()
	if base.IsSet() {
		coerced, err := t.Coercer.Coerce(n.Base, types.Type{Base: base.Base, Dim: len(n.Index), Inst: base.Inst})
		if err != nil {
			return err
		}
		n.Base = coerced
		base = n.Base.Type()
	}
	if base.Dim != len(n.Index) && base.Dim != types.PolyDim {
		return fail(KindArrayAccessRank, n.Pos(), "array access has %d index expressions, array has dim %d", len(n.Index), base.Dim)
	}

	var axisIDs []int
	if base.EnumID != 0 {
		axisIDs = t.Env.Enums.Arrays.Tuple(base.EnumID)
	}
	isVar := base.IsVar()
	isOpt := base.IsOptional()
	for i, idx := range n.Index {
		if err := t.Type(idx); err != nil {
			return err
		}
		it := idx.Type()
		axisEnum := 0
		if i < len(axisIDs)-1 {
			axisEnum = axisIDs[i]
		}
		if axisEnum != 0 {
			if it.EnumID != axisEnum {
				return fail(KindIndexType, idx.Pos(), "array index enum mismatch on axis %d", i)
			}
		} else if it.Base != types.Int && it.Base != types.Bool {
			return fail(KindIndexType, idx.Pos(), "array index must be int or bool, found %s", it)
		}
		if it.IsVar() {
			isVar = true
		}
		if it.IsOptional() {
			isOpt = true
		}
	}
	if isVar && (base.Base == types.Ann || base.Base == types.String) {
		return fail(KindTypeMismatch, n.Pos(), "var array access forbidden on base type %s", base.Base)
	}
	result := base
	result.Dim = 0
	if isVar {
		result.Inst = types.Var
	}
	if isOpt {
		result.Opt = types.Optional
	}
	n.SetType(result)
	return nil
}

// typeComprehension implements the comprehension rule: each generator's
// source must be a (par/var) set of int or a 1-D int array; a var
// source or where-clause propagates var+optional to the result; a set
// comprehension types to dim 0 structure SET with a scalar non-set result
// expression, an array comprehension types to dim 1 with a non-array
// result expression.
func (t *Typer) typeComprehension(n *ast.Comprehension) error {
	t.Scopes.Push(false)
	defer t.Scopes.Pop()

	isVar := false
	isOpt := false
	for _, g := range n.Gens {
		if err := t.Type(g.Source); err != nil {
			return err
		}
		st := g.Source.Type()
		if !(st.IsSet() && st.Base == types.Int) && !st.IsIntArray() {
			return fail(KindTypeMismatch, g.Source.Pos(), "comprehension generator source must be a set of int or a 1-D int array, found %s", st)
		}
		if st.IsVar() {
			isVar = true
			isOpt = true
		}
		for _, d := range g.Decls {
			if err := t.Scopes.Add(d); err != nil {
				return err
			}
			d.Ti = &ast.TypeInst{}
			d.Ti.SetType(types.Type{Base: types.Int, Inst: st.Inst})
		}
	}
	if n.Where != nil {
		if err := t.Type(n.Where); err != nil {
			return err
		}
		if n.Where.Type().IsVar() {
			isVar = true
			isOpt = true
		}
	}
	if err := t.Type(n.Result); err != nil {
		return err
	}
	rt := n.Result.Type()

	var result types.Type
	if n.Set {
		if rt.IsSet() || rt.Dim != 0 {
			return fail(KindTypeMismatch, n.Result.Pos(), "set comprehension result must be scalar non-set, found %s", rt)
		}
		result = rt
		result.Structure = types.Set
		result.Dim = 0
	} else {
		if rt.Dim != 0 {
			return fail(KindTypeMismatch, n.Result.Pos(), "array comprehension result must be non-array, found %s", rt)
		}
		result = rt
		result.Dim = 1
		if result.EnumID != 0 {
			result.EnumID = t.Env.Enums.Arrays.Intern([]int{0, result.EnumID})
		}
	}
	if isVar {
		result.Inst = types.Var
	}
	if isOpt {
		result.Opt = types.Optional
	}
	n.SetType(result)
	return nil
}

// typeITE implements the if-then-else rule: every condition must be
// (par|var) bool, a var condition forces the whole result var and
// forbids an array result, and the then/else branches are joined under
// subtyping with then-branches coerced up to the join.
func (t *Typer) typeITE(n *ast.ITE) error {
	anyVarCond := false
	var joined types.Type
	haveJoined := false

	for i := range n.Branches {
		b := &n.Branches[i]
		if err := t.Type(b.Cond); err != nil {
			return err
		}
		if b.Cond.Type().Base != types.Bool {
			return fail(KindBadCondType, b.Cond.Pos(), "if condition must be bool, found %s", b.Cond.Type())
		}
		if b.Cond.Type().IsVar() {
			anyVarCond = true
		}
		if err := t.Type(b.Then); err != nil {
			return err
		}
		if !haveJoined {
			joined = b.Then.Type()
			haveJoined = true
		} else {
			j, ok := joined.Join(b.Then.Type())
			if !ok {
				return fail(KindTypeMismatch, b.Then.Pos(), "if branches are not comparable (%s vs %s)", joined, b.Then.Type())
			}
			joined = j
		}
	}
	if err := t.Type(n.Else); err != nil {
		return err
	}
	if !haveJoined {
		joined = n.Else.Type()
	} else {
		j, ok := joined.Join(n.Else.Type())
		if !ok {
			return fail(KindTypeMismatch, n.Else.Pos(), "else branch is not comparable with then branches (%s vs %s)", joined, n.Else.Type())
		}
		joined = j
	}

	if anyVarCond {
		if joined.Dim != 0 {
			return fail(KindCondVarArray, n.Pos(), "var condition forbids an array-typed if result")
		}
		joined.Inst = types.Var
	}
	for i := range n.Branches {
		b := &n.Branches[i]
		if _, ok := b.Then.(*ast.AnonVar); ok {
			b.Then.SetType(joined.WithInst(types.Var))
			continue
		}
		coerced, err := t.Coercer.Coerce(b.Then, joined)
		if err != nil {
			return err
		}
		b.Then = coerced
	}
	if _, ok := n.Else.(*ast.AnonVar); ok {
		n.Else.SetType(joined.WithInst(types.Var))
	} else {
		coerced, err := t.Coercer.Coerce(n.Else, joined)
		if err != nil {
			return err
		}
		n.Else = coerced
	}
	n.SetType(joined)
	return nil
}

// typeBinOp resolves the operator by its surface string against the
// function registry, coerces each operand to the matched signature's
// declared parameter type, and sets the result to the signature's return
// type with cv = OR of the operand cv flags.
func (t *Typer) typeBinOp(n *ast.BinOp) error {
	if err := t.Type(n.LHS); err != nil {
		return err
	}
	if err := t.Type(n.RHS); err != nil {
		return err
	}
	sig, ok := t.Env.Functions.MatchFn(n.Op, []types.Type{n.LHS.Type(), n.RHS.Type()})
	if !ok {
		return fail(KindOverloadNone, n.Pos(), "no overload of `%s' matches (%s, %s)", n.Op, n.LHS.Type(), n.RHS.Type())
	}
	lhs, err := t.Coercer.Coerce(n.LHS, sig.ParamTypes[0])
	if err != nil {
		return err
	}
	rhs, err := t.Coercer.Coerce(n.RHS, sig.ParamTypes[1])
	if err != nil {
		return err
	}
	n.LHS, n.RHS, n.Decl = lhs, rhs, sig
	ret := sig.Ret
	ret.CV = lhs.Type().CV || rhs.Type().CV
	n.SetType(ret)
	return nil
}

// typeUnOp mirrors typeBinOp for a single operand.
func (t *Typer) typeUnOp(n *ast.UnOp) error {
	if err := t.Type(n.X); err != nil {
		return err
	}
	sig, ok := t.Env.Functions.MatchFn(n.Op, []types.Type{n.X.Type()})
	if !ok {
		return fail(KindOverloadNone, n.Pos(), "no overload of `%s' matches (%s)", n.Op, n.X.Type())
	}
	x, err := t.Coercer.Coerce(n.X, sig.ParamTypes[0])
	if err != nil {
		return err
	}
	n.X, n.Decl = x, sig
	ret := sig.Ret
	ret.CV = x.Type().CV
	n.SetType(ret)
	return nil
}

// typeCall is typeBinOp/typeUnOp generalised to N arguments.
func (t *Typer) typeCall(n *ast.Call) error {
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		if err := t.Type(a); err != nil {
			return err
		}
		argTypes[i] = a.Type()
	}
	sig, ok := t.Env.Functions.MatchFn(n.Name, argTypes)
	if !ok {
		return fail(KindOverloadNone, n.Pos(), "no overload of `%s' matches the given argument types", n.Name)
	}
	cv := false
	for i, a := range n.Args {
		coerced, err := t.Coercer.Coerce(a, sig.ParamTypes[i])
		if err != nil {
			return err
		}
		n.Args[i] = coerced
		cv = cv || coerced.Type().CV
	}
	n.Decl = sig
	ret := sig.Ret
	ret.CV = cv
	n.SetType(ret)
	return nil
}

// typeLet types each binding in order inside its own pushed frame
// (identifier references resolve through the Id.Decl links the
// topological sorter already installed), enforcing the three
// let-specific diagnostics, then types the body and adopts its type as
// the let's own.
func (t *Typer) typeLet(n *ast.Let) error {
	t.Scopes.Push(false)
	defer t.Scopes.Pop()

	for _, b := range n.Bindings {
		vd, ok := b.(*ast.VarDecl)
		if !ok {
			if err := t.Type(b); err != nil {
				return err
			}
			continue
		}
		if err := t.Scopes.Add(vd); err != nil {
			return err
		}
		if vd.Ti.IsTIId {
			return fail(KindTIIdInLet, vd.Pos(), "type-inst variable not allowed in let binding `%s'", vd.Name)
		}
		if err := t.Type(vd.Ti); err != nil {
			return err
		}
		dt := vd.Ti.Type()
		if vd.Init == nil {
			if dt.IsVar() && dt.IsSet() && vd.Ti.Domain == nil {
				return fail(KindInfiniteSetVar, vd.Pos(), "var set of %s binding `%s' needs a finite domain or an initialiser", dt.Base, vd.Name)
			}
			if dt.IsPar() {
				return fail(KindParamNeedsInit, vd.Pos(), "par binding `%s' needs an initialiser", vd.Name)
			}
			continue
		}
		if err := t.Type(vd.Init); err != nil {
			return err
		}
		coerced, err := t.Coercer.Coerce(vd.Init, dt)
		if err != nil {
			return err
		}
		vd.Init = coerced
	}
	if err := t.Type(n.Body); err != nil {
		return err
	}
	n.SetType(n.Body.Type())
	return nil
}

// typeVarDecl runs the TypeInst rule always, and the initialiser
// comparison only in phase 2 (IgnoreVarDecl distinguishes the two
// typer instantiations of §4.5).
func (t *Typer) typeVarDecl(n *ast.VarDecl) error {
	if n.TopLevel && n.Ti.IsTIId {
		return fail(KindTIIdInTopDecl, n.Pos(), "type-inst variable not allowed in top-level declaration `%s'", n.Name)
	}
	if err := t.Type(n.Ti); err != nil {
		return err
	}
	for _, a := range n.Annotations {
		if err := t.Type(a); err != nil {
			return err
		}
	}
	if t.IgnoreVarDecl || n.Init == nil {
		return nil
	}
	if err := t.Type(n.Init); err != nil {
		return err
	}
	declType := n.Ti.Type()
	initType := n.Init.Type()

	// Implicit enum-index coercion: an array-typed declaration over
	// enum axes accepts a literal/comprehension/concatenation
	// initialiser whose array-axis enum tags are 0 (the literal has no
	// way to spell an axis enum), so long as the element enum agrees.
	if declType.Dim > 0 && declType.EnumID != 0 && initIsEnumErasable(n.Init) {
		declTuple := t.Env.Enums.Arrays.Tuple(declType.EnumID)
		initTuple := t.Env.Enums.Arrays.Tuple(initType.EnumID)
		if len(declTuple) > 0 && elemEnumOf(declTuple) == elemEnumOf(initTuple) {
			erased := zeroed(len(declTuple))
			erased[len(erased)-1] = elemEnumOf(declTuple)
			erasedID := t.Env.Enums.Arrays.Intern(erased)
			declType.EnumID = erasedID
			initType.EnumID = erasedID
		}
	}

	if !initType.IsSubtypeOf(declType) {
		coerced, err := t.Coercer.Coerce(n.Init, declType)
		if err != nil {
			return fail(KindTypeMismatch, n.Init.Pos(), "initialiser of `%s' has type %s, expected %s", n.Name, initType, declType)
		}
		n.Init = coerced
	}
	return nil
}

func initIsEnumErasable(e ast.Expression) bool {
	switch v := e.(type) {
	case *ast.ArrayLit:
		return true
	case *ast.Comprehension:
		return !v.Set
	case *ast.BinOp:
		return v.Op == "++"
	}
	return false
}

func elemEnumOf(tuple []int) int {
	if len(tuple) == 0 {
		return 0
	}
	return tuple[len(tuple)-1]
}

func zeroed(n int) []int { return make([]int, n) }

// baseKeywordOf reports the base kind named by a bare keyword domain
// (`int`, `bool`, `float`, `string`, `ann` spelled as an identifier rather
// than a restricting set/range expression), or Unknown if expr is not one
// of those keywords.
func baseKeywordOf(expr ast.Expression) types.BaseKind {
	var name string
	switch e := expr.(type) {
	case *ast.Id:
		name = e.Name
	case *ast.TIId:
		name = e.Name
	default:
		return types.Unknown
	}
	switch name {
	case "bool":
		return types.Bool
	case "int":
		return types.Int
	case "float":
		return types.Float
	case "string":
		return types.String
	case "ann":
		return types.Ann
	default:
		return types.Unknown
	}
}

// typeTypeInst assembles a TypeInst's Type from its domain expression and
// index ranges per §4.5's final rule.
func (t *Typer) typeTypeInst(n *ast.TypeInst) error {
	if n.IsTIId {
		n.SetType(types.TopType())
		return nil
	}

	dim := len(n.Ranges)
	axisEnums := make([]int, len(n.Ranges))
	for i, r := range n.Ranges {
		ri, ok := r.(*ast.TypeInst)
		if !ok {
			return fail(KindBadIndexSet, n.Pos(), "array index range must be a type-inst")
		}
		if ri.IsTIId {
			dim = types.PolyDim
			continue
		}
		if err := t.Type(ri); err != nil {
			return err
		}
		rt := ri.Type()
		if rt.Base == types.Top {
			continue
		}
		if !(rt.IsSet() && rt.Base == types.Int) {
			return fail(KindBadIndexSet, r.Pos(), "array index range must be a set of int, found %s", rt)
		}
		axisEnums[i] = rt.EnumID
	}

	var base types.Type
	switch {
	case n.EnumName != "" || n.AnonEnumN > 0:
		// The declaring type-inst of an enum (named element list or
		// anon_enum(N)) and every element VarDecl synthesised from it
		// share this exact TypeInst, so the enum ID is looked up by name
		// here rather than carried in from a specific VarDecl.
		base = types.Type{Base: types.Int}
		if n.EnumName != "" {
			base.EnumID = t.Env.Enums.Scalars.Intern(n.EnumName)
		}
	case n.Domain == nil:
		base = types.Type{Base: types.Bool}
	case baseKeywordOf(n.Domain) != types.Unknown:
		// A bare base-type keyword (bool/int/float/string/ann), not a
		// domain-restricting expression: the keyword names the base
		// directly rather than being evaluated as a value.
		base = types.Type{Base: baseKeywordOf(n.Domain)}
	default:
		if err := t.Type(n.Domain); err != nil {
			return err
		}
		dt := n.Domain.Type()
		if dt.Base != types.Int && dt.Base != types.Float {
			return fail(KindBadTIDomain, n.Domain.Pos(), "type-inst domain must be int or float, found %s", dt)
		}
		base = dt
	}

	result := types.Type{Base: base.Base, EnumID: base.EnumID}
	if n.VarInst {
		result.Inst = types.Var
	}
	if n.SetOf {
		result.Structure = types.Set
		if result.Inst == types.Var && result.Base != types.Int {
			return fail(KindBadVarSet, n.Pos(), "var set domain must be int, found %s", result.Base)
		}
	}
	if dim > 0 && dim != types.PolyDim {
		// An array-typed declaration tags its EnumID with the axis/element
		// tuple the same way typeArrayLit does for literals, so later
		// enum-index coercion can recover each axis's enum via Arrays.Tuple.
		tuple := make([]int, dim+1)
		copy(tuple, axisEnums)
		tuple[dim] = base.EnumID
		result.EnumID = t.Env.Enums.Arrays.Intern(tuple)
	}
	if n.Optional {
		result.Opt = types.Optional
	}
	result.Dim = dim
	n.SetType(result)
	return nil
}
