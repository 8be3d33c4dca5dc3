package checker

import (
	"sort"

	"github.com/cwbudde/mzn-typecheck/internal/ast"
	"github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// Options configures a Driver run; it corresponds to the single recognised
// configuration knob from §4.6's undefined-parameter check.
type Options struct {
	IgnoreUndefinedParameters bool
}

// Driver orchestrates passes P0 through P8 against a single Model,
// reusing one Env (and therefore its function/enum registries) across
// however many models a caller processes, but owning its own ScopeStack
// and Collector, created by NewDriver — the scope stack and topo position
// map belong exclusively to one Driver (§5, "Shared resources"). Run does
// not reset them, so each model is checked with a new Driver.
type Driver struct {
	Env     *Env
	Opts    Options
	Scopes  *ScopeStack
	Diags   *Collector
	expander *Expander
}

// NewDriver creates a driver bound to env.
func NewDriver(env *Env, opts Options) *Driver {
	return &Driver{
		Env:      env,
		Opts:     opts,
		Scopes:   NewScopeStack(),
		Diags:    &Collector{},
		expander: NewExpander(env),
	}
}

// Run executes P0–P8 against model, mutating it in place, and returns the
// accumulated diagnostics. A CheckError escaping any single top-level item
// is recovered at that item's boundary and converted into a Diagnostic so
// the remaining items still get processed, except for genuinely model-wide
// errors (none currently escape past an item boundary).
func (d *Driver) Run(m *ast.Model) []Diagnostic {
	d.p0RegisterAndCollectAssignments(m)
	d.checkSingleSolveItem(m)
	d.p1MergeAssignments(m)
	d.p2TopoSort(m)
	d.p3StableSortItems(m)
	d.p4Phase1Typing(m)
	d.p5Phase2Typing(m)
	d.p6FinaliseOutputItems(m)
	d.p7OverloadConflicts()
	d.p8UndefinedParameters(m)
	return d.Diags.Diags
}

// tryItem recovers a *CheckError raised while processing one top-level
// item, converting it to a diagnostic so a failure in one item does not
// abort the whole run.
func (d *Driver) tryItem(fn func() error) {
	if err := fn(); err != nil {
		if ce, ok := err.(*CheckError); ok {
			d.Diags.Add(ce.Kind, ce.Pos, "%s", ce.Msg)
		}
	}
}

// p0RegisterAndCollectAssignments registers every FunctionItem's signature
// and expands every enum declaration that already carries an initialiser
// (element list or anon_enum(n)) into its element VarDecls and
// _toString_ helpers; an enum declared without an initialiser is only
// interned here; its expansion happens at P1 once an assignment supplies
// one, via Reexpand.
func (d *Driver) p0RegisterAndCollectAssignments(m *ast.Model) {
	for _, it := range m.Items {
		if fi, ok := it.(*ast.FunctionItem); ok {
			d.tryItem(func() error { return d.registerFunctionSignature(fi) })
		}
	}
	var extra []ast.Item
	for _, vd := range m.VarDeclItems() {
		if vd.Ti == nil || vd.Ti.EnumName == "" {
			continue
		}
		if vd.Init == nil {
			d.Env.Enums.Intern(vd)
			continue
		}
		d.tryItem(func() error {
			items, err := d.expander.Expand(vd)
			if err != nil {
				return err
			}
			extra = append(extra, items...)
			return nil
		})
	}
	for _, it := range extra {
		m.Add(it)
	}
}

// registerFunctionSignature runs phase-1 typing over fi's parameters and
// return type only, then registers the resulting FuncSig so call sites
// elsewhere in the model can resolve against it regardless of item order.
func (d *Driver) registerFunctionSignature(fi *ast.FunctionItem) error {
	typer := NewTyper(d.Env, d.Scopes, d.Diags, true)
	paramTypes := make([]types.Type, len(fi.Params))
	for i, p := range fi.Params {
		if err := typer.Type(p.Ti); err != nil {
			return err
		}
		paramTypes[i] = p.Ti.Type()
	}
	var ret types.Type
	if fi.IsPredicate && fi.Ret == nil {
		ret = types.ParBool()
	} else if fi.Ret != nil {
		if err := typer.Type(fi.Ret); err != nil {
			return err
		}
		ret = fi.Ret.Type()
	}
	d.Env.Functions.Register(&ast.FuncSig{Name: fi.Name, ParamTypes: paramTypes, Ret: ret, Decl: fi})
	return nil
}

// p1MergeAssignments folds each top-level AssignItem into its target
// VarDecl's initialiser (multiple-assignment if one is already present),
// removing the AssignItem from the model, and re-expands any enum whose
// initialiser just arrived via assignment rather than at declaration.
func (d *Driver) p1MergeAssignments(m *ast.Model) {
	var toRemove []int
	var extra []ast.Item
	for i, it := range m.Items {
		ai, ok := it.(*ast.AssignItem)
		if !ok {
			continue
		}
		decl, found := findTopLevelDecl(m, ai.Name)
		if !found {
			d.Diags.Add(KindUndefinedIdentifier, ai.Pos, "assignment to undefined identifier %s", ai.Name)
			toRemove = append(toRemove, i)
			continue
		}
		if decl.Init != nil {
			d.Diags.Add(KindMultipleAssignment, ai.Pos, "identifier `%s' already has an initialiser", ai.Name)
			toRemove = append(toRemove, i)
			continue
		}
		ai.Decl = decl
		if decl.Ti != nil && decl.Ti.EnumName != "" {
			items, err := d.expander.Reexpand(decl, ai.RHS)
			if err != nil {
				if ce, ok := err.(*CheckError); ok {
					d.Diags.Add(ce.Kind, ce.Pos, "%s", ce.Msg)
				}
			} else {
				extra = append(extra, items...)
			}
		} else {
			decl.Init = ai.RHS
		}
		toRemove = append(toRemove, i)
	}
	removeIndices(m, toRemove)
	for _, it := range extra {
		m.Add(it)
	}
}

// checkSingleSolveItem enforces that a model carries at most one solve
// item: a second one is reported and dropped, so only the first reaches
// P5's objective typing.
func (d *Driver) checkSingleSolveItem(m *ast.Model) {
	seen := false
	var toRemove []int
	for i, it := range m.Items {
		si, ok := it.(*ast.SolveItem)
		if !ok {
			continue
		}
		if seen {
			pos := errors.Position{}
			if si.Obj != nil {
				pos = si.Obj.Pos()
			}
			d.Diags.Add(KindOneSolveItem, pos, "a model may have only one solve item")
			toRemove = append(toRemove, i)
			continue
		}
		seen = true
	}
	removeIndices(m, toRemove)
}

func findTopLevelDecl(m *ast.Model, name string) (*ast.VarDecl, bool) {
	for _, vd := range m.VarDeclItems() {
		if vd.Name == name {
			return vd, true
		}
	}
	return nil, false
}

func removeIndices(m *ast.Model, idx []int) {
	if len(idx) == 0 {
		return
	}
	sort.Sort(sort.Reverse(sort.IntSlice(idx)))
	for _, i := range idx {
		m.Remove(i)
	}
}

// p2TopoSort runs the topological sorter across every top-level item's
// constituent expressions (declarations, constraints, the solve goal,
// output expressions), populating each VarDecl's Payload.
func (d *Driver) p2TopoSort(m *ast.Model) {
	ts := NewTopoSorter(d.Env, d.Scopes, d.Diags)
	for _, vd := range m.VarDeclItems() {
		if err := d.Scopes.Add(vd); err != nil {
			if ce, ok := err.(*CheckError); ok {
				d.Diags.Add(ce.Kind, ce.Pos, "%s", ce.Msg)
			}
		}
	}
	for _, it := range m.Items {
		d.tryItem(func() error { return d.topoSortItem(ts, it) })
	}
}

func (d *Driver) topoSortItem(ts *TopoSorter, it ast.Item) error {
	switch v := it.(type) {
	case *ast.VarDeclItem:
		return ts.Run(v.Decl)
	case *ast.ConstraintItem:
		return ts.Run(v.Expr)
	case *ast.SolveItem:
		for _, a := range v.Ann {
			if err := ts.Run(a); err != nil {
				return err
			}
		}
		return ts.Run(v.Obj)
	case *ast.OutputItem:
		return ts.Run(v.Expr)
	}
	return nil
}

// p3StableSortItems reorders the item list: includes first, then
// declarations by ascending topological position, everything else last,
// stable within each bucket.
func (d *Driver) p3StableSortItems(m *ast.Model) {
	type keyed struct {
		item ast.Item
		rank int
		sub  int
	}
	keys := make([]keyed, len(m.Items))
	for i, it := range m.Items {
		switch v := it.(type) {
		case *ast.IncludeItem:
			keys[i] = keyed{it, 0, i}
		case *ast.VarDeclItem:
			keys[i] = keyed{it, 1, v.Decl.Payload}
		default:
			keys[i] = keyed{it, 2, i}
		}
	}
	sort.SliceStable(keys, func(a, b int) bool {
		if keys[a].rank != keys[b].rank {
			return keys[a].rank < keys[b].rank
		}
		return keys[a].sub < keys[b].sub
	})
	out := make([]ast.Item, len(keys))
	for i, k := range keys {
		out[i] = k.item
	}
	m.Items = out
}

// p4Phase1Typing runs the typer with IgnoreVarDecl set over every
// top-level declaration's TypeInst. Function signatures were already
// typed in P0 and are not revisited here.
func (d *Driver) p4Phase1Typing(m *ast.Model) {
	typer := NewTyper(d.Env, d.Scopes, d.Diags, true)
	for _, vd := range m.VarDeclItems() {
		d.tryItem(func() error { return typer.Type(vd) })
	}
}

// p5Phase2Typing runs the typer with IgnoreVarDecl cleared over every
// item's body: VarDecl initialisers, constraints, the solve objective,
// output expressions.
func (d *Driver) p5Phase2Typing(m *ast.Model) {
	typer := NewTyper(d.Env, d.Scopes, d.Diags, false)
	for _, it := range m.Items {
		d.tryItem(func() error { return d.typeItem(typer, it) })
	}
}

func (d *Driver) typeItem(typer *Typer, it ast.Item) error {
	switch v := it.(type) {
	case *ast.VarDeclItem:
		return typer.Type(v.Decl)
	case *ast.ConstraintItem:
		if err := typer.Type(v.Expr); err != nil {
			return err
		}
		if v.Expr.Type().Base != types.Bool {
			return fail(KindTypeMismatch, v.Expr.Pos(), "constraint expression must be bool, found %s", v.Expr.Type())
		}
		return nil
	case *ast.SolveItem:
		for _, a := range v.Ann {
			if err := typer.Type(a); err != nil {
				return err
			}
		}
		if v.Obj == nil {
			return nil
		}
		return typer.Type(v.Obj)
	case *ast.OutputItem:
		if err := typer.Type(v.Expr); err != nil {
			return err
		}
		if !v.Expr.Type().Equal(types.ParStringArray()) {
			coerced, err := typer.Coercer.Coerce(v.Expr, types.ParStringArray())
			if err != nil {
				return fail(KindTypeMismatch, v.Expr.Pos(), "output expression must be array[int] of string, found %s", v.Expr.Type())
			}
			v.Expr = coerced
		}
		return nil
	}
	return nil
}

// p6FinaliseOutputItems folds every OutputItem's expression together with
// `++` into a single retained output item, per §4.6.
func (d *Driver) p6FinaliseOutputItems(m *ast.Model) {
	var first *ast.OutputItem
	var toRemove []int
	for i, it := range m.Items {
		oi, ok := it.(*ast.OutputItem)
		if !ok {
			continue
		}
		if first == nil {
			first = oi
			continue
		}
		first.Expr = &ast.BinOp{
			Node: ast.NewNode(first.Expr.Pos()),
			Op:   "++",
			LHS:  first.Expr,
			RHS:  oi.Expr,
		}
		first.Expr.SetType(types.ParStringArray())
		toRemove = append(toRemove, i)
	}
	removeIndices(m, toRemove)
}

// p7OverloadConflicts is the one-shot scan over the function registry for
// two user-declared signatures that are indistinguishable.
func (d *Driver) p7OverloadConflicts() {
	d.Env.Functions.CheckOverloadConflicts(d.Diags)
}

// p8UndefinedParameters implements §4.6's undefined-parameter check: any
// toplevel par declaration with no initialiser that is not annotation-typed
// either receives `absent` (when optional) or produces a diagnostic,
// unless IgnoreUndefinedParameters is set.
func (d *Driver) p8UndefinedParameters(m *ast.Model) {
	if d.Opts.IgnoreUndefinedParameters {
		return
	}
	for _, vd := range m.VarDeclItems() {
		if vd.Init != nil || vd.Ti == nil {
			continue
		}
		t := vd.Ti.Type()
		if t.Base == types.Ann || !t.IsPar() {
			continue
		}
		if t.IsOptional() {
			vd.Init = &ast.Id{Node: ast.NewNode(vd.Pos()), Name: "absent"}
			vd.Init.SetType(t)
			continue
		}
		d.Diags.Add(KindMissingParameter, vd.Pos(), "parameter `%s' of type %s has no value", vd.Name, t)
	}
}
