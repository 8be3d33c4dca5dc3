package checker

import (
	"github.com/cwbudde/mzn-typecheck/internal/ast"
)

// TopoSorter implements §4.2: a recursive descent over expressions that
// discovers declaration references through identifiers, orders
// declarations so every reference precedes its referer, and raises
// circular-definition on re-entry into a declaration still being
// resolved.
type TopoSorter struct {
	Env        *Env
	Scopes     *ScopeStack
	Order      []*ast.VarDecl
	Collector  *Collector
	binopStack []*ast.BinOp // explicit work stack for long operator chains
}

// NewTopoSorter creates a sorter sharing env's registries and the given
// scope stack.
func NewTopoSorter(env *Env, scopes *ScopeStack, collector *Collector) *TopoSorter {
	return &TopoSorter{Env: env, Scopes: scopes, Collector: collector}
}

// CheckID resolves id, recursing into its declaration if this is the
// first encounter, or reporting circular-definition if the declaration's
// position is still marked "resolving" (a declaration whose initialiser
// refers to itself is reported the same way). A name the scope stack can't find but that
// names a built-in constant/annotation (e.g. `add_to_output`) is left
// with a nil Decl rather than failing: it never has a VarDecl of its
// own to order topologically.
func (ts *TopoSorter) CheckID(id *ast.Id) error {
	decl, err := ts.Scopes.FindOrError(id.Name, id.Pos())
	if err != nil {
		if ts.Env != nil && ts.Env.Constants.Has(id.Name) {
			return nil
		}
		return err
	}
	id.Decl = decl
	if decl.Payload == ast.PayloadUnset {
		// New declaration: recurse into it inside a pushed toplevel frame,
		// so a forward reference always resolves its target starting from
		// the outermost scope rather than from inside the referer's
		// possibly-nested construct.
		ts.Scopes.Push(true)
		err := ts.runVarDecl(decl)
		ts.Scopes.Pop()
		if err != nil {
			return err
		}
	} else if decl.Payload == ast.PayloadResolving {
		return fail(KindCircularDefinition, id.Pos(), "circular definition of %s", id.Name)
	}
	return nil
}

// Run walks e, resolving every identifier reference and assigning
// topological positions to every VarDecl reached.
func (ts *TopoSorter) Run(e ast.Expression) error {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.BoolLit, *ast.StringLit, *ast.AnonVar, *ast.TIId:
		return nil
	case *ast.Id:
		return ts.CheckID(n)
	case *ast.SetLit:
		for _, el := range n.Elems {
			if err := ts.Run(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.ArrayLit:
		for _, el := range n.Elems {
			if err := ts.Run(el); err != nil {
				return err
			}
		}
		return nil
	case *ast.ArrayAccess:
		if err := ts.Run(n.Base); err != nil {
			return err
		}
		for _, idx := range n.Index {
			if err := ts.Run(idx); err != nil {
				return err
			}
		}
		return nil
	case *ast.Comprehension:
		return ts.runComprehension(n)
	case *ast.ITE:
		for _, b := range n.Branches {
			if err := ts.Run(b.Cond); err != nil {
				return err
			}
			if err := ts.Run(b.Then); err != nil {
				return err
			}
		}
		return ts.Run(n.Else)
	case *ast.BinOp:
		return ts.runBinOpChain(n)
	case *ast.UnOp:
		return ts.Run(n.X)
	case *ast.Call:
		for _, a := range n.Args {
			if err := ts.Run(a); err != nil {
				return err
			}
		}
		return nil
	case *ast.VarDecl:
		return ts.runVarDecl(n)
	case *ast.TypeInst:
		return ts.runTypeInst(n)
	case *ast.Let:
		return ts.runLet(n)
	default:
		return nil
	}
}

// runVarDecl is the E_VARDECL case of §4.2: mark the position slot
// resolving, recurse into the type-inst then the initialiser, append to
// the order, and set the final index.
func (ts *TopoSorter) runVarDecl(vd *ast.VarDecl) error {
	if vd.Payload != ast.PayloadUnset {
		// Already resolved or currently resolving (caller already checked
		// for the resolving case via CheckID; a direct Run re-entry from
		// an item list is idempotent).
		return nil
	}
	vd.Payload = ast.PayloadResolving
	if err := ts.Run(vd.Ti); err != nil {
		return err
	}
	if err := ts.Run(vd.Init); err != nil {
		return err
	}
	for _, a := range vd.Annotations {
		if err := ts.Run(a); err != nil {
			return err
		}
	}
	ts.Order = append(ts.Order, vd)
	vd.Payload = len(ts.Order) - 1
	return nil
}

// runComprehension pushes a non-toplevel frame, runs each generator's
// source, binds its declared variables, runs the optional where and the
// result expression, then pops.
func (ts *TopoSorter) runComprehension(c *ast.Comprehension) error {
	ts.Scopes.Push(false)
	defer ts.Scopes.Pop()
	for _, g := range c.Gens {
		if err := ts.Run(g.Source); err != nil {
			return err
		}
		for _, d := range g.Decls {
			if err := ts.Scopes.Add(d); err != nil {
				return err
			}
			d.Payload = 0 // generator variables are bound, not topo-sorted declarations
		}
	}
	if c.Where != nil {
		if err := ts.Run(c.Where); err != nil {
			return err
		}
	}
	return ts.Run(c.Result)
}

// runLet pushes a non-toplevel frame, binds each VarDecl binding as it is
// processed (so later bindings may reference earlier ones), runs the
// body, then stably reorders the bindings in place by recorded
// topological position so the resulting Let is itself well-ordered.
func (ts *TopoSorter) runLet(l *ast.Let) error {
	ts.Scopes.Push(false)
	defer ts.Scopes.Pop()

	if l.OrigInit == nil {
		l.OrigInit = make(map[*ast.VarDecl]ast.Expression)
	}
	for _, b := range l.Bindings {
		if vd, ok := b.(*ast.VarDecl); ok {
			if err := ts.Scopes.Add(vd); err != nil {
				return err
			}
			l.OrigInit[vd] = vd.Init
		}
	}
	for _, b := range l.Bindings {
		if err := ts.Run(b); err != nil {
			return err
		}
	}
	if err := ts.Run(l.Body); err != nil {
		return err
	}

	stableSortByPosition(l.Bindings)
	return nil
}

// stableSortByPosition reorders bindings in place so VarDecl bindings
// precede by ascending topo position; non-VarDecl bindings (bare
// constraint expressions within the let) keep their relative order
// after the decls that sort before them, matching the original's
// VarDeclCmp: a non-VarDecl always compares "not less than" a VarDecl.
func stableSortByPosition(bindings []ast.Expression) {
	pos := func(e ast.Expression) (int, bool) {
		vd, ok := e.(*ast.VarDecl)
		if !ok {
			return 0, false
		}
		return vd.Payload, true
	}
	// Insertion sort: stable, and bindings lists are always small.
	for i := 1; i < len(bindings); i++ {
		j := i
		for j > 0 {
			pi, oki := pos(bindings[j])
			pj, okj := pos(bindings[j-1])
			less := false
			if oki && okj {
				less = pi < pj
			} else if oki && !okj {
				less = true
			}
			if !less {
				break
			}
			bindings[j], bindings[j-1] = bindings[j-1], bindings[j]
			j--
		}
	}
}

// runTypeInst walks the index ranges then the domain expression.
func (ts *TopoSorter) runTypeInst(ti *ast.TypeInst) error {
	for _, r := range ti.Ranges {
		if err := ts.Run(r); err != nil {
			return err
		}
	}
	return ts.Run(ti.Domain)
}

// runBinOpChain walks a left/right-associative chain of binary operators
// iteratively via an explicit work stack, avoiding unbounded recursion
// depth on long chains (e.g. `a ++ b ++ c ++ ...`).
func (ts *TopoSorter) runBinOpChain(root *ast.BinOp) error {
	stack := []*ast.BinOp{root}
	var leaves []ast.Expression
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if lhs, ok := n.LHS.(*ast.BinOp); ok {
			stack = append(stack, lhs)
		} else {
			leaves = append(leaves, n.LHS)
		}
		if rhs, ok := n.RHS.(*ast.BinOp); ok {
			stack = append(stack, rhs)
		} else {
			leaves = append(leaves, n.RHS)
		}
	}
	for _, l := range leaves {
		if err := ts.Run(l); err != nil {
			return err
		}
	}
	return nil
}
