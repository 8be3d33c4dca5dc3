package checker

import "github.com/cwbudde/mzn-typecheck/internal/ast"

// Env bundles the resources that are carried across an entire
// type-checking session and may be shared by multiple models: the
// function registry, the enum registry, and the constants table (§1,
// "External collaborators"). The scope stack and the topological
// position map are NOT part of Env — they are owned exclusively by a
// single checker run (§5, "Shared resources").
type Env struct {
	Functions *FunctionRegistry
	Enums     *EnumRegistry
	Constants *ConstantsTable
	guard     *Guard
}

// NewEnv creates an environment with its registries populated with the
// built-in operator and coercion signatures every model needs (§4.4,
// §4.5).
func NewEnv() *Env {
	e := &Env{
		Functions: NewFunctionRegistry(),
		Enums:     NewEnumRegistry(),
		Constants: NewConstantsTable(),
		guard:     newGuard(),
	}
	registerBuiltins(e.Functions)
	return e
}

// Guard returns the scoped memory-acquisition guard for synthesised AST
// nodes (§3, "Lifecycle"; §5, "Allocation of synthesised AST nodes").
func (e *Env) Guard() *Guard { return e.guard }

// Guard is a scoped acquisition guard around synthesised VarDecls. Only
// the enum expander uses it: Acquire/Release bracket one enum expansion,
// and the element and to-string array VarDecls it creates are pinned.
// Coercion insertion does not use the guard, and other synthesised nodes
// (calls, identifiers, function items) cannot be pinned since Pin takes a
// VarDecl. Anything still referenced from the model after Release is
// retained by the model itself, so the guard itself never frees memory —
// it only gives each synthesis step a place to register what it made, for
// diagnostics and for the rare caller that wants to inspect exactly what
// a step produced.
type Guard struct {
	stack [][]*ast.VarDecl
}

func newGuard() *Guard { return &Guard{} }

// Acquire opens a new pinning scope.
func (g *Guard) Acquire() { g.stack = append(g.stack, nil) }

// Release closes the innermost pinning scope and returns everything
// acquired within it.
func (g *Guard) Release() []*ast.VarDecl {
	n := len(g.stack)
	top := g.stack[n-1]
	g.stack = g.stack[:n-1]
	return top
}

// Pin registers a synthesised declaration with the innermost open scope.
func (g *Guard) Pin(vd *ast.VarDecl) {
	n := len(g.stack)
	g.stack[n-1] = append(g.stack[n-1], vd)
}
