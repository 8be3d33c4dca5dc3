package ast

import (
	"github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// FuncSig is a resolved function/predicate/operator signature, installed
// as the back-link of a Call, BinOp, or UnOp once overload resolution
// succeeds. Builtin is true for signatures synthesised by the checker
// itself (coercions, enum helpers, operators) rather than declared by a
// FunctionItem. ParamTypes are the declared parameter shapes used for
// matching; Ret is the return type, used as-is at every call site.
type FuncSig struct {
	Name       string
	ParamTypes []types.Type
	Ret        types.Type
	Decl       *FunctionItem
	Builtin    bool
}

// Item is implemented by every top-level construct in a Model.
type Item interface {
	itemMarker()
}

type itemBase struct{}

func (itemBase) itemMarker() {}

// IncludeItem pulls in another model by path; Own indicates this model
// owns (and must recurse into) the included one.
type IncludeItem struct {
	itemBase
	Path string
	Own  bool
	Sub  *Model
}

// VarDeclItem wraps a top-level VarDecl.
type VarDeclItem struct {
	itemBase
	Decl *VarDecl
}

// AssignItem is `name = expr;` assigning to a previously declared VarDecl
// without an initialiser. Decl is filled in by the driver's P1 pass.
type AssignItem struct {
	itemBase
	Pos  errors.Position
	Name string
	RHS  Expression
	Decl *VarDecl
}

// ConstraintItem is a top-level `constraint expr;`.
type ConstraintItem struct {
	itemBase
	Expr Expression
}

// Method names the optimisation direction of a SolveItem.
type Method int

const (
	Satisfy Method = iota
	Minimize
	Maximize
)

// SolveItem is the (single) solve goal of a model.
type SolveItem struct {
	itemBase
	Method Method
	Obj    Expression // nil for satisfy
	Ann    []Expression
}

// OutputItem is `output [...]`. Multiple output items are folded by the
// driver into one via `++`.
type OutputItem struct {
	itemBase
	Expr Expression
}

// FunctionItem declares a user function/predicate.
type FunctionItem struct {
	itemBase
	Name        string
	Params      []*VarDecl
	Ret         *TypeInst
	Body        Expression // nil for a forward declaration / builtin stub
	Ann         []Expression
	IsPredicate bool // return type is bool and Ret may be omitted
}

// Model is the ordered collection of top-level items the checker
// consumes and rewrites in place.
type Model struct {
	Items []Item
}

// NewModel creates an empty model.
func NewModel() *Model { return &Model{} }

// Add appends an item to the end of the model.
func (m *Model) Add(it Item) { m.Items = append(m.Items, it) }

// Remove deletes the item at index i, preserving order.
func (m *Model) Remove(i int) {
	m.Items = append(m.Items[:i], m.Items[i+1:]...)
}

// VarDeclItems returns every top-level VarDecl in item order.
func (m *Model) VarDeclItems() []*VarDecl {
	out := make([]*VarDecl, 0, len(m.Items))
	for _, it := range m.Items {
		if vdi, ok := it.(*VarDeclItem); ok {
			out = append(out, vdi.Decl)
		}
	}
	return out
}

// FunctionItems returns every top-level FunctionItem in item order.
func (m *Model) FunctionItems() []*FunctionItem {
	out := make([]*FunctionItem, 0)
	for _, it := range m.Items {
		if fi, ok := it.(*FunctionItem); ok {
			out = append(out, fi)
		}
	}
	return out
}
