// Package ast defines the node shapes the checker touches: expressions,
// declarations, and top-level items. It intentionally carries only the
// fields the type checker reads or writes — no lexical trivia, no
// pretty-printing hints. Parsing a concrete syntax into this tree is an
// external concern; this package is the contract the parser and the
// checker share.
package ast

import (
	"github.com/cwbudde/mzn-typecheck/internal/errors"
	"github.com/cwbudde/mzn-typecheck/internal/types"
)

// Expression is implemented by every node the typer assigns a Type to.
type Expression interface {
	Pos() errors.Position
	Type() types.Type
	SetType(types.Type)
}

// Node embeds the position and computed type common to every expression
// node; concrete node types embed it by value.
type Node struct {
	Position errors.Position
	Typ      types.Type
}

func (b *Node) Pos() errors.Position { return b.Position }
func (b *Node) Type() types.Type     { return b.Typ }
func (b *Node) SetType(t types.Type) { b.Typ = t }

// NewNode constructs the embeddable position/type fields for a node
// created by an external producer (parser, enum expander, coercion
// inserter).
func NewNode(pos errors.Position) Node { return Node{Position: pos} }

// ---- Leaves -----------------------------------------------------------

type IntLit struct {
	Node
	Value int64
}

type FloatLit struct {
	Node
	Value float64
}

type BoolLit struct {
	Node
	Value bool
}

type StringLit struct {
	Node
	Value string
}

// AnonVar is the anonymous value placeholder `_`.
type AnonVar struct {
	Node
}

// TIId is a type-inst identifier, the polymorphic parameter of a function
// signature (e.g. `$T`).
type TIId struct {
	Node
	Name string
}

// ---- Identifier ---------------------------------------------------------

// Id is a reference to a declaration by name. Decl is nil until the
// topological sorter resolves it.
type Id struct {
	Node
	Name string
	Decl *VarDecl
}

// ---- Collections --------------------------------------------------------

// SetLit is a literal set `{a, b, c}`.
type SetLit struct {
	Node
	Elems []Expression
}

// ArrayLit is a literal array `[a, b, c]`. Dim is the declared
// dimensionality (1 for a flat literal; >1 for nested bracket-of-bracket
// literals the parser has already flattened with explicit dims).
type ArrayLit struct {
	Node
	Dim   int
	Elems []Expression
}

// ArrayAccess is `base[idx0, idx1, ...]`.
type ArrayAccess struct {
	Node
	Base  Expression
	Index []Expression
}

// Generator is one `i in source` clause of a comprehension.
type Generator struct {
	Decls  []*VarDecl
	Source Expression
}

// Comprehension is `[ result | generators where cond ]` (array form) or
// the equivalent `{ ... }` (set form, Set == true).
type Comprehension struct {
	Node
	Gens   []*Generator
	Where  Expression
	Result Expression
	Set    bool
}

// IfThen is one `if cond then then` arm of an ITE.
type IfThen struct {
	Cond Expression
	Then Expression
}

// ITE is `if c1 then t1 elseif c2 then t2 ... else e endif`.
type ITE struct {
	Node
	Branches []IfThen
	Else     Expression
}

// ---- Operators & calls ---------------------------------------------------

// BinOp is a binary operator application, including `++` concatenation.
// Decl is filled by the typer once overload resolution succeeds.
type BinOp struct {
	Node
	Op   string
	LHS  Expression
	RHS  Expression
	Decl *FuncSig
}

// UnOp is a unary operator application.
type UnOp struct {
	Node
	Op   string
	X    Expression
	Decl *FuncSig
}

// Call is a named function/predicate application.
type Call struct {
	Node
	Name string
	Args []Expression
	Decl *FuncSig
}

// ---- Let ------------------------------------------------------------------

// Let is `let { bindings } in body`. Bindings holds VarDecl and
// constraint-Expression items in source order. OrigInit is a map from a
// bound VarDecl to an initialiser expression; no pass of the checker
// reads or writes it.
type Let struct {
	Node
	Bindings []Expression
	Body     Expression
	OrigInit map[*VarDecl]Expression
}

// ---- TypeInst ---------------------------------------------------------

// TypeInst is the static description of a value: an optional element
// domain expression, an optional list of index-range type-insts (for
// arrays), and the Type the typer assembles from them.
type TypeInst struct {
	Node
	Domain    Expression   // nil for an untyped TI (e.g. `var bool`), else a set/range expression
	Ranges    []Expression // non-nil for array TIs; each element is a TypeInst: set of int, or IsTIId for a $T axis
	VarInst   bool         // `var` was written explicitly
	SetOf     bool         // `set of` was written explicitly
	Optional  bool         // `opt` was written explicitly
	EnumName  string       // non-empty when Domain names an enum type
	IsTIId    bool         // true when this TypeInst is itself a bare TIId ($T)
	TIIdName  string
	AnonEnumN int // > 0 when Domain is `anon_enum(N)`
}

// ---- Declarations -------------------------------------------------------

// VarDecl is both a declaration and an Expression: the topological sorter
// walks it like any other node, and Payload holds its topo-order index.
type VarDecl struct {
	Node
	Name        string
	Ti          *TypeInst
	Init        Expression
	Annotations []Expression
	TopLevel    bool
	Payload     int // topological index; -1 while being resolved, -2 if unset
	IsEnumItem  bool
}

const (
	PayloadUnset     = -2
	PayloadResolving = -1
)

// NewVarDecl creates a declaration with its payload marked unresolved.
func NewVarDecl(pos errors.Position, name string, ti *TypeInst, init Expression) *VarDecl {
	return &VarDecl{Node: NewNode(pos), Name: name, Ti: ti, Init: init, Payload: PayloadUnset}
}

// HasAnnotation reports whether ann is present by name among Annotations
// (annotations are represented as Call or Id expressions).
func (v *VarDecl) HasAnnotation(name string) bool {
	for _, a := range v.Annotations {
		switch e := a.(type) {
		case *Id:
			if e.Name == name {
				return true
			}
		case *Call:
			if e.Name == name {
				return true
			}
		}
	}
	return false
}
