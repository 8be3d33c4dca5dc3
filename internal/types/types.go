// Package types implements the value-type lattice used throughout the
// checker: base kind, inst (par/var), structure (plain/set), array
// dimensionality, optionality, the contains-variable taint, and enum
// identity. A Type is a small value type copied freely; nothing in this
// package allocates on the heap beyond the registries that intern enum
// identities.
package types

import (
	"fmt"
	"strings"
)

// BaseKind is the scalar base of a Type.
type BaseKind int

const (
	Unknown BaseKind = iota
	Bot              // bottom: subtype of everything, base of the empty set/array
	Top              // top: supertype of everything with matching structure
	Bool
	Int
	Float
	String
	Ann
)

func (b BaseKind) String() string {
	switch b {
	case Unknown:
		return "?"
	case Bot:
		return "bot"
	case Top:
		return "top"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Ann:
		return "ann"
	default:
		return "?"
	}
}

// Inst distinguishes compile-time parameters from decision variables.
type Inst int

const (
	Par Inst = iota
	Var
)

// Structure distinguishes scalars/arrays from sets.
type Structure int

const (
	Plain Structure = iota
	Set
)

// Optionality marks whether a value may be the "absent" marker.
type Optionality int

const (
	Present Optionality = iota
	Optional
)

// PolyDim is the dimensionality of an array type whose rank is bound by a
// type-inst variable (a TIId in an index position) rather than fixed.
const PolyDim = -1

// Type is the full value-type record described by the lattice: base kind,
// inst, structure, dimensionality, optionality, the contains-variable
// taint, and an enum identity (0 meaning "no enum").
type Type struct {
	Base      BaseKind
	Inst      Inst
	Structure Structure
	Dim       int
	Opt       Optionality
	CV        bool
	EnumID    int
}

// IsUnknown reports whether the type has not yet been computed.
func (t Type) IsUnknown() bool { return t.Base == Unknown }

// IsVar reports whether the type is a decision variable.
func (t Type) IsVar() bool { return t.Inst == Var }

// IsPar reports whether the type is a parameter (compile-time known).
func (t Type) IsPar() bool { return t.Inst == Par }

// IsSet reports whether the type's structure is "set of X" rather than plain.
func (t Type) IsSet() bool { return t.Structure == Set }

// IsOptional reports whether the type may carry the absent marker.
func (t Type) IsOptional() bool { return t.Opt == Optional }

// IsArray reports whether the type has array dimensionality (fixed or
// polymorphic).
func (t Type) IsArray() bool { return t.Dim != 0 }

// IsScalar reports whether the type has no array dimensionality.
func (t Type) IsScalar() bool { return t.Dim == 0 }

// WithInst returns a copy of t with the inst field replaced.
func (t Type) WithInst(i Inst) Type { t.Inst = i; return t }

// WithOpt returns a copy of t with the optionality field replaced.
func (t Type) WithOpt(o Optionality) Type { t.Opt = o; return t }

// WithCV returns a copy of t with the contains-variable taint set.
func (t Type) WithCV(cv bool) Type { t.CV = t.CV || cv; return t }

// Anonymous constructors for the common scalar types, mirroring the
// shorthand the original checker uses at dozens of call sites.
func ParBool() Type   { return Type{Base: Bool, Inst: Par} }
func VarBool() Type   { return Type{Base: Bool, Inst: Var} }
func ParInt() Type    { return Type{Base: Int, Inst: Par} }
func VarInt() Type    { return Type{Base: Int, Inst: Var} }
func ParFloat() Type  { return Type{Base: Float, Inst: Par} }
func VarFloat() Type  { return Type{Base: Float, Inst: Var} }
func ParString() Type { return Type{Base: String, Inst: Par} }

// ParStringArray returns a par array[int] of string type, as used by the
// output item's required type.
func ParStringArray() Type { return Type{Base: String, Inst: Par, Dim: 1} }

// ParSetInt returns a par set of int, the required shape of a comprehension
// generator's source expression (alongside a 1-D int array).
func ParSetInt() Type { return Type{Base: Int, Inst: Par, Structure: Set} }

// IsIntArray reports whether t is a (par or var) 1-D array of int, the
// other acceptable shape for a comprehension generator source.
func (t Type) IsIntArray() bool {
	return t.Dim == 1 && t.Structure == Plain && t.Base == Int
}

// BotType returns the bottom type, the base of an empty set or array literal.
func BotType() Type { return Type{Base: Bot} }

// TopType returns the top type, used by TypeInst array ranges to mark an
// acceptable-anything slot and by coercion as an escape hatch.
func TopType() Type { return Type{Base: Top} }

// subKind reports whether base a is a subtype of base b under the BOT/TOP
// escape hatches, independent of inst/structure/dim.
func subKind(a, b BaseKind) bool {
	if a == Bot || b == Top {
		return true
	}
	if a == Top {
		return b == Top
	}
	if b == Bot {
		return a == Bot
	}
	return a == b
}

// IsSubtypeOf implements the pointwise subtyping relation described in
// §3: BOT is below every base kind, TOP is above, PAR <= VAR, PRESENT <=
// OPTIONAL, dimensionality and structure must match exactly (except the
// BOT/TOP escape hatches), and enum identities must match unless one side
// is 0 (no enum).
func (t Type) IsSubtypeOf(u Type) bool {
	if !subKind(t.Base, u.Base) {
		return false
	}
	if t.Base != Bot && u.Base != Top {
		if t.Structure != u.Structure {
			return false
		}
		if t.Dim != u.Dim && t.Dim != PolyDim && u.Dim != PolyDim {
			return false
		}
	}
	if t.Inst == Var && u.Inst == Par {
		return false
	}
	if t.Opt == Optional && u.Opt == Present {
		return false
	}
	if t.EnumID != 0 && u.EnumID != 0 && t.EnumID != u.EnumID {
		return false
	}
	return true
}

// Equal reports structural equality of base, inst, structure, dim,
// optionality and enum ID; the CV taint is not compared. The checker uses
// it where types are compared exactly rather than via subtyping.
func (t Type) Equal(u Type) bool {
	return t.Base == u.Base && t.Inst == u.Inst && t.Structure == u.Structure &&
		t.Dim == u.Dim && t.Opt == u.Opt && t.EnumID == u.EnumID
}

// SameShape reports equality ignoring inst, optionality, the CV taint and
// enum identity: base, structure and dim agree.
func (t Type) SameShape(u Type) bool {
	return t.Base == u.Base && t.Structure == u.Structure && t.Dim == u.Dim
}

// Join computes the least upper bound of two comparable types used for
// branch-joining constructs (ITE, array literal elements). It requires
// the two types to already agree in base/structure/dim except through the
// BOT escape hatch; ok is false if they are not join-compatible.
func (t Type) Join(u Type) (Type, bool) {
	if t.Base == Bot {
		return u, true
	}
	if u.Base == Bot {
		return t, true
	}
	if t.Base != u.Base || t.Structure != u.Structure || t.Dim != u.Dim {
		return Type{}, false
	}
	out := t
	if u.Inst == Var {
		out.Inst = Var
	}
	if u.Opt == Optional {
		out.Opt = Optional
	}
	out.CV = t.CV || u.CV
	if t.EnumID != u.EnumID {
		out.EnumID = 0
	}
	return out, true
}

// String renders the type the way diagnostics quote it: "var opt set
// of int", "array[int] of bool", etc.
func (t Type) String() string {
	var sb strings.Builder
	if t.Inst == Var {
		sb.WriteString("var ")
	}
	if t.Opt == Optional {
		sb.WriteString("opt ")
	}
	if t.Dim == PolyDim {
		sb.WriteString("array[$T] of ")
	} else if t.Dim > 0 {
		fmt.Fprintf(&sb, "array[%s", strings.Repeat("int,", t.Dim))
		s := sb.String()
		s = strings.TrimSuffix(s, ",")
		sb.Reset()
		sb.WriteString(s)
		sb.WriteString("] of ")
	}
	if t.Structure == Set {
		sb.WriteString("set of ")
	}
	sb.WriteString(t.Base.String())
	if t.EnumID != 0 {
		fmt.Fprintf(&sb, "#%d", t.EnumID)
	}
	return sb.String()
}
