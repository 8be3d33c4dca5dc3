package checker

import (
	"fmt"

	cerrors "github.com/cwbudde/mzn-typecheck/internal/errors"
)

// ErrorKind is the diagnostic discriminator from §7 of the design: a
// short, stable, machine-matchable tag distinct from the human-readable
// message.
type ErrorKind string

const (
	KindUndefinedIdentifier ErrorKind = "undefined-identifier"
	KindCircularDefinition  ErrorKind = "circular-definition"
	KindRedefinition        ErrorKind = "redefinition"
	KindEnumNotTopLevel     ErrorKind = "enum-not-top-level"
	KindInvalidEnumInit     ErrorKind = "invalid-enum-init"
	KindMultipleAssignment  ErrorKind = "multiple-assignment"
	KindNonUniformSet       ErrorKind = "non-uniform-set"
	KindNonUniformArray     ErrorKind = "non-uniform-array"
	KindArrayNested         ErrorKind = "array-nested"
	KindArrayAccessRank     ErrorKind = "array-access-rank"
	KindBadIndexSet         ErrorKind = "bad-index-set"
	KindIndexType           ErrorKind = "index-type"
	KindBadCoercion         ErrorKind = "bad-coercion"
	KindVarSetToArray       ErrorKind = "var-set-to-array"
	KindNoCoercion          ErrorKind = "no-coercion"
	KindBadCondType         ErrorKind = "bad-cond-type"
	KindCondVarArray        ErrorKind = "cond-var-array"
	KindOverloadNone        ErrorKind = "overload-none"
	KindOverloadConflict    ErrorKind = "overload-conflict"
	KindTypeMismatch        ErrorKind = "type-mismatch"
	KindInfiniteSetVar      ErrorKind = "infinite-set-var"
	KindParamNeedsInit      ErrorKind = "param-needs-init"
	KindTIIdInLet           ErrorKind = "tiid-in-let"
	KindTIIdInTopDecl       ErrorKind = "tiid-in-top-decl"
	KindBadTIDomain         ErrorKind = "bad-ti-domain"
	KindBadVarSet           ErrorKind = "bad-var-set"
	KindOneSolveItem        ErrorKind = "one-solve-item"
	KindMissingParameter    ErrorKind = "missing-parameter"
	KindFznUnknownType      ErrorKind = "fzn-unknown-type"
	KindSetElemNotInt       ErrorKind = "set-elem-not-int"
)

// Diagnostic is one reported problem: a kind, a position, and a rendered
// message incorporating the identifiers and pretty-printed types involved.
type Diagnostic struct {
	Kind    ErrorKind
	Pos     cerrors.Position
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Kind)
}

// Collector accumulates diagnostics in visitation order so multiple
// problems surface in one run. The driver adds to it directly and
// converts each item's CheckError into an entry here; the Typer does not
// add to it.
type Collector struct {
	Diags []Diagnostic
}

// Add appends a diagnostic.
func (c *Collector) Add(kind ErrorKind, pos cerrors.Position, format string, args ...interface{}) {
	c.Diags = append(c.Diags, Diagnostic{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any diagnostic was collected.
func (c *Collector) HasErrors() bool { return len(c.Diags) > 0 }

// CheckError is the exceptional control-flow type used by shape errors
// that would corrupt later inference if traversal continued (§7,
// "Propagation policy"). The driver recovers from a CheckError at a
// top-level-item try-boundary and converts it into a Diagnostic, except
// for overload-conflict, which is collected directly into the Diagnostic
// list at the single point where it is detected (end of run).
type CheckError struct {
	Kind ErrorKind
	Pos  cerrors.Position
	Msg  string
}

func (e *CheckError) Error() string { return fmt.Sprintf("%s: %s (%s)", e.Pos, e.Msg, e.Kind) }

// fail constructs a *CheckError, the idiom used throughout the checker
// for "fails with <ErrorKind>".
func fail(kind ErrorKind, pos cerrors.Position, format string, args ...interface{}) *CheckError {
	return &CheckError{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
