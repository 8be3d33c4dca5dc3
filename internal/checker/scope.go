package checker

import (
	"github.com/cwbudde/mzn-typecheck/internal/ast"
	cerrors "github.com/cwbudde/mzn-typecheck/internal/errors"
)

// frame is one layer of the scope stack: a mapping from identifier to
// declaration, plus the toplevel flag that governs lookup shadowing.
type frame struct {
	bindings map[string]*ast.VarDecl
	toplevel bool
}

func newFrame(toplevel bool) *frame {
	return &frame{bindings: make(map[string]*ast.VarDecl), toplevel: toplevel}
}

// ScopeStack implements the layered lookup from §4.1: inner non-toplevel
// frames shadow the top level, parallel non-toplevel frames do not see
// each other, and the outermost frame is always visible for forward
// references from any descendant frame. The outermost frame is pushed by
// NewScopeStack and lives for the checker's entire lifetime.
type ScopeStack struct {
	frames []*frame
}

// NewScopeStack creates a stack with its permanent, always-visible
// outermost toplevel frame already pushed.
func NewScopeStack() *ScopeStack {
	return &ScopeStack{frames: []*frame{newFrame(true)}}
}

// Push opens a new frame.
func (s *ScopeStack) Push(toplevel bool) {
	s.frames = append(s.frames, newFrame(toplevel))
}

// Pop closes the top frame. Popping the permanent outermost frame is a
// programming error in the caller and panics, mirroring how the original
// checker never balances that frame's push.
func (s *ScopeStack) Pop() {
	if len(s.frames) <= 1 {
		panic("checker: cannot pop the outermost scope frame")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *ScopeStack) top() *frame { return s.frames[len(s.frames)-1] }

// Add binds decl in the current frame. It fails with redefinition if the
// name is already bound in that same frame, and with enum-not-top-level
// if decl's type-inst is an enum and the current frame is not the
// toplevel frame.
func (s *ScopeStack) Add(decl *ast.VarDecl) error {
	f := s.top()
	if _, exists := f.bindings[decl.Name]; exists {
		return fail(KindRedefinition, decl.Pos(), "identifier `%s' already defined", decl.Name)
	}
	if !f.toplevel && decl.Ti != nil && decl.Ti.EnumName != "" {
		return fail(KindEnumNotTopLevel, decl.Pos(), "enum type `%s' declared outside top level", decl.Name)
	}
	f.bindings[decl.Name] = decl
	return nil
}

// Remove unbinds decl from the current frame without popping the whole
// frame.
func (s *ScopeStack) Remove(decl *ast.VarDecl) {
	delete(s.top().bindings, decl.Name)
}

// Find searches from the top frame downward; upon reaching a toplevel
// frame it jumps directly to the outermost frame and stops there. This
// means a forward reference made from inside nested, non-toplevel scopes
// always resolves against globals, never against an intervening toplevel
// frame's siblings.
func (s *ScopeStack) Find(name string) (*ast.VarDecl, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if vd, ok := f.bindings[name]; ok {
			return vd, true
		}
		if f.toplevel {
			if i != 0 {
				if vd, ok := s.frames[0].bindings[name]; ok {
					return vd, true
				}
			}
			return nil, false
		}
	}
	return nil, false
}

// FindOrError is the checkId primitive from §4.2: it resolves name or
// fails with undefined-identifier.
func (s *ScopeStack) FindOrError(name string, pos cerrors.Position) (*ast.VarDecl, error) {
	vd, ok := s.Find(name)
	if !ok {
		return nil, fail(KindUndefinedIdentifier, pos, "undefined identifier %s", name)
	}
	return vd, nil
}
