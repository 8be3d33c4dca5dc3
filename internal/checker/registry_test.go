package checker

import (
	"testing"

	"github.com/cwbudde/mzn-typecheck/internal/types"
)

func TestMatchFnPrefersParOverVarOnAllParCall(t *testing.T) {
	env := NewEnv()
	sig, ok := env.Functions.MatchFn("+", []types.Type{types.ParInt(), types.ParInt()})
	if !ok {
		t.Fatalf("expected a match for par int + par int")
	}
	if sig.Ret.IsVar() {
		t.Errorf("an all-par call should resolve to the par overload, got %s", sig.Ret)
	}
}

func TestMatchFnPromotesToVarWhenOneOperandIsVar(t *testing.T) {
	env := NewEnv()
	sig, ok := env.Functions.MatchFn("+", []types.Type{types.ParInt(), types.VarInt()})
	if !ok {
		t.Fatalf("expected a match for par int + var int")
	}
	if !sig.Ret.IsVar() {
		t.Errorf("a mixed par/var call should resolve to the var overload, got %s", sig.Ret)
	}
}

func TestMatchFnAppliesElementCoercion(t *testing.T) {
	env := NewEnv()
	// bool + int has no direct overload; bool should coerce to int.
	sig, ok := env.Functions.MatchFn("+", []types.Type{types.ParBool(), types.ParInt()})
	if !ok {
		t.Fatalf("expected bool to coerce to int for +")
	}
	if sig.Ret.Base != types.Int {
		t.Errorf("result base = %s, want int", sig.Ret.Base)
	}
}

func TestMatchFnNoOverload(t *testing.T) {
	env := NewEnv()
	if _, ok := env.Functions.MatchFn("+", []types.Type{types.ParString(), types.ParString()}); ok {
		t.Errorf("string + string should have no matching overload")
	}
}

func TestEnumRegistryInterning(t *testing.T) {
	r := NewEnumRegistry()
	decl := newTestDecl("Color")
	id1 := r.Intern(decl)
	id2 := r.Intern(decl)
	if id1 != id2 {
		t.Errorf("interning the same declaration twice should return the same id")
	}
	if id1 == 0 {
		t.Errorf("a real enum declaration should never intern to 0")
	}
	if got := r.IDOf(decl); got != id1 {
		t.Errorf("IDOf = %d, want %d", got, id1)
	}
}
