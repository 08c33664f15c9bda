package mltype

import "testing"

func TestUnifySubst(t *testing.T) {
	env := map[string]Type{}
	if !Unify(A, Int, env) || !Unify(B, List(String), env) {
		t.Fatal("binding fresh variables failed")
	}
	if Unify(A, Char, env) {
		t.Error("rebinding 'a to char succeeded")
	}
	if !Unify(Pair(A, Option(B)), Pair(Int, Option(List(String))), env) {
		t.Error("consistent composite did not unify")
	}
	if Unify(List(A), Option(Int), env) {
		t.Error("list unified with option")
	}

	got := Subst(Pair(A, Pair(B, C)), env)
	want := Pair(Int, Pair(List(String), C))
	if !got.Equal(want) {
		t.Errorf("Subst = %s, want %s", got, want)
	}
	if Subst(String, env).Kind() != KindString {
		t.Error("Subst changed a monomorphic type")
	}
}
