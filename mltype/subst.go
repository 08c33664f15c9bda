package mltype

// Unify matches actual against pattern, binding pattern's type variables in
// env. It reports false when the shapes differ or a variable would be bound
// to two different types.
func Unify(pattern, actual Type, env map[string]Type) bool {
	if pattern.kind == KindVar {
		if bound, ok := env[pattern.name]; ok {
			return bound.Equal(actual)
		}
		env[pattern.name] = actual
		return true
	}
	if pattern.kind != actual.kind || pattern.name != actual.name || len(pattern.elems) != len(actual.elems) {
		return false
	}
	for i := range pattern.elems {
		if !Unify(pattern.elems[i], actual.elems[i], env) {
			return false
		}
	}
	return true
}

// Subst replaces the type variables of t bound in env.
func Subst(t Type, env map[string]Type) Type {
	if t.kind == KindVar {
		if bound, ok := env[t.name]; ok {
			return bound
		}
		return t
	}
	if len(t.elems) == 0 {
		return t
	}
	elems := make([]Type, len(t.elems))
	for i, e := range t.elems {
		elems[i] = Subst(e, env)
	}
	return Type{kind: t.kind, name: t.name, elems: elems}
}
