package literal

import (
	"context"
	"fmt"

	"github.com/wippyai/mlbridge"
	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

// Store copies bigstring contents out of the collected heap and returns
// their linear memory address.
type Store func(data []byte) (uint32, error)

const (
	maxInt = 1<<62 - 1
	minInt = -1 << 62
)

// Builder builds literals against declared types. Type variables are bound
// on first use and shared across every literal built by the same Builder,
// so one Builder serves exactly one call.
type Builder struct {
	store Store
	env   map[string]mltype.Type
	fresh int
}

// NewBuilder returns a Builder. store may be nil when no argument is a
// bigstring.
func NewBuilder(store Store) *Builder {
	return &Builder{store: store, env: make(map[string]mltype.Type)}
}

// Resolve substitutes every type variable bound so far.
func (b *Builder) Resolve(t mltype.Type) mltype.Type {
	for t.Polymorphic() {
		next := mltype.Subst(t, b.env)
		if next.Equal(t) {
			break
		}
		t = next
	}
	return t
}

// Args parses one literal per declared argument type, builds them on chain
// and returns their words. Every literal is checked before anything is
// allocated. The returned words stay valid until chain next allocates.
func (b *Builder) Args(ctx context.Context, chain *bridge.Chain, types []mltype.Type, srcs []string) ([]mlbridge.Word, error) {
	if len(srcs) != len(types) {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("expected %d argument(s), got %d", len(types), len(srcs)).
			Build()
	}
	nodes := make([]node, len(srcs))
	for i, src := range srcs {
		n, err := parse(src)
		if err != nil {
			return nil, err
		}
		if err := b.check(&n, types[i]); err != nil {
			return nil, err
		}
		nodes[i] = n
	}

	s := chain.Open(ctx)
	roots := make([]*bridge.Root, len(nodes))
	for i := range nodes {
		roots[i] = s.Root(b.build(s, &nodes[i], b.Resolve(types[i])))
	}
	words := make([]mlbridge.Word, len(roots))
	for i, r := range roots {
		words[i] = r.Get(s).Word()
	}
	for i := len(roots) - 1; i >= 0; i-- {
		roots[i].Release()
	}
	s.Close()
	return words, nil
}

// Build parses src and builds it in s as a value of type t.
func (b *Builder) Build(s *bridge.Scope, t mltype.Type, src string) (bridge.Value, error) {
	n, err := parse(src)
	if err != nil {
		return bridge.Value{}, err
	}
	if err := b.check(&n, t); err != nil {
		return bridge.Value{}, err
	}
	return b.build(s, &n, b.Resolve(t)), nil
}

func (b *Builder) freshVar() mltype.Type {
	b.fresh++
	return mltype.Var(fmt.Sprintf("_%d", b.fresh))
}

func mismatch(n *node, t mltype.Type) error {
	return errors.New(errors.PhaseEncode, errors.KindKindMismatch).
		HostType(t.Name()).
		Detail("cannot build %s from a %s literal", t.Name(), n.kind).
		Build()
}

// check validates n against t, binding type variables and storing
// bigstring contents.
func (b *Builder) check(n *node, t mltype.Type) error {
	switch t.Kind() {
	case mltype.KindVar:
		if bound := mltype.Subst(t, b.env); !bound.Equal(t) {
			return b.check(n, bound)
		}
		it, err := b.infer(n)
		if err != nil {
			return err
		}
		mltype.Unify(t, it, b.env)
		return nil
	case mltype.KindInt:
		if n.kind != nodeInt {
			return mismatch(n, t)
		}
		if n.num > maxInt || n.num < minInt {
			return errors.New(errors.PhaseEncode, errors.KindOutOfBounds).
				HostType(t.Name()).
				Value(n.num).
				Detail("integer does not fit in 63 bits").
				Build()
		}
	case mltype.KindInt64:
		if n.kind != nodeInt && n.kind != nodeInt64 {
			return mismatch(n, t)
		}
	case mltype.KindFloat:
		if n.kind == nodeInt {
			n.kind, n.float = nodeFloat, float64(n.num)
		}
		if n.kind != nodeFloat {
			return mismatch(n, t)
		}
	case mltype.KindChar:
		if n.kind != nodeChar {
			return mismatch(n, t)
		}
	case mltype.KindBool:
		if n.kind != nodeBool {
			return mismatch(n, t)
		}
	case mltype.KindUnit:
		if n.kind != nodeUnit {
			return mismatch(n, t)
		}
	case mltype.KindString, mltype.KindBytes:
		if n.kind != nodeString {
			return mismatch(n, t)
		}
	case mltype.KindBigstring:
		if n.kind != nodeString {
			return mismatch(n, t)
		}
		if b.store == nil {
			return errors.InvalidInput(errors.PhaseEncode, "bigstring literal needs external storage")
		}
		addr, err := b.store([]byte(n.str))
		if err != nil {
			return err
		}
		n.num = int64(addr)
	case mltype.KindPair:
		if n.kind != nodeTuple || len(n.elems) < 2 {
			return mismatch(n, t)
		}
		if err := b.check(&n.elems[0], t.Elem(0)); err != nil {
			return err
		}
		if len(n.elems) == 2 {
			return b.check(&n.elems[1], t.Elem(1))
		}
		// (a, b, c) is (a, (b, c))
		rest := node{kind: nodeTuple, elems: n.elems[1:]}
		n.elems = []node{n.elems[0], rest}
		return b.check(&n.elems[1], t.Elem(1))
	case mltype.KindList:
		if n.kind != nodeList {
			return mismatch(n, t)
		}
		for i := range n.elems {
			if err := b.check(&n.elems[i], t.Elem(0)); err != nil {
				return err
			}
		}
	case mltype.KindOption:
		switch n.kind {
		case nodeNone:
		case nodeSome:
			return b.check(&n.elems[0], t.Elem(0))
		default:
			return mismatch(n, t)
		}
	case mltype.KindRecord:
		if n.kind != nodeRecord || len(n.elems) != t.NumElems() {
			return mismatch(n, t)
		}
		for i := range n.elems {
			if err := b.check(&n.elems[i], t.Elem(i)); err != nil {
				return err
			}
		}
	default:
		return mismatch(n, t)
	}
	return nil
}

// infer derives the type a literal denotes on its own.
func (b *Builder) infer(n *node) (mltype.Type, error) {
	var t mltype.Type
	switch n.kind {
	case nodeInt:
		t = mltype.Int
	case nodeInt64:
		t = mltype.Int64
	case nodeFloat:
		t = mltype.Float
	case nodeChar:
		t = mltype.Char
	case nodeString:
		t = mltype.String
	case nodeBool:
		t = mltype.Bool
	case nodeUnit:
		t = mltype.Unit
	case nodeTuple:
		for i := len(n.elems) - 1; i >= 0; i-- {
			et, err := b.infer(&n.elems[i])
			if err != nil {
				return mltype.Type{}, err
			}
			if i == len(n.elems)-1 {
				t = et
			} else {
				t = mltype.Pair(et, t)
			}
		}
	case nodeList:
		t = mltype.List(b.freshVar())
	case nodeNone, nodeSome:
		t = mltype.Option(b.freshVar())
	default:
		return mltype.Type{}, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("a %s literal needs a declared type", n.kind).
			Build()
	}
	return t, b.check(n, t)
}

// build allocates the checked literal n. t has been resolved.
func (b *Builder) build(s *bridge.Scope, n *node, t mltype.Type) bridge.Value {
	switch t.Kind() {
	case mltype.KindInt:
		return bridge.Int(n.num)
	case mltype.KindChar:
		return bridge.Char(byte(n.num))
	case mltype.KindBool:
		return bridge.Bool(n.boolean)
	case mltype.KindUnit:
		return bridge.Unit()
	case mltype.KindInt64:
		return s.Call(bridge.CopyInt64(s.Token(), n.num))
	case mltype.KindFloat:
		return s.Call(bridge.CopyFloat(s.Token(), n.float))
	case mltype.KindString:
		return s.Call(bridge.AllocString(s.Token(), n.str))
	case mltype.KindBytes:
		return s.Call(bridge.AllocBytes(s.Token(), []byte(n.str)))
	case mltype.KindBigstring:
		return s.Call(bridge.AllocExternal(s.Token(), uint32(n.num), uint32(len(n.str))))
	case mltype.KindPair, mltype.KindList, mltype.KindOption, mltype.KindRecord:
		// each level gets its own root table
		w := s.Chain().With(s.Context(), func(c *bridge.Scope) mlbridge.Word {
			return b.compose(c, n, t).Word()
		})
		return s.Wrap(w, t)
	default:
		panic(fmt.Sprintf("literal: unchecked type %s", t.Name()))
	}
}

func (b *Builder) compose(s *bridge.Scope, n *node, t mltype.Type) bridge.Value {
	switch t.Kind() {
	case mltype.KindPair:
		fst := s.Root(b.build(s, &n.elems[0], t.Elem(0)))
		snd := b.build(s, &n.elems[1], t.Elem(1))
		v := s.Call(bridge.AllocPair(s.Token(), layout.PairTag, fst.Get(s), snd))
		fst.Release()
		return v
	case mltype.KindList:
		tail := s.Root(bridge.Nil(t.Elem(0)))
		for i := len(n.elems) - 1; i >= 0; i-- {
			hd := b.build(s, &n.elems[i], t.Elem(0))
			tail.Set(s.Call(bridge.AllocCons(s.Token(), hd, tail.Get(s))))
		}
		v := tail.Get(s)
		tail.Release()
		return v
	case mltype.KindOption:
		if n.kind == nodeNone {
			return s.Call(bridge.None(s.Token(), t.Elem(0)))
		}
		x := b.build(s, &n.elems[0], t.Elem(0))
		return s.Call(bridge.AllocSome(s.Token(), x))
	case mltype.KindRecord:
		roots := make([]*bridge.Root, len(n.elems))
		for i := range n.elems {
			roots[i] = s.Root(b.build(s, &n.elems[i], t.Elem(i)))
		}
		fields := make([]bridge.Value, len(roots))
		for i, r := range roots {
			fields[i] = r.Get(s)
		}
		v := s.Call(bridge.AllocBlock(s.Token(), t, 0, fields...))
		for i := len(roots) - 1; i >= 0; i-- {
			roots[i].Release()
		}
		return v
	default:
		panic(fmt.Sprintf("literal: %s is not composite", t.Name()))
	}
}
