// Package bridge exchanges values with a relocating host heap.
//
// # Scopes
//
// Every exported call runs inside a Scope. Opening a scope pushes a local
// root table onto the chain the host collector walks; closing it pops the
// table again and checks that the call left no slot occupied:
//
//	out := chain.With(ctx, func(s *bridge.Scope) mlbridge.Word {
//		x := s.Wrap(arg, mltype.String)
//		...
//		return result.Word()
//	})
//
// # Values
//
// A Value is a heap word with a type descriptor, bound to the scope that
// guarantees its reachability and to the chain's allocation generation at
// which it was last confirmed live. Any allocation may move blocks, so every
// allocation advances the generation and reading an older Value is a
// contract violation. Values that must survive an allocation are rooted:
//
//	xv := x.Root(s)
//	pair := s.Call(bridge.AllocPair(s.Token(), layout.PairTag, x, x))
//	x = xv.Get(s) // re-read after the allocation
//	xv.Release()
//
// # Staged allocation
//
// Allocation primitives consume a single-use Token and return a Raw result.
// Raw offers only Mark, and the Marked result offers only Eval, so a result
// cannot be read before it has been confirmed against the active scope.
// Scope.Call performs both steps.
//
// # Contract violations
//
// Misuse panics with an *errors.Error after logging it. There is no
// recovery inside the bridge.
package bridge
