package bridge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/heap"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

func TestValue_Immediates(t *testing.T) {
	if w := Int(41).Word(); w != 83 {
		t.Errorf("Int(41) = %d, want 83", w)
	}
	if n := Int(-7).AsInt(); n != -7 {
		t.Errorf("Int(-7).AsInt() = %d", n)
	}
	if c := Char('z').AsChar(); c != 'z' {
		t.Errorf("Char = %q", c)
	}
	if !Bool(true).AsBool() || Bool(false).AsBool() {
		t.Error("Bool round trip")
	}
	if Unit().Word() != layout.Unit {
		t.Error("Unit word")
	}
	if Int(1).IsBlock() {
		t.Error("immediate reported as block")
	}
}

func TestValue_KindMismatch(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	str := s.Call(AllocString(s.Token(), "x"))

	tests := []struct {
		name string
		run  func()
	}{
		{"int as string", func() { Int(1).AsString() }},
		{"int as list", func() { Int(1).AsList() }},
		{"string as int", func() { str.AsInt() }},
		{"string as pair", func() { str.Fst() }},
		{"string as int64", func() { str.AsInt64() }},
		{"char as bool", func() { Char('a').AsBool() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectFatal(t, errors.KindKindMismatch, tt.run)
		})
	}
}

func TestValue_Strings(t *testing.T) {
	inputs := []string{"", "a", "1234567", "12345678", "hello, world", "héllo"}
	c, _ := newTestChain(t, heap.Config{}, Options{})
	for _, in := range inputs {
		s := c.Open(ctx)
		v := s.Call(AllocString(s.Token(), in))
		if got := v.AsString(); got != in {
			t.Errorf("AsString = %q, want %q", got, in)
		}
		if diff := cmp.Diff([]byte(in), v.AsBytes(), cmp.Comparer(func(a, b []byte) bool { return string(a) == string(b) })); diff != "" {
			t.Errorf("AsBytes mismatch (-want +got):\n%s", diff)
		}
		s.Close()
	}
}

func TestValue_BlankString(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	v := s.Call(AllocBlankBytes(s.Token(), 10))
	if got := v.AsBytes(); string(got) != string(make([]byte, 10)) {
		t.Errorf("blank bytes = %x", got)
	}
	if v.Type().Kind() != mltype.KindBytes {
		t.Errorf("type = %s", v.Type())
	}
	s.Close()
}

func TestValue_InvalidUTF8(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	v := s.Call(AllocBytes(s.Token(), []byte{0xff, 0xfe}))
	if got := v.AsBytes(); len(got) != 2 {
		t.Errorf("AsBytes length = %d", len(got))
	}
	expectFatal(t, errors.KindInvalidUTF8, func() { v.AsString() })
}

func TestValue_Boxed(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	for _, n := range []int64{0, -1, 1 << 62, -(1 << 63)} {
		if got := s.Call(CopyInt64(s.Token(), n)).AsInt64(); got != n {
			t.Errorf("int64 %d round trip = %d", n, got)
		}
	}
	if got := s.Call(CopyFloat(s.Token(), -0.5)).AsFloat(); got != -0.5 {
		t.Errorf("float round trip = %v", got)
	}
	s.Close()
}

func TestValue_External(t *testing.T) {
	c, arena := newTestChain(t, heap.Config{}, Options{})
	addr, err := arena.StoreExternal([]byte("bigstring"))
	if err != nil {
		t.Fatalf("StoreExternal: %v", err)
	}
	s := c.Open(ctx)
	v := s.Call(AllocExternal(s.Token(), addr, 9))
	data, n := v.AsBuffer()
	if data != addr || n != 9 {
		t.Errorf("AsBuffer = (%#x, %d), want (%#x, 9)", data, n, addr)
	}
	if got := string(v.AsSlice()); got != "bigstring" {
		t.Errorf("AsSlice = %q", got)
	}

	tail := s.Call(AllocExternal(s.Token(), addr+3, 6))
	if got := string(tail.AsSlice()); got != "string" {
		t.Errorf("tail slice = %q", got)
	}
	s.Close()
}

func TestValue_Pair(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	p := s.Call(AllocPair(s.Token(), layout.PairTag, Int(1), Char('b')))
	if p.Type().Name() != "(int * char)" {
		t.Errorf("pair type = %s", p.Type())
	}
	if p.Fst().AsInt() != 1 || p.Snd().AsChar() != 'b' {
		t.Error("pair components")
	}
	expectFatal(t, errors.KindOutOfBounds, func() { p.Field(2, mltype.Int) })
}

func TestValue_PairRoundTrip(t *testing.T) {
	tests := []struct {
		fst, snd Value
		typ      string
	}{
		{Int(layout.MinInt), Int(layout.MaxInt), "(int * int)"},
		{Int(layout.MaxInt), Char(0), "(int * char)"},
		{Int(layout.MinInt), Char(255), "(int * char)"},
		{Int(-1), Bool(true), "(int * bool)"},
		{Int(0), Bool(false), "(int * bool)"},
		{Char('b'), Unit(), "(char * unit)"},
		{Bool(true), Int(1 << 40), "(bool * int)"},
	}
	c, _ := newTestChain(t, heap.Config{CollectEvery: 1}, Options{})
	for _, tt := range tests {
		s := c.Open(ctx)
		p := s.Call(AllocPair(s.Token(), layout.PairTag, tt.fst, tt.snd))
		// an allocation in between moves p through a collection
		pr := p.Root(s)
		s.Call(AllocString(s.Token(), "filler"))
		p = pr.Get(s)
		if p.Type().Name() != tt.typ {
			t.Errorf("type = %s, want %s", p.Type(), tt.typ)
		}
		if got, want := p.Fst().Word(), tt.fst.Word(); got != want {
			t.Errorf("%s: fst = %#x, want %#x", tt.typ, uint64(got), uint64(want))
		}
		if got, want := p.Snd().Word(), tt.snd.Word(); got != want {
			t.Errorf("%s: snd = %#x, want %#x", tt.typ, uint64(got), uint64(want))
		}
		pr.Release()
		s.Close()
	}

	s := c.Open(ctx)
	p := s.Call(AllocPair(s.Token(), layout.PairTag, Int(layout.MinInt), Int(layout.MaxInt)))
	if p.Fst().AsInt() != layout.MinInt || p.Snd().AsInt() != layout.MaxInt {
		t.Errorf("extremes = (%d, %d)", p.Fst().AsInt(), p.Snd().AsInt())
	}
	s.Close()
}

func TestValue_AsBool(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	defer s.Close()
	if s.Wrap(layout.EncodeInt(0), mltype.Bool).AsBool() {
		t.Error("payload 0 decoded as true")
	}
	if !s.Wrap(layout.EncodeInt(1), mltype.Bool).AsBool() {
		t.Error("payload 1 decoded as false")
	}
	for _, n := range []int64{2, -1, layout.MaxInt} {
		v := s.Wrap(layout.EncodeInt(n), mltype.Bool)
		expectFatal(t, errors.KindInvalidData, func() { v.AsBool() })
	}
}

func TestValue_BlockUnderImmediateField(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	defer s.Close()
	str := s.Call(AllocString(s.Token(), "x"))
	p := s.Call(AllocPair(s.Token(), layout.PairTag, str, Int(2)))
	v := s.Wrap(p.Word(), mltype.Pair(mltype.Int, mltype.Int))
	expectFatal(t, errors.KindNotImmediate, func() { v.Fst() })
	if v.Snd().AsInt() != 2 {
		t.Error("snd")
	}
}

func TestValue_WrongTag(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	str := s.Call(AllocString(s.Token(), "not a pair"))
	v := s.Wrap(str.Word(), mltype.Pair(mltype.Int, mltype.Int))
	expectFatal(t, errors.KindTagMismatch, func() { v.Fst() })

	f := s.Wrap(str.Word(), mltype.Float)
	expectFatal(t, errors.KindTagMismatch, func() { f.AsFloat() })

	i := s.Wrap(str.Word(), mltype.Int)
	expectFatal(t, errors.KindNotImmediate, func() { i.AsInt() })
}

func TestValue_Option(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)

	none := s.Call(None(s.Token(), mltype.String))
	if _, ok := none.AsOption(); ok {
		t.Error("None reported Some")
	}
	if none.Word() != layout.None {
		t.Errorf("None word = %#x", uint64(none.Word()))
	}

	some := s.Call(AllocSome(s.Token(), Int(7)))
	x, ok := some.AsOption()
	if !ok || x.AsInt() != 7 {
		t.Errorf("Some = (%v, %v)", x, ok)
	}
	if some.Type().Name() != "int option" {
		t.Errorf("type = %s", some.Type())
	}
}

func TestValue_List(t *testing.T) {
	for n := 0; n <= 8; n++ {
		c, _ := newTestChain(t, heap.Config{CollectEvery: 3}, Options{})
		s := c.Open(ctx)
		l := Nil(mltype.Int)
		for i := n - 1; i >= 0; i-- {
			l = s.Call(AllocCons(s.Token(), Int(int64(i)), l))
		}
		if got := l.Len(); got != n {
			t.Errorf("n=%d: Len = %d", n, got)
		}
		var got []int64
		for cur := l; ; {
			h, tail, ok := cur.AsList()
			if !ok {
				break
			}
			got = append(got, h.AsInt())
			cur = tail
		}
		var want []int64
		for i := 0; i < n; i++ {
			want = append(want, int64(i))
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("n=%d: elements (-want +got):\n%s", n, diff)
		}
		s.Close()
	}
}

func TestValue_Stale(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	p := s.Call(AllocPair(s.Token(), layout.PairTag, Int(1), Int(2)))
	gen := c.Generation()
	s.Call(AllocString(s.Token(), "moves everything"))
	if c.Generation() != gen+1 {
		t.Errorf("generation = %d, want %d", c.Generation(), gen+1)
	}
	expectFatal(t, errors.KindStale, func() { p.Fst() })

	static := Int(3)
	s.Call(AllocString(s.Token(), "again"))
	if static.AsInt() != 3 {
		t.Error("static immediate became unreadable")
	}
}

func TestValue_ScopeClosed(t *testing.T) {
	c, _ := newTestChain(t, heap.Config{}, Options{})
	s := c.Open(ctx)
	v := s.Call(AllocString(s.Token(), "gone"))
	s.Close()
	expectFatal(t, errors.KindScopeClosed, func() { v.AsString() })
}
