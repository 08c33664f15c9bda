// Package natives is the example module: small conversion and printing
// functions written against the bridge.
package natives

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/exports"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/mltype"
)

// ModuleName is the host module the example functions are exported under.
const ModuleName = "natives"

// FooBar is the record type recordfst reads: a single pair of ints.
var FooBar = mltype.Record("Test.foobar", mltype.Pair(mltype.Int, mltype.Int))

type natives struct {
	out io.Writer
}

// New builds the example module. Printing functions write to out.
func New(out io.Writer) *exports.Module {
	m := exports.NewModule(ModuleName, out)
	n := natives{out: m.Out()}
	for _, f := range []exports.Func{
		{Name: "tostring", Args: []mltype.Type{mltype.Pair(mltype.String, mltype.Int)}, Ret: mltype.String, Body: n.tostring},
		{Name: "mkpair", Args: []mltype.Type{mltype.A, mltype.B}, Ret: mltype.Pair(mltype.A, mltype.B), Body: mkpair},
		{Name: "strtail", Args: []mltype.Type{mltype.String}, Ret: mltype.Option(mltype.String), Body: strtail},
		{Name: "bytestail", Args: []mltype.Type{mltype.Bytes}, Ret: mltype.Option(mltype.Bytes), Body: bytestail},
		{Name: "somestr", Args: []mltype.Type{mltype.Int}, Ret: mltype.Option(mltype.String), Body: somestr},
		{Name: "triple", Args: []mltype.Type{mltype.A}, Ret: mltype.Pair(mltype.A, mltype.Pair(mltype.A, mltype.A)), Body: triple},
		{Name: "recordfst", Args: []mltype.Type{FooBar}, Ret: mltype.Int, Body: recordfst},
		{Name: "bigstrtail", Args: []mltype.Type{mltype.Bigstring}, Ret: mltype.Option(mltype.Bigstring), Body: bigstrtail},
		{Name: "listtail", Args: []mltype.Type{mltype.List(mltype.A)}, Ret: mltype.Option(mltype.List(mltype.A)), Body: listtail},
		{Name: "printbigstring", Args: []mltype.Type{mltype.Bigstring}, Ret: mltype.String, Body: n.printbigstring},
		{Name: "printchar", Args: []mltype.Type{mltype.Char}, Ret: mltype.String, Body: n.printchar},
		{Name: "printint", Args: []mltype.Type{mltype.Int}, Ret: mltype.String, Body: n.printint},
		{Name: "printint64", Args: []mltype.Type{mltype.Int64}, Ret: mltype.String, Body: n.printint64},
		{Name: "inc", Args: []mltype.Type{mltype.Int}, Ret: mltype.Int, Body: inc},
		{Name: "inc64", Args: []mltype.Type{mltype.Int64}, Ret: mltype.Int64, Body: inc64},
		{Name: "atoi", Args: []mltype.Type{mltype.Char}, Ret: mltype.Int, Body: atoi},
		{Name: "itoa", Args: []mltype.Type{mltype.Int}, Ret: mltype.Char, Body: itoa},
	} {
		m.MustAdd(f)
	}
	return m
}

func (n natives) tostring(s *bridge.Scope, args []bridge.Value) bridge.Value {
	// p is read in full before the allocation and needs no root.
	p := args[0]
	msg := fmt.Sprintf("str: %s, int: %d", p.Fst().AsString(), p.Snd().AsInt())
	return s.Call(bridge.AllocString(s.Token(), msg))
}

func mkpair(s *bridge.Scope, args []bridge.Value) bridge.Value {
	return s.Call(bridge.AllocPair(s.Token(), layout.PairTag, args[0], args[1]))
}

func strtail(s *bridge.Scope, args []bridge.Value) bridge.Value {
	str := args[0].AsString()
	if str == "" {
		return s.Call(bridge.None(s.Token(), mltype.String))
	}
	_, size := utf8.DecodeRuneInString(str)
	tail := s.Call(bridge.AllocString(s.Token(), str[size:]))
	return s.Call(bridge.AllocSome(s.Token(), tail))
}

func bytestail(s *bridge.Scope, args []bridge.Value) bridge.Value {
	b := args[0].AsBytes()
	if len(b) == 0 {
		return s.Call(bridge.None(s.Token(), mltype.Bytes))
	}
	tail := s.Call(bridge.AllocBytes(s.Token(), b[1:]))
	return s.Call(bridge.AllocSome(s.Token(), tail))
}

func somestr(s *bridge.Scope, args []bridge.Value) bridge.Value {
	str := s.Call(bridge.AllocString(s.Token(), strconv.FormatInt(args[0].AsInt(), 10)))
	return s.Call(bridge.AllocSome(s.Token(), str))
}

func triple(s *bridge.Scope, args []bridge.Value) bridge.Value {
	x := args[0]
	vx := x.Root(s)
	snd := s.Call(bridge.AllocPair(s.Token(), layout.PairTag, x, x))
	ret := s.Call(bridge.AllocPair(s.Token(), layout.PairTag, vx.Get(s), snd))
	vx.Release()
	return ret
}

func recordfst(s *bridge.Scope, args []bridge.Value) bridge.Value {
	pair := args[0].Field(0, FooBar.Elem(0))
	return bridge.Int(pair.Fst().AsInt())
}

func bigstrtail(s *bridge.Scope, args []bridge.Value) bridge.Value {
	data, n := args[0].AsBuffer()
	if n == 0 {
		return s.Call(bridge.None(s.Token(), mltype.Bigstring))
	}
	tail := s.Call(bridge.AllocExternal(s.Token(), data+1, n-1))
	return s.Call(bridge.AllocSome(s.Token(), tail))
}

func listtail(s *bridge.Scope, args []bridge.Value) bridge.Value {
	_, tail, ok := args[0].AsList()
	if !ok {
		return s.Call(bridge.None(s.Token(), args[0].Type()))
	}
	return s.Call(bridge.AllocSome(s.Token(), tail))
}

func (n natives) printbigstring(s *bridge.Scope, args []bridge.Value) bridge.Value {
	b := args[0].AsSlice()
	n.write(string(b) + "\n")
	return s.Call(bridge.AllocString(s.Token(), ""))
}

func (n natives) printchar(s *bridge.Scope, args []bridge.Value) bridge.Value {
	n.write(fmt.Sprintf("%c \n", args[0].AsChar()))
	return s.Call(bridge.AllocString(s.Token(), ""))
}

func (n natives) printint(s *bridge.Scope, args []bridge.Value) bridge.Value {
	n.write(fmt.Sprintf("%d \n", args[0].AsInt()))
	return s.Call(bridge.AllocString(s.Token(), ""))
}

func (n natives) printint64(s *bridge.Scope, args []bridge.Value) bridge.Value {
	n.write(fmt.Sprintf("%d \n", args[0].AsInt64()))
	return s.Call(bridge.AllocString(s.Token(), ""))
}

func (n natives) write(msg string) {
	io.WriteString(n.out, msg)
}

func inc(s *bridge.Scope, args []bridge.Value) bridge.Value {
	return bridge.Int(args[0].AsInt() + 1)
}

func inc64(s *bridge.Scope, args []bridge.Value) bridge.Value {
	return s.Call(bridge.CopyInt64(s.Token(), args[0].AsInt64()+1))
}

func atoi(s *bridge.Scope, args []bridge.Value) bridge.Value {
	return bridge.Int(int64(args[0].AsChar()))
}

func itoa(s *bridge.Scope, args []bridge.Value) bridge.Value {
	return bridge.Char(byte(args[0].AsInt()))
}
