package decl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/mlbridge/mltype"
)

var sample = []Func{
	{Name: "strtail", Args: []mltype.Type{mltype.String}, Ret: mltype.Option(mltype.String)},
	{Name: "mkpair", Args: []mltype.Type{mltype.A, mltype.B}, Ret: mltype.Pair(mltype.A, mltype.B)},
	{Name: "inc64", Symbol: "ml_inc64", Args: []mltype.Type{mltype.Int64}, Ret: mltype.Int64},
	{Name: "print_module", Args: []mltype.Type{mltype.Unit}, Ret: mltype.Unit},
}

func TestLine(t *testing.T) {
	tests := []struct {
		fn   Func
		want string
	}{
		{sample[0], `external strtail : string -> string option = "strtail"`},
		{sample[1], `external mkpair : 'a -> 'b -> ('a * 'b) = "mkpair"`},
		{sample[2], `external inc64 : int64 -> int64 = "ml_inc64"`},
		{
			Func{Name: "bigstrtail", Args: []mltype.Type{mltype.Bigstring}, Ret: mltype.Option(mltype.Bigstring)},
			`external bigstrtail : Bigstring.t -> Bigstring.t option = "bigstrtail"`,
		},
		{
			Func{Name: "listtail", Args: []mltype.Type{mltype.List(mltype.A)}, Ret: mltype.Option(mltype.List(mltype.A))},
			`external listtail : 'a list -> 'a list option = "listtail"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.fn.Name, func(t *testing.T) {
			if got := Line(tt.fn); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmit(t *testing.T) {
	var buf bytes.Buffer
	if err := Emit(&buf, sample[:3]); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	want := []string{
		`external strtail : string -> string option = "strtail"`,
		`external mkpair : 'a -> 'b -> ('a * 'b) = "mkpair"`,
		`external inc64 : int64 -> int64 = "ml_inc64"`,
		``,
	}
	if diff := cmp.Diff(want, strings.Split(buf.String(), "\n")); diff != "" {
		t.Errorf("Emit mismatch (-want +got):\n%s", diff)
	}
}

func TestEmit_Invalid(t *testing.T) {
	tests := []Func{
		{Args: []mltype.Type{mltype.Int}, Ret: mltype.Int},
		{Name: "nullary", Ret: mltype.Int},
	}
	for _, f := range tests {
		if err := Emit(&bytes.Buffer{}, []Func{f}); err == nil {
			t.Errorf("Emit(%+v) succeeded", f)
		}
	}
}

func TestWIT(t *testing.T) {
	tests := []struct {
		typ  mltype.Type
		want string
		ok   bool
	}{
		{mltype.Int, "s64", true},
		{mltype.Int64, "s64", true},
		{mltype.Char, "u8", true},
		{mltype.Bool, "bool", true},
		{mltype.Float, "f64", true},
		{mltype.String, "string", true},
		{mltype.Bytes, "list<u8>", true},
		{mltype.Bigstring, "list<u8>", true},
		{mltype.Pair(mltype.String, mltype.Int), "tuple<string, s64>", true},
		{mltype.Option(mltype.List(mltype.Char)), "option<list<u8>>", true},
		{mltype.A, "", false},
		{mltype.List(mltype.B), "", false},
		{mltype.Unit, "", false},
		{mltype.Record("Test.foobar", mltype.Int), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.typ.Name(), func(t *testing.T) {
			wt, ok := WIT(tt.typ)
			if ok != tt.ok {
				t.Fatalf("WIT(%s) ok = %v, want %v", tt.typ, ok, tt.ok)
			}
			if ok {
				if got := TypeName(wt); got != tt.want {
					t.Errorf("TypeName = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestEmitWIT(t *testing.T) {
	var buf bytes.Buffer
	if err := EmitWIT(&buf, "ExampleModule", sample); err != nil {
		t.Fatalf("EmitWIT: %v", err)
	}
	want := strings.Join([]string{
		"interface example-module {",
		"  strtail: func(arg0: string) -> option<string>;",
		"  // mkpair: 'a -> 'b -> ('a * 'b)",
		"  inc64: func(arg0: s64) -> s64;",
		"  // print-module: unit -> unit",
		"}",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("EmitWIT mismatch (-want +got):\n%s", diff)
	}
}

func TestKebabName(t *testing.T) {
	tests := map[string]string{
		"print_int":     "print-int",
		"printInt64":    "print-int64",
		"ExampleModule": "example-module",
		"inc":           "inc",
		"__x__":         "x",
		"HTTPServer":    "httpserver",
	}
	for in, want := range tests {
		if got := KebabName(in); got != want {
			t.Errorf("KebabName(%q) = %q, want %q", in, got, want)
		}
	}
}
