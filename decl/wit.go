package decl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/mlbridge/errors"
	"github.com/wippyai/mlbridge/mltype"
)

// WIT maps a descriptor to a WIT type. ok is false for descriptors with no
// WIT value type: unit, type variables and records.
func WIT(t mltype.Type) (wit.Type, bool) {
	switch t.Kind() {
	case mltype.KindInt, mltype.KindInt64:
		return wit.S64{}, true
	case mltype.KindChar:
		return wit.U8{}, true
	case mltype.KindBool:
		return wit.Bool{}, true
	case mltype.KindFloat:
		return wit.F64{}, true
	case mltype.KindString:
		return wit.String{}, true
	case mltype.KindBytes, mltype.KindBigstring:
		return &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}, true
	case mltype.KindPair:
		fst, ok1 := WIT(t.Elem(0))
		snd, ok2 := WIT(t.Elem(1))
		if !ok1 || !ok2 {
			return nil, false
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{fst, snd}}}, true
	case mltype.KindList:
		elem, ok := WIT(t.Elem(0))
		if !ok {
			return nil, false
		}
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, true
	case mltype.KindOption:
		elem, ok := WIT(t.Elem(0))
		if !ok {
			return nil, false
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: elem}}, true
	default:
		return nil, false
	}
}

// TypeName renders a WIT type reference.
func TypeName(t wit.Type) string {
	switch t := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S64:
		return "s64"
	case wit.F64:
		return "f64"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		switch k := t.Kind.(type) {
		case *wit.List:
			return "list<" + TypeName(k.Type) + ">"
		case *wit.Option:
			return "option<" + TypeName(k.Type) + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, e := range k.Types {
				parts[i] = TypeName(e)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		}
	}
	return fmt.Sprintf("%T", t)
}

// FuncWIT renders f as a WIT function item. ok is false when a parameter
// or the result has no WIT value type; a unit result is omitted.
func FuncWIT(f Func) (string, bool) {
	params := make([]string, 0, len(f.Args))
	for i, a := range f.Args {
		wt, ok := WIT(a)
		if !ok {
			return "", false
		}
		params = append(params, fmt.Sprintf("arg%d: %s", i, TypeName(wt)))
	}
	line := KebabName(f.Name) + ": func(" + strings.Join(params, ", ") + ")"
	if f.Ret.Kind() == mltype.KindUnit {
		return line + ";", true
	}
	ret, ok := WIT(f.Ret)
	if !ok {
		return "", false
	}
	return line + " -> " + TypeName(ret) + ";", true
}

// EmitWIT writes funcs as the WIT interface name.
func EmitWIT(w io.Writer, name string, funcs []Func) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "interface %s {\n", KebabName(name))
	for _, f := range funcs {
		if err := validate(f); err != nil {
			return err
		}
		if item, ok := FuncWIT(f); ok {
			fmt.Fprintf(bw, "  %s\n", item)
		} else {
			fmt.Fprintf(bw, "  // %s: %s\n", KebabName(f.Name), f.Signature())
		}
	}
	bw.WriteString("}\n")
	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.PhaseDeclare, errors.KindInvalidData, err, "write WIT interface")
	}
	return nil
}

// KebabName converts snake_case or camelCase to a WIT identifier.
func KebabName(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		case unicode.IsUpper(r):
			if i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "-") && !unicode.IsUpper(runes[i-1]) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
