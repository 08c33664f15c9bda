package literal

import (
	"strconv"
	"strings"

	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/mltype"
)

// Format renders v in literal syntax. It reads v without allocating.
// Values whose type is still a variable print as <abstract>.
func Format(v bridge.Value) string {
	var b strings.Builder
	format(&b, v)
	return b.String()
}

func format(b *strings.Builder, v bridge.Value) {
	t := v.Type()
	switch t.Kind() {
	case mltype.KindInt:
		b.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case mltype.KindInt64:
		b.WriteString(strconv.FormatInt(v.AsInt64(), 10))
		b.WriteByte('L')
	case mltype.KindFloat:
		b.WriteString(formatFloat(v.AsFloat()))
	case mltype.KindChar:
		b.WriteString(strconv.QuoteRuneToASCII(rune(v.AsChar())))
	case mltype.KindBool:
		b.WriteString(strconv.FormatBool(v.AsBool()))
	case mltype.KindUnit:
		b.WriteString("()")
	case mltype.KindString, mltype.KindBytes:
		b.WriteString(strconv.Quote(string(v.AsBytes())))
	case mltype.KindBigstring:
		b.WriteString(strconv.Quote(string(v.AsSlice())))
	case mltype.KindPair:
		b.WriteByte('(')
		format(b, v.Fst())
		b.WriteString(", ")
		format(b, v.Snd())
		b.WriteByte(')')
	case mltype.KindList:
		b.WriteByte('[')
		for i := 0; ; i++ {
			hd, tl, ok := v.AsList()
			if !ok {
				break
			}
			if i > 0 {
				b.WriteString("; ")
			}
			format(b, hd)
			v = tl
		}
		b.WriteByte(']')
	case mltype.KindOption:
		x, ok := v.AsOption()
		if !ok {
			b.WriteString("None")
			return
		}
		inner := Format(x)
		if strings.HasPrefix(inner, "Some ") || strings.HasPrefix(inner, "-") {
			inner = "(" + inner + ")"
		}
		b.WriteString("Some ")
		b.WriteString(inner)
	case mltype.KindRecord:
		b.WriteByte('{')
		for i := 0; i < t.NumElems(); i++ {
			if i > 0 {
				b.WriteString("; ")
			}
			format(b, v.Field(i, t.Elem(i)))
		}
		b.WriteByte('}')
	default:
		b.WriteString("<abstract>")
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnI") {
		return s
	}
	return s + "."
}
