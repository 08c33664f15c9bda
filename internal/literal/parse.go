// Package literal reads and prints host values in a small textual syntax:
//
//	42  -7  3.5  12L  'c'  true  ()  "text"
//	(a, b)  [a; b; c]  None  Some x  {field; field}
//
// Literals are parsed without a type, then built against the type the
// receiving function declares; type variables take the type the literal's
// syntax implies.
package literal

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/wippyai/mlbridge/errors"
)

type nodeKind uint8

const (
	nodeInt nodeKind = iota
	nodeInt64
	nodeFloat
	nodeChar
	nodeString
	nodeBool
	nodeUnit
	nodeTuple
	nodeList
	nodeNone
	nodeSome
	nodeRecord
)

var nodeNames = [...]string{
	nodeInt:    "int",
	nodeInt64:  "int64",
	nodeFloat:  "float",
	nodeChar:   "char",
	nodeString: "string",
	nodeBool:   "bool",
	nodeUnit:   "unit",
	nodeTuple:  "tuple",
	nodeList:   "list",
	nodeNone:   "None",
	nodeSome:   "Some",
	nodeRecord: "record",
}

func (k nodeKind) String() string {
	return nodeNames[k]
}

// node is a parsed literal.
type node struct {
	str     string
	elems   []node
	num     int64
	float   float64
	kind    nodeKind
	boolean bool
}

type parser struct {
	s   scanner.Scanner
	tok rune
	err error
}

// parse reads one literal.
func parse(src string) (node, error) {
	p := &parser{}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanChars | scanner.ScanStrings
	p.s.Error = func(_ *scanner.Scanner, msg string) {
		if p.err == nil {
			p.err = p.errorf("%s", msg)
		}
	}
	p.next()
	n := p.value()
	if p.err == nil && p.tok != scanner.EOF {
		p.err = p.errorf("unexpected %s after literal", p.s.TokenText())
	}
	if p.err != nil {
		return node{}, p.err
	}
	return n, nil
}

// ParseList splits a ';'-separated argument string into literals.
func ParseList(src string) ([]string, error) {
	var out []string
	depth := 0
	start := 0
	inStr, inChar := false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inStr || inChar:
			if c == '\\' {
				i++
			} else if (inStr && c == '"') || (inChar && c == '\'') {
				inStr, inChar = false, false
			}
		case c == '"':
			inStr = true
		case c == '\'':
			inChar = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth < 0 {
				return nil, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("unbalanced %q at offset %d", c, i))
			}
		case c == ';' && depth == 0:
			out = append(out, strings.TrimSpace(src[start:i]))
			start = i + 1
		}
	}
	if depth != 0 || inStr || inChar {
		return nil, errors.InvalidInput(errors.PhaseEncode, "unterminated literal")
	}
	if last := strings.TrimSpace(src[start:]); last != "" || len(out) > 0 {
		out = append(out, last)
	}
	return out, nil
}

func (p *parser) next() {
	p.tok = p.s.Scan()
}

func (p *parser) errorf(format string, args ...any) error {
	return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
		Detail("literal at %s: %s", p.s.Position, fmt.Sprintf(format, args...)).
		Build()
}

func (p *parser) expect(tok rune) {
	if p.err != nil {
		return
	}
	if p.tok != tok {
		p.err = p.errorf("expected %s, got %s", scanner.TokenString(tok), p.describe())
		return
	}
	p.next()
}

func (p *parser) describe() string {
	if p.tok == scanner.EOF {
		return "end of input"
	}
	return strconv.Quote(p.s.TokenText())
}

func (p *parser) value() node {
	if p.err != nil {
		return node{}
	}
	switch p.tok {
	case '-':
		p.next()
		n := p.number()
		n.num = -n.num
		n.float = -n.float
		return n
	case scanner.Int, scanner.Float:
		return p.number()
	case scanner.Char:
		text := p.s.TokenText()
		p.next()
		if p.err != nil {
			return node{}
		}
		if len(text) < 3 {
			p.err = p.errorf("invalid char literal %s", text)
			return node{}
		}
		v, tail, err := unquoteChar(text)
		if err != nil || tail != "" || v > 0xff {
			p.err = p.errorf("invalid char literal %s", text)
			return node{}
		}
		return node{kind: nodeChar, num: int64(v)}
	case scanner.String:
		text := p.s.TokenText()
		p.next()
		if p.err != nil {
			return node{}
		}
		s, err := strconv.Unquote(text)
		if err != nil {
			p.err = p.errorf("invalid string literal %s", text)
			return node{}
		}
		return node{kind: nodeString, str: s}
	case scanner.Ident:
		return p.ident()
	case '(':
		p.next()
		if p.tok == ')' {
			p.next()
			return node{kind: nodeUnit}
		}
		elems := p.seq(',', ')')
		if len(elems) == 1 {
			return elems[0]
		}
		return node{kind: nodeTuple, elems: elems}
	case '[':
		p.next()
		if p.tok == ']' {
			p.next()
			return node{kind: nodeList}
		}
		return node{kind: nodeList, elems: p.seq(';', ']')}
	case '{':
		p.next()
		return node{kind: nodeRecord, elems: p.seq(';', '}')}
	default:
		p.err = p.errorf("unexpected %s", p.describe())
		return node{}
	}
}

func unquoteChar(text string) (rune, string, error) {
	v, _, tail, err := strconv.UnquoteChar(text[1:len(text)-1], '\'')
	return v, tail, err
}

func (p *parser) ident() node {
	word := p.s.TokenText()
	p.next()
	switch word {
	case "true", "false":
		return node{kind: nodeBool, boolean: word == "true"}
	case "None":
		return node{kind: nodeNone}
	case "Some":
		x := p.value()
		return node{kind: nodeSome, elems: []node{x}}
	default:
		p.err = p.errorf("unknown identifier %q", word)
		return node{}
	}
}

func (p *parser) number() node {
	text := p.s.TokenText()
	switch p.tok {
	case scanner.Float:
		p.next()
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			p.err = p.errorf("invalid float %s", text)
		}
		return node{kind: nodeFloat, float: f}
	case scanner.Int:
		kind := nodeInt
		if p.s.Peek() == 'L' {
			p.s.Next()
			kind = nodeInt64
		}
		p.next()
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			p.err = p.errorf("invalid integer %s", text)
		}
		return node{kind: kind, num: n}
	default:
		p.err = p.errorf("expected a number, got %s", p.describe())
		return node{}
	}
}

func (p *parser) seq(sep, end rune) []node {
	var elems []node
	for p.err == nil {
		elems = append(elems, p.value())
		if p.tok == sep {
			p.next()
			continue
		}
		p.expect(end)
		break
	}
	return elems
}
