package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a binding expression: *Var, *Call, *Pipe, *StringTemplate,
// *NumberLit or *BoolLit.
type Expr interface {
	Span() Span
	String() string
}

// Var is an identifier or dotted path.
type Var struct {
	Path []string
	span Span
}

// Call is f(a, b). Fn may be a dotted path.
type Call struct {
	Fn   *Var
	Args []Expr
	span Span
}

// Pipe is `LHS | Fn(Args...)`, equivalent to Fn(LHS, Args...).
type Pipe struct {
	LHS  Expr
	Fn   *Var
	Args []Expr
	span Span
}

// TemplatePart is a literal run or an interpolation inside a string template.
type TemplatePart struct {
	Lit  string
	Expr Expr
}

// StringTemplate is "text {expr} text".
type StringTemplate struct {
	Parts []TemplatePart
	span  Span
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
	Raw   string
	span  Span
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
	span  Span
}

func (e *Var) Span() Span            { return e.span }
func (e *Call) Span() Span           { return e.span }
func (e *Pipe) Span() Span           { return e.span }
func (e *StringTemplate) Span() Span { return e.span }
func (e *NumberLit) Span() Span      { return e.span }
func (e *BoolLit) Span() Span        { return e.span }

// Key returns the dotted path.
func (e *Var) Key() string { return strings.Join(e.Path, ".") }

func (e *Var) String() string { return e.Key() }

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Fn.String() + "(" + strings.Join(args, ", ") + ")"
}

func (e *Pipe) String() string {
	s := e.LHS.String() + " | " + e.Fn.String()
	if len(e.Args) > 0 {
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = a.String()
		}
		s += "(" + strings.Join(args, ", ") + ")"
	}
	return s
}

func (e *StringTemplate) String() string {
	var b strings.Builder
	b.WriteByte('"')
	for _, p := range e.Parts {
		if p.Expr != nil {
			b.WriteString("{" + p.Expr.String() + "}")
			continue
		}
		b.WriteString(strings.NewReplacer(`"`, `\"`, `{`, `\{`, `}`, `\}`).Replace(p.Lit))
	}
	b.WriteByte('"')
	return b.String()
}

func (e *NumberLit) String() string { return e.Raw }

func (e *BoolLit) String() string { return strconv.FormatBool(e.Value) }

// Desugar rewrites the pipe into the call it stands for.
func (e *Pipe) Desugar() *Call {
	args := make([]Expr, 0, len(e.Args)+1)
	args = append(args, e.LHS)
	args = append(args, e.Args...)
	return &Call{Fn: e.Fn, Args: args, span: e.span}
}

// Literal returns the constant value of a template without interpolations.
func (e *StringTemplate) Literal() (string, bool) {
	var b strings.Builder
	for _, p := range e.Parts {
		if p.Expr != nil {
			return "", false
		}
		b.WriteString(p.Lit)
	}
	return b.String(), true
}

// --- expression lexer ---

// tokenKind is the kind of an expression token.
type tokenKind string

const (
	tkIdent  tokenKind = "identifier"
	tkNumber tokenKind = "number"
	tkString tokenKind = "string"
	tkDot    tokenKind = "'.'"
	tkComma  tokenKind = "','"
	tkLParen tokenKind = "'('"
	tkRParen tokenKind = "')'"
	tkPipe   tokenKind = "'|'"
	tkEOF    tokenKind = "end of expression"
)

type exprToken struct {
	Kind  tokenKind
	Text  string
	Start int // offset within the expression source
	End   int
}

// exprError is a syntax error relative to the expression source.
type exprError struct {
	Span Span
	Msg  string
}

func (e *exprError) Error() string { return e.Msg }

func lexExpr(src string) ([]exprToken, error) {
	var toks []exprToken
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '.':
			toks = append(toks, exprToken{tkDot, ".", i, i + 1})
			i++
		case c == ',':
			toks = append(toks, exprToken{tkComma, ",", i, i + 1})
			i++
		case c == '(':
			toks = append(toks, exprToken{tkLParen, "(", i, i + 1})
			i++
		case c == ')':
			toks = append(toks, exprToken{tkRParen, ")", i, i + 1})
			i++
		case c == '|':
			toks = append(toks, exprToken{tkPipe, "|", i, i + 1})
			i++
		case c == '"':
			end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, exprToken{tkString, src[i:end], i, end})
			i = end
		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1])):
			j := i + 1
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			if j+1 < len(src) && src[j] == '.' && isDigit(src[j+1]) {
				j += 2
				for j < len(src) && isDigit(src[j]) {
					j++
				}
			}
			toks = append(toks, exprToken{tkNumber, src[i:j], i, j})
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && (isIdentStart(src[j]) || isDigit(src[j])) {
				j++
			}
			toks = append(toks, exprToken{tkIdent, src[i:j], i, j})
			i = j
		default:
			return nil, &exprError{Span{i, i + 1}, fmt.Sprintf("unexpected character %q in expression", c)}
		}
	}
	toks = append(toks, exprToken{tkEOF, "", len(src), len(src)})
	return toks, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// scanString returns the offset just past the string literal starting at
// src[start] == '"'. Interpolations may nest further strings.
func scanString(src string, start int) (int, error) {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1, nil
		case '{':
			end, err := scanBraces(src, i)
			if err != nil {
				return 0, err
			}
			i = end
		default:
			i++
		}
	}
	return 0, &exprError{Span{start, len(src)}, "unterminated string literal"}
}

// scanBraces returns the offset just past the '}' matching src[start] == '{'.
func scanBraces(src string, start int) (int, error) {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '"':
			end, err := scanString(src, i)
			if err != nil {
				return 0, err
			}
			i = end
		case '{':
			end, err := scanBraces(src, i)
			if err != nil {
				return 0, err
			}
			i = end
		case '}':
			return i + 1, nil
		default:
			i++
		}
	}
	return 0, &exprError{Span{start, len(src)}, "unterminated '{' binding"}
}

// --- expression parser ---

type exprParser struct {
	src  string
	base int // offset of src within the template file
	toks []exprToken
	pos  int
}

// ParseExpr parses the contents of a {...} binding. base is the file offset
// of src[0] and is used for spans.
func ParseExpr(src string, base int) (Expr, error) {
	toks, err := lexExpr(src)
	if err != nil {
		return nil, shiftExprError(err, base)
	}
	p := &exprParser{src: src, base: base, toks: toks}
	e, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Kind != tkEOF {
		return nil, &exprError{p.span(t), fmt.Sprintf("unexpected %s %q after expression", t.Kind, t.Text)}
	}
	return e, nil
}

// shiftExprError moves a span relative to an expression source into file offsets.
func shiftExprError(err error, base int) error {
	if ee, ok := err.(*exprError); ok {
		ee.Span.Start += base
		ee.Span.End += base
	}
	return err
}

func (p *exprParser) peek() exprToken { return p.toks[p.pos] }

func (p *exprParser) next() exprToken {
	t := p.toks[p.pos]
	if t.Kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) expect(kind tokenKind) (exprToken, error) {
	t := p.next()
	if t.Kind != kind {
		what := string(t.Kind)
		if t.Text != "" {
			what += " " + strconv.Quote(t.Text)
		}
		return t, &exprError{p.span(t), fmt.Sprintf("expected %s, found %s", kind, what)}
	}
	return t, nil
}

func (p *exprParser) span(t exprToken) Span {
	return Span{p.base + t.Start, p.base + t.End}
}

func (p *exprParser) parsePipe() (Expr, error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == tkPipe {
		p.next()
		fn, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		var args []Expr
		end := fn.span
		if p.peek().Kind == tkLParen {
			args, end, err = p.parseArgs()
			if err != nil {
				return nil, err
			}
		}
		lhs = &Pipe{LHS: lhs, Fn: fn, Args: args, span: lhs.Span().union(end)}
	}
	return lhs, nil
}

func (p *exprParser) parseOperand() (Expr, error) {
	t := p.peek()
	switch t.Kind {
	case tkNumber:
		p.next()
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, &exprError{p.span(t), fmt.Sprintf("invalid number %q", t.Text)}
		}
		return &NumberLit{Value: v, Raw: t.Text, span: p.span(t)}, nil
	case tkString:
		p.next()
		return parseStringTemplate(t.Text[1:len(t.Text)-1], p.base+t.Start+1, p.span(t))
	case tkLParen:
		p.next()
		e, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tkRParen); err != nil {
			return nil, err
		}
		return e, nil
	case tkIdent:
		if t.Text == "true" || t.Text == "false" {
			p.next()
			return &BoolLit{Value: t.Text == "true", span: p.span(t)}, nil
		}
		v, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		if p.peek().Kind != tkLParen {
			return v, nil
		}
		args, end, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &Call{Fn: v, Args: args, span: v.span.union(end)}, nil
	}
	if t.Kind == tkEOF {
		return nil, &exprError{p.span(t), "expected an expression"}
	}
	return nil, &exprError{p.span(t), fmt.Sprintf("unexpected %s %q", t.Kind, t.Text)}
}

func (p *exprParser) parsePath() (*Var, error) {
	first, err := p.expect(tkIdent)
	if err != nil {
		return nil, err
	}
	v := &Var{Path: []string{first.Text}, span: p.span(first)}
	for p.peek().Kind == tkDot {
		p.next()
		field, err := p.expect(tkIdent)
		if err != nil {
			return nil, err
		}
		v.Path = append(v.Path, field.Text)
		v.span = v.span.union(p.span(field))
	}
	return v, nil
}

func (p *exprParser) parseArgs() ([]Expr, Span, error) {
	if _, err := p.expect(tkLParen); err != nil {
		return nil, Span{}, err
	}
	var args []Expr
	if p.peek().Kind != tkRParen {
		for {
			a, err := p.parsePipe()
			if err != nil {
				return nil, Span{}, err
			}
			args = append(args, a)
			if p.peek().Kind != tkComma {
				break
			}
			p.next()
		}
	}
	closing, err := p.expect(tkRParen)
	if err != nil {
		return nil, Span{}, err
	}
	return args, p.span(closing), nil
}

// parseStringTemplate parses the body of a quoted string (without quotes);
// base is the file offset of body[0].
func parseStringTemplate(body string, base int, span Span) (*StringTemplate, error) {
	st := &StringTemplate{span: span}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			st.Parts = append(st.Parts, TemplatePart{Lit: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '\\':
			if i+1 >= len(body) {
				return nil, &exprError{Span{base + i, base + i + 1}, "dangling escape in string"}
			}
			i++
			switch body[i] {
			case 'n':
				lit.WriteByte('\n')
			case 't':
				lit.WriteByte('\t')
			default:
				lit.WriteByte(body[i])
			}
		case '{':
			end, err := scanBraces(body, i)
			if err != nil {
				return nil, shiftExprError(err, base)
			}
			inner, err := ParseExpr(body[i+1:end-1], base+i+1)
			if err != nil {
				return nil, err
			}
			flush()
			st.Parts = append(st.Parts, TemplatePart{Expr: inner})
			i = end - 1
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return st, nil
}
