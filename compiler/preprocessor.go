package compiler

import (
	"sort"
	"strconv"
	"strings"
)

// Bindings are swapped for placeholders before tokenizing so the HTML
// tokenizer never sees expression syntax. A placeholder is
// maskOpen + index + maskClose; in unquoted attribute position it is quoted.
const (
	maskOpen  = '\uE000'
	maskClose = '\uE001'
)

// binding is one {...} region of the original source.
type binding struct {
	Src  string // text between the braces
	Span Span   // braces included
	Attr bool   // written as name={...}
}

type replacement struct {
	masked Span
	orig   Span
}

// maskedSource is the template text with every binding replaced by a placeholder.
type maskedSource struct {
	text         string
	bindings     []binding
	replacements []replacement
	// broken holds the original offsets of unterminated bindings. The text
	// from each one up to the next </view> is left out.
	broken []int
}

// brokenWithin reports whether an unterminated binding starts inside s.
func (m *maskedSource) brokenWithin(s Span) bool {
	for _, off := range m.broken {
		if off >= s.Start && off < s.End {
			return true
		}
	}
	return false
}

// origin maps an offset in the masked text back to the original source.
func (m *maskedSource) origin(offset int) int {
	i := sort.Search(len(m.replacements), func(i int) bool { return m.replacements[i].masked.End > offset })
	if i < len(m.replacements) && m.replacements[i].masked.Start <= offset {
		return m.replacements[i].orig.Start
	}
	if i == 0 {
		return offset
	}
	r := m.replacements[i-1]
	return offset - r.masked.End + r.orig.End
}

func (m *maskedSource) originSpan(s Span) Span {
	return Span{m.origin(s.Start), m.origin(s.End)}
}

// preprocessBindings scans a template and masks every binding. It tracks just
// enough markup state to tell text, tag interiors, quoted values and comments
// apart. An unterminated binding is reported and skipped up to the next
// </view>, so only its own view is lost; the masked source is nil when the
// file cannot be recovered at all.
func preprocessBindings(src *Source) (*maskedSource, Diagnostics) {
	text := src.Text
	if strings.ContainsRune(text, maskOpen) || strings.ContainsRune(text, maskClose) {
		i := strings.IndexAny(text, string([]rune{maskOpen, maskClose}))
		return nil, Diagnostics{newDiagnostic(ErrSyntax, src, Span{i, i + 3}, "template contains a reserved private-use character")}
	}
	var diags Diagnostics

	m := &maskedSource{}
	var out strings.Builder
	out.Grow(len(text))

	inTag := false
	var quote byte
	lastSignificant := byte(0) // last non-space byte inside the current tag

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case !inTag && strings.HasPrefix(text[i:], "<!--"):
			end := strings.Index(text[i+4:], "-->")
			if end < 0 {
				return nil, append(diags, newDiagnostic(ErrSyntax, src, Span{i, len(text)}, "unterminated comment"))
			}
			end += i + 7
			out.WriteString(text[i:end])
			i = end
		case !inTag && c == '<' && i+1 < len(text) && (isIdentStart(text[i+1]) || text[i+1] == '/'):
			inTag = true
			quote = 0
			lastSignificant = '<'
			out.WriteByte(c)
			i++
		case inTag && quote == 0 && (c == '"' || c == '\''):
			quote = c
			out.WriteByte(c)
			i++
		case inTag && quote != 0 && c == quote:
			quote = 0
			lastSignificant = c
			out.WriteByte(c)
			i++
		case inTag && quote == 0 && c == '>':
			inTag = false
			out.WriteByte(c)
			i++
		case c == '{':
			end, err := scanBraces(text, i)
			if err != nil {
				ee := shiftExprError(err, 0).(*exprError)
				diags = append(diags, newDiagnostic(ErrSyntax, src, ee.Span, "%s", ee.Msg))
				resume := strings.Index(text[i:], "</"+tagView+">")
				if resume < 0 {
					return nil, diags
				}
				m.broken = append(m.broken, i)
				m.replacements = append(m.replacements, replacement{
					masked: Span{out.Len(), out.Len()},
					orig:   Span{i, i + resume},
				})
				inTag, quote = false, 0
				i += resume
				continue
			}
			attr := inTag && quote == 0
			if attr && lastSignificant != '=' {
				return nil, append(diags, newDiagnostic(ErrSyntax, src, Span{i, end}, "a {binding} inside a tag must be an attribute value"))
			}
			idx := len(m.bindings)
			m.bindings = append(m.bindings, binding{Src: text[i+1 : end-1], Span: Span{i, end}, Attr: attr})
			placeholder := string(maskOpen) + strconv.Itoa(idx) + string(maskClose)
			if attr {
				placeholder = `"` + placeholder + `"`
			}
			start := out.Len()
			out.WriteString(placeholder)
			m.replacements = append(m.replacements, replacement{
				masked: Span{start, out.Len()},
				orig:   Span{i, end},
			})
			if attr {
				lastSignificant = '"'
			}
			i = end
		default:
			if inTag && quote == 0 && c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				lastSignificant = c
			}
			out.WriteByte(c)
			i++
		}
	}
	m.text = out.String()
	return m, diags
}

// maskedSegment is a literal run or a reference to a binding.
type maskedSegment struct {
	Lit     string
	Binding int // -1 for literals
}

// splitMasked splits tokenizer output into literal runs and binding references.
func splitMasked(s string) []maskedSegment {
	var segs []maskedSegment
	for {
		i := strings.IndexRune(s, maskOpen)
		if i < 0 {
			break
		}
		j := strings.IndexRune(s[i:], maskClose)
		if j < 0 {
			break
		}
		if i > 0 {
			segs = append(segs, maskedSegment{Lit: s[:i], Binding: -1})
		}
		n, err := strconv.Atoi(s[i+len(string(maskOpen)) : i+j])
		if err != nil {
			segs = append(segs, maskedSegment{Lit: s[i : i+j+len(string(maskClose))], Binding: -1})
		} else {
			segs = append(segs, maskedSegment{Binding: n})
		}
		s = s[i+j+len(string(maskClose)):]
	}
	if s != "" {
		segs = append(segs, maskedSegment{Lit: s, Binding: -1})
	}
	return segs
}
