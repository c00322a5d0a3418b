package compiler

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

type markupKind int

const (
	mkText markupKind = iota
	mkStartTag
	mkEndTag
	mkSelfClosingTag
)

// markupAttr is one attribute of a tag with its value still masked.
type markupAttr struct {
	Name     string // original case
	Val      string // entity-decoded, masked
	NameSpan Span
	Span     Span // name through end of value
}

// markupToken is a token of the template markup, with spans in original
// source offsets.
type markupToken struct {
	Kind  markupKind
	Name  string // tag name in original case
	Attrs []*markupAttr
	Text  string // entity-decoded, masked; text tokens only
	Span  Span
}

// voidElements never have content or an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// lexMarkup tokenizes the masked template. The html tokenizer lowercases tag
// and attribute names, so the original spelling is taken from the raw bytes.
func lexMarkup(src *Source, m *maskedSource) ([]*markupToken, *Diagnostic) {
	z := html.NewTokenizer(strings.NewReader(m.text))
	var toks []*markupToken
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return toks, nil
			}
			return nil, newDiagnostic(ErrSyntax, src, Span{m.origin(offset), len(src.Text)}, "malformed markup: %v", z.Err())
		}
		raw := string(z.Raw())
		start := offset
		offset += len(raw)
		span := m.originSpan(Span{start, offset})
		tok := z.Token()

		switch tt {
		case html.CommentToken:
			continue
		case html.DoctypeToken:
			return nil, newDiagnostic(ErrSyntax, src, span, "<!DOCTYPE> is not allowed in templates")
		case html.TextToken:
			toks = append(toks, &markupToken{Kind: mkText, Text: tok.Data, Span: span})
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, rawAttrs := scanRawTag(raw)
			if len(rawAttrs) != len(tok.Attr) {
				return nil, newDiagnostic(ErrSyntax, src, span, "malformed attributes in <%s>", name)
			}
			mt := &markupToken{Name: name, Span: span}
			switch tt {
			case html.StartTagToken:
				mt.Kind = mkStartTag
			case html.SelfClosingTagToken:
				mt.Kind = mkSelfClosingTag
			default:
				mt.Kind = mkEndTag
			}
			for i, ra := range rawAttrs {
				mt.Attrs = append(mt.Attrs, &markupAttr{
					Name:     ra.name,
					Val:      tok.Attr[i].Val,
					NameSpan: m.originSpan(Span{start + ra.start, start + ra.start + len(ra.name)}),
					Span:     m.originSpan(Span{start + ra.start, start + ra.end}),
				})
			}
			toks = append(toks, mt)
		}
	}
}

type rawAttrPos struct {
	name       string
	start, end int
}

func isMarkupSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// scanRawTag splits a raw tag such as `<Counter count="x" disabled/>` into
// its name and attribute positions, following the tokenizer's rules.
func scanRawTag(raw string) (string, []rawAttrPos) {
	i := 1
	if i < len(raw) && raw[i] == '/' {
		i++
	}
	start := i
	for i < len(raw) && !isMarkupSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}
	name := raw[start:i]

	var attrs []rawAttrPos
	for i < len(raw) {
		for i < len(raw) && (isMarkupSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}
		a := rawAttrPos{start: i}
		i++ // a leading '=' belongs to the name
		for i < len(raw) && !isMarkupSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' && raw[i] != '=' {
			i++
		}
		a.name = raw[a.start:i]
		j := i
		for j < len(raw) && isMarkupSpace(raw[j]) {
			j++
		}
		if j < len(raw) && raw[j] == '=' {
			i = j + 1
			for i < len(raw) && isMarkupSpace(raw[i]) {
				i++
			}
			if i < len(raw) && (raw[i] == '"' || raw[i] == '\'') {
				q := raw[i]
				i++
				for i < len(raw) && raw[i] != q {
					i++
				}
				if i < len(raw) {
					i++
				}
			} else {
				for i < len(raw) && !isMarkupSpace(raw[i]) && raw[i] != '>' {
					i++
				}
			}
		}
		a.end = i
		attrs = append(attrs, a)
	}
	return name, attrs
}
