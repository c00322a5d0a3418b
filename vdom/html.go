package vdom

import (
	"bytes"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render writes n as HTML. Text is escaped and void elements are written
// without an end tag.
func Render(w io.Writer, n *Node) error {
	return html.Render(w, toHTML(n))
}

// HTML returns the markup of n's children, which is what a view mounted
// into n renders.
func HTML(n *Node) (string, error) {
	var buf bytes.Buffer
	for _, c := range n.Children {
		if err := Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func toHTML(n *Node) *html.Node {
	var out *html.Node
	switch n.Kind {
	case TextNode:
		return &html.Node{Type: html.TextNode, Data: n.Data}
	case CommentNode:
		return &html.Node{Type: html.CommentNode, Data: n.Data}
	default:
		out = &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
		for _, a := range n.Attrs {
			out.Attr = append(out.Attr, html.Attribute{Key: a.Name, Val: a.Value})
		}
	}
	for _, c := range n.Children {
		out.AppendChild(toHTML(c))
	}
	return out
}
