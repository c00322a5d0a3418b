package compiler

import (
	"errors"
	"strings"
	"testing"
)

func parseOne(t *testing.T, src string) *View {
	t.Helper()
	f, err := Parse("test.vg", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Views) != 1 {
		t.Fatalf("Expected 1 view, got %d", len(f.Views))
	}
	return f.Views[0]
}

func TestParse_ElementWithAttributesAndText(t *testing.T) {
	// Arrange
	src := `<view name="Greeting">
    <p class="greeting" title={tooltip} data-id="id-{id}">Hello, {name}!</p>
</view>`

	// Act
	v := parseOne(t, src)

	// Assert
	p, ok := v.Body.(*Element)
	if !ok || p.Tag != "p" {
		t.Fatalf("Expected <p> root, got %#v", v.Body)
	}
	wantKinds := []AttrKind{AttrLiteral, AttrExpr, AttrTemplate}
	if len(p.Attrs) != len(wantKinds) {
		t.Fatalf("Expected %d attributes, got %d", len(wantKinds), len(p.Attrs))
	}
	for i, k := range wantKinds {
		if p.Attrs[i].Kind != k {
			t.Errorf("Attribute %s: expected kind %d, got %d", p.Attrs[i].Name, k, p.Attrs[i].Kind)
		}
	}
	if p.Attrs[0].Literal != "greeting" {
		t.Errorf("Expected class literal 'greeting', got %q", p.Attrs[0].Literal)
	}
	text, ok := p.Children[0].(*Text)
	if !ok {
		t.Fatalf("Expected a text child, got %T", p.Children[0])
	}
	if len(text.Parts) != 3 || text.Parts[0].Lit != "Hello, " || text.Parts[2].Lit != "!" {
		t.Errorf("Unexpected text parts: %#v", text.Parts)
	}
	if v, ok := text.Parts[1].Expr.(*Var); !ok || v.Key() != "name" {
		t.Errorf("Expected interpolation of name, got %#v", text.Parts[1].Expr)
	}
}

func TestParse_SpecialForms(t *testing.T) {
	// Arrange
	src := `<require src="parts.vg"/>
<view name="Page">
    <div>
        <if condition={loggedIn}>
            <then><span>in</span></then>
            <else><span>out</span></else>
        </if>
        <for seq={items} as="item"><li>{item.name}</li></for>
        <switch on={shape}>
            <case name="circle"><b>{circle.radius | numberToString}</b></case>
            <case name="square" as="sq"><i>{sq.side | numberToString}</i></case>
        </switch>
        <Badge label={title}/>
        <use view={content} text={title}/>
        <mount use={chart}/>
    </div>
</view>`

	// Act
	f, err := Parse("page.vg", src)

	// Assert
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Requires) != 1 || f.Requires[0].Src != "parts.vg" {
		t.Fatalf("Expected one require of parts.vg, got %#v", f.Requires)
	}
	div := f.Views[0].Body.(*Element)
	if len(div.Children) != 6 {
		t.Fatalf("Expected 6 children, got %d", len(div.Children))
	}
	ifn := div.Children[0].(*If)
	if ifn.Then == nil || ifn.Else == nil {
		t.Errorf("Expected both branches")
	}
	forn := div.Children[1].(*For)
	if forn.As != "item" || forn.Seq.String() != "items" {
		t.Errorf("Unexpected loop %s as %s", forn.Seq, forn.As)
	}
	sw := div.Children[2].(*Switch)
	if len(sw.Cases) != 2 || sw.Cases[0].Binding != "circle" || sw.Cases[1].Binding != "sq" {
		t.Errorf("Unexpected cases: %#v", sw.Cases)
	}
	if comp := div.Children[3].(*ComponentUse); comp.View != "Badge" || comp.Args[0].Name != "label" {
		t.Errorf("Unexpected component use: %#v", comp)
	}
	if use := div.Children[4].(*DynamicUse); use.ViewExpr.String() != "content" || len(use.Args) != 1 {
		t.Errorf("Unexpected dynamic use: %#v", use)
	}
	if m := div.Children[5].(*Mount); m.Expr.String() != "chart" {
		t.Errorf("Unexpected mount: %#v", m)
	}
}

func TestParse_MultilineTextTrimsLineBreaksOnly(t *testing.T) {
	// Arrange
	src := "<view name=\"Multi\"><div><h1>\n        Multi-line: {title}\n    </h1><p>  single  </p></div></view>"

	// Act
	v := parseOne(t, src)

	// Assert
	div := v.Body.(*Element)
	h1 := div.Children[0].(*Element).Children[0].(*Text)
	if h1.Parts[0].Lit != "Multi-line: " {
		t.Errorf("Expected leading line break dropped, got %q", h1.Parts[0].Lit)
	}
	p := div.Children[1].(*Element).Children[0].(*Text)
	if p.Parts[0].Lit != "  single  " {
		t.Errorf("Expected inline spaces kept, got %q", p.Parts[0].Lit)
	}
}

func TestParse_CommentsAndBlankTextAreIgnored(t *testing.T) {
	// Arrange
	src := `<!-- header -->
<view name="Plain">
    <!-- body -->
    <ul>
        <li>one</li>
    </ul>
</view>`

	// Act
	v := parseOne(t, src)

	// Assert
	ul := v.Body.(*Element)
	if len(ul.Children) != 1 {
		t.Fatalf("Expected 1 child, got %d", len(ul.Children))
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unclosed tag", `<view name="A"><div><span></div></view>`, "mismatched closing tag </div>"},
		{"unclosed view", `<view name="A"><div></div>`, "<view> is never closed"},
		{"for without as", `<view name="A"><ul><for seq={xs}><li/></for></ul></view>`, `<for> requires a "as" attribute`},
		{"if without condition", `<view name="A"><if><then><b/></then></if></view>`, `<if> requires a "condition" attribute`},
		{"if without branches", `<view name="A"><if condition={x}></if></view>`, "<if> needs a <then> or an <else>"},
		{"duplicate case", `<view name="A"><switch on={s}><case name="a"><b/></case><case name="a"><i/></case></switch></view>`, `duplicate <case name="a">`},
		{"empty switch", `<view name="A"><switch on={s}></switch></view>`, "<switch> needs at least one <case>"},
		{"two roots", `<view name="A"><b/><i/></view>`, "exactly one root node, found 2"},
		{"loop as root", `<view name="A"><for seq={xs} as="x"><b/></for></view>`, "<for> cannot be the root of <view>"},
		{"lowercase view", `<view name="card"><b/></view>`, "view names must start with a capital letter"},
		{"raw text view name", `<view name="Title"><b/></view>`, `conflicts with the HTML element <title>`},
		{"literal seq", `<view name="A"><ul><for seq="xs" as="x"><li/></for></ul></view>`, "<for seq> must be a {binding}"},
		{"text at top level", `hello <view name="A"><b/></view>`, "text is not allowed outside <view>"},
		{"bad expression", `<view name="A"><p>{a.}</p></view>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Act
			_, err := Parse("bad.vg", tt.src)

			// Assert
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("Expected a syntax error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestParse_BrokenViewDoesNotHideOthers(t *testing.T) {
	tests := []struct {
		name string
		bad  string
		want string
	}{
		{"mismatched tag", `<view name="Bad"><b></i></view>`, "mismatched closing tag"},
		{"unterminated text binding", `<view name="Bad"><p>{count</p></view>`, "unterminated '{' binding"},
		{"unterminated attribute binding", `<view name="Bad"><a href={url>x</a></view>`, "unterminated '{' binding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			src := `<view name="Good"><b>{ok}</b></view>
` + tt.bad + `
<view name="AlsoGood"><i class={tone}>ok</i></view>`

			// Act
			f, err := Parse("mixed.vg", src)

			// Assert
			var ds Diagnostics
			if !errors.As(err, &ds) || len(ds) != 1 {
				t.Fatalf("Expected one diagnostic, got %v", err)
			}
			if !strings.Contains(ds[0].Message, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, ds[0].Message)
			}
			if len(f.Views) != 2 || f.Views[0].Name != "Good" || f.Views[1].Name != "AlsoGood" {
				t.Errorf("Expected the two clean views to survive, got %d", len(f.Views))
			}
		})
	}
}

func TestParse_UnterminatedBindingAtEndOfFile(t *testing.T) {
	f, err := Parse("tail.vg", `<view name="Good"><b/></view><view name="Bad"><p>{x`)

	if !errors.Is(err, ErrSyntax) || len(f.Views) != 0 {
		t.Errorf("Expected the file to fail as a whole, got %d views and %v", len(f.Views), err)
	}
}

func TestParse_DiagnosticPosition(t *testing.T) {
	// Arrange
	src := "<view name=\"A\">\n  <div>\n    <span></div>\n</view>"

	// Act
	_, err := Parse("pos.vg", src)

	// Assert
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !strings.HasPrefix(err.Error(), "pos.vg:3:") {
		t.Errorf("Expected position on line 3, got %q", err.Error())
	}
	var ds Diagnostics
	errors.As(err, &ds)
	if out := ds.Render(); !strings.Contains(out, "> ") || !strings.Contains(out, "^") {
		t.Errorf("Expected a context block with a marker and caret, got:\n%s", out)
	}
}
