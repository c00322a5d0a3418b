package interp_test

import (
	"context"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/vcrobe/vgc/compiler"
	"github.com/vcrobe/vgc/interp"
	"github.com/vcrobe/vgc/runtime"
	"github.com/vcrobe/vgc/vdom"
)

func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()
	fsys := fstest.MapFS{"main.vg": {Data: []byte(src)}}
	res, err := compiler.Compile(context.Background(), fsys, []string{"main.vg"}, compiler.Options{})
	if err != nil {
		t.Fatalf("Compile failed:\n%v", err)
	}
	return res.Program
}

// fixture is a view built into an in-memory document.
type fixture struct {
	doc  *vdom.Document
	root *vdom.Node
	st   *runtime.ViewState[interp.Record]
}

func build(t *testing.T, in *interp.Interpreter, view string, input interp.Record) *fixture {
	t.Helper()
	doc := vdom.NewDocument()
	runtime.SetDocument(doc)
	st, err := in.Build(view, input)
	if err != nil {
		t.Fatalf("Build(%s) failed: %v", view, err)
	}
	root := doc.Root()
	root.AppendChild(st.Root)
	doc.Reset(root)
	return &fixture{doc: doc, root: root, st: st}
}

func buildSource(t *testing.T, src, view string, input interp.Record) *fixture {
	t.Helper()
	return build(t, interp.New(compile(t, src)), view, input)
}

// update applies next with a clean mutation log.
func (f *fixture) update(next interp.Record) {
	f.doc.Reset(f.root)
	f.st.Update(next)
}

// mutated returns the attached nodes changed by the last update, in
// document order.
func (f *fixture) mutated() []*vdom.Node {
	var out []*vdom.Node
	f.root.Walk(func(n *vdom.Node) bool {
		if n.Mutations > 0 && n != f.root {
			out = append(out, n)
		}
		return true
	})
	return out
}

func with(r interp.Record, kv ...any) interp.Record {
	out := make(interp.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	for i := 0; i < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func describe(nodes []*vdom.Node) []string {
	var out []string
	for _, n := range nodes {
		switch n.Kind {
		case vdom.ElementNode:
			out = append(out, "<"+n.Tag+">")
		case vdom.TextNode:
			out = append(out, "text("+n.Parent.Tag+")")
		default:
			out = append(out, "comment")
		}
	}
	return out
}

func TestCounter_RoundTrip(t *testing.T) {
	// Arrange
	var calls []string
	h0 := func() { calls = append(calls, "h0") }
	h1 := func() { calls = append(calls, "h1") }
	f := buildSource(t, `<view name="Counter"><button onclick={clickHandler}>{count | numberToString}</button></view>`,
		"Counter", interp.Record{"count": 0.0, "clickHandler": h0})
	button := f.root.FindTag("button")
	text := button.Children[0]

	// Act: only the count changes.
	f.update(interp.Record{"count": 1.0, "clickHandler": h0})

	// Assert
	if len(f.doc.Log) != 1 || f.doc.Log[0].Node != text || f.doc.Log[0].Op != vdom.OpText {
		t.Fatalf("count update log = %+v, want one text change", f.doc.Log)
	}
	if text.Data != "1" {
		t.Errorf("text = %q, want 1", text.Data)
	}

	// Act: only the handler changes.
	f.update(interp.Record{"count": 1.0, "clickHandler": h1})

	// Assert
	if len(f.doc.Log) != 1 || f.doc.Log[0].Node != button || f.doc.Log[0].Op != vdom.OpHandler || f.doc.Log[0].Name != "click" {
		t.Fatalf("handler update log = %+v, want one click handler change", f.doc.Log)
	}
	button.Dispatch("click")
	if !slices.Equal(calls, []string{"h1"}) {
		t.Errorf("calls = %v, want [h1]", calls)
	}
}

func TestUpdate_MutatesOnlyDependentNodes(t *testing.T) {
	const src = `<view name="Card"><div class={theme}><h1>{title}</h1><p>{body}</p><a href="/u/{author}" title={title}>by {author}</a></div></view>`
	base := interp.Record{"theme": "dark", "title": "T", "body": "B", "author": "ann"}
	tests := []struct {
		field string
		want  []string
	}{
		{"theme", []string{"<div>"}},
		{"title", []string{"text(h1)", "<a>"}},
		{"body", []string{"text(p)"}},
		{"author", []string{"<a>", "text(a)"}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			// Arrange
			f := buildSource(t, src, "Card", base)

			// Act
			f.update(with(base, tt.field, "changed"))

			// Assert
			if got := describe(f.mutated()); !slices.Equal(got, tt.want) {
				t.Errorf("mutated = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdate_SkipsSameReferences(t *testing.T) {
	const src = `<view name="Widget"><div><button onclick={save}>Save</button><p>{lookup(labels, key, "none")}</p><mount use={chart}/></div></view>`
	saves := 0
	save := func() { saves++ }
	chart := func() runtime.Node { return runtime.Element("canvas") }
	labels := map[string]any{"title": "Report"}
	base := interp.Record{"save": save, "labels": labels, "key": "title", "chart": chart}
	tests := []struct {
		name string
		next interp.Record
		want []vdom.Op
	}{
		{"same references", with(base), nil},
		{"equal table", with(base, "labels", map[string]any{"title": "Report"}), []vdom.Op{vdom.OpText}},
		{"new handler", with(base, "save", func() { saves++ }), []vdom.Op{vdom.OpHandler}},
		{"new chart", with(base, "chart", func() runtime.Node { return runtime.Element("canvas") }), []vdom.Op{vdom.OpReplace}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := buildSource(t, src, "Widget", base)

			// Act
			f.update(tt.next)

			// Assert
			var ops []vdom.Op
			for _, m := range f.doc.Log {
				ops = append(ops, m.Op)
			}
			if !slices.Equal(ops, tt.want) {
				t.Errorf("ops = %v, want %v", ops, tt.want)
			}
			if got := f.root.TextContent(); got != "SaveReport" {
				t.Errorf("text = %q, want SaveReport", got)
			}
		})
	}
}

func TestFor_Reconciliation(t *testing.T) {
	const src = `<view name="List"><ul><for seq={items} as="item"><li>{item.name}</li></for></ul></view>`
	rec := func(name string) interp.Record { return interp.Record{"name": name} }
	a, b, c, d := rec("a"), rec("b"), rec("c"), rec("d")

	t.Run("append", func(t *testing.T) {
		// Arrange
		f := buildSource(t, src, "List", interp.Record{"items": []any{a, b, c}})
		ul := f.root.FindTag("ul")
		before := ul.Elements()

		// Act
		f.update(interp.Record{"items": []any{a, b, c, d}})

		// Assert
		after := ul.Elements()
		if len(after) != 4 || ul.TextContent() != "abcd" {
			t.Fatalf("items = %d %q, want 4 abcd", len(after), ul.TextContent())
		}
		for i, li := range before {
			if after[i] != li || li.Mutations != 0 || li.Children[0].Mutations != 0 {
				t.Errorf("entry %d was not kept untouched", i)
			}
		}
		if f.doc.Count(vdom.OpInsert) != 1 || f.doc.Count(vdom.OpRemove) != 0 {
			t.Errorf("inserts = %d, removes = %d, want 1 and 0", f.doc.Count(vdom.OpInsert), f.doc.Count(vdom.OpRemove))
		}
	})

	t.Run("truncate", func(t *testing.T) {
		// Arrange
		f := buildSource(t, src, "List", interp.Record{"items": []any{a, b, c}})
		ul := f.root.FindTag("ul")
		last := ul.Elements()[2]

		// Act
		f.update(interp.Record{"items": []any{a, b}})

		// Assert
		if len(f.doc.Log) != 1 || f.doc.Log[0].Op != vdom.OpRemove || f.doc.Log[0].Node != last {
			t.Errorf("log = %+v, want only the last entry removed", f.doc.Log)
		}
		if ul.TextContent() != "ab" {
			t.Errorf("text = %q, want ab", ul.TextContent())
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		// Arrange
		f := buildSource(t, src, "List", interp.Record{"items": []any{a, b, c}})
		next := interp.Record{"items": []any{a, b, c, d}}
		f.update(next)

		// Act
		f.update(next)
		sameSlice := len(f.doc.Log)
		f.update(interp.Record{"items": []any{a, b, c, d}})

		// Assert
		if sameSlice != 0 || len(f.doc.Log) != 0 {
			t.Errorf("mutations on repeat = %d and %d, want none", sameSlice, len(f.doc.Log))
		}
	})
}

func TestSwitch_BranchTransition(t *testing.T) {
	// Arrange
	const src = `<view name="Shapes"><div><switch on={shape}><case name="circle"><b>{circle.radius | numberToString}</b></case><case name="square"><i>{square.side | numberToString}</i></case></switch></div></view>`
	f := buildSource(t, src, "Shapes", interp.Record{"shape": interp.Record{"type": "circle", "radius": 1.0}})
	div := f.root.FindTag("div")
	circle := div.FindTag("b")

	// Act: the tag changes.
	f.update(interp.Record{"shape": interp.Record{"type": "square", "side": 2.0}})

	// Assert
	if circle.Parent != nil || f.doc.Count(vdom.OpReplace) != 1 {
		t.Fatalf("circle branch should be replaced, log = %+v", f.doc.Log)
	}
	square := div.FindTag("i")
	if square == nil || square.TextContent() != "2" {
		t.Fatalf("square branch not built: %v", describe(div.Children))
	}

	// Act: same tag, new field value.
	f.update(interp.Record{"shape": interp.Record{"type": "square", "side": 3.0}})

	// Assert
	if div.FindTag("i") != square || len(f.doc.Log) != 1 || f.doc.Log[0].Op != vdom.OpText {
		t.Errorf("square should be patched in place, log = %+v", f.doc.Log)
	}

	// Act: a new record with the same side.
	f.update(interp.Record{"shape": interp.Record{"type": "square", "side": 3.0}})

	// Assert
	if len(f.doc.Log) != 0 {
		t.Errorf("log = %+v, want no mutations", f.doc.Log)
	}

	// Act: no case matches.
	f.update(interp.Record{"shape": interp.Record{"type": "triangle"}})

	// Assert
	if len(div.Children) != 1 || div.Children[0].Kind != vdom.CommentNode {
		t.Errorf("unmatched tag should render a placeholder, got %v", describe(div.Children))
	}

	// Act: back to the first case.
	f.update(interp.Record{"shape": interp.Record{"type": "circle", "radius": 5.0}})

	// Assert
	if b := div.FindTag("b"); b == nil || b == circle || b.TextContent() != "5" {
		t.Errorf("circle branch should be rebuilt fresh")
	}
}

func TestIf_SwapsBranches(t *testing.T) {
	// Arrange
	const src = `<view name="Gate"><div><if condition={open}><then><p>{msg}</p></then></if></div></view>`
	f := buildSource(t, src, "Gate", interp.Record{"open": false, "msg": "hi"})
	div := f.root.FindTag("div")

	// Act
	f.update(interp.Record{"open": true, "msg": "hi"})
	opened := div.FindTag("p")
	f.update(interp.Record{"open": true, "msg": "yo"})

	// Assert
	if opened == nil || div.FindTag("p") != opened || opened.TextContent() != "yo" {
		t.Fatalf("then branch should be built once and patched, got %v", describe(div.Children))
	}

	// Act
	f.update(interp.Record{"open": false, "msg": "yo"})

	// Assert
	if len(div.Children) != 1 || div.Children[0].Kind != vdom.CommentNode {
		t.Errorf("missing else branch should render a placeholder, got %v", describe(div.Children))
	}
}

func TestIf_UpdatesUnmountedRoot(t *testing.T) {
	// Arrange
	prog := compile(t, `<view name="Gate"><if condition={open}><then><p>{msg}</p></then><else><i>closed</i></else></if></view>`)
	runtime.SetDocument(vdom.NewDocument())
	st, err := interp.New(prog).Build("Gate", interp.Record{"open": false, "msg": "hi"})
	if err != nil {
		t.Fatal(err)
	}

	// Act
	st.Update(interp.Record{"open": true, "msg": "hi"})
	st.Update(interp.Record{"open": true, "msg": "yo"})

	// Assert
	if root := st.Root.(*vdom.Node); root.Parent != nil {
		t.Errorf("unmounted root gained a parent: %v", root.Parent)
	}
}

func TestComponentAndDynamicView(t *testing.T) {
	// Arrange
	const src = `<view name="Badge"><span class="badge">{label}</span></view>
<view name="Tag"><b>{label}</b></view>
<view name="Panel"><div><Badge label={title}/><use view={content} label={title}/></div></view>`
	in := interp.New(compile(t, src))
	badge, err := in.View("Badge")
	if err != nil {
		t.Fatal(err)
	}
	tag, err := in.View("Tag")
	if err != nil {
		t.Fatal(err)
	}
	f := build(t, in, "Panel", interp.Record{"title": "A", "content": badge})
	div := f.root.FindTag("div")
	used := div.Children[1]

	// Act
	f.update(interp.Record{"title": "B", "content": badge})

	// Assert
	if div.TextContent() != "BB" || div.Children[1] != used || f.doc.Count(vdom.OpText) != 2 {
		t.Errorf("title update: text %q, log %+v", div.TextContent(), f.doc.Log)
	}

	// Act
	f.update(interp.Record{"title": "B", "content": tag})

	// Assert
	if got := describe(div.Children); !slices.Equal(got, []string{"<span>", "<b>"}) {
		t.Errorf("children = %v, want [<span> <b>]", got)
	}
	if f.doc.Count(vdom.OpReplace) != 1 {
		t.Errorf("replaces = %d, want 1", f.doc.Count(vdom.OpReplace))
	}
}

func TestBuild_Errors(t *testing.T) {
	prog := compile(t, `<view name="Heading"><h1>{user.name}</h1></view>`)
	runtime.SetDocument(vdom.NewDocument())
	in := interp.New(prog)

	if _, err := in.Build("Missing", nil); err == nil {
		t.Error("Build of an unknown view should fail")
	}
	if _, err := in.Build("Heading", interp.Record{"user": "ann"}); err == nil {
		t.Error("Build with a string in place of a record should fail")
	}
}
