package runtime_test

import (
	"testing"

	"github.com/vcrobe/vgc/runtime"
	"github.com/vcrobe/vgc/vdom"
)

func TestNumberToString(t *testing.T) {
	tenth, fifth := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{2.5, "2.5"},
		{-3, "-3"},
		{tenth + fifth, "0.30000000000000004"},
		{1e21, "1000000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := runtime.NumberToString(tt.in); got != tt.want {
				t.Errorf("NumberToString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBoolean(t *testing.T) {
	if got := runtime.Boolean(true, "on", "off"); got != "on" {
		t.Errorf("Boolean(true) = %q", got)
	}
	if got := runtime.Boolean(false, 1.0, 2.0); got != 2 {
		t.Errorf("Boolean(false) = %v", got)
	}
}

func TestLookup(t *testing.T) {
	type labels struct {
		Title string
		Count float64
	}
	tests := []struct {
		name  string
		table any
		key   string
		want  string
	}{
		{"map hit", map[string]any{"a": "A"}, "a", "A"},
		{"map miss", map[string]any{"a": "A"}, "b", "fallback"},
		{"typed map", map[string]string{"a": "A"}, "a", "A"},
		{"wrong value type", map[string]any{"a": 1.0}, "a", "fallback"},
		{"struct field", labels{Title: "T"}, "title", "T"},
		{"struct pointer", &labels{Title: "T"}, "Title", "T"},
		{"nil pointer", (*labels)(nil), "title", "fallback"},
		{"non-string field", labels{Count: 2}, "count", "fallback"},
		{"int keys", map[int]string{1: "x"}, "1", "fallback"},
		{"nil table", nil, "a", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := runtime.Lookup(tt.table, tt.key, "fallback"); got != tt.want {
				t.Errorf("Lookup = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSameSlice(t *testing.T) {
	a := []int{1, 2, 3}
	b := []int{1, 2, 3}

	if !runtime.SameSlice(a, a) {
		t.Error("a slice should be the same as itself")
	}
	if runtime.SameSlice(a, b) {
		t.Error("equal contents in different arrays should differ")
	}
	if runtime.SameSlice(a, a[:2]) {
		t.Error("a shorter view of the same array should differ")
	}
}

func TestSameFunc(t *testing.T) {
	f := func() {}
	g := func() {}
	h := f

	if !runtime.SameFunc(f, h) {
		t.Error("copies of one func value should be the same")
	}
	if runtime.SameFunc(f, g) {
		t.Error("distinct funcs should differ")
	}
}

func TestSame(t *testing.T) {
	rec := map[string]any{"a": 1}
	list := []any{1}
	fn := func() {}
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil", nil, nil, true},
		{"nil and value", nil, 1.0, false},
		{"numbers", 1.0, 1.0, true},
		{"different types", 1.0, "1", false},
		{"strings", "x", "y", false},
		{"same map", rec, rec, true},
		{"equal maps", map[string]any{"a": 1}, map[string]any{"a": 1}, false},
		{"same slice", list, list, true},
		{"same func", fn, fn, true},
		{"different funcs", fn, func() {}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := runtime.Same(tt.a, tt.b); got != tt.want {
				t.Errorf("Same = %v, want %v", got, tt.want)
			}
		})
	}
}

// item builds a <li> whose text follows the entry.
func item(s string) *runtime.ViewState[string] {
	li := runtime.Element("li")
	text := runtime.Text(s)
	li.AppendChild(text)
	return &runtime.ViewState[string]{Root: li, Update: func(next string) { text.SetText(next) }}
}

func TestUpdateForLoop(t *testing.T) {
	// Arrange
	doc := vdom.NewDocument()
	runtime.SetDocument(doc)
	ul := doc.Root()
	anchor := runtime.Comment("")
	ul.AppendChild(anchor)
	entries := runtime.UpdateForLoop(anchor, nil, []string{"a", "b", "c"}, item)

	// Act: shrink, then grow again.
	entries = runtime.UpdateForLoop(anchor, entries, []string{"x", "b"}, item)
	afterShrink := ul.TextContent()
	entries = runtime.UpdateForLoop(anchor, entries, []string{"x", "b", "d", "e"}, item)

	// Assert
	if afterShrink != "xb" {
		t.Errorf("after shrink text = %q, want xb", afterShrink)
	}
	if got := ul.TextContent(); got != "xbde" {
		t.Errorf("after grow text = %q, want xbde", got)
	}
	if len(entries) != 4 {
		t.Errorf("len(entries) = %d, want 4", len(entries))
	}
	if last := ul.Children[len(ul.Children)-1]; last.Kind != vdom.CommentNode {
		t.Error("anchor should stay after the entries")
	}
}

func TestEmpty(t *testing.T) {
	runtime.SetDocument(vdom.NewDocument())

	st := runtime.Empty[int]()
	st.Update(1)

	if n := st.Root.(*vdom.Node); n.Kind != vdom.CommentNode || n.Data != "" {
		t.Errorf("Empty root = %+v, want an empty comment", n)
	}
}

func TestApp_QueuesNestedUpdates(t *testing.T) {
	// Arrange: the view requests a second change while applying the first.
	doc := vdom.NewDocument()
	runtime.SetDocument(doc)
	var seen []int
	var app *runtime.App[int]
	view := func(n int) *runtime.ViewState[int] {
		return &runtime.ViewState[int]{
			Root: runtime.Text(""),
			Update: func(next int) {
				seen = append(seen, next)
				if next == 1 {
					app.Update(func(cur int) int { return cur * 10 })
					if len(seen) != 1 {
						t.Error("nested update ran before the outer one finished")
					}
				}
			},
		}
	}
	app = runtime.Run[int](doc.Root(), view, func(*runtime.App[int]) int { return 0 })

	// Act
	app.Set(1)

	// Assert
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 10 {
		t.Errorf("updates = %v, want [1 10]", seen)
	}
	if got := app.Input(); got != 10 {
		t.Errorf("Input = %d, want 10", got)
	}
}

func TestApp_SurvivesPanics(t *testing.T) {
	tests := []struct {
		name  string
		setup func(app *runtime.App[int], failView *bool)
	}{
		{"panicking change", func(app *runtime.App[int], _ *bool) {
			app.Update(func(int) int { panic("boom") })
		}},
		{"panicking view update", func(app *runtime.App[int], failView *bool) {
			*failView = true
			app.Set(5)
			*failView = false
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			doc := vdom.NewDocument()
			runtime.SetDocument(doc)
			failView := false
			var seen []int
			view := func(n int) *runtime.ViewState[int] {
				return &runtime.ViewState[int]{
					Root: runtime.Text(""),
					Update: func(next int) {
						if failView {
							panic("view failed")
						}
						seen = append(seen, next)
					},
				}
			}
			app := runtime.Run[int](doc.Root(), view, func(*runtime.App[int]) int { return 0 })
			tt.setup(app, &failView)

			// Act
			app.Set(1)

			// Assert
			if len(seen) != 1 || seen[0] != 1 {
				t.Errorf("updates after the panic = %v, want [1]", seen)
			}
			if got := app.Input(); got != 1 {
				t.Errorf("Input = %d, want 1", got)
			}
		})
	}
}
