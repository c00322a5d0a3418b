package interp_test

import (
	"fmt"
	"testing"

	"github.com/vcrobe/vgc/interp"
	"github.com/vcrobe/vgc/runtime"
	"github.com/vcrobe/vgc/vdom"
)

// runApp mounts a view with runtime.Run and returns the mount point.
func runApp(t *testing.T, src, view string, build func(app *runtime.App[interp.Record]) interp.Record) (*vdom.Document, *vdom.Node, *runtime.App[interp.Record]) {
	t.Helper()
	doc := vdom.NewDocument()
	runtime.SetDocument(doc)
	v, err := interp.New(compile(t, src)).View(view)
	if err != nil {
		t.Fatal(err)
	}
	mount := doc.Root()
	app := runtime.Run[interp.Record](mount, v, build)
	doc.Reset(mount)
	return doc, mount, app
}

func TestScenario_CounterDataBinding(t *testing.T) {
	// Arrange
	const src = `<view name="Counter"><div>
    <p>{label}: {count | numberToString}</p>
    <button onclick={increment}>+</button>
    <button onclick={rename}>Rename</button>
</div></view>`
	doc, mount, _ := runApp(t, src, "Counter", func(app *runtime.App[interp.Record]) interp.Record {
		return interp.Record{
			"label": "Count",
			"count": 0.0,
			"increment": func() {
				app.Update(func(cur interp.Record) interp.Record {
					return with(cur, "count", cur["count"].(float64)+1)
				})
			},
			"rename": func() {
				app.Update(func(cur interp.Record) interp.Record { return with(cur, "label", "Clicks") })
			},
		}
	})
	buttons := mount.FindTag("div").Elements()[1:]

	// Act
	buttons[0].Dispatch("click")
	buttons[0].Dispatch("click")
	buttons[1].Dispatch("click")

	// Assert
	if got := mount.FindTag("p").TextContent(); got != "Clicks: 2" {
		t.Errorf("Expected 'Clicks: 2', got %q", got)
	}
	if n := doc.Count(vdom.OpHandler); n != 0 {
		t.Errorf("Expected handlers to stay installed, got %d handler changes", n)
	}
	if n := doc.Count(vdom.OpText); n != 3 {
		t.Errorf("Expected 3 text updates, got %d", n)
	}
}

func TestScenario_ConditionalFormTypeThenClear(t *testing.T) {
	// Arrange
	const src = `<view name="Form"><div>
    <input value={name}/>
    <if condition={hasName}>
        <then><p class="preview">Hello, {name}!</p></then>
        <else><p class="muted">Type your name</p></else>
    </if>
</div></view>`
	_, mount, app := runApp(t, src, "Form", func(*runtime.App[interp.Record]) interp.Record {
		return interp.Record{"name": "", "hasName": false}
	})
	setName := func(name string) {
		app.Set(interp.Record{"name": name, "hasName": name != ""})
	}
	paragraph := func() *vdom.Node { return mount.FindTag("p") }
	class := func() string {
		c, _ := paragraph().Attr("class")
		return c
	}

	// Act & Assert: typing shows the preview.
	setName("Ann")
	if class() != "preview" || paragraph().TextContent() != "Hello, Ann!" {
		t.Fatalf("Expected live preview, got class=%q text=%q", class(), paragraph().TextContent())
	}

	// Act & Assert: clearing restores the placeholder.
	setName("")
	if class() != "muted" {
		t.Fatalf("Expected muted placeholder after clearing, got class=%q", class())
	}
	if len(mount.FindTag("div").Elements()) != 2 {
		t.Errorf("Expected exactly one paragraph next to the input")
	}

	// Act & Assert: typing again brings the preview back.
	setName("Bo")
	if class() != "preview" || paragraph().TextContent() != "Hello, Bo!" {
		t.Errorf("Expected preview for Bo, got class=%q text=%q", class(), paragraph().TextContent())
	}
	if v, _ := mount.FindTag("input").Attr("value"); v != "Bo" {
		t.Errorf("Expected input value Bo, got %q", v)
	}
}

func TestScenario_ProductListAddAndClear(t *testing.T) {
	// Arrange
	const src = `<view name="Products"><div>
    <ul>
        <for seq={products} as="product">
            <li>Product {product.id | numberToString}: {product.name}</li>
        </for>
    </ul>
    <button onclick={add}>Add</button>
    <button onclick={clear}>Clear</button>
</div></view>`
	product := func(id int, name string) interp.Record {
		return interp.Record{"id": float64(id), "name": name}
	}
	names := []string{"Monitor", "Webcam"}
	_, mount, app := runApp(t, src, "Products", func(app *runtime.App[interp.Record]) interp.Record {
		return interp.Record{
			"products": []any{product(1, "Laptop"), product(2, "Mouse"), product(3, "Keyboard")},
			"add": func() {
				app.Update(func(cur interp.Record) interp.Record {
					list := cur["products"].([]any)
					next := append(list[:len(list):len(list)], product(len(list)+1, names[0]))
					names = names[1:]
					return with(cur, "products", next)
				})
			},
			"clear": func() {
				app.Update(func(cur interp.Record) interp.Record { return with(cur, "products", []any{}) })
			},
		}
	})
	ul := mount.FindTag("ul")
	buttons := mount.FindTag("div").Elements()[1:]
	items := func() []string {
		var out []string
		for _, li := range ul.Elements() {
			out = append(out, li.TextContent())
		}
		return out
	}
	first := ul.Elements()[0]

	// Act
	buttons[0].Dispatch("click")

	// Assert
	if got := fmt.Sprint(items()); got != "[Product 1: Laptop Product 2: Mouse Product 3: Keyboard Product 4: Monitor]" {
		t.Fatalf("after add: %s", got)
	}
	if ul.Elements()[0] != first {
		t.Error("Expected existing items to be kept")
	}

	// Act
	buttons[1].Dispatch("click")

	// Assert
	if len(ul.Elements()) != 0 {
		t.Fatalf("Expected empty list after clear, got %v", items())
	}

	// Act
	buttons[0].Dispatch("click")

	// Assert
	if got := fmt.Sprint(items()); got != "[Product 1: Webcam]" {
		t.Errorf("after add following clear: %s", got)
	}
	if len(app.Input()["products"].([]any)) != 1 {
		t.Errorf("Expected one product in the app input")
	}
}
