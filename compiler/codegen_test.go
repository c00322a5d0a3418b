package compiler

import (
	"bytes"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"strings"
	"testing"
)

// generate compiles src and parses the generated Go, returning the source
// and the names of its top-level declarations.
func generate(t *testing.T, src string, opts Options) (string, map[string]bool) {
	t.Helper()
	prog := mustAnalyze(t, src)
	out, err := Generate(prog, opts)
	if err != nil {
		t.Fatalf("Generate failed: %v\n%s", err, out)
	}
	f, err := goparser.ParseFile(token.NewFileSet(), "views.go", out, goparser.ParseComments)
	if err != nil {
		t.Fatalf("Generated code does not parse: %v\n%s", err, out)
	}
	decls := make(map[string]bool)
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			decls[d.Name.Name] = true
		case *ast.GenDecl:
			for _, s := range d.Specs {
				if ts, ok := s.(*ast.TypeSpec); ok {
					decls[ts.Name.Name] = true
				}
			}
		}
	}
	return string(out), decls
}

func assertContains(t *testing.T, src string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(src, f) {
			t.Errorf("Expected generated code to contain %q\n%s", f, src)
		}
	}
}

func TestGenerate_Counter(t *testing.T) {
	// Arrange
	src := `<view name="Counter"><button onclick={increment}>Count: {count | numberToString}</button></view>`

	// Act
	out, decls := generate(t, src, Options{Package: "app"})

	// Assert
	if !decls["Counter"] || !decls["CounterInput"] {
		t.Errorf("Expected Counter and CounterInput to be declared, got %v", decls)
	}
	assertContains(t, out,
		"// Code generated by vgc. DO NOT EDIT.",
		"package app",
		`import "github.com/vcrobe/vgc/runtime"`,
		"func Counter(input CounterInput) *runtime.ViewState[CounterInput]",
		`SetHandler("click", input.Increment)`,
		`runtime.Text(("Count: " + runtime.NumberToString(input.Count)))`,
		"if cur.Count != next.Count {",
		"if !runtime.SameFunc(cur.Increment, next.Increment) {",
		"cur = next",
	)
}

func TestGenerate_StaticViewHasNoUpdater(t *testing.T) {
	// Act
	out, _ := generate(t, `<view name="Static"><p class="x">hi</p></view>`, Options{})

	// Assert
	assertContains(t, out,
		"package views",
		"type StaticInput struct {\n}",
		"Update: func(StaticInput) {}",
	)
	if strings.Contains(out, "cur :=") {
		t.Errorf("Expected no tracked value for a static view\n%s", out)
	}
}

func TestGenerate_LoopUsesScopeStructAndReconciler(t *testing.T) {
	// Arrange
	src := `<view name="List"><ul><for seq={items} as="item"><li title={prefix}>{item.name}</li></for></ul></view>`

	// Act
	out, decls := generate(t, src, Options{})

	// Assert
	for _, name := range []string{"List", "ListInput", "ListItemsItem", "listScope1", "listBlock1", "listScopes0"} {
		if !decls[name] {
			t.Errorf("Expected %s to be declared", name)
		}
	}
	assertContains(t, out,
		"anchor0 := runtime.Comment(\"\")",
		"loop0 := runtime.UpdateForLoop(anchor0, nil, listScopes0(input), listBlock1)",
		"if !runtime.SameSlice(cur.Items, next.Items) || cur.Prefix != next.Prefix {",
		"scopes[i] = listScope1{input: v, item: item}",
		"v.item.Name",
		"v.input.Prefix",
	)
}

func TestGenerate_SwitchOverUnion(t *testing.T) {
	// Arrange
	src := `<view name="Shapes"><div><switch on={shape}>
    <case name="circle"><p>{circle.radius | numberToString}</p></case>
    <case name="square" as="sq"><p>{sq.side | numberToString}</p></case>
</switch></div></view>`

	// Act
	out, decls := generate(t, src, Options{})

	// Assert
	for _, name := range []string{"ShapesShape", "ShapesShapeCircle", "ShapesShapeSquare"} {
		if !decls[name] {
			t.Errorf("Expected %s to be declared", name)
		}
	}
	assertContains(t, out,
		"isShapesShape()",
		"case *ShapesShapeCircle:",
		"case *ShapesShapeSquare:",
		`sw0Tag = "circle"`,
		`sw0Root = runtime.Comment("")`,
		"old.ReplaceWith(sw0Root)",
		"shapesBlock2(shapesScope2{input: v, sq: x})",
	)
}

func TestGenerate_ConditionalComponentUseAndMount(t *testing.T) {
	// Arrange
	src := `<view name="Badge"><b>{label}</b></view>
<view name="Panel"><div>
    <if condition={open}><then><Badge label={title}/></then></if>
    <use view={body} text={title}/>
    <mount use={chart}/>
</div></view>`

	// Act
	out, decls := generate(t, src, Options{})

	// Assert
	for _, name := range []string{"Badge", "BadgeInput", "Panel", "PanelInput", "panelIf0", "panelBlock1"} {
		if !decls[name] {
			t.Errorf("Expected %s to be declared", name)
		}
	}
	assertContains(t, out,
		"runtime.Empty[PanelInput]()",
		"comp1 := Badge(BadgeInput{Label: v.Title})",
		"comp1.Update(BadgeInput{Label: next.Title})",
		"!runtime.SameFunc(f, use2View)",
		"mount3Fn := input.Chart",
		"func() runtime.Node",
	)
}

func TestGenerate_IdenticalInputsAreAliased(t *testing.T) {
	// Arrange
	src := `<view name="First"><p>{name}</p></view>
<view name="Second"><span>{name}</span></view>`

	// Act
	out, _ := generate(t, src, Options{})

	// Assert
	assertContains(t, out, "type SecondInput = FirstInput")
}

func TestGenerate_HeaderAndDeterminism(t *testing.T) {
	// Arrange
	src := `<view name="A"><p>{x}{y}</p></view><view name="B"><A x={x} y={y}/></view>`
	prog := mustAnalyze(t, src)
	opts := Options{Package: "ui", Header: "Source: a.vg\nDo not edit by hand."}

	// Act
	first, err1 := Generate(prog, opts)
	second, err2 := Generate(prog, opts)

	// Assert
	if err1 != nil || err2 != nil {
		t.Fatalf("Generate failed: %v / %v", err1, err2)
	}
	if !bytes.Equal(first, second) {
		t.Error("Expected identical output for identical input")
	}
	if !bytes.HasPrefix(first, []byte("// Source: a.vg\n// Do not edit by hand.\n")) {
		t.Errorf("Expected the header first, got:\n%s", first)
	}
}

func TestGenerate_EmptyProgram(t *testing.T) {
	// Act
	out, err := Generate(&Program{}, Options{Package: "empty"})

	// Assert
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "import") {
		t.Errorf("Expected no import without views, got:\n%s", out)
	}
}

func TestGenerate_IfGuardDoesNotReachIntoBranchRecords(t *testing.T) {
	// Arrange
	src := `<view name="Root"><div><if condition={loggedIn}><then><p>{user.name}</p></then></if></div></view>`

	// Act
	out, _ := generate(t, src, Options{})

	// Assert
	assertContains(t, out,
		"if cur.LoggedIn != next.LoggedIn || cur.User != next.User {",
		"if cur.User.Name != next.User.Name {",
	)
	if strings.Contains(out, "cur.LoggedIn != next.LoggedIn || cur.User.Name") {
		t.Errorf("Expected the slot guard to compare the record only\n%s", out)
	}
}
