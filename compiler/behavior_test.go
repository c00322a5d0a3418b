package compiler

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// TestGeneratedCode_Behavior compiles testdata/behavior/views.vg and runs the
// tests in testdata/behavior against the generated package with the go
// command. A build overlay places both files in a package directory that
// does not exist on disk.
func TestGeneratedCode_Behavior(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs a generated package")
	}
	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not found")
	}

	// Arrange
	res, err := Compile(context.Background(), os.DirFS("testdata/behavior"), []string{"views.vg"}, Options{Package: "behavior"})
	if err != nil {
		t.Fatalf("Compile failed:\n%v", err)
	}
	root, err := filepath.Abs("..")
	if err != nil {
		t.Fatal(err)
	}
	tests, err := filepath.Abs(filepath.Join("testdata", "behavior", "behavior_test.go"))
	if err != nil {
		t.Fatal(err)
	}
	tmp := t.TempDir()
	generated := filepath.Join(tmp, "views_vg.go")
	if err := os.WriteFile(generated, res.Source, 0o644); err != nil {
		t.Fatal(err)
	}
	pkgDir := filepath.Join(root, "internal", "behaviortest")
	overlay, err := json.Marshal(map[string]map[string]string{"Replace": {
		filepath.Join(pkgDir, "views_vg.go"):      generated,
		filepath.Join(pkgDir, "behavior_test.go"): tests,
	}})
	if err != nil {
		t.Fatal(err)
	}
	overlayFile := filepath.Join(tmp, "overlay.json")
	if err := os.WriteFile(overlayFile, overlay, 0o644); err != nil {
		t.Fatal(err)
	}

	// Act
	cmd := exec.CommandContext(t.Context(), goTool, "test", "-count=1", "-overlay", overlayFile, "./internal/behaviortest")
	cmd.Dir = root
	out, err := cmd.CombinedOutput()

	// Assert
	if err != nil {
		t.Fatalf("generated package tests failed: %v\n%s\ngenerated code:\n%s", err, out, res.Source)
	}
}
