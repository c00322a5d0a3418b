package main

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/tools/go/packages"
)

// packageName infers the package clause for a file written into dir: the
// package already there according to the go tool, else the package clause of
// any Go file in dir, else a name derived from the directory.
func packageName(dir string) string {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedFiles, Dir: dir}
	if pkgs, err := packages.Load(cfg, "."); err == nil {
		for _, p := range pkgs {
			if p.Name != "" && len(p.Errors) == 0 {
				return p.Name
			}
		}
	}
	if name := packageClause(dir); name != "" {
		return name
	}
	return dirPackageName(dir)
}

// packageClause reads the package clause of the first non-test Go file in
// dir. Generated files are skipped so an earlier vgc run does not decide.
func packageClause(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return ""
	}
	for _, path := range matches {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, path, nil, parser.PackageClauseOnly|parser.ParseComments)
		if err != nil || ast.IsGenerated(f) {
			continue
		}
		return f.Name.Name
	}
	return ""
}

// dirPackageName turns a directory name into a package name: lower case,
// letters and digits only, not starting with a digit.
func dirPackageName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	var b strings.Builder
	for _, r := range strings.ToLower(filepath.Base(abs)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "views"
	}
	return name
}
