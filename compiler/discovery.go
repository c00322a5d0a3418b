package compiler

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Graph is the resolved module graph of one compilation: every loaded file,
// the views in dependency order and the component edges between them.
type Graph struct {
	// Files in the order they were first required, entries first.
	Files []*File
	// Views with used views before their users. Views that failed to
	// resolve are left out.
	Views []*View
	// Uses maps a view to the views it renders as components.
	Uses map[string][]string
	// Failed holds views that were declared but could not be resolved, so
	// later phases skip their users without reporting them again.
	Failed map[string]bool

	requires map[string][]string // file -> directly required files
	broken   map[string]bool     // files with parse errors
	cyclic   map[string]bool     // files on a require cycle
}

// requireRef remembers who asked for a file, for error positions.
type requireRef struct {
	from *File
	req  *Require
}

type loader struct {
	fsys  fs.FS
	mu    sync.Mutex
	files map[string]*File
	refs  map[string]requireRef
	graph *Graph
	diags Diagnostics
}

// Load reads the entry templates and everything they require from fsys.
// Files are parsed concurrently, one wave of newly discovered requires at a
// time. The returned graph is usable even when the error is non-nil: it
// holds every view that resolved cleanly.
func Load(ctx context.Context, fsys fs.FS, entries []string) (*Graph, error) {
	l := &loader{
		fsys:  fsys,
		files: make(map[string]*File),
		refs:  make(map[string]requireRef),
		graph: &Graph{
			Uses:     make(map[string][]string),
			Failed:   make(map[string]bool),
			requires: make(map[string][]string),
			broken:   make(map[string]bool),
			cyclic:   make(map[string]bool),
		},
	}

	// Step 1: Parse the entries, then every file they require, wave by wave.
	var wave []string
	seen := make(map[string]bool)
	for _, e := range entries {
		p := cleanEntry(e)
		if !seen[p] {
			seen[p] = true
			wave = append(wave, p)
		}
	}
	var order []string
	for len(wave) > 0 {
		if err := l.parseWave(ctx, wave); err != nil {
			return nil, err
		}
		order = append(order, wave...)
		var next []string
		for _, p := range wave {
			f := l.files[p]
			if f == nil {
				continue
			}
			var children []string
			for _, req := range f.Requires {
				child, d := resolveRequire(f, req)
				if d != nil {
					l.diags = append(l.diags, d)
					continue
				}
				children = appendUnique(children, child)
				if !seen[child] {
					seen[child] = true
					l.refs[child] = requireRef{from: f, req: req}
					next = append(next, child)
				}
			}
			l.graph.requires[p] = children
		}
		wave = next
	}
	for _, p := range order {
		if f := l.files[p]; f != nil {
			l.graph.Files = append(l.graph.Files, f)
		}
	}

	// Step 2: Reject require cycles.
	l.checkRequireCycles(order)

	// Step 3: Index views, resolve component references, order the views.
	l.resolveViews()

	l.diags.Sort()
	return l.graph, l.diags.Err()
}

// parseWave reads and parses a set of files in parallel.
func (l *loader) parseWave(ctx context.Context, paths []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(l.fsys, p)
			if err != nil {
				l.report(l.ioDiagnostic(p, err))
				return nil
			}
			f, err := Parse(p, string(data))
			l.mu.Lock()
			defer l.mu.Unlock()
			l.files[p] = f
			if err != nil {
				l.graph.broken[p] = true
				l.diags = append(l.diags, asDiagnostics(err)...)
			}
			return nil
		})
	}
	return g.Wait()
}

func (l *loader) report(d *Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.diags = append(l.diags, d)
}

// ioDiagnostic points at the <require> that asked for the file, or at the
// file itself when it was an entry.
func (l *loader) ioDiagnostic(p string, err error) *Diagnostic {
	msg := err.Error()
	if errors.Is(err, fs.ErrNotExist) {
		msg = "file does not exist"
	}
	ref, ok := l.refs[p]
	if !ok {
		return newDiagnostic(ErrIO, NewSource(p, ""), Span{}, "failed to load %q: %s", p, msg)
	}
	return newDiagnostic(ErrIO, ref.from.Source, ref.req.Span, "failed to load %q: %s", p, msg).
		label(ref.req.Span, "unable to read required template")
}

// cleanEntry normalizes an entry path to the fs.FS form.
func cleanEntry(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// resolveRequire resolves src relative to the requiring file. A leading
// slash means the root of the source tree.
func resolveRequire(from *File, req *Require) (string, *Diagnostic) {
	src := req.Src
	var joined string
	if strings.HasPrefix(src, "/") {
		joined = path.Clean(src)
	} else {
		joined = path.Join("/", path.Dir(from.Source.Path), src)
	}
	resolved := strings.TrimPrefix(joined, "/")
	if resolved == "" || !fs.ValidPath(resolved) || strings.HasPrefix(path.Join(path.Dir(from.Source.Path), src), "..") {
		return "", newDiagnostic(ErrIO, from.Source, req.Span, "required path %q is outside the source tree", src)
	}
	return resolved, nil
}

// checkRequireCycles walks the require graph from every file in load order.
func (l *loader) checkRequireCycles(order []string) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var stack []string
	var visit func(p string) bool
	visit = func(p string) bool {
		switch state[p] {
		case done:
			return true
		case visiting:
			cycle := cycleFromStack(stack, p)
			from := l.files[stack[len(stack)-1]]
			span := Span{}
			for _, req := range from.Requires {
				if r, d := resolveRequire(from, req); d == nil && r == p {
					span = req.Span
					break
				}
			}
			l.diags = append(l.diags, newDiagnostic(ErrRequireCycle, from.Source, span,
				"Circular <require> dependency detected: %s", strings.Join(cycle, " -> ")).
				label(span, "cycle introduced here"))
			for _, f := range cycle {
				l.graph.cyclic[f] = true
			}
			return false
		}
		state[p] = visiting
		stack = append(stack, p)
		ok := true
		for _, child := range l.graph.requires[p] {
			if l.files[child] == nil {
				continue
			}
			if !visit(child) {
				ok = false
				break
			}
		}
		stack = stack[:len(stack)-1]
		state[p] = done
		return ok
	}
	for _, p := range order {
		if l.files[p] != nil && state[p] == 0 {
			visit(p)
		}
	}
}

// cycleFromStack returns the suffix of stack starting at repeated, closed
// with repeated again.
func cycleFromStack(stack []string, repeated string) []string {
	start := 0
	for i, s := range stack {
		if s == repeated {
			start = i
			break
		}
	}
	cycle := append([]string(nil), stack[start:]...)
	return append(cycle, repeated)
}

// viewRef locates a declared view.
type viewRef struct {
	view  *View
	file  *File
	index int
}

// resolveViews checks view names and component references, then orders the
// views so that every view follows the views it uses.
func (l *loader) resolveViews() {
	byName := make(map[string]viewRef)
	var names []string
	for _, f := range l.graph.Files {
		for i, v := range f.Views {
			if prev, ok := byName[v.Name]; ok {
				line, col := prev.file.Source.Position(prev.view.NameSpan.Start)
				l.diags = append(l.diags, newDiagnostic(ErrDuplicateView, f.Source, v.NameSpan,
					"view %q is defined more than once (in %s and %s)", v.Name, prev.file.Source.Path, f.Source.Path).
					label(v.NameSpan, "first definition is at %s:%d:%d", prev.file.Source.Path, line, col))
				l.graph.Failed[v.Name] = true
				continue
			}
			byName[v.Name] = viewRef{view: v, file: f, index: i}
			names = append(names, v.Name)
		}
	}

	deps := make(map[string][]string)
	for _, name := range names {
		ref := byName[name]
		if l.graph.Failed[name] || l.graph.cyclic[ref.file.Source.Path] {
			l.graph.Failed[name] = true
			continue
		}
		ok := true
		var uses []string
		componentRefs(ref.view.Body, func(c *ComponentUse) {
			if !ok {
				return
			}
			if d := l.checkComponent(ref, c, byName, names); d != nil {
				ok = false
				if d != errSilent {
					l.diags = append(l.diags, d)
				}
				return
			}
			uses = appendUnique(uses, c.View)
		})
		if !ok {
			l.graph.Failed[name] = true
			continue
		}
		deps[name] = uses
		l.graph.Uses[name] = uses
	}

	order, failed, diag := sortViews(names, deps, byName)
	if diag != nil {
		l.diags = append(l.diags, diag)
	}
	for _, name := range order {
		if failed[name] {
			l.graph.Failed[name] = true
			continue
		}
		l.graph.Views = append(l.graph.Views, byName[name].view)
	}
}

// errSilent marks a reference that fails only because something it depends
// on was already reported.
var errSilent = &Diagnostic{Kind: ErrUnresolvedView}

// checkComponent validates one component tag: the view exists, and it is
// declared earlier in the same file or in a directly required file.
func (l *loader) checkComponent(from viewRef, c *ComponentUse, byName map[string]viewRef, names []string) *Diagnostic {
	src := from.file.Source
	target, ok := byName[c.View]
	if !ok {
		if l.incomplete(from.file) {
			return errSilent
		}
		d := newDiagnostic(ErrUnresolvedView, src, c.NodeSpan(), "component <%s> is not defined in this compilation set", c.View).
			label(c.NodeSpan(), "add a matching <view> definition or correct the name")
		if hint := didYouMean(c.View, names); hint != "" {
			d.hint("%s", hint)
		}
		return d
	}
	if l.graph.Failed[c.View] {
		return errSilent
	}
	if target.file == from.file {
		if target.index < from.index || target.view == from.view {
			return nil
		}
		return newDiagnostic(ErrUnresolvedView, src, c.NodeSpan(), "component <%s> is used before it is defined", c.View).
			hint("move <view name=%q> above <view name=%q>", c.View, from.view.Name)
	}
	for _, child := range l.graph.requires[src.Path] {
		if child == target.file.Source.Path {
			return nil
		}
	}
	return newDiagnostic(ErrUnresolvedView, src, c.NodeSpan(),
		"component <%s> is defined in %s, but this template does not <require> it directly", c.View, target.file.Source.Path).
		hint(`add <require src=%q/>`, relativePath(src.Path, target.file.Source.Path))
}

// incomplete reports whether names visible from f may be missing because
// f or a file it requires failed to load.
func (l *loader) incomplete(f *File) bool {
	if l.graph.broken[f.Source.Path] {
		return true
	}
	for _, child := range l.graph.requires[f.Source.Path] {
		if l.graph.broken[child] || l.files[child] == nil {
			return true
		}
	}
	return false
}

// relativePath returns target relative to the directory of from.
func relativePath(from, target string) string {
	dir := path.Dir(from)
	if dir == "." {
		return target
	}
	fromParts := strings.Split(dir, "/")
	targetParts := strings.Split(target, "/")
	i := 0
	for i < len(fromParts) && i < len(targetParts)-1 && fromParts[i] == targetParts[i] {
		i++
	}
	return strings.Repeat("../", len(fromParts)-i) + strings.Join(targetParts[i:], "/")
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
