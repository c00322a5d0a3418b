// Command vgc compiles .vg view templates into a Go source file.
//
//	vgc [flags] file.vg...
//
// Exit status is 0 on success, 1 when compilation fails and 2 on usage
// errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/vcrobe/vgc/compiler"
	"github.com/vcrobe/vgc/interp"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// errUsage marks command-line and configuration mistakes.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// cli is one parsed invocation.
type cli struct {
	output   string
	opts     compiler.Options
	sources  []string
	quiet    bool
	watch    bool
	interval time.Duration
	preview  string
	data     string

	root    string   // directory the sources are read relative to
	entries []string // sources relative to root
	stdout  io.Writer
	stderr  io.Writer
	log     *slog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c, err := parseArgs(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "vgc: %v\n", err)
		return exitUsage
	}
	if c.watch {
		return c.watchLoop(ctx)
	}
	_, code := c.once(ctx)
	return code
}

func parseArgs(args []string, stdout, stderr io.Writer) (*cli, error) {
	c := &cli{stdout: stdout, stderr: stderr}
	fs := flag.NewFlagSet("vgc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: vgc [flags] file.vg...")
		fs.PrintDefaults()
	}
	var flagOpts compiler.Options
	configPath := fs.String("config", "", "YAML configuration `file` (default vgc.yaml when present)")
	fs.StringVar(&c.output, "o", "", "write the generated Go to `file` instead of stdout")
	fs.StringVar(&flagOpts.Package, "package", "", "package `name` of the generated file (default: inferred from the output directory)")
	fs.StringVar(&flagOpts.RuntimeImport, "runtime", "", "import `path` of the runtime package")
	fs.BoolVar(&c.quiet, "q", false, "only report warnings and errors")
	fs.BoolVar(&c.watch, "w", false, "recompile whenever a template changes")
	fs.DurationVar(&c.interval, "interval", 500*time.Millisecond, "watch mode `interval` for settling file events, or polling without them")
	fs.StringVar(&c.preview, "preview", "", "print the HTML of `View` instead of generating code")
	fs.StringVar(&c.data, "data", "", "YAML or JSON `file` holding the preview input")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if c.quiet {
		level = slog.LevelWarn
	}
	c.log = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))

	// Step 1: Defaults, then vgc.yaml, then flags.
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	c.sources = fs.Args()
	if len(c.sources) == 0 {
		c.sources = cfg.Sources
	}
	if c.output == "" {
		c.output = cfg.Output
	}
	c.opts = cfg.Options.Merge(flagOpts)

	// Step 2: Validate the combination.
	if len(c.sources) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("%w: no template files given", errUsage)
	}
	if c.data != "" && c.preview == "" {
		return nil, fmt.Errorf("%w: -data requires -preview", errUsage)
	}
	if c.watch && c.preview != "" {
		return nil, fmt.Errorf("%w: -w cannot be combined with -preview", errUsage)
	}
	if c.opts.Package == "" && c.output != "" {
		c.opts.Package = packageName(filepath.Dir(c.output))
	}

	c.root, c.entries, err = sourceRoot(c.sources)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// loadConfig reads an explicit configuration file, or vgc.yaml from the
// working directory when one exists.
func loadConfig(path string) (*compiler.Config, error) {
	if path == "" {
		if _, err := os.Stat("vgc.yaml"); err != nil {
			return &compiler.Config{}, nil
		}
		path = "vgc.yaml"
	}
	cfg, err := compiler.LoadConfig(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return cfg, nil
}

// sourceRoot picks the directory templates are read from: the working
// directory, or the common ancestor of every source when one lies outside
// it. A <require src="/x.vg"> resolves against that directory.
func sourceRoot(sources []string) (string, []string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", nil, err
	}
	abs := make([]string, len(sources))
	root := wd
	for i, s := range sources {
		if abs[i], err = filepath.Abs(s); err != nil {
			return "", nil, err
		}
		for !within(root, abs[i]) {
			root = filepath.Dir(root)
		}
	}
	entries := make([]string, len(abs))
	for i, a := range abs {
		rel, err := filepath.Rel(root, a)
		if err != nil {
			return "", nil, err
		}
		entries[i] = filepath.ToSlash(rel)
	}
	return root, entries, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// once runs one compilation and reports the files it read.
func (c *cli) once(ctx context.Context) ([]string, int) {
	start := time.Now()
	c.log.Info("compiling", "sources", len(c.entries), "root", c.root)

	res, err := compiler.Compile(ctx, os.DirFS(c.root), c.entries, c.opts)
	files := c.entries
	if res != nil && res.Graph != nil {
		files = nil
		for _, f := range res.Graph.Files {
			files = append(files, f.Source.Path)
		}
	}
	if err != nil {
		var ds compiler.Diagnostics
		if errors.As(err, &ds) {
			fmt.Fprintln(c.stderr, ds.Render())
			c.log.Error("compilation failed", "errors", len(ds))
		} else {
			c.log.Error("compilation failed", "err", err)
		}
		return files, exitFail
	}

	if c.preview != "" {
		return files, c.renderPreview(res.Program)
	}
	if err := c.write(res.Source); err != nil {
		c.log.Error("writing output", "err", err)
		return files, exitFail
	}
	c.log.Info("compiled", "views", len(res.Program.Views), "output", c.outputName(), "elapsed", time.Since(start).Round(time.Millisecond))
	return files, exitOK
}

func (c *cli) outputName() string {
	if c.output == "" {
		return "<stdout>"
	}
	return c.output
}

// write replaces the output file atomically so a watcher or an editor never
// sees a half-written file.
func (c *cli) write(src []byte) error {
	if c.output == "" {
		_, err := c.stdout.Write(src)
		return err
	}
	dir := filepath.Dir(c.output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".vgc-*.go")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.output)
}

func (c *cli) renderPreview(prog *compiler.Program) int {
	input := interp.Record{}
	if c.data != "" {
		data, err := os.ReadFile(c.data)
		if err != nil {
			c.log.Error("reading preview data", "err", err)
			return exitFail
		}
		if input, err = interp.DecodeInput(data); err != nil {
			c.log.Error("reading preview data", "file", c.data, "err", err)
			return exitFail
		}
	}
	out, err := interp.Preview(prog, c.preview, input)
	if err != nil {
		c.log.Error("preview failed", "view", c.preview, "err", err)
		return exitFail
	}
	fmt.Fprintln(c.stdout, out)
	return exitOK
}
