package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every *Diagnostic unwraps to exactly one of these, so callers
// can classify failures with errors.Is.
var (
	ErrSyntax                   = errors.New("syntax error")
	ErrUnresolvedVariable       = errors.New("unresolved variable")
	ErrUnresolvedView           = errors.New("unresolved view")
	ErrRequireCycle             = errors.New("require cycle")
	ErrTypeConflict             = errors.New("type conflict")
	ErrArityOrSignatureMismatch = errors.New("arity or signature mismatch")
	ErrUnionShapeConflict       = errors.New("union shape conflict")
	ErrDuplicateView            = errors.New("duplicate view")
	ErrComponentCycle           = errors.New("component cycle")
	ErrIO                       = errors.New("i/o error")
)

// Span is a half-open byte range [Start, End) into a source file.
type Span struct {
	Start int
	End   int
}

func (s Span) union(o Span) Span {
	if o.Start < s.Start {
		s.Start = o.Start
	}
	if o.End > s.End {
		s.End = o.End
	}
	return s
}

// Source is one template file held in memory.
type Source struct {
	Path  string
	Text  string
	lines []int // byte offset of the start of every line
}

// NewSource indexes text for position lookups.
func NewSource(path, text string) *Source {
	lines := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Source{Path: path, Text: text, lines: lines}
}

// Position converts a byte offset to a 1-based line and column.
func (s *Source) Position(offset int) (line, col int) {
	if s == nil {
		return 1, 1
	}
	if offset > len(s.Text) {
		offset = len(s.Text)
	}
	i := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - s.lines[i] + 1
}

// Label attaches a secondary message to a span.
type Label struct {
	Span    Span
	Message string
}

// Diagnostic is a single compile error with its location.
type Diagnostic struct {
	Kind    error
	Source  *Source
	Span    Span
	Message string
	Labels  []Label
	Hint    string
}

func newDiagnostic(kind error, src *Source, span Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Source: src, Span: span, Message: fmt.Sprintf(format, args...)}
}

func (d *Diagnostic) label(span Span, format string, args ...any) *Diagnostic {
	d.Labels = append(d.Labels, Label{Span: span, Message: fmt.Sprintf(format, args...)})
	return d
}

func (d *Diagnostic) hint(format string, args ...any) *Diagnostic {
	d.Hint = fmt.Sprintf(format, args...)
	return d
}

// File returns the path of the file the diagnostic points into.
func (d *Diagnostic) File() string {
	if d.Source == nil {
		return "<unknown>"
	}
	return d.Source.Path
}

func (d *Diagnostic) Error() string {
	line, col := d.Source.Position(d.Span.Start)
	return fmt.Sprintf("%s:%d:%d: %s", d.File(), line, col, d.Message)
}

func (d *Diagnostic) Unwrap() error { return d.Kind }

// Render formats the diagnostic with the surrounding source lines, marking the
// offending line with "> " and underlining the span.
func (d *Diagnostic) Render() string {
	var b strings.Builder
	b.WriteString("error: ")
	b.WriteString(d.Message)
	b.WriteString("\n")
	line, col := d.Source.Position(d.Span.Start)
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", d.File(), line, col)
	if d.Source != nil {
		b.WriteString(getContextLines(d.Source, d.Span, 2))
	}
	for _, l := range d.Labels {
		ll, lc := d.Source.Position(l.Span.Start)
		fmt.Fprintf(&b, "  = %d:%d: %s\n", ll, lc, l.Message)
	}
	if d.Hint != "" {
		fmt.Fprintf(&b, "  = hint: %s\n", d.Hint)
	}
	return b.String()
}

// Diagnostics aggregates every error found in one run.
type Diagnostics []*Diagnostic

func (ds Diagnostics) Error() string {
	msgs := make([]string, len(ds))
	for i, d := range ds {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "\n")
}

func (ds Diagnostics) Unwrap() []error {
	errs := make([]error, len(ds))
	for i, d := range ds {
		errs[i] = d
	}
	return errs
}

// Err returns nil for an empty list so callers can write `return ds.Err()`.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return ds
}

// Sort orders diagnostics by file and offset for stable output.
func (ds Diagnostics) Sort() {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].File() != ds[j].File() {
			return ds[i].File() < ds[j].File()
		}
		return ds[i].Span.Start < ds[j].Span.Start
	})
}

// Render joins the rendered form of every diagnostic.
func (ds Diagnostics) Render() string {
	var b strings.Builder
	for i, d := range ds {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.Render())
	}
	return b.String()
}

// asDiagnostics flattens err into a list, wrapping foreign errors as ErrIO.
func asDiagnostics(err error) Diagnostics {
	if err == nil {
		return nil
	}
	var ds Diagnostics
	if errors.As(err, &ds) {
		return ds
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		return Diagnostics{d}
	}
	return Diagnostics{{Kind: ErrIO, Message: err.Error()}}
}
