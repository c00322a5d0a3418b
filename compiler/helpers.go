package compiler

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// getContextLines renders the lines around span. The first line of the span is
// marked with "> " and underlined with carets.
func getContextLines(src *Source, span Span, contextSize int) string {
	lines := strings.Split(src.Text, "\n")
	lineNumber, col := src.Position(span.Start)

	startLine := lineNumber - contextSize - 1
	if startLine < 0 {
		startLine = 0
	}
	endLine := lineNumber + contextSize
	if endLine > len(lines) {
		endLine = len(lines)
	}

	var result strings.Builder
	for i := startLine; i < endLine; i++ {
		lineNum := i + 1
		prefix := "  "
		if lineNum == lineNumber {
			prefix = "> "
		}
		result.WriteString(fmt.Sprintf("%s%4d | %s\n", prefix, lineNum, lines[i]))
		if lineNum == lineNumber {
			width := span.End - span.Start
			if rest := len(lines[i]) - (col - 1); width > rest {
				width = rest
			}
			if width < 1 {
				width = 1
			}
			result.WriteString(fmt.Sprintf("       | %s%s\n", strings.Repeat(" ", col-1), strings.Repeat("^", width)))
		}
	}
	return result.String()
}

// isIdent reports whether s is a template identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// exportName maps a template field name to an exported Go identifier.
func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == '_' {
		return "X" + name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// unexportName lowercases the first rune of a view name for package-private helpers.
func unexportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}

// bindName maps a loop or case binding to a scope struct field.
func bindName(name string) string {
	if token.IsKeyword(name) || name == "input" {
		return name + "_"
	}
	return name
}

func isUpper(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
