package compiler

import (
	"sort"
	"strings"
)

// rawTextTags are element names the HTML tokenizer switches into raw-text mode
// for, whatever their case. A view with one of these names could not be used
// as a component tag.
var rawTextTags = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"noscript":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"textarea":  true,
	"title":     true,
	"xmp":       true,
}

// validateViewName checks the naming rules for <view name="...">.
func validateViewName(src *Source, name string, span Span) *Diagnostic {
	if !isIdent(name) {
		return newDiagnostic(ErrSyntax, src, span, "view name %q is not a valid identifier", name)
	}
	if !isUpper(name) {
		return newDiagnostic(ErrSyntax, src, span, "view names must start with a capital letter").
			label(span, "view name should start with a capital").
			hint("rename it to %q", exportName(name))
	}
	if rawTextTags[strings.ToLower(name)] {
		return newDiagnostic(ErrSyntax, src, span, "view name %q conflicts with the HTML element <%s>", name, strings.ToLower(name)).
			hint("the tokenizer treats <%s> as raw text; choose another name such as %q", strings.ToLower(name), "App"+name)
	}
	return nil
}

// levenshteinDistance computes the edit distance between a and b.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	prevRow := make([]int, len(a)+1)
	currRow := make([]int, len(a)+1)
	for j := 0; j <= len(a); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(b); i++ {
		currRow[0] = i
		for j := 1; j <= len(a); j++ {
			cost := 0
			if a[j-1] != b[i-1] {
				cost = 1
			}
			currRow[j] = min(currRow[j-1]+1, prevRow[j]+1, prevRow[j-1]+cost)
		}
		prevRow, currRow = currRow, prevRow
	}
	return prevRow[len(a)]
}

// findSimilarNames returns up to three candidates within edit distance 2 of
// typed, closest first.
func findSimilarNames(typed string, candidates []string) []string {
	const threshold = 2
	const maxSuggestions = 3

	type suggestion struct {
		name     string
		distance int
	}
	var suggestions []suggestion
	for _, c := range candidates {
		dist := levenshteinDistance(strings.ToLower(typed), strings.ToLower(c))
		if dist <= threshold {
			suggestions = append(suggestions, suggestion{c, dist})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].distance != suggestions[j].distance {
			return suggestions[i].distance < suggestions[j].distance
		}
		return suggestions[i].name < suggestions[j].name
	})

	var result []string
	for i := 0; i < len(suggestions) && i < maxSuggestions; i++ {
		result = append(result, suggestions[i].name)
	}
	return result
}

// didYouMean formats a suggestion hint, or returns "" when nothing is close.
func didYouMean(typed string, candidates []string) string {
	similar := findSimilarNames(typed, candidates)
	if len(similar) == 0 {
		return ""
	}
	return "did you mean " + strings.Join(similar, ", ") + "?"
}
