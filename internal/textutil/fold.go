// Package textutil holds the text helpers shared by extraction and filtering.
package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the caseless form of s for comparisons.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether phrase occurs in text, ignoring case.
func ContainsFold(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(Fold(text), Fold(phrase))
}

// FirstFold returns the first of phrases that occurs in text, ignoring case.
func FirstFold(text string, phrases []string) (string, bool) {
	folded := Fold(text)
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(folded, Fold(p)) {
			return p, true
		}
	}
	return "", false
}

// CollapseSpace trims s and replaces every whitespace run with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Sentences splits text on sentence punctuation and line breaks.
func Sentences(text string) []string {
	var out []string
	var sb strings.Builder
	flush := func() {
		if s := CollapseSpace(sb.String()); s != "" {
			out = append(out, s)
		}
		sb.Reset()
	}
	for _, r := range text {
		switch r {
		case '\n', '\r':
			flush()
		case '.', '!', '?', ';':
			sb.WriteRune(r)
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()
	return out
}
