// Package termmap holds the glossary of fixed translations (names, places,
// recurring terms) that is injected into translation prompts.
package termmap

import (
	"fmt"
	"sort"
	"strings"
)

// TermMap maps source language terms to target language terms.
type TermMap map[string]string

// MatchResult holds terms that matched against input texts.
type MatchResult struct {
	Matched TermMap
}

// Empty reports whether nothing matched.
func (r MatchResult) Empty() bool {
	return len(r.Matched) == 0
}

// Prompt renders the matched terms as prompt lines sorted by source term,
// or "" when nothing matched.
func (r MatchResult) Prompt() string {
	if r.Empty() {
		return ""
	}

	sources := make([]string, 0, len(r.Matched))
	for source := range r.Matched {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var b strings.Builder
	b.WriteString("Use these fixed translations:\n")
	for _, source := range sources {
		fmt.Fprintf(&b, "- %s => %s\n", source, r.Matched[source])
	}
	return strings.TrimRight(b.String(), "\n")
}
