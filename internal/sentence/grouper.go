// Package sentence groups consecutive subtitle entries into sentence-sized
// chunks that are translated in one backend call.
package sentence

import (
	"regexp"
	"strings"

	"github.com/MimeLyc/sentence-sub-translator/internal/subtitle"
)

// Delimiter separates member texts inside JoinedText. It must not occur in
// subtitle text; an entry consisting only of the delimiter is unsupported.
const Delimiter = "•"

const joinSeparator = " " + Delimiter + " "

var sentenceEnd = regexp.MustCompile(`[.!?♪](\s|$)`)

// Group is a contiguous, non-empty run of entries ending on a sentence
// boundary or at the end of the range.
type Group struct {
	Entries    []subtitle.Entry
	JoinedText string
}

// IsSentenceEnd reports whether text contains a terminator (. ! ? ♪)
// followed by whitespace or the end of the trimmed text.
func IsSentenceEnd(text string) bool {
	return sentenceEnd.MatchString(strings.TrimSpace(text))
}

// Join concatenates entry texts with the delimiter.
func Join(entries []subtitle.Entry) string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	return strings.Join(texts, joinSeparator)
}

// GroupEntries scans entries left to right and closes a group on every
// sentence end and on the last entry. Every entry lands in exactly one
// group and input order is preserved.
func GroupEntries(entries []subtitle.Entry) []Group {
	var groups []Group
	start := 0
	for i, e := range entries {
		if !IsSentenceEnd(e.Text) && i != len(entries)-1 {
			continue
		}
		members := append([]subtitle.Entry(nil), entries[start:i+1]...)
		groups = append(groups, Group{
			Entries:    members,
			JoinedText: Join(members),
		})
		start = i + 1
	}
	return groups
}
