// Package realign splits one translated sentence back into as many lines as
// the original subtitle group had, keeping each line's share of the text.
package realign

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/MimeLyc/sentence-sub-translator/internal/subtitle"
)

// MissingTranslation fills a line for which no segment could be produced.
const MissingTranslation = "[Error: Missing translation]"

const (
	// break points closer than this to a chosen one are discarded
	clusterRadius = 10
	// how far the whitespace fallback looks around an ideal offset
	whitespaceRadius = 15
)

// BreakPoint is a candidate cut right after a punctuation character.
// Index is a rune offset into the translated text.
type BreakPoint struct {
	Index    int
	Char     rune
	Priority int
}

// Realign returns exactly len(entries) strings. Lines that end up empty hold
// MissingTranslation.
func Realign(text string, entries []subtitle.Entry) []string {
	n := len(entries)
	switch n {
	case 0:
		return nil
	case 1:
		return []string{orMissing(strings.TrimSpace(text))}
	}

	runes := []rune(text)
	ideals := idealOffsets(len(runes), ratios(entries))
	ends := endings(entries)
	points := FindBreakPoints(runes)

	var cuts []int
	switch {
	case hasCommaOrQuoteEnding(ends[:n-1]) && len(filter(points, isCommaOrQuote)) >= n-1:
		cuts = selectWithEndings(filter(points, isCommaOrQuote), ideals, ends)
	case len(filter(points, isPunctuation)) >= n-1:
		cuts = selectNearest(filter(points, isPunctuation), ideals)
	default:
		cuts = splitByProportion(runes, ideals)
	}

	return splitAt(runes, cuts, n)
}

// FindBreakPoints lists every punctuation break in index order.
// Tiers: comma and quote 3, . ! ? : 2, semicolon 1.
func FindBreakPoints(runes []rune) []BreakPoint {
	var points []BreakPoint
	for i, r := range runes {
		var priority int
		switch r {
		case ',', '"':
			priority = 3
		case '.', '!', '?', ':':
			priority = 2
		case ';':
			priority = 1
		default:
			continue
		}
		points = append(points, BreakPoint{Index: i + 1, Char: r, Priority: priority})
	}
	return points
}

// ratios is each entry's share of the total original length. Groups of
// empty entries share the text equally.
func ratios(entries []subtitle.Entry) []float64 {
	lengths := make([]int, len(entries))
	total := 0
	for i, e := range entries {
		lengths[i] = len([]rune(e.Text))
		total += lengths[i]
	}

	ret := make([]float64, len(entries))
	for i := range entries {
		if total == 0 {
			ret[i] = 1 / float64(len(entries))
			continue
		}
		ret[i] = float64(lengths[i]) / float64(total)
	}
	return ret
}

// idealOffsets turns the cumulative ratios (all but the last) into rune
// offsets into a text of the given length.
func idealOffsets(length int, ratios []float64) []int {
	offsets := make([]int, 0, len(ratios)-1)
	cumulative := 0.0
	for _, r := range ratios[:len(ratios)-1] {
		cumulative += r
		offsets = append(offsets, int(math.Round(float64(length)*cumulative)))
	}
	return offsets
}

func endings(entries []subtitle.Entry) []rune {
	ret := make([]rune, len(entries))
	for i, e := range entries {
		trimmed := []rune(strings.TrimSpace(e.Text))
		if len(trimmed) > 0 {
			ret[i] = trimmed[len(trimmed)-1]
		}
	}
	return ret
}

func isCommaOrQuote(bp BreakPoint) bool { return bp.Char == ',' || bp.Char == '"' }

// isPunctuation keeps the comma, quote and sentence-end tiers. Semicolons
// alone never justify a punctuation split.
func isPunctuation(bp BreakPoint) bool { return bp.Priority >= 2 }

func hasCommaOrQuoteEnding(endings []rune) bool {
	for _, r := range endings {
		if r == ',' || r == '"' {
			return true
		}
	}
	return false
}

func filter(points []BreakPoint, keep func(BreakPoint) bool) []BreakPoint {
	var ret []BreakPoint
	for _, bp := range points {
		if keep(bp) {
			ret = append(ret, bp)
		}
	}
	return ret
}

// closest returns the point nearest to offset; the earliest wins a tie.
func closest(points []BreakPoint, offset int) BreakPoint {
	best := points[0]
	for _, bp := range points[1:] {
		if abs(bp.Index-offset) < abs(best.Index-offset) {
			best = bp
		}
	}
	return best
}

func decluster(points []BreakPoint, chosen int) []BreakPoint {
	return filter(points, func(bp BreakPoint) bool {
		return abs(bp.Index-chosen) > clusterRadius
	})
}

// selectNearest picks, for each ideal offset in turn, the nearest remaining
// break point. The pool is shared across offsets, so the result is greedy.
func selectNearest(pool []BreakPoint, ideals []int) []int {
	var cuts []int
	for _, ideal := range ideals {
		if len(pool) == 0 {
			break
		}
		bp := closest(pool, ideal)
		cuts = append(cuts, bp.Index)
		pool = decluster(pool, bp.Index)
	}
	return cuts
}

// selectWithEndings prefers, for lines that ended on a comma or quote, a
// break on the same character before falling back to the nearest break.
func selectWithEndings(pool []BreakPoint, ideals []int, endings []rune) []int {
	var cuts []int
	for i, ideal := range ideals {
		if end := endings[i]; end == ',' || end == '"' {
			same := filter(pool, func(bp BreakPoint) bool { return bp.Char == end })
			if len(same) > 0 {
				bp := closest(same, ideal)
				cuts = append(cuts, bp.Index)
				pool = decluster(pool, bp.Index)
				continue
			}
		}
		if len(pool) > 0 {
			bp := closest(pool, ideal)
			cuts = append(cuts, bp.Index)
			pool = decluster(pool, bp.Index)
		}
	}
	return cuts
}

// splitByProportion moves each ideal offset to the nearest whitespace,
// checking forward before backward at each distance. Without whitespace in
// range the text is cut at the ideal offset.
func splitByProportion(runes []rune, ideals []int) []int {
	cuts := make([]int, 0, len(ideals))
	for _, ideal := range ideals {
		cut := ideal
		for j := 0; j < whitespaceRadius; j++ {
			if ideal+j < len(runes) && unicode.IsSpace(runes[ideal+j]) {
				cut = ideal + j
				break
			}
			if ideal-j > 0 && ideal-j < len(runes) && unicode.IsSpace(runes[ideal-j]) {
				cut = ideal - j
				break
			}
		}
		cuts = append(cuts, cut)
	}
	return cuts
}

// splitAt cuts runes at the sorted, deduplicated offsets and pads the
// result to n lines.
func splitAt(runes []rune, cuts []int, n int) []string {
	sorted := make([]int, 0, len(cuts))
	for _, c := range cuts {
		if c < 0 {
			c = 0
		}
		if c > len(runes) {
			c = len(runes)
		}
		sorted = append(sorted, c)
	}
	sort.Ints(sorted)

	lines := make([]string, 0, n)
	start := 0
	for i, c := range sorted {
		if i > 0 && c == sorted[i-1] {
			continue
		}
		lines = append(lines, orMissing(strings.TrimSpace(string(runes[start:c]))))
		start = c
	}
	lines = append(lines, orMissing(strings.TrimSpace(string(runes[start:]))))

	for len(lines) < n {
		lines = append(lines, MissingTranslation)
	}
	return lines[:n]
}

func orMissing(s string) string {
	if s == "" {
		return MissingTranslation
	}
	return s
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
