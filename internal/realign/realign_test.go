package realign

import (
	"math"
	"math/rand"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/sentence-sub-translator/internal/subtitle"
)

func originals(texts ...string) []subtitle.Entry {
	ret := make([]subtitle.Entry, len(texts))
	for i, t := range texts {
		ret[i] = subtitle.Entry{ID: i + 1, Text: t}
	}
	return ret
}

func TestRealign_CommaAffinity(t *testing.T) {
	got := Realign("Merhaba, nasılsın?", originals("Hello,", "how are you?"))
	assert.Equal(t, []string{"Merhaba,", "nasılsın?"}, got)

	got = Realign(
		"Wir gingen früh auf den Markt, und wir kauften frisches Brot.",
		originals("We went to the market early,", "and we bought fresh bread."),
	)
	assert.Equal(t, []string{"Wir gingen früh auf den Markt,", "und wir kauften frisches Brot."}, got)
}

func TestRealign_SentenceEnds(t *testing.T) {
	got := Realign(
		"Wohin gehst du heute Abend? Ich möchte mit dir kommen.",
		originals("Where are you going tonight?", "I want to come with you."),
	)
	assert.Equal(t, []string{"Wohin gehst du heute Abend?", "Ich möchte mit dir kommen."}, got)
}

func TestRealign_CommaInsideSingleSentence(t *testing.T) {
	got := Realign(
		"Ich ging heute Morgen in den Laden, um Brot zu kaufen.",
		originals("I went to the store this morning", "to buy some bread."),
	)
	assert.Equal(t, []string{"Ich ging heute Morgen in den Laden,", "um Brot zu kaufen."}, got)
}

func TestRealign_SemicolonsFallBackToWhitespace(t *testing.T) {
	got := Realign("eins zwei drei; vier fuenf sechs", originals("one two three", "four five six"))
	assert.Equal(t, []string{"eins zwei drei;", "vier fuenf sechs"}, got)

	got = Realign("aaaa; bbbb cccc dddd eeee ffff", originals("one two three", "four five six"))
	assert.Equal(t, []string{"aaaa; bbbb cccc", "dddd eeee ffff"}, got)
}

// randomSegment builds exactly length ASCII runes of words, occasionally
// followed by inner punctuation, closed by end.
func randomSegment(rng *rand.Rand, length int, end byte) string {
	var sb strings.Builder
	for sb.Len() < length-1 {
		w := 2 + rng.Intn(7)
		if remaining := length - 1 - sb.Len(); w > remaining {
			w = remaining
		}
		for j := 0; j < w; j++ {
			sb.WriteByte(byte('a' + rng.Intn(26)))
		}
		rest := length - 1 - sb.Len()
		switch {
		case rest >= 4 && rng.Intn(6) == 0:
			sb.WriteByte(",.!?:"[rng.Intn(5)])
			sb.WriteByte(' ')
		case rest >= 2:
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte(end)
	return sb.String()
}

func TestRealign_ProportionalityBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 2000; run++ {
		n := 2 + rng.Intn(4)
		lines := make([]string, n)
		total := 0
		for i := range lines {
			lines[i] = strings.Repeat("a", 20+rng.Intn(21))
			total += len(lines[i])
		}

		// every segment ends on a comma, far enough from its neighbours
		// to survive declustering
		scale := n*80 + rng.Intn(n*40+1)
		segments := make([]string, n)
		for i, line := range lines {
			end := byte(',')
			if i == n-1 {
				end = '.'
			}
			length := int(math.Round(float64(len(line)) / float64(total) * float64(scale)))
			segments[i] = randomSegment(rng, length, end)
		}
		text := strings.Join(segments, " ")

		got := Realign(text, originals(lines...))
		require.Len(t, got, n)
		assert.NotContains(t, got, MissingTranslation, text)
		for i, segment := range got {
			want := float64(len(lines[i])) / float64(total) * float64(len(text))
			assert.InDelta(t, want, float64(len(segment)), clusterRadius, "segment %d of %q", i, text)
		}
	}
}

func TestRealign_ProportionalWhitespace(t *testing.T) {
	got := Realign("xxxx yyyy zzzz wwww", originals("aaaa bbbb", "cccc dddd"))
	assert.Equal(t, []string{"xxxx yyyy", "zzzz wwww"}, got)
}

func TestRealign_SingleEntry(t *testing.T) {
	assert.Equal(t, []string{"Merhaba dünya"}, Realign("  Merhaba dünya \n", originals("Hello world")))
	assert.Equal(t, []string{MissingTranslation}, Realign("   ", originals("Hello world")))
	assert.Nil(t, Realign("text", nil))
}

func TestRealign_MultibyteWithoutSpaces(t *testing.T) {
	got := Realign("こんにちは友よ", originals("Hello there", "my friend"))
	require.Len(t, got, 2)
	for _, line := range got {
		assert.True(t, utf8.ValidString(line))
	}
	assert.Equal(t, "こんにちは友よ", got[0]+got[1])
}

func TestRealign_EmptyOriginalsShareEqually(t *testing.T) {
	got := Realign("aaaa bbbb", originals("", ""))
	assert.Equal(t, []string{"aaaa", "bbbb"}, got)
}

func TestRealign_AlwaysReturnsOneLinePerEntry(t *testing.T) {
	texts := []string{
		"",
		"a",
		"Hallo.",
		",,,,,,",
		"Ja, ja, ja; nein: doch! Wirklich? \"Ja.\"",
		"Ein sehr langer Satz ohne jede Interpunktion der immer weiter geht und geht",
		"Kurz, knapp.",
	}
	lines := []string{"Well,", "you know", "\"what\"", "I mean.", "", "really?"}

	for _, text := range texts {
		for n := 2; n <= len(lines); n++ {
			got := Realign(text, originals(lines[:n]...))
			require.Len(t, got, n, "text %q over %d lines", text, n)
			for _, line := range got {
				assert.NotEmpty(t, line)
			}
		}
	}
}

func TestRealign_KeepsAllText(t *testing.T) {
	cases := []struct {
		text  string
		lines []string
	}{
		{"Merhaba, nasılsın? Ben iyiyim, teşekkürler.", []string{"Hello,", "how are you?", "I'm fine, thanks."}},
		{"Eins zwei drei vier fünf sechs sieben acht neun zehn", []string{"one two three", "four five six seven", "eight nine ten"}},
		{"Er sagte: \"Komm her\", und ging; dann war er weg.", []string{"He said:", "\"Come here\",", "and left; then he was gone."}},
	}

	strip := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
	}

	for _, tc := range cases {
		got := Realign(tc.text, originals(tc.lines...))
		require.Len(t, got, len(tc.lines))
		var kept []string
		for _, line := range got {
			if line != MissingTranslation {
				kept = append(kept, line)
			}
		}
		assert.Equal(t, strip(tc.text), strip(strings.Join(kept, "")), tc.text)
	}
}

func TestSplitByProportion_StaysNearIdeal(t *testing.T) {
	runes := []rune(strings.Repeat("wort ", 40))
	ideals := idealOffsets(len(runes), []float64{0.13, 0.29, 0.31, 0.27})

	cuts := splitByProportion(runes, ideals)
	require.Len(t, cuts, len(ideals))
	for i, cut := range cuts {
		assert.LessOrEqual(t, abs(cut-ideals[i]), whitespaceRadius)
		assert.True(t, unicode.IsSpace(runes[cut]))
	}
}

func TestSplitByProportion_NoWhitespaceCutsAtIdeal(t *testing.T) {
	runes := []rune(strings.Repeat("x", 100))
	assert.Equal(t, []int{50}, splitByProportion(runes, []int{50}))
}

func TestFindBreakPoints(t *testing.T) {
	got := FindBreakPoints([]rune("a, b. c; d\"ü:"))
	assert.Equal(t, []BreakPoint{
		{Index: 2, Char: ',', Priority: 3},
		{Index: 5, Char: '.', Priority: 2},
		{Index: 8, Char: ';', Priority: 1},
		{Index: 11, Char: '"', Priority: 3},
		{Index: 13, Char: ':', Priority: 2},
	}, got)
}

func TestSelectNearest_Declusters(t *testing.T) {
	pool := []BreakPoint{{Index: 10}, {Index: 15}, {Index: 40}}
	assert.Equal(t, []int{10, 40}, selectNearest(pool, []int{12, 14}))
}
