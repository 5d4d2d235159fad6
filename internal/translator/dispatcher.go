package translator

import (
	"context"
	"regexp"
	"strings"

	"github.com/MimeLyc/sentence-sub-translator/internal/sentence"
	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

// a marker, optionally space-content-space, then a marker
var musicalOnly = regexp.MustCompile(`(?s)^[♪♫](\s.*\s|\s*)[♪♫]$`)

// Dispatcher translates one sentence group per backend call.
type Dispatcher struct {
	backend Backend
}

func NewDispatcher(backend Backend) *Dispatcher {
	return &Dispatcher{backend: backend}
}

// IsMusicalOnly reports whether text is a lyric or note line that is
// passed through untranslated.
func IsMusicalOnly(text string) bool {
	return musicalOnly.MatchString(strings.TrimSpace(text))
}

// Translate returns the translation of g.JoinedText with every delimiter
// removed. Musical lines are returned without calling the backend.
func (d *Dispatcher) Translate(ctx context.Context, g sentence.Group, opts Options) (string, error) {
	if IsMusicalOnly(g.JoinedText) {
		log.Debug("Skipping musical group of %d entries", len(g.Entries))
		return stripDelimiter(g.JoinedText), nil
	}

	translated, err := d.backend.TranslateText(
		ctx,
		g.JoinedText,
		LanguageName(opts.TargetLanguage),
		opts.Model,
		opts.Temperature,
		opts.MaxTokens,
	)
	if err != nil {
		return "", backendError("translate", err)
	}

	return stripDelimiter(translated), nil
}

func stripDelimiter(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, sentence.Delimiter, ""))
}
