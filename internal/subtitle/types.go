package subtitle

import (
	"io"

	"golang.org/x/text/language"
)

// Reader is the interface for reading subtitle files
type Reader interface {
	Read() (*File, error)
}

// Writer is the interface for writing subtitle tracks
type Writer interface {
	Write(w io.Writer, entries []Entry) error
}

// Entry represents a single timed subtitle line.
// ID comes from the cue index of the source file and is the join key used by
// every later stage. StartTime and EndTime are kept as the literal timestamps.
type Entry struct {
	ID         int     `json:"id"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Text       string  `json:"text"`
	Translated *string `json:"translated,omitempty"`
}

// HasTranslation reports whether a non-empty translation is set.
func (e Entry) HasTranslation() bool {
	return e.Translated != nil && *e.Translated != ""
}

// Output returns the translation when present, the original text otherwise.
func (e Entry) Output() string {
	if e.HasTranslation() {
		return *e.Translated
	}
	return e.Text
}

// File represents a decoded subtitle track
type File struct {
	Entries  []Entry
	Language language.Tag
	Format   string // e.g. SRT, VTT, ASS
	Path     string
}

// ReadOption tweaks decoding.
type ReadOption func(*readOptions)

type readOptions struct {
	trailingComma bool
}

// WithTrailingComma appends "," to every entry whose text does not already end
// in a musical note or one of , . ? !
func WithTrailingComma(enabled bool) ReadOption {
	return func(o *readOptions) {
		o.trailingComma = enabled
	}
}

func newReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
