package subtitle

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Supported export encodings.
const (
	EncodingUTF8        = "UTF-8"
	EncodingISO88591    = "ISO-8859-1"
	EncodingWindows1252 = "Windows-1252"
)

// Encodings lists the export encodings in display order.
func Encodings() []string {
	return []string{EncodingUTF8, EncodingISO88591, EncodingWindows1252}
}

// Format renders entries as SRT text using the translation when present.
// Records are "{id}\n{start} --> {end}\n{text}\n" joined by a blank line.
func Format(entries []Entry) string {
	records := make([]string, 0, len(entries))
	for _, e := range entries {
		records = append(records, fmt.Sprintf("%d\n%s --> %s\n%s\n", e.ID, e.StartTime, e.EndTime, e.Output()))
	}
	return strings.Join(records, "\n")
}

// DefaultWriter writes SRT text in a fixed character encoding
type DefaultWriter struct {
	encoder *encoding.Encoder
}

// NewWriter creates a writer for the named encoding. Characters the
// encoding cannot represent are replaced rather than failing the export.
func NewWriter(enc string) (Writer, error) {
	w := &DefaultWriter{}
	switch normalizeEncoding(enc) {
	case "", "utf8":
	case "iso88591", "latin1":
		w.encoder = encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	case "windows1252", "cp1252":
		w.encoder = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", enc)
	}
	return w, nil
}

func (w *DefaultWriter) Write(out io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("subtitle data is empty")
	}

	content := Format(entries)
	if w.encoder != nil {
		encoded, err := w.encoder.String(content)
		if err != nil {
			return fmt.Errorf("failed to encode subtitles: %w", err)
		}
		content = encoded
	}

	if _, err := io.WriteString(out, content); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}
	return nil
}

func normalizeEncoding(enc string) string {
	enc = strings.ToLower(strings.TrimSpace(enc))
	enc = strings.NewReplacer("-", "", "_", "", " ", "").Replace(enc)
	return enc
}
