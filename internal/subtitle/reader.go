package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/asticode/go-astisub"
	"golang.org/x/text/language"
)

// DefaultReader is the default subtitle file reader
type DefaultReader struct {
	path string
	opts []ReadOption
}

// NewReader creates a new subtitle file reader. The format is picked from
// the file extension.
func NewReader(
	path string,
	opts ...ReadOption,
) Reader {
	return &DefaultReader{
		path: path,
		opts: opts,
	}
}

func (r *DefaultReader) Read() (*File, error) {
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("subtitle file does not exist: %s", r.path)
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(r.path)), ".")
	file, err := ReadBytes(data, format, r.opts...)
	if err != nil {
		return nil, err
	}
	file.Path = r.path
	return file, nil
}

// SourceExtensions lists the file extensions ReadBytes understands besides
// .srt.
func SourceExtensions() []string {
	return []string{".vtt", ".webvtt", ".ass", ".ssa", ".ttml", ".dfxp"}
}

// ReadBytes decodes a subtitle track of the given format ("srt", "vtt",
// "ass", "ssa", "ttml"). An empty format means SRT.
func ReadBytes(data []byte, format string, opts ...ReadOption) (*File, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "srt":
		return ReadSRTBytes(data, opts...)
	case "vtt", "webvtt":
		subs, err := astisub.ReadFromWebVTT(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse webvtt: %w", err)
		}
		return fromAstisub(subs, "VTT", opts)
	case "ass", "ssa":
		subs, err := astisub.ReadFromSSA(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ssa: %w", err)
		}
		return fromAstisub(subs, "ASS", opts)
	case "ttml", "dfxp":
		subs, err := astisub.ReadFromTTML(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ttml: %w", err)
		}
		return fromAstisub(subs, "TTML", opts)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", format)
	}
}

// ReadSRTBytes decodes SRT content. Cue indexes become entry ids and the
// timing line is split on "-->" without interpreting the timestamps.
func ReadSRTBytes(data []byte, opts ...ReadOption) (*File, error) {
	o := newReadOptions(opts)
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var entries []Entry
	seen := make(map[int]bool)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := Entry{}
	state := "index" // possible values: "index", "time", "text"
	var textLines []string

	flush := func() error {
		if seen[current.ID] {
			return fmt.Errorf("duplicate subtitle index %d", current.ID)
		}
		seen[current.ID] = true
		current.Text = strings.Join(textLines, "\n")
		entries = append(entries, current)
		current = Entry{}
		textLines = nil
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				continue // skip non-index lines
			}
			current.ID = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			start, end, err := splitTimingLine(line)
			if err != nil {
				return nil, fmt.Errorf("subtitle %d: %w", current.ID, err)
			}
			current.StartTime = start
			current.EndTime = end
			state = "text"

		case "text":
			if line == "" {
				if err := flush(); err != nil {
					return nil, err
				}
				state = "index"
				continue
			}
			textLines = append(textLines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitle data: %w", err)
	}

	// handle last cue without trailing blank line
	if state == "text" {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if o.trailingComma {
		applyTrailingComma(entries)
	}

	return &File{
		Entries:  entries,
		Language: detectLanguage(entries),
		Format:   "SRT",
	}, nil
}

func splitTimingLine(line string) (string, string, error) {
	start, end, ok := strings.Cut(line, "-->")
	if !ok {
		return "", "", fmt.Errorf("invalid time line: %s", line)
	}
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" || end == "" {
		return "", "", fmt.Errorf("invalid time line: %s", line)
	}
	// drop positioning hints such as "X1:40 X2:600"
	if fields := strings.Fields(end); len(fields) > 1 {
		end = fields[0]
	}
	return start, end, nil
}

func fromAstisub(subs *astisub.Subtitles, format string, opts []ReadOption) (*File, error) {
	o := newReadOptions(opts)

	entries := make([]Entry, 0, len(subs.Items))
	for i, item := range subs.Items {
		if item == nil {
			continue
		}
		lines := make([]string, 0, len(item.Lines))
		for _, l := range item.Lines {
			var sb strings.Builder
			for _, li := range l.Items {
				sb.WriteString(li.Text)
			}
			if text := strings.TrimSpace(sb.String()); text != "" {
				lines = append(lines, text)
			}
		}
		entries = append(entries, Entry{
			ID:        i + 1,
			StartTime: FormatTimestamp(item.StartAt),
			EndTime:   FormatTimestamp(item.EndAt),
			Text:      strings.Join(lines, "\n"),
		})
	}

	if o.trailingComma {
		applyTrailingComma(entries)
	}

	return &File{
		Entries:  entries,
		Language: detectLanguage(entries),
		Format:   format,
	}, nil
}

// FormatTimestamp renders d as an SRT timestamp (00:02:16,612).
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}

var sentenceClosers = []string{"♪", "♫", ",", ".", "?", "!"}

func applyTrailingComma(entries []Entry) {
	for i := range entries {
		text := entries[i].Text
		if text == "" {
			continue
		}
		closed := false
		for _, c := range sentenceClosers {
			if strings.HasSuffix(text, c) {
				closed = true
				break
			}
		}
		if !closed {
			entries[i].Text = text + ","
		}
	}
}

// detectLanguage returns the most frequent language over all entries
func detectLanguage(entries []Entry) language.Tag {
	if len(entries) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, entry := range entries {
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}
		lang := whatlanggo.DetectLang(entry.Text).Iso6391()
		if lang == "" {
			continue
		}
		langMap[lang]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount || (count == topCount && lang < topLang) {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}

	tag, err := language.Parse(topLang)
	if err != nil {
		return language.Und
	}
	return tag
}
