package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		want string
	}{
		{"", ".srt", ""},
		{"movie.vtt", ".srt", "movie.srt"},
		{"dir/movie.en.vtt", "srt", "dir/movie.en.srt"},
		{"noext", ".srt", "noext.srt"},
		{".hidden", ".srt", ".hidden.srt"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ReplaceExt(tt.path, tt.ext))
		})
	}
}

func TestEnsureExt(t *testing.T) {
	const fallback = "translated_subtitles.srt"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty uses fallback", "", fallback},
		{"blank uses fallback", "   ", fallback},
		{"adds extension", "episode01", "episode01.srt"},
		{"keeps extension", "episode01.srt", "episode01.srt"},
		{"extension is case insensitive", "EPISODE.SRT", "EPISODE.SRT"},
		{"other extension is kept as part of the name", "episode.txt", "episode.txt.srt"},
		{"drops directories", "../../etc/passwd", "passwd.srt"},
		{"drops windows directories", `C:\subs\ep.srt`, "ep.srt"},
		{"replaces source extension", "episode.vtt", "episode.srt"},
		{"replaces source extension case insensitive", "dir/Episode.ASS", "Episode.srt"},
		{"keeps language suffix", "episode.en.ttml", "episode.en.srt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnsureExt(tt.input, "srt", fallback, ".vtt", "ass", ".ttml"))
		})
	}
}
