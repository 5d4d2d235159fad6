package subtitle

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFormat_UsesTranslationWhenPresent(t *testing.T) {
	entries := []Entry{
		{ID: 1, StartTime: "00:00:01,000", EndTime: "00:00:02,000", Text: "Hello,", Translated: strPtr("Merhaba,")},
		{ID: 2, StartTime: "00:00:02,000", EndTime: "00:00:03,000", Text: "how are you?"},
		{ID: 3, StartTime: "00:00:03,000", EndTime: "00:00:04,000", Text: "fine", Translated: strPtr("")},
	}

	got := Format(entries)
	want := "1\n00:00:01,000 --> 00:00:02,000\nMerhaba,\n" +
		"\n2\n00:00:02,000 --> 00:00:03,000\nhow are you?\n" +
		"\n3\n00:00:03,000 --> 00:00:04,000\nfine\n"
	assert.Equal(t, want, got)
}

func TestFormat_RoundTripsThroughReader(t *testing.T) {
	entries := []Entry{
		{ID: 4, StartTime: "00:01:01,000", EndTime: "00:01:02,000", Text: "first\nline"},
		{ID: 5, StartTime: "00:01:03,000", EndTime: "00:01:04,000", Text: "second"},
	}

	file, err := ReadSRTBytes([]byte(Format(entries)))
	require.NoError(t, err)
	assert.Equal(t, entries, file.Entries)
}

func TestWriter_Encodings(t *testing.T) {
	entries := []Entry{{ID: 1, StartTime: "a", EndTime: "b", Text: "café 日本"}}

	utf8, err := NewWriter(EncodingUTF8)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, utf8.Write(&buf, entries))
	assert.Contains(t, buf.String(), "café 日本")

	latin1, err := NewWriter("iso-8859-1")
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, latin1.Write(&buf, entries))
	assert.True(t, bytes.Contains(buf.Bytes(), []byte{'c', 'a', 'f', 0xe9}))
	assert.NotContains(t, buf.String(), "日本")

	_, err = NewWriter("ebcdic")
	require.Error(t, err)

	cp1252, err := NewWriter(EncodingWindows1252)
	require.NoError(t, err)
	require.Error(t, cp1252.Write(&buf, nil))
}
