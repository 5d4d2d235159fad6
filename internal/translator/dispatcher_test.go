package translator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/sentence-sub-translator/internal/sentence"
	"github.com/MimeLyc/sentence-sub-translator/internal/subtitle"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CheckConnection(ctx context.Context) ConnectionStatus {
	args := m.Called(ctx)
	return args.Get(0).(ConnectionStatus)
}

func (m *mockBackend) TranslateText(ctx context.Context, text, languageName, model string, temperature float64, maxTokens int) (string, error) {
	args := m.Called(ctx, text, languageName, model, temperature, maxTokens)
	return args.String(0), args.Error(1)
}

func group(texts ...string) sentence.Group {
	entries := make([]subtitle.Entry, len(texts))
	for i, t := range texts {
		entries[i] = subtitle.Entry{ID: i + 1, Text: t}
	}
	return sentence.Group{Entries: entries, JoinedText: sentence.Join(entries)}
}

var turkish = Options{TargetLanguage: "tr", Model: "qwen", Temperature: 0.3, MaxTokens: 100}

func TestDispatcher_StripsDelimiter(t *testing.T) {
	backend := new(mockBackend)
	backend.On("TranslateText", mock.Anything, "Hello, • how are you?", "Turkish", "qwen", 0.3, 100).
		Return("  Merhaba, • nasılsın? ", nil).Once()

	got, err := NewDispatcher(backend).Translate(context.Background(), group("Hello,", "how are you?"), turkish)
	require.NoError(t, err)
	assert.Equal(t, "Merhaba,  nasılsın?", got)
	assert.NotContains(t, got, sentence.Delimiter)
	backend.AssertExpectations(t)
}

func TestDispatcher_MusicalShortCircuit(t *testing.T) {
	backend := new(mockBackend)
	d := NewDispatcher(backend)

	for _, text := range []string{"♪ la la la ♪", "♪♪", "♫ ♫", " ♪ Happy birthday to you ♫ "} {
		got, err := d.Translate(context.Background(), group(text), turkish)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(text), got)
	}
	backend.AssertNotCalled(t, "TranslateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIsMusicalOnly(t *testing.T) {
	assert.True(t, IsMusicalOnly("♪ la la ♪"))
	assert.True(t, IsMusicalOnly("♪\nla la\n♪"))
	assert.False(t, IsMusicalOnly("♪ la la"))
	assert.False(t, IsMusicalOnly("♪la la♪"))
	assert.False(t, IsMusicalOnly("I love ♪ music ♪ so much"))
	assert.False(t, IsMusicalOnly("♪"))
}

func TestDispatcher_WrapsBackendFailure(t *testing.T) {
	backend := new(mockBackend)
	backend.On("TranslateText", mock.Anything, "Hi.", "German", "", 0.0, 10).
		Return("", errors.New("connection refused")).Once()

	_, err := NewDispatcher(backend).Translate(context.Background(), group("Hi."), Options{TargetLanguage: "de", MaxTokens: 10})
	require.Error(t, err)
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDispatcher_KeepsExistingBackendError(t *testing.T) {
	inner := &BackendError{Op: "chat completion", Err: ErrTruncated}
	backend := new(mockBackend)
	backend.On("TranslateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", inner).Once()

	_, err := NewDispatcher(backend).Translate(context.Background(), group("Hi."), turkish)
	assert.Same(t, inner, err)
	assert.ErrorIs(t, err, ErrTruncated)
}
