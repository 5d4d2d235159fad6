package subtitle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Load(&File{
		Entries: []Entry{
			{ID: 10, Text: "Hello,"},
			{ID: 11, Text: "how are you?"},
			{ID: 12, Text: "Fine."},
		},
		Language: language.English,
		Format:   "SRT",
	}))
	return s
}

func TestStore_UpdatesByID(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetTranslation(11, "nasılsın?"))
	e, ok := s.Get(11)
	require.True(t, ok)
	require.NotNil(t, e.Translated)
	assert.Equal(t, "nasılsın?", *e.Translated)

	require.NoError(t, s.SetText(12, "Great."))
	e, _ = s.Get(12)
	assert.Equal(t, "Great.", e.Text)

	require.NoError(t, s.ClearTranslation(11))
	e, _ = s.Get(11)
	assert.Nil(t, e.Translated)

	assert.Error(t, s.SetTranslation(99, "x"))
	assert.Error(t, s.SetText(99, "x"))
	assert.Equal(t, language.English, s.Language())
	assert.Equal(t, "SRT", s.Format())
}

func TestStore_SnapshotsAreIndependent(t *testing.T) {
	s := newTestStore(t)

	snap := s.Entries()
	snap[0].Text = "mutated"

	e, _ := s.Get(10)
	assert.Equal(t, "Hello,", e.Text)
}

func TestStore_Slice(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Slice(1, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 11, got[0].ID)

	_, err = s.Slice(2, 2)
	assert.Error(t, err)
	_, err = s.Slice(0, 4)
	assert.Error(t, err)
}

func TestStore_Search(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetTranslation(12, "Iyiyim."))

	assert.Len(t, s.Search(""), 3)
	got := s.Search("HOW")
	require.Len(t, got, 1)
	assert.Equal(t, 11, got[0].ID)
	got = s.Search("iyiyim")
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].ID)
}

func TestStore_RejectsDuplicateIDs(t *testing.T) {
	s := NewStore()
	err := s.Load(&File{Entries: []Entry{{ID: 1}, {ID: 1}}})
	require.Error(t, err)
}

func TestStore_ConcurrentReadsDuringWrites(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.SetTranslation(10+i%3, "x")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.Entries()
			_ = s.Search("x")
		}
	}()
	wg.Wait()

	for _, e := range s.Entries() {
		assert.True(t, e.HasTranslation())
	}
}
