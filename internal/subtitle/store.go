package subtitle

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Store holds the ordered entries of the loaded track and their translation
// state. Readers may run concurrently with a single writer; every write
// touches exactly one entry, addressed by id.
type Store struct {
	mu       sync.RWMutex
	entries  []Entry
	byID     map[int]int
	language language.Tag
	format   string
}

func NewStore() *Store {
	return &Store{byID: make(map[int]int)}
}

// Load replaces the store content with the entries of f.
func (s *Store) Load(f *File) error {
	if f == nil {
		return fmt.Errorf("subtitle file is nil")
	}

	byID := make(map[int]int, len(f.Entries))
	entries := make([]Entry, len(f.Entries))
	for i, e := range f.Entries {
		if _, dup := byID[e.ID]; dup {
			return fmt.Errorf("duplicate subtitle id %d", e.ID)
		}
		byID[e.ID] = i
		entries[i] = e
	}

	s.mu.Lock()
	s.entries = entries
	s.byID = byID
	s.language = f.Language
	s.format = f.Format
	s.mu.Unlock()
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Language() language.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

func (s *Store) Format() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

// Entries returns a snapshot of all entries in input order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Slice returns a snapshot of entries[start:end].
func (s *Store) Slice(start, end int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if start < 0 || end > len(s.entries) || start >= end {
		return nil, fmt.Errorf("invalid range [%d, %d) over %d entries", start, end, len(s.entries))
	}
	return append([]Entry(nil), s.entries[start:end]...), nil
}

func (s *Store) Get(id int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// SetTranslation stores the translated text of entry id.
func (s *Store) SetTranslation(id int, translated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("subtitle %d not found", id)
	}
	t := translated
	s.entries[i].Translated = &t
	return nil
}

// ClearTranslation removes the translation of entry id.
func (s *Store) ClearTranslation(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("subtitle %d not found", id)
	}
	s.entries[i].Translated = nil
	return nil
}

// SetText replaces the original text of entry id.
func (s *Store) SetText(id int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("subtitle %d not found", id)
	}
	s.entries[i].Text = text
	return nil
}

// Search returns the entries whose text or translation contains term,
// ignoring case. An empty term returns everything.
func (s *Store) Search(term string) []Entry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.Entries()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]Entry, 0)
	for _, e := range s.entries {
		if strings.Contains(strings.ToLower(e.Text), term) ||
			(e.Translated != nil && strings.Contains(strings.ToLower(*e.Translated), term)) {
			ret = append(ret, e)
		}
	}
	return ret
}
