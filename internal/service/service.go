// Package service is the session façade: one loaded subtitle track, the
// backend connection state, the translation job and the user settings.
package service

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/MimeLyc/sentence-sub-translator/internal/config"
	"github.com/MimeLyc/sentence-sub-translator/internal/jobs"
	"github.com/MimeLyc/sentence-sub-translator/internal/subtitle"
	"github.com/MimeLyc/sentence-sub-translator/internal/translator"
	"github.com/MimeLyc/sentence-sub-translator/pkg/file"
	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

// DefaultExportName is offered when the caller gives no file name.
const DefaultExportName = "translated_subtitles.srt"

type Service struct {
	store        *subtitle.Store
	backend      Backend
	orchestrator *jobs.Orchestrator
	validator    *requestValidator
	errHandler   ErrorHandler

	cron          CronScheduler
	settingsStore *config.RuntimeSettingsStore
	glossaryFile  string
	now           func() time.Time
	jobOpts       []jobs.Option

	checks singleflight.Group

	// serialises loading a track against starting a job on it
	sessionMu sync.Mutex

	mu        sync.RWMutex
	settings  config.RuntimeSettings
	status    translator.ConnectionStatus
	checkedAt time.Time
	cronExpr  string
	cronID    cron.EntryID
	scheduled bool
}

type Option func(*Service)

// WithCron enables the periodic backend health check.
func WithCron(c CronScheduler) Option {
	return func(s *Service) {
		s.cron = c
	}
}

// WithSettingsStore persists settings updates.
func WithSettingsStore(store *config.RuntimeSettingsStore) Option {
	return func(s *Service) {
		s.settingsStore = store
	}
}

// WithGlossaryFile persists glossary updates to path.
func WithGlossaryFile(path string) Option {
	return func(s *Service) {
		s.glossaryFile = path
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithJobOptions passes options through to the job orchestrator.
func WithJobOptions(opts ...jobs.Option) Option {
	return func(s *Service) {
		s.jobOpts = append(s.jobOpts, opts...)
	}
}

// New builds the session for cfg on top of backend.
func New(cfg config.Config, backend Backend, opts ...Option) *Service {
	s := &Service{
		store:      subtitle.NewStore(),
		backend:    backend,
		validator:  newRequestValidator(),
		errHandler: NewDefaultErrorHandler(),
		settings:   cfg.RuntimeSettings(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	jobOpts := append([]jobs.Option{
		jobs.WithETAInterval(cfg.Translate.ETAInterval),
		jobs.WithClock(s.now),
	}, s.jobOpts...)
	s.orchestrator = jobs.NewOrchestrator(
		s.store,
		classifyingTranslator{next: translator.NewDispatcher(backend), handler: s.errHandler},
		s.connected,
		jobOpts...,
	)
	return s
}

// Load parses data as a subtitle track of the given format and replaces the
// session content. It is refused while a translation is running.
func (s *Service) Load(data []byte, format string) (*LoadResult, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if s.orchestrator.Running() {
		return nil, NewError(ErrConflict, "cannot load subtitles while a translation is running")
	}

	f, err := subtitle.ReadBytes(data, format, s.readOptions()...)
	if err != nil {
		return nil, WrapError(err, ErrParse, "failed to parse subtitles").WithContext("format", format)
	}
	return s.replaceTrack(f, "format", format)
}

// LoadFile reads a subtitle file from disk into the session, picking the
// format from its extension.
func (s *Service) LoadFile(path string) (*LoadResult, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if s.orchestrator.Running() {
		return nil, NewError(ErrConflict, "cannot load subtitles while a translation is running")
	}

	f, err := subtitle.NewReader(path, s.readOptions()...).Read()
	if err != nil {
		return nil, WrapError(err, ErrParse, "failed to read subtitles").WithContext("path", path)
	}
	return s.replaceTrack(f, "path", path)
}

func (s *Service) readOptions() []subtitle.ReadOption {
	return []subtitle.ReadOption{subtitle.WithTrailingComma(s.Settings().AppendTrailingComma)}
}

// replaceTrack swaps the store content for f. Callers hold sessionMu.
func (s *Service) replaceTrack(f *subtitle.File, source, value string) (*LoadResult, error) {
	if len(f.Entries) == 0 {
		return nil, NewError(ErrParse, "no subtitles found").WithContext(source, value)
	}
	if err := s.store.Load(f); err != nil {
		return nil, WrapError(err, ErrParse, "failed to load subtitles").WithContext(source, value)
	}

	res := &LoadResult{
		Count:  s.store.Len(),
		Format: s.store.Format(),
	}
	if tag := s.store.Language(); tag != language.Und {
		res.Language = tag.String()
	}
	log.Info("Loaded %d %s subtitles (language: %s)", res.Count, res.Format, res.Language)
	return res, nil
}

// Entries returns the loaded entries matching query, all of them when
// query is empty.
func (s *Service) Entries(query string) []subtitle.Entry {
	return s.store.Search(query)
}

// EditEntry applies a manual correction to entry id.
func (s *Service) EditEntry(id int, patch EntryPatch) (*subtitle.Entry, error) {
	if patch.Text == nil && patch.Translated == nil {
		return nil, NewError(ErrValidation, "nothing to update").WithContext("id", id)
	}
	if _, ok := s.store.Get(id); !ok {
		return nil, NewError(ErrNotFound, "subtitle not found").WithContext("id", id)
	}

	if patch.Text != nil {
		if err := s.store.SetText(id, *patch.Text); err != nil {
			return nil, WrapError(err, ErrNotFound, "subtitle not found").WithContext("id", id)
		}
	}
	if patch.Translated != nil {
		var err error
		if *patch.Translated == "" {
			err = s.store.ClearTranslation(id)
		} else {
			err = s.store.SetTranslation(id, *patch.Translated)
		}
		if err != nil {
			return nil, WrapError(err, ErrNotFound, "subtitle not found").WithContext("id", id)
		}
	}

	entry, _ := s.store.Get(id)
	return &entry, nil
}

// Languages lists the selectable target languages.
func (s *Service) Languages() []translator.Language {
	return translator.Languages()
}

// ExportName normalises a requested download name to an .srt file name.
// Source subtitle extensions such as .vtt are swapped for .srt.
func (s *Service) ExportName(name string) string {
	return file.EnsureExt(name, ".srt", DefaultExportName, subtitle.SourceExtensions()...)
}

// Export writes the track as SRT in the named encoding, using translations
// where present.
func (s *Service) Export(w io.Writer, encoding string) error {
	entries := s.store.Entries()
	if len(entries) == 0 {
		return NewError(ErrValidation, "no subtitles loaded")
	}

	writer, err := subtitle.NewWriter(encoding)
	if err != nil {
		return WrapError(err, ErrValidation, "unsupported encoding").
			WithContext("encoding", encoding).
			WithContext("supported", strings.Join(subtitle.Encodings(), ", "))
	}
	if err := writer.Write(w, entries); err != nil {
		return WrapError(err, ErrFileWrite, "failed to export subtitles")
	}
	return nil
}
