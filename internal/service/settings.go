package service

import (
	"context"
	"strings"

	"github.com/MimeLyc/sentence-sub-translator/internal/config"
	"github.com/MimeLyc/sentence-sub-translator/internal/termmap"
	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

// Settings returns the current runtime settings.
func (s *Service) Settings() config.RuntimeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ApplyRuntimeSettings validates and persists next, then reschedules the
// health check when its expression changed. A new API URL is persisted but
// only used after a restart.
func (s *Service) ApplyRuntimeSettings(ctx context.Context, next config.RuntimeSettings) (config.RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return config.RuntimeSettings{}, WrapError(err, ErrValidation, err.Error())
	}

	if s.settingsStore != nil {
		if _, err := s.settingsStore.UpdateRuntimeSettings(next); err != nil {
			return config.RuntimeSettings{}, WrapError(err, ErrFileWrite, "failed to save settings")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.settings
	if s.scheduled && next.HealthCheckCron != s.cronExpr {
		if err := s.scheduleLocked(ctx, next.HealthCheckCron); err != nil {
			return config.RuntimeSettings{}, err
		}
	}
	if strings.TrimSpace(next.LLMAPIURL) != strings.TrimSpace(prev.LLMAPIURL) {
		log.Warn("Translation backend URL changed to %s, restart to apply", next.LLMAPIURL)
	}
	s.settings = next
	log.Info("Runtime settings updated")
	return next, nil
}

// Glossary returns the fixed translations injected into prompts.
func (s *Service) Glossary() termmap.TermMap {
	tm := s.backend.Glossary()
	if tm == nil {
		return termmap.TermMap{}
	}
	return tm
}

// UpdateGlossary replaces the glossary and saves it when a glossary file is
// configured. Blank terms are dropped.
func (s *Service) UpdateGlossary(tm termmap.TermMap) (termmap.TermMap, error) {
	clean := make(termmap.TermMap, len(tm))
	for src, tgt := range tm {
		src, tgt = strings.TrimSpace(src), strings.TrimSpace(tgt)
		if src == "" || tgt == "" {
			continue
		}
		clean[src] = tgt
	}

	if s.glossaryFile != "" {
		if err := termmap.Save(s.glossaryFile, clean); err != nil {
			return nil, WrapError(err, ErrFileWrite, "failed to save glossary").WithContext("path", s.glossaryFile)
		}
	}
	s.backend.SetGlossary(clean)
	log.Info("Glossary updated with %d terms", len(clean))
	return clean, nil
}
