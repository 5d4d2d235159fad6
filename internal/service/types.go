package service

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/sentence-sub-translator/internal/termmap"
	"github.com/MimeLyc/sentence-sub-translator/internal/translator"
)

// Backend is the translation backend as seen by the service: the plain
// translation capability plus the glossary it injects into prompts.
type Backend interface {
	translator.Backend
	SetGlossary(tm termmap.TermMap)
	Glossary() termmap.TermMap
}

// CronScheduler is the part of *cron.Cron the service needs.
type CronScheduler interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Remove(id cron.EntryID)
}

// BackendStatus is the cached result of the last connection check.
type BackendStatus struct {
	translator.ConnectionStatus
	CheckedAt   *time.Time `json:"checked_at,omitempty"`
	Schedule    string     `json:"schedule,omitempty"`
	NextCheckAt *time.Time `json:"next_check_at,omitempty"`
}

// LoadResult describes a freshly loaded track.
type LoadResult struct {
	Count    int    `json:"count"`
	Format   string `json:"format"`
	Language string `json:"language"`
}

// EntryPatch edits one entry. Nil fields are left unchanged; an empty
// Translated clears the translation.
type EntryPatch struct {
	Text       *string `json:"text"`
	Translated *string `json:"translated"`
}

// StartRequest starts a translation job. Unset fields fall back to the
// runtime settings; the range defaults to the whole track.
type StartRequest struct {
	Start          *int     `json:"start" validate:"omitempty,gte=0"`
	End            *int     `json:"end" validate:"omitempty,gt=0"`
	TargetLanguage string   `json:"target_language" validate:"omitempty,bcp47_language_tag"`
	Model          string   `json:"model" validate:"omitempty,max=256"`
	Temperature    *float64 `json:"temperature" validate:"omitempty,gte=0,lte=1"`
	MaxTokens      *int     `json:"max_tokens" validate:"omitempty,gte=1"`
}
