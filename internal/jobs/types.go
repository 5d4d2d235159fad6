package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MimeLyc/sentence-sub-translator/internal/sentence"
	"github.com/MimeLyc/sentence-sub-translator/internal/subtitle"
	"github.com/MimeLyc/sentence-sub-translator/internal/translator"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Range is a half-open interval [Start, End) over entry positions.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Len() int { return r.End - r.Start }

// Request describes one translation job.
type Request struct {
	Range          Range
	TargetLanguage string
	Model          string
	Temperature    float64
	MaxTokens      int
}

func (r Request) options() translator.Options {
	return translator.Options{
		TargetLanguage: r.TargetLanguage,
		Model:          r.Model,
		Temperature:    r.Temperature,
		MaxTokens:      r.MaxTokens,
	}
}

// Job is the state of one translation run. Callers only ever see copies.
type Job struct {
	ID             string  `json:"id"`
	Range          Range   `json:"range"`
	TargetLanguage string  `json:"target_language"`
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`

	Status          Status `json:"status"`
	Progress        int    `json:"progress"`
	CurrentLine     int    `json:"current_line"`
	Processed       int    `json:"processed"`
	Total           int    `json:"total"`
	Groups          int    `json:"groups"`
	GroupsDone      int    `json:"groups_done"`
	CancelRequested bool   `json:"cancel_requested"`
	Error           string `json:"error,omitempty"`

	// ETA, unset until the first sample
	RemainingSeconds *float64 `json:"remaining_seconds,omitempty"`
	Remaining        string   `json:"remaining,omitempty"`
	RemainingLines   int      `json:"remaining_lines"`

	StartedAt  time.Time  `json:"started_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Store is the entry storage the orchestrator reads from and writes to.
type Store interface {
	Len() int
	Slice(start, end int) ([]subtitle.Entry, error)
	SetTranslation(id int, translated string) error
}

// Translator turns one sentence group into translated text.
type Translator interface {
	Translate(ctx context.Context, g sentence.Group, opts translator.Options) (string, error)
}

// ConnectionFunc reports whether the backend is currently reachable.
type ConnectionFunc func(ctx context.Context) bool

// ValidationError is returned by Start when a precondition is not met.
// No job is started.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrBackendUnavailable is returned by Start when the backend is not connected.
var ErrBackendUnavailable = errors.New("translation backend is not connected")

// ErrJobRunning is returned by Start while another job is in progress.
var ErrJobRunning = errors.New("translation already in progress")

func cloneJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	tmp := *job
	if job.RemainingSeconds != nil {
		v := *job.RemainingSeconds
		tmp.RemainingSeconds = &v
	}
	if job.FinishedAt != nil {
		v := *job.FinishedAt
		tmp.FinishedAt = &v
	}
	return &tmp
}
