package jobs

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MimeLyc/sentence-sub-translator/internal/realign"
	"github.com/MimeLyc/sentence-sub-translator/internal/sentence"
	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

// DefaultETAInterval is how often the remaining time is re-estimated.
const DefaultETAInterval = time.Second

// Orchestrator runs at most one translation job at a time. Groups are
// translated sequentially and every entry is written back by id as soon as
// its group is realigned, so partial results survive failure and
// cancellation.
type Orchestrator struct {
	store       Store
	translator  Translator
	connected   ConnectionFunc
	etaInterval time.Duration
	now         func() time.Time

	mu      sync.RWMutex
	current *Job
	running bool
	wg      sync.WaitGroup
}

type Option func(*Orchestrator)

func WithETAInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.etaInterval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func NewOrchestrator(store Store, tr Translator, connected ConnectionFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		translator:  tr,
		connected:   connected,
		etaInterval: DefaultETAInterval,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start validates req and launches the job in the background. The job
// outlives ctx's cancellation; use Cancel to stop it.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Job, error) {
	if err := o.validate(req); err != nil {
		return nil, err
	}
	if o.connected != nil && !o.connected(ctx) {
		return nil, ErrBackendUnavailable
	}

	now := o.now()
	job := &Job{
		ID:             uuid.NewString(),
		Range:          req.Range,
		TargetLanguage: req.TargetLanguage,
		Model:          req.Model,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		Status:         StatusRunning,
		CurrentLine:    req.Range.Start,
		Total:          req.Range.Len(),
		RemainingLines: req.Range.Len(),
		StartedAt:      now,
		UpdatedAt:      now,
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrJobRunning
	}
	o.running = true
	o.current = job
	o.wg.Add(1)
	snapshot := cloneJob(job)
	o.mu.Unlock()

	log.Info("Starting translation job %s over lines [%d, %d) into %s", job.ID, req.Range.Start, req.Range.End, req.TargetLanguage)

	go o.run(context.WithoutCancel(ctx), job.ID, req)
	return snapshot, nil
}

// Cancel asks the running job to stop at its next checkpoint. It reports
// whether a running job was found.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running || o.current == nil {
		return false
	}
	o.current.CancelRequested = true
	o.current.UpdatedAt = o.now()
	log.Info("Cancellation requested for job %s", o.current.ID)
	return true
}

// Current returns a copy of the running or most recent job.
func (o *Orchestrator) Current() (*Job, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.current == nil {
		return nil, false
	}
	return cloneJob(o.current), true
}

// Running reports whether a job is in progress.
func (o *Orchestrator) Running() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.running
}

// Wait blocks until the running job has finished or ctx is done. It returns
// at once when no job is running.
func (o *Orchestrator) Wait(ctx context.Context) error {
	// Start registers with wg under mu, so a running job is always counted
	o.mu.RLock()
	running := o.running
	o.mu.RUnlock()
	if !running {
		return nil
	}

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) validate(req Request) error {
	if req.TargetLanguage == "" {
		return &ValidationError{Field: "target_language", Message: "please select a target language"}
	}
	if req.Model == "" {
		return &ValidationError{Field: "model", Message: "please select a model"}
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return &ValidationError{Field: "temperature", Message: "must be between 0 and 1"}
	}
	if req.MaxTokens < 1 {
		return &ValidationError{Field: "max_tokens", Message: "must be positive"}
	}

	count := o.store.Len()
	if count == 0 {
		return &ValidationError{Message: "no subtitles loaded"}
	}
	r := req.Range
	if r.Start < 0 || r.End > count || r.Start >= r.End {
		return &ValidationError{
			Field:   "range",
			Message: fmt.Sprintf("start must be less than end within [0, %d], got [%d, %d)", count, r.Start, r.End),
		}
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, id string, req Request) {
	defer o.wg.Done()

	stopETA := o.startETASampler(id)
	status, runErr := o.translateRange(ctx, id, req)
	stopETA()

	o.finish(id, status, runErr)
}

func (o *Orchestrator) translateRange(ctx context.Context, id string, req Request) (Status, error) {
	entries, err := o.store.Slice(req.Range.Start, req.Range.End)
	if err != nil {
		return StatusFailed, err
	}

	groups := sentence.GroupEntries(entries)
	o.update(id, func(j *Job) { j.Groups = len(groups) })
	opts := req.options()

	for gi, g := range groups {
		if o.cancelRequested(id) {
			return StatusCancelled, nil
		}

		translated, err := o.translator.Translate(ctx, g, opts)
		if err != nil {
			return StatusFailed, fmt.Errorf("group %d of %d (lines %d-%d): %w",
				gi+1, len(groups), g.Entries[0].ID, g.Entries[len(g.Entries)-1].ID, err)
		}

		lines := realign.Realign(translated, g.Entries)
		for i, e := range g.Entries {
			if i > 0 && o.cancelRequested(id) {
				return StatusCancelled, nil
			}
			if err := o.store.SetTranslation(e.ID, lines[i]); err != nil {
				return StatusFailed, err
			}
			o.update(id, func(j *Job) {
				j.Processed++
				j.CurrentLine = j.Range.Start + j.Processed
				j.RemainingLines = j.Range.End - j.CurrentLine
				j.Progress = int(math.Round(float64(j.Processed) / float64(j.Total) * 100))
			})
		}
		o.update(id, func(j *Job) { j.GroupsDone = gi + 1 })
	}
	return StatusCompleted, nil
}

func (o *Orchestrator) finish(id string, status Status, runErr error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	job := o.current
	if job == nil || job.ID != id {
		o.running = false
		return
	}

	now := o.now()
	job.Status = status
	job.UpdatedAt = now
	job.FinishedAt = &now
	job.RemainingSeconds = nil
	job.Remaining = ""
	switch status {
	case StatusCompleted:
		job.Progress = 100
		log.Info("Translation job %s completed: %d lines", id, job.Processed)
	case StatusCancelled:
		log.Info("Translation job %s cancelled after %d of %d lines", id, job.Processed, job.Total)
	case StatusFailed:
		if runErr != nil {
			job.Error = runErr.Error()
		}
		log.Error("Translation job %s failed after %d of %d lines: %v", id, job.Processed, job.Total, runErr)
	}
	o.running = false
}

func (o *Orchestrator) cancelRequested(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current != nil && o.current.ID == id && o.current.CancelRequested
}

func (o *Orchestrator) update(id string, fn func(*Job)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil || o.current.ID != id {
		return
	}
	fn(o.current)
	o.current.UpdatedAt = o.now()
}
