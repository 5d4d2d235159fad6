package service

import (
	"context"
	"errors"

	"github.com/MimeLyc/sentence-sub-translator/internal/jobs"
	"github.com/MimeLyc/sentence-sub-translator/internal/sentence"
	"github.com/MimeLyc/sentence-sub-translator/internal/translator"
)

// StartTranslation validates req, fills unset fields from the settings and
// starts the job in the background.
func (s *Service) StartTranslation(ctx context.Context, req StartRequest) (*jobs.Job, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	job, err := s.orchestrator.Start(ctx, s.jobRequest(req))
	if err != nil {
		return nil, classifyStartError(err)
	}
	return job, nil
}

func (s *Service) jobRequest(req StartRequest) jobs.Request {
	settings := s.Settings()

	ret := jobs.Request{
		Range:          jobs.Range{Start: 0, End: s.store.Len()},
		TargetLanguage: settings.TargetLanguage,
		Model:          settings.Model,
		Temperature:    settings.Temperature,
		MaxTokens:      settings.MaxTokens,
	}
	if req.Start != nil {
		ret.Range.Start = *req.Start
	}
	if req.End != nil {
		ret.Range.End = *req.End
	}
	if req.TargetLanguage != "" {
		ret.TargetLanguage = req.TargetLanguage
	}
	if req.Model != "" {
		ret.Model = req.Model
	}
	if req.Temperature != nil {
		ret.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		ret.MaxTokens = *req.MaxTokens
	}
	return ret
}

func classifyStartError(err error) error {
	var ve *jobs.ValidationError
	switch {
	case errors.As(err, &ve):
		ret := WrapError(err, ErrValidation, ve.Message)
		if ve.Field != "" {
			ret.WithContext(ve.Field, ve.Message)
		}
		return ret
	case errors.Is(err, jobs.ErrJobRunning):
		return WrapError(err, ErrConflict, "translation already in progress")
	case errors.Is(err, jobs.ErrBackendUnavailable):
		return WrapError(err, ErrBackendUnavailable, "please connect to the translation backend first")
	default:
		return WrapError(err, ErrUnknown, "failed to start translation")
	}
}

// CancelTranslation requests cancellation of the running job.
func (s *Service) CancelTranslation() (*jobs.Job, error) {
	if !s.orchestrator.Cancel() {
		return nil, NewError(ErrConflict, "no translation in progress")
	}
	job, _ := s.orchestrator.Current()
	return job, nil
}

// CurrentJob returns the running or most recent job.
func (s *Service) CurrentJob() (*jobs.Job, bool) {
	return s.orchestrator.Current()
}

// Shutdown cancels a running job and waits for it to stop.
func (s *Service) Shutdown(ctx context.Context) error {
	s.orchestrator.Cancel()
	return s.orchestrator.Wait(ctx)
}

// classifyingTranslator tags backend failures so the job error names
// their kind.
type classifyingTranslator struct {
	next    jobs.Translator
	handler ErrorHandler
}

func (t classifyingTranslator) Translate(ctx context.Context, g sentence.Group, opts translator.Options) (string, error) {
	out, err := t.next.Translate(ctx, g, opts)
	if err == nil {
		return out, nil
	}

	errorType := ErrUnknown
	var be *translator.BackendError
	if errors.As(err, &be) {
		errorType = ErrTranslationBackend
	}
	stErr := WrapError(err, errorType, "translate group")
	t.handler.Handle(stErr)
	return "", stErr
}
