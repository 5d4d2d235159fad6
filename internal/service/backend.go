package service

import (
	"context"
	"time"

	"github.com/MimeLyc/sentence-sub-translator/internal/translator"
	"github.com/MimeLyc/sentence-sub-translator/pkg/icron"
	"github.com/MimeLyc/sentence-sub-translator/pkg/log"
)

const healthCheckTimeout = 10 * time.Second

// CheckConnection probes the backend and caches the result. Concurrent
// callers (the cron job and HTTP requests) share a single probe.
func (s *Service) CheckConnection(ctx context.Context) BackendStatus {
	_, _, _ = s.checks.Do("check", func() (any, error) {
		status := s.backend.CheckConnection(ctx)

		s.mu.Lock()
		was := s.status.Connected
		s.status = status
		s.checkedAt = s.now()
		s.mu.Unlock()

		switch {
		case status.Connected && !was:
			log.Info("Translation backend connected (%d models)", len(status.Models))
		case !status.Connected && was:
			log.Warn("Translation backend disconnected: %s", status.Error)
		}
		return nil, nil
	})
	return s.BackendStatus()
}

// BackendStatus returns the last cached connection status without probing.
func (s *Service) BackendStatus() BackendStatus {
	s.mu.RLock()
	ret := BackendStatus{
		ConnectionStatus: s.status,
		Schedule:         s.cronExpr,
	}
	checkedAt := s.checkedAt
	scheduled := s.scheduled
	s.mu.RUnlock()

	if ret.Models == nil {
		ret.Models = []translator.Model{}
	}
	if !checkedAt.IsZero() {
		ret.CheckedAt = &checkedAt
	}
	if scheduled {
		if info, err := icron.GetTriggerInfo(ret.Schedule, s.now()); err == nil {
			next := info.Next
			ret.NextCheckAt = &next
		}
	}
	return ret
}

// Schedule registers the periodic health check with the cron scheduler
// using the configured expression.
func (s *Service) Schedule(ctx context.Context) error {
	if s.cron == nil {
		return NewError(ErrConfig, "no cron scheduler configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(ctx, s.settings.HealthCheckCron)
}

func (s *Service) scheduleLocked(ctx context.Context, expr string) error {
	id, err := s.cron.AddFunc(expr, func() {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
		err := SafeExecute(func() error {
			s.CheckConnection(checkCtx)
			return nil
		})
		if err != nil {
			s.errHandler.Handle(err)
		}
	})
	if err != nil {
		return WrapError(err, ErrConfig, "invalid health check schedule").WithContext("cron", expr)
	}

	if s.scheduled {
		s.cron.Remove(s.cronID)
	}
	s.cronID = id
	s.cronExpr = expr
	s.scheduled = true
	log.Info("Backend health check scheduled: %s", expr)
	return nil
}

// connected is the orchestrator's pre-start check.
func (s *Service) connected(ctx context.Context) bool {
	return s.CheckConnection(ctx).Connected
}
