package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

// SessionLister loads the sessions of the authenticated user that started at or after since.
type SessionLister interface {
	ListSessions(ctx context.Context, since time.Time) ([]workout.Session, error)
}

// Observer is notified after every analysis run.
type Observer interface {
	ObserveAnalysis(enhanced bool, duration time.Duration, a Analysis)
}

// Service runs analyses over the stored sessions of the authenticated user.
type Service struct {
	sessions SessionLister
	analyzer *Analyzer
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a service. The observer may be nil.
func NewService(sessions SessionLister, analyzer *Analyzer, observer Observer, logger *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		analyzer: analyzer,
		observer: observer,
		logger:   logger,
		now:      analyzer.now,
	}
}

// load fetches one day more than the lookback window so that sessions which started before the
// cutoff but completed inside it are considered.
func (s *Service) load(ctx context.Context, opts Options) ([]workout.Session, error) {
	opts = opts.withDefaults()
	since := s.now().AddDate(0, 0, -opts.LookbackDays-1)
	sessions, err := s.sessions.ListSessions(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *Service) Analyze(ctx context.Context, opts Options) (Analysis, error) {
	sessions, err := s.load(ctx, opts)
	if err != nil {
		return Analysis{}, err
	}
	start := time.Now()
	a := s.analyzer.Analyze(ctx, sessions, opts)
	s.observe(false, time.Since(start), a)
	return a, nil
}

func (s *Service) AnalyzeWithPredictions(ctx context.Context, opts Options) (EnhancedAnalysis, error) {
	sessions, err := s.load(ctx, opts)
	if err != nil {
		return EnhancedAnalysis{}, err
	}
	start := time.Now()
	a := s.analyzer.AnalyzeWithPredictions(ctx, sessions, opts)
	s.observe(true, time.Since(start), a.Analysis)
	return a, nil
}

// Report renders the enhanced analysis as HTML.
func (s *Service) Report(ctx context.Context, opts Options) ([]byte, error) {
	a, err := s.AnalyzeWithPredictions(ctx, opts)
	if err != nil {
		return nil, err
	}
	html, err := HTMLReport(a)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return html, nil
}

func (s *Service) observe(enhanced bool, duration time.Duration, a Analysis) {
	if s.observer != nil {
		s.observer.ObserveAnalysis(enhanced, duration, a)
	}
}
