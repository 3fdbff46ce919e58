// Package analysis turns logged workout sessions into exercise patterns, progress metrics, an
// overall score and prioritized recommendations, optionally with next-session weight predictions.
//
// The computation is synchronous and keeps no state between calls, so an Analyzer can be shared
// between goroutines.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

type Analyzer struct {
	logger *slog.Logger
	now    func() time.Time
	model  Predictor
}

type AnalyzerOption func(*Analyzer)

// WithClock overrides the time source used for the lookback window and AnalyzedAt.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.now = now
	}
}

// WithModelPredictor sets a predictor that is tried before the trend predictor.
func WithModelPredictor(p Predictor) AnalyzerOption {
	return func(a *Analyzer) {
		a.model = p
	}
}

func NewAnalyzer(logger *slog.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		logger: logger,
		now:    time.Now,
		model:  nil,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never fails. Without finished sessions it returns an empty analysis.
func (a *Analyzer) Analyze(ctx context.Context, sessions []workout.Session, opts Options) Analysis {
	return a.analyze(ctx, sessions, opts.withDefaults(), a.now())
}

// AnalyzeWithPredictions extends Analyze with a weight prediction for every exercise that has at
// least two sessions and regenerates the recommendations with them. An exercise whose prediction
// fails is left out.
func (a *Analyzer) AnalyzeWithPredictions(
	ctx context.Context,
	sessions []workout.Session,
	opts Options,
) EnhancedAnalysis {
	opts = opts.withDefaults()
	now := a.now()
	enhanced := EnhancedAnalysis{
		Analysis:    a.analyze(ctx, sessions, opts, now),
		Predictions: map[string]WeightProgressionPrediction{},
	}
	if enhanced.SessionsAnalyzed == 0 {
		return enhanced
	}

	predictionOpts := opts
	predictionOpts.MinSessions = predictionMinSessions
	for _, history := range ExtractExerciseHistory(sessions, predictionOpts, now) {
		prediction, ok := a.predict(ctx, history, opts.WeightUnit)
		if ok {
			enhanced.Predictions[history.Key()] = prediction
		}
	}

	enhanced.Recommendations = GenerateRecommendationsWithPredictions(
		enhanced.Patterns, enhanced.Progress, enhanced.Predictions)
	return enhanced
}

func (a *Analyzer) predict(ctx context.Context, history ExerciseHistory, unit string) (WeightProgressionPrediction, bool) {
	if a.model != nil {
		prediction, err := a.model.Predict(ctx, history)
		if err == nil {
			return prediction, true
		}
		a.logger.LogAttrs(ctx, slog.LevelWarn, "model prediction failed, falling back to trend",
			slog.String("exercise", history.Key()), slog.Any("error", err))
	}

	prediction, err := TrendPredictor{WeightUnit: unit}.Predict(ctx, history)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "skip prediction",
			slog.String("exercise", history.Key()), slog.Any("error", err))
		return WeightProgressionPrediction{}, false
	}
	return prediction, true
}

func (a *Analyzer) analyze(ctx context.Context, sessions []workout.Session, opts Options, now time.Time) Analysis {
	finished := finishedSessions(sessions)
	if len(finished) == 0 {
		return emptyAnalysis(now)
	}

	histories := ExtractExerciseHistory(sessions, opts, now)
	patterns := make([]ExercisePattern, 0, len(histories))
	for _, h := range histories {
		if h.KeyedByName {
			a.logger.LogAttrs(ctx, slog.LevelWarn, "exercise has no id, grouping by name",
				slog.String("exercise", h.ExerciseName))
		}
		patterns = append(patterns, DetectExercisePattern(h, opts))
	}

	progress := calculateProgress(sessions, finished, patterns, opts)
	recommendations := GenerateRecommendations(patterns, progress)

	analysis := Analysis{
		OverallScore:     overallScore(patterns, progress),
		Summary:          generateSummary(patterns, progress),
		Patterns:         patterns,
		Recommendations:  recommendations,
		Progress:         progress,
		AnalyzedAt:       now,
		SessionsAnalyzed: len(finished),
		TimeRange: TimeRange{
			Start: effectiveDate(finished[0]),
			End:   effectiveDate(finished[len(finished)-1]),
		},
	}

	a.logger.LogAttrs(ctx, slog.LevelDebug, "analyzed sessions",
		slog.Int("sessions", analysis.SessionsAnalyzed),
		slog.Int("patterns", len(patterns)),
		slog.Int("recommendations", len(recommendations)),
		slog.Int("score", analysis.OverallScore))
	return analysis
}

func emptyAnalysis(now time.Time) Analysis {
	return Analysis{
		OverallScore:     0,
		Summary:          insufficientDataSummary,
		Patterns:         []ExercisePattern{},
		Recommendations:  []Recommendation{},
		Progress:         ProgressMetrics{},
		AnalyzedAt:       now,
		SessionsAnalyzed: 0,
		TimeRange:        TimeRange{Start: now, End: now},
	}
}
