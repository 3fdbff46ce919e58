package analysis_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/testhelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

func TestAnalyzer_Analyze_empty(t *testing.T) {
	a := newAnalyzer(testhelpers.NewWriter(t))

	active := completedSession("active", 0, exercise("squat", "Squat", workingSet(100, 5, 0)))
	active.Status = workout.SessionStatusActive

	for name, sessions := range map[string][]workout.Session{
		"no sessions":          nil,
		"no finished sessions": {active},
	} {
		t.Run(name, func(t *testing.T) {
			got := a.Analyze(t.Context(), sessions, analysis.DefaultOptions())
			want := analysis.Analysis{
				OverallScore:     0,
				Summary:          "Not enough workout data to analyze yet. Complete a few sessions to get insights.",
				Patterns:         []analysis.ExercisePattern{},
				Recommendations:  []analysis.Recommendation{},
				Progress:         analysis.ProgressMetrics{},
				AnalyzedAt:       now,
				SessionsAnalyzed: 0,
				TimeRange:        analysis.TimeRange{Start: now, End: now},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("analysis mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyzer_Analyze_scenarios(t *testing.T) {
	tests := []struct {
		name         string
		weights      []float64
		rpe          float64
		wantType     analysis.PatternType
		wantSeverity analysis.Severity
		wantRecs     []string
		wantProgress analysis.ProgressMetrics
		wantScore    int
	}{
		{
			name:         "plateau",
			weights:      []float64{100, 102, 101},
			rpe:          8,
			wantType:     analysis.PatternPlateau,
			wantSeverity: analysis.SeverityHigh,
			wantRecs:     []string{"rep_range_change:exercise:bench-press"},
			wantProgress: analysis.ProgressMetrics{ConsistencyScore: 100, RecoveryScore: 85},
			wantScore:    68,
		},
		{
			name:         "optimal progression",
			weights:      []float64{100, 105, 110},
			rpe:          7.5,
			wantType:     analysis.PatternOptimal,
			wantSeverity: analysis.SeverityLow,
			wantRecs:     []string{"progression_ready:exercise:bench-press"},
			wantProgress: analysis.ProgressMetrics{StrengthProgress: 10, ConsistencyScore: 100, RecoveryScore: 85},
			wantScore:    100,
		},
		{
			name:         "decline of ten percent",
			weights:      []float64{100, 100, 90},
			rpe:          8,
			wantType:     analysis.PatternDecline,
			wantSeverity: analysis.SeverityMedium,
			wantRecs:     []string{"deload:exercise:bench-press", "rest:exercise:bench-press", "rest:overall"},
			wantProgress: analysis.ProgressMetrics{StrengthProgress: -5, ConsistencyScore: 100, RecoveryScore: 40},
			wantScore:    51,
		},
		{
			name:         "decline of eleven percent",
			weights:      []float64{100, 100, 89},
			rpe:          8,
			wantType:     analysis.PatternDecline,
			wantSeverity: analysis.SeverityHigh,
			wantRecs:     []string{"deload:exercise:bench-press", "rest:exercise:bench-press", "rest:overall"},
			wantProgress: analysis.ProgressMetrics{StrengthProgress: -5, ConsistencyScore: 100, RecoveryScore: 40},
			wantScore:    51,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalyzer(testhelpers.NewWriter(t))
			got := a.Analyze(t.Context(), benchSeries(tt.weights, tt.rpe), analysis.DefaultOptions())

			if len(got.Patterns) != 1 {
				t.Fatalf("got %d patterns, want 1", len(got.Patterns))
			}
			if got.Patterns[0].Type != tt.wantType || got.Patterns[0].Severity != tt.wantSeverity {
				t.Errorf("got %s/%s pattern, want %s/%s",
					got.Patterns[0].Type, got.Patterns[0].Severity, tt.wantType, tt.wantSeverity)
			}
			if diff := cmp.Diff(tt.wantRecs, recommendationIDs(got.Recommendations)); diff != "" {
				t.Errorf("recommendation ids mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantProgress, got.Progress); diff != "" {
				t.Errorf("progress mismatch (-want +got):\n%s", diff)
			}
			if got.OverallScore != tt.wantScore {
				t.Errorf("score = %d, want %d", got.OverallScore, tt.wantScore)
			}
			if got.SessionsAnalyzed != len(tt.weights) {
				t.Errorf("sessions analyzed = %d, want %d", got.SessionsAnalyzed, len(tt.weights))
			}
			wantRange := analysis.TimeRange{Start: now.AddDate(0, 0, -2*(len(tt.weights)-1)), End: now}
			if diff := cmp.Diff(wantRange, got.TimeRange); diff != "" {
				t.Errorf("time range mismatch (-want +got):\n%s", diff)
			}
			if !got.AnalyzedAt.Equal(now) {
				t.Errorf("analyzed at = %v, want %v", got.AnalyzedAt, now)
			}
		})
	}
}

func TestAnalyzer_Analyze_summary(t *testing.T) {
	a := newAnalyzer(testhelpers.NewWriter(t))
	tests := []struct {
		name     string
		weights  []float64
		rpe      float64
		contains []string
	}{
		{
			name:     "progressing",
			weights:  []float64{100, 105, 110},
			rpe:      7.5,
			contains: []string{"making progress on 1 exercise", "Strength is up 10.0%"},
		},
		{
			name:     "plateaued",
			weights:  []float64{100, 102, 101},
			rpe:      8,
			contains: []string{"1 exercise(s) have plateaued"},
		},
		{
			name:     "declining",
			weights:  []float64{100, 100, 90},
			rpe:      8,
			contains: []string{"1 exercise(s) show declining", "Strength is down 5.0%", "recovery looks low"},
		},
		{
			name:     "nothing to report",
			weights:  []float64{100, 110, 100, 102},
			rpe:      8,
			contains: []string{"Keep tracking your workouts"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(t.Context(), benchSeries(tt.weights, tt.rpe), analysis.DefaultOptions())
			for _, s := range tt.contains {
				if !strings.Contains(got.Summary, s) {
					t.Errorf("summary %q does not contain %q", got.Summary, s)
				}
			}
		})
	}
}

func TestAnalyzer_Analyze_warnsAboutNameKeyedHistories(t *testing.T) {
	var logs bytes.Buffer
	a := newAnalyzer(&logs)
	sessions := benchSeries([]float64{100, 105, 110}, 0)
	for i := range sessions {
		sessions[i].Exercises[0].ExerciseID = ""
	}

	got := a.Analyze(t.Context(), sessions, analysis.DefaultOptions())

	if len(got.Patterns) != 1 || got.Patterns[0].ExerciseName != "Bench Press" {
		t.Fatalf("got patterns %+v, want one Bench Press pattern", got.Patterns)
	}
	if !strings.Contains(logs.String(), "exercise has no id") {
		t.Errorf("logs %q do not contain a name grouping warning", logs.String())
	}
}

func TestAnalyzer_AnalyzeWithPredictions(t *testing.T) {
	a := newAnalyzer(testhelpers.NewWriter(t))
	sessions := benchSeries([]float64{100, 102, 104}, 0)
	sessions[1].Exercises = append(sessions[1].Exercises, exercise("squat", "Squat", workingSet(140, 5, 0)))
	sessions[2].Exercises = append(sessions[2].Exercises,
		exercise("squat", "Squat", workingSet(150, 5, 0)),
		exercise("row", "Row", workingSet(80, 8, 0)))

	got := a.AnalyzeWithPredictions(t.Context(), sessions, analysis.DefaultOptions())

	if len(got.Patterns) != 1 || got.Patterns[0].Type != analysis.PatternProgression {
		t.Fatalf("got patterns %+v, want one progression", got.Patterns)
	}
	wantPredicted := map[string]float64{"bench-press": 106, "squat": 160}
	gotPredicted := map[string]float64{}
	for key, p := range got.Predictions {
		gotPredicted[key] = p.PredictedWeight
		if p.Source != analysis.SourceTrend {
			t.Errorf("prediction %s source = %s, want trend", key, p.Source)
		}
	}
	if diff := cmp.Diff(wantPredicted, gotPredicted); diff != "" {
		t.Errorf("predictions mismatch (-want +got):\n%s", diff)
	}
	want := []string{"progression_ready:exercise:bench-press", "progression_ready:exercise:squat"}
	if diff := cmp.Diff(want, recommendationIDs(got.Recommendations)); diff != "" {
		t.Errorf("recommendation ids mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzer_AnalyzeWithPredictions_empty(t *testing.T) {
	a := newAnalyzer(testhelpers.NewWriter(t))
	got := a.AnalyzeWithPredictions(t.Context(), nil, analysis.Options{})
	if got.SessionsAnalyzed != 0 || got.Predictions == nil || len(got.Predictions) != 0 {
		t.Errorf("got %+v, want an empty analysis with an empty prediction map", got)
	}
}

type stubPredictor struct {
	err   error
	calls int
}

func (p *stubPredictor) Predict(
	_ context.Context,
	history analysis.ExerciseHistory,
) (analysis.WeightProgressionPrediction, error) {
	p.calls++
	if p.err != nil {
		return analysis.WeightProgressionPrediction{}, p.err
	}
	return analysis.WeightProgressionPrediction{
		ExerciseID:      history.ExerciseID,
		ExerciseName:    history.ExerciseName,
		Source:          analysis.SourceModel,
		CurrentWeight:   104,
		PredictedWeight: 105,
		WeightIncrease:  1,
		Confidence:      0.8,
		Reasoning:       "model",
	}, nil
}

func TestAnalyzer_AnalyzeWithPredictions_modelPredictor(t *testing.T) {
	sessions := benchSeries([]float64{100, 102, 104}, 0)

	t.Run("model is used", func(t *testing.T) {
		model := &stubPredictor{err: nil, calls: 0}
		a := newAnalyzer(testhelpers.NewWriter(t), analysis.WithModelPredictor(model))
		got := a.AnalyzeWithPredictions(t.Context(), sessions, analysis.Options{})
		if p := got.Predictions["bench-press"]; p.Source != analysis.SourceModel || p.PredictedWeight != 105 {
			t.Errorf("got prediction %+v, want the model prediction", p)
		}
		if len(got.Recommendations) != 1 || got.Recommendations[0].Priority != analysis.PriorityHigh {
			t.Errorf("got recommendations %+v, want one high priority recommendation", got.Recommendations)
		}
	})

	t.Run("falls back to trend", func(t *testing.T) {
		var logs bytes.Buffer
		model := &stubPredictor{err: errors.New("model unavailable"), calls: 0}
		a := newAnalyzer(&logs, analysis.WithModelPredictor(model))
		got := a.AnalyzeWithPredictions(t.Context(), sessions, analysis.Options{})
		if p := got.Predictions["bench-press"]; p.Source != analysis.SourceTrend || p.PredictedWeight != 106 {
			t.Errorf("got prediction %+v, want the trend prediction", p)
		}
		if model.calls != 1 {
			t.Errorf("model called %d times, want 1", model.calls)
		}
		if !strings.Contains(logs.String(), "model unavailable") {
			t.Errorf("logs %q do not mention the model failure", logs.String())
		}
	})
}

func TestAnalyzer_Analyze_idempotent(t *testing.T) {
	a := newAnalyzer(testhelpers.NewWriter(t))
	weights := []float64{100, 105, 110, 108, 112}
	sessions := benchSeries(weights, 8)

	first := a.AnalyzeWithPredictions(t.Context(), sessions, analysis.DefaultOptions())
	second := a.AnalyzeWithPredictions(t.Context(), sessions, analysis.DefaultOptions())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("analyses differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(benchSeries(weights, 8), sessions); diff != "" {
		t.Errorf("analysis modified its input (-want +got):\n%s", diff)
	}
}
