package analysis_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
)

func TestTrendPredictor_Predict(t *testing.T) {
	tests := []struct {
		name       string
		weights    []float64
		want       analysis.WeightProgressionPrediction
		wantReason string
	}{
		{
			name:    "steady increase",
			weights: []float64{100, 102, 104},
			want: analysis.WeightProgressionPrediction{
				CurrentWeight:   104,
				PredictedWeight: 106,
				WeightIncrease:  2,
			},
			wantReason: "rose by 4 lbs over the last 3 sessions",
		},
		{
			name:    "only last three sessions count",
			weights: []float64{50, 60, 100, 102, 104},
			want: analysis.WeightProgressionPrediction{
				CurrentWeight:   104,
				PredictedWeight: 106,
				WeightIncrease:  2,
			},
			wantReason: "rose by 4 lbs",
		},
		{
			name:    "two sessions",
			weights: []float64{100, 105},
			want: analysis.WeightProgressionPrediction{
				CurrentWeight:   105,
				PredictedWeight: 110,
				WeightIncrease:  5,
			},
			wantReason: "over the last 2 sessions",
		},
		{
			name:    "decrease",
			weights: []float64{100, 95, 90},
			want: analysis.WeightProgressionPrediction{
				CurrentWeight:   90,
				PredictedWeight: 85,
				WeightIncrease:  -5,
			},
			wantReason: "fell by 10 lbs",
		},
		{
			name:    "flat",
			weights: []float64{100, 100, 100},
			want: analysis.WeightProgressionPrediction{
				CurrentWeight:   100,
				PredictedWeight: 100,
				WeightIncrease:  0,
			},
			wantReason: "held steady",
		},
		{
			name:    "clamped at zero",
			weights: []float64{40, 20, 0},
			want: analysis.WeightProgressionPrediction{
				CurrentWeight:   0,
				PredictedWeight: 0,
				WeightIncrease:  0,
			},
			wantReason: "fell by 40 lbs",
		},
		{
			name:    "rounded to whole weight",
			weights: []float64{100, 101, 102.5},
			want: analysis.WeightProgressionPrediction{
				CurrentWeight:   102.5,
				PredictedWeight: 104,
				WeightIncrease:  1.5,
			},
			wantReason: "rose by 2.5 lbs",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := analysis.TrendPredictor{}.Predict(t.Context(), historyOf(tt.weights, 0, 5))
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			tt.want.ExerciseID = "bench-press"
			tt.want.ExerciseName = "Bench Press"
			tt.want.Source = analysis.SourceTrend
			tt.want.Confidence = 0.5
			if !strings.Contains(got.Reasoning, tt.wantReason) {
				t.Errorf("reasoning %q does not contain %q", got.Reasoning, tt.wantReason)
			}
			got.Reasoning = ""
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("prediction mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTrendPredictor_Predict_insufficientHistory(t *testing.T) {
	_, err := analysis.TrendPredictor{}.Predict(t.Context(), historyOf([]float64{100}, 0, 5))
	if !errors.Is(err, analysis.ErrInsufficientHistory) {
		t.Errorf("Predict() error = %v, want %v", err, analysis.ErrInsufficientHistory)
	}
}

func TestTrendPredictor_Predict_missingWeightCountsAsZero(t *testing.T) {
	history := historyOf([]float64{100, 100}, 0, 5)
	history.Sessions[1].MaxWeight = nil

	got, err := analysis.TrendPredictor{WeightUnit: "kg"}.Predict(t.Context(), history)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if got.CurrentWeight != 0 || got.PredictedWeight != 0 {
		t.Errorf("got current %v predicted %v, want both 0", got.CurrentWeight, got.PredictedWeight)
	}
	if !strings.Contains(got.Reasoning, "fell by 100 kg") {
		t.Errorf("reasoning %q does not mention the drop in kg", got.Reasoning)
	}
}
