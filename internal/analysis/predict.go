package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/ptr"
)

// ErrInsufficientHistory is returned when a history is too short to predict from.
var ErrInsufficientHistory = errors.New("insufficient history")

// trendConfidence is a fixed heuristic for the linear trend, not a fitted probability.
const trendConfidence = 0.5

// Predictor suggests the next working weight from a history.
type Predictor interface {
	Predict(ctx context.Context, history ExerciseHistory) (WeightProgressionPrediction, error)
}

// TrendPredictor extrapolates the per-session change over the last three sessions.
type TrendPredictor struct {
	// WeightUnit is used in the reasoning text.
	WeightUnit string
}

// Predict requires at least two sessions. Sessions without a max weight count as zero.
//
// The slope is the per-session step across the window, (last - first) / (len(window) - 1),
// so [100, 102, 104] predicts 106.
func (p TrendPredictor) Predict(_ context.Context, history ExerciseHistory) (WeightProgressionPrediction, error) {
	if len(history.Sessions) < 2 { //nolint:mnd // a trend needs two points.
		return WeightProgressionPrediction{}, fmt.Errorf("predict %s: %w", history.Key(), ErrInsufficientHistory)
	}
	unit := p.WeightUnit
	if unit == "" {
		unit = DefaultWeightUnit
	}

	window := lastN(history.Sessions, recentWindow)
	first := ptr.ValueOr(window[0].MaxWeight, 0)
	current := ptr.ValueOr(window[len(window)-1].MaxWeight, 0)
	change := current - first
	slope := change / float64(len(window)-1)
	predicted := math.Round(math.Max(0, current+slope))

	var direction string
	switch {
	case change > 0:
		direction = fmt.Sprintf("rose by %s %s", formatWeight(round1(change)), unit)
	case change < 0:
		direction = fmt.Sprintf("fell by %s %s", formatWeight(round1(-change)), unit)
	default:
		direction = "held steady"
	}

	return WeightProgressionPrediction{
		ExerciseID:      history.ExerciseID,
		ExerciseName:    history.ExerciseName,
		Source:          SourceTrend,
		CurrentWeight:   current,
		PredictedWeight: predicted,
		WeightIncrease:  round1(predicted - current),
		Confidence:      trendConfidence,
		Reasoning: fmt.Sprintf(
			"Max weight %s over the last %d sessions (about %s %s per session), suggesting %s %s next.",
			direction, len(window), formatWeight(round1(slope)), unit, formatWeight(predicted), unit),
	}, nil
}
