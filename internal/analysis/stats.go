package analysis

import (
	"math"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/ptr"
)

// mean returns 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanPtr returns nil for an empty slice.
func meanPtr(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	return ptr.Ref(mean(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10 //nolint:mnd // one decimal.
}

// lastN returns the trailing n elements of s.
func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// maxWeights collects the non-nil max weights in order.
func maxWeights(sessions []ExerciseSessionData) []float64 {
	weights := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		if s.MaxWeight != nil {
			weights = append(weights, *s.MaxWeight)
		}
	}
	return weights
}

// averageRPE is the mean of the sessions' average RPE, ignoring sessions without RPE.
func averageRPE(sessions []ExerciseSessionData) *float64 {
	rpes := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		if s.AverageRPE != nil {
			rpes = append(rpes, *s.AverageRPE)
		}
	}
	return meanPtr(rpes)
}
