package analysis

import (
	"fmt"
	"strings"
)

const (
	insufficientDataSummary = "Not enough workout data to analyze yet. Complete a few sessions to get insights."
	genericSummary          = "Keep tracking your workouts to get more detailed insights."
)

func countPatterns(patterns []ExercisePattern, types ...PatternType) int {
	var n int
	for _, p := range patterns {
		for _, t := range types {
			if p.Type == t {
				n++
				break
			}
		}
	}
	return n
}

// generateSummary concatenates the sentences that apply to this analysis.
func generateSummary(patterns []ExercisePattern, progress ProgressMetrics) string {
	var sentences []string

	progressing := countPatterns(patterns, PatternProgression, PatternOptimal)
	plateaued := countPatterns(patterns, PatternPlateau)
	switch {
	case progressing > 0 && progressing > plateaued:
		sentences = append(sentences, fmt.Sprintf("You're making progress on %d exercise(s).", progressing))
	case plateaued > 0:
		sentences = append(sentences, fmt.Sprintf("%d exercise(s) have plateaued and need a change of stimulus.",
			plateaued))
	}

	if declining := countPatterns(patterns, PatternDecline); declining > 0 {
		sentences = append(sentences, fmt.Sprintf("%d exercise(s) show declining performance.", declining))
	}

	switch {
	case progress.StrengthProgress > 0:
		sentences = append(sentences, fmt.Sprintf("Strength is up %.1f%% across your progressing lifts.",
			progress.StrengthProgress))
	case progress.StrengthProgress < 0:
		sentences = append(sentences, fmt.Sprintf("Strength is down %.1f%%.", -progress.StrengthProgress))
	}

	if progress.RecoveryScore < lowRecoveryScore {
		sentences = append(sentences, "Your recovery looks low, consider adding rest days.")
	}

	if len(sentences) == 0 {
		return genericSummary
	}
	return strings.Join(sentences, " ")
}
