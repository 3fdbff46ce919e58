package analysis

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	lowRepsThreshold         = 6.0
	volumeIncreaseRPE        = 7.0
	lowRecoveryScore         = 60
	lowConsistencyScore      = 70
	predictionMinConfidence  = 0.5
	predictionHighConfidence = 0.7

	overallScope  = "overall"
	exerciseScope = "exercise"
)

// exerciseRecommendationID is <kind>:exercise:<exercise key>. The key is used verbatim so
// distinct histories never share an id.
func exerciseRecommendationID(kind RecommendationKind, key string) string {
	return string(kind) + ":" + exerciseScope + ":" + key
}

func overallRecommendationID(kind RecommendationKind) string {
	return string(kind) + ":" + overallScope
}

// GenerateRecommendations turns patterns and progress metrics into a deduplicated list
// ordered by priority.
func GenerateRecommendations(patterns []ExercisePattern, progress ProgressMetrics) []Recommendation {
	return GenerateRecommendationsWithPredictions(patterns, progress, nil)
}

// GenerateRecommendationsWithPredictions additionally suggests progressing exercises whose
// prediction shows a confident weight increase.
func GenerateRecommendationsWithPredictions(
	patterns []ExercisePattern,
	progress ProgressMetrics,
	predictions map[string]WeightProgressionPrediction,
) []Recommendation {
	var recs []Recommendation
	for _, p := range patterns {
		recs = append(recs, patternRecommendations(p)...)
	}
	recs = append(recs, overallRecommendations(progress)...)

	// Sorted keys keep the output deterministic.
	for _, key := range slices.Sorted(maps.Keys(predictions)) {
		pred := predictions[key]
		if pred.WeightIncrease <= 0 || pred.Confidence < predictionMinConfidence {
			continue
		}
		if hasProgressionReady(recs, pred.ExerciseName) {
			continue
		}
		recs = append(recs, predictionRecommendation(key, pred))
	}

	return prioritize(recs)
}

// prioritize drops later duplicates by id and stable sorts by descending priority rank.
func prioritize(recs []Recommendation) []Recommendation {
	seen := make(map[string]bool, len(recs))
	unique := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		unique = append(unique, r)
	}
	slices.SortStableFunc(unique, func(a, b Recommendation) int {
		return b.Priority.Rank() - a.Priority.Rank()
	})
	return unique
}

func hasProgressionReady(recs []Recommendation, exerciseName string) bool {
	return slices.ContainsFunc(recs, func(r Recommendation) bool {
		return r.Kind == KindProgressionReady && strings.EqualFold(r.ExerciseName, exerciseName)
	})
}

func patternRecommendations(p ExercisePattern) []Recommendation {
	key := p.key()
	name := p.ExerciseName
	switch p.Type {
	case PatternPlateau:
		if len(p.RecentSessions) == 0 || p.RecentSessions[len(p.RecentSessions)-1].AverageReps >= lowRepsThreshold {
			return nil
		}
		return []Recommendation{{
			ID:           exerciseRecommendationID(KindRepRangeChange, key),
			Kind:         KindRepRangeChange,
			Priority:     PriorityMedium,
			ExerciseName: name,
			Title:        "Switch " + name + " to a higher rep range",
			Description: fmt.Sprintf("%s has plateaued at low reps. A lighter, higher-rep block can "+
				"rebuild work capacity before returning to heavy sets.", name),
			ActionItems: []string{
				"Reduce the weight by 10-15%",
				"Train sets of 8-12 reps for 4-6 weeks",
				"Return to heavier sets once every set reaches 12 reps",
			},
			Reasoning:       p.Description,
			RelatedPatterns: []PatternType{PatternPlateau},
		}}
	case PatternDecline:
		return []Recommendation{
			{
				ID:           exerciseRecommendationID(KindDeload, key),
				Kind:         KindDeload,
				Priority:     PriorityHigh,
				ExerciseName: name,
				Title:        "Deload " + name,
				Description:  fmt.Sprintf("Performance on %s is dropping. Take a lighter week to recover.", name),
				ActionItems: []string{
					"Reduce volume by 50% for one week",
					"Reduce intensity by 20%",
					"Resume normal training the following week",
				},
				Reasoning:       p.Description,
				RelatedPatterns: []PatternType{PatternDecline},
			},
			{
				ID:           exerciseRecommendationID(KindRest, key),
				Kind:         KindRest,
				Priority:     PriorityHigh,
				ExerciseName: name,
				Title:        "Prioritize recovery",
				Description:  fmt.Sprintf("The drop on %s points at accumulated fatigue.", name),
				ActionItems: []string{
					"Take 2-3 full rest days",
					"Aim for 7-9 hours of sleep",
					"Eat enough protein and total calories",
				},
				Reasoning:       p.Description,
				RelatedPatterns: []PatternType{PatternDecline},
			},
		}
	case PatternProgression:
		if p.Severity != SeverityLow || p.Trend != TrendUp {
			return nil
		}
		if rpe := averageRPE(p.RecentSessions); rpe == nil || *rpe >= volumeIncreaseRPE {
			return nil
		}
		return []Recommendation{{
			ID:           exerciseRecommendationID(KindVolumeIncrease, key),
			Kind:         KindVolumeIncrease,
			Priority:     PriorityLow,
			ExerciseName: name,
			Title:        "Add volume to " + name,
			Description:  fmt.Sprintf("%s is progressing and your recent sets feel easy.", name),
			ActionItems: []string{
				"Add 1-2 working sets",
				"Or add 2.5-5 lbs to your working weight",
			},
			Reasoning:       p.Description + " Recent average RPE is below 7.",
			RelatedPatterns: []PatternType{PatternProgression},
		}}
	case PatternOptimal:
		return []Recommendation{{
			ID:           exerciseRecommendationID(KindProgressionReady, key),
			Kind:         KindProgressionReady,
			Priority:     PriorityLow,
			ExerciseName: name,
			Title:        "Keep going on " + name,
			Description:  fmt.Sprintf("%s is progressing at a sustainable effort. Continue your current approach.", name),
			ActionItems: []string{
				"Keep adding small increments when all sets hit the top of the rep range",
				"Keep RPE between 7 and 8.5",
				"Log every session to track the trend",
			},
			Reasoning:       p.Description,
			RelatedPatterns: []PatternType{PatternOptimal},
		}}
	case PatternInconsistent:
		return []Recommendation{{
			ID:           exerciseRecommendationID(KindRepRangeChange, key),
			Kind:         KindRepRangeChange,
			Priority:     PriorityMedium,
			ExerciseName: name,
			Title:        "Use a structured scheme for " + name,
			Description:  fmt.Sprintf("%s varies from session to session without a clear trend.", name),
			ActionItems: []string{
				"Pick a fixed set and rep scheme, e.g. 3 x 8",
				"Hold it for 6-8 weeks",
				"Increase the weight only when all sets are completed",
			},
			Reasoning:       p.Description,
			RelatedPatterns: []PatternType{PatternInconsistent},
		}}
	}
	return nil
}

func overallRecommendations(progress ProgressMetrics) []Recommendation {
	var recs []Recommendation
	if progress.RecoveryScore < lowRecoveryScore {
		recs = append(recs, Recommendation{
			ID:          overallRecommendationID(KindRest),
			Kind:        KindRest,
			Priority:    PriorityHigh,
			Title:       "Improve recovery",
			Description: "Several lifts show signs of fatigue or very high effort.",
			ActionItems: []string{
				"Schedule at least one extra rest day this week",
				"Keep most sets at RPE 8 or below",
				"Review sleep and nutrition",
			},
			Reasoning:       fmt.Sprintf("Recovery score is %d.", progress.RecoveryScore),
			RelatedPatterns: []PatternType{PatternDecline},
		})
	}
	if progress.ConsistencyScore < lowConsistencyScore {
		recs = append(recs, Recommendation{
			ID:          overallRecommendationID(KindConsistencyImprovement),
			Kind:        KindConsistencyImprovement,
			Priority:    PriorityMedium,
			Title:       "Train more consistently",
			Description: "Long gaps between sessions slow down progress.",
			ActionItems: []string{
				"Plan fixed training days for the week",
				"Keep sessions short rather than skipping them",
			},
			Reasoning:       fmt.Sprintf("Consistency score is %d.", progress.ConsistencyScore),
			RelatedPatterns: []PatternType{PatternInconsistent},
		})
	}
	return recs
}

func predictionRecommendation(key string, pred WeightProgressionPrediction) Recommendation {
	priority := PriorityMedium
	if pred.Confidence >= predictionHighConfidence {
		priority = PriorityHigh
	}
	return Recommendation{
		ID:           exerciseRecommendationID(KindProgressionReady, key),
		Kind:         KindProgressionReady,
		Priority:     priority,
		ExerciseName: pred.ExerciseName,
		Title:        "Ready to progress on " + pred.ExerciseName,
		Description: fmt.Sprintf("Try %s next session (+%s) with %.0f%% confidence.",
			formatWeight(pred.PredictedWeight), formatWeight(pred.WeightIncrease), pred.Confidence*100), //nolint:mnd // percent.
		ActionItems: []string{
			fmt.Sprintf("Load %s for your first working set", formatWeight(pred.PredictedWeight)),
			"Keep the same rep target",
			"Drop back if form breaks down",
		},
		Reasoning:       pred.Reasoning,
		RelatedPatterns: []PatternType{PatternProgression},
	}
}
