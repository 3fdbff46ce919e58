package analysis

import (
	"math"
	"slices"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

const (
	decliningStrengthProgress = -5.0
	volumeMinSessions         = 4
	consistencyMinSessions    = 3
	defaultConsistencyScore   = 100
	defaultRecoveryScore      = 75
	highRPE                   = 9.0
)

// calculateProgress computes the aggregate metrics. Volume only counts finished sessions while
// consistency looks at every session given.
func calculateProgress(
	all []workout.Session,
	finished []workout.Session,
	patterns []ExercisePattern,
	opts Options,
) ProgressMetrics {
	return ProgressMetrics{
		StrengthProgress: round1(strengthProgress(patterns)),
		VolumeProgress:   round1(volumeProgress(finished, opts.IncludeWarmupSets)),
		ConsistencyScore: consistencyScore(all),
		RecoveryScore:    recoveryScore(patterns),
	}
}

// strengthProgress averages the percentage change in the recent window of the progressing
// exercises.
func strengthProgress(patterns []ExercisePattern) float64 {
	var (
		changes   []float64
		declining int
	)
	for _, p := range patterns {
		switch p.Type {
		case PatternProgression, PatternOptimal:
			weights := maxWeights(p.RecentSessions)
			if len(weights) < 2 || weights[0] <= 0 { //nolint:mnd // first and last.
				continue
			}
			changes = append(changes, (weights[len(weights)-1]-weights[0])*100/weights[0]) //nolint:mnd // percent.
		case PatternDecline:
			declining++
		}
	}
	if len(changes) > 0 {
		return mean(changes)
	}
	if declining*2 > len(patterns) {
		return decliningStrengthProgress
	}
	return 0
}

// volumeProgress compares the mean session volume of the recent half to the older half.
func volumeProgress(finished []workout.Session, includeWarmups bool) float64 {
	if len(finished) < volumeMinSessions {
		return 0
	}
	volumes := make([]float64, len(finished))
	for i, s := range finished {
		for _, log := range s.Exercises {
			for _, set := range qualifyingSets(log.Sets, includeWarmups) {
				volumes[i] += setVolume(set)
			}
		}
	}
	half := len(volumes) / 2 //nolint:mnd // halves.
	older, recent := mean(volumes[:half]), mean(volumes[half:])
	if older == 0 {
		return 0
	}
	return (recent - older) * 100 / older //nolint:mnd // percent.
}

// consistencyScore rates the mean gap in days between consecutive sessions.
func consistencyScore(sessions []workout.Session) int {
	if len(sessions) < consistencyMinSessions {
		return defaultConsistencyScore
	}
	days := make([]time.Time, len(sessions))
	for i, s := range sessions {
		days[i] = effectiveDate(s).UTC().Truncate(24 * time.Hour) //nolint:mnd // one day.
	}
	slices.SortFunc(days, time.Time.Compare)

	gaps := make([]float64, 0, len(days)-1)
	for i := 1; i < len(days); i++ {
		gaps = append(gaps, days[i].Sub(days[i-1]).Hours()/24) //nolint:mnd // hours per day.
	}
	switch avg := mean(gaps); {
	case avg > 5: //nolint:mnd // days.
		return 40 //nolint:mnd // score.
	case avg > 3: //nolint:mnd // days.
		return 70 //nolint:mnd // score.
	case avg >= 1:
		return 100 //nolint:mnd // score.
	default:
		return 60 //nolint:mnd // score.
	}
}

// recoveryScore looks at the share of declining exercises and exercises trained at RPE 9 or above.
func recoveryScore(patterns []ExercisePattern) int {
	if len(patterns) == 0 {
		return defaultRecoveryScore
	}
	var declining, strained int
	for _, p := range patterns {
		if p.Type == PatternDecline {
			declining++
		}
		if rpe := averageRPE(lastN(p.RecentSessions, recentWindow)); rpe != nil && *rpe >= highRPE {
			strained++
		}
	}
	total := float64(len(patterns))
	declineRatio, strainRatio := float64(declining)/total, float64(strained)/total
	switch {
	case declineRatio > 0.3 || strainRatio > 0.4: //nolint:mnd // ratios.
		return 40 //nolint:mnd // score.
	case declineRatio > 0.1 || strainRatio > 0.2: //nolint:mnd // ratios.
		return 60 //nolint:mnd // score.
	default:
		return 85 //nolint:mnd // score.
	}
}

// overallScore combines pattern counts and progress metrics into a 0-100 score.
func overallScore(patterns []ExercisePattern, progress ProgressMetrics) int {
	score := 50.0
	for _, p := range patterns {
		switch {
		case p.Type == PatternOptimal:
			score += 15
		case p.Type == PatternProgression:
			score += 10
		case p.Type == PatternDecline:
			score -= 15
		case p.Type == PatternPlateau && p.Severity == SeverityHigh:
			score -= 10
		}
	}
	if progress.StrengthProgress > 0 {
		score += math.Min(progress.StrengthProgress, 15) //nolint:mnd // cap.
	} else {
		score -= math.Min(math.Abs(progress.StrengthProgress), 15) //nolint:mnd // cap.
	}
	score += float64(progress.ConsistencyScore) / 10 * 1.5 //nolint:mnd // weight.
	score += float64(progress.RecoveryScore) / 10 * 1.5     //nolint:mnd // weight.
	return int(math.Round(math.Max(0, math.Min(100, score)))) //nolint:mnd // bounds.
}
