package analysis

import (
	"fmt"
	"math"
	"slices"
)

const (
	recentWindow = 3

	severeDeclinePercent    = 5.0
	highSeverityDeclinePct  = 10.0
	optimalRPELow           = 7.0
	optimalRPEHigh          = 8.5
	plateauHighSeverityDays = 3
)

// DetectExercisePattern classifies a history into exactly one pattern type.
//
// A severe decline wins over a plateau, which wins over progression. A plateau that coincides
// with progression over the whole history is reported as progression. Progression with a recent
// average RPE in [7, 8.5] is reported as optimal.
func DetectExercisePattern(history ExerciseHistory, opts Options) ExercisePattern {
	opts = opts.withDefaults()
	recent := lastN(history.Sessions, recentWindow)
	pattern := ExercisePattern{
		ExerciseID:     history.ExerciseID,
		ExerciseName:   history.ExerciseName,
		DataPoints:     len(history.Sessions),
		RecentSessions: slices.Clone(recent),
	}

	if len(history.Sessions) < 2 { //nolint:mnd // a trend needs two points.
		pattern.Type = PatternInconsistent
		pattern.Severity = SeverityLow
		pattern.Trend = TrendFlat
		pattern.Description = fmt.Sprintf("Insufficient data for %s: %d session(s) logged, at least 2 are needed.",
			history.ExerciseName, len(history.Sessions))
		return pattern
	}

	sig := detectSignals(history.Sessions, opts.WeightProgressionThreshold)
	pattern.Signals = sig
	unit := opts.WeightUnit

	switch {
	case sig.SevereDecline:
		pattern.Type = PatternDecline
		pattern.Trend = TrendDown
		pattern.Severity = SeverityMedium
		if sig.DeclinePercent > highSeverityDeclinePct {
			pattern.Severity = SeverityHigh
		}
		pattern.Description = fmt.Sprintf("%s max weight dropped %.1f%% below your previous average.",
			history.ExerciseName, sig.DeclinePercent)
	case sig.Plateau && !sig.Progression:
		pattern.Type = PatternPlateau
		pattern.Trend = TrendFlat
		switch {
		case sig.PlateauDuration >= plateauHighSeverityDays:
			pattern.Severity = SeverityHigh
		case sig.PlateauDuration == 2: //nolint:mnd // two sessions is a short plateau.
			pattern.Severity = SeverityMedium
		default:
			pattern.Severity = SeverityLow
		}
		pattern.Description = fmt.Sprintf("%s has stayed around %s %s for %d sessions.",
			history.ExerciseName, formatWeight(sig.PlateauWeight), unit, sig.PlateauDuration)
	case sig.Progression:
		pattern.Type = PatternProgression
		pattern.Trend = TrendUp
		pattern.Severity = SeverityLow
		pattern.Description = fmt.Sprintf("%s max weight increased by %s %s over %d sessions.",
			history.ExerciseName, formatWeight(sig.WeightIncrease), unit, sig.ProgressionSessions)
		if rpe := averageRPE(recent); rpe != nil && *rpe >= optimalRPELow && *rpe <= optimalRPEHigh {
			pattern.Type = PatternOptimal
			pattern.Description = fmt.Sprintf(
				"%s is progressing optimally: +%s %s over %d sessions at an average RPE of %.1f.",
				history.ExerciseName, formatWeight(sig.WeightIncrease), unit, sig.ProgressionSessions, *rpe)
		}
	default:
		pattern.Type = PatternInconsistent
		pattern.Trend = TrendFlat
		pattern.Severity = SeverityLow
		pattern.Description = fmt.Sprintf("%s shows no clear trend over %d sessions.",
			history.ExerciseName, len(history.Sessions))
	}
	return pattern
}

// detectSignals computes the plateau, decline and progression signals independently.
func detectSignals(sessions []ExerciseSessionData, threshold float64) PatternSignals {
	var sig PatternSignals

	recentWeights := maxWeights(lastN(sessions, recentWindow))
	if len(recentWeights) >= 2 { //nolint:mnd // a plateau needs two points.
		avg := mean(recentWeights)
		flat := true
		for _, w := range recentWeights {
			if math.Abs(w-avg) > threshold {
				flat = false
				break
			}
		}
		if flat {
			sig.Plateau = true
			sig.PlateauWeight = math.Round(avg)
			sig.PlateauDuration = len(recentWeights)
		}
	}

	if last := sessions[len(sessions)-1].MaxWeight; last != nil {
		if prior := mean(maxWeights(sessions[:len(sessions)-1])); prior > 0 && *last < prior {
			sig.Decline = true
			sig.DeclinePercent = (prior - *last) * 100 / prior //nolint:mnd // percent.
			sig.SevereDecline = sig.DeclinePercent > severeDeclinePercent
		}
	}

	if all := maxWeights(sessions); len(all) >= 2 { //nolint:mnd // first and last.
		increase := all[len(all)-1] - all[0]
		if increase >= threshold {
			sig.Progression = true
			sig.WeightIncrease = increase
			sig.ProgressionSessions = len(sessions)
		}
	}
	return sig
}

// formatWeight prints whole weights without decimals.
func formatWeight(w float64) string {
	if w == math.Trunc(w) {
		return fmt.Sprintf("%.0f", w)
	}
	return fmt.Sprintf("%.1f", w)
}
