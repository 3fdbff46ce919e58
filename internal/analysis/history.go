package analysis

import (
	"slices"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/ptr"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

// effectiveDate is when a session counts as having happened.
func effectiveDate(s workout.Session) time.Time {
	if s.CompletedAt != nil {
		return *s.CompletedAt
	}
	return s.StartedAt
}

// finishedSessions returns the completed and timestamped sessions, oldest first.
// Sessions with the same date keep their input order.
func finishedSessions(sessions []workout.Session) []workout.Session {
	finished := make([]workout.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.IsFinished() {
			finished = append(finished, s)
		}
	}
	slices.SortStableFunc(finished, func(a, b workout.Session) int {
		return effectiveDate(a).Compare(effectiveDate(b))
	})
	return finished
}

// ExtractExerciseHistory groups the qualifying sets of the finished sessions inside the lookback
// window into one history per exercise.
//
// A session exactly LookbackDays before now is included. Histories with fewer than MinSessions
// data points are dropped. Histories are returned in the order their exercise first appears.
func ExtractExerciseHistory(sessions []workout.Session, opts Options, now time.Time) []ExerciseHistory {
	opts = opts.withDefaults()
	cutoff := now.AddDate(0, 0, -opts.LookbackDays)

	var (
		order   []string
		grouped = map[string]*ExerciseHistory{}
	)
	for _, sess := range finishedSessions(sessions) {
		date := effectiveDate(sess)
		if date.Before(cutoff) {
			continue
		}
		for _, log := range sess.Exercises {
			data, ok := sessionData(sess.ID, date, log.Sets, opts.IncludeWarmupSets)
			if !ok {
				continue
			}
			key := exerciseKey(log.ExerciseID, log.ExerciseName)
			h, seen := grouped[key]
			if !seen {
				h = &ExerciseHistory{
					ExerciseID:   log.ExerciseID,
					ExerciseName: log.ExerciseName,
					KeyedByName:  log.ExerciseID == "",
					Sessions:     nil,
				}
				grouped[key] = h
				order = append(order, key)
			}
			h.Sessions = append(h.Sessions, data)
		}
	}

	histories := make([]ExerciseHistory, 0, len(order))
	for _, key := range order {
		if h := grouped[key]; len(h.Sessions) >= opts.MinSessions {
			histories = append(histories, *h)
		}
	}
	return histories
}

// qualifyingSets are the completed sets, without warmups unless includeWarmups.
func qualifyingSets(sets []workout.SetLog, includeWarmups bool) []workout.SetLog {
	var qualifying []workout.SetLog
	for _, set := range sets {
		if !set.Completed {
			continue
		}
		if set.Type == workout.SetTypeWarmup && !includeWarmups {
			continue
		}
		qualifying = append(qualifying, set)
	}
	return qualifying
}

// setVolume is weight times reps where a missing weight counts as zero.
func setVolume(set workout.SetLog) float64 {
	if set.Weight == nil {
		return 0
	}
	return *set.Weight * float64(set.Reps)
}

// sessionData aggregates one exercise log. It reports false when no set qualifies.
func sessionData(
	sessionID string,
	date time.Time,
	sets []workout.SetLog,
	includeWarmups bool,
) (ExerciseSessionData, bool) {
	qualifying := qualifyingSets(sets, includeWarmups)
	if len(qualifying) == 0 {
		return ExerciseSessionData{}, false
	}

	data := ExerciseSessionData{
		SessionID: sessionID,
		Date:      date,
		SetCount:  len(qualifying),
	}
	var (
		weights, rpes, rirs []float64
		reps                float64
	)
	for _, set := range qualifying {
		data.TotalVolume += setVolume(set)
		reps += float64(set.Reps)
		if set.Weight != nil {
			weights = append(weights, *set.Weight)
		}
		if set.RPE != nil {
			rpes = append(rpes, *set.RPE)
		}
		if set.RIR != nil {
			rirs = append(rirs, float64(*set.RIR))
		}
	}
	data.AverageReps = reps / float64(len(qualifying))
	if len(weights) > 0 {
		data.MaxWeight = ptr.Ref(slices.Max(weights))
		data.AverageWeight = meanPtr(weights)
	}
	data.AverageRPE = meanPtr(rpes)
	data.AverageRIR = meanPtr(rirs)
	return data, true
}
