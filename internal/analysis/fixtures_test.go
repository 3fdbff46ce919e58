package analysis_test

import (
	"fmt"
	"io"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/ptr"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/testhelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

var now = time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)

func newAnalyzer(w io.Writer, opts ...analysis.AnalyzerOption) *analysis.Analyzer {
	opts = append([]analysis.AnalyzerOption{analysis.WithClock(func() time.Time { return now })}, opts...)
	return analysis.NewAnalyzer(testhelpers.NewLogger(w), opts...)
}

// workingSet is a completed working set. A zero rpe leaves RPE unset.
func workingSet(weight float64, reps int, rpe float64) workout.SetLog {
	set := workout.SetLog{
		SetNumber: 1,
		Type:      workout.SetTypeWorking,
		Weight:    ptr.Ref(weight),
		Reps:      reps,
		Completed: true,
	}
	if rpe > 0 {
		set.RPE = ptr.Ref(rpe)
	}
	return set
}

func exercise(id, name string, sets ...workout.SetLog) workout.ExerciseLog {
	return workout.ExerciseLog{ExerciseID: id, ExerciseName: name, Sets: sets}
}

func completedSession(id string, daysAgo int, exercises ...workout.ExerciseLog) workout.Session {
	completedAt := now.AddDate(0, 0, -daysAgo)
	return workout.Session{
		ID:          id,
		StartedAt:   completedAt.Add(-time.Hour),
		CompletedAt: &completedAt,
		Status:      workout.SessionStatusCompleted,
		Exercises:   exercises,
	}
}

// benchSeries creates one session every other day with three sets of five at each weight, the
// last one completed now.
func benchSeries(weights []float64, rpe float64) []workout.Session {
	sessions := make([]workout.Session, 0, len(weights))
	for i, w := range weights {
		sessions = append(sessions, completedSession(
			fmt.Sprintf("bench-%d", i),
			2*(len(weights)-1-i),
			exercise("bench-press", "Bench Press",
				workingSet(w, 5, rpe), workingSet(w, 5, rpe), workingSet(w, 5, rpe)),
		))
	}
	return sessions
}

func recommendationIDs(recs []analysis.Recommendation) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}
