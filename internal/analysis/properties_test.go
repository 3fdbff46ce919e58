package analysis_test

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/ptr"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/testhelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

var fakeExercises = []string{"Squat", "Bench Press", "Deadlift", "Overhead Press", "Barbell Row", "Pull-up"}

// fakeSessions generates a random training log. Some sessions are unfinished, some exercises lack
// ids and some sets lack weights or RPE.
func fakeSessions(f *gofakeit.Faker) []workout.Session {
	count := f.IntRange(0, 20)
	sessions := make([]workout.Session, 0, count)
	for i := range count {
		sess := completedSession(fmt.Sprintf("s%d", i), f.IntRange(0, 45))
		if f.IntRange(0, 9) == 0 {
			sess.Status = workout.SessionStatusActive
			sess.CompletedAt = nil
		}
		for range f.IntRange(1, 4) {
			name := f.RandomString(fakeExercises)
			log := workout.ExerciseLog{ExerciseID: workout.ExerciseIDFromName(name), ExerciseName: name}
			if f.IntRange(0, 4) == 0 {
				log.ExerciseID = ""
			}
			for n := range f.IntRange(0, 5) {
				set := workout.SetLog{
					SetNumber: n + 1,
					Type:      workout.SetTypeWorking,
					Reps:      f.IntRange(1, 15),
					Completed: f.IntRange(0, 5) > 0,
				}
				if f.IntRange(0, 4) == 0 {
					set.Type = workout.SetTypeWarmup
				}
				if f.IntRange(0, 5) > 0 {
					set.Weight = ptr.Ref(float64(f.IntRange(0, 100)) * 2.5)
				}
				if f.Bool() {
					set.RPE = ptr.Ref(float64(f.IntRange(10, 20)) / 2)
				}
				log.Sets = append(log.Sets, set)
			}
			sess.Exercises = append(sess.Exercises, log)
		}
		sessions = append(sessions, sess)
	}
	return sessions
}

func TestAnalyzer_properties(t *testing.T) {
	for seed := range int64(200) {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			f := gofakeit.New(seed)
			sessions := fakeSessions(f)
			opts := analysis.Options{
				LookbackDays:               f.IntRange(1, 40),
				MinSessions:                f.IntRange(1, 4),
				IncludeWarmupSets:          f.Bool(),
				WeightProgressionThreshold: float64(f.IntRange(1, 4)) * 2.5,
			}
			a := newAnalyzer(testhelpers.NewWriter(t))
			got := a.AnalyzeWithPredictions(t.Context(), sessions, opts)

			if got.OverallScore < 0 || got.OverallScore > 100 {
				t.Errorf("score %d out of bounds", got.OverallScore)
			}
			seen := map[string]bool{}
			for i, r := range got.Recommendations {
				if seen[r.ID] {
					t.Errorf("duplicate recommendation id %s", r.ID)
				}
				seen[r.ID] = true
				if i > 0 && got.Recommendations[i-1].Priority.Rank() < r.Priority.Rank() {
					t.Errorf("recommendation %s (%s) ordered after %s (%s)",
						r.ID, r.Priority, got.Recommendations[i-1].ID, got.Recommendations[i-1].Priority)
				}
			}
			for _, p := range got.Patterns {
				if p.Type == analysis.PatternPlateau && p.Signals.Progression {
					t.Errorf("pattern %s reported as plateau while progressing", p.ExerciseName)
				}
			}
			for key, p := range got.Predictions {
				if p.PredictedWeight < 0 {
					t.Errorf("prediction %s is negative: %v", key, p.PredictedWeight)
				}
			}
			if got.Progress.ConsistencyScore < 0 || got.Progress.ConsistencyScore > 100 ||
				got.Progress.RecoveryScore < 0 || got.Progress.RecoveryScore > 100 {
				t.Errorf("progress scores out of bounds: %+v", got.Progress)
			}
		})
	}
}

func TestExtractExerciseHistory_ignoresUnfinishedSessions(t *testing.T) {
	for seed := range int64(100) {
		f := gofakeit.New(seed)
		sessions := fakeSessions(f)
		unfinished := map[string]bool{}
		for _, s := range sessions {
			if !s.IsFinished() {
				unfinished[s.ID] = true
			}
		}
		histories := analysis.ExtractExerciseHistory(sessions, analysis.Options{LookbackDays: 60, MinSessions: 1}, now)
		for _, h := range histories {
			for _, d := range h.Sessions {
				if unfinished[d.SessionID] {
					t.Fatalf("seed %d: unfinished session %s contributed to %s", seed, d.SessionID, h.Key())
				}
			}
			for i := 1; i < len(h.Sessions); i++ {
				if h.Sessions[i].Date.Before(h.Sessions[i-1].Date) {
					t.Fatalf("seed %d: history %s is not chronological", seed, h.Key())
				}
			}
		}
	}
}
