package analysis_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/ptr"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

func TestExtractExerciseHistory_lookbackBoundary(t *testing.T) {
	opts := analysis.Options{LookbackDays: 30, MinSessions: 1}
	tests := []struct {
		name    string
		daysAgo int
		want    int
	}{
		{name: "exactly lookback days is included", daysAgo: 30, want: 1},
		{name: "one day beyond lookback is excluded", daysAgo: 31, want: 0},
		{name: "today is included", daysAgo: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := []workout.Session{
				completedSession("s1", tt.daysAgo, exercise("squat", "Squat", workingSet(100, 5, 0))),
			}
			histories := analysis.ExtractExerciseHistory(sessions, opts, now)
			if len(histories) != tt.want {
				t.Fatalf("got %d histories, want %d", len(histories), tt.want)
			}
		})
	}
}

func TestExtractExerciseHistory_onlyFinishedSessions(t *testing.T) {
	completed := completedSession("done", 1, exercise("squat", "Squat", workingSet(100, 5, 0)))

	active := completedSession("active", 2, exercise("squat", "Squat", workingSet(200, 5, 0)))
	active.Status = workout.SessionStatusActive

	missingTimestamp := completedSession("no-timestamp", 3, exercise("squat", "Squat", workingSet(300, 5, 0)))
	missingTimestamp.CompletedAt = nil

	histories := analysis.ExtractExerciseHistory(
		[]workout.Session{active, completed, missingTimestamp},
		analysis.Options{MinSessions: 1},
		now,
	)
	if len(histories) != 1 {
		t.Fatalf("got %d histories, want 1", len(histories))
	}
	got := histories[0].Sessions
	if len(got) != 1 || got[0].SessionID != "done" {
		t.Fatalf("got sessions %+v, want only the completed session", got)
	}
}

func TestExtractExerciseHistory_aggregates(t *testing.T) {
	warmup := workingSet(60, 10, 0)
	warmup.Type = workout.SetTypeWarmup
	skipped := workingSet(120, 5, 9)
	skipped.Completed = false
	bodyweight := workout.SetLog{SetNumber: 3, Type: workout.SetTypeWorking, Reps: 12, Completed: true}
	heavy := workingSet(100, 6, 8)
	heavy.RIR = ptr.Ref(2)

	sessions := []workout.Session{
		completedSession("s1", 1, exercise("squat", "Squat", warmup, heavy, workingSet(90, 8, 7), skipped, bodyweight)),
	}

	tests := []struct {
		name           string
		includeWarmups bool
		want           analysis.ExerciseSessionData
	}{
		{
			name:           "working sets",
			includeWarmups: false,
			want: analysis.ExerciseSessionData{
				SessionID:     "s1",
				Date:          now.AddDate(0, 0, -1),
				MaxWeight:     ptr.Ref(100.0),
				AverageWeight: ptr.Ref(95.0),
				TotalVolume:   600 + 720,
				AverageReps:   26.0 / 3,
				AverageRPE:    ptr.Ref(7.5),
				AverageRIR:    ptr.Ref(2.0),
				SetCount:      3,
			},
		},
		{
			name:           "with warmups",
			includeWarmups: true,
			want: analysis.ExerciseSessionData{
				SessionID:     "s1",
				Date:          now.AddDate(0, 0, -1),
				MaxWeight:     ptr.Ref(100.0),
				AverageWeight: ptr.Ref(250.0 / 3),
				TotalVolume:   600 + 600 + 720,
				AverageReps:   36.0 / 4,
				AverageRPE:    ptr.Ref(7.5),
				AverageRIR:    ptr.Ref(2.0),
				SetCount:      4,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := analysis.Options{MinSessions: 1, IncludeWarmupSets: tt.includeWarmups}
			histories := analysis.ExtractExerciseHistory(sessions, opts, now)
			if len(histories) != 1 {
				t.Fatalf("got %d histories, want 1", len(histories))
			}
			if diff := cmp.Diff([]analysis.ExerciseSessionData{tt.want}, histories[0].Sessions); diff != "" {
				t.Errorf("sessions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractExerciseHistory_grouping(t *testing.T) {
	sessions := []workout.Session{
		completedSession("s3", 1,
			exercise("", "Pull-up", workingSet(0, 8, 0)),
			exercise("squat", "Back Squat", workingSet(110, 5, 0))),
		completedSession("s1", 5,
			exercise("squat", "Squat", workingSet(100, 5, 0)),
			exercise("", "Pull-up", workingSet(0, 6, 0))),
		completedSession("s2", 3,
			exercise("squat", "Squat", workingSet(105, 5, 0)),
			exercise("bench", "Bench", workout.SetLog{SetNumber: 1, Reps: 5, Completed: false})),
	}

	histories := analysis.ExtractExerciseHistory(sessions, analysis.Options{MinSessions: 2}, now)

	type summary struct {
		Key         string
		KeyedByName bool
		SessionIDs  []string
	}
	got := make([]summary, 0, len(histories))
	for _, h := range histories {
		s := summary{Key: h.Key(), KeyedByName: h.KeyedByName}
		for _, d := range h.Sessions {
			s.SessionIDs = append(s.SessionIDs, d.SessionID)
		}
		got = append(got, s)
	}
	want := []summary{
		{Key: "squat", KeyedByName: false, SessionIDs: []string{"s1", "s2", "s3"}},
		{Key: "Pull-up", KeyedByName: true, SessionIDs: []string{"s1", "s3"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("histories mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractExerciseHistory_minSessions(t *testing.T) {
	sessions := benchSeries([]float64{100, 105}, 0)
	if got := analysis.ExtractExerciseHistory(sessions, analysis.Options{}, now); len(got) != 0 {
		t.Errorf("got %d histories with the default minimum, want 0", len(got))
	}
	if got := analysis.ExtractExerciseHistory(sessions, analysis.Options{MinSessions: 2}, now); len(got) != 1 {
		t.Errorf("got %d histories with minimum 2, want 1", len(got))
	}
}

func TestExtractExerciseHistory_bodyweightHasNoMaxWeight(t *testing.T) {
	sessions := []workout.Session{
		completedSession("s1", 0, exercise("pullup", "Pull-up", workout.SetLog{
			SetNumber: 1, Type: workout.SetTypeWorking, Reps: 10, Completed: true,
		})),
	}
	histories := analysis.ExtractExerciseHistory(sessions, analysis.Options{MinSessions: 1}, now)
	if len(histories) != 1 {
		t.Fatalf("got %d histories, want 1", len(histories))
	}
	data := histories[0].Sessions[0]
	if data.MaxWeight != nil || data.AverageWeight != nil || data.TotalVolume != 0 {
		t.Errorf("got %+v, want no weight and zero volume", data)
	}
}
