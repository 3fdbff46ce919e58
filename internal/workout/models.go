package workout

import (
	"time"
)

// SessionStatus tells whether a workout session is still being logged.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// SetType distinguishes warmup sets from the sets intended for training effect.
type SetType string

const (
	SetTypeWarmup  SetType = "warmup"
	SetTypeWorking SetType = "working"
)

// PlannedExercise is an exercise prescribed by a split day.
type PlannedExercise struct {
	ExerciseID string `json:"exercise_id"`
	Name       string `json:"name"`
	Sets       int    `json:"sets"`
	MinReps    int    `json:"min_reps"`
	MaxReps    int    `json:"max_reps"`
	WarmupSets int    `json:"warmup_sets"`
	Notes      string `json:"notes"`
}

// SplitDay is one training day of a split, e.g. "Push" or "Lower A".
type SplitDay struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Exercises []PlannedExercise `json:"exercises"`
}

// Split is a named multi-day workout program.
type Split struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Days        []SplitDay `json:"days"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Day returns the day with the given id.
func (s Split) Day(id string) (SplitDay, bool) {
	for _, d := range s.Days {
		if d.ID == id {
			return d, true
		}
	}
	return SplitDay{}, false
}

// SetLog is one performed (or skipped) set.
type SetLog struct {
	SetNumber   int        `json:"set_number"`
	Type        SetType    `json:"type"`
	Weight      *float64   `json:"weight"`
	Reps        int        `json:"reps"`
	RPE         *float64   `json:"rpe"`
	RIR         *int       `json:"rir"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ExerciseLog holds the sets logged for one exercise in a session.
//
// ExerciseID is the stable identity used to follow an exercise across sessions. When it is
// empty the exercise name is used instead.
type ExerciseLog struct {
	ExerciseID   string   `json:"exercise_id"`
	ExerciseName string   `json:"exercise_name"`
	Sets         []SetLog `json:"sets"`
	Notes        string   `json:"notes"`
}

// Session is one workout, either against a split day or freestyle.
type Session struct {
	ID          string         `json:"id"`
	SplitID     string         `json:"split_id"`
	SplitName   string         `json:"split_name"`
	DayID       string         `json:"day_id"`
	DayName     string         `json:"day_name"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Status      SessionStatus  `json:"status"`
	Duration    *time.Duration `json:"duration"`
	Notes       string         `json:"notes"`
	Exercises   []ExerciseLog  `json:"exercises"`
}

// IsFinished reports whether the session is completed and timestamped.
func (s Session) IsFinished() bool {
	return s.Status == SessionStatusCompleted && s.CompletedAt != nil
}
