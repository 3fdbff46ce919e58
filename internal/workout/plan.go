package workout

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	maxPlanDays    = 7
	maxPlannedSets = 10
	maxPlannedReps = 50
	maxWarmupSets  = 5
)

// PlanRequest describes the program a user wants generated.
type PlanRequest struct {
	Goal           string   `json:"goal"`
	Experience     string   `json:"experience"`
	DaysPerWeek    int      `json:"days_per_week"`
	SessionMinutes int      `json:"session_minutes"`
	Equipment      []string `json:"equipment"`
}

func (r PlanRequest) validate() error {
	if strings.TrimSpace(r.Goal) == "" {
		return fmt.Errorf("%w: goal is required", ErrInvalidInput)
	}
	if r.DaysPerWeek < 1 || r.DaysPerWeek > maxPlanDays {
		return fmt.Errorf("%w: days_per_week must be between 1 and %d", ErrInvalidInput, maxPlanDays)
	}
	if r.SessionMinutes < 0 {
		return fmt.Errorf("%w: session_minutes must not be negative", ErrInvalidInput)
	}
	return nil
}

// generatedPlan is the JSON document returned by the language model.
type generatedPlan struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Days        []generatedDay `json:"days"`
}

type generatedDay struct {
	Name      string              `json:"name"`
	Exercises []generatedExercise `json:"exercises"`
}

type generatedExercise struct {
	Name       string `json:"name"`
	Sets       int    `json:"sets"`
	MinReps    int    `json:"min_reps"`
	MaxReps    int    `json:"max_reps"`
	WarmupSets int    `json:"warmup_sets"`
	Notes      string `json:"notes"`
}

// validate rejects plans that the model produced outside the bounds a split accepts.
func (p generatedPlan) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: plan has no name", ErrInvalidInput)
	}
	if len(p.Days) == 0 || len(p.Days) > maxPlanDays {
		return fmt.Errorf("%w: plan has %d days", ErrInvalidInput, len(p.Days))
	}
	for _, day := range p.Days {
		if strings.TrimSpace(day.Name) == "" {
			return fmt.Errorf("%w: plan day has no name", ErrInvalidInput)
		}
		if len(day.Exercises) == 0 {
			return fmt.Errorf("%w: day %q has no exercises", ErrInvalidInput, day.Name)
		}
		for _, ex := range day.Exercises {
			if err := validatePlannedExercise(ex.planned()); err != nil {
				return fmt.Errorf("day %q: %w", day.Name, err)
			}
		}
	}
	return nil
}

// toSplit converts the plan. Exercise ids are derived from names so that the same lift
// keeps its identity across generated splits.
func (p generatedPlan) toSplit() Split {
	split := Split{
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		Days:        make([]SplitDay, 0, len(p.Days)),
	}
	for _, day := range p.Days {
		sd := SplitDay{
			Name:      strings.TrimSpace(day.Name),
			Exercises: make([]PlannedExercise, 0, len(day.Exercises)),
		}
		for _, ex := range day.Exercises {
			sd.Exercises = append(sd.Exercises, ex.planned())
		}
		split.Days = append(split.Days, sd)
	}
	return split
}

func (e generatedExercise) planned() PlannedExercise {
	name := strings.TrimSpace(e.Name)
	return PlannedExercise{
		ExerciseID: ExerciseIDFromName(name),
		Name:       name,
		Sets:       e.Sets,
		MinReps:    e.MinReps,
		MaxReps:    e.MaxReps,
		WarmupSets: e.WarmupSets,
		Notes:      strings.TrimSpace(e.Notes),
	}
}

// ExerciseIDFromName derives a stable slug id, e.g. "Barbell Back Squat" becomes "barbell-back-squat".
func ExerciseIDFromName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
