package workout

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/contexthelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/sqlite"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/testhelpers"
)

type stubPlanGenerator struct {
	content string
	err     error
	got     PlanRequest
}

func (g *stubPlanGenerator) Generate(_ context.Context, req PlanRequest) (generatedPlan, error) {
	g.got = req
	if g.err != nil {
		return generatedPlan{}, g.err
	}
	return parsePlan(g.content)
}

const upperLowerPlan = `{
  "name": "Upper Lower",
  "description": "Four day upper lower split",
  "days": [
    {"name": "Upper", "exercises": [
      {"name": "Barbell Bench Press", "sets": 4, "min_reps": 5, "max_reps": 8, "warmup_sets": 2, "notes": ""},
      {"name": "Pull-Up", "sets": 3, "min_reps": 6, "max_reps": 10, "warmup_sets": 0, "notes": "Add weight past 10"}
    ]},
    {"name": "Lower", "exercises": [
      {"name": "Barbell Back Squat", "sets": 4, "min_reps": 5, "max_reps": 8, "warmup_sets": 2, "notes": ""}
    ]}
  ]
}`

func TestGeneratedPlan_validate(t *testing.T) {
	valid, err := parsePlan(upperLowerPlan)
	if err != nil {
		t.Fatalf("parsePlan: %v", err)
	}
	if err = valid.validate(); err != nil {
		t.Fatalf("validate valid plan: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *generatedPlan)
	}{
		{name: "no name", mutate: func(p *generatedPlan) { p.Name = "" }},
		{name: "no days", mutate: func(p *generatedPlan) { p.Days = nil }},
		{name: "too many days", mutate: func(p *generatedPlan) {
			for len(p.Days) <= maxPlanDays {
				p.Days = append(p.Days, p.Days[0])
			}
		}},
		{name: "empty day", mutate: func(p *generatedPlan) { p.Days[1].Exercises = nil }},
		{name: "zero sets", mutate: func(p *generatedPlan) { p.Days[0].Exercises[0].Sets = 0 }},
		{name: "too many reps", mutate: func(p *generatedPlan) { p.Days[0].Exercises[0].MaxReps = 100 }},
		{name: "too many warmups", mutate: func(p *generatedPlan) { p.Days[0].Exercises[0].WarmupSets = 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, parseErr := parsePlan(upperLowerPlan)
			if parseErr != nil {
				t.Fatalf("parsePlan: %v", parseErr)
			}
			tt.mutate(&p)
			if err := p.validate(); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("validate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestExerciseIDFromName(t *testing.T) {
	tests := map[string]string{
		"Barbell Back Squat":  "barbell-back-squat",
		"  Pull-Up ":          "pull-up",
		"Dumbbell 1-Arm Row!": "dumbbell-1-arm-row",
		"":                    "",
	}
	for name, want := range tests {
		if got := ExerciseIDFromName(name); got != want {
			t.Errorf("ExerciseIDFromName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestService_GenerateSplit(t *testing.T) {
	ctx := t.Context()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var userID int
	if err = db.ReadWrite.QueryRowContext(ctx,
		"INSERT INTO users DEFAULT VALUES RETURNING id").Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	ctx = contexthelpers.WithUserID(ctx, userID)

	svc := NewService(db, logger, "")
	stub := &stubPlanGenerator{content: upperLowerPlan}
	svc.planner = stub

	req := PlanRequest{Goal: "hypertrophy", Experience: "intermediate", DaysPerWeek: 4, Equipment: []string{"barbell"}}
	split, err := svc.GenerateSplit(ctx, req)
	if err != nil {
		t.Fatalf("GenerateSplit: %v", err)
	}
	if stub.got.Goal != "hypertrophy" {
		t.Errorf("generator got request %+v", stub.got)
	}
	if split.Name != "Upper Lower" || len(split.Days) != 2 {
		t.Fatalf("unexpected split %+v", split)
	}
	if got := split.Days[1].Exercises[0].ExerciseID; got != "barbell-back-squat" {
		t.Errorf("exercise id = %q, want barbell-back-squat", got)
	}

	stored, err := svc.GetSplit(ctx, split.ID)
	if err != nil {
		t.Fatalf("GetSplit: %v", err)
	}
	if stored.Days[0].Exercises[1].Notes != "Add weight past 10" {
		t.Errorf("stored notes = %q", stored.Days[0].Exercises[1].Notes)
	}

	t.Run("invalid request", func(t *testing.T) {
		if _, err = svc.GenerateSplit(ctx, PlanRequest{Goal: "strength", DaysPerWeek: 8}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("GenerateSplit() error = %v, want ErrInvalidInput", err)
		}
	})
	t.Run("invalid plan", func(t *testing.T) {
		svc.planner = &stubPlanGenerator{content: `{"name": "", "description": "", "days": []}`}
		if _, err = svc.GenerateSplit(ctx, req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("GenerateSplit() error = %v, want ErrInvalidInput", err)
		}
	})
	t.Run("generator failure", func(t *testing.T) {
		boom := errors.New("boom")
		svc.planner = &stubPlanGenerator{err: boom}
		if _, err = svc.GenerateSplit(ctx, req); !errors.Is(err, boom) {
			t.Errorf("GenerateSplit() error = %v, want boom", err)
		}
	})
}

func TestPlanPrompt(t *testing.T) {
	prompt := planPrompt(PlanRequest{Goal: "strength", DaysPerWeek: 3, SessionMinutes: 60, Equipment: []string{"barbell", "rack"}})
	for _, want := range []string{"exactly 3 training days", "Goal: strength", "60 minutes", "barbell, rack"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt %q does not contain %q", prompt, want)
		}
	}
}

func TestOpenAIPlanGenerator_Generate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}
	openaiAPIKey := os.Getenv("OPENAI_API_KEY")
	if openaiAPIKey == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	plan, err := newOpenAIPlanGenerator(openaiAPIKey).Generate(t.Context(),
		PlanRequest{Goal: "general strength", Experience: "beginner", DaysPerWeek: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err = plan.validate(); err != nil {
		t.Errorf("generated plan is invalid: %v", err)
	}
}
