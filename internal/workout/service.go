package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/sqlite"
)

// ErrPlannerUnavailable is returned by GenerateSplit when no OpenAI API key is configured.
var ErrPlannerUnavailable = errors.New("plan generator not configured")

// Service handles the business logic for splits and workout sessions.
type Service struct {
	repo    *repository
	logger  *slog.Logger
	planner planGenerator
	now     func() time.Time
	newID   func() string
}

// NewService creates a new workout service. Split generation is disabled when openaiAPIKey is empty.
func NewService(db *sqlite.Database, logger *slog.Logger, openaiAPIKey string) *Service {
	factory := newRepositoryFactory(db, logger)
	var planner planGenerator
	if openaiAPIKey != "" {
		planner = newOpenAIPlanGenerator(openaiAPIKey)
	}
	return &Service{
		repo:    factory.newRepository(),
		logger:  logger,
		planner: planner,
		now: func() time.Time {
			// Stored timestamps have millisecond precision.
			return time.Now().UTC().Truncate(time.Millisecond)
		},
		newID: uuid.NewString,
	}
}

// ListSplits returns the user's splits, newest first.
func (s *Service) ListSplits(ctx context.Context) ([]Split, error) {
	splits, err := s.repo.splits.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	return splits, nil
}

func (s *Service) GetSplit(ctx context.Context, id string) (Split, error) {
	split, err := s.repo.splits.Get(ctx, id)
	if err != nil {
		return Split{}, fmt.Errorf("get split %s: %w", id, err)
	}
	return split, nil
}

// CreateSplit validates and stores a new split. Missing split and day ids are generated and
// planned exercises without an id get one derived from the name.
func (s *Service) CreateSplit(ctx context.Context, split Split) (Split, error) {
	if err := validateSplit(split); err != nil {
		return Split{}, err
	}
	now := s.now()
	split.ID = s.newID()
	split.CreatedAt = now
	split.UpdatedAt = now
	s.assignDayIDs(&split)

	if err := s.repo.splits.Create(ctx, split); err != nil {
		return Split{}, fmt.Errorf("create split: %w", err)
	}
	return split, nil
}

// UpdateSplit replaces the name, description and days of an existing split.
func (s *Service) UpdateSplit(ctx context.Context, id string, changes Split) (Split, error) {
	if err := validateSplit(changes); err != nil {
		return Split{}, err
	}
	var updated Split
	if err := s.repo.splits.Update(ctx, id, func(split *Split) (bool, error) {
		split.Name = changes.Name
		split.Description = changes.Description
		split.Days = changes.Days
		split.UpdatedAt = s.now()
		s.assignDayIDs(split)
		updated = *split
		return true, nil
	}); err != nil {
		return Split{}, fmt.Errorf("update split %s: %w", id, err)
	}
	return updated, nil
}

func (s *Service) DeleteSplit(ctx context.Context, id string) error {
	if err := s.repo.splits.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete split %s: %w", id, err)
	}
	return nil
}

// GenerateSplit asks the language model for a plan matching req and stores it as a new split.
func (s *Service) GenerateSplit(ctx context.Context, req PlanRequest) (Split, error) {
	if s.planner == nil {
		return Split{}, ErrPlannerUnavailable
	}
	if err := req.validate(); err != nil {
		return Split{}, err
	}
	start := time.Now()
	plan, err := s.planner.Generate(ctx, req)
	if err != nil {
		return Split{}, fmt.Errorf("generate plan: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "generated plan",
		slog.String("name", plan.Name), slog.Int("days", len(plan.Days)),
		slog.Duration("duration", time.Since(start)))

	if err = plan.validate(); err != nil {
		return Split{}, fmt.Errorf("validate generated plan: %w", err)
	}
	split, err := s.CreateSplit(ctx, plan.toSplit())
	if err != nil {
		return Split{}, err
	}
	return split, nil
}

func (s *Service) assignDayIDs(split *Split) {
	for i := range split.Days {
		if split.Days[i].ID == "" {
			split.Days[i].ID = s.newID()
		}
		if split.Days[i].Exercises == nil {
			split.Days[i].Exercises = []PlannedExercise{}
		}
		for j := range split.Days[i].Exercises {
			ex := &split.Days[i].Exercises[j]
			if ex.ExerciseID = strings.TrimSpace(ex.ExerciseID); ex.ExerciseID == "" {
				ex.ExerciseID = ExerciseIDFromName(ex.Name)
			}
		}
	}
	if split.Days == nil {
		split.Days = []SplitDay{}
	}
}

// StartSessionParams selects what a new session is logged against. Both ids empty means freestyle.
type StartSessionParams struct {
	SplitID string `json:"split_id"`
	DayID   string `json:"day_id"`
	Notes   string `json:"notes"`
}

// StartSession creates an active session. For a split day the planned exercises are pre-filled.
func (s *Service) StartSession(ctx context.Context, params StartSessionParams) (Session, error) {
	sess := Session{
		ID:        s.newID(),
		StartedAt: s.now(),
		Status:    SessionStatusActive,
		Notes:     strings.TrimSpace(params.Notes),
		Exercises: []ExerciseLog{},
	}

	if params.SplitID != "" {
		split, err := s.repo.splits.Get(ctx, params.SplitID)
		if err != nil {
			return Session{}, fmt.Errorf("get split %s: %w", params.SplitID, err)
		}
		day, ok := split.Day(params.DayID)
		if !ok {
			return Session{}, fmt.Errorf("%w: split %s has no day %q", ErrInvalidInput, split.ID, params.DayID)
		}
		sess.SplitID, sess.SplitName = split.ID, split.Name
		sess.DayID, sess.DayName = day.ID, day.Name
		for _, planned := range day.Exercises {
			sess.Exercises = append(sess.Exercises, ExerciseLog{
				ExerciseID:   planned.ExerciseID,
				ExerciseName: planned.Name,
				Sets:         []SetLog{},
				Notes:        planned.Notes,
			})
		}
	} else if params.DayID != "" {
		return Session{}, fmt.Errorf("%w: day_id requires split_id", ErrInvalidInput)
	}

	if err := s.repo.sessions.Create(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("start session: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "started session",
		slog.String("session_id", sess.ID), slog.String("split_id", sess.SplitID))
	return sess, nil
}

// ListSessions returns the sessions started at or after since, oldest first.
func (s *Service) ListSessions(ctx context.Context, since time.Time) ([]Session, error) {
	sessions, err := s.repo.sessions.List(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	sess, err := s.repo.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// AddExercise appends an exercise to an active session. Exercises without an id get one derived
// from the name, the same id a generated split assigns.
func (s *Service) AddExercise(ctx context.Context, sessionID string, ex ExerciseLog) (Session, error) {
	ex.ExerciseName = strings.TrimSpace(ex.ExerciseName)
	ex.ExerciseID = strings.TrimSpace(ex.ExerciseID)
	if ex.ExerciseName == "" {
		return Session{}, fmt.Errorf("%w: exercise name is required", ErrInvalidInput)
	}
	if ex.ExerciseID == "" {
		ex.ExerciseID = ExerciseIDFromName(ex.ExerciseName)
	}
	for i := range ex.Sets {
		ex.Sets[i].SetNumber = i + 1
		if err := s.prepareSet(&ex.Sets[i]); err != nil {
			return Session{}, err
		}
	}
	if ex.Sets == nil {
		ex.Sets = []SetLog{}
	}

	return s.updateActiveSession(ctx, sessionID, func(sess *Session) error {
		sess.Exercises = append(sess.Exercises, ex)
		return nil
	})
}

// LogSet appends a set to the exercise at exerciseIndex. The set number is assigned in order.
func (s *Service) LogSet(ctx context.Context, sessionID string, exerciseIndex int, set SetLog) (Session, error) {
	if err := s.prepareSet(&set); err != nil {
		return Session{}, err
	}
	return s.updateActiveSession(ctx, sessionID, func(sess *Session) error {
		if exerciseIndex < 0 || exerciseIndex >= len(sess.Exercises) {
			return fmt.Errorf("%w: session has no exercise %d", ErrInvalidInput, exerciseIndex)
		}
		ex := &sess.Exercises[exerciseIndex]
		set.SetNumber = len(ex.Sets) + 1
		ex.Sets = append(ex.Sets, set)
		return nil
	})
}

// CompleteSession marks an active session completed and records its duration.
func (s *Service) CompleteSession(ctx context.Context, sessionID string) (Session, error) {
	return s.updateActiveSession(ctx, sessionID, func(sess *Session) error {
		now := s.now()
		duration := now.Sub(sess.StartedAt)
		sess.Status = SessionStatusCompleted
		sess.CompletedAt = &now
		sess.Duration = &duration
		return nil
	})
}

func (s *Service) updateActiveSession(ctx context.Context, id string, fn func(sess *Session) error) (Session, error) {
	var updated Session
	if err := s.repo.sessions.Update(ctx, id, func(sess *Session) (bool, error) {
		if sess.Status != SessionStatusActive {
			return false, fmt.Errorf("%w: session %s is %s", ErrInvalidInput, id, sess.Status)
		}
		if err := fn(sess); err != nil {
			return false, err
		}
		updated = *sess
		return true, nil
	}); err != nil {
		return Session{}, fmt.Errorf("update session %s: %w", id, err)
	}
	return updated, nil
}

// prepareSet validates set and fills in defaults.
func (s *Service) prepareSet(set *SetLog) error {
	if set.Type == "" {
		set.Type = SetTypeWorking
	}
	if set.Type != SetTypeWorking && set.Type != SetTypeWarmup {
		return fmt.Errorf("%w: unknown set type %q", ErrInvalidInput, set.Type)
	}
	if set.Reps < 0 {
		return fmt.Errorf("%w: reps must not be negative", ErrInvalidInput)
	}
	if set.Weight != nil && *set.Weight < 0 {
		return fmt.Errorf("%w: weight must not be negative", ErrInvalidInput)
	}
	if set.RPE != nil && (*set.RPE < 1 || *set.RPE > 10) {
		return fmt.Errorf("%w: rpe must be between 1 and 10", ErrInvalidInput)
	}
	if set.RIR != nil && (*set.RIR < 0 || *set.RIR > 10) {
		return fmt.Errorf("%w: rir must be between 0 and 10", ErrInvalidInput)
	}
	if set.Completed && set.CompletedAt == nil {
		now := s.now()
		set.CompletedAt = &now
	}
	if !set.Completed {
		set.CompletedAt = nil
	}
	return nil
}

func validateSplit(split Split) error {
	name := strings.TrimSpace(split.Name)
	if name == "" {
		return fmt.Errorf("%w: split name is required", ErrInvalidInput)
	}
	if len(name) > 200 { //nolint:mnd // matches the column constraint.
		return fmt.Errorf("%w: split name is too long", ErrInvalidInput)
	}
	for i, day := range split.Days {
		if strings.TrimSpace(day.Name) == "" {
			return fmt.Errorf("%w: day %d has no name", ErrInvalidInput, i+1)
		}
		for _, ex := range day.Exercises {
			if err := validatePlannedExercise(ex); err != nil {
				return fmt.Errorf("day %q: %w", day.Name, err)
			}
		}
	}
	return nil
}

func validatePlannedExercise(ex PlannedExercise) error {
	switch {
	case strings.TrimSpace(ex.Name) == "":
		return fmt.Errorf("%w: exercise name is required", ErrInvalidInput)
	case ex.Sets < 1 || ex.Sets > maxPlannedSets:
		return fmt.Errorf("%w: %s: sets must be between 1 and %d", ErrInvalidInput, ex.Name, maxPlannedSets)
	case ex.MinReps < 1 || ex.MaxReps < ex.MinReps || ex.MaxReps > maxPlannedReps:
		return fmt.Errorf("%w: %s: invalid rep range %d-%d", ErrInvalidInput, ex.Name, ex.MinReps, ex.MaxReps)
	case ex.WarmupSets < 0 || ex.WarmupSets > maxWarmupSets:
		return fmt.Errorf("%w: %s: warmup sets must be between 0 and %d", ErrInvalidInput, ex.Name, maxWarmupSets)
	}
	return nil
}
