package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/e2etest"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/errors"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/logging"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/ptr"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/testhelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
	"golang.org/x/sync/errgroup"
)

const (
	numUsers                   = 10
	sessionsPerUser            = 6
	setsPerExercise            = 3
	analysesPerUser            = 5
	maxConcurrentRegistrations = 10
	maxConcurrentOperations    = 20
	historyTimeout             = 2 * time.Minute
	scenarioTimeout            = 30 * time.Second
	successRateThreshold       = 95.0
	expectedArgsCount          = 2
	percentageMultiplier       = 100
)

var exercises = []struct{ id, name string }{
	{"bench-press", "Bench Press"},
	{"squat", "Squat"},
	{"deadlift", "Deadlift"},
	{"overhead-press", "Overhead Press"},
}

type user struct {
	name   string
	client *e2etest.Client
	faker  *gofakeit.Faker
}

// latencies collects request durations from concurrent scenarios.
type latencies struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (l *latencies) add(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.durations = append(l.durations, d)
}

// percentile returns the p-th percentile, p in [0, 1].
func (l *latencies) percentile(p float64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.durations) == 0 {
		return 0
	}
	sorted := slices.Clone(l.durations)
	slices.Sort(sorted)
	return sorted[int(p*float64(len(sorted)-1))]
}

func expect(ctx context.Context, client *e2etest.Client, method, path string, in, out any, want int) error {
	got, err := client.JSON(ctx, method, path, in, out)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if got != want {
		return fmt.Errorf("%s %s: status %d, want %d", method, path, got, want)
	}
	return nil
}

func setupUsers(ctx context.Context, url string, seed int64) ([]*user, error) {
	var (
		users   = make([]*user, numUsers)
		g, gctx = errgroup.WithContext(ctx)
	)
	g.SetLimit(maxConcurrentRegistrations)
	for i := range numUsers {
		g.Go(func() error {
			client, err := e2etest.NewClient(url)
			if err != nil {
				return fmt.Errorf("new client for user %d: %w", i, err)
			}
			f := gofakeit.New(seed + int64(i))
			name := f.FirstName()
			if err = client.Register(gctx, name); err != nil {
				return fmt.Errorf("register user %d: %w", i, err)
			}
			users[i] = &user{name: name, client: client, faker: f}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("setup users: %w", err)
	}
	return users, nil
}

// logHistory logs completed sessions with slowly increasing weights.
func logHistory(ctx context.Context, u *user) error {
	base := make([]float64, len(exercises))
	for i := range base {
		base[i] = float64(u.faker.IntRange(8, 40)) * 5 //nolint:mnd // plate increments
	}

	for n := range sessionsPerUser {
		var sess workout.Session
		if err := expect(ctx, u.client, http.MethodPost, "/api/sessions", workout.StartSessionParams{
			Notes: u.faker.Sentence(5), //nolint:mnd // words
		}, &sess, http.StatusCreated); err != nil {
			return err
		}
		for i, ex := range exercises {
			weight := base[i] + float64(n)*2.5 //nolint:mnd // linear progression
			sets := make([]workout.SetLog, 0, setsPerExercise)
			for range setsPerExercise {
				sets = append(sets, workout.SetLog{
					Type:      workout.SetTypeWorking,
					Weight:    ptr.Ref(weight),
					Reps:      u.faker.IntRange(5, 10),
					RPE:       ptr.Ref(u.faker.Float64Range(6.5, 9)),
					Completed: true,
				})
			}
			log := workout.ExerciseLog{ExerciseID: ex.id, ExerciseName: ex.name, Sets: sets}
			if err := expect(ctx, u.client, http.MethodPost, "/api/sessions/"+sess.ID+"/exercises", log, nil,
				http.StatusCreated); err != nil {
				return err
			}
		}
		if err := expect(ctx, u.client, http.MethodPost, "/api/sessions/"+sess.ID+"/complete", nil, nil,
			http.StatusOK); err != nil {
			return err
		}
	}
	return nil
}

func generateHistory(ctx context.Context, logger *slog.Logger, users []*user) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for _, u := range users {
		g.Go(func() error {
			hctx, cancel := context.WithTimeout(gctx, historyTimeout)
			defer cancel()
			if err := logHistory(hctx, u); err != nil {
				return fmt.Errorf("history for %s: %w", u.name, err)
			}
			logger.LogAttrs(hctx, slog.LevelDebug, "generated history", slog.String("user", u.name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("generate history: %w", err)
	}
	return nil
}

// analysisScenario fetches the analysis variants a client would request after a workout.
func analysisScenario(ctx context.Context, u *user, lat *latencies) error {
	paths := []string{
		"/api/analysis",
		"/api/analysis?predictions=true",
		"/api/dashboard",
	}
	for range analysesPerUser {
		path := paths[u.faker.IntRange(0, len(paths)-1)]
		start := time.Now()
		var a analysis.EnhancedAnalysis
		out := any(&a)
		if strings.HasPrefix(path, "/api/dashboard") {
			out = nil
		}
		if err := expect(ctx, u.client, http.MethodGet, path, nil, out, http.StatusOK); err != nil {
			return err
		}
		lat.add(time.Since(start))
		if out != nil && a.SessionsAnalyzed != sessionsPerUser {
			return fmt.Errorf("%s analyzed %d sessions, want %d", path, a.SessionsAnalyzed, sessionsPerUser)
		}
	}
	return nil
}

func runLoadTest(ctx context.Context, logger *slog.Logger, users []*user) error {
	var (
		successCount, failureCount atomic.Int64
		lat                        latencies
		g, gctx                    = errgroup.WithContext(ctx)
	)
	g.SetLimit(maxConcurrentOperations)
	for _, u := range users {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, scenarioTimeout)
			defer cancel()
			if err := analysisScenario(sctx, u, &lat); err != nil {
				failureCount.Add(1)
				logger.LogAttrs(sctx, slog.LevelWarn, "scenario failed",
					slog.String("user", u.name), errors.SlogError(err))
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	successRate := float64(successCount.Load()) / float64(len(users)) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate),
		slog.Duration("p50", lat.percentile(0.5)),  //nolint:mnd // median
		slog.Duration("p95", lat.percentile(0.95)), //nolint:mnd // tail
	)
	if successRate < successRateThreshold {
		return fmt.Errorf("success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != expectedArgsCount {
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.HasPrefix(hostname, "localhost") {
		url = "http://" + hostname
	}

	client, err := e2etest.NewClient(url)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}

	users, err := setupUsers(ctx, url, start.UnixNano())
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to set up users", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "users registered", slog.Int("users", len(users)))

	historyStart := time.Now()
	if err = generateHistory(ctx, logger, users); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failed to generate history", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "history generated",
		slog.Duration("duration", time.Since(historyStart)),
		slog.Int("sessions_per_user", sessionsPerUser))

	if err = runLoadTest(ctx, logger, users); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "stress test successful", slog.Duration("duration", time.Since(start)))
}
