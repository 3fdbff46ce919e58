package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/e2etest"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/errors"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/logging"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/ptr"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

const smokeTimeout = 10 * time.Second

// expect sends a JSON request and checks the status code.
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

// smokeTest signs up a throwaway user, logs one session, analyzes it and deletes the user again.
func smokeTest(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, smokeTimeout)
	defer cancel()

	if err := client.Register(ctx, "smoketest"); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	var sess workout.Session
	if err := expect(ctx, client, http.MethodPost, "/api/sessions", workout.StartSessionParams{Notes: "smoke test"},
		&sess, http.StatusCreated); err != nil {
		return err
	}
	ex := workout.ExerciseLog{
		ExerciseID:   "bench-press",
		ExerciseName: "Bench Press",
		Sets: []workout.SetLog{{
			Type: workout.SetTypeWorking, Weight: ptr.Ref(60.0), Reps: 5, RPE: ptr.Ref(7.0), Completed: true,
		}},
	}
	if err := expect(ctx, client, http.MethodPost, "/api/sessions/"+sess.ID+"/exercises", ex, &sess,
		http.StatusCreated); err != nil {
		return err
	}
	if err := expect(ctx, client, http.MethodPost, "/api/sessions/"+sess.ID+"/complete", nil, &sess,
		http.StatusOK); err != nil {
		return err
	}

	var a analysis.EnhancedAnalysis
	if err := expect(ctx, client, http.MethodGet, "/api/analysis?predictions=true", nil, &a,
		http.StatusOK); err != nil {
		return err
	}
	if a.SessionsAnalyzed != 1 {
		return fmt.Errorf("analyzed %d sessions, want 1", a.SessionsAnalyzed)
	}

	return expect(ctx, client, http.MethodDelete, "/api/users/me", nil, nil, http.StatusNoContent)
}

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.HasPrefix(hostname, "localhost") {
		url = "http://" + hostname
	}

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}
	if err = smokeTest(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke test failed", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "smoke test successful", slog.Duration("duration", time.Since(start)))
}
