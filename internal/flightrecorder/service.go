// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when a request
// times out or panics.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024 // 64MB
	defaultCooldown = 30 * time.Minute
)

// ErrCooldown is returned by Capture when a trace was written too recently.
var ErrCooldown = errors.New("trace capture cooling down")

// Options tune the recorder. Zero values take the defaults.
type Options struct {
	// MinAge is how far back the in-memory trace reaches.
	MinAge time.Duration
	// MaxBytes caps the in-memory trace.
	MaxBytes uint64
	// Cooldown is the minimum time between two captures.
	Cooldown time.Duration
}

type Recorder struct {
	logger      *slog.Logger
	recorder    *trace.FlightRecorder
	directory   string
	cooldown    time.Duration
	lastCapture atomic.Int64
}

// New creates a recorder writing traces to directory, which is created when missing.
func New(logger *slog.Logger, directory string, opts Options) (*Recorder, error) {
	if directory == "" {
		return nil, errors.New("traces directory is required")
	}
	if stat, err := os.Stat(directory); err != nil {
		if err = os.MkdirAll(directory, 0o700); err != nil { //nolint:mnd // owner only.
			return nil, fmt.Errorf("create traces directory: %w", err)
		}
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("traces path is not a directory: %s", directory)
	}

	if opts.MinAge == 0 {
		opts.MinAge = defaultMinAge
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = defaultCooldown
	}

	return &Recorder{
		logger:    logger,
		recorder:  trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: opts.MinAge, MaxBytes: opts.MaxBytes}),
		directory: directory,
		cooldown:  opts.Cooldown,
	}, nil
}

// Start begins recording. Only one flight recorder may run per process.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.recorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("directory", r.directory), slog.Duration("cooldown", r.cooldown))
	return nil
}

func (r *Recorder) Stop(ctx context.Context) {
	r.recorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the recorded trace to <reason>-<timestamp>.trace and returns the file path.
// At most one capture happens per cooldown period, later calls return ErrCooldown.
func (r *Recorder) Capture(ctx context.Context, reason string) (string, error) {
	now := time.Now()
	last := r.lastCapture.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < r.cooldown {
		return "", ErrCooldown
	}
	if !r.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		return "", ErrCooldown
	}

	path := filepath.Join(r.directory, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create trace file: %w", err)
	}
	written, err := r.recorder.WriteTo(file)
	if closeErr := file.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close trace file: %w", closeErr))
	}
	if err != nil {
		return "", fmt.Errorf("write trace %s: %w", path, err)
	}

	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("reason", reason), slog.String("file", path), slog.Int64("bytes", written))
	return path, nil
}
