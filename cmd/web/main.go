package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/account"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/envstruct"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/errors"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/flightrecorder"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/instrumentation"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/logging"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/sqlite"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
	"gopkg.in/natefinch/lumberjack.v2"
)

type application struct {
	logger           *slog.Logger
	sessionManager   *scs.SessionManager
	accounts         *account.Handler
	workoutService   *workout.Service
	analysisService  *analysis.Service
	instrumentation  *instrumentation.Instrumentation
	analysisDefaults analysis.Options
	flightRecorder   *flightrecorder.Recorder
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"LIFTIQ_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"LIFTIQ_SQLITE_URL" envDefault:"./liftiq.sqlite3"`
	// OpenAIAPIKey enables split generation. Leave empty to disable it.
	OpenAIAPIKey string `env:"LIFTIQ_OPENAI_API_KEY" envDefault:""`
	// SecureCookies marks the session cookie Secure. Disable only for plain HTTP development setups.
	SecureCookies bool `env:"LIFTIQ_SECURE_COOKIES" envDefault:"true"`
	// TracesDirectory enables the flight recorder. Traces of timed out and panicking requests are written there.
	TracesDirectory string `env:"LIFTIQ_TRACES_DIRECTORY" envDefault:""`

	LookbackDays    int     `env:"LIFTIQ_LOOKBACK_DAYS" envDefault:"30"`
	MinSessions     int     `env:"LIFTIQ_MIN_SESSIONS" envDefault:"3"`
	WeightThreshold float64 `env:"LIFTIQ_WEIGHT_THRESHOLD" envDefault:"2.5"`
	WeightUnit      string  `env:"LIFTIQ_WEIGHT_UNIT" envDefault:"lbs"`
}

// logConfig is read before the logger exists.
type logConfig struct {
	// File receives a copy of the logs, rotated by size. Empty logs to stdout only.
	File string `env:"LIFTIQ_LOG_FILE" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	var recorder *flightrecorder.Recorder
	if cfg.TracesDirectory != "" {
		if recorder, err = flightrecorder.New(logger, cfg.TracesDirectory, flightrecorder.Options{}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.WithoutCancel(ctx))
	}

	sessionManager := initializeSessionManager(db, cfg.SecureCookies)
	workoutService := workout.NewService(db, logger, cfg.OpenAIAPIKey)
	metrics := instrumentation.New()

	app := application{
		logger:          logger,
		sessionManager:  sessionManager,
		accounts:        account.New(logger, sessionManager, db),
		workoutService:  workoutService,
		analysisService: analysis.NewService(workoutService, analysis.NewAnalyzer(logger), metrics, logger),
		instrumentation: metrics,
		analysisDefaults: analysis.Options{
			LookbackDays:               cfg.LookbackDays,
			MinSessions:                cfg.MinSessions,
			IncludeWarmupSets:          false,
			WeightProgressionThreshold: cfg.WeightThreshold,
			WeightUnit:                 cfg.WeightUnit,
		},
		flightRecorder: recorder,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func initializeSessionManager(dbs *sqlite.Database, secure bool) *scs.SessionManager {
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 30 * 24 * time.Hour                                           //nolint:mnd // month
	sessionManager.Cookie.Name = "liftiq_session"
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = secure
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

// logWriter returns stdout, teed to a rotating log file when LIFTIQ_LOG_FILE is set.
func logWriter(lookupEnv func(string) (string, bool)) (io.Writer, error) {
	var cfg logConfig
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return nil, errors.Wrap(err, "populate log config")
	}
	if cfg.File == "" {
		return os.Stdout, nil
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    50, //nolint:mnd // megabytes
		MaxBackups: 5,  //nolint:mnd // files
		MaxAge:     28, //nolint:mnd // days
		Compress:   true,
	}), nil
}

func main() {
	ctx := context.Background()
	w, err := logWriter(os.LookupEnv)
	if err != nil {
		w = os.Stdout
	}
	logger := logging.New(w, slog.LevelDebug)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "log file disabled", errors.SlogError(err))
	}
	if err = run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
