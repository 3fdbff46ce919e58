package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/logging"
	_ "github.com/mattn/go-sqlite3" // DB() opens the server's database.
)

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// LogDsnKey is the data source name key used to log the SQL DSN.
const LogDsnKey = "sqlDsn"

// timestampLayout matches the millisecond UTC timestamps the session repository stores.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// RunFunc starts the application and blocks until ctx is done. It has the signature of cmd/web's run.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is a LiftIQ server running in-process against a private in-memory database.
type Server struct {
	url        string
	client     *Client
	db         *sql.DB
	cancel     context.CancelCauseFunc
	serverDone chan struct{}
}

// testEnv is the configuration every test server runs with. env entries override it.
func testEnv(env map[string]string) func(string) (string, bool) {
	defaults := map[string]string{
		"LIFTIQ_SQLITE_URL": ":memory:",
		"LIFTIQ_ADDR":       "localhost:0",
	}
	return func(key string) (string, bool) {
		if v, ok := env[key]; ok {
			return v, true
		}
		v, ok := defaults[key]
		return v, ok
	}
}

// captureLogger logs to logSink and forwards the listen address and database DSN once logged.
func captureLogger(logSink io.Writer, addrCh, dsnCh chan<- string) *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case LogAddrKey:
				select {
				case addrCh <- a.Value.String():
				default:
				}
			case LogDsnKey:
				select {
				case dsnCh <- a.Value.String():
				default:
				}
			}
			return a
		},
	})))
}

// StartServer runs the application on a free port with an in-memory database and waits until
// /api/healthy answers. env overrides LIFTIQ_* variables, nil runs with the defaults.
//
// logSink is usually testhelpers.NewWriter. The server is shut down when the test ends.
func StartServer(t *testing.T, logSink io.Writer, env map[string]string, run RunFunc) (*Server, error) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(t.Context())
	var (
		server     *Server
		serverDone = make(chan struct{})
		addrCh     = make(chan string, 1)
		dsnCh      = make(chan string, 1)
	)
	t.Cleanup(func() {
		if server != nil {
			server.Shutdown()
			return
		}
		cancel(nil)
		<-serverDone
	})

	go func() {
		defer close(serverDone)
		if err := run(ctx, captureLogger(logSink, addrCh, dsnCh), testEnv(env)); err != nil {
			cancel(err)
		}
	}()

	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("server stopped before listening: %w", context.Cause(ctx))
		case addr = <-addrCh:
		case dsn = <-dsnCh:
		}
	}

	serverURL := "http://" + addr
	client, err := NewClient(serverURL)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	server = &Server{
		url:        serverURL,
		client:     client,
		db:         db,
		cancel:     cancel,
		serverDone: serverDone,
	}
	return server, nil
}

// Client is the anonymous client created at start up.
func (s *Server) Client() *Client {
	return s.client
}

// NewUser returns a new client signed in as a freshly registered user.
func (s *Server) NewUser(ctx context.Context, displayName string) (*Client, error) {
	client, err := NewClient(s.url)
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = client.Register(ctx, displayName); err != nil {
		return nil, fmt.Errorf("register %q: %w", displayName, err)
	}
	return client, nil
}

// CompleteSessionAt moves a session in time so that it started an hour before completedAt and
// completed at completedAt. The API only records the current time, history needs older sessions.
func (s *Server) CompleteSessionAt(ctx context.Context, sessionID string, completedAt time.Time) error {
	completedAt = completedAt.UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE workout_sessions SET started_at = ?, completed_at = ? WHERE id = ?`,
		completedAt.Add(-time.Hour).Format(timestampLayout), completedAt.Format(timestampLayout), sessionID)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

func (s *Server) URL() string {
	return s.url
}

// DB is a connection to the server's database for direct manipulation in tests.
func (s *Server) DB() *sql.DB {
	return s.db
}

func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.serverDone
	_ = s.db.Close()
}
