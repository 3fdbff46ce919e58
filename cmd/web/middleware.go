package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/contexthelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/errors"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/flightrecorder"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/logging"
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		headerWritten:  false,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	written, err := mw.ResponseWriter.Write(b)
	if err != nil {
		return written, fmt.Errorf("write response: %w", err)
	}
	return written, nil
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

// secureHeaders sets a strict CSP. The only inline content allowed is the report stylesheet carrying the nonce.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cspNonce := rand.Text()
		csp := fmt.Sprintf(`default-src 'none';
script-src 'none';
connect-src 'self';
img-src 'self';
style-src 'nonce-%s';
frame-ancestors 'none';
form-action 'self';
object-src 'none';
base-uri 'none';`, cspNonce)

		w.Header().Set("Content-Security-Policy", csp)
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")

		r = contexthelpers.SetCSPNonce(r, cspNonce)

		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		traceID := rand.Text()
		r = contexthelpers.SetTraceID(r, traceID)
		ctx := logging.WithAttrs(
			r.Context(),
			slog.String("trace_id", traceID),
			slog.String("proto", proto),
			slog.String("method", method),
			slog.String("uri", uri),
		)
		r = r.WithContext(ctx)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")

		sw := newStatusResponseWriter(w)

		if !trace.IsEnabled() {
			next.ServeHTTP(sw, r)
		} else {
			taskName := fmt.Sprintf("HTTP %s %s", method, r.URL.Path)
			traceCtx, task := trace.NewTask(ctx, taskName)
			trace.Log(traceCtx, "trace_id", traceID)
			defer func() {
				trace.Log(traceCtx, "response", fmt.Sprintf("status=%d duration=%v", sw.statusCode, time.Since(start)))
				task.End()
			}()
			next.ServeHTTP(sw, r.WithContext(traceCtx))
		}

		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(ctx, level, "request completed",
			slog.Int("status_code", sw.statusCode), slog.Duration("duration", time.Since(start)))
	})
}

// measureRequest records the request in the Prometheus metrics under its route pattern.
func (app *application) measureRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.instrumentation.GaugeRequestsInFlight.Inc()
		defer app.instrumentation.GaugeRequestsInFlight.Dec()

		start := time.Now()
		sw := newStatusResponseWriter(w)
		next.ServeHTTP(sw, r)
		app.instrumentation.ObserveRequest(r.Method, r.Pattern, sw.statusCode, time.Since(start))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				app.instrumentation.CounterPanics.Inc()
				app.captureTrace(r.Context(), "panic")
				app.serverError(w, r, errors.DecoratePanic(excp))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// mustAuthenticate rejects requests without a signed-in user.
func (app *application) mustAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !contexthelpers.IsAuthenticated(r.Context()) {
			app.clientError(w, r, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// crossOriginProtection rejects cross-origin state changing requests using http.CrossOriginProtection.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	protection := http.NewCrossOriginProtection()
	return protection.Handler(next)
}

// timeout times out the request and cancels the context using http.TimeoutHandler.
// Durations above the server write timeout extend the connection write deadline.
func (app *application) timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Writing the response takes time.
			handlerTimeout := d - 200*time.Millisecond //nolint:mnd // see above.
			if d > defaultTimeout {
				rc := http.NewResponseController(w)
				if err := rc.SetWriteDeadline(time.Now().Add(d)); err != nil {
					app.serverError(w, r, fmt.Errorf("set write deadline: %w", err))
					return
				}
			}
			start := time.Now()
			sw := newStatusResponseWriter(w)
			http.TimeoutHandler(next, handlerTimeout, "timed out").ServeHTTP(sw, r)
			if sw.statusCode == http.StatusServiceUnavailable && time.Since(start) >= handlerTimeout {
				app.captureTrace(r.Context(), "timeout")
			}
		})
	}
}

// captureTrace writes the flight recorder trace when the recorder is enabled.
func (app *application) captureTrace(ctx context.Context, reason string) {
	if app.flightRecorder == nil {
		return
	}
	if _, err := app.flightRecorder.Capture(ctx, reason); err != nil && !errors.Is(err, flightrecorder.ErrCooldown) {
		app.logger.LogAttrs(ctx, slog.LevelError, "capture trace", errors.SlogError(err))
	}
}
