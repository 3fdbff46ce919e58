package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/contexthelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/instrumentation"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/testhelpers"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type timeoutResponseWriter struct {
	httptest.ResponseRecorder
}

func newTimeoutResponseWriter() *timeoutResponseWriter {
	return &timeoutResponseWriter{
		ResponseRecorder: *httptest.NewRecorder(),
	}
}

// SetWriteDeadline is needed to not get "feature not implemented" error.
func (w *timeoutResponseWriter) SetWriteDeadline(_ time.Time) error {
	return nil
}

func newTestApplication(t *testing.T) *application {
	t.Helper()
	return &application{ //nolint:exhaustruct // only what the middleware needs.
		logger:          testhelpers.NewLogger(testhelpers.NewWriter(t)),
		instrumentation: instrumentation.New(),
	}
}

func sleepHandler(w http.ResponseWriter, r *http.Request) {
	sleepMS, err := strconv.Atoi(r.URL.Query().Get("sleep_ms"))
	if err != nil {
		http.Error(w, "invalid sleep_ms", http.StatusBadRequest)
		return
	}
	time.Sleep(time.Duration(sleepMS) * time.Millisecond)
	w.WriteHeader(http.StatusOK)
}

func Test_application_timeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		sleepMS  int
		timesOut bool
	}{
		{name: "completes within timeout", timeout: defaultTimeout, sleepMS: 500, timesOut: false},
		{name: "times out", timeout: defaultTimeout, sleepMS: 3000, timesOut: true},
		{name: "generation gets longer timeout", timeout: generateTimeout, sleepMS: 50000, timesOut: false},
		{name: "generation times out", timeout: generateTimeout, sleepMS: 61000, timesOut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				app := newTestApplication(t)
				handler := app.timeout(tt.timeout)(http.HandlerFunc(sleepHandler))

				url := fmt.Sprintf("/sleep?sleep_ms=%d", tt.sleepMS)
				req := httptest.NewRequest(http.MethodGet, url, nil)
				w := newTimeoutResponseWriter()

				handler.ServeHTTP(w, req)

				time.Sleep(time.Duration(tt.sleepMS) * time.Millisecond)

				if tt.timesOut {
					if w.Code != http.StatusServiceUnavailable {
						t.Errorf("Expected status 503 on timeout, got %d", w.Code)
					}
					if !strings.Contains(w.Body.String(), "timed out") {
						t.Errorf("Expected timeout message in response body, got: %s", w.Body.String())
					}
				} else if w.Code != http.StatusOK {
					t.Errorf("Expected status 200, got %d", w.Code)
				}
			})
		})
	}
}

func Test_secureHeaders(t *testing.T) {
	var nonce string
	handler := secureHeaders(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		nonce = contexthelpers.CSPNonce(r.Context())
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if nonce == "" {
		t.Fatal("Expected nonce in request context")
	}
	csp := w.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "'nonce-"+nonce+"'") {
		t.Errorf("Expected CSP to allow nonce %s, got %s", nonce, csp)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff, got %q", got)
	}
}

func Test_application_recoverPanic(t *testing.T) {
	app := newTestApplication(t)
	handler := app.recoverPanic(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected JSON error, got %q", got)
	}
	if got := testutil.ToFloat64(app.instrumentation.CounterPanics); got != 1 {
		t.Errorf("Expected one recorded panic, got %v", got)
	}
}

func Test_application_mustAuthenticate(t *testing.T) {
	app := newTestApplication(t)
	handler := app.mustAuthenticate(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		userID int
		want   int
	}{
		{name: "anonymous", userID: 0, want: http.StatusUnauthorized},
		{name: "signed in", userID: 42, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != 0 {
				req = contexthelpers.AuthenticateContext(req, tt.userID)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func Test_application_measureRequest(t *testing.T) {
	app := newTestApplication(t)
	mux := http.NewServeMux()
	mux.Handle("GET /items/{id}", app.measureRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	for range 2 {
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/7", nil))
	}

	counter := app.instrumentation.CounterRequests.WithLabelValues(http.MethodGet, "GET /items/{id}", "418")
	if got := testutil.ToFloat64(counter); got != 2 {
		t.Errorf("Expected 2 requests for the route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(app.instrumentation.GaugeRequestsInFlight); got != 0 {
		t.Errorf("Expected no requests in flight, got %v", got)
	}
}

func Test_application_analysisOptions(t *testing.T) {
	app := newTestApplication(t)
	app.analysisDefaults = analysis.DefaultOptions()

	tests := []struct {
		name    string
		query   string
		want    analysis.Options
		wantErr bool
	}{
		{name: "defaults", query: "", want: analysis.DefaultOptions()},
		{
			name:  "overrides",
			query: "lookback_days=7&min_sessions=2&include_warmups=true&weight_threshold=5&weight_unit=kg",
			want: analysis.Options{
				LookbackDays:               7,
				MinSessions:                2,
				IncludeWarmupSets:          true,
				WeightProgressionThreshold: 5,
				WeightUnit:                 "kg",
			},
		},
		{name: "negative lookback", query: "lookback_days=-1", wantErr: true},
		{name: "invalid boolean", query: "include_warmups=maybe", wantErr: true},
		{name: "NaN threshold", query: "weight_threshold=NaN", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analysis?"+tt.query, nil)
			got, err := app.analysisOptions(req.URL.Query())
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("analysisOptions() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
