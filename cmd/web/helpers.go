package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/account"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/errors"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

// maxBodySize limits JSON request bodies.
const maxBodySize = 1 << 20

var errBadRequest = errors.NewSentinel("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("marshal response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(b); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "write response", errors.SlogError(err))
	}
}

// readJSON decodes the request body into v. Unknown fields are rejected.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %w", errBadRequest, err)
	}
	return nil
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	app.writeJSON(w, r, status, errorResponse{Error: msg})
}

// handleError maps domain errors to status codes. Unknown errors are logged as server errors.
func (app *application) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workout.ErrNotFound), errors.Is(err, account.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case errors.Is(err, workout.ErrInvalidInput), errors.Is(err, account.ErrInvalidDisplayName),
		errors.Is(err, errBadRequest):
		app.clientError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, workout.ErrUnauthenticated):
		app.clientError(w, r, http.StatusUnauthorized, "sign in required")
	case errors.Is(err, workout.ErrPlannerUnavailable):
		app.clientError(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		app.serverError(w, r, err)
	}
}

// analysisOptions overrides the configured defaults with the query parameters of the request.
func (app *application) analysisOptions(query url.Values) (analysis.Options, error) {
	opts := app.analysisDefaults
	var err error
	if v := query.Get("lookback_days"); v != "" {
		if opts.LookbackDays, err = strconv.Atoi(v); err != nil || opts.LookbackDays < 1 {
			return analysis.Options{}, fmt.Errorf("%w: lookback_days must be a positive integer", errBadRequest)
		}
	}
	if v := query.Get("min_sessions"); v != "" {
		if opts.MinSessions, err = strconv.Atoi(v); err != nil || opts.MinSessions < 1 {
			return analysis.Options{}, fmt.Errorf("%w: min_sessions must be a positive integer", errBadRequest)
		}
	}
	if v := query.Get("include_warmups"); v != "" {
		if opts.IncludeWarmupSets, err = strconv.ParseBool(v); err != nil {
			return analysis.Options{}, fmt.Errorf("%w: include_warmups must be a boolean", errBadRequest)
		}
	}
	if v := query.Get("weight_threshold"); v != "" {
		opts.WeightProgressionThreshold, err = strconv.ParseFloat(v, 64)
		if err != nil || !(opts.WeightProgressionThreshold > 0) { // rejects NaN too.
			return analysis.Options{}, fmt.Errorf("%w: weight_threshold must be a positive number", errBadRequest)
		}
	}
	if v := query.Get("weight_unit"); v != "" {
		opts.WeightUnit = v
	}
	return opts, nil
}

// pathIndex parses a non-negative integer path parameter.
func pathIndex(r *http.Request, name string) (int, error) {
	i, err := strconv.Atoi(r.PathValue(name))
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return i, nil
}
