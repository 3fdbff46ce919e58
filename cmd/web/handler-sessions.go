package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

// sessionsGET lists the sessions oldest first. The optional since query parameter is a date or an RFC 3339 time.
func (app *application) sessionsGET(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		var err error
		if since, err = parseSince(v); err != nil {
			app.handleError(w, r, err)
			return
		}
	}
	sessions, err := app.workoutService.ListSessions(r.Context(), since)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, sessions)
}

func parseSince(v string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: since must be a date or an RFC 3339 time", errBadRequest)
	}
	return t, nil
}

// sessionsPOST starts a session, freestyle or against a split day.
func (app *application) sessionsPOST(w http.ResponseWriter, r *http.Request) {
	var params workout.StartSessionParams
	if err := readJSON(w, r, &params); err != nil {
		app.handleError(w, r, err)
		return
	}
	sess, err := app.workoutService.StartSession(r.Context(), params)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, sess)
}

func (app *application) sessionGET(w http.ResponseWriter, r *http.Request) {
	sess, err := app.workoutService.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, sess)
}

func (app *application) sessionDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.workoutService.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		app.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) sessionExercisePOST(w http.ResponseWriter, r *http.Request) {
	var ex workout.ExerciseLog
	if err := readJSON(w, r, &ex); err != nil {
		app.handleError(w, r, err)
		return
	}
	sess, err := app.workoutService.AddExercise(r.Context(), r.PathValue("id"), ex)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, sess)
}

func (app *application) sessionSetPOST(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r, "index")
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	var set workout.SetLog
	if err = readJSON(w, r, &set); err != nil {
		app.handleError(w, r, err)
		return
	}
	sess, err := app.workoutService.LogSet(r.Context(), r.PathValue("id"), index, set)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, sess)
}

func (app *application) sessionCompletePOST(w http.ResponseWriter, r *http.Request) {
	sess, err := app.workoutService.CompleteSession(r.Context(), r.PathValue("id"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, sess)
}
