package main

import (
	"net/http"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

func (app *application) splitsGET(w http.ResponseWriter, r *http.Request) {
	splits, err := app.workoutService.ListSplits(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, splits)
}

func (app *application) splitsPOST(w http.ResponseWriter, r *http.Request) {
	var split workout.Split
	if err := readJSON(w, r, &split); err != nil {
		app.handleError(w, r, err)
		return
	}
	created, err := app.workoutService.CreateSplit(r.Context(), split)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, created)
}

// splitGeneratePOST asks the language model for a split. It runs with the long timeout.
func (app *application) splitGeneratePOST(w http.ResponseWriter, r *http.Request) {
	var req workout.PlanRequest
	if err := readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	split, err := app.workoutService.GenerateSplit(r.Context(), req)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, split)
}

func (app *application) splitGET(w http.ResponseWriter, r *http.Request) {
	split, err := app.workoutService.GetSplit(r.Context(), r.PathValue("id"))
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, split)
}

func (app *application) splitPUT(w http.ResponseWriter, r *http.Request) {
	var changes workout.Split
	if err := readJSON(w, r, &changes); err != nil {
		app.handleError(w, r, err)
		return
	}
	split, err := app.workoutService.UpdateSplit(r.Context(), r.PathValue("id"), changes)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, split)
}

func (app *application) splitDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.workoutService.DeleteSplit(r.Context(), r.PathValue("id")); err != nil {
		app.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
