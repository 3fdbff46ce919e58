package main

import (
	"net/http"
)

type createUserRequest struct {
	DisplayName string `json:"display_name"`
}

// userPOST creates an anonymous user and signs the session in as that user.
func (app *application) userPOST(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readJSON(w, r, &req); err != nil {
		app.handleError(w, r, err)
		return
	}
	user, err := app.accounts.Register(r.Context(), req.DisplayName)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, user)
}

func (app *application) userGET(w http.ResponseWriter, r *http.Request) {
	user, err := app.accounts.Current(r.Context())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, user)
}

// userDELETE removes the user and everything it has logged.
func (app *application) userDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.accounts.Delete(r.Context()); err != nil {
		app.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) logoutPOST(w http.ResponseWriter, r *http.Request) {
	if err := app.accounts.Logout(r.Context()); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
