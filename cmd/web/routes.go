package main

import (
	"net/http"
	"time"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	var (
		base = func(d time.Duration, next http.Handler) http.Handler {
			return app.measureRequest(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				app.timeout(d)(app.recoverPanic(next))))))
		}
		noSession = func(next http.Handler) http.Handler {
			return base(defaultTimeout, next)
		}
		sessionWithTimeout = func(d time.Duration, next http.Handler) http.Handler {
			return base(d, noCache(app.sessionManager.LoadAndSave(app.accounts.AuthenticateMiddleware(next))))
		}
		session = func(next http.Handler) http.Handler {
			return sessionWithTimeout(defaultTimeout, next)
		}
		mustSession = func(next http.Handler) http.Handler {
			return session(app.mustAuthenticate(next))
		}
	)

	mux.Handle("GET /api/healthy", noSession(http.HandlerFunc(app.healthy)))
	mux.Handle("GET /metrics", noSession(app.instrumentation.Handler()))

	mux.Handle("POST /api/users", session(http.HandlerFunc(app.userPOST)))
	mux.Handle("GET /api/users/me", mustSession(http.HandlerFunc(app.userGET)))
	mux.Handle("DELETE /api/users/me", mustSession(http.HandlerFunc(app.userDELETE)))
	mux.Handle("POST /api/logout", session(http.HandlerFunc(app.logoutPOST)))

	mux.Handle("GET /api/splits", mustSession(http.HandlerFunc(app.splitsGET)))
	mux.Handle("POST /api/splits", mustSession(http.HandlerFunc(app.splitsPOST)))
	mux.Handle("POST /api/splits/generate", sessionWithTimeout(generateTimeout,
		app.mustAuthenticate(http.HandlerFunc(app.splitGeneratePOST))))
	mux.Handle("GET /api/splits/{id}", mustSession(http.HandlerFunc(app.splitGET)))
	mux.Handle("PUT /api/splits/{id}", mustSession(http.HandlerFunc(app.splitPUT)))
	mux.Handle("DELETE /api/splits/{id}", mustSession(http.HandlerFunc(app.splitDELETE)))

	mux.Handle("GET /api/sessions", mustSession(http.HandlerFunc(app.sessionsGET)))
	mux.Handle("POST /api/sessions", mustSession(http.HandlerFunc(app.sessionsPOST)))
	mux.Handle("GET /api/sessions/{id}", mustSession(http.HandlerFunc(app.sessionGET)))
	mux.Handle("DELETE /api/sessions/{id}", mustSession(http.HandlerFunc(app.sessionDELETE)))
	mux.Handle("POST /api/sessions/{id}/exercises", mustSession(http.HandlerFunc(app.sessionExercisePOST)))
	mux.Handle("POST /api/sessions/{id}/exercises/{index}/sets", mustSession(http.HandlerFunc(app.sessionSetPOST)))
	mux.Handle("POST /api/sessions/{id}/complete", mustSession(http.HandlerFunc(app.sessionCompletePOST)))

	mux.Handle("GET /api/analysis", mustSession(http.HandlerFunc(app.analysisGET)))
	mux.Handle("GET /api/dashboard", mustSession(http.HandlerFunc(app.dashboardGET)))
	mux.Handle("GET /analysis/report", mustSession(http.HandlerFunc(app.reportGET)))

	return mux
}
