// Package contexthelpers stores request-scoped values such as the current user in context.Context.
package contexthelpers

import (
	"context"
	"net/http"
)

type contextKey string

const (
	isAuthenticatedContextKey     = contextKey("isAuthenticated")
	authenticatedUserIDContextKey = contextKey("authenticatedUserID")
	traceIDContextKey             = contextKey("traceID")
	cspNonceContextKey            = contextKey("cspNonce")
)

// AuthenticateContext marks the request as belonging to userID.
func AuthenticateContext(r *http.Request, userID int) *http.Request {
	return r.WithContext(WithUserID(r.Context(), userID))
}

// WithUserID returns a context that carries the authenticated userID.
func WithUserID(ctx context.Context, userID int) context.Context {
	ctx = context.WithValue(ctx, isAuthenticatedContextKey, true)
	return context.WithValue(ctx, authenticatedUserIDContextKey, userID)
}

func IsAuthenticated(ctx context.Context) bool {
	isAuthenticated, ok := ctx.Value(isAuthenticatedContextKey).(bool)
	return ok && isAuthenticated
}

// AuthenticatedUserID returns the current user id or 0 when the context is anonymous.
func AuthenticatedUserID(ctx context.Context) int {
	userID, ok := ctx.Value(authenticatedUserIDContextKey).(int)
	if !ok {
		return 0
	}
	return userID
}

func SetTraceID(r *http.Request, traceID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), traceIDContextKey, traceID))
}

func TraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDContextKey).(string)
	return traceID
}

func SetCSPNonce(r *http.Request, nonce string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), cspNonceContextKey, nonce))
}

// CSPNonce returns the nonce allowed by the Content-Security-Policy of the current response.
func CSPNonce(ctx context.Context) string {
	nonce, _ := ctx.Value(cspNonceContextKey).(string)
	return nonce
}
