package account

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/contexthelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/logging"
)

// AuthenticateMiddleware authenticates the request context when the session belongs to an existing
// user. It must run inside the session manager's LoadAndSave.
func (h *Handler) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := h.sessionManager.GetInt(ctx, userIDSessionKey)

		// User has not signed in yet.
		if userID == 0 {
			next.ServeHTTP(w, r)
			return
		}

		_, err := h.getUser(ctx, userID)
		switch {
		case errors.Is(err, ErrNotFound): // Do not authenticate deleted users.
			userID = 0
		case err != nil:
			h.logger.LogAttrs(ctx, slog.LevelError, "unable to fetch user", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		default:
			r = contexthelpers.AuthenticateContext(r, userID)
		}

		// Hash token with sha256 to avoid leaking it in logs.
		tokenHash := sha256.Sum256([]byte(h.sessionManager.Token(ctx)))
		ctx = logging.WithAttrs(r.Context(),
			slog.String("session_hash", hex.EncodeToString(tokenHash[:])),
			slog.Int("user_id", userID),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
