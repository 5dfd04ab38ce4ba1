// notely/middlewares/auth.go
package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"notely/notely/controllers"
	"notely/notely/types"
	"notely/notely/utils/logging"

	"go.uber.org/zap"
)

// SessionCookie carries the session JWT for browser clients.
const SessionCookie = "notely_session"

type contextKey string

const identityKey contextKey = "identity"

// Authenticator resolves a session token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (types.Identity, error)
}

// TokenFromRequest prefers an explicit bearer header over the session cookie.
func TokenFromRequest(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if token := strings.TrimSpace(parts[1]); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// SessionGate admits only requests carrying a valid session for a known user.
// Rejected requests never reach next. Authenticate errors other than
// controllers.ErrUnauthorized are reported as server errors.
func SessionGate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, controllers.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				logging.ErrorLogger.Error("session lookup failed",
					zap.String("request_id", logging.RequestID(r.Context())), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Server error")
				return
			}
			if identity.UserID <= 0 {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func WithIdentity(ctx context.Context, identity types.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns the identity stored by SessionGate.
func IdentityFrom(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(types.Identity)
	return identity, ok
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}
