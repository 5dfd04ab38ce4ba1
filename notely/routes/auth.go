// notely/routes/auth.go
package routes

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"notely/notely/config"
	"notely/notely/controllers"
	"notely/notely/middlewares"
	"notely/notely/types"
	"notely/notely/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const stateCookie = "notely_oauth_state"

// OAuthProvider is the external sign-in provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (types.Profile, error)
}

func secureCookies(cfg config.Config, r *http.Request) bool {
	return r.TLS != nil || strings.HasPrefix(cfg.AppURL, "https://")
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, cfg config.Config, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middlewares.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secureCookies(cfg, r),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: path, MaxAge: -1, HttpOnly: true})
}

// AuthRoutes serves sign-in, sign-out and the current session. provider may
// be nil when Google OAuth is not configured.
func AuthRoutes(ctrl *controllers.AuthController, provider OAuthProvider, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Get("/google/login", func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
			return
		}
		state := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/auth",
			MaxAge:   int((10 * time.Minute) / time.Second),
			HttpOnly: true,
			Secure:   secureCookies(cfg, r),
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
	})

	r.Get("/google/callback", func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			writeError(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
			return
		}
		q := r.URL.Query()
		c, err := r.Cookie(stateCookie)
		if err != nil || c.Value == "" || subtle.ConstantTimeCompare([]byte(c.Value), []byte(q.Get("state"))) != 1 {
			writeError(w, http.StatusBadRequest, "Invalid OAuth state")
			return
		}
		clearCookie(w, stateCookie, "/auth")
		if q.Get("error") != "" || q.Get("code") == "" {
			writeError(w, http.StatusBadRequest, "Sign-in was cancelled")
			return
		}

		profile, err := provider.Exchange(r.Context(), q.Get("code"))
		if err != nil {
			logging.ErrorLogger.Error("oauth exchange failed",
				zap.String("request_id", logging.RequestID(r.Context())), zap.Error(err))
			writeError(w, http.StatusBadGateway, "Sign-in failed")
			return
		}
		token, err := ctrl.SignIn(r.Context(), profile)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		setSessionCookie(w, r, cfg, token, cfg.SessionTTL)
		logging.AppLogger.Info("user signed in", zap.String("email", profile.Email))
		http.Redirect(w, r, cfg.AppURL, http.StatusFound)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		clearCookie(w, middlewares.SessionCookie, "/")
		writeJSON(w, http.StatusOK, types.MessageResponse{Message: "Signed out"})
	})

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.SessionGate(ctrl))
		gr.Get("/session", handleJSON(func(r *http.Request) (any, int, error) {
			identity, ok := middlewares.IdentityFrom(r.Context())
			if !ok {
				return nil, 0, errors.New("identity missing after session gate")
			}
			return identity, http.StatusOK, nil
		}))
	})

	return r
}
