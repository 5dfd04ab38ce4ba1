package routes

import (
	"net/http"
	"time"

	"notely/notely/config"
	"notely/notely/controllers"
	"notely/notely/middlewares"
	"notely/notely/sources/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the handlers' collaborators. OAuth and Objects may be nil.
type Deps struct {
	Auth    *controllers.AuthController
	Users   *controllers.UserController
	Notes   *controllers.NotesController
	Images  *controllers.ImagesController
	Health  *controllers.HealthController
	OAuth   OAuthProvider
	Objects ObjectOpener
	Legacy  storage.LegacyUploads
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogging)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CORS())
	r.Use(middlewares.Preflight)
	r.Use(middleware.Timeout(timeout))

	r.Mount("/health", HealthRoutes(d.Health))
	r.Mount("/auth", AuthRoutes(d.Auth, d.OAuth, cfg))
	r.Mount("/images", ImageProxyRoutes(d.Objects))
	r.Handle(storage.LegacyPrefix+"*", d.Legacy.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.SessionGate(d.Auth))
		gr.Mount("/notes", NotesRoutes(d.Notes, d.Images))
		gr.Mount("/users", UserRoutes(d.Users))
	})

	return r
}
