package routes

import (
	"net/http"

	"notely/notely/controllers"

	"github.com/go-chi/chi/v5"
)

// UserRoutes serves /users. The router expects the session gate in front of it.
func UserRoutes(ctrl *controllers.UserController) chi.Router {
	r := chi.NewRouter()

	r.Get("/me", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := callerID(r)
		if err != nil {
			return nil, 0, err
		}
		user, err := ctrl.Me(r.Context(), userID)
		if err != nil {
			return nil, 0, err
		}
		return user, http.StatusOK, nil
	}))

	return r
}
