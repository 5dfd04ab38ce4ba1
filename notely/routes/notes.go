// notely/routes/notes.go
package routes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"notely/notely/controllers"
	"notely/notely/middlewares"
	"notely/notely/types"
	"notely/notely/utils/jsonutils"
	"notely/notely/utils/notefilter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxJSONBody   = 1 << 20
	maxImageBytes = 20 << 20
)

func callerID(r *http.Request) (int, error) {
	identity, ok := middlewares.IdentityFrom(r.Context())
	if !ok || identity.UserID <= 0 {
		return 0, controllers.ErrUnauthorized
	}
	return identity.UserID, nil
}

// decodeNote reads a note body. Both fields must be present; a blank title is
// replaced by the caller's placeholder, when one was sent.
func decodeNote(r *http.Request) (title, content string, err error) {
	var req types.NoteRequest
	if err := jsonutils.DecodeStrict(io.LimitReader(r.Body, maxJSONBody), &req); err != nil {
		return "", "", badRequest("%v", err)
	}
	if req.Title == nil || req.Content == nil {
		return "", "", badRequest("title and content are required")
	}
	title = *req.Title
	if strings.TrimSpace(title) == "" && strings.TrimSpace(req.PlaceholderTitle) != "" {
		title = req.PlaceholderTitle
	}
	return title, *req.Content, nil
}

// NotesRoutes serves /notes. The router expects the session gate in front of it.
func NotesRoutes(notes *controllers.NotesController, images *controllers.ImagesController) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestSize(maxImageBytes))

	// List notes, optionally filtered
	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := callerID(r)
		if err != nil {
			return nil, 0, err
		}
		list, err := notes.List(r.Context(), userID)
		if err != nil {
			return nil, 0, err
		}
		q := r.URL.Query()
		criteria := notefilter.Criteria{
			Query:         q.Get("q"),
			FavoritesOnly: q.Get("favorites") == "true" || q.Get("favorites") == "1",
		}
		return notefilter.Apply(list, criteria), http.StatusOK, nil
	}))

	// Create note
	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := callerID(r)
		if err != nil {
			return nil, 0, err
		}
		title, content, err := decodeNote(r)
		if err != nil {
			return nil, 0, err
		}
		note, err := notes.Create(r.Context(), userID, title, content)
		if err != nil {
			return nil, 0, err
		}
		return note, http.StatusOK, nil
	}))

	// Update note
	r.Put("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := callerID(r)
		if err != nil {
			return nil, 0, err
		}
		id, err := parseID(r.URL.Query().Get("id"), "id")
		if err != nil {
			return nil, 0, err
		}
		title, content, err := decodeNote(r)
		if err != nil {
			return nil, 0, err
		}
		note, err := notes.Update(r.Context(), userID, id, title, content)
		if err != nil {
			return nil, 0, err
		}
		return note, http.StatusOK, nil
	}))

	// Delete note and its images
	r.Delete("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := callerID(r)
		if err != nil {
			return nil, 0, err
		}
		id, err := parseID(r.URL.Query().Get("id"), "id")
		if err != nil {
			return nil, 0, err
		}
		if err := notes.Delete(r.Context(), userID, id); err != nil {
			return nil, 0, err
		}
		return types.MessageResponse{Message: "Note deleted"}, http.StatusOK, nil
	}))

	// Toggle favorite
	r.Post("/favorite", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := callerID(r)
		if err != nil {
			return nil, 0, err
		}
		var req types.FavoriteRequest
		if err := jsonutils.DecodeStrict(io.LimitReader(r.Body, maxJSONBody), &req); err != nil {
			return nil, 0, badRequest("%v", err)
		}
		if req.ID == nil || *req.ID <= 0 {
			return nil, 0, badRequest("Note ID is required")
		}
		note, err := notes.ToggleFavorite(r.Context(), userID, *req.ID)
		if err != nil {
			return nil, 0, err
		}
		return note, http.StatusOK, nil
	}))

	// Attach image (multipart: noteId, image)
	r.Post("/images", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := callerID(r)
		if err != nil {
			return nil, 0, err
		}
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, 0, badRequest("image is larger than %d bytes", maxImageBytes)
			}
			return nil, 0, badRequest("Note ID and image are required")
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("image")
		if err != nil || r.FormValue("noteId") == "" {
			return nil, 0, badRequest("Note ID and image are required")
		}
		defer file.Close()
		noteID, err := parseID(r.FormValue("noteId"), "noteId")
		if err != nil {
			return nil, 0, err
		}
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, 0, badRequest("could not read image")
		}
		img, err := images.Attach(r.Context(), userID, noteID, data, header.Filename)
		if err != nil {
			return nil, 0, err
		}
		return img, http.StatusOK, nil
	}))

	// Detach image
	r.Delete("/images", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := callerID(r)
		if err != nil {
			return nil, 0, err
		}
		id, err := parseID(r.URL.Query().Get("id"), "id")
		if err != nil {
			return nil, 0, err
		}
		if err := images.Detach(r.Context(), userID, id); err != nil {
			return nil, 0, err
		}
		return types.MessageResponse{Message: "Image deleted"}, http.StatusOK, nil
	}))

	return r
}
