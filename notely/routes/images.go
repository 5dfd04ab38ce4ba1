package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"notely/notely/sources/storage"
	"notely/notely/utils/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ObjectOpener streams stored objects by key.
type ObjectOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// ImageProxyRoutes serves GET /images/<key> from the blob store.
func ImageProxyRoutes(objects ObjectOpener) chi.Router {
	r := chi.NewRouter()
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if key == "" || objects == nil || strings.Contains(key, "..") {
			http.NotFound(w, r)
			return
		}
		body, contentType, err := objects.Open(r.Context(), key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			logging.ErrorLogger.Error("image proxy failed",
				zap.String("request_id", logging.RequestID(r.Context())), zap.String("key", key), zap.Error(err))
			writeError(w, http.StatusBadGateway, "Image unavailable")
			return
		}
		defer body.Close()
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
		io.Copy(w, body)
	})
	return r
}
