package handler

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"go-channel-identity/internal/media"
)

type objectOpener interface {
	Open(publicID string) (*os.File, error)
}

// MediaHandler serves objects kept by the local object store.
type MediaHandler struct {
	objects objectOpener
}

func NewMediaHandler(objects objectOpener) *MediaHandler {
	return &MediaHandler{objects: objects}
}

func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicId")

	file, err := h.objects.Open(publicID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		writeError(w, err)
		return
	}

	contentType, err := media.DetectContentType(file)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, publicID, stat.ModTime(), file)
}
