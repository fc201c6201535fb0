package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/erazemk/predal/internal/imaging"
	"github.com/erazemk/predal/internal/items"
	"github.com/erazemk/predal/internal/model"
	"github.com/erazemk/predal/internal/store"
)

// ImagesHandler handles item photo endpoints.
type ImagesHandler struct {
	DB    *sql.DB
	Store *items.Store
}

// imagePath is the URL prefix stored in an item's img field.
const imagePath = "/api/images/"

// Upload handles PUT /api/items/{id}/image.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.Store.View().ByID(id); !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxInputSize+(1<<20))
	if err := r.ParseMultipartForm(imaging.MaxInputSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image must be JPEG, PNG, or WebP")
		return
	}

	ref, err := store.SaveImage(r.Context(), h.DB, photo.Data, photo.MIME)
	if err != nil {
		slog.Error("failed to save image", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	img := imagePath + ref
	item, ok, _ := h.Store.Modify(id, func(item *model.Item) error {
		item.Img = &img
		return nil
	})
	if !ok {
		// Removed while the photo was processed.
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Get handles GET /api/images/{ref}.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	if _, err := uuid.Parse(ref); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image reference")
		return
	}

	data, mime, err := store.GetImage(r.Context(), h.DB, ref)
	if err != nil {
		slog.Error("failed to get image", "ref", ref, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=86400, immutable")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
