package image

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HandleGet handles GET /images/{filename}
// Returns the catalog metadata for one stored image.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "filename is required")
		return
	}

	resp, err := h.service.GetByFilename(r.Context(), filename)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /images/{filename}
// Removes the catalog row, its backing file and any tags left orphaned.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "filename is required")
		return
	}

	if err := h.service.Delete(r.Context(), filename); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
