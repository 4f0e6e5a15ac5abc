package image

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type tagsRequest struct {
	Tags []string `json:"tags"`
}

// HandleAddTags handles POST /images/{filename}/tags
func (h *Handler) HandleAddTags(w http.ResponseWriter, r *http.Request) {
	h.mutateTags(w, r, h.service.AddTags)
}

// HandleRemoveTags handles DELETE /images/{filename}/tags
func (h *Handler) HandleRemoveTags(w http.ResponseWriter, r *http.Request) {
	h.mutateTags(w, r, h.service.RemoveTags)
}

func (h *Handler) mutateTags(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, filename string, tags []string) error) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "filename is required")
		return
	}

	var req tagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}
	if len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "at least one tag is required")
		return
	}

	if err := op(r.Context(), filename, req.Tags); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListTags handles GET /tags
// Returns the full tag vocabulary with usage counts.
func (h *Handler) HandleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}
