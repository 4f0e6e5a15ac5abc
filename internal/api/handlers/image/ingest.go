package image

import (
	"encoding/json"
	"io"
	"net/http"

	"Pixelbox/internal/core/images"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// parts spill to temp files.
const maxUploadMemory = 4 << 20

// HandleAdd handles POST /images
// Ingests one image from a URL or a server-local path.
//
// Body: {"path": "...", "type": "url"|"local", "tags": [...]}
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req images.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "path is required")
		return
	}

	var hash string
	var err error
	switch req.Source {
	case images.SourceURL:
		hash, err = h.service.IngestRemote(r.Context(), req.Path, req.Tags)
	case images.SourceLocal:
		hash, err = h.service.IngestLocal(r.Context(), req.Path, req.Tags)
	default:
		writeError(w, http.StatusBadRequest, "InvalidRequest", `type must be "url" or "local"`)
		return
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"hash": hash})
}

// HandleBatchAdd handles POST /images/batch
// Ingests every listed source concurrently; results are positional and one
// failure never aborts the rest.
func (h *Handler) HandleBatchAdd(w http.ResponseWriter, r *http.Request) {
	var reqs []images.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "at least one item is required")
		return
	}
	for _, req := range reqs {
		if req.Path == "" {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "every item needs a path")
			return
		}
		if req.Source != images.SourceURL && req.Source != images.SourceLocal {
			writeError(w, http.StatusBadRequest, "InvalidRequest", `every item's type must be "url" or "local"`)
			return
		}
	}

	outcomes := h.service.IngestBatch(r.Context(), reqs)

	type batchItem struct {
		Path  string `json:"path"`
		Hash  string `json:"hash,omitempty"`
		Error string `json:"error,omitempty"`
	}
	items := make([]batchItem, len(outcomes))
	for i, out := range outcomes {
		items[i].Path = out.Path
		if out.Err != nil {
			items[i].Error = out.Err.Error()
		} else {
			items[i].Hash = out.Hash
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// HandleUpload handles POST /images/upload
// Accepts a multipart form with a "file" part and optional repeated "tag"
// fields.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", `a "file" part is required`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "failed to read upload")
		return
	}

	hash, err := h.service.IngestBytes(r.Context(), data, header.Header.Get("Content-Type"), r.Form["tag"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"hash": hash})
}
