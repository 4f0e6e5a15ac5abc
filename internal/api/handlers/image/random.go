package image

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"Pixelbox/internal/api/middleware"
	"Pixelbox/internal/core/images"
)

// HandleRandom handles GET /images/random
// Picks one image uniformly at random among those matching the query filter.
//
// Query parameters:
//   - tags: comma-separated tag names; an image must carry every one
//   - width, height, size: exact value, or <attr>_min / <attr>_max for a range
func (h *Handler) HandleRandom(w http.ResponseWriter, r *http.Request) {
	spec, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	resp, err := h.service.GetRandom(r.Context(), spec)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// batchRandomRequest is the body of POST /images/random/batch. Each of
// width/height/size takes either an exact value or an inclusive min/max
// range, same as the query parameters of GET /images/random.
type batchRandomRequest struct {
	Count     int      `json:"count"`
	Tags      []string `json:"tags,omitempty"`
	Width     *int64   `json:"width,omitempty"`
	WidthMin  *int64   `json:"width_min,omitempty"`
	WidthMax  *int64   `json:"width_max,omitempty"`
	Height    *int64   `json:"height,omitempty"`
	HeightMin *int64   `json:"height_min,omitempty"`
	HeightMax *int64   `json:"height_max,omitempty"`
	Size      *int64   `json:"size,omitempty"`
	SizeMin   *int64   `json:"size_min,omitempty"`
	SizeMax   *int64   `json:"size_max,omitempty"`
}

func (req *batchRandomRequest) filterSpec() (images.FilterSpec, error) {
	spec := images.FilterSpec{
		Tags:   req.Tags,
		Width:  images.NumberFilter{Exact: req.Width, Min: req.WidthMin, Max: req.WidthMax},
		Height: images.NumberFilter{Exact: req.Height, Min: req.HeightMin, Max: req.HeightMax},
		Size:   images.NumberFilter{Exact: req.Size, Min: req.SizeMin, Max: req.SizeMax},
	}
	for _, f := range []images.NumberFilter{spec.Width, spec.Height, spec.Size} {
		for _, v := range []*int64{f.Exact, f.Min, f.Max} {
			if v != nil && *v < 0 {
				return spec, fmt.Errorf("filter values must be non-negative, got %d", *v)
			}
		}
	}
	return spec, nil
}

// HandleBatchRandom handles POST /images/random/batch
// Returns up to count random matches. The count is capped by the calling
// key's batch ceiling.
func (h *Handler) HandleBatchRandom(w http.ResponseWriter, r *http.Request) {
	var req batchRandomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid request body")
		return
	}
	if req.Count < 1 {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "count must be at least 1")
		return
	}

	info := middleware.AuthInfoFrom(r.Context())
	if info == nil {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "authentication required")
		return
	}
	if req.Count > info.BatchMax {
		writeError(w, http.StatusForbidden, "BatchTooLarge",
			fmt.Sprintf("this key may request at most %d images per batch", info.BatchMax))
		return
	}

	spec, err := req.filterSpec()
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	outcomes := h.service.GetRandomBatch(r.Context(), req.Count, spec)

	type batchItem struct {
		Image *images.ImageResponse `json:"image,omitempty"`
		Error string                `json:"error,omitempty"`
	}
	items := make([]batchItem, len(outcomes))
	for i, out := range outcomes {
		if out.Err != nil {
			items[i].Error = out.Err.Error()
		} else {
			items[i].Image = out.Image
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"images": items})
}

// filterFromQuery builds a FilterSpec from URL query parameters.
func filterFromQuery(r *http.Request) (images.FilterSpec, error) {
	q := r.URL.Query()

	var spec images.FilterSpec
	if raw := q.Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				spec.Tags = append(spec.Tags, t)
			}
		}
	}

	var err error
	if spec.Width, err = numberFromQuery(q.Get("width"), q.Get("width_min"), q.Get("width_max")); err != nil {
		return spec, fmt.Errorf("width: %w", err)
	}
	if spec.Height, err = numberFromQuery(q.Get("height"), q.Get("height_min"), q.Get("height_max")); err != nil {
		return spec, fmt.Errorf("height: %w", err)
	}
	if spec.Size, err = numberFromQuery(q.Get("size"), q.Get("size_min"), q.Get("size_max")); err != nil {
		return spec, fmt.Errorf("size: %w", err)
	}
	return spec, nil
}

func numberFromQuery(exact, min, max string) (images.NumberFilter, error) {
	var f images.NumberFilter
	var err error
	if f.Exact, err = parseOptionalInt(exact); err != nil {
		return f, err
	}
	if f.Min, err = parseOptionalInt(min); err != nil {
		return f, err
	}
	if f.Max, err = parseOptionalInt(max); err != nil {
		return f, err
	}
	return f, nil
}

func parseOptionalInt(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("expected a non-negative integer, got %q", raw)
	}
	return &v, nil
}
