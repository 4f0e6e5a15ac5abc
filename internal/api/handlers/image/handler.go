// Package image provides the HTTP handlers for the image catalog: random
// retrieval, ingestion, deletion and tag management.
package image

import (
	"Pixelbox/internal/core/images"
)

// Handler handles HTTP requests for the image catalog.
type Handler struct {
	service images.Service
}

// NewHandler creates a new image handler.
func NewHandler(service images.Service) *Handler {
	return &Handler{service: service}
}
