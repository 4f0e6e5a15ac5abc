package routes

import (
	"github.com/go-chi/chi/v5"

	imagehandlers "Pixelbox/internal/api/handlers/image"
	"Pixelbox/internal/api/middleware"
)

// RegisterImageRoutes registers the image catalog endpoints on the router.
//
// Read routes require any valid API key; write routes require the admin key.
func RegisterImageRoutes(r chi.Router, handler *imagehandlers.Handler, auth *middleware.KeyAuth) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireKey)
		r.Get("/images/random", handler.HandleRandom)
		r.Post("/images/random/batch", handler.HandleBatchRandom)
		r.Get("/images/{filename}", handler.HandleGet)
		r.Get("/tags", handler.HandleListTags)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/images", handler.HandleAdd)
		r.Post("/images/batch", handler.HandleBatchAdd)
		r.Post("/images/upload", handler.HandleUpload)
		r.Delete("/images/{filename}", handler.HandleDelete)
		r.Post("/images/{filename}/tags", handler.HandleAddTags)
		r.Delete("/images/{filename}/tags", handler.HandleRemoveTags)
	})
}
