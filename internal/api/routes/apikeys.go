package routes

import (
	"github.com/go-chi/chi/v5"

	apikeyhandlers "Pixelbox/internal/api/handlers/apikey"
	"Pixelbox/internal/api/middleware"
)

// RegisterAPIKeyRoutes registers the key-management endpoints on the router.
// All of them are restricted to the admin key.
func RegisterAPIKeyRoutes(r chi.Router, handler *apikeyhandlers.Handler, auth *middleware.KeyAuth) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/keys", handler.HandleGenerate)
		r.Get("/keys", handler.HandleList)
		r.Delete("/keys/{username}", handler.HandleRemove)
		r.Put("/keys/{username}/ratelimit", handler.HandleSetRateLimit)
		r.Patch("/keys/{username}/status", handler.HandleSetStatus)
	})
}
