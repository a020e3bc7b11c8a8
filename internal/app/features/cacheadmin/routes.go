// internal/app/features/cacheadmin/routes.go
package cacheadmin

import (
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the cache admin endpoints. Owner-only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(or chi.Router) {
		or.Use(auth.RequireSignedIn)
		or.Use(auth.RequireRole("owner"))

		or.Get("/", h.ServeStats)
		or.Post("/clear", h.HandleClear)
	})

	return r
}
