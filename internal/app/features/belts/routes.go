// internal/app/features/belts/routes.go
package belts

import (
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the taxonomy pages. Viewing is open to any signed-in staff;
// creating entries is owner-only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)

		pr.Group(func(or chi.Router) {
			or.Use(auth.RequireRole("owner"))
			or.Post("/", h.HandleCreateBelt)
			or.Post("/levels", h.HandleCreateLevel)
		})
	})

	return r
}
