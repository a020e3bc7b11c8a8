// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all member routes under the path where the caller mounts it.
// Typically: r.Mount("/members", members.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)

		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}/view", h.ServeView)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)

		pr.Post("/{id}/status", h.HandleStatus)
		pr.Post("/{id}/checkin", h.HandleCheckIn)
		pr.Post("/{id}/award", h.HandleAward)

		// Deactivation is owner-only.
		pr.Group(func(or chi.Router) {
			or.Use(auth.RequireRole("owner"))
			or.Post("/{id}/deactivate", h.HandleDeactivate)
		})
	})

	return r
}
