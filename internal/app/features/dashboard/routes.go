// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the dashboard. Typically: r.Mount("/dashboard", dashboard.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
	})

	return r
}
