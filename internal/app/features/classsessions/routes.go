// internal/app/features/classsessions/routes.go
package classsessions

import (
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the class schedule pages.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}
