package sessions

import (
	"github.com/go-chi/chi/v5"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
)

// MountRoutes registers session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.AnyUser)).Get("/", h.list)
	r.With(h.guard.Require(authz.AnyUser)).Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.InstructorOrAbove))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}
