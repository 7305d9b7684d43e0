package users

import (
	"github.com/go-chi/chi/v5"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
)

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.StaffOnly))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/{id}/toggle-status", h.toggleStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.InstructorOrAbove))
		r.Get("/options/{role}", h.options)
	})
	r.With(h.guard.Require(authz.OwnerOrAdmin("id"))).Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.AdminOrAbove))
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}
