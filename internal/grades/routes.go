package grades

import (
	"github.com/go-chi/chi/v5"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
)

// MountRoutes registers grading routes. Trainees reach only their own grade
// sheet.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.OwnerOrMinimum("id", authz.RoleInstructor))).Get("/trainees/{id}", h.traineeGrades)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.InstructorOrAbove))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}
