package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
)

// Handler serves the dashboard.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers the dashboard route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Require(authz.AnyUser)).Get("/", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.AccountFromContext(r.Context())
	summary, err := h.service.Summary(r.Context(), actor)
	if err != nil {
		if !httpx.IsClientError(err) {
			h.logger.Error("dashboard failed", slog.String("actor", actor.ID), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
