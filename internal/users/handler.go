package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

// Handler exposes account management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.AccountFromContext(r.Context())
	req := ListRequest{
		Search: r.URL.Query().Get("search"),
		Page:   shared.PageFromRequest(r),
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := authz.ParseRole(raw)
		if err != nil {
			httpx.RespondError(w, httpx.NewValidationError("role", "must be one of trainee instructor admin superadmin"))
			return
		}
		req.Role = &role
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, httpx.NewValidationError("active", "must be true or false"))
			return
		}
		req.Active = &active
	}

	resp, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		h.fail(w, r, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) options(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.AccountFromContext(r.Context())
	role, err := authz.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, httpx.NewValidationError("role", "must be one of trainee instructor admin superadmin"))
		return
	}
	users, err := h.service.Options(r.Context(), actor, role)
	if err != nil {
		h.fail(w, r, "list user options", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := authz.AccountFromContext(r.Context())
	user, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	actor, _ := authz.AccountFromContext(r.Context())
	user, err := h.service.Register(r.Context(), actor, req)
	if err != nil {
		h.fail(w, r, "register user", err)
		return
	}
	h.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("role", user.Role.String()), slog.String("by", actor.ID))
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	actor, _ := authz.AccountFromContext(r.Context())
	user, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		h.fail(w, r, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := authz.AccountFromContext(r.Context())
	user, err := h.service.ToggleStatus(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "toggle user status", err)
		return
	}
	h.logger.Info("user status changed", slog.Int64("user_id", user.ID), slog.Bool("is_active", user.IsActive), slog.String("by", actor.ID))
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := authz.AccountFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail logs unexpected errors before mapping them to a problem response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op+" failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
