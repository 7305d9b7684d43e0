package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
)

// Registrar creates accounts from the public sign-up form.
type Registrar interface {
	SelfRegister(ctx context.Context, req users.SelfRegisterRequest) (*users.User, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	registrar      Registrar
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	guard          authz.Guard
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, registrar Registrar, sessions *shared.SessionManager, csrf *shared.CSRFManager, guard authz.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		registrar:      registrar,
		sessionManager: sessions,
		csrfManager:    csrf,
		guard:          guard,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.csrfToken)
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(authz.AnyUser))
		r.Get("/profile", h.profile)
		r.Post("/password", h.changePassword)
	})
}

type profileResponse struct {
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     authz.Role `json:"role"`
	IsActive bool       `json:"is_active"`
}

type signInResponse struct {
	User      profileResponse `json:"user"`
	CSRFToken string          `json:"csrf_token"`
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		case errors.Is(err, ErrAccountInactive):
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "account is deactivated")
		case errors.Is(err, ErrAccountLocked):
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "too many failed attempts, try again later")
		default:
			h.logger.Error("authenticate", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}

	token, err := h.signIn(r, user.ID, user.Role)
	if err != nil {
		h.logger.Error("sign in", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user signed in", slog.Int64("user_id", user.ID), slog.String("role", user.Role.String()))
	httpx.JSON(w, http.StatusOK, signInResponse{User: toProfile(user), CSRFToken: token})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req users.SelfRegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	created, err := h.registrar.SelfRegister(r.Context(), req)
	if err != nil {
		if !httpx.IsClientError(err) {
			h.logger.Error("self register", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	token, err := h.signIn(r, created.ID, created.Role)
	if err != nil {
		h.logger.Error("sign in after register", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, signInResponse{
		User: profileResponse{
			ID:       created.ID,
			Name:     created.Name,
			Email:    created.Email,
			Role:     created.Role,
			IsActive: created.IsActive,
		},
		CSRFToken: token,
	})
}

// signIn binds the session to the account. The session id and CSRF token are
// rotated so nothing issued before sign-in stays valid.
func (h *Handler) signIn(r *http.Request, userID int64, role authz.Role) (string, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return "", shared.ErrSessionMissing
	}
	h.sessionManager.Renew(sess)
	sess.SetUser(users.FormatID(userID))
	sess.Set(authz.SessionRoleKey, role.String())
	token, err := h.csrfManager.Rotate(r.Context(), sess)
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, userID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	return token, nil
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), shared.UserIDFromContext(r.Context()))
	if err != nil {
		if !httpx.IsClientError(err) {
			h.logger.Error("load profile", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfile(user))
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	userID := shared.UserIDFromContext(r.Context())
	if err := h.service.ChangePassword(r.Context(), userID, req); err != nil {
		if !httpx.IsClientError(err) {
			h.logger.Error("change password", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("password changed", slog.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

func toProfile(u *User) profileResponse {
	return profileResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, IsActive: u.IsActive}
}
