package users

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

type handlerHarness struct {
	t        *testing.T
	f        *fixture
	router   chi.Router
	sessions *shared.SessionManager
}

func newHandlerHarness(t *testing.T) *handlerHarness {
	t.Helper()
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := authz.NewEngine(f.svc)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, f.svc, authz.Guard{Engine: engine, Logger: logger})

	router := chi.NewRouter()
	router.Route("/users", handler.MountRoutes)
	return &handlerHarness{
		t:        t,
		f:        f,
		router:   router,
		sessions: shared.NewSessionManager(client, "trainhub_session", time.Hour, false),
	}
}

func (h *handlerHarness) do(as User, method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		payload = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, payload)
	sess, err := h.sessions.Load(req.Context(), req)
	require.NoError(h.t, err)
	if as.ID != 0 {
		sess.SetUser(FormatID(as.ID))
		sess.Set(authz.SessionRoleKey, as.Role.String())
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func TestHandlerListRequiresStaff(t *testing.T) {
	h := newHandlerHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(User{}, http.MethodGet, "/users/", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(h.f.instructor, http.MethodGet, "/users/", nil).Code)

	rr := h.do(h.f.admin, http.MethodGet, "/users/?role=trainee", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Users      []User            `json:"users"`
		Pagination shared.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, h.f.trainee.ID, resp.Users[0].ID)

	assert.Equal(t, http.StatusBadRequest, h.do(h.f.admin, http.MethodGet, "/users/?role=owner", nil).Code)
}

func TestHandlerShowOwnerOrAdmin(t *testing.T) {
	h := newHandlerHarness(t)

	own := h.do(h.f.trainee, http.MethodGet, "/users/"+FormatID(h.f.trainee.ID), nil)
	assert.Equal(t, http.StatusOK, own.Code)
	assert.NotContains(t, own.Body.String(), "password")

	assert.Equal(t, http.StatusForbidden, h.do(h.f.trainee, http.MethodGet, "/users/"+FormatID(h.f.instructor.ID), nil).Code)
	assert.Equal(t, http.StatusOK, h.do(h.f.admin, http.MethodGet, "/users/"+FormatID(h.f.instructor.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(h.f.admin, http.MethodGet, "/users/"+FormatID(h.f.super.ID), nil).Code)
}

func TestHandlerCreateUser(t *testing.T) {
	h := newHandlerHarness(t)

	rr := h.do(h.f.admin, http.MethodPost, "/users/", map[string]any{
		"name": "Nour Trainer", "email": "nour@trainhub.io", "password": "secret1",
		"confirm_password": "secret1", "role": "instructor",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = h.do(h.f.admin, http.MethodPost, "/users/", map[string]any{
		"name": "Nadia Boss", "email": "nadia@trainhub.io", "password": "secret1",
		"confirm_password": "secret1", "role": "admin",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(h.f.admin, http.MethodPost, "/users/", map[string]any{
		"name": "Nour Trainer", "email": "NOUR@trainhub.io", "password": "secret1",
		"confirm_password": "secret1", "role": "trainee",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = h.do(h.f.admin, http.MethodPost, "/users/", map[string]any{"role": "wizard"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(h.f.admin, http.MethodPost, "/users/", map[string]any{
		"name": "No Role", "email": "norole@trainhub.io", "password": "secret1",
		"confirm_password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role"`)
}

func TestHandlerToggleStatus(t *testing.T) {
	h := newHandlerHarness(t)

	self := h.do(h.f.admin, http.MethodPost, "/users/"+FormatID(h.f.admin.ID)+"/toggle-status", nil)
	assert.Equal(t, http.StatusForbidden, self.Code)

	rr := h.do(h.f.admin, http.MethodPost, "/users/"+FormatID(h.f.trainee.ID)+"/toggle-status", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// The deactivated trainee is locked out on the next request.
	assert.Equal(t, http.StatusForbidden, h.do(h.f.trainee, http.MethodGet, "/users/"+FormatID(h.f.trainee.ID), nil).Code)
}

func TestHandlerDeleteAndUpdateRequireAdmin(t *testing.T) {
	h := newHandlerHarness(t)
	path := "/users/" + FormatID(h.f.trainee.ID)

	assert.Equal(t, http.StatusForbidden, h.do(h.f.instructor, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(h.f.admin, http.MethodPut, path, map[string]any{"name": "Tarek Updated"}).Code)
	assert.Equal(t, http.StatusNoContent, h.do(h.f.admin, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(h.f.admin, http.MethodDelete, path, nil).Code)
}

func TestHandlerOptions(t *testing.T) {
	h := newHandlerHarness(t)

	rr := h.do(h.f.instructor, http.MethodGet, "/users/options/trainee", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var users []User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users, 1)

	assert.Equal(t, http.StatusForbidden, h.do(h.f.trainee, http.MethodGet, "/users/options/trainee", nil).Code)
}
