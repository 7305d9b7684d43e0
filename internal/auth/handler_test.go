package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/auth"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
	_ "github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/testing"
)

type stubRepo struct {
	mu       sync.Mutex
	users    map[int64]*auth.User
	sessions map[string]int64
}

func newStubRepo(list ...*auth.User) *stubRepo {
	repo := &stubRepo{users: make(map[int64]*auth.User), sessions: make(map[string]int64)}
	for _, u := range list {
		repo.users[u.ID] = u
	}
	return repo
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("missing")
}

func (s *stubRepo) UpdatePassword(_ context.Context, id int64, hash string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].PasswordHash = hash
	return nil
}

func (s *stubRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubRegistrar struct {
	repo *stubRepo
}

func (r stubRegistrar) SelfRegister(_ context.Context, req users.SelfRegisterRequest) (*users.User, error) {
	r.repo.mu.Lock()
	defer r.repo.mu.Unlock()
	id := int64(len(r.repo.users) + 100)
	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	r.repo.users[id] = &auth.User{ID: id, Name: req.Name, Email: req.Email, Role: authz.RoleTrainee, PasswordHash: string(hash), IsActive: true}
	return &users.User{ID: id, Name: req.Name, Email: req.Email, Role: authz.RoleTrainee, IsActive: true}, nil
}

type harness struct {
	t        *testing.T
	repo     *stubRepo
	router   chi.Router
	sessions *shared.SessionManager
	mr       *miniredis.Miniredis
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newStubRepo(
		&auth.User{ID: 1, Name: "Adel Admin", Email: "admin@trainhub.io", Role: authz.RoleAdmin, PasswordHash: hashed(t, "secret1"), IsActive: true},
		&auth.User{ID: 2, Name: "Gone Trainee", Email: "gone@trainhub.io", Role: authz.RoleTrainee, PasswordHash: hashed(t, "secret1"), IsActive: false},
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := shared.NewSessionManager(client, "trainhub_session", time.Hour, false)
	engine, err := authz.NewEngine(authz.UserStoreFunc(func(ctx context.Context, id string) (authz.Account, error) {
		uid, err := users.ParseID(id)
		if err != nil {
			return authz.Account{}, authz.ErrAccountNotFound
		}
		u, err := repo.FindByID(ctx, uid)
		if err != nil {
			return authz.Account{}, authz.ErrAccountNotFound
		}
		return authz.Account{ID: id, Role: u.Role, Active: u.IsActive}, nil
	}))
	require.NoError(t, err)

	service := auth.NewService(repo, auth.NewLockout(client, 3, time.Minute), logger)
	handler := auth.NewHandler(logger, service, stubRegistrar{repo: repo}, sessions, shared.NewCSRFManager("csrfsecret"), authz.Guard{Engine: engine, Logger: logger})

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(&committingWriter{ResponseWriter: w, commit: func(w http.ResponseWriter) {
				require.NoError(t, sessions.Commit(ctx, w, sess))
			}}, r.WithContext(ctx))
		})
	})
	router.Route("/auth", handler.MountRoutes)
	return &harness{t: t, repo: repo, router: router, sessions: sessions, mr: mr}
}

// committingWriter persists the session before the status line is written.
type committingWriter struct {
	http.ResponseWriter
	commit func(http.ResponseWriter)
	done   bool
}

func (w *committingWriter) WriteHeader(code int) {
	if !w.done {
		w.done = true
		w.commit(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *committingWriter) Write(b []byte) (int, error) {
	if !w.done {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (h *harness) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		payload = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, payload)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "trainhub_session" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestLoginSuccessBindsSession(t *testing.T) {
	h := newHarness(t)

	anon := h.do(http.MethodGet, "/auth/csrf", nil)
	require.Equal(t, http.StatusOK, anon.Code)
	anonCookie := sessionCookie(t, anon)

	rr := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "ADMIN@trainhub.io", "password": "secret1"}, anonCookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		User struct {
			ID   int64  `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.User.ID)
	assert.Equal(t, "admin", resp.User.Role)
	assert.NotEmpty(t, resp.CSRFToken)

	cookie := sessionCookie(t, rr)
	assert.NotEqual(t, anonCookie.Value, cookie.Value, "session id must rotate on sign-in")
	assert.False(t, h.mr.Exists("trainhub:session:"+anonCookie.Value))
	assert.Contains(t, h.repo.sessions, cookie.Value)

	profile := h.do(http.MethodGet, "/auth/profile", nil, cookie)
	require.Equal(t, http.StatusOK, profile.Code)
	assert.Contains(t, profile.Body.String(), `"email":"admin@trainhub.io"`)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	rr := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "admin@trainhub.io", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = h.do(http.MethodPost, "/auth/login", map[string]string{"email": "nobody@trainhub.io", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = h.do(http.MethodPost, "/auth/login", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	h := newHarness(t)

	rr := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "gone@trainhub.io", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLoginLockout(t *testing.T) {
	h := newHarness(t)
	bad := map[string]string{"email": "admin@trainhub.io", "password": "wrong"}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/auth/login", bad).Code)
	}
	good := map[string]string{"email": "admin@trainhub.io", "password": "secret1"}
	assert.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/auth/login", good).Code)

	h.mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/login", good).Code)
}

func TestRegisterSignsInAsTrainee(t *testing.T) {
	h := newHarness(t)

	rr := h.do(http.MethodPost, "/auth/register", map[string]string{
		"name": "New Trainee", "email": "new@trainhub.io", "password": "secret1", "confirm_password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"role":"trainee"`)

	profile := h.do(http.MethodGet, "/auth/profile", nil, sessionCookie(t, rr))
	assert.Equal(t, http.StatusOK, profile.Code)
}

func TestRegisterRejectsRoleField(t *testing.T) {
	h := newHarness(t)

	rr := h.do(http.MethodPost, "/auth/register", map[string]string{
		"name": "Sneaky", "email": "sneaky@trainhub.io", "password": "secret1", "confirm_password": "secret1", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProfileRequiresSignIn(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/auth/profile", nil).Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	h := newHarness(t)

	login := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "admin@trainhub.io", "password": "secret1"})
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login)

	out := h.do(http.MethodPost, "/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusNoContent, out.Code)
	assert.NotContains(t, h.repo.sessions, cookie.Value)
	assert.False(t, h.mr.Exists("trainhub:session:"+cookie.Value))

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/auth/profile", nil, cookie).Code)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)

	login := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "admin@trainhub.io", "password": "secret1"})
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login)

	wrong := h.do(http.MethodPost, "/auth/password", map[string]string{
		"current_password": "nope", "new_password": "secret2", "confirm_password": "secret2",
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Contains(t, wrong.Body.String(), "current_password")

	ok := h.do(http.MethodPost, "/auth/password", map[string]string{
		"current_password": "secret1", "new_password": "secret2", "confirm_password": "secret2",
	}, cookie)
	assert.Equal(t, http.StatusNoContent, ok.Code)

	again := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "admin@trainhub.io", "password": "secret2"})
	assert.Equal(t, http.StatusOK, again.Code)
}
