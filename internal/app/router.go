package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/audit"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/auth"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/courses"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/dashboard"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/grades"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/observability"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/sessions"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/jobs"
)

// ReadinessCheck probes one backing service.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	CoursesHandler   *courses.Handler
	SessionsHandler  *sessions.Handler
	GradesHandler    *grades.Handler
	DashboardHandler *dashboard.Handler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	Readiness        []ReadinessCheck
}

// NewRouter constructs the chi.Router with TrainHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Logger, params.Readiness))

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/courses", params.CoursesHandler.MountRoutes)
	r.Route("/sessions", params.SessionsHandler.MountRoutes)
	r.Route("/grades", params.GradesHandler.MountRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	r.Route("/audit", params.AuditHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
	})

	return r
}

func readinessHandler(logger *slog.Logger, checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := make(map[string]string, len(checks))
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("check", c.Name), slog.Any("error", err))
				status[c.Name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.Name] = "up"
		}
		httpx.JSON(w, code, status)
	}
}
