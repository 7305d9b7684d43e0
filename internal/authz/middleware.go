package authz

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

// SessionRoleKey is the session value holding the role name recorded at login.
const SessionRoleKey = "role"

// DecisionRecorder receives one observation per evaluated request.
type DecisionRecorder interface {
	ObserveDecision(policy string, decision string)
}

// Guard wires the engine into HTTP handlers. A guarded handler only runs when
// the engine allows the request.
type Guard struct {
	Engine   *Engine
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

// Require returns middleware enforcing policy.
func (g Guard) Require(policy Policy) func(http.Handler) http.Handler {
	label := policy.String()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromRequest(r)
			ownerID := ""
			if policy.RequiresOwner() {
				ownerID = ownerFromRequest(r, policy.OwnerParam())
			}
			decision, account := g.Engine.evaluate(r.Context(), principal, policy, ownerID)
			if g.Recorder != nil {
				g.Recorder.ObserveDecision(label, string(decision))
			}
			switch decision {
			case Allow:
				g.log(r, slog.LevelDebug, decision, label, principal)
				next.ServeHTTP(w, r.WithContext(ContextWithAccount(r.Context(), account)))
			case DenyUnauthenticated:
				g.log(r, slog.LevelInfo, decision, label, principal)
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			default:
				g.log(r, slog.LevelInfo, decision, label, principal)
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
			}
		})
	}
}

func (g Guard) log(r *http.Request, level slog.Level, decision Decision, policy string, principal *Principal) {
	if g.Logger == nil {
		return
	}
	id := ""
	if principal != nil {
		id = principal.ID
	}
	g.Logger.Log(r.Context(), level, "authz decision",
		slog.String("decision", string(decision)),
		slog.String("policy", policy),
		slog.String("principal", id),
		slog.String("path", r.URL.Path),
	)
}

// PrincipalFromRequest builds the principal from the request session. It
// returns nil when the request carries no session.
func PrincipalFromRequest(r *http.Request) *Principal {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil
	}
	id := strings.TrimSpace(sess.User())
	principal := &Principal{ID: id, Authenticated: id != "", Active: id != ""}
	principal.Role = Role(rankUndefined)
	if role, err := ParseRole(sess.Get(SessionRoleKey)); err == nil {
		principal.Role = role
	}
	return principal
}

// ownerFromRequest reads the owner id from the route first, then the query.
func ownerFromRequest(r *http.Request, param string) string {
	if param == "" {
		return ""
	}
	if v := chi.URLParam(r, param); v != "" {
		return v
	}
	return r.URL.Query().Get(param)
}

type accountContextKey struct{}

// ContextWithAccount stores the resolved account of the caller.
func ContextWithAccount(ctx context.Context, account Account) context.Context {
	return context.WithValue(ctx, accountContextKey{}, account)
}

// AccountFromContext returns the account resolved by the guard.
func AccountFromContext(ctx context.Context) (Account, bool) {
	account, ok := ctx.Value(accountContextKey{}).(Account)
	return account, ok
}
