package audit

import (
	"log/slog"
	"net/http"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

// Handler exposes the audit timeline to SuperAdmins.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   authz.Guard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.Timeline(r.Context(), req)
	if err != nil {
		h.fail(w, r, "audit timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.Export(r.Context(), req)
	if err != nil {
		h.fail(w, r, "audit export", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-timeline.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := WriteCSV(w, entries); err != nil {
		h.logger.Warn("write audit csv", slog.Any("error", err))
	}
}

func parseRequest(r *http.Request) (TimelineRequest, error) {
	actorID, err := httpx.OptionalInt64Query(r, "actor_id")
	if err != nil {
		return TimelineRequest{}, err
	}
	q := r.URL.Query()
	return TimelineRequest{
		From:     q.Get("from"),
		To:       q.Get("to"),
		ActorID:  actorID,
		Action:   q.Get("action"),
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		Page:     shared.PageFromRequest(r),
	}, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
