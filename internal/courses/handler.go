package courses

import (
	"log/slog"
	"net/http"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

// Handler exposes catalogue endpoints.
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
	instructorID, err := httpx.OptionalInt64Query(r, "instructor_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.List(r.Context(), ListRequest{
		Search:       r.URL.Query().Get("search"),
		InstructorID: instructorID,
		Page:         shared.PageFromRequest(r),
	})
	if err != nil {
		h.fail(w, r, "list courses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	course, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get course", err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	course, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create course", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, course)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CourseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	course, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "update course", err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "delete course", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if !httpx.IsClientError(err) {
		h.logger.Error(op+" failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
