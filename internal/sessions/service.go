package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/courses"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
)

var errCourseMissing = httpx.NewValidationError("course_id", "does not exist")

// CourseCatalog resolves the course a session belongs to.
type CourseCatalog interface {
	Get(ctx context.Context, id int64) (*courses.Course, error)
}

// Service handles scheduling rules.
type Service struct {
	repo    Repository
	catalog CourseCatalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds a Service.
func NewService(repo Repository, catalog CourseCatalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: catalog, logger: logger, now: time.Now}
}

// List returns a page of sessions, newest start first.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	sessions, total, err := s.repo.List(ctx, ListFilter{
		CourseID: req.CourseID,
		Limit:    req.Page.PerPage,
		Offset:   req.Page.Offset(),
	})
	if err != nil {
		return ListResponse{}, fmt.Errorf("list sessions: %w", err)
	}
	return ListResponse{Sessions: sessions, Pagination: shared.NewPagination(req.Page.Page, req.Page.PerPage, total)}, nil
}

// Get returns one session.
func (s *Service) Get(ctx context.Context, id int64) (*Session, error) {
	return s.repo.Get(ctx, id)
}

// Count returns the number of scheduled sessions.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Create schedules a session.
func (s *Service) Create(ctx context.Context, req SessionRequest) (*Session, error) {
	session, err := s.prepare(ctx, 0, req)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update reschedules a session. The start date rule applies again.
func (s *Service) Update(ctx context.Context, id int64, req SessionRequest) (*Session, error) {
	session, err := s.prepare(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session %d: %w", id, err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a session and its grades.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, id int64, req SessionRequest) (Session, error) {
	if err := httpx.Validate(req); err != nil {
		return Session{}, err
	}
	start, err := time.Parse(DateLayout, req.StartDate)
	if err != nil {
		return Session{}, httpx.NewValidationError("start_date", "must be a date formatted as "+DateLayout)
	}
	end, err := time.Parse(DateLayout, req.EndDate)
	if err != nil {
		return Session{}, httpx.NewValidationError("end_date", "must be a date formatted as "+DateLayout)
	}
	if start.Before(s.today()) {
		return Session{}, httpx.NewValidationError("start_date", "must not be in the past")
	}
	if !end.After(start) {
		return Session{}, httpx.NewValidationError("end_date", "must be after start_date")
	}
	if _, err := s.catalog.Get(ctx, req.CourseID); err != nil {
		if errors.Is(err, courses.ErrCourseNotFound) {
			return Session{}, errCourseMissing
		}
		return Session{}, fmt.Errorf("lookup course: %w", err)
	}
	return Session{ID: id, CourseID: req.CourseID, StartDate: start, EndDate: end}, nil
}

func (s *Service) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
