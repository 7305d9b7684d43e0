package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
)

// InstructorDirectory resolves the account referenced as instructor.
type InstructorDirectory interface {
	Lookup(ctx context.Context, id int64) (*users.User, error)
}

// Service handles catalogue business rules.
type Service struct {
	repo        Repository
	instructors InstructorDirectory
	logger      *slog.Logger
}

// NewService builds a Service.
func NewService(repo Repository, instructors InstructorDirectory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, instructors: instructors, logger: logger}
}

// List returns a page of courses whose name or category contains the search
// term.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	courses, total, err := s.repo.List(ctx, ListFilter{
		Search:       strings.TrimSpace(req.Search),
		InstructorID: req.InstructorID,
		Limit:        req.Page.PerPage,
		Offset:       req.Page.Offset(),
	})
	if err != nil {
		return ListResponse{}, fmt.Errorf("list courses: %w", err)
	}
	return ListResponse{Courses: courses, Pagination: shared.NewPagination(req.Page.Page, req.Page.PerPage, total)}, nil
}

// Get returns one course.
func (s *Service) Get(ctx context.Context, id int64) (*Course, error) {
	return s.repo.Get(ctx, id)
}

// Count returns the catalogue size.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Create adds a course.
func (s *Service) Create(ctx context.Context, req CourseRequest) (*Course, error) {
	course, err := s.prepare(ctx, 0, req)
	if err != nil {
		return nil, err
	}
	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := ensureNameFree(ctx, repo, course.Name, 0); err != nil {
			return err
		}
		id, err = repo.Create(ctx, course)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update replaces the editable fields of a course.
func (s *Service) Update(ctx context.Context, id int64, req CourseRequest) (*Course, error) {
	course, err := s.prepare(ctx, id, req)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Get(ctx, id); err != nil {
			return err
		}
		if err := ensureNameFree(ctx, repo, course.Name, id); err != nil {
			return err
		}
		return repo.Update(ctx, course)
	})
	if err != nil {
		return nil, fmt.Errorf("update course %d: %w", id, err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a course together with its sessions and grades.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete course %d: %w", id, err)
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, id int64, req CourseRequest) (Course, error) {
	if err := httpx.Validate(req); err != nil {
		return Course{}, err
	}
	course := Course{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		Category:     strings.TrimSpace(req.Category),
		InstructorID: req.InstructorID,
	}
	if req.InstructorID != nil {
		instructor, err := s.instructors.Lookup(ctx, *req.InstructorID)
		if err != nil && !errors.Is(err, users.ErrUserNotFound) {
			return Course{}, fmt.Errorf("lookup instructor: %w", err)
		}
		if instructor == nil || instructor.Role != authz.RoleInstructor {
			return Course{}, httpx.NewValidationError("instructor_id", "must reference an instructor")
		}
	}
	return course, nil
}

func ensureNameFree(ctx context.Context, repo Repository, name string, selfID int64) error {
	existing, err := repo.GetByName(ctx, name)
	if errors.Is(err, ErrCourseNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return ErrNameTaken
	}
	return nil
}
