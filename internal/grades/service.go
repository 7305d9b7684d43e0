package grades

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/sessions"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/users"
)

// TraineeDirectory resolves graded accounts.
type TraineeDirectory interface {
	Lookup(ctx context.Context, id int64) (*users.User, error)
}

// SessionCatalog resolves graded sessions.
type SessionCatalog interface {
	Get(ctx context.Context, id int64) (*sessions.Session, error)
}

// Service handles grading rules.
type Service struct {
	repo     Repository
	trainees TraineeDirectory
	sessions SessionCatalog
	logger   *slog.Logger
}

// NewService builds a Service.
func NewService(repo Repository, trainees TraineeDirectory, sessions SessionCatalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, trainees: trainees, sessions: sessions, logger: logger}
}

// List returns a page of grades filtered by trainee or, failing that, by
// session.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	filter := ListFilter{Limit: req.Page.PerPage, Offset: req.Page.Offset()}
	if req.TraineeID != nil {
		filter.TraineeID = req.TraineeID
	} else {
		filter.SessionID = req.SessionID
	}
	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list grades: %w", err)
	}
	return ListResponse{Grades: grades, Pagination: shared.NewPagination(req.Page.Page, req.Page.PerPage, total)}, nil
}

// TraineeGrades returns the grades of one trainee. Accounts that are not
// trainees are reported as not found.
func (s *Service) TraineeGrades(ctx context.Context, traineeID int64, page shared.PageRequest) (ListResponse, error) {
	if _, err := s.trainee(ctx, traineeID); err != nil {
		if errors.Is(err, errNotTrainee) {
			return ListResponse{}, ErrTraineeNotFound
		}
		return ListResponse{}, err
	}
	return s.List(ctx, ListRequest{TraineeID: &traineeID, Page: page})
}

// Get returns one grade.
func (s *Service) Get(ctx context.Context, id int64) (*Grade, error) {
	return s.repo.Get(ctx, id)
}

// Count returns the number of recorded grades.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Create records a grade. A trainee is graded at most once per session.
func (s *Service) Create(ctx context.Context, req GradeRequest) (*Grade, error) {
	grade, err := s.prepare(ctx, 0, req)
	if err != nil {
		return nil, err
	}
	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := ensureUngraded(ctx, repo, grade.SessionID, grade.TraineeID); err != nil {
			return err
		}
		id, err = repo.Create(ctx, grade)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create grade: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update replaces a grade. The duplicate check only runs when the session or
// trainee changes.
func (s *Service) Update(ctx context.Context, id int64, req GradeRequest) (*Grade, error) {
	grade, err := s.prepare(ctx, id, req)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.SessionID != grade.SessionID || current.TraineeID != grade.TraineeID {
			if err := ensureUngraded(ctx, repo, grade.SessionID, grade.TraineeID); err != nil {
				return err
			}
		}
		return repo.Update(ctx, grade)
	})
	if err != nil {
		return nil, fmt.Errorf("update grade %d: %w", id, err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a grade.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete grade %d: %w", id, err)
	}
	return nil
}

var errNotTrainee = httpx.NewValidationError("trainee_id", "must reference a trainee")

func (s *Service) prepare(ctx context.Context, id int64, req GradeRequest) (Grade, error) {
	if err := httpx.Validate(req); err != nil {
		return Grade{}, err
	}
	if _, err := s.sessions.Get(ctx, req.SessionID); err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return Grade{}, httpx.NewValidationError("session_id", "does not exist")
		}
		return Grade{}, fmt.Errorf("lookup session: %w", err)
	}
	if _, err := s.trainee(ctx, req.TraineeID); err != nil {
		return Grade{}, err
	}
	return Grade{ID: id, SessionID: req.SessionID, TraineeID: req.TraineeID, Value: *req.Value}, nil
}

func (s *Service) trainee(ctx context.Context, id int64) (*users.User, error) {
	user, err := s.trainees.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, errNotTrainee
		}
		return nil, fmt.Errorf("lookup trainee: %w", err)
	}
	if user.Role != authz.RoleTrainee {
		return nil, errNotTrainee
	}
	return user, nil
}

func ensureUngraded(ctx context.Context, repo Repository, sessionID, traineeID int64) error {
	_, err := repo.GetByPair(ctx, sessionID, traineeID)
	switch {
	case err == nil:
		return ErrAlreadyGraded
	case errors.Is(err, ErrGradeNotFound):
		return nil
	default:
		return err
	}
}
