// Package grades records trainee results per training session.
package grades

import (
	"fmt"
	"time"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
)

var (
	// ErrGradeNotFound is returned when no grade matches the id.
	ErrGradeNotFound = fmt.Errorf("grade %w", httpx.ErrNotFound)
	// ErrTraineeNotFound is returned when the account is missing or is not a
	// trainee.
	ErrTraineeNotFound = fmt.Errorf("trainee %w", httpx.ErrNotFound)
	// ErrAlreadyGraded is returned when the trainee already has a grade for
	// the session.
	ErrAlreadyGraded = fmt.Errorf("trainee already graded for this session: %w", httpx.ErrDuplicate)
)

// Grade is the result of one trainee in one session.
type Grade struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"session_id"`
	CourseName  string    `json:"course_name"`
	TraineeID   int64     `json:"trainee_id"`
	TraineeName string    `json:"trainee_name"`
	Value       int       `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows a listing. TraineeID takes precedence over SessionID.
type ListFilter struct {
	TraineeID *int64
	SessionID *int64
	Limit     int
	Offset    int
}
