package grades

import "github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"

// GradeRequest is the payload for creating or replacing a grade.
type GradeRequest struct {
	SessionID int64 `json:"session_id" validate:"required,gt=0"`
	TraineeID int64 `json:"trainee_id" validate:"required,gt=0"`
	Value     *int  `json:"value" validate:"required,gte=0,lte=100"`
}

// ListRequest carries listing filters.
type ListRequest struct {
	TraineeID *int64
	SessionID *int64
	Page      shared.PageRequest
}

// ListResponse is a page of grades.
type ListResponse struct {
	Grades     []Grade           `json:"grades"`
	Pagination shared.Pagination `json:"pagination"`
}
