package sessions

import "github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"

// SessionRequest is the payload for creating or replacing a session.
type SessionRequest struct {
	CourseID  int64  `json:"course_id" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ListRequest carries listing filters.
type ListRequest struct {
	CourseID *int64
	Page     shared.PageRequest
}

// ListResponse is a page of sessions.
type ListResponse struct {
	Sessions   []Session         `json:"sessions"`
	Pagination shared.Pagination `json:"pagination"`
}
