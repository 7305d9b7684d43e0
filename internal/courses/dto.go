package courses

import "github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"

// CourseRequest is the payload for creating or replacing a course.
type CourseRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=50"`
	Category     string `json:"category" validate:"required,max=100"`
	InstructorID *int64 `json:"instructor_id,omitempty" validate:"omitempty,gt=0"`
}

// ListRequest carries listing filters.
type ListRequest struct {
	Search       string
	InstructorID *int64
	Page         shared.PageRequest
}

// ListResponse is a page of courses.
type ListResponse struct {
	Courses    []Course          `json:"courses"`
	Pagination shared.Pagination `json:"pagination"`
}
