// Package courses manages the training catalogue.
package courses

import (
	"fmt"
	"time"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
)

var (
	// ErrCourseNotFound is returned when no course matches the id.
	ErrCourseNotFound = fmt.Errorf("course %w", httpx.ErrNotFound)
	// ErrNameTaken is returned when another course already uses the name.
	ErrNameTaken = fmt.Errorf("course name already exists: %w", httpx.ErrDuplicate)
)

// Course is a catalogue entry. InstructorID is nil when unassigned.
type Course struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	InstructorID   *int64    `json:"instructor_id"`
	InstructorName *string   `json:"instructor_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListFilter narrows a listing.
type ListFilter struct {
	Search       string
	InstructorID *int64
	Limit        int
	Offset       int
}
