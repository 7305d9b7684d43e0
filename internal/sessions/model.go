// Package sessions manages scheduled runs of catalogue courses.
package sessions

import (
	"fmt"
	"time"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/httpx"
)

// DateLayout is the wire format of session dates.
const DateLayout = "2006-01-02"

// ErrSessionNotFound is returned when no session matches the id.
var ErrSessionNotFound = fmt.Errorf("session %w", httpx.ErrNotFound)

// Session is one scheduled run of a course. Dates carry no time of day.
type Session struct {
	ID         int64     `json:"id"`
	CourseID   int64     `json:"course_id"`
	CourseName string    `json:"course_name"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListFilter narrows a listing.
type ListFilter struct {
	CourseID *int64
	Limit    int
	Offset   int
}
