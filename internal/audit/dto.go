package audit

import "github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/shared"

// TimelineRequest carries the raw query of a timeline or export call.
type TimelineRequest struct {
	From     string
	To       string
	ActorID  *int64
	Action   string
	Entity   string
	EntityID string
	Page     shared.PageRequest
}

// TimelineResponse is a page of audit entries, newest first.
type TimelineResponse struct {
	Entries    []Entry           `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}
