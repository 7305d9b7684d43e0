// Package audit exposes the audit trail written by shared.AuditLogger.
package audit

import "time"

// DateLayout is the format of the from and to filters.
const DateLayout = "2006-01-02"

const (
	defaultRange = 30 * 24 * time.Hour
	maxRange     = 366 * 24 * time.Hour
	exportLimit  = 5000
)

// Entry is one audit record joined with the actor name.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    *int64         `json:"actor_id"`
	ActorName  string         `json:"actor_name"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Filters narrows the timeline. From is inclusive and To exclusive.
type Filters struct {
	From     time.Time
	To       time.Time
	ActorID  *int64
	Action   string
	Entity   string
	EntityID string
	Limit    int
	Offset   int
}
