package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/db"
)

// Repository reads audit records.
type Repository interface {
	List(ctx context.Context, filter Filters) ([]Entry, int, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

// whereClause renders filter as a WHERE clause and returns the next free
// argument position.
func whereClause(filter Filters) (string, []any, int) {
	conditions := []string{"a.occurred_at >= $1", "a.occurred_at < $2"}
	args := []any{filter.From, filter.To}
	argPos := 3

	if filter.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("a.actor_id = $%d", argPos))
		args = append(args, *filter.ActorID)
		argPos++
	}
	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", argPos))
		args = append(args, filter.Action)
		argPos++
	}
	if filter.Entity != "" {
		conditions = append(conditions, fmt.Sprintf("a.entity = $%d", argPos))
		args = append(args, filter.Entity)
		argPos++
	}
	if filter.EntityID != "" {
		conditions = append(conditions, fmt.Sprintf("a.entity_id = $%d", argPos))
		args = append(args, filter.EntityID)
		argPos++
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, argPos
}

func (r *repository) List(ctx context.Context, filter Filters) ([]Entry, int, error) {
	where, args, argPos := whereClause(filter)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs a"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT a.id, a.actor_id, COALESCE(u.name, ''), a.action, a.entity, a.entity_id, a.meta, a.occurred_at
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id%s
ORDER BY a.occurred_at DESC, a.id DESC LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, filter.Limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &e.Action, &e.Entity, &e.EntityID, &e.Meta, &e.OccurredAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
