package sessions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/db"
)

// Repository defines persistence for training sessions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Session, error)
	List(ctx context.Context, filter ListFilter) ([]Session, int, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, session Session) (int64, error)
	Update(ctx context.Context, session Session) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const sessionSelect = `SELECT s.id, s.course_id, c.name, s.start_date, s.end_date, s.created_at, s.updated_at
FROM training_sessions s
JOIN courses c ON c.id = s.course_id`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	if err := row.Scan(&s.ID, &s.CourseID, &s.CourseName, &s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Session, error) {
	return scanSession(r.db.QueryRow(ctx, sessionSelect+` WHERE s.id = $1`, id))
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Session, int, error) {
	where := ""
	var args []any
	if filter.CourseID != nil {
		where = " WHERE s.course_id = $1"
		args = append(args, *filter.CourseID)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM training_sessions s"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := sessionSelect + where + " ORDER BY s.start_date DESC, s.id DESC LIMIT $2 OFFSET $3"
	if filter.CourseID == nil {
		query = sessionSelect + " ORDER BY s.start_date DESC, s.id DESC LIMIT $1 OFFSET $2"
	}
	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sessions := make([]Session, 0, filter.Limit)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, total, rows.Err()
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM training_sessions`).Scan(&total)
	return total, err
}

func (r *repository) Create(ctx context.Context, session Session) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO training_sessions (course_id, start_date, end_date) VALUES ($1, $2, $3) RETURNING id`,
		session.CourseID, session.StartDate, session.EndDate).Scan(&id)
	if db.IsForeignKeyViolation(err) {
		return 0, errCourseMissing
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, session Session) error {
	tag, err := r.db.Exec(ctx, `UPDATE training_sessions SET course_id = $2, start_date = $3, end_date = $4, updated_at = NOW() WHERE id = $1`,
		session.ID, session.CourseID, session.StartDate, session.EndDate)
	if db.IsForeignKeyViolation(err) {
		return errCourseMissing
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM training_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
