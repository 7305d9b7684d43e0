package grades

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/db"
)

const pairConstraint = "uq_grades_session_trainee"

// Repository defines persistence for grades.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Grade, error)
	GetByPair(ctx context.Context, sessionID, traineeID int64) (*Grade, error)
	List(ctx context.Context, filter ListFilter) ([]Grade, int, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, grade Grade) (int64, error)
	Update(ctx context.Context, grade Grade) error
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

const gradeSelect = `SELECT g.id, g.session_id, c.name, g.trainee_id, u.name, g.value, g.created_at, g.updated_at
FROM grades g
JOIN training_sessions s ON s.id = g.session_id
JOIN courses c ON c.id = s.course_id
JOIN users u ON u.id = g.trainee_id`

func scanGrade(row pgx.Row) (*Grade, error) {
	var g Grade
	var value int16
	if err := row.Scan(&g.ID, &g.SessionID, &g.CourseName, &g.TraineeID, &g.TraineeName, &value, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGradeNotFound
		}
		return nil, err
	}
	g.Value = int(value)
	return &g, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Grade, error) {
	return scanGrade(r.db.QueryRow(ctx, gradeSelect+` WHERE g.id = $1`, id))
}

func (r *repository) GetByPair(ctx context.Context, sessionID, traineeID int64) (*Grade, error) {
	return scanGrade(r.db.QueryRow(ctx, gradeSelect+` WHERE g.session_id = $1 AND g.trainee_id = $2`, sessionID, traineeID))
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Grade, int, error) {
	where := ""
	var args []any
	switch {
	case filter.TraineeID != nil:
		where = " WHERE g.trainee_id = $1"
		args = append(args, *filter.TraineeID)
	case filter.SessionID != nil:
		where = " WHERE g.session_id = $1"
		args = append(args, *filter.SessionID)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM grades g"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitPos := "$1 OFFSET $2"
	if len(args) > 0 {
		limitPos = "$2 OFFSET $3"
	}
	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, gradeSelect+where+" ORDER BY g.created_at DESC, g.id DESC LIMIT "+limitPos, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	grades := make([]Grade, 0, filter.Limit)
	for rows.Next() {
		g, err := scanGrade(rows)
		if err != nil {
			return nil, 0, err
		}
		grades = append(grades, *g)
	}
	return grades, total, rows.Err()
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM grades`).Scan(&total)
	return total, err
}

func (r *repository) Create(ctx context.Context, grade Grade) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO grades (session_id, trainee_id, value) VALUES ($1, $2, $3) RETURNING id`,
		grade.SessionID, grade.TraineeID, int16(grade.Value)).Scan(&id)
	if db.IsUniqueViolation(err, pairConstraint) {
		return 0, ErrAlreadyGraded
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, grade Grade) error {
	tag, err := r.db.Exec(ctx, `UPDATE grades SET session_id = $2, trainee_id = $3, value = $4, updated_at = NOW() WHERE id = $1`,
		grade.ID, grade.SessionID, grade.TraineeID, int16(grade.Value))
	if db.IsUniqueViolation(err, pairConstraint) {
		return ErrAlreadyGraded
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGradeNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGradeNotFound
	}
	return nil
}
