package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/db"
)

const nameConstraint = "uq_courses_name"

// Repository defines persistence for courses.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Course, error)
	GetByName(ctx context.Context, name string) (*Course, error)
	List(ctx context.Context, filter ListFilter) ([]Course, int, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, course Course) (int64, error)
	Update(ctx context.Context, course Course) error
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

const courseSelect = `SELECT c.id, c.name, c.category, c.instructor_id, u.name, c.created_at, c.updated_at
FROM courses c
LEFT JOIN users u ON u.id = c.instructor_id`

func scanCourse(row pgx.Row) (*Course, error) {
	var c Course
	if err := row.Scan(&c.ID, &c.Name, &c.Category, &c.InstructorID, &c.InstructorName, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Course, error) {
	return scanCourse(r.db.QueryRow(ctx, courseSelect+` WHERE c.id = $1`, id))
}

func (r *repository) GetByName(ctx context.Context, name string) (*Course, error) {
	return scanCourse(r.db.QueryRow(ctx, courseSelect+` WHERE LOWER(c.name) = LOWER($1)`, name))
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Course, int, error) {
	var conditions []string
	var args []any
	argPos := 1
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.category ILIKE $%d)", argPos, argPos))
		args = append(args, db.ContainsPattern(filter.Search))
		argPos++
	}
	if filter.InstructorID != nil {
		conditions = append(conditions, fmt.Sprintf("c.instructor_id = $%d", argPos))
		args = append(args, *filter.InstructorID)
		argPos++
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM courses c"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("%s%s ORDER BY c.name LIMIT $%d OFFSET $%d", courseSelect, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	courses := make([]Course, 0, filter.Limit)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, *c)
	}
	return courses, total, rows.Err()
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&total)
	return total, err
}

func (r *repository) Create(ctx context.Context, course Course) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO courses (name, category, instructor_id) VALUES ($1, $2, $3) RETURNING id`,
		course.Name, course.Category, course.InstructorID).Scan(&id)
	if db.IsUniqueViolation(err, nameConstraint) {
		return 0, ErrNameTaken
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, course Course) error {
	tag, err := r.db.Exec(ctx, `UPDATE courses SET name = $2, category = $3, instructor_id = $4, updated_at = NOW() WHERE id = $1`,
		course.ID, course.Name, course.Category, course.InstructorID)
	if db.IsUniqueViolation(err, nameConstraint) {
		return ErrNameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}
