package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/authz"
	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/db"
)

const emailConstraint = "uq_users_email"

// Repository defines persistence for accounts.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	Count(ctx context.Context, roles []authz.Role) (int, error)
	Create(ctx context.Context, user User) (*User, error)
	Update(ctx context.Context, user User) error
	SetActive(ctx context.Context, id int64, active bool, at time.Time) error
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

const userColumns = `id, name, email, role, is_active, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role int16
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.IsActive, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Role = authz.Role(role)
	return &u, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func roleArgs(roles []authz.Role) []int16 {
	out := make([]int16, 0, len(roles))
	for _, role := range roles {
		out = append(out, int16(role))
	}
	return out
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	conditions := []string{"role = ANY($1)"}
	args := []any{roleArgs(filter.Roles)}
	argPos := 2

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argPos, argPos))
		args = append(args, db.ContainsPattern(filter.Search))
		argPos++
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filter.Active)
		argPos++
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY name, id LIMIT $%d OFFSET $%d`, userColumns, where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]User, 0, filter.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *repository) Count(ctx context.Context, roles []authz.Role) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = ANY($1)`, roleArgs(roles)).Scan(&total)
	return total, err
}

func (r *repository) Create(ctx context.Context, user User) (*User, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+userColumns, user.Name, user.Email, user.PasswordHash, int16(user.Role), user.IsActive)
	created, err := scanUser(row)
	if db.IsUniqueViolation(err, emailConstraint) {
		return nil, ErrEmailTaken
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, user User) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET name = $2, email = $3, role = $4, updated_at = $5 WHERE id = $1`,
		user.ID, user.Name, user.Email, int16(user.Role), user.UpdatedAt)
	if db.IsUniqueViolation(err, emailConstraint) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
