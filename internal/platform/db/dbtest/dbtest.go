//go:build integration

// Package dbtest starts a disposable PostgreSQL for repository tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Ahmedfahmy8308/Training-Management-System-ITI-Project/internal/platform/db"
)

const image = "postgres:16-alpine"

// NewPool runs a PostgreSQL container, applies the schema and returns a pool.
// The container and pool are released when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, image,
		postgres.WithDatabase("trainhub"),
		postgres.WithUsername("trainhub"),
		postgres.WithPassword("trainhub"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dsn: %v", err)
	}
	pool, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	// A second run must be a no-op.
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("reapply schema: %v", err)
	}
	return pool
}

// InsertUser adds an account row and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, name, email string, role int16) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, 'x', $3) RETURNING id`,
		name, email, role).Scan(&id)
	if err != nil {
		t.Fatalf("insert user %s: %v", email, err)
	}
	return id
}
