// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gymwatch/gymwatch/internal/database"
	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 460460

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema runs every embedded down migration newest first, then every
// up migration oldest first, leaving empty tables.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := database.Migrations()

	downs, err := fs.Glob(migrations, "*.down.sql")
	if err != nil {
		return fmt.Errorf("list down migrations: %w", err)
	}
	ups, err := fs.Glob(migrations, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list up migrations: %w", err)
	}
	slices.Sort(ups)
	slices.Sort(downs)
	slices.Reverse(downs)

	for _, name := range append(downs, ups...) {
		if err := ExecMigration(ctx, pool, name); err != nil {
			return err
		}
	}
	return nil
}

// ExecMigration applies a single embedded migration file by name.
func ExecMigration(ctx context.Context, pool *pgxpool.Pool, name string) error {
	sql, err := fs.ReadFile(database.Migrations(), name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	if strings.TrimSpace(string(sql)) == "" {
		return nil
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates an owner account with a placeholder hash.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestSession creates a session owned by userID spanning [start, end].
func NewTestSession(t testing.TB, userID string, start, end time.Time) *model.Session {
	t.Helper()
	now := time.Now().UTC()
	return &model.Session{
		ID:        ulid.Make().String(),
		UserID:    userID,
		StartTime: start,
		EndTime:   end,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}
