package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/jackc/pgx/v5"
)

// ErrSessionNotFound is returned when no session matches a lookup.
var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `id, user_id, start_time, end_time, created_at, updated_at`

// CreateSession inserts a new gym session. The caller validates the interval.
func (r *Repository) CreateSession(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO gym_sessions (id, user_id, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.StartTime,
		s.EndTime,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// DeleteSession removes a session by id. Deleting a missing id is not an error.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM gym_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions returns every session, newest start first.
func (r *Repository) ListSessions(ctx context.Context) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM gym_sessions ORDER BY start_time DESC`
	return r.querySessions(ctx, query)
}

// ListActiveSessions returns sessions whose closed interval contains at.
func (r *Repository) ListActiveSessions(ctx context.Context, at time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM gym_sessions
		WHERE start_time <= $1 AND end_time >= $1
		ORDER BY start_time DESC
	`
	return r.querySessions(ctx, query, at)
}

// GetCurrentSession returns the active session with the latest start.
func (r *Repository) GetCurrentSession(ctx context.Context, at time.Time) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM gym_sessions
		WHERE start_time <= $1 AND end_time >= $1
		ORDER BY start_time DESC
		LIMIT 1
	`

	s, err := scanSession(r.pool.QueryRow(ctx, query, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}
	return s, nil
}

// ListSessionsStartingBetween returns sessions with after < start <= until,
// earliest first.
func (r *Repository) ListSessionsStartingBetween(ctx context.Context, after, until time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM gym_sessions
		WHERE start_time > $1 AND start_time <= $2
		ORDER BY start_time ASC
	`
	return r.querySessions(ctx, query, after, until)
}

func (r *Repository) querySessions(ctx context.Context, query string, args ...any) ([]*model.Session, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StartTime,
		&s.EndTime,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
