// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gymwatch/gymwatch/internal/availability"
	"github.com/gymwatch/gymwatch/internal/cache"
	"github.com/gymwatch/gymwatch/internal/metrics"
	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/gymwatch/gymwatch/internal/repository"
)

// Service errors.
var (
	ErrMissingTimes    = availability.ErrMissingTimes
	ErrInvalidInterval = availability.ErrInvalidInterval
	ErrNotAuthorized   = errors.New("you must be logged in to add sessions")
	ErrWriteFailed     = errors.New("could not save changes")
)

// SessionStore is the persistence the schedule needs. *repository.Repository
// satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, s *model.Session) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]*model.Session, error)
	ListActiveSessions(ctx context.Context, at time.Time) ([]*model.Session, error)
	GetCurrentSession(ctx context.Context, at time.Time) (*model.Session, error)
	ListSessionsStartingBetween(ctx context.Context, after, until time.Time) ([]*model.Session, error)
	GetSetting(ctx context.Context, key string) (*model.Setting, error)
	UpsertSetting(ctx context.Context, key, value string) error
}

// FlagCache caches the danger flag. *cache.Cache satisfies it.
type FlagCache interface {
	GetDangerFlag(ctx context.Context) (bool, error)
	SetDangerFlag(ctx context.Context, on bool, ttl time.Duration) error
	InvalidateDangerFlag(ctx context.Context) error
}

// AddSessionInput defines input for adding a session.
type AddSessionInput struct {
	Start   time.Time
	End     time.Time
	OwnerID string
}

// Status is everything the public page shows at one instant.
type Status struct {
	Present          bool
	Current          *model.Session
	RemainingMinutes *int
	Upcoming         []*model.Session
	Danger           bool
	CheckedAt        time.Time
}

// ScheduleService answers presence questions and edits the schedule.
//
// Reads never fail: a store error is logged and the read degrades to its
// empty answer. Writes validate first and report store errors as
// ErrWriteFailed.
type ScheduleService struct {
	store     SessionStore
	cache     FlagCache
	dangerTTL time.Duration
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewScheduleService creates a new ScheduleService. flags may be nil to
// disable danger flag caching.
func NewScheduleService(store SessionStore, flags FlagCache, dangerTTL time.Duration, recorder metrics.Recorder, logger *slog.Logger) *ScheduleService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleService{
		store:     store,
		cache:     flags,
		dangerTTL: dangerTTL,
		metrics:   recorder,
		logger:    logger.With("component", "schedule"),
	}
}

// IsPresent reports whether now falls inside any stored session.
func (s *ScheduleService) IsPresent(ctx context.Context, now time.Time) bool {
	active, err := s.store.ListActiveSessions(ctx, now)
	if err != nil {
		s.readFailed("list_active_sessions", err)
		return false
	}
	return availability.IsPresent(now, active)
}

// CurrentSession returns the active session with the latest start, or nil.
func (s *ScheduleService) CurrentSession(ctx context.Context, now time.Time) *model.Session {
	current, err := s.store.GetCurrentSession(ctx, now)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			s.readFailed("get_current_session", err)
		}
		return nil
	}
	return availability.CurrentSession(now, []*model.Session{current})
}

// AllSessions returns every session, newest start first.
func (s *ScheduleService) AllSessions(ctx context.Context) []*model.Session {
	sessions, err := s.store.ListSessions(ctx)
	if err != nil {
		s.readFailed("list_sessions", err)
		return []*model.Session{}
	}
	return availability.AllSessions(sessions)
}

// FutureSessionsToday returns sessions starting after now and before the
// end of today, earliest first.
func (s *ScheduleService) FutureSessionsToday(ctx context.Context, now time.Time) []*model.Session {
	sessions, err := s.store.ListSessionsStartingBetween(ctx, now, availability.EndOfDay(now))
	if err != nil {
		s.readFailed("list_future_sessions", err)
		return []*model.Session{}
	}
	return availability.FutureSessionsToday(now, sessions)
}

// AddSession validates and stores a new session.
func (s *ScheduleService) AddSession(ctx context.Context, input AddSessionInput) (*model.Session, error) {
	if input.OwnerID == "" {
		return nil, ErrNotAuthorized
	}
	if err := availability.ValidateInterval(input.Start, input.End); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &model.Session{
		ID:        ulid.Make().String(),
		UserID:    input.OwnerID,
		StartTime: input.Start,
		EndTime:   input.End,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		s.writeFailed("create_session", err)
		return nil, ErrWriteFailed
	}

	s.metrics.IncSessionCreated()
	s.logger.Info("session added",
		"session_id", session.ID,
		"start", session.StartTime,
		"end", session.EndTime,
	)
	return session, nil
}

// DeleteSession removes a session. Unknown ids succeed.
func (s *ScheduleService) DeleteSession(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		s.writeFailed("delete_session", err)
		return ErrWriteFailed
	}

	s.metrics.IncSessionDeleted()
	s.logger.Info("session deleted", "session_id", id)
	return nil
}

// GetDangerFlag returns the danger flag, false when unset or unreadable.
func (s *ScheduleService) GetDangerFlag(ctx context.Context) bool {
	if s.cache != nil {
		on, err := s.cache.GetDangerFlag(ctx)
		if err == nil {
			s.metrics.IncDangerCacheHit()
			return on
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("danger flag cache read failed", "error", err)
		}
		s.metrics.IncDangerCacheMiss()
	}

	setting, err := s.store.GetSetting(ctx, model.SettingDangerMode)
	if err != nil && !errors.Is(err, repository.ErrSettingNotFound) {
		s.readFailed("get_setting", err)
		return false
	}
	on := setting.Bool()

	if s.cache != nil {
		if err := s.cache.SetDangerFlag(ctx, on, s.dangerTTL); err != nil {
			s.logger.Warn("danger flag cache write failed", "error", err)
		}
	}
	return on
}

// SetDangerFlag persists the danger flag and caches the new value, so a read
// that raced the write cannot leave the old value cached.
func (s *ScheduleService) SetDangerFlag(ctx context.Context, on bool) error {
	if err := s.store.UpsertSetting(ctx, model.SettingDangerMode, model.FormatBool(on)); err != nil {
		s.writeFailed("upsert_setting", err)
		return ErrWriteFailed
	}

	if s.cache != nil {
		if err := s.cache.SetDangerFlag(ctx, on, s.dangerTTL); err != nil {
			s.logger.Warn("danger flag cache write failed", "error", err)
			if err := s.cache.InvalidateDangerFlag(ctx); err != nil {
				s.logger.Warn("danger flag cache invalidation failed", "error", err)
			}
		}
	}

	s.metrics.IncDangerFlagSet(on)
	s.logger.Info("danger flag updated", "danger", on)
	return nil
}

// Status computes the public status at now. The four reads run
// concurrently and each degrades on its own.
func (s *ScheduleService) Status(ctx context.Context, now time.Time) *Status {
	start := time.Now()
	st := &Status{CheckedAt: now}

	var g errgroup.Group
	g.Go(func() error {
		st.Present = s.IsPresent(ctx, now)
		return nil
	})
	g.Go(func() error {
		st.Current = s.CurrentSession(ctx, now)
		return nil
	})
	g.Go(func() error {
		st.Upcoming = s.FutureSessionsToday(ctx, now)
		return nil
	})
	g.Go(func() error {
		st.Danger = s.GetDangerFlag(ctx)
		return nil
	})
	_ = g.Wait()

	if st.Current != nil {
		remaining := availability.RemainingMinutes(now, st.Current)
		st.RemainingMinutes = &remaining
	}

	s.metrics.ObserveStatusRefresh(time.Since(start))
	s.metrics.SetPresent(st.Present)
	return st
}

func (s *ScheduleService) readFailed(op string, err error) {
	s.metrics.IncStoreError(op)
	s.logger.Error("store read failed", "op", op, "error", err)
}

func (s *ScheduleService) writeFailed(op string, err error) {
	s.metrics.IncStoreError(op)
	s.logger.Error("store write failed", "op", op, "error", err)
}
