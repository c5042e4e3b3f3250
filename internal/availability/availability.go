// Package availability derives presence and schedule facts from the current
// instant and a set of gym sessions. Everything here is pure: no I/O, no
// clock reads. Callers pass "now" explicitly.
package availability

import (
	"errors"
	"math"
	"slices"
	"time"

	"github.com/gymwatch/gymwatch/internal/model"
)

// Validation errors for new sessions.
var (
	ErrMissingTimes    = errors.New("start and end times are required")
	ErrInvalidInterval = errors.New("end time must be after start time")
)

// IsPresent reports whether now falls inside at least one session.
// Overlapping sessions are allowed; any one match is enough.
func IsPresent(now time.Time, sessions []*model.Session) bool {
	for _, s := range sessions {
		if s != nil && s.Contains(now) {
			return true
		}
	}
	return false
}

// CurrentSession returns the containing session with the latest start,
// or nil when nothing contains now.
//
// When several containing sessions share the same start the first one in
// input order is returned. That ordering comes from the store and is not
// guaranteed, so callers must not rely on which of the ties wins.
func CurrentSession(now time.Time, sessions []*model.Session) *model.Session {
	var current *model.Session
	for _, s := range sessions {
		if s == nil || !s.Contains(now) {
			continue
		}
		if current == nil || s.StartTime.After(current.StartTime) {
			current = s
		}
	}
	return current
}

// AllSessions returns a copy of sessions ordered newest first by start time.
func AllSessions(sessions []*model.Session) []*model.Session {
	out := compact(sessions)
	slices.SortStableFunc(out, func(a, b *model.Session) int {
		return b.StartTime.Compare(a.StartTime)
	})
	return out
}

// FutureSessionsToday returns sessions that start after now but no later than
// the end of now's calendar day, earliest first.
func FutureSessionsToday(now time.Time, sessions []*model.Session) []*model.Session {
	eod := EndOfDay(now)

	out := make([]*model.Session, 0)
	for _, s := range sessions {
		if s == nil {
			continue
		}
		if s.StartTime.After(now) && !s.StartTime.After(eod) {
			out = append(out, s)
		}
	}

	slices.SortStableFunc(out, func(a, b *model.Session) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out
}

// EndOfDay returns 23:59:59.999 on t's calendar day, in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// RemainingMinutes returns the minutes left in s at now, rounded to the
// nearest minute. It can be negative if s has already ended.
func RemainingMinutes(now time.Time, s *model.Session) int {
	if s == nil {
		return 0
	}
	return int(math.Round(s.EndTime.Sub(now).Minutes()))
}

// ValidateInterval checks a new session's bounds before it reaches the store.
func ValidateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrMissingTimes
	}
	if !start.Before(end) {
		return ErrInvalidInterval
	}
	return nil
}

// compact copies sessions, dropping nil entries.
func compact(sessions []*model.Session) []*model.Session {
	out := make([]*model.Session, 0, len(sessions))
	for _, s := range sessions {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
