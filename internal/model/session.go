package model

import "time"

// Session represents a scheduled or past gym attendance interval.
// Sessions are immutable once created; the only mutation is deletion.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether t lies within [StartTime, EndTime], both bounds inclusive.
func (s *Session) Contains(t time.Time) bool {
	return !t.Before(s.StartTime) && !t.After(s.EndTime)
}

// Duration returns the planned length of the session.
func (s *Session) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}
