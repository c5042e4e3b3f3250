// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"math"
	"time"

	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/gymwatch/gymwatch/internal/service"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateSessionRequest represents the request body for adding a session.
type CreateSessionRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// SessionResponse represents a gym session in API responses.
type SessionResponse struct {
	ID              string    `json:"id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

// SessionListResponse wraps a list of sessions, newest first.
type SessionListResponse struct {
	Data []SessionResponse `json:"data"`
}

// StatusResponse is the public availability status.
type StatusResponse struct {
	Present          bool              `json:"present"`
	CurrentSession   *SessionResponse  `json:"current_session"`
	RemainingMinutes *int              `json:"remaining_minutes"`
	Upcoming         []SessionResponse `json:"upcoming"`
	Danger           bool              `json:"danger"`
	CheckedAt        time.Time         `json:"checked_at"`
}

// DangerRequest represents the request body for setting the danger flag.
type DangerRequest struct {
	Danger *bool `json:"danger"`
}

// DangerResponse reports the danger flag.
type DangerResponse struct {
	Danger bool `json:"danger"`
}

// LoginRequest represents the request body for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful sign-in. The token is shown
// once and works as a bearer token or as the session cookie value.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse identifies the signed-in owner.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ToSessionResponse converts a Session model to SessionResponse DTO.
func ToSessionResponse(s *model.Session) SessionResponse {
	return SessionResponse{
		ID:              s.ID,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationMinutes: int(math.Round(s.Duration().Minutes())),
		CreatedAt:       s.CreatedAt,
	}
}

// ToSessionListResponse converts sessions, keeping their order.
func ToSessionListResponse(sessions []*model.Session) SessionListResponse {
	data := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		data = append(data, ToSessionResponse(s))
	}
	return SessionListResponse{Data: data}
}

// ToStatusResponse converts a computed status.
func ToStatusResponse(st *service.Status) StatusResponse {
	resp := StatusResponse{
		Present:          st.Present,
		RemainingMinutes: st.RemainingMinutes,
		Upcoming:         ToSessionListResponse(st.Upcoming).Data,
		Danger:           st.Danger,
		CheckedAt:        st.CheckedAt,
	}
	if st.Current != nil {
		current := ToSessionResponse(st.Current)
		resp.CurrentSession = &current
	}
	return resp
}
