// Package model defines domain entities for the application.
package model

import "time"

// User is the owner account whose gym sessions are tracked.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// AuthContext holds the authenticated principal for a request.
// This is injected into the request context by the session middleware.
type AuthContext struct {
	UserID    string
	Email     string
	TokenHash string
}

// LoginSession is a signed-in browser session stored in Redis.
type LoginSession struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
