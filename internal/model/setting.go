package model

import "time"

// Setting keys.
const (
	SettingDangerMode = "danger_mode"
)

// Setting is a single key/value row. At most one row exists per key.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bool interprets the stored value as a boolean flag.
// Anything other than "true" is false.
func (s *Setting) Bool() bool {
	return s != nil && s.Value == "true"
}

// FormatBool is the stored representation of a boolean setting.
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
