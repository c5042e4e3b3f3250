package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		want    command
		wantErr bool
	}{
		{nil, commandServe, false},
		{[]string{"serve"}, commandServe, false},
		{[]string{"migrate"}, commandMigrate, false},
		{[]string{"migrate", "--extra"}, commandMigrate, false},
		{[]string{"worker"}, "", true},
	}

	for _, tt := range tests {
		got, err := parseCommand(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCommand(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCommand(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"password dropped", "postgres://gym:s3cret@db:5432/gymwatch?sslmode=disable", "postgres://gym@db:5432/gymwatch?sslmode=disable"},
		{"password only", "redis://:s3cret@cache:6379/0", "redis://redacted@cache:6379/0"},
		{"no credentials", "redis://cache:6379/0", "redis://cache:6379/0"},
		{"unparseable", "postgres://gym:s3cret@db:5432/%zz", "[redacted]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := redactURL(tt.in); got != tt.want {
				t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	dsn := "postgres://gym:s3cret@db:5432/gymwatch"
	err := errors.New("failed to connect to `" + dsn + "`: password=s3cret rejected")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") {
		t.Errorf("sanitizeError leaked the password: %q", got)
	}
	if !strings.Contains(got, "postgres://gym@db:5432/gymwatch") {
		t.Errorf("sanitizeError dropped the redacted URL: %q", got)
	}
	if sanitizeError(nil, dsn) != "" {
		t.Error("sanitizeError(nil) should be empty")
	}
}
