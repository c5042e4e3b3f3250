// Command bootstrap-owner creates the owner account, or resets its password.
//
//	OWNER_PASSWORD=... bootstrap-owner -email me@example.com
//	OWNER_PASSWORD=... bootstrap-owner -email me@example.com -reset-password
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gymwatch/gymwatch/internal/auth"
	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/gymwatch/gymwatch/internal/repository"
	"github.com/gymwatch/gymwatch/internal/service"
)

type options struct {
	email         string
	password      string
	resetPassword bool
	format        string
}

type output struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Created bool   `json:"created"`
}

// ownerStore is the slice of the repository this command needs.
type ownerStore interface {
	service.UserStore
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", os.Getenv("OWNER_EMAIL"), "Owner email")
		password    = flag.String("password", os.Getenv("OWNER_PASSWORD"), "Owner password (prefer OWNER_PASSWORD)")
		reset       = flag.Bool("reset-password", false, "Replace the password of an existing owner")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	opts := options{email: *email, password: *password, resetPassword: *reset, format: *format}
	if err := run(ctx, repo, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		repo.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, store ownerStore, opts options, w io.Writer) error {
	format := strings.ToLower(opts.format)
	if format != "plain" && format != "json" {
		return errors.New("invalid format; use plain or json")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewAuthService(store, nil, 0, nil, logger)

	out := output{Created: true}
	user, err := svc.CreateOwner(ctx, opts.email, opts.password)
	switch {
	case errors.Is(err, service.ErrEmailTaken) && opts.resetPassword:
		user, err = resetPassword(ctx, store, opts.email, opts.password)
		if err != nil {
			return err
		}
		out.Created = false
	case errors.Is(err, service.ErrEmailTaken):
		return fmt.Errorf("owner %s already exists; pass -reset-password to replace the password", opts.email)
	case err != nil:
		return fmt.Errorf("create owner: %w", err)
	}

	out.UserID = user.ID
	out.Email = user.Email

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	verb := "created"
	if !out.Created {
		verb = "updated"
	}
	_, err = fmt.Fprintf(w, "%s owner %s (%s)\n", verb, out.Email, out.UserID)
	return err
}

func resetPassword(ctx context.Context, store ownerStore, email, password string) (*model.User, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	user, err := store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("find owner: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	return user, nil
}
