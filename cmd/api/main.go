// Package main is the entrypoint for the Gymwatch server.
//
// Usage:
//
//	api [serve]    run the HTTP server (default)
//	api migrate    apply pending schema migrations and exit
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gymwatch/gymwatch/internal/cache"
	"github.com/gymwatch/gymwatch/internal/config"
	"github.com/gymwatch/gymwatch/internal/database"
	"github.com/gymwatch/gymwatch/internal/handler"
	"github.com/gymwatch/gymwatch/internal/metrics"
	"github.com/gymwatch/gymwatch/internal/middleware"
	"github.com/gymwatch/gymwatch/internal/poller"
	"github.com/gymwatch/gymwatch/internal/repository"
	"github.com/gymwatch/gymwatch/internal/server"
	"github.com/gymwatch/gymwatch/internal/service"
	"github.com/gymwatch/gymwatch/internal/web"
)

type command string

const (
	commandServe   command = "serve"
	commandMigrate command = "migrate"
)

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return commandServe, nil
	}
	switch command(args[0]) {
	case commandServe:
		return commandServe, nil
	case commandMigrate:
		return commandMigrate, nil
	default:
		return "", fmt.Errorf("unknown command %q", args[0])
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd, err := parseCommand(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg)

	switch cmd {
	case commandMigrate:
		return runMigrate(cfg, logger)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, logger)
	}
}

func runMigrate(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations",
		slog.String("database_url", redactURL(cfg.DatabaseURL)),
	)
	if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		return errors.New(sanitizeError(err, cfg.DatabaseURL))
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.AutoMigrate {
		if err := runMigrate(cfg, logger); err != nil {
			return err
		}
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errors.New("database unavailable")
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errors.New("redis unavailable")
	}
	logger.Info("connected to Redis")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheus(reg)

	// Services
	schedule := service.NewScheduleService(repo, cacheClient, cfg.DangerCacheTTL, recorder, logger)
	authService := service.NewAuthService(repo, cacheClient, cfg.SessionTTL, recorder, logger)

	statusPoller := poller.New(schedule, cfg.PollInterval, logger)

	renderer, err := web.NewRenderer()
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		return fmt.Errorf("failed to load templates: %w", err)
	}

	var limiter middleware.LoginLimiter
	if cfg.RateLimitLoginEnabled {
		limiter = cacheClient
	}

	r := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Schedule:           schedule,
		Auth:               authService,
		Poller:             statusPoller,
		Renderer:           renderer,
		Metrics:            recorder,
		DB:                 repo,
		Cache:              cacheClient,
		MetricsHandler:     metrics.Handler(reg),
		Limiter:            limiter,
		RateLimitPerMinute: cfg.RateLimitLoginPerMinute,
		RateLimitBurst:     cfg.RateLimitLoginBurst,
		Cookie: handler.SessionCookie{
			Name:   cfg.SessionCookieName,
			Secure: cfg.SecureCookies(),
			TTL:    cfg.SessionTTL,
		},
		IsDevelopment: cfg.IsDevelopment(),
		CORSOrigins:   cfg.GetCORSAllowedOrigins(),
		MaxBodySize:   cfg.MaxRequestBodySize,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("database", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("poller", func(context.Context) error {
		statusPoller.Stop()
		return nil
	})

	statusPoller.Start(ctx)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"poll_interval", cfg.PollInterval,
	)

	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL drops the password from a connection URL, keeping the user name.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError replaces any of secrets in err's message with its redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
