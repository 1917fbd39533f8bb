package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mirilee/daybook/internal/auth"
	"github.com/mirilee/daybook/internal/handler"
	"github.com/mirilee/daybook/internal/middleware"
	"github.com/mirilee/daybook/internal/reminder"
	"github.com/mirilee/daybook/internal/sse"
	"github.com/mirilee/daybook/internal/store"
)

// Config carries the auth settings the server needs beyond its stores.
type Config struct {
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
	SuccessRedirect    string
}

type Server struct {
	db            *sql.DB
	registry      *sse.Registry
	dispatcher    *sse.Dispatcher
	prober        *sse.Prober
	scanner       *reminder.Scanner
	dailyReset    *reminder.DailyReset
	tokens        *auth.TokenProvider
	scheduleH     *handler.ScheduleHandler
	notificationH *handler.NotificationHandler
	authH         *handler.AuthHandler
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(db *sql.DB, rdb *redis.Client, cfg Config, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	scheduleStore := store.NewScheduleStore(db)

	registry := sse.NewRegistry(logger.With("component", "sse"))
	dispatcher := sse.NewDispatcher(registry, logger.With("component", "dispatch"))
	prober := sse.NewProber(registry, logger.With("component", "heartbeat"))
	scanner := reminder.NewScanner(scheduleStore, dispatcher, logger.With("component", "scanner"))
	dailyReset := reminder.NewDailyReset(scheduleStore, logger.With("component", "daily_reset"))

	tokens := auth.NewTokenProvider(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	google := auth.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
	refreshStore := auth.NewRefreshStore(rdb)

	return &Server{
		db:            db,
		registry:      registry,
		dispatcher:    dispatcher,
		prober:        prober,
		scanner:       scanner,
		dailyReset:    dailyReset,
		tokens:        tokens,
		scheduleH:     handler.NewScheduleHandler(scheduleStore, logger.With("component", "schedule")),
		notificationH: handler.NewNotificationHandler(registry, dispatcher, scheduleStore, logger.With("component", "notification")),
		authH:         handler.NewAuthHandler(userStore, tokens, google, refreshStore, cfg.SuccessRedirect, logger.With("component", "auth")),
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// Scanner returns the reminder scanner for lifecycle management.
func (s *Server) Scanner() *reminder.Scanner {
	return s.scanner
}

// Prober returns the heartbeat prober for lifecycle management.
func (s *Server) Prober() *sse.Prober {
	return s.prober
}

// DailyReset returns the daily reminder-reset job for lifecycle management.
func (s *Server) DailyReset() *reminder.DailyReset {
	return s.dailyReset
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /auth/google/login", s.authH.Login)
	outerMux.HandleFunc("GET /auth/google/callback", s.authH.Callback)
	outerMux.HandleFunc("POST /auth/refresh", s.rateLimitedHandler(s.authH.Refresh))

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens)
	outerMux.Handle("/api/", authMiddleware(protectedMux))
	outerMux.Handle("POST /auth/logout", authMiddleware(http.HandlerFunc(s.authH.Logout)))
	outerMux.Handle("GET /auth/me", authMiddleware(http.HandlerFunc(s.authH.Me)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Schedule API routes
	mux.HandleFunc("POST /api/schedules", s.scheduleH.Create)
	mux.HandleFunc("GET /api/schedules", s.scheduleH.List)
	mux.HandleFunc("GET /api/schedules/today", s.scheduleH.Today)
	mux.HandleFunc("GET /api/schedules/{id}", s.scheduleH.Get)
	mux.HandleFunc("PUT /api/schedules/{id}", s.scheduleH.Update)
	mux.HandleFunc("DELETE /api/schedules/{id}", s.scheduleH.Delete)
	mux.HandleFunc("PUT /api/schedules/{id}/status", s.scheduleH.UpdateStatus)
	mux.HandleFunc("PUT /api/schedules/{id}/completion", s.scheduleH.UpdateCompletionRate)
	mux.HandleFunc("PUT /api/schedules/{id}/reminder", s.scheduleH.UpdateReminderEnabled)

	// Notification routes. Subscribe also accepts ?token= for EventSource
	// clients that cannot set an Authorization header.
	mux.HandleFunc("GET /api/notifications/subscribe", s.notificationH.Subscribe)
	mux.HandleFunc("POST /api/notifications/test", s.notificationH.Test)
	mux.HandleFunc("POST /api/notifications/trigger/{id}", s.notificationH.Trigger)
}
