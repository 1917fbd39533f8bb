package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/mirilee/daybook/internal/database"
	"github.com/mirilee/daybook/internal/logging"
	"github.com/mirilee/daybook/internal/server"
)

// Config is populated from DAYBOOK_-prefixed environment variables.
type Config struct {
	Port      string `default:"8080"`
	DBPath    string `split_words:"true" default:"daybook.db"`
	LogLevel  string `split_words:"true" default:"info"`
	LogFormat string `split_words:"true" default:"text"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `split_words:"true" default:"1h"`
	RefreshTokenTTL time.Duration `split_words:"true" default:"336h"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectURL   string `envconfig:"OAUTH_REDIRECT_URL"`
	SuccessRedirect    string `split_words:"true"`

	RedisAddr     string `split_words:"true" default:"localhost:6379"`
	RedisPassword string `split_words:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("daybook", &cfg); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Error("ping redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	srv := server.New(db, rdb, server.Config{
		JWTSecret:          cfg.JWTSecret,
		AccessTokenTTL:     cfg.AccessTokenTTL,
		RefreshTokenTTL:    cfg.RefreshTokenTTL,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		OAuthRedirectURL:   cfg.OAuthRedirectURL,
		SuccessRedirect:    cfg.SuccessRedirect,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Scanner().Start(ctx)
	srv.Prober().Start(ctx)
	srv.DailyReset().Start()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv.Router(),
		ReadTimeout: 5 * time.Second,
		// No write timeout: subscribe streams stay open for hours.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("daybook listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	srv.Scanner().Stop()
	srv.Prober().Stop()
	srv.DailyReset().Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
