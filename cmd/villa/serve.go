package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/villa-bookings/internal/http/handlers"
	"github.com/diagnosis/villa-bookings/internal/http/middleware"
	"github.com/diagnosis/villa-bookings/pkg/cache"
	"github.com/diagnosis/villa-bookings/pkg/config"
	"github.com/diagnosis/villa-bookings/pkg/logger"
	mw "github.com/diagnosis/villa-bookings/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
)

type requestStore interface {
	mw.IdempotencyStore
	middleware.Counter
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			inMemory, _ := cmd.Flags().GetBool("memory")
			return serve(config.Load(), inMemory)
		},
	}
	cmd.Flags().Bool("memory", false, "use a seeded in-memory store instead of Postgres")
	return cmd
}

func serve(cfg *config.Config, inMemory bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, inMemory)
	if err != nil {
		return err
	}
	defer a.close()

	var store requestStore = cache.NewMemoryStore()
	if cfg.Redis.URL != "" {
		redisStore, err := cache.NewRedisStore(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
		a.health["redis"] = redisStore.Ping
	}

	limiter := middleware.NewRateLimiter(store, middleware.RateLimitConfig{
		Requests: cfg.Limits.Requests,
		Window:   cfg.Limits.Window,
	})
	h := handlers.New(a.services(), a.store.Users, cfg)

	r := chi.NewRouter()

	if cfg.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("villa"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Idempotent-Replayed", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health(a.health))

	r.Mount("/", h.Routes(store, limiter))

	if interval := cfg.Booking.ReaperInterval; interval > 0 {
		go a.reaper().Run(ctx, interval)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down villa service...")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
		defer done()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Villa service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting villa service", "port", cfg.Server.Port, "memory", inMemory)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
