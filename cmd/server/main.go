package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/cartdash/internal/api"
	"github.com/example/cartdash/internal/config"
	httpserver "github.com/example/cartdash/internal/http"
	"github.com/example/cartdash/internal/session"
	"github.com/example/cartdash/internal/store"
)

func main() {
	log.Println("Starting cartdash server...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("failed to create db pool: %v", err)
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	stor := store.New(pool)
	client := api.New(cfg.Backend.BaseURL, nil)
	sessions := session.NewManager(cfg, stor.Sessions, client.Auth)

	go expireSessions(ctx, stor)

	r := httpserver.NewRouter(cfg, stor, client, sessions)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

// expireSessions prunes session rows past their expiry once an hour.
func expireSessions(ctx context.Context, stor *store.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := stor.Sessions.DeleteExpired(ctx, time.Now()); err != nil {
				log.Printf("session cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("session cleanup removed %d expired sessions", n)
			}
		}
	}
}
