package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charue808/eikogames/internal/config"
	"github.com/charue808/eikogames/internal/db"
	"github.com/charue808/eikogames/internal/game"
	"github.com/charue808/eikogames/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()
	gin.SetMode(gin.ReleaseMode)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store setup failed: %v", err)
	}
	svc := game.NewService(store, game.WithDurations(game.Durations{
		Answering: time.Duration(cfg.AnswerDurationSeconds) * time.Second,
		Voting:    time.Duration(cfg.VoteDurationSeconds) * time.Second,
	}))
	app := server.New(svc, cfg)
	defer app.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: app.Handler(),
	}
	go func() {
		log.Printf("overlap server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	log.Println("server exited")
}

// openStore picks Postgres when DATABASE_URL is set and falls back to an
// in-memory store seeded with the default prompts.
func openStore(cfg config.Config) (game.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set; using in-memory store")
		return game.NewMemoryStore(game.DefaultPrompts()...), nil
	}
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			return nil, err
		}
	}
	return db.NewStore(conn), nil
}
