package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tanmaysrivastava45/Code-Sense/internal/app"
	"github.com/tanmaysrivastava45/Code-Sense/internal/collab"
	httpx "github.com/tanmaysrivastava45/Code-Sense/internal/http"
	"github.com/tanmaysrivastava45/Code-Sense/internal/session"
	"github.com/tanmaysrivastava45/Code-Sense/internal/store"
	"github.com/tanmaysrivastava45/Code-Sense/internal/ws"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/auth"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres connection + migrations
	pg, err := store.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("postgres connect", "err", err)
		log.Fatal(err)
	}
	defer pg.Close()
	if err := store.RunMigrations(ctx, pg, logger); err != nil {
		logger.Error("migrations", "err", err)
		log.Fatal(err)
	}

	// Redis-backed login sessions
	sessions, err := session.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("redis connect", "err", err)
		log.Fatal(err)
	}
	defer sessions.Close()

	// Collaboration broker: registry + presence behind one dispatcher.
	// Postgres doubles as the activity log sink.
	registry := collab.NewRegistry(logger, cfg.RoomGrace)
	presence := collab.NewPresence(logger, pg)
	broker := collab.NewBroker(logger, registry, presence)
	go broker.Run(ctx)

	// Websocket gateway + HTTP router
	gateway := ws.NewGateway(logger, broker, auth.New(cfg.JWTSecret))
	router := httpx.NewRouter(cfg, logger, gateway, pg, sessions)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr, "grace", cfg.RoomGrace)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
