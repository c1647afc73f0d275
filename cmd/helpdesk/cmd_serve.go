package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/helpdesk/internal/agent"
	"github.com/ashureev/helpdesk/internal/api"
	"github.com/ashureev/helpdesk/internal/config"
	"github.com/ashureev/helpdesk/internal/identity"
	"github.com/ashureev/helpdesk/internal/logging"
	"github.com/ashureev/helpdesk/internal/middleware"
	"github.com/ashureev/helpdesk/internal/realtime"
	"github.com/ashureev/helpdesk/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	Long: `Serves the game client and the /ws/game websocket. Sessions idle for longer
than SESSION_TTL are expired and their sockets closed.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(),
		"store", cfg.Store.Driver, "missions", cfg.Missions, "max_turns", cfg.MaxTurns)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.repo.Ping(ctx); err != nil {
		return err
	}
	slog.Info("Session store connected")

	limiter := agent.NewRateLimiter(cfg.RateLimit.Connections, cfg.RateLimit.Window)
	defer limiter.Stop()

	conns := realtime.NewConnectionManager()
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     newRouter(cfg, a, conns, limiter),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.svc.RunTTLWorker(gctx, cfg.SessionTTL, cfg.TTLInterval, conns.CloseSession)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}

func newRouter(cfg *config.Config, a *app, conns *realtime.ConnectionManager, limiter *agent.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(allowedOrigins(cfg)))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	api.NewHandler(a.repo, conns, a.svc.MaxTurns()).RegisterRoutes(r)

	ws := realtime.NewHandler(a.svc, conns, limiter, cfg.FrontendURL, cfg.IsDevelopment(), logging.New("realtime"))
	r.Get("/ws/game", ws.ServeHTTP)

	r.Handle("/*", web.SPAHandler())
	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() || cfg.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}
