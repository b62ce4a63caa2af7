package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ashureev/wildscan/internal/api"
	"github.com/ashureev/wildscan/internal/appstate"
	"github.com/ashureev/wildscan/internal/assistant"
	"github.com/ashureev/wildscan/internal/chat"
	"github.com/ashureev/wildscan/internal/config"
	"github.com/ashureev/wildscan/internal/events"
	"github.com/ashureev/wildscan/internal/identity"
	"github.com/ashureev/wildscan/internal/middleware"
	"github.com/ashureev/wildscan/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

// limiterIdleTTL is how long a device's rate limiter survives without requests.
const limiterIdleTTL = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.Store.Backend)

	// Initialize dependencies.
	backend, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	asst, err := newAssistant(cfg.Assistant)
	if err != nil {
		return err
	}
	defer asst.Close()

	hub := events.NewHub(0, websocketOrigins(cfg), slog.Default())
	states := appstate.NewRegistry(backend, slog.Default(), hub.StateChanged)
	chats := chat.NewRegistry(backend, chat.RegistryOptions{
		OnNewChat: func(ctx context.Context, deviceID string) {
			states.Get(ctx, deviceID).IncrementChatSessions(ctx)
		},
		OnChange: hub.ChatChanged,
		Logger:   slog.Default(),
	})

	// Initialize handlers.
	handler := api.NewHandler(states, chats, asst)
	healthHandler := api.NewHealthHandler(backend, cfg)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, limiterIdleTTL)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	handler.RegisterRoutes(r, limiter.Middleware)

	// WebSocket endpoint.
	r.Get("/ws/events", hub.ServeHTTP)

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// WebSocket streams are long-lived, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal.
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout.Shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped successfully")
	return nil
}

// newAssistant connects to the inference service when one is configured and
// otherwise falls back to the offline demo.
func newAssistant(cfg config.AssistantConfig) (assistant.Assistant, error) {
	if cfg.Addr != "" {
		slog.Info("Connecting to assistant service via gRPC", "address", cfg.Addr)
		client, err := assistant.NewRemoteClient(assistant.DefaultRemoteConfig(cfg.Addr), slog.Default())
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	rules := assistant.DefaultRules()
	if cfg.RulesPath != "" {
		loaded, err := assistant.LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
		slog.Info("Loaded assistant rules", "path", cfg.RulesPath, "rules", len(rules.Rules))
	}

	slog.Info("Using offline demo assistant")
	seed := uint64(time.Now().UnixNano())
	return assistant.NewDemo(rules, rand.New(rand.NewPCG(seed, seed>>1))), nil
}

// websocketOrigins maps the CORS allow-list onto coder/websocket origin
// patterns, which match hosts rather than full origins.
func websocketOrigins(cfg *config.Config) []string {
	var patterns []string
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			return []string{"*"}
		}
		if i := strings.Index(origin, "://"); i >= 0 {
			origin = origin[i+3:]
		}
		patterns = append(patterns, origin)
	}
	return patterns
}
