package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/brandkit/brandkit/internal/cache"
	"github.com/brandkit/brandkit/internal/handler"
	"github.com/brandkit/brandkit/internal/server/middleware"
	"github.com/brandkit/brandkit/internal/service"
	"github.com/brandkit/brandkit/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       int // requests per minute per credential; 0 disables
	MaxBodySize     int64
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimit:       300,
		MaxBodySize:     1 * 1024 * 1024, // 1MB
	}
}

// Server is the top-level HTTP server for the management API. It owns the
// Chi router, the data store, and the authentication service.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	auth       *service.Authenticator
	keys       *service.KeyService
	cache      *cache.Cache
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, auth *service.Authenticator, keys *service.KeyService, ch *cache.Cache, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		auth:   auth,
		keys:   keys,
		cache:  ch,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}
	if s.cfg.RateLimit > 0 {
		r.Use(middleware.RateLimitByCredential(s.cfg.RateLimit))
	}

	// Health checks and the OpenAPI document are unauthenticated.
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	baseURL := fmt.Sprintf("http://%s:%d", s.cfg.Host, s.cfg.Port)
	r.Get("/openapi.json", handler.NewOpenAPIHandler(baseURL).Serve)

	r.Route("/api/v1", func(r chi.Router) {
		sysHandler := handler.NewSystemHandler(s.store, s.auth, s.keys, s.cache, s.logger)
		brandHandler := handler.NewBrandHandler(s.store, s.cache, s.logger)

		// Login is unauthenticated; logout only needs a valid credential.
		r.Post("/session", sysHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.auth))

			r.Delete("/session", sysHandler.Logout)

			// Brand and key management require an owner session, not an
			// API key: keys are consumers of brand data, not admins of it.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession())

				r.Get("/brands", brandHandler.List)
				r.Post("/brands", brandHandler.Create)
				r.Get("/brands/{brandID}", brandHandler.Get)
				r.Put("/brands/{brandID}", brandHandler.Update)
				r.Get("/brands/{brandID}/context", brandHandler.Context)

				r.Post("/brands/{brandID}/logos", brandHandler.AddLogo)
				r.Post("/brands/{brandID}/taglines", brandHandler.AddTagline)
				r.Post("/brands/{brandID}/palettes", brandHandler.AddPalette)

				r.Get("/brands/{brandID}/keys", sysHandler.ListAPIKeys)
				r.Post("/brands/{brandID}/keys", sysHandler.CreateAPIKey)
				r.Delete("/brands/{brandID}/keys/{keyID}", sysHandler.RevokeAPIKey)

				r.Post("/cache/clear", sysHandler.ClearCache)
			})
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the data store is
// reachable, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"store": "ok"}

	if err := s.store.Ping(r.Context()); err != nil {
		checks["store"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
