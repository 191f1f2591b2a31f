package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Denis-Chistyakov/weather-mcp/internal/analytics"
	"github.com/Denis-Chistyakov/weather-mcp/internal/catalog"
	"github.com/Denis-Chistyakov/weather-mcp/internal/gateway/mcp"
	"github.com/Denis-Chistyakov/weather-mcp/internal/version"
	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP API server
type Server struct {
	app       *fiber.App
	collector *analytics.Collector
	config    types.HTTPConfig
	handlers  *Handler
}

// NewServer creates a new HTTP server. collector may be nil, in which case
// /metrics and /stats answer 503.
func NewServer(mcpServer *mcp.Server, cat *catalog.Catalog, collector *analytics.Collector, config types.HTTPConfig) *Server {
	app := fiber.New(fiber.Config{
		ServerHeader: "weather-mcp",
		AppName:      "weather-mcp v" + version.Version,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		BodyLimit:    config.BodyLimit,
	})

	s := &Server{
		app:       app,
		collector: collector,
		config:    config,
		handlers:  NewHandler(mcpServer, cat, collector),
	}

	app.Use(RequestIDMiddleware())
	app.Use(RecoveryMiddleware())
	app.Use(LoggingMiddleware())
	app.Use(CORSMiddleware())
	app.Use(RateLimitMiddleware(newLimiter(config.RateLimitRPS, config.RateLimitBurst)))

	s.setupRoutes()

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "weather-mcp",
			"version": version.Version,
			"status":  "running",
		})
	})

	// JSON-RPC endpoint
	s.app.Post("/mcp", s.handlers.MCP)

	s.app.Get("/health", s.handlers.HealthCheck)

	// Metrics endpoint (Prometheus)
	if s.collector != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(s.collector.Registry(), promhttp.HandlerOpts{})))
	} else {
		s.app.Get("/metrics", analyticsDisabled)
	}

	s.app.Get("/stats", s.handlers.Stats)

	// REST façade over the same catalogs
	api := s.app.Group("/api/v1")
	api.Get("/weather/:location", s.handlers.GetWeather)
	api.Get("/forecast/:location", s.handlers.GetForecast)
	api.Get("/resources", s.handlers.ListResources)
	api.Get("/tools", s.handlers.ListTools)
	api.Get("/prompts", s.handlers.ListPrompts)

	log.Info().Msg("HTTP routes configured")
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Serve listens until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context) error {
	addr := s.Addr()

	log.Info().
		Str("addr", addr).
		Msg("Starting HTTP API server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping HTTP server")

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}
