package http

import (
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/Denis-Chistyakov/weather-mcp/internal/analytics"
	"github.com/Denis-Chistyakov/weather-mcp/internal/catalog"
	"github.com/Denis-Chistyakov/weather-mcp/internal/gateway/mcp"
	"github.com/Denis-Chistyakov/weather-mcp/internal/version"
	"github.com/Denis-Chistyakov/weather-mcp/internal/weather"
	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// Handler handles HTTP requests
type Handler struct {
	server    *mcp.Server
	catalog   *catalog.Catalog
	collector *analytics.Collector
	started   time.Time
}

// NewHandler creates a new handler
func NewHandler(server *mcp.Server, cat *catalog.Catalog, collector *analytics.Collector) *Handler {
	return &Handler{
		server:    server,
		catalog:   cat,
		collector: collector,
		started:   time.Now(),
	}
}

// MCP handles POST /mcp. JSON-RPC errors travel in the body with HTTP 200;
// a notification gets an empty 200.
func (h *Handler) MCP(c fiber.Ctx) error {
	if h.collector != nil {
		h.collector.StartCall()
		defer h.collector.EndCall()
	}

	resp := h.server.HandleMessage(types.TransportHTTP, c.Body())
	if resp == nil {
		// SendStatus would fill the body with "OK"
		c.Status(fiber.StatusOK)
		return nil
	}

	data, err := h.server.FormatResponse(resp)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("Failed to format response")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(data)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"timestamp":      time.Now().Unix(),
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"version":        version.Info(),
		"cities":         len(h.catalog.Weather().Entries()),
	})
}

// Stats handles GET /stats
func (h *Handler) Stats(c fiber.Ctx) error {
	if h.collector == nil || !h.collector.Enabled() {
		return analyticsDisabled(c)
	}
	return c.JSON(h.collector.GetStats())
}

// GetWeather handles GET /api/v1/weather/:location
func (h *Handler) GetWeather(c fiber.Ctx) error {
	location, err := locationParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(h.catalog.Weather().Lookup(location))
}

// GetForecast handles GET /api/v1/forecast/:location?days=N
func (h *Handler) GetForecast(c fiber.Ctx) error {
	location, err := locationParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	days := weather.DefaultForecastDays
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "days must be an integer")
		}
	}

	return c.JSON(h.catalog.Weather().Forecast(location, days))
}

// ListResources handles GET /api/v1/resources
func (h *Handler) ListResources(c fiber.Ctx) error {
	resources := h.catalog.ListResources()
	return c.JSON(fiber.Map{
		"resources": resources,
		"total":     len(resources),
	})
}

// ListTools handles GET /api/v1/tools
func (h *Handler) ListTools(c fiber.Ctx) error {
	tools := h.catalog.ListTools()
	return c.JSON(fiber.Map{
		"tools": tools,
		"total": len(tools),
	})
}

// ListPrompts handles GET /api/v1/prompts
func (h *Handler) ListPrompts(c fiber.Ctx) error {
	prompts := h.catalog.ListPrompts()
	return c.JSON(fiber.Map{
		"prompts": prompts,
		"total":   len(prompts),
	})
}

func locationParam(c fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("location"))
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":      message,
		"request_id": requestID(c),
	})
}

func analyticsDisabled(c fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Analytics not enabled",
	})
}
