package catalog

// Package catalog holds the static resource, tool and prompt catalogs
// and executes tools and prompts against the weather service.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Denis-Chistyakov/weather-mcp/internal/weather"
)

// ResourceScheme prefixes every weather resource URI
const ResourceScheme = "weather://"

// Tool names
const (
	ToolGetWeather  = "get_weather"
	ToolGetForecast = "get_weather_forecast"
)

// Prompt names
const (
	PromptWeatherReport     = "weather_report"
	PromptWeatherComparison = "weather_comparison"
)

// NotFoundError is returned when a named catalog entry does not exist
type NotFoundError struct {
	Kind string // "resource URI", "city", "tool" or "prompt"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Unknown %s: %s", e.Kind, e.Name)
}

// Catalog serves the MCP catalogs. It holds no mutable state.
type Catalog struct {
	weather *weather.Service
}

// New creates a catalog over a weather service
func New(svc *weather.Service) *Catalog {
	return &Catalog{weather: svc}
}

// Weather returns the underlying weather service
func (c *Catalog) Weather() *weather.Service {
	return c.weather
}

// ResourceURI builds the URI for a city key
func ResourceURI(key string) string {
	return ResourceScheme + key
}

// RenderJSON formats v the way resources and tool results embed it:
// two-space indent, no HTML escaping, no trailing newline.
func RenderJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to render json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
