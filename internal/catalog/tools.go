package catalog

import (
	"fmt"
	"math"

	"github.com/Denis-Chistyakov/weather-mcp/internal/weather"
	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// ListTools returns the two weather tools with their input schemas.
// The schemas describe the arguments; they are not enforced.
func (c *Catalog) ListTools() []types.MCPToolInfo {
	return []types.MCPToolInfo{
		{
			Name:        ToolGetWeather,
			Description: "Get current weather information for a specified location",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"location": map[string]interface{}{
						"type":        "string",
						"description": "The city or location to get weather for",
					},
				},
				"required": []string{"location"},
			},
		},
		{
			Name:        ToolGetForecast,
			Description: "Get weather forecast for a specified location",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"location": map[string]interface{}{
						"type":        "string",
						"description": "The city or location to get forecast for",
					},
					"days": map[string]interface{}{
						"type":        "integer",
						"description": "Number of days to forecast (1-7)",
						"default":     weather.DefaultForecastDays,
					},
				},
				"required": []string{"location"},
			},
		},
	}
}

// CallTool runs a tool. Unknown names yield *NotFoundError; any other
// error means the arguments could not be used.
func (c *Catalog) CallTool(name string, args map[string]interface{}) (*types.MCPCallToolResult, error) {
	var payload interface{}

	switch name {
	case ToolGetWeather:
		location, err := stringArg(args, "location")
		if err != nil {
			return nil, err
		}
		payload = c.weather.Lookup(location)

	case ToolGetForecast:
		location, err := stringArg(args, "location")
		if err != nil {
			return nil, err
		}
		days, err := intArg(args, "days", weather.DefaultForecastDays)
		if err != nil {
			return nil, err
		}
		payload = c.weather.Forecast(location, days)

	default:
		return nil, &NotFoundError{Kind: "tool", Name: name}
	}

	text, err := RenderJSON(payload)
	if err != nil {
		return nil, err
	}

	return &types.MCPCallToolResult{
		Content: []types.MCPContent{{Type: "text", Text: text}},
	}, nil
}

// stringArg reads an optional string argument, defaulting to ""
func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	return s, nil
}

// intArg reads an optional integer argument. JSON numbers arrive as float64
// and must be integral; an explicit null is rejected.
func intArg(args map[string]interface{}, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, so >= excludes it
		if n != math.Trunc(n) || n >= float64(math.MaxInt) || n < float64(math.MinInt) {
			return 0, fmt.Errorf("argument %q must be an integer, got %v", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", key, v)
	}
}
