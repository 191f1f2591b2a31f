package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Denis-Chistyakov/weather-mcp/internal/analytics"
	"github.com/Denis-Chistyakov/weather-mcp/internal/catalog"
	"github.com/Denis-Chistyakov/weather-mcp/internal/gateway/mcp"
	"github.com/Denis-Chistyakov/weather-mcp/internal/weather"
	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

type testEnv struct {
	server    *Server
	mcp       *mcp.Server
	collector *analytics.Collector
}

func setupTestServer(t *testing.T, cfg types.HTTPConfig) *testEnv {
	t.Helper()
	collector := analytics.NewCollector(true)
	cat := catalog.New(weather.NewService())
	mcpServer := mcp.NewServer(cat, mcp.WithRecorder(collector))
	return &testEnv{
		server:    NewServer(mcpServer, cat, collector, cfg),
		mcp:       mcpServer,
		collector: collector,
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, []byte, map[string][]string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data, resp.Header
}

func decodeJSON(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m), string(data))
	return m
}

func TestHTTP_MCPInitialize(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	status, data, header := doRequest(t, env.server.App(), "POST", "/mcp",
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, header["Content-Type"][0], "application/json")

	body := decodeJSON(t, data)
	assert.Equal(t, "2.0", body["jsonrpc"])
	assert.Equal(t, float64(1), body["id"])
	result := body["result"].(map[string]interface{})
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
}

func TestHTTP_MCPMirrorsDispatcher(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	requests := []string{
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"weather://tokyo"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_weather","arguments":{"location":"New York"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"prompts/get","params":{"name":"weather_comparison","arguments":{"location1":"Tokyo","location2":"London"}}}`,
		`{"jsonrpc":"2.0","id":5,"method":"resources/read","params":{"uri":"weather://atlantis"}}`,
		`{"jsonrpc":"2.0","id":6,"method":"nope"}`,
	}

	for _, raw := range requests {
		status, data, _ := doRequest(t, env.server.App(), "POST", "/mcp", raw)
		assert.Equal(t, fiber.StatusOK, status)

		expected, err := env.mcp.FormatResponse(env.mcp.HandleMessage(types.TransportInProcess, []byte(raw)))
		require.NoError(t, err)
		assert.JSONEq(t, string(expected), string(data), raw)
	}
}

func TestHTTP_MCPErrors(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	status, data, _ := doRequest(t, env.server.App(), "POST", "/mcp", `{oops`)
	assert.Equal(t, fiber.StatusOK, status)
	errObj := decodeJSON(t, data)["error"].(map[string]interface{})
	assert.Equal(t, float64(types.MCPErrorParseError), errObj["code"])

	status, data, _ = doRequest(t, env.server.App(), "POST", "/mcp",
		`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"name":"get_stock"}}`)
	assert.Equal(t, fiber.StatusOK, status)
	errObj = decodeJSON(t, data)["error"].(map[string]interface{})
	assert.Equal(t, float64(types.MCPErrorInvalidParams), errObj["code"])
	assert.Equal(t, "Unknown tool: get_stock", errObj["message"])
}

func TestHTTP_MCPNotification(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	status, data, _ := doRequest(t, env.server.App(), "POST", "/mcp",
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, data)
}

func TestHTTP_Health(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	status, data, header := doRequest(t, env.server.App(), "GET", "/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, header["X-Request-Id"])

	body := decodeJSON(t, data)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["cities"])
	assert.Contains(t, body, "version")
}

func TestHTTP_RequestIDPropagated(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := env.server.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestHTTP_Metrics(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	doRequest(t, env.server.App(), "POST", "/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	status, data, _ := doRequest(t, env.server.App(), "GET", "/metrics", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(data), "weather_mcp_requests_total")
	assert.Contains(t, string(data), `method="tools/list"`)
}

func TestHTTP_Stats(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	doRequest(t, env.server.App(), "POST", "/mcp",
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_weather","arguments":{"location":"Tokyo"}}}`)
	doRequest(t, env.server.App(), "POST", "/mcp", `{"jsonrpc":"2.0","id":2,"method":"bogus"}`)

	status, data, _ := doRequest(t, env.server.App(), "GET", "/stats", "")
	assert.Equal(t, fiber.StatusOK, status)

	body := decodeJSON(t, data)
	assert.Equal(t, float64(2), body["total_calls"])
	assert.Equal(t, float64(1), body["total_errors"])
	byMethod := body["calls_by_method"].(map[string]interface{})
	assert.Equal(t, float64(1), byMethod["tools/call"])
	byTransport := body["calls_by_transport"].(map[string]interface{})
	assert.Equal(t, float64(2), byTransport["http"])
}

func TestHTTP_StatsWithoutCollector(t *testing.T) {
	cat := catalog.New(weather.NewService())
	server := NewServer(mcp.NewServer(cat), cat, nil, types.HTTPConfig{})

	status, _, _ := doRequest(t, server.App(), "GET", "/stats", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	status, _, _ = doRequest(t, server.App(), "GET", "/metrics", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestHTTP_GetWeather(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	status, data, _ := doRequest(t, env.server.App(), "GET", "/api/v1/weather/New%20York", "")
	assert.Equal(t, fiber.StatusOK, status)

	body := decodeJSON(t, data)
	assert.Equal(t, "New York, NY", body["location"])
	assert.Equal(t, float64(72), body["temperature"])

	_, data, _ = doRequest(t, env.server.App(), "GET", "/api/v1/weather/Paris", "")
	body = decodeJSON(t, data)
	assert.Equal(t, "Paris", body["location"])
	assert.Equal(t, "Unknown", body["conditions"])
}

func TestHTTP_GetForecast(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	status, data, _ := doRequest(t, env.server.App(), "GET", "/api/v1/forecast/London", "")
	assert.Equal(t, fiber.StatusOK, status)
	body := decodeJSON(t, data)
	assert.Equal(t, float64(3), body["forecast_days"])
	forecast := body["forecast"].([]interface{})
	require.Len(t, forecast, 3)
	assert.Equal(t, float64(16), forecast[0].(map[string]interface{})["temperature"])

	_, data, _ = doRequest(t, env.server.App(), "GET", "/api/v1/forecast/London?days=5", "")
	assert.Len(t, decodeJSON(t, data)["forecast"].([]interface{}), 5)

	status, _, _ = doRequest(t, env.server.App(), "GET", "/api/v1/forecast/London?days=two", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHTTP_Catalogs(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	tests := []struct {
		path  string
		key   string
		count int
	}{
		{"/api/v1/resources", "resources", 3},
		{"/api/v1/tools", "tools", 2},
		{"/api/v1/prompts", "prompts", 2},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			status, data, _ := doRequest(t, env.server.App(), "GET", tt.path, "")
			assert.Equal(t, fiber.StatusOK, status)
			body := decodeJSON(t, data)
			assert.Len(t, body[tt.key].([]interface{}), tt.count)
			assert.Equal(t, float64(tt.count), body["total"])
		})
	}
}

func TestHTTP_CORSPreflight(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{})

	status, _, header := doRequest(t, env.server.App(), "OPTIONS", "/mcp", "")
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.Equal(t, "*", header["Access-Control-Allow-Origin"][0])
}

func TestHTTP_RateLimit(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{RateLimitRPS: 0.001, RateLimitBurst: 2})

	for i := 0; i < 2; i++ {
		status, _, _ := doRequest(t, env.server.App(), "GET", "/health", "")
		assert.Equal(t, fiber.StatusOK, status)
	}

	status, data, _ := doRequest(t, env.server.App(), "GET", "/health", "")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", decodeJSON(t, data)["code"])
}

func TestHTTP_RecoveryMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Use(RecoveryMiddleware())
	app.Get("/panic", func(c fiber.Ctx) error {
		panic("boom")
	})

	status, data, _ := doRequest(t, app, "GET", "/panic", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", decodeJSON(t, data)["code"])
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, newLimiter(0, 10))
	assert.Nil(t, newLimiter(-1, 10))

	l := newLimiter(5, 0)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
}

func TestServer_Addr(t *testing.T) {
	env := setupTestServer(t, types.HTTPConfig{Host: "127.0.0.1", Port: 8090})
	assert.Equal(t, "127.0.0.1:8090", env.server.Addr())
}
