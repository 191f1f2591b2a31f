package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Denis-Chistyakov/weather-mcp/internal/catalog"
	"github.com/Denis-Chistyakov/weather-mcp/internal/gateway/mcp"
	"github.com/Denis-Chistyakov/weather-mcp/internal/version"
	"github.com/Denis-Chistyakov/weather-mcp/internal/weather"
	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// runCmd executes the command tree with args and returns stdout
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))

	err := cmd.Execute()
	return out.String(), err
}

func TestStdioCmd(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"weather://tokyo"}}`,
	}, "\n") + "\n"

	out, err := runCmd(t, input, "stdio")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var resp types.MCPResponse
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	assert.Equal(t, float64(2), resp.ID)
	assert.Nil(t, resp.Error)
	assert.Contains(t, lines[1], "Tokyo, Japan")
}

func TestRootCmd_DefaultsToStdio(t *testing.T) {
	out, err := runCmd(t, `{"jsonrpc":"2.0","id":7,"method":"tools/list"}`+"\n")
	require.NoError(t, err)
	assert.Contains(t, out, `"id":7`)
	assert.Contains(t, out, catalog.ToolGetForecast)
}

func TestDemoCmd(t *testing.T) {
	out, err := runCmd(t, "", "demo")
	require.NoError(t, err)

	assert.Contains(t, out, "EXAMPLE 1: List Resources")
	assert.Contains(t, out, "EXAMPLE 6: Get Weather Report Prompt")
	assert.Contains(t, out, "Partly cloudy")
	assert.Contains(t, out, "Tokyo: 25°, Clear")
	assert.Contains(t, out, "Paris: 20°, Unknown")
	assert.Contains(t, out, "Unknown City: 20°, Unknown")
	assert.Contains(t, out, "Demo complete")
	assert.NotContains(t, out, `"error"`)
}

func TestRunDemo(t *testing.T) {
	server := mcp.NewServer(catalog.New(weather.NewService()))
	var out bytes.Buffer

	require.NoError(t, RunDemo(server, &out))
	assert.Equal(t, len(demoSteps), strings.Count(out.String(), "Response: "))
}

func TestCallCmd(t *testing.T) {
	out, err := runCmd(t, "", "call", "tools/call", `{"name":"get_weather","arguments":{"location":"New York"}}`)
	require.NoError(t, err)

	var resp struct {
		ID     int                     `json:"id"`
		Result types.MCPCallToolResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.ID)
	require.Len(t, resp.Result.Content, 1)

	var record weather.Record
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &record))
	assert.Equal(t, 72, record.Temperature)
	assert.Equal(t, "Partly cloudy", record.Conditions)
}

func TestCallCmd_UnknownMethod(t *testing.T) {
	out, err := runCmd(t, "", "call", "weather/delete")
	require.NoError(t, err)

	var resp types.MCPResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, types.MCPErrorMethodNotFound, resp.Error.Code)
}

func TestCallCmd_BadParams(t *testing.T) {
	_, err := runCmd(t, "", "call", "tools/call", `[1,2]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON object")
}

func TestBootstrap_InvalidLogLevel(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"demo", "--log-level", "loud"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestBootstrap_LogsAPIKeyState(t *testing.T) {
	t.Setenv("WEATHER_MCP_WEATHER_API_KEY", "s3cret-key")

	cmd := NewRootCmd()
	var stderr bytes.Buffer
	cmd.SetOut(io.Discard)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"call", "tools/list", "--log-format", "json", "--log-level", "info"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stderr.String(), `"api_key_configured":true`)
	assert.NotContains(t, stderr.String(), "s3cret-key")
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)

	out, err = runCmd(t, "", "version", "--json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info["version"])
}

func newClientTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := mcp.NewServer(catalog.New(weather.NewService()))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		resp := server.HandleMessage(types.TransportHTTP, body)
		if resp == nil {
			return
		}
		data, _ := server.FormatResponse(resp)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClientCmd(t *testing.T) {
	ts := newClientTestServer(t)

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"resources", []string{"resources"}, "weather://new_york"},
		{"read", []string{"read", "weather://london"}, "London, UK"},
		{"tools", []string{"tools"}, "get_weather_forecast"},
		{"call", []string{"call", "get_weather_forecast", `{"location":"Tokyo","days":2}`}, "2024-01-17"},
		{"prompts", []string{"prompts"}, "weather_comparison"},
		{"prompt", []string{"prompt", "weather_comparison", `{"location1":"Tokyo","location2":"London"}`}, "Weather comparison between Tokyo and London"},
		{"raw", []string{"raw", "initialize"}, "2024-11-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"client", "--url", ts.URL}, tt.args...)
			out, err := runCmd(t, "", args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestClientCmd_ServerError(t *testing.T) {
	ts := newClientTestServer(t)

	_, err := runCmd(t, "", "client", "--url", ts.URL, "read", "weather://atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown city: atlantis")
}

func TestClientOptions_TransportConfig(t *testing.T) {
	cfg, err := (&clientOptions{command: "weather-mcp stdio --log-level debug"}).transportConfig()
	require.NoError(t, err)
	assert.Equal(t, "weather-mcp", cfg.Command)
	assert.Equal(t, []string{"stdio", "--log-level", "debug"}, cfg.Args)

	cfg, err = (&clientOptions{url: "http://localhost:9090/mcp"}).transportConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9090/mcp", cfg.URL)

	_, err = (&clientOptions{}).transportConfig()
	assert.Error(t, err)
}

func TestJSONObjectArg(t *testing.T) {
	obj, err := jsonObjectArg([]string{"m"}, 1)
	require.NoError(t, err)
	assert.Nil(t, obj)

	obj, err = jsonObjectArg([]string{"m", `{"uri":"weather://tokyo"}`}, 1)
	require.NoError(t, err)
	assert.Equal(t, "weather://tokyo", obj["uri"])

	_, err = jsonObjectArg([]string{"m", `not json`}, 1)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
}
