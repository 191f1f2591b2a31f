package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Denis-Chistyakov/weather-mcp/internal/catalog"
	"github.com/Denis-Chistyakov/weather-mcp/internal/gateway/mcp"
	"github.com/Denis-Chistyakov/weather-mcp/internal/weather"
	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// demoStep is one request replayed by the demo
type demoStep struct {
	Title  string
	Method string
	Params map[string]interface{}
}

var demoSteps = []demoStep{
	{Title: "List Resources", Method: "resources/list"},
	{
		Title:  "Read Resource",
		Method: "resources/read",
		Params: map[string]interface{}{"uri": catalog.ResourceURI("tokyo")},
	},
	{Title: "List Tools", Method: "tools/list"},
	{
		Title:  "Call Weather Tool",
		Method: "tools/call",
		Params: map[string]interface{}{
			"name":      catalog.ToolGetWeather,
			"arguments": map[string]interface{}{"location": "New York"},
		},
	},
	{
		Title:  "Call Forecast Tool",
		Method: "tools/call",
		Params: map[string]interface{}{
			"name":      catalog.ToolGetForecast,
			"arguments": map[string]interface{}{"location": "London", "days": 3},
		},
	},
	{
		Title:  "Get Weather Report Prompt",
		Method: "prompts/get",
		Params: map[string]interface{}{
			"name":      catalog.PromptWeatherReport,
			"arguments": map[string]interface{}{"location": "London"},
		},
	},
}

// tourLocations mixes seeded cities with ones served by the generic record
var tourLocations = []string{"Tokyo", "Paris", "Sydney", "Unknown City"}

var rule = strings.Repeat("=", 50)

// RunDemo replays the example requests against server in-process and
// writes each request and response to w as indented JSON
func RunDemo(server *mcp.Server, w io.Writer) error {
	for i, step := range demoSteps {
		req := &types.MCPRequest{
			JSONRPC: types.JSONRPCVersion,
			ID:      i + 1,
			Method:  step.Method,
			Params:  step.Params,
		}
		resp := server.Handle(types.TransportInProcess, req)

		fmt.Fprintf(w, "\n%s\nEXAMPLE %d: %s\n%s\n", rule, i+1, step.Title, rule)
		if err := writeLabeledJSON(w, "Request", req); err != nil {
			return err
		}
		if err := writeLabeledJSON(w, "Response", resp); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\n%s\nLocation Tour\n%s\n", rule, rule)
	for i, location := range tourLocations {
		record, err := tourLookup(server, len(demoSteps)+i+1, location)
		if err != nil {
			fmt.Fprintf(w, "  %s: error: %v\n", location, err)
			continue
		}
		fmt.Fprintf(w, "  %s: %d°, %s\n", location, record.Temperature, record.Conditions)
	}

	fmt.Fprintf(w, "\n%s\nDemo complete\n%s\n", rule, rule)
	return nil
}

// tourLookup calls get_weather through the dispatcher and decodes the record
func tourLookup(server *mcp.Server, id int, location string) (*weather.Record, error) {
	resp := server.Handle(types.TransportInProcess, &types.MCPRequest{
		JSONRPC: types.JSONRPCVersion,
		ID:      id,
		Method:  "tools/call",
		Params: map[string]interface{}{
			"name":      catalog.ToolGetWeather,
			"arguments": map[string]interface{}{"location": location},
		},
	})
	if resp.Error != nil {
		return nil, resp.Error
	}

	result, ok := resp.Result.(*types.MCPCallToolResult)
	if !ok || len(result.Content) == 0 {
		return nil, fmt.Errorf("unexpected result type %T", resp.Result)
	}

	var record weather.Record
	if err := json.Unmarshal([]byte(result.Content[0].Text), &record); err != nil {
		return nil, fmt.Errorf("failed to decode weather record: %w", err)
	}
	return &record, nil
}

func writeLabeledJSON(w io.Writer, label string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", strings.ToLower(label), err)
	}
	_, err = fmt.Fprintf(w, "%s: %s\n", label, data)
	return err
}
