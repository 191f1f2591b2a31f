package catalog

import (
	"fmt"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

const reportTemplate = `
Please provide a detailed weather report for %s based on the following data:

%s

Include:
- Current temperature and conditions
- Humidity and wind information
- Any recommendations for outdoor activities
- Comparison to seasonal averages if possible
`

const comparisonTemplate = `
Compare the weather conditions between %[1]s and %[2]s:

%[1]s Weather:
%[3]s

%[2]s Weather:
%[4]s

Please provide a comparison highlighting:
- Temperature differences
- Weather conditions
- Which location might be better for outdoor activities
- Any notable differences in humidity or wind
`

// ListPrompts returns the prompt templates and their arguments
func (c *Catalog) ListPrompts() []types.MCPPrompt {
	return []types.MCPPrompt{
		{
			Name:        PromptWeatherReport,
			Description: "Generate a weather report for a location",
			Arguments: []types.MCPPromptArgument{
				{Name: "location", Description: "The location to generate a weather report for", Required: true},
			},
		},
		{
			Name:        PromptWeatherComparison,
			Description: "Compare weather between two locations",
			Arguments: []types.MCPPromptArgument{
				{Name: "location1", Description: "First location to compare", Required: true},
				{Name: "location2", Description: "Second location to compare", Required: true},
			},
		},
	}
}

// GetPrompt renders a prompt with live weather data embedded.
// Missing location arguments default to "".
func (c *Catalog) GetPrompt(name string, args map[string]interface{}) (*types.MCPGetPromptResult, error) {
	var description, text string

	switch name {
	case PromptWeatherReport:
		location, err := stringArg(args, "location")
		if err != nil {
			return nil, err
		}
		data, err := RenderJSON(c.weather.Lookup(location))
		if err != nil {
			return nil, err
		}
		description = "Weather report for " + location
		text = fmt.Sprintf(reportTemplate, location, data)

	case PromptWeatherComparison:
		first, err := stringArg(args, "location1")
		if err != nil {
			return nil, err
		}
		second, err := stringArg(args, "location2")
		if err != nil {
			return nil, err
		}
		firstData, err := RenderJSON(c.weather.Lookup(first))
		if err != nil {
			return nil, err
		}
		secondData, err := RenderJSON(c.weather.Lookup(second))
		if err != nil {
			return nil, err
		}
		description = fmt.Sprintf("Weather comparison between %s and %s", first, second)
		text = fmt.Sprintf(comparisonTemplate, first, second, firstData, secondData)

	default:
		return nil, &NotFoundError{Kind: "prompt", Name: name}
	}

	return &types.MCPGetPromptResult{
		Description: description,
		Messages: []types.MCPPromptMessage{
			{Role: "user", Content: types.MCPContent{Type: "text", Text: text}},
		},
	}, nil
}
