package catalog

import (
	"strings"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

const jsonMimeType = "application/json"

// ListResources returns one resource per seed city, in table order
func (c *Catalog) ListResources() []types.MCPResource {
	entries := c.weather.Entries()
	resources := make([]types.MCPResource, 0, len(entries))
	for _, e := range entries {
		resources = append(resources, types.MCPResource{
			URI:         ResourceURI(e.Key),
			Name:        "Weather for " + e.Record.Location,
			Description: "Current weather conditions in " + e.Record.Location,
			MimeType:    jsonMimeType,
		})
	}
	return resources
}

// ReadResource returns the seed record behind a weather:// URI.
// Only exact seed keys resolve; there is no fuzzy matching here.
func (c *Catalog) ReadResource(uri string) (*types.MCPReadResourceResult, error) {
	if !strings.HasPrefix(uri, ResourceScheme) {
		return nil, &NotFoundError{Kind: "resource URI", Name: uri}
	}

	key := strings.ReplaceAll(uri, ResourceScheme, "")
	record, ok := c.weather.Get(key)
	if !ok {
		return nil, &NotFoundError{Kind: "city", Name: key}
	}

	text, err := RenderJSON(record)
	if err != nil {
		return nil, err
	}

	return &types.MCPReadResourceResult{
		Contents: []types.MCPResourceContent{
			{
				URI:      uri,
				MimeType: jsonMimeType,
				Type:     "text",
				Text:     text,
			},
		},
	}, nil
}
