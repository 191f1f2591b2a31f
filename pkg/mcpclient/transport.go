package mcpclient

// Package mcpclient provides an MCP JSON-RPC client.
// Supports HTTP servers and servers spawned as child processes over stdio.

import (
	"context"
	"time"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// TransportType identifies the transport mechanism
type TransportType string

const (
	TransportHTTP  TransportType = "http"
	TransportStdio TransportType = "stdio"
)

// Transport defines the interface for MCP communication
type Transport interface {
	// Send sends a request and waits for the response. Notifications
	// (requests without id) return a nil response.
	Send(ctx context.Context, req *types.MCPRequest) (*types.MCPResponse, error)

	// Close closes the transport and releases resources
	Close() error

	// IsConnected returns true if the transport is ready to send requests
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportConfig holds configuration for creating transports
type TransportConfig struct {
	Type    TransportType
	Timeout time.Duration

	// HTTP specific
	URL string

	// Stdio specific
	Command string
	Args    []string
	Env     map[string]string
	WorkDir string
}

// DefaultTransportConfig returns sensible defaults
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		Type:    TransportHTTP,
		Timeout: 30 * time.Second,
		URL:     "http://localhost:8080/mcp",
	}
}

// NewTransport creates a transport based on configuration
func NewTransport(cfg *TransportConfig) (Transport, error) {
	switch cfg.Type {
	case TransportStdio:
		t, err := NewStdioTransport(cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		t, err := NewHTTPTransport(cfg)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}
