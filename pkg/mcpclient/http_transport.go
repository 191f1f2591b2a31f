package mcpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// HTTPTransport implements Transport for servers exposing POST /mcp
type HTTPTransport struct {
	url        string
	httpClient *http.Client
	connected  bool
	mu         sync.RWMutex
}

// NewHTTPTransport creates a new HTTP transport
func NewHTTPTransport(cfg *TransportConfig) (*HTTPTransport, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required for HTTP transport")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPTransport{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		connected: true, // HTTP is stateless, always "connected"
	}, nil
}

// Send sends a synchronous request via HTTP
func (t *HTTPTransport) Send(ctx context.Context, req *types.MCPRequest) (*types.MCPResponse, error) {
	if !t.IsConnected() {
		return nil, fmt.Errorf("transport closed")
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, bytes.TrimSpace(respBody))
	}

	if req.IsNotification() {
		return nil, nil
	}

	var resp types.MCPResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &resp, nil
}

// Close closes the HTTP transport
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	t.httpClient.CloseIdleConnections()
	return nil
}

// IsConnected returns true if connected
func (t *HTTPTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// Type returns the transport type
func (t *HTTPTransport) Type() TransportType {
	return TransportHTTP
}

// URL returns the server URL
func (t *HTTPTransport) URL() string {
	return t.url
}
