package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// Client speaks MCP over any Transport. Server-side JSON-RPC errors are
// returned as *types.MCPError.
type Client struct {
	transport Transport
	requestID atomic.Int64
}

// New creates a client over a transport
func New(transport Transport) *Client {
	return &Client{transport: transport}
}

// Dial creates the transport described by cfg and wraps it in a client
func Dial(cfg *TransportConfig) (*Client, error) {
	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	return New(transport), nil
}

// Transport returns the underlying transport
func (c *Client) Transport() Transport {
	return c.transport
}

// Initialize performs the MCP handshake
func (c *Client) Initialize(ctx context.Context) (*types.MCPInitializeResult, error) {
	var result types.MCPInitializeResult
	if err := c.call(ctx, "initialize", map[string]interface{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResources returns the server's resources
func (c *Client) ListResources(ctx context.Context) ([]types.MCPResource, error) {
	var result struct {
		Resources []types.MCPResource `json:"resources"`
	}
	if err := c.call(ctx, "resources/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Resources, nil
}

// ReadResource reads one resource by URI
func (c *Client) ReadResource(ctx context.Context, uri string) (*types.MCPReadResourceResult, error) {
	var result types.MCPReadResourceResult
	if err := c.call(ctx, "resources/read", map[string]interface{}{"uri": uri}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTools returns available tools from the server
func (c *Client) ListTools(ctx context.Context) ([]types.MCPToolInfo, error) {
	var result struct {
		Tools []types.MCPToolInfo `json:"tools"`
	}
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool executes a tool on the server
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*types.MCPCallToolResult, error) {
	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}

	var result types.MCPCallToolResult
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPrompts returns the server's prompt templates
func (c *Client) ListPrompts(ctx context.Context) ([]types.MCPPrompt, error) {
	var result struct {
		Prompts []types.MCPPrompt `json:"prompts"`
	}
	if err := c.call(ctx, "prompts/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Prompts, nil
}

// GetPrompt renders a prompt on the server
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]interface{}) (*types.MCPGetPromptResult, error) {
	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}

	var result types.MCPGetPromptResult
	if err := c.call(ctx, "prompts/get", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Call sends an arbitrary request and returns the full response,
// including any JSON-RPC error object
func (c *Client) Call(ctx context.Context, method string, params map[string]interface{}) (*types.MCPResponse, error) {
	req := &types.MCPRequest{
		JSONRPC: types.JSONRPCVersion,
		ID:      c.nextRequestID(),
		Method:  method,
		Params:  params,
	}

	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", method, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s failed: empty response", method)
	}
	return resp, nil
}

// Notify sends a notification; no response is expected
func (c *Client) Notify(ctx context.Context, method string, params map[string]interface{}) error {
	req := &types.MCPRequest{
		JSONRPC: types.JSONRPCVersion,
		Method:  method,
		Params:  params,
	}

	if _, err := c.transport.Send(ctx, req); err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	return nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.transport.Close()
}

// call sends a request and decodes its result into out
func (c *Client) call(ctx context.Context, method string, params map[string]interface{}, out interface{}) error {
	resp, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}

	// Result arrives as generic JSON; round-trip it into the typed shape
	data, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("%s: failed to re-encode result: %w", method, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}

// nextRequestID returns the next request ID
func (c *Client) nextRequestID() int {
	return int(c.requestID.Add(1))
}
