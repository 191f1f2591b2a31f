package types

// Package types provides shared type definitions for weather-mcp.
// Contains the JSON-RPC envelope, MCP payloads and configuration structures.
import (
	"time"
)

// MCP Types (JSON-RPC 2.0)

// MCPRequest represents a JSON-RPC 2.0 request
type MCPRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id,omitempty"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id
func (r *MCPRequest) IsNotification() bool {
	return r.ID == nil
}

// MCPResponse represents a JSON-RPC 2.0 response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC 2.0 error
type MCPError struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func (e *MCPError) Error() string {
	return e.Message
}

// NewMCPError builds an error object
func NewMCPError(code int, message string) *MCPError {
	return &MCPError{Code: code, Message: message}
}

// MCP Error Codes (JSON-RPC 2.0 standard)
const (
	MCPErrorParseError     = -32700
	MCPErrorInvalidRequest = -32600
	MCPErrorMethodNotFound = -32601
	MCPErrorInvalidParams  = -32602
	MCPErrorInternalError  = -32603
)

// JSONRPCVersion is the only envelope version accepted
const JSONRPCVersion = "2.0"

// Server identity advertised by initialize unless configured otherwise
const (
	DefaultProtocolVersion = "2024-11-05"
	DefaultServerName      = "weather-mcp-server"
	DefaultServerVersion   = "1.0.0"
)

// Transport labels attached to call events
const (
	TransportStdio     = "stdio"
	TransportHTTP      = "http"
	TransportInProcess = "inproc"
)

// MCPInitializeResult represents the initialize method result
type MCPInitializeResult struct {
	ProtocolVersion string                            `json:"protocolVersion"`
	Capabilities    map[string]map[string]interface{} `json:"capabilities"`
	ServerInfo      MCPServerInfo                     `json:"serverInfo"`
}

// MCPServerInfo identifies the server in the initialize handshake
type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Resources

// MCPResource describes a URI-addressed resource
type MCPResource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// MCPResourceContent is one entry of a resources/read result
type MCPResourceContent struct {
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Type     string `json:"type"`
	Text     string `json:"text"`
}

// MCPReadResourceResult represents the resources/read result
type MCPReadResourceResult struct {
	Contents []MCPResourceContent `json:"contents"`
}

// Tools

// MCPToolInfo represents tool information in MCP format
type MCPToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// MCPContent is a text content block
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MCPCallToolResult represents the tools/call result
type MCPCallToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// Prompts

// MCPPromptArgument describes one prompt argument
type MCPPromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// MCPPrompt describes a prompt template
type MCPPrompt struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Arguments   []MCPPromptArgument `json:"arguments"`
}

// MCPPromptMessage is a single message of a rendered prompt
type MCPPromptMessage struct {
	Role    string     `json:"role"`
	Content MCPContent `json:"content"`
}

// MCPGetPromptResult represents the prompts/get result
type MCPGetPromptResult struct {
	Description string             `json:"description"`
	Messages    []MCPPromptMessage `json:"messages"`
}

// Analytics Types

// CallEvent represents one dispatched request
type CallEvent struct {
	ID        string        `json:"id"`
	Method    string        `json:"method"`
	Target    string        `json:"target,omitempty"` // tool, prompt or resource URI
	Transport string        `json:"transport,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	ErrorCode int           `json:"error_code,omitempty"`
}

// Config Types

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	HTTP          HTTPConfig          `yaml:"http" mapstructure:"http"`
	Analytics     AnalyticsConfig     `yaml:"analytics" mapstructure:"analytics"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Weather       WeatherConfig       `yaml:"weather" mapstructure:"weather"`
}

// ServerConfig identifies the MCP server
type ServerConfig struct {
	Name            string `yaml:"name" mapstructure:"name" validate:"required"`
	Version         string `yaml:"version" mapstructure:"version" validate:"required"`
	ProtocolVersion string `yaml:"protocol_version" mapstructure:"protocol_version" validate:"required"`
}

// HTTPConfig represents HTTP server configuration
type HTTPConfig struct {
	Host           string        `yaml:"host" mapstructure:"host"`
	Port           int           `yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	BodyLimit      int           `yaml:"body_limit" mapstructure:"body_limit" validate:"gte=0"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int           `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst" validate:"gte=0"`
}

// AnalyticsConfig represents analytics configuration
type AnalyticsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// ObservabilityConfig represents observability configuration
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=console json"`
}

// WeatherConfig holds weather provider settings. Only mock data is served;
// the key is carried for parity with deployments that set WEATHER_API_KEY.
type WeatherConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// DefaultAPIKey is the placeholder key used when none is configured
const DefaultAPIKey = "demo_key"

// APIKeyConfigured reports whether a real key replaced the placeholder
func (w WeatherConfig) APIKeyConfigured() bool {
	return w.APIKey != "" && w.APIKey != DefaultAPIKey
}
