package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Denis-Chistyakov/weather-mcp/internal/catalog"
	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// Recorder receives one event per dispatched request
type Recorder interface {
	RecordCall(event *types.CallEvent)
}

// handlerFunc produces either a result payload or an error object
type handlerFunc func(params map[string]interface{}) (interface{}, *types.MCPError)

// Server dispatches JSON-RPC requests to the weather catalogs.
// It holds no per-session state and is safe for concurrent use.
type Server struct {
	catalog  *catalog.Catalog
	info     types.ServerConfig
	recorder Recorder
	handlers map[string]handlerFunc
}

// Option configures a Server
type Option func(*Server)

// WithServerInfo overrides the identity reported by initialize.
// Empty fields keep their defaults.
func WithServerInfo(info types.ServerConfig) Option {
	return func(s *Server) {
		if info.Name != "" {
			s.info.Name = info.Name
		}
		if info.Version != "" {
			s.info.Version = info.Version
		}
		if info.ProtocolVersion != "" {
			s.info.ProtocolVersion = info.ProtocolVersion
		}
	}
}

// WithRecorder attaches an analytics recorder
func WithRecorder(r Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// NewServer creates a new MCP server over a catalog
func NewServer(cat *catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog: cat,
		info: types.ServerConfig{
			Name:            types.DefaultServerName,
			Version:         types.DefaultServerVersion,
			ProtocolVersion: types.DefaultProtocolVersion,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handlers = map[string]handlerFunc{
		"initialize":     s.handleInitialize,
		"resources/list": s.handleListResources,
		"resources/read": s.handleReadResource,
		"tools/list":     s.handleListTools,
		"tools/call":     s.handleCallTool,
		"prompts/list":   s.handleListPrompts,
		"prompts/get":    s.handleGetPrompt,
	}

	return s
}

// Methods returns the names of the registered methods
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	return methods
}

// HandleRequest handles a single MCP request dispatched in-process
func (s *Server) HandleRequest(req *types.MCPRequest) *types.MCPResponse {
	return s.Handle(types.TransportInProcess, req)
}

// Handle dispatches a request received over the named transport.
// It always returns a response; callers drop it for notifications.
func (s *Server) Handle(transport string, req *types.MCPRequest) (resp *types.MCPResponse) {
	start := time.Now()

	log.Debug().
		Str("method", req.Method).
		Interface("id", req.ID).
		Str("transport", transport).
		Msg("MCP request received")

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("method", req.Method).
				Msg("Handler panicked")
			resp = s.errorResponse(req.ID, types.MCPErrorInternalError, fmt.Sprintf("Internal error: %v", r))
		}
		s.record(transport, req, resp, time.Since(start))
	}()

	handler, ok := s.handlers[req.Method]
	if !ok {
		return s.errorResponse(req.ID, types.MCPErrorMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method))
	}

	params := req.Params
	if params == nil {
		params = map[string]interface{}{}
	}

	result, mcpErr := handler(params)
	if mcpErr != nil {
		log.Debug().
			Str("method", req.Method).
			Int("code", mcpErr.Code).
			Str("error", mcpErr.Message).
			Msg("MCP request failed")
		return &types.MCPResponse{JSONRPC: types.JSONRPCVersion, ID: req.ID, Error: mcpErr}
	}

	return &types.MCPResponse{
		JSONRPC: types.JSONRPCVersion,
		ID:      req.ID,
		Result:  result,
	}
}

// HandleMessage parses and dispatches one raw message. It returns nil when
// the message is a notification and no response must be written.
func (s *Server) HandleMessage(transport string, data []byte) *types.MCPResponse {
	req, err := s.ParseRequest(data)
	if err != nil {
		log.Warn().
			Int("code", err.Code).
			Str("error", err.Message).
			Str("transport", transport).
			Msg("Rejected MCP message")
		var id interface{}
		if req != nil {
			id = req.ID
		}
		return s.errorResponse(id, err.Code, err.Message)
	}

	resp := s.Handle(transport, req)
	if req.IsNotification() {
		return nil
	}
	return resp
}

func (s *Server) handleInitialize(_ map[string]interface{}) (interface{}, *types.MCPError) {
	log.Info().Msg("MCP client initialized")

	return types.MCPInitializeResult{
		ProtocolVersion: s.info.ProtocolVersion,
		Capabilities: map[string]map[string]interface{}{
			"resources": {},
			"tools":     {},
			"prompts":   {},
			"logging":   {},
		},
		ServerInfo: types.MCPServerInfo{
			Name:    s.info.Name,
			Version: s.info.Version,
		},
	}, nil
}

func (s *Server) handleListResources(_ map[string]interface{}) (interface{}, *types.MCPError) {
	return map[string]interface{}{
		"resources": s.catalog.ListResources(),
	}, nil
}

func (s *Server) handleReadResource(params map[string]interface{}) (interface{}, *types.MCPError) {
	result, err := s.catalog.ReadResource(stringParam(params, "uri"))
	if err != nil {
		return nil, toMCPError(err, "")
	}
	return result, nil
}

func (s *Server) handleListTools(_ map[string]interface{}) (interface{}, *types.MCPError) {
	return map[string]interface{}{
		"tools": s.catalog.ListTools(),
	}, nil
}

func (s *Server) handleCallTool(params map[string]interface{}) (interface{}, *types.MCPError) {
	name := stringParam(params, "name")

	args, err := argumentsParam(params)
	if err != nil {
		return nil, toMCPError(err, "Tool execution failed: ")
	}

	result, err := s.catalog.CallTool(name, args)
	if err != nil {
		return nil, toMCPError(err, "Tool execution failed: ")
	}

	log.Debug().
		Str("tool", name).
		Interface("args", args).
		Msg("Tool executed via MCP")

	return result, nil
}

func (s *Server) handleListPrompts(_ map[string]interface{}) (interface{}, *types.MCPError) {
	return map[string]interface{}{
		"prompts": s.catalog.ListPrompts(),
	}, nil
}

func (s *Server) handleGetPrompt(params map[string]interface{}) (interface{}, *types.MCPError) {
	args, err := argumentsParam(params)
	if err != nil {
		return nil, toMCPError(err, "")
	}

	result, err := s.catalog.GetPrompt(stringParam(params, "name"), args)
	if err != nil {
		return nil, toMCPError(err, "")
	}
	return result, nil
}

// toMCPError maps catalog lookups to -32602 and everything else to -32603
func toMCPError(err error, prefix string) *types.MCPError {
	var nf *catalog.NotFoundError
	if errors.As(err, &nf) {
		return types.NewMCPError(types.MCPErrorInvalidParams, nf.Error())
	}
	return types.NewMCPError(types.MCPErrorInternalError, prefix+err.Error())
}

// stringParam reads a name-like parameter; missing is "", non-strings are
// rendered so they surface in the "Unknown ..." message.
func stringParam(params map[string]interface{}, key string) string {
	switch v := params[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// argumentsParam reads the optional arguments object
func argumentsParam(params map[string]interface{}) (map[string]interface{}, error) {
	switch v := params["arguments"].(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	default:
		return nil, fmt.Errorf("arguments must be an object, got %T", v)
	}
}

func (s *Server) record(transport string, req *types.MCPRequest, resp *types.MCPResponse, d time.Duration) {
	if s.recorder == nil {
		return
	}

	event := &types.CallEvent{
		ID:        uuid.New().String(),
		Method:    req.Method,
		Target:    callTarget(req),
		Transport: transport,
		Timestamp: time.Now(),
		Duration:  d,
		Success:   resp != nil && resp.Error == nil,
	}
	if resp != nil && resp.Error != nil {
		event.ErrorCode = resp.Error.Code
	}
	s.recorder.RecordCall(event)
}

// callTarget names what a request acted on, for analytics
func callTarget(req *types.MCPRequest) string {
	switch req.Method {
	case "tools/call", "prompts/get":
		return stringParam(req.Params, "name")
	case "resources/read":
		return stringParam(req.Params, "uri")
	default:
		return ""
	}
}

// errorResponse creates an error response
func (s *Server) errorResponse(id interface{}, code int, message string) *types.MCPResponse {
	return &types.MCPResponse{
		JSONRPC: types.JSONRPCVersion,
		ID:      id,
		Error:   types.NewMCPError(code, message),
	}
}

// envelope mirrors MCPRequest with the variable parts left raw
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// ParseRequest parses a JSON-RPC request. Malformed JSON is a parse error;
// well-formed JSON that is not a 2.0 request is an invalid request. The
// returned request carries the decoded id whenever one could be read, so
// error responses can echo it. The id is kept as raw JSON and echoed verbatim.
func (s *Server) ParseRequest(data []byte) (*types.MCPRequest, *types.MCPError) {
	if !json.Valid(data) {
		return nil, types.NewMCPError(types.MCPErrorParseError, "Parse error")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, types.NewMCPError(types.MCPErrorInvalidRequest,
			fmt.Sprintf("Invalid Request: %v", err))
	}

	req := &types.MCPRequest{
		JSONRPC: env.JSONRPC,
		Method:  env.Method,
	}
	if id := bytes.TrimSpace(env.ID); len(id) > 0 && !bytes.Equal(id, []byte("null")) {
		req.ID = json.RawMessage(id)
	}

	if env.JSONRPC != types.JSONRPCVersion {
		return req, types.NewMCPError(types.MCPErrorInvalidRequest,
			fmt.Sprintf("Invalid Request: unsupported jsonrpc version %q", env.JSONRPC))
	}
	if env.Method == "" {
		return req, types.NewMCPError(types.MCPErrorInvalidRequest, "Invalid Request: missing method")
	}

	if p := bytes.TrimSpace(env.Params); len(p) > 0 && !bytes.Equal(p, []byte("null")) {
		if p[0] != '{' {
			return req, types.NewMCPError(types.MCPErrorInvalidRequest, "Invalid Request: params must be an object")
		}
		if err := json.Unmarshal(p, &req.Params); err != nil {
			return req, types.NewMCPError(types.MCPErrorInvalidRequest,
				fmt.Sprintf("Invalid Request: %v", err))
		}
	}

	return req, nil
}

// FormatResponse formats a response as JSON
func (s *Server) FormatResponse(resp *types.MCPResponse) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to format response: %w", err)
	}
	return data, nil
}
