package mcpclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// StdioTransport implements Transport for stdio-based MCP servers.
// It spawns a process and exchanges line-delimited JSON-RPC on its pipes.
type StdioTransport struct {
	config *TransportConfig

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	// Request tracking, keyed by normalized id
	pending   map[interface{}]chan *types.MCPResponse
	pendingMu sync.Mutex

	connected atomic.Bool

	done       chan struct{}
	readDone   chan struct{}
	stderrDone chan struct{}
	exited     chan struct{}
	writeMu    sync.Mutex // Serialize writes to stdin
	closeOnce  sync.Once
}

// NewStdioTransport spawns the configured command
func NewStdioTransport(cfg *TransportConfig) (*StdioTransport, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("command is required for stdio transport")
	}

	t := &StdioTransport{
		config:     cfg,
		pending:    make(map[interface{}]chan *types.MCPResponse),
		done:       make(chan struct{}),
		readDone:   make(chan struct{}),
		stderrDone: make(chan struct{}),
		exited:     make(chan struct{}),
	}

	if err := t.start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	return t, nil
}

// start spawns the MCP server process
func (t *StdioTransport) start() error {
	log.Debug().
		Str("command", t.config.Command).
		Strs("args", t.config.Args).
		Msg("Starting stdio MCP server process")

	t.cmd = exec.Command(t.config.Command, t.config.Args...)

	if t.config.WorkDir != "" {
		t.cmd.Dir = t.config.WorkDir
	}

	if len(t.config.Env) > 0 {
		env := make([]string, 0, len(t.config.Env))
		for k, v := range t.config.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		t.cmd.Env = append(t.cmd.Environ(), env...)
	}

	stdin, err := t.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	t.stdin = stdin

	stdout, err := t.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	t.stdout = stdout

	stderr, err := t.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	t.stderr = stderr

	if err := t.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}

	t.connected.Store(true)

	go t.readLoop()
	go t.logStderr()
	go t.monitorProcess()

	log.Debug().
		Int("pid", t.cmd.Process.Pid).
		Msg("Stdio MCP server process started")

	return nil
}

// readLoop reads responses from stdout and dispatches to pending requests
func (t *StdioTransport) readLoop() {
	defer close(t.readDone)

	scanner := bufio.NewScanner(t.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp types.MCPResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			log.Warn().
				Err(err).
				Str("line", string(line)).
				Msg("Failed to parse MCP response")
			continue
		}

		if resp.ID == nil {
			log.Debug().
				Interface("error", resp.Error).
				Msg("Received MCP message without id")
			continue
		}

		id := normalizeID(resp.ID)

		t.pendingMu.Lock()
		ch, ok := t.pending[id]
		if ok {
			delete(t.pending, id)
		}
		t.pendingMu.Unlock()

		if !ok {
			log.Warn().Interface("id", resp.ID).Msg("Received response for unknown request")
			continue
		}
		ch <- &resp
	}

	if err := scanner.Err(); err != nil && t.connected.Load() {
		log.Error().Err(err).Msg("Error reading from stdio")
	}
}

// logStderr forwards the child's stderr to the debug log
func (t *StdioTransport) logStderr() {
	defer close(t.stderrDone)

	scanner := bufio.NewScanner(t.stderr)
	for scanner.Scan() {
		log.Debug().
			Str("source", "mcp-stderr").
			Str("command", t.config.Command).
			Str("line", scanner.Text()).
			Msg("MCP server stderr")
	}
}

// monitorProcess marks the transport disconnected when the child exits
func (t *StdioTransport) monitorProcess() {
	// pipes must be drained before Wait closes them
	<-t.readDone
	<-t.stderrDone
	err := t.cmd.Wait()
	t.connected.Store(false)
	close(t.exited)

	select {
	case <-t.done:
		return
	default:
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("command", t.config.Command).
			Msg("MCP server process exited with error")
	} else {
		log.Debug().
			Str("command", t.config.Command).
			Msg("MCP server process exited")
	}
}

// Send writes a request and waits for the matching response
func (t *StdioTransport) Send(ctx context.Context, req *types.MCPRequest) (*types.MCPResponse, error) {
	if !t.connected.Load() {
		return nil, fmt.Errorf("transport not connected")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var ch chan *types.MCPResponse
	id := normalizeID(req.ID)
	if !req.IsNotification() {
		ch = make(chan *types.MCPResponse, 1)
		t.pendingMu.Lock()
		t.pending[id] = ch
		t.pendingMu.Unlock()
		defer func() {
			t.pendingMu.Lock()
			delete(t.pending, id)
			t.pendingMu.Unlock()
		}()
	}

	t.writeMu.Lock()
	_, err = t.stdin.Write(append(data, '\n'))
	t.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write to stdin: %w", err)
	}

	if ch == nil {
		return nil, nil
	}

	var timeout <-chan time.Time
	if t.config.Timeout > 0 {
		timer := time.NewTimer(t.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, fmt.Errorf("request timed out after %s", t.config.Timeout)
	case <-t.exited:
		// a response may have landed just before exit
		select {
		case resp := <-ch:
			return resp, nil
		default:
		}
		return nil, fmt.Errorf("process exited before responding")
	}
}

// Close closes stdin and stops the process
func (t *StdioTransport) Close() error {
	t.closeOnce.Do(func() {
		log.Debug().Str("command", t.config.Command).Msg("Closing stdio transport")

		close(t.done)

		// Closing stdin lets a well-behaved server exit on EOF
		if t.stdin != nil {
			t.stdin.Close()
		}

		select {
		case <-t.exited:
		case <-time.After(5 * time.Second):
			log.Warn().Msg("Process did not exit in time, killing")
			if t.cmd != nil && t.cmd.Process != nil {
				if err := t.cmd.Process.Kill(); err != nil {
					log.Warn().Err(err).Msg("Failed to kill process")
				}
			}
			<-t.exited
		}

		t.connected.Store(false)
	})

	return nil
}

// IsConnected returns true if the transport is connected
func (t *StdioTransport) IsConnected() bool {
	return t.connected.Load()
}

// Type returns the transport type
func (t *StdioTransport) Type() TransportType {
	return TransportStdio
}

// GetPID returns the process ID if running
func (t *StdioTransport) GetPID() int {
	if t.cmd != nil && t.cmd.Process != nil {
		return t.cmd.Process.Pid
	}
	return 0
}

// normalizeID normalizes request/response IDs for consistent map lookup.
// JSON unmarshals numbers as float64, but requests are sent with ints.
func normalizeID(id interface{}) interface{} {
	switch v := id.(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int64:
		return int(v)
	case int32:
		return int(v)
	default:
		return id
	}
}
