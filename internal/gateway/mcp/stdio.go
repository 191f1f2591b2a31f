package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

// maxLineSize bounds a single JSON-RPC message on stdin
const maxLineSize = 1024 * 1024

// StdioTransport serves line-delimited JSON-RPC over a reader/writer pair
// (stdin/stdout in production). Logs never go to the writer.
type StdioTransport struct {
	server *Server
	in     io.Reader
	out    io.Writer
	mu     sync.Mutex
}

// NewStdioTransport creates a new stdio transport
func NewStdioTransport(server *Server, in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{
		server: server,
		in:     in,
		out:    out,
	}
}

// Serve runs the read-dispatch-write loop until EOF or ctx is cancelled.
// Cancellation is observed between messages. On cancel the reader is closed
// when it is an io.Closer so the blocked scan returns; otherwise the scanning
// goroutine lingers until the next line or EOF.
func (t *StdioTransport) Serve(ctx context.Context) error {
	log.Info().Msg("Starting MCP stdio transport")

	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			if c, ok := t.in.(io.Closer); ok {
				if err := c.Close(); err != nil {
					log.Debug().Err(err).Msg("Failed to close stdin")
				}
			}
			log.Info().Msg("Stdio transport stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("failed to read from stdin: %w", err)
				}
				log.Info().Msg("Stdin closed, exiting")
				return nil
			}

			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			resp := t.server.HandleMessage(types.TransportStdio, line)
			if resp == nil {
				continue
			}

			if err := t.writeResponse(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
}

// writeResponse writes one response followed by a newline
func (t *StdioTransport) writeResponse(resp *types.MCPResponse) error {
	data, err := t.server.FormatResponse(resp)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	_, err = t.out.Write(append(data, '\n'))
	return err
}
