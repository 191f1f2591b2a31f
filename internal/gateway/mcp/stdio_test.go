package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var msgs []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		msgs = append(msgs, m)
	}
	return msgs
}

func TestStdioTransport_Serve(t *testing.T) {
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"bogus"}`,
		`{broken`,
	}, "\n") + "\n"

	var out bytes.Buffer
	transport := NewStdioTransport(setupTestServer(t), strings.NewReader(in), &out)

	require.NoError(t, transport.Serve(context.Background()))

	msgs := decodeLines(t, out.String())
	require.Len(t, msgs, 4)

	assert.Equal(t, float64(1), msgs[0]["id"])
	assert.Contains(t, msgs[0], "result")

	assert.Equal(t, float64(2), msgs[1]["id"])
	resources := msgs[1]["result"].(map[string]interface{})["resources"].([]interface{})
	assert.Len(t, resources, 3)

	assert.Equal(t, float64(-32601), msgs[2]["error"].(map[string]interface{})["code"])
	assert.Equal(t, float64(-32700), msgs[3]["error"].(map[string]interface{})["code"])
	assert.Nil(t, msgs[3]["id"])
}

func TestStdioTransport_NotificationOnly(t *testing.T) {
	var out bytes.Buffer
	transport := NewStdioTransport(setupTestServer(t),
		strings.NewReader(`{"jsonrpc":"2.0","method":"tools/list"}`+"\n"), &out)

	require.NoError(t, transport.Serve(context.Background()))
	assert.Empty(t, out.String())
}

func TestStdioTransport_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	transport := NewStdioTransport(setupTestServer(t), pr, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- transport.Serve(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("transport did not stop after cancel")
	}
}

func TestStdioTransport_ContextCancelClosesReader(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	transport := NewStdioTransport(setupTestServer(t), pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- transport.Serve(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("transport did not stop after cancel")
	}

	// the read side is closed, so the scanner is no longer blocked on it
	_, err := pw.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
