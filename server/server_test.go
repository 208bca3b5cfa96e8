package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"soundbite/protocol"
	"soundbite/services"
	"soundbite/types"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEngine is a deterministic audio engine for server tests.
type testEngine struct {
	durations   map[string]float64
	failExtract bool
}

func (e *testEngine) Probe(_ context.Context, path string) (float64, error) {
	d, ok := e.durations[filepath.Base(path)]
	if !ok {
		return 0, fmt.Errorf("no duration registered for %s", filepath.Base(path))
	}
	return d, nil
}

func (e *testEngine) Extract(_ context.Context, path string, startMS, endMS uint64, format string) ([]byte, error) {
	if e.failExtract {
		return nil, fmt.Errorf("codec exploded")
	}
	return []byte(fmt.Sprintf("%s|%s|%d|%d", filepath.Base(path), format, startMS, endMS)), nil
}

func startTestServer(t *testing.T, legacy bool) (*Server, *testEngine) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), []byte("stub"), 0o644))

	engine := &testEngine{durations: map[string]float64{"a.wav": 10.0}}
	catalog, err := services.BuildCatalog(context.Background(), dir, engine)
	require.NoError(t, err)

	srv := New(Options{Addr: "127.0.0.1:0", LegacyPlain: legacy}, catalog, engine, nil)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Serve(ctx)

	return srv, engine
}

func dialTestServer(t *testing.T, srv *Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn, bufio.NewReader(conn)
}

func sendCommand(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	require.NoError(t, protocol.WriteCommand(conn, line))
}

func readFrame(t *testing.T, r *bufio.Reader) (byte, []byte) {
	t.Helper()
	status, payload, err := protocol.ReadFramed(r)
	require.NoError(t, err)
	return status, payload
}

// TestListCommand tests that LIST returns the framed JSON catalog
func TestListCommand(t *testing.T) {
	srv, _ := startTestServer(t, false)
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "LIST")
	status, payload := readFrame(t, r)
	assert.Equal(t, protocol.StatusOK, status)

	var entries []types.CatalogEntry
	require.NoError(t, json.Unmarshal(payload, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "a.wav", entries[0].Filename)
	assert.InDelta(t, 10.0, entries[0].DurationSec, 1e-9)
	assert.Equal(t, "wav", entries[0].Format)
}

// TestGetSuccess tests a valid excerpt request end to end
func TestGetSuccess(t *testing.T) {
	srv, _ := startTestServer(t, false)
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "GET a.wav 2 5")
	status, payload := readFrame(t, r)
	assert.Equal(t, protocol.StatusOK, status)
	assert.Equal(t, "a.wav|wav|2000|5000", string(payload))
}

// TestGetRejections tests the failure responses a GET can produce
func TestGetRejections(t *testing.T) {
	srv, _ := startTestServer(t, false)
	conn, r := dialTestServer(t, srv)

	tests := []struct {
		name     string
		line     string
		contains string
	}{
		{name: "start after end", line: "GET a.wav 5 2", contains: "start time must be less than end time"},
		{name: "file not in catalog", line: "GET missing.wav 0 1", contains: "not found"},
		{name: "range exceeds duration", line: "GET a.wav 0 999", contains: "exceeds file duration"},
		{name: "non-numeric times", line: "GET a.wav x y", contains: "must be numbers"},
		{name: "wrong argument count", line: "GET a.wav 1", contains: "usage: GET <filename> <start> <end>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sendCommand(t, conn, tt.line)
			status, payload := readFrame(t, r)
			assert.Equal(t, protocol.StatusErr, status)
			assert.Contains(t, string(payload), tt.contains)
		})
	}
}

// TestUnknownCommandKeepsConnection tests that an unknown verb gets an
// error response and the connection stays usable
func TestUnknownCommandKeepsConnection(t *testing.T) {
	srv, _ := startTestServer(t, false)
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "FOO")
	status, payload := readFrame(t, r)
	assert.Equal(t, protocol.StatusErr, status)
	assert.Equal(t, "unknown command: FOO", string(payload))

	// Same connection must still serve commands.
	sendCommand(t, conn, "GET a.wav 0 1")
	status, payload = readFrame(t, r)
	assert.Equal(t, protocol.StatusOK, status)
	assert.Equal(t, "a.wav|wav|0|1000", string(payload))
}

// TestEmptyCommand tests that a bare newline is rejected without closing
// the connection
func TestEmptyCommand(t *testing.T) {
	srv, _ := startTestServer(t, false)
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "")
	status, payload := readFrame(t, r)
	assert.Equal(t, protocol.StatusErr, status)
	assert.Equal(t, "empty command", string(payload))

	sendCommand(t, conn, "LIST")
	status, _ = readFrame(t, r)
	assert.Equal(t, protocol.StatusOK, status)
}

// TestOversizedCommandLine tests that a command line longer than the cap is
// rejected with an error response and the connection is closed
func TestOversizedCommandLine(t *testing.T) {
	srv, _ := startTestServer(t, false)
	conn, r := dialTestServer(t, srv)

	_, err := conn.Write([]byte("GET " + strings.Repeat("a", maxCommandLen+1)))
	require.NoError(t, err)

	status, payload := readFrame(t, r)
	assert.Equal(t, protocol.StatusErr, status)
	assert.Contains(t, string(payload), "command line exceeds")

	// The stream cannot be resynchronized, so the server hangs up.
	_, err = r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

// TestGetIdempotent tests that the identical request yields byte-identical
// payloads, on the same and on different connections
func TestGetIdempotent(t *testing.T) {
	srv, _ := startTestServer(t, false)

	conn1, r1 := dialTestServer(t, srv)
	sendCommand(t, conn1, "GET a.wav 1.5 4.25")
	_, first := readFrame(t, r1)

	sendCommand(t, conn1, "GET a.wav 1.5 4.25")
	_, second := readFrame(t, r1)
	assert.Equal(t, first, second)

	conn2, r2 := dialTestServer(t, srv)
	sendCommand(t, conn2, "GET a.wav 1.5 4.25")
	_, third := readFrame(t, r2)
	assert.Equal(t, first, third)
}

// TestExtractionFailure tests that an engine failure becomes an error
// response instead of dropping the connection
func TestExtractionFailure(t *testing.T) {
	srv, engine := startTestServer(t, false)
	engine.failExtract = true

	conn, r := dialTestServer(t, srv)
	sendCommand(t, conn, "GET a.wav 0 1")
	status, payload := readFrame(t, r)
	assert.Equal(t, protocol.StatusErr, status)
	assert.Contains(t, string(payload), "cannot extract excerpt")

	// Connection survives the failure.
	engine.failExtract = false
	sendCommand(t, conn, "GET a.wav 0 1")
	status, _ = readFrame(t, r)
	assert.Equal(t, protocol.StatusOK, status)
}

// TestConcurrentConnections tests that many clients are served without
// interference
func TestConcurrentConnections(t *testing.T) {
	srv, _ := startTestServer(t, false)

	const clients = 8
	done := make(chan error, clients)

	for i := 0; i < clients; i++ {
		go func(n int) {
			conn, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				done <- err
				return
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(5 * time.Second))
			r := bufio.NewReader(conn)

			start := n % 5
			line := fmt.Sprintf("GET a.wav %d %d", start, start+2)
			if err := protocol.WriteCommand(conn, line); err != nil {
				done <- err
				return
			}

			status, payload, err := protocol.ReadFramed(r)
			if err != nil {
				done <- err
				return
			}
			want := fmt.Sprintf("a.wav|wav|%d|%d", start*1000, (start+2)*1000)
			if status != protocol.StatusOK || string(payload) != want {
				done <- fmt.Errorf("client %d: got status %c payload %q", n, status, payload)
				return
			}
			done <- nil
		}(i)
	}

	for i := 0; i < clients; i++ {
		require.NoError(t, <-done)
	}
}

// TestStatsCounters tests the process-lifetime counters
func TestStatsCounters(t *testing.T) {
	srv, _ := startTestServer(t, false)
	conn, r := dialTestServer(t, srv)

	sendCommand(t, conn, "LIST")
	readFrame(t, r)
	sendCommand(t, conn, "GET a.wav 0 1")
	readFrame(t, r)
	sendCommand(t, conn, "GET a.wav 9 2")
	readFrame(t, r)

	snap := srv.Stats().Snapshot()
	assert.GreaterOrEqual(t, snap.Connections, int64(1))
	assert.Equal(t, int64(3), snap.Commands)
	assert.Equal(t, int64(1), snap.Excerpts)
	assert.Equal(t, int64(1), snap.Errors)
}

// TestLegacyPlainReplies tests the original unframed protocol revision
func TestLegacyPlainReplies(t *testing.T) {
	srv, _ := startTestServer(t, true)

	t.Run("LIST is raw JSON", func(t *testing.T) {
		conn, _ := dialTestServer(t, srv)
		sendCommand(t, conn, "LIST")

		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		require.NoError(t, err)

		var entries []types.CatalogEntry
		require.NoError(t, json.Unmarshal(buf[:n], &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "a.wav", entries[0].Filename)
	})

	t.Run("unknown command is raw text", func(t *testing.T) {
		conn, _ := dialTestServer(t, srv)
		sendCommand(t, conn, "FOO")

		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "unknown command: FOO", string(buf[:n]))
	})

	t.Run("GET failures stay framed", func(t *testing.T) {
		conn, r := dialTestServer(t, srv)
		sendCommand(t, conn, "GET a.wav 5 2")
		status, payload := readFrame(t, r)
		assert.Equal(t, protocol.StatusErr, status)
		assert.Contains(t, string(payload), "start time must be less than end time")
	})
}

// TestShutdownStopsAccepting tests that cancelling the serve context closes
// the listener
func TestShutdownStopsAccepting(t *testing.T) {
	dir := t.TempDir()
	engine := &testEngine{durations: map[string]float64{}}
	catalog, err := services.BuildCatalog(context.Background(), dir, engine)
	require.NoError(t, err)

	srv := New(Options{Addr: "127.0.0.1:0"}, catalog, engine, nil)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}

	_, err = net.DialTimeout("tcp", srv.Addr().String(), 500*time.Millisecond)
	assert.Error(t, err)
}
