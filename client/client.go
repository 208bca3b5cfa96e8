// Package client implements the excerpt service command protocol from the
// requesting side.
package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"soundbite/protocol"
	"soundbite/types"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Client holds one connection to the excerpt server. It is not safe for
// concurrent use; commands on a connection are strictly sequential.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the server.
func Dial(host string, port int) (*Client, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d: %w", host, port, err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// List fetches the catalog.
func (c *Client) List() ([]types.CatalogEntry, error) {
	if err := protocol.WriteCommand(c.conn, "LIST"); err != nil {
		return nil, err
	}

	status, payload, err := protocol.ReadFramed(c.reader)
	if err != nil {
		return nil, fmt.Errorf("read LIST response: %w", err)
	}
	if status != protocol.StatusOK {
		return nil, fmt.Errorf("server error: %s", payload)
	}

	var entries []types.CatalogEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return entries, nil
}

// Fetch requests the [start, end) excerpt of filename and streams it into
// outPath, showing transfer progress. A server-side rejection comes back
// as an error carrying the server's message.
func (c *Client) Fetch(filename string, startSec, endSec float64, outPath string) error {
	cmdLine := fmt.Sprintf("GET %s %g %g", filename, startSec, endSec)
	if err := protocol.WriteCommand(c.conn, cmdLine); err != nil {
		return err
	}

	status, length, err := protocol.ReadFrameHeader(c.reader)
	if err != nil {
		return fmt.Errorf("read GET response: %w", err)
	}

	if status != protocol.StatusOK {
		msg := make([]byte, length)
		if _, err := io.ReadFull(c.reader, msg); err != nil {
			return fmt.Errorf("read error payload: %w", err)
		}
		return fmt.Errorf("server error: %s", msg)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	bar := progressbar.DefaultBytes(int64(length), "receiving excerpt")
	if _, err := io.CopyN(io.MultiWriter(out, bar), c.reader, int64(length)); err != nil {
		return fmt.Errorf("transfer interrupted: %w", err)
	}

	return nil
}
