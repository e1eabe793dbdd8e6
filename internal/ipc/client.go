package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client is one connection to the control socket, reused across calls.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial connects to the control socket at path. A zero timeout means
// DefaultTimeout plus a second of slack for the server's own timeout.
func Dial(path string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout + time.Second
	}
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to orion: %w (is it running?)", err)
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn), timeout: timeout}, nil
}

// Call sends req and waits for its reply. ERROR and EXCEPTION replies are
// returned as responses, not errors; err is set only when the exchange
// itself fails.
func (c *Client) Call(req *Request) (*Response, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// Command builds and sends a request in one step.
func (c *Client) Command(selectors []Selector, name string, args ...any) (*Response, error) {
	return c.Call(&Request{Selectors: selectors, Name: name, Args: args})
}

// Close hangs up.
func (c *Client) Close() error {
	return c.conn.Close()
}
