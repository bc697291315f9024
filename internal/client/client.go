// Package client is a FreshDeal TCP client. Every call opens a fresh
// connection, sends one request and reads the response until the server
// closes the connection.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/prn-tf/freshdeal/internal/protocol"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultMaxResponseBytes = 16 << 20
)

// ErrResponseTooLarge is returned when the server response exceeds the
// configured limit.
var ErrResponseTooLarge = errors.New("response too large")

// Client sends requests to a FreshDeal server.
type Client struct {
	addr             string
	timeout          time.Duration
	maxResponseBytes int64
	dialer           net.Dialer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each call when ctx carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxResponseBytes caps the size of a response.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) { c.maxResponseBytes = n }
}

// New creates a client for the server at addr.
func New(addr string, opts ...Option) *Client {
	c := &Client{
		addr:             addr,
		timeout:          defaultTimeout,
		maxResponseBytes: defaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends req and decodes the response.
func (c *Client) Do(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var buf bytes.Buffer
	if err := protocol.EncodeRequest(&buf, req); err != nil {
		return nil, err
	}

	raw, err := c.DoRaw(ctx, buf.Bytes())
	if err != nil {
		return nil, err
	}
	return protocol.DecodeResponse(raw)
}

// DoRaw sends payload verbatim and returns the raw response.
func (c *Client) DoRaw(ctx context.Context, payload []byte) ([]byte, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok && c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if !deadline.IsZero() {
		_ = conn.SetDeadline(deadline)
	}

	// Closing the connection unblocks pending reads when ctx ends first.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	raw, err := io.ReadAll(io.LimitReader(conn, c.maxResponseBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(raw)) > c.maxResponseBytes {
		return nil, ErrResponseTooLarge
	}
	return raw, nil
}
