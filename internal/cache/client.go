package cache

import (
	"encoding/json"
	"net"
	"time"

	"github.com/workshoplabs/refgate/internal/logger"
)

// Client implements KV against a cache daemon over a Unix socket, so several
// processes (gateway, MCP server, one-off tools) share a single cache. A
// daemon that is down or misbehaving degrades to cache misses, never errors.
type Client struct {
	socketPath string
	metrics    Metrics
}

// NewClient creates a daemon-backed KV. The socket is dialed per operation.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, metrics: NoopMetrics{}}
}

// WithMetrics attaches a Metrics sink and returns the client.
func (c *Client) WithMetrics(m Metrics) *Client {
	if m != nil {
		c.metrics = m
	}
	return c
}

func (c *Client) roundTrip(req Request) (Response, bool) {
	conn, err := net.DialTimeout("unix", c.socketPath, 500*time.Millisecond)
	if err != nil {
		logger.Warnf("cache: daemon dial: %v", err)
		return Response{}, false
	}
	defer conn.Close()
	if err := json.NewEncoder(conn).Encode(&req); err != nil {
		logger.Warnf("cache: daemon %s encode: %v", req.Op, err)
		return Response{}, false
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		logger.Warnf("cache: daemon %s decode: %v", req.Op, err)
		return Response{}, false
	}
	if !resp.OK {
		logger.Warnf("cache: daemon %s: %s", req.Op, resp.Error)
		return Response{}, false
	}
	return resp, true
}

func (c *Client) Get(key string) ([]byte, bool) {
	resp, ok := c.roundTrip(Request{Op: "get", Key: key})
	if !ok || !resp.Found {
		c.metrics.Miss()
		return nil, false
	}
	c.metrics.Hit()
	return resp.Value, true
}

func (c *Client) Set(key string, value []byte) {
	if _, ok := c.roundTrip(Request{Op: "set", Key: key, Value: value}); ok {
		c.metrics.Write()
	}
}

func (c *Client) Delete(keys ...string) {
	if len(keys) == 0 {
		return
	}
	if _, ok := c.roundTrip(Request{Op: "delete", Keys: keys}); ok {
		c.metrics.Invalidate()
	}
}

func (c *Client) Clear() {
	if _, ok := c.roundTrip(Request{Op: "clear"}); ok {
		c.metrics.Invalidate()
	}
}
