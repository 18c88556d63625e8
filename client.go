// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import (
	"fmt"
	"net"

	"go.uber.org/zap"
)

// Handle is the opaque token returned by Find and consumed by Call. It
// wraps the DJB2 hash of the procedure name; it is valid only against the
// server it was obtained from. Because the id depends on the name alone, a
// restarted server that registers the same name answers the same Handle.
type Handle struct {
	id uint64
}

// Client is the client-side RPC stub: a single connection and serialized
// access to it, matching spec.md's single-threaded-client assumption. A
// Client is not safe for concurrent Find/Call calls from multiple
// goroutines; callers that need concurrent RPCs should use one Client per
// goroutine.
type Client struct {
	opts clientOptions
	conn net.Conn
}

// InitClient resolves addr for IPv6 stream and connects to it on port. A
// connection failure returns a *SetupError and no partially-initialized
// Client escapes.
func InitClient(addr string, port uint16, opts ...ClientOption) (*Client, error) {
	o := defaultClientOptions
	for _, fn := range opts {
		fn(&o)
	}

	target := fmt.Sprintf("[%s]:%d", addr, port)
	conn, err := net.Dial("tcp6", target)
	if err != nil {
		// addr is a bare host, not host:port. If it has no IPv6 address
		// (an IPv4 literal, or a name with only IPv4 records), fall back
		// to the generic "tcp" dialer before giving up.
		conn, err = net.Dial("tcp", net.JoinHostPort(addr, fmt.Sprintf("%d", port)))
		if err != nil {
			return nil, newSetupError("dial", err)
		}
	}

	return &Client{opts: o, conn: conn}, nil
}

// Find sends a FIND request for name and returns the Handle the server
// reports, or nil if the server has no procedure registered under that
// name. A miss is not an error: the connection remains usable for further
// requests (spec.md §7, "Protocol failure").
func (c *Client) Find(name string) (*Handle, error) {
	if err := putInt32(c.conn, tagFind); err != nil {
		return nil, newTransportError("write", err)
	}
	if err := putUint64(c.conn, uint64(len(name))); err != nil {
		return nil, newTransportError("write", err)
	}
	if err := putBytes(c.conn, []byte(name)); err != nil {
		return nil, newTransportError("write", err)
	}

	flag, err := getInt32(c.conn)
	if err != nil {
		return nil, newTransportError("read", err)
	}
	if flag != 0 {
		c.opts.logger.Debug("mrpc: find miss", zap.String("name", name))
		c.opts.metrics.find("miss")
		return nil, nil
	}
	id, err := getUint64(c.conn)
	if err != nil {
		return nil, newTransportError("read", err)
	}
	c.opts.metrics.find("hit")
	return &Handle{id: id}, nil
}

// Call invokes the procedure identified by h with payload and returns its
// response, or nil if the server reports it no longer recognizes h (for
// example, because it restarted) or the handler produced no response
// payload. payload itself must be non-nil: unlike the response, a call's
// request payload is not optional. A verification miss is a protocol
// failure, not a transport failure: the connection remains open for
// further requests.
func (c *Client) Call(h *Handle, payload *Payload) (*Payload, error) {
	if h == nil {
		return nil, ErrInvalidArgument
	}
	// The request payload is not optional: the server's handler is free to
	// assume a non-nil *Payload. Reject here, before anything goes on the
	// wire, the way the original sender-side check did.
	if payload == nil {
		return nil, ErrInvalidArgument
	}

	if err := putInt32(c.conn, tagCall); err != nil {
		return nil, newTransportError("write", err)
	}
	if err := putUint64(c.conn, h.id); err != nil {
		return nil, newTransportError("write", err)
	}

	flag, err := getInt32(c.conn)
	if err != nil {
		return nil, newTransportError("read", err)
	}
	if flag < 0 {
		c.opts.logger.Debug("mrpc: call verification miss", zap.Uint64("id", h.id))
		c.opts.metrics.call("miss")
		return nil, nil
	}

	if err := writePayload(c.conn, payload, c.opts.maxBlobLen); err != nil {
		c.opts.metrics.call("error")
		return nil, err
	}

	response, err := readPayload(c.conn, c.opts.maxBlobLen, true)
	if err != nil {
		c.opts.metrics.call("error")
		return nil, err
	}
	c.opts.metrics.call("ok")
	return response, nil
}

// Close closes the underlying connection and releases the Client.
func (c *Client) Close() error {
	return c.conn.Close()
}
