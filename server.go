// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	tagFind int32 = 0
	tagCall int32 = 1
)

// Server is the server-side RPC stub: a listening endpoint, a registry of
// named handlers, and the bookkeeping needed to serve many connections
// concurrently. Unlike the original C implementation, which stored a
// pointer to a stack-local file descriptor (server->listen_fd = &listen_fd),
// Server owns its net.Listener by value — there is no dangling reference
// once InitServer returns.
type Server struct {
	opts     serverOptions
	ln       net.Listener
	registry *Registry

	sealed atomic.Bool // true once ServeAll has begun; Register rejects after this point

	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// InitServer resolves the IPv6 passive-any address on port, binds and
// listens with SO_REUSEADDR enabled and a kernel-default backlog
// (satisfying spec.md's ">= 10" requirement on every platform Go
// supports), and returns a ready-to-register Server. A failure at any step
// returns a *SetupError and no partially-initialized Server escapes.
func InitServer(port uint16, opts ...ServerOption) (*Server, error) {
	o := defaultServerOptions
	for _, fn := range opts {
		fn(&o)
	}

	addr := fmt.Sprintf("[::]:%d", port)
	ln, err := reuseAddrListenConfig().Listen(context.Background(), "tcp6", addr)
	if err != nil {
		return nil, newSetupError("listen", err)
	}

	s := &Server{
		opts:     o,
		ln:       ln,
		registry: NewRegistry(),
	}
	return s, nil
}

// Register binds name to handler before ServeAll begins accepting
// connections. Calling Register after ServeAll has started returns
// ErrServerSealed; spec.md §4.4.2 calls this case "unsupported", and mrpc
// reports it rather than racing the registry.
func (s *Server) Register(name string, handler Handler) error {
	if s.sealed.Load() {
		return ErrServerSealed
	}
	return s.registry.Register(name, handler)
}

// ServeAll accepts connections until Stop is called. Each accepted
// connection is dispatched to its own goroutine and handled independently;
// workers share nothing but the (now read-only) registry. Accept failures
// are logged and do not stop the loop, except when they follow Stop closing
// the listener, in which case ServeAll returns nil. It does not return an
// error for any other accept failure.
//
// spec.md describes ServeAll as never returning; mrpc adds a Stop method
// so the server can be shut down gracefully in tests and by a process
// supervisor, which is the one deliberate deviation from the spec's
// "-> !" signature (see SPEC_FULL.md §8).
func (s *Server) ServeAll() error {
	s.sealed.Store(true)
	s.opts.logger.Info("mrpc: server accepting connections", zap.Stringer("addr", s.ln.Addr()))

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			s.opts.logger.Warn("mrpc: accept failed", zap.Error(err))
			continue
		}
		s.opts.metrics.connectionAccepted()
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// Stop closes the listener, causing ServeAll to return once its current
// Accept call unblocks, then waits for in-flight connection workers to
// exit. Stop does not close accepted connections: a worker exits when its
// peer disconnects or its peer stays idle past the per-connection timeout,
// which is renewed before each request. Stop therefore waits for as long as
// any connected client keeps issuing requests.
func (s *Server) Stop() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	err := s.ln.Close()
	s.closeMu.Unlock()

	s.wg.Wait()
	return err
}

// Addr returns the listener's bound address, useful when InitServer was
// called with port 0 to let the kernel pick an ephemeral port.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Server) isClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}

// serveConn is the per-connection worker of spec.md §4.4.4: read a request
// tag, dispatch to FIND or CALL, repeat until the tag read fails or is
// unrecognized. Requests within one connection are strictly serial.
func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		_ = conn.Close()
		s.opts.metrics.connectionClosed()
	}()

	log := s.opts.logger.With(zap.Stringer("remote", conn.RemoteAddr()))

	for {
		if s.opts.timeout > 0 {
			if err := conn.SetDeadline(time.Now().Add(s.opts.timeout)); err != nil {
				log.Debug("mrpc: set deadline failed", zap.Error(err))
				return
			}
		}

		tag, err := getInt32(conn)
		if err != nil {
			// Peer closed or timed out: exit the worker cleanly.
			return
		}

		switch tag {
		case tagFind:
			if err := s.serveFind(conn, log); err != nil {
				log.Debug("mrpc: find request failed", zap.Error(err))
				return
			}
		case tagCall:
			if err := s.serveCall(conn, log); err != nil {
				log.Debug("mrpc: call request failed", zap.Error(err))
				return
			}
		default:
			// Unrecognized tag: terminate this connection cleanly.
			return
		}
	}
}

// serveFind implements the FIND body of spec.md §4.4.4 / §6.
func (s *Server) serveFind(conn net.Conn, log *zap.Logger) error {
	nameLen, err := getUint64(conn)
	if err != nil {
		return newTransportError("read", err)
	}
	nameBytes, err := getBytes(conn, nameLen)
	if err != nil {
		return newTransportError("read", err)
	}
	name := string(nameBytes)

	fn, ok := s.registry.FindByName(name)
	s.opts.metrics.find(ok)
	if !ok {
		log.Debug("mrpc: find miss", zap.String("name", name))
		if err := putInt32(conn, -1); err != nil {
			return newTransportError("write", err)
		}
		return nil
	}

	if err := putInt32(conn, 0); err != nil {
		return newTransportError("write", err)
	}
	if err := putUint64(conn, fn.id); err != nil {
		return newTransportError("write", err)
	}
	return nil
}

// serveCall implements the CALL body of spec.md §4.4.4 / §6.
func (s *Server) serveCall(conn net.Conn, log *zap.Logger) error {
	id, err := getUint64(conn)
	if err != nil {
		return newTransportError("read", err)
	}

	fn, ok := s.registry.FindByID(id)
	if !ok {
		if err := putInt32(conn, -1); err != nil {
			return newTransportError("write", err)
		}
		s.opts.metrics.call("miss", 0)
		log.Debug("mrpc: call verification miss", zap.Uint64("id", id))
		return nil
	}
	if err := putInt32(conn, 0); err != nil {
		return newTransportError("write", err)
	}

	// A CALL's request payload is not optional, unlike its response: reject
	// a null payload here instead of handing one to fn.handler, which is
	// free to assume a non-nil *Payload the way add2-style handlers do.
	payload, err := readPayload(conn, s.opts.maxBlobLen, false)
	if err != nil {
		s.opts.metrics.call("error", 0)
		return err
	}

	start := time.Now()
	response := fn.handler(payload)
	payload.Free()
	elapsed := time.Since(start)

	if err := writePayload(conn, response, s.opts.maxBlobLen); err != nil {
		s.opts.metrics.call("error", elapsed)
		return err
	}
	response.Free()
	s.opts.metrics.call("ok", elapsed)
	return nil
}
