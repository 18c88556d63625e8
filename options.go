// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import (
	"time"

	"go.uber.org/zap"
)

// defaultSocketTimeout is the 10-second receive/send timeout spec.md §5
// names as canonical across the original's revisions.
const defaultSocketTimeout = 10 * time.Second

// serverOptions configures a Server constructed via InitServer.
type serverOptions struct {
	maxBlobLen uint64
	timeout    time.Duration
	logger     *zap.Logger
	metrics    *ServerMetrics
}

var defaultServerOptions = serverOptions{
	maxBlobLen: defaultMaxBlobLen,
	timeout:    defaultSocketTimeout,
	logger:     zap.NewNop(),
}

// ServerOption configures a Server at construction time.
type ServerOption func(*serverOptions)

// WithServerMaxBlobLen overrides the maximum blob length this server
// declares during payload size negotiation (spec.md §4.3).
func WithServerMaxBlobLen(n uint64) ServerOption {
	return func(o *serverOptions) { o.maxBlobLen = n }
}

// WithServerTimeout overrides the read/write deadline applied to each
// accepted connection. spec.md §5 specifies 10s as canonical.
func WithServerTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) { o.timeout = d }
}

// WithServerLogger attaches a zap logger for accept-loop and per-connection
// diagnostics. The default is a no-op logger, matching the teacher
// library's silence unless a caller opts in.
func WithServerLogger(l *zap.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithServerMetrics attaches a ServerMetrics instance backed by a
// Prometheus registry. Nil disables metrics (the zero value of
// *ServerMetrics no-ops on every recording call).
func WithServerMetrics(m *ServerMetrics) ServerOption {
	return func(o *serverOptions) { o.metrics = m }
}

// clientOptions configures a Client constructed via InitClient.
type clientOptions struct {
	maxBlobLen uint64
	logger     *zap.Logger
	metrics    *ClientMetrics
}

var defaultClientOptions = clientOptions{
	maxBlobLen: defaultMaxBlobLen,
	logger:     zap.NewNop(),
}

// ClientOption configures a Client at construction time.
type ClientOption func(*clientOptions)

// WithClientMaxBlobLen overrides the maximum blob length this client
// declares during payload size negotiation.
func WithClientMaxBlobLen(n uint64) ClientOption {
	return func(o *clientOptions) { o.maxBlobLen = n }
}

// WithClientLogger attaches a zap logger for connection diagnostics.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClientMetrics attaches a ClientMetrics instance backed by a
// Prometheus registry.
func WithClientMetrics(m *ClientMetrics) ClientOption {
	return func(o *clientOptions) { o.metrics = m }
}
