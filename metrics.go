// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mrpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics holds optional Prometheus instrumentation for a Server.
// A nil *ServerMetrics no-ops on every recording method, the same pattern
// marmos91-dittofs uses for its optional metrics backends (nil-receiver
// methods that skip the Prometheus calls entirely).
type ServerMetrics struct {
	connectionsAccepted prometheus.Counter
	connectionsClosed   prometheus.Counter
	findsServed         *prometheus.CounterVec // label "result": hit|miss
	callsServed         *prometheus.CounterVec // label "result": ok|miss|error
	callLatency         prometheus.Histogram
}

// NewServerMetrics registers mrpc's server-side counters and histogram
// against reg and returns a ServerMetrics ready to pass via
// WithServerMetrics. Pass a fresh prometheus.Registry for tests to avoid
// colliding with a process-wide default registry.
func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	return &ServerMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mrpc_server_connections_accepted_total",
			Help: "Total number of client connections accepted.",
		}),
		connectionsClosed: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mrpc_server_connections_closed_total",
			Help: "Total number of client connections closed by the server.",
		}),
		findsServed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mrpc_server_finds_total",
			Help: "Total number of FIND requests served, by result.",
		}, []string{"result"}),
		callsServed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mrpc_server_calls_total",
			Help: "Total number of CALL requests served, by result.",
		}, []string{"result"}),
		callLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "mrpc_server_call_duration_seconds",
			Help:    "Handler execution time for successfully dispatched calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *ServerMetrics) connectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *ServerMetrics) connectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

func (m *ServerMetrics) find(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.findsServed.WithLabelValues("hit").Inc()
	} else {
		m.findsServed.WithLabelValues("miss").Inc()
	}
}

func (m *ServerMetrics) call(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.callsServed.WithLabelValues(result).Inc()
	if result == "ok" {
		m.callLatency.Observe(d.Seconds())
	}
}

// ClientMetrics holds optional Prometheus instrumentation for a Client.
type ClientMetrics struct {
	findsIssued *prometheus.CounterVec // label "result": hit|miss
	callsIssued *prometheus.CounterVec // label "result": ok|miss|error
}

// NewClientMetrics registers mrpc's client-side counters against reg and
// returns a ClientMetrics ready to pass via WithClientMetrics.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	return &ClientMetrics{
		findsIssued: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mrpc_client_finds_total",
			Help: "Total number of FIND requests issued, by result.",
		}, []string{"result"}),
		callsIssued: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mrpc_client_calls_total",
			Help: "Total number of CALL requests issued, by result.",
		}, []string{"result"}),
	}
}

func (m *ClientMetrics) find(result string) {
	if m == nil {
		return
	}
	m.findsIssued.WithLabelValues(result).Inc()
}

func (m *ClientMetrics) call(result string) {
	if m == nil {
		return
	}
	m.callsIssued.WithLabelValues(result).Inc()
}
