// Package report tracks the indexer's liveness state and exposes a
// Prometheus counter family keyed by RPC response code, mirroring what an
// operator would scrape to tell a healthy indexer from one stuck retrying.
package report

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// State is the indexer's coarse liveness signal.
type State int32

const (
	Unavailable State = iota
	Available
)

func (s State) String() string {
	if s == Available {
		return "available"
	}
	return "unavailable"
}

// Report bundles the liveness state with a response-code counter family.
// It is safe for concurrent use; a single Report is normally shared by the
// engine's indexing loop and whatever HTTP surface exposes it.
type Report struct {
	state   atomic.Int32
	metrics *prometheus.CounterVec
}

// NewReport builds a Report whose counter family is not registered with any
// registry, so embedding programs decide where (and whether) to register it.
func NewReport() *Report {
	r := &Report{
		metrics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexer_rpc_responses_total",
				Help: "Count of RPC responses observed by the indexer, labeled by response code.",
			},
			[]string{"code"},
		),
	}
	r.state.Store(int32(Unavailable))
	return r
}

// SetAvailable marks the indexer as live.
func (r *Report) SetAvailable() { r.state.Store(int32(Available)) }

// SetUnavailable marks the indexer as not live, e.g. after the indexing
// loop returns with an error.
func (r *Report) SetUnavailable() { r.state.Store(int32(Unavailable)) }

// State returns the current liveness state.
func (r *Report) State() State { return State(r.state.Load()) }

// Metrics returns the response-code counter family for registration against
// a prometheus.Registerer.
func (r *Report) Metrics() *prometheus.CounterVec { return r.metrics }

// IncMetrics increments the counter for the response code implied by err:
// "200" for a nil error, the RPC-reported numeric code for an RPC error
// that carries one, and "500" for anything else.
func (r *Report) IncMetrics(err error) {
	r.metrics.WithLabelValues(responseCode(err)).Inc()
}

func responseCode(err error) string {
	if err == nil {
		return "200"
	}
	if code, ok := rpcErrorCode(err); ok {
		return code
	}
	return "500"
}
