// Package metrics exposes the store's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "issuestore",
		Name:      "store_operations_total",
		Help:      "Store operations by store, record type, operation and result.",
	}, []string{"store", "record_type", "op", "result"})

	DanglingIndexEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "issuestore",
		Name:      "registry_dangling_entries_total",
		Help:      "Registry index entries skipped because their comment could not be read.",
	}, []string{"record_type"})

	DecodeFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "issuestore",
		Name:      "decode_fallbacks_total",
		Help:      "Bodies that failed to decode and were treated as empty.",
	}, []string{"record_type"})

	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "issuestore",
		Name:      "rate_limit_decisions_total",
		Help:      "Rate limit checks by outcome.",
	}, []string{"allowed"})
)

// Result labels an operation outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
