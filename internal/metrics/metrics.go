// Package metrics holds the process-wide Prometheus collectors for the
// storage core: pool hit/miss/byte accounting, page write/read/skip
// counts, and table bucket scans.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var PoolHits = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "colbits_pool_hits_total",
		Help: "Buffer pool Get calls served from a bucket free list",
	},
)

var PoolMisses = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "colbits_pool_misses_total",
		Help: "Buffer pool Get calls that allocated a fresh page",
	},
)

var PoolBytesInPool = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "colbits_pool_bytes_in_pool",
		Help: "Bytes currently cached across all pool bucket free lists",
	},
)

var PoolBytesInUse = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "colbits_pool_bytes_in_use",
		Help: "Bytes currently checked out of the pool and not yet released",
	},
)

var PagesWritten = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "colbits_pages_written_total",
		Help: "Encoded pages written by column name",
	},
	[]string{"column"},
)

var PagesSkipped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "colbits_pages_skipped_total",
		Help: "Encoded pages rejected by a read predicate before decoding, by column name",
	},
	[]string{"column"},
)

var PagesDecoded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "colbits_pages_decoded_total",
		Help: "Encoded pages decoded by column name",
	},
	[]string{"column"},
)

// TableBucketsScanned is registered here, but table.DB.Query does not
// increment it; it stays at zero unless a caller adds to it.
var TableBucketsScanned = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "colbits_table_buckets_scanned_total",
		Help: "Table bucket scans performed during Query, by table name",
	},
	[]string{"table"},
)

var TableQueryLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "colbits_table_query_latency_seconds",
		Help:    "Table Query call latency",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 10),
	},
	[]string{"table"},
)
