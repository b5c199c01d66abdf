package wal

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AppendTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kvs_wal_append_total",
			Help: "Total number of entries appended to the write-ahead log.",
		},
	)

	AppendBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kvs_wal_append_bytes_total",
			Help: "Total number of bytes appended to the write-ahead log.",
		},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kvs_wal_sync_duration_seconds",
			Help:    "Duration of flushing the write-ahead log to stable storage in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	ReplayEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kvs_wal_replay_entries_total",
			Help: "Total number of entries read while replaying the write-ahead log.",
		},
	)

	ReplayCorruptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kvs_wal_replay_corrupt_total",
			Help: "Total number of replays which stopped at a malformed entry.",
		},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		AppendTotal,
		AppendBytes,
		SyncDuration,
		ReplayEntriesTotal,
		ReplayCorruptTotal,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}
