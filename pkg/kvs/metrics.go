package kvs

import (
	"github.com/prometheus/client_golang/prometheus"

	intstore "github.com/backbone81/kvs/internal/store"
	intwal "github.com/backbone81/kvs/internal/wal"
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	if err := intwal.RegisterMetrics(registerer); err != nil {
		return err
	}
	if err := intstore.RegisterMetrics(registerer); err != nil {
		return err
	}
	return nil
}
