package store

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	operationGet    = "get"
	operationSet    = "set"
	operationRemove = "remove"

	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

var (
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvs_store_operations_total",
			Help: "Total number of store operations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	Keys = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kvs_store_keys",
			Help: "Number of keys held by the store.",
		},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		OperationsTotal,
		Keys,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}
