// internal/service/stock/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sagaOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_stock_saga_total",
		Help: "Stock saga executions by operation and terminal state.",
	}, []string{"operation", "state"})

	bulkSyncItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_stock_bulk_sync_items_total",
		Help: "Items processed by the bulk reconciliation sweep.",
	}, []string{"status"})

	stockCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_stock_cache_requests_total",
		Help: "Stock read cache lookups by result.",
	}, []string{"result"})
)
