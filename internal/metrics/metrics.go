package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orderbook_cache_lookups_total", Help: "Order book cache lookups by result"},
		[]string{"result"},
	)
	CacheWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "orderbook_cache_write_failures_total", Help: "Failed best-effort cache writes"},
	)
	RegistryRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "symbol_registry_refreshes_total", Help: "Symbol registry refresh cycles by result"},
		[]string{"result"},
	)
	RegistrySymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "symbol_registry_symbols", Help: "Symbols currently known to the registry"},
	)
	FilteredRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "filtered_orderbook_requests_total", Help: "Filtered order book requests by result"},
		[]string{"result"},
	)
)

const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultCorrupt = "corrupt"
	ResultError   = "error"
	ResultOK      = "ok"
)

func init() {
	prometheus.MustRegister(CacheLookups, CacheWriteFailures, RegistryRefreshes, RegistrySymbols, FilteredRequests)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
