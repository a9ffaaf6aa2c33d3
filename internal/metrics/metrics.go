package metrics

import (
	"net/http" // Scrape handler
	"strconv"  // Status labels
	"time"     // Request durations

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus"          // Collectors
	"github.com/prometheus/client_golang/prometheus/promhttp" // Exposition
)

var (
	// Registry holds the application-specific Prometheus collectors
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investbot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "investbot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)

	walletOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investbot",
			Subsystem: "wallet",
			Name:      "operations_total",
			Help:      "Wallet operations by name and outcome.",
		},
		[]string{"op", "outcome"},
	)

	walletInvested = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "investbot",
			Subsystem: "wallet",
			Name:      "invested_rub",
			Help:      "Principal generating interest, in rubles.",
		},
	)

	usdtRate = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "investbot",
			Subsystem: "rates",
			Name:      "usdt_rub",
			Help:      "Last known RUB price of one USDT.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		walletOperations,
		walletInvested,
		usdtRate,
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency of every request by route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordOperation counts a wallet operation. outcome is "ok" or the rejection reason
func RecordOperation(op, outcome string) {
	walletOperations.WithLabelValues(op, outcome).Inc()
}

// SetInvested publishes the current principal
func SetInvested(v float64) {
	walletInvested.Set(v)
}

// SetUSDTRate publishes the current exchange rate
func SetUSDTRate(v float64) {
	usdtRate.Set(v)
}
