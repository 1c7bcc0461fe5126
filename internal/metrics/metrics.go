package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CatalogFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lockin",
		Subsystem: "catalog",
		Name:      "fetch_duration_seconds",
		Help:      "Time spent reading the challenge catalog from the registry.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	TransactionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lockin",
		Subsystem: "workflow",
		Name:      "transactions_total",
		Help:      "Transactions sent by the workflows, by kind and outcome.",
	}, []string{"kind", "outcome"})

	DashboardUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lockin",
		Subsystem: "dashboard",
		Name:      "unavailable_checks_total",
		Help:      "Per-challenge participation checks that failed during reconciliation.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lockin",
		Subsystem: "http",
		Name:      "requests_total",
	}, []string{"route", "method", "status"})
)

// GinMiddleware counts requests per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
