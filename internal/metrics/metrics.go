package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tphummel/server_inventory/internal/models"
)

// Ingestion sources and outcomes used as label values.
const (
	SourceText        = "text"
	SourceSpreadsheet = "spreadsheet"
	SourceAssistant   = "assistant"

	OutcomeAdded     = "added"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_inventory_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "server_inventory_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "server_inventory_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})

	ingestedRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_inventory_ingested_records_total",
			Help: "Records seen by the import paths, by source and outcome.",
		},
		[]string{"source", "outcome"},
	)
)

// Inventory is the subset of inventory.Store needed to collect server metrics.
type Inventory interface {
	CountByOS() (map[models.OSFamily]int, int)
}

// inventoryCollector reads the store on each scrape to report server counts.
type inventoryCollector struct {
	inv          Inventory
	serversDesc  *prometheus.Desc
	backedUpDesc *prometheus.Desc
}

// NewInventoryCollector returns a collector reporting server counts by os
// family and the number of backed up servers.
func NewInventoryCollector(inv Inventory) prometheus.Collector {
	return &inventoryCollector{
		inv: inv,
		serversDesc: prometheus.NewDesc(
			"server_inventory_servers_total",
			"Number of servers in the inventory, partitioned by os family.",
			[]string{"os"},
			nil,
		),
		backedUpDesc: prometheus.NewDesc(
			"server_inventory_servers_backed_up",
			"Number of servers marked as backed up.",
			nil,
			nil,
		),
	}
}

func (c *inventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.serversDesc
	ch <- c.backedUpDesc
}

func (c *inventoryCollector) Collect(ch chan<- prometheus.Metric) {
	counts, backedUp := c.inv.CountByOS()
	for os, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.serversDesc, prometheus.GaugeValue, float64(n), string(os))
	}
	ch <- prometheus.MustNewConstMetric(c.backedUpDesc, prometheus.GaugeValue, float64(backedUp))
}

// Register registers all metrics with the default Prometheus registry, which
// already carries the Go runtime and process collectors.
// Call once at startup after the store is opened.
func Register(inv Inventory) {
	prometheus.MustRegister(
		// HTTP service metrics
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		// Application metrics
		ingestedRecordsTotal,
		NewInventoryCollector(inv),
	)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordIngest counts n records from source with the given outcome.
func RecordIngest(source, outcome string, n int) {
	if n <= 0 {
		return
	}
	ingestedRecordsTotal.WithLabelValues(source, outcome).Add(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records HTTP metrics. The path label is the matched chi route
// pattern (e.g. "/api/v1/servers/{id}") so it has bounded cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			pattern := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}
