package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapeditor_http_requests_total",
		Help: "Total HTTP requests by route and status",
	}, []string{"route", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapeditor_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapeditor_cache_hits_total",
		Help: "Total metadata cache hits",
	}, []string{"collection"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapeditor_cache_misses_total",
		Help: "Total metadata cache misses",
	}, []string{"collection"})
	SavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapeditor_saves_total",
		Help: "Editor batch saves by result",
	}, []string{"result"})
	RecordsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapeditor_records_created_total",
		Help: "Records created by editor saves",
	}, []string{"kind"})
	RecordsUpdatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapeditor_records_updated_total",
		Help: "Records sent in editor batch updates",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(SavesTotal)
	prometheus.MustRegister(RecordsCreatedTotal)
	prometheus.MustRegister(RecordsUpdatedTotal)
}

// ObserveRequest records one served request
func ObserveRequest(route string, status int, dur time.Duration) {
	RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	RequestDurationMs.WithLabelValues(route).Observe(float64(dur.Milliseconds()))
}

// Handler exposes the registered collectors for scraping
func Handler() http.Handler { return promhttp.Handler() }
