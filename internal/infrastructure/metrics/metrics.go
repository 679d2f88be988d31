// Package metrics holds the Prometheus counters and gauges every
// application component reports to, and the localhost-only HTTP
// listener that exposes them for scraping.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the ingestion and sync pipelines report
// to, registered once with promauto against the default registry.
type Collector struct {
	GalleriesInserted prometheus.Counter
	GalleriesArchived prometheus.Counter
	DuplicateHashes   prometheus.Counter
	PendingRemovals   prometheus.Gauge
	KomgaSyncErrors   prometheus.Counter
	IngestDuration    *prometheus.HistogramVec
}

// New registers the package's metrics and returns a Collector.
func New() *Collector {
	return &Collector{
		GalleriesInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "h2hdb",
			Name:      "galleries_inserted_total",
			Help:      "Total number of galleries inserted by the ingestor.",
		}),
		GalleriesArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "h2hdb",
			Name:      "galleries_archived_total",
			Help:      "Total number of galleries compressed into a CBZ.",
		}),
		DuplicateHashes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "h2hdb",
			Name:      "duplicate_hashes_total",
			Help:      "Total number of files flagged as duplicates by the dedup analyzer.",
		}),
		PendingRemovals: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "h2hdb",
			Name:      "pending_removals_gauge",
			Help:      "Current number of galleries queued for removal.",
		}),
		KomgaSyncErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "h2hdb",
			Name:      "komga_sync_errors_total",
			Help:      "Total number of errors encountered while syncing metadata to Komga.",
		}),
		IngestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "h2hdb",
			Name:      "ingest_duration_seconds",
			Help:      "Wall-clock duration of a single gallery ingest call.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"outcome"}),
	}
}

// Server exposes a Collector's registry over HTTP. It is meant to bind
// to a loopback address only; operators who want external scraping put
// a reverse proxy in front of it.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a Server listening on addr (e.g. "127.0.0.1:9100").
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Run starts serving and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return s.httpServer.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
