package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the scan pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	PipelineRuns     *prometheus.CounterVec   // labels: kind
	PipelineFailures *prometheus.CounterVec   // labels: kind, reason
	SignalsTotal     *prometheus.CounterVec   // labels: signal
	BandStatusTotal  *prometheus.CounterVec   // labels: status
	PipelineDuration *prometheus.HistogramVec // labels: kind
	LastScan         prometheus.Gauge
}

// NewMetrics creates and registers all collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ribbon_pipeline_runs_total",
			Help: "Pipeline runs by kind (report, wave, band, rv, scan)",
		}, []string{"kind"}),
		PipelineFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ribbon_pipeline_failures_total",
			Help: "Pipeline runs that produced no result",
		}, []string{"kind", "reason"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ribbon_signals_total",
			Help: "Report signals emitted by kind",
		}, []string{"signal"}),
		BandStatusTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ribbon_band_status_total",
			Help: "Wide-band statuses emitted",
		}, []string{"status"}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ribbon_pipeline_duration_seconds",
			Help:    "Fetch plus compute latency per pipeline run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		LastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ribbon_last_scan_timestamp_seconds",
			Help: "Unix time of the last completed watchlist scan",
		}),
	}
	m.Registry.MustRegister(
		m.PipelineRuns,
		m.PipelineFailures,
		m.SignalsTotal,
		m.BandStatusTotal,
		m.PipelineDuration,
		m.LastScan,
	)
	return m
}

// ObserveRun counts one pipeline run of kind and its duration since start.
func (m *Metrics) ObserveRun(kind string, start time.Time) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(kind).Inc()
	m.PipelineDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// Failure counts a run that produced no result.
func (m *Metrics) Failure(kind, reason string) {
	if m == nil {
		return
	}
	m.PipelineFailures.WithLabelValues(kind, reason).Inc()
}

// Signal counts an emitted report signal.
func (m *Metrics) Signal(signal string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(signal).Inc()
}

// BandStatus counts an emitted wide-band status.
func (m *Metrics) BandStatus(status string) {
	if m == nil {
		return
	}
	m.BandStatusTotal.WithLabelValues(status).Inc()
}

// ScanCompleted stamps the last-scan gauge.
func (m *Metrics) ScanCompleted(at time.Time) {
	if m == nil {
		return
	}
	m.LastScan.Set(float64(at.Unix()))
}

// Handler returns the HTTP handler exposing /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs the metrics server until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[INFO] metrics server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
