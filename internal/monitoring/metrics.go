// Package monitoring exports mining telemetry over Prometheus.
package monitoring

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shizukutanaka/Kagura/internal/telemetry"
)

// Config defines the exporter configuration.
type Config struct {
	ListenAddr     string
	UpdateInterval time.Duration
	// RateWindow is the trailing window used for the hashrate gauges.
	RateWindow time.Duration
}

// MetricsExporter serves per-thread and total hashrate gauges computed from
// the telemetry rings.
type MetricsExporter struct {
	logger *zap.Logger
	config Config
	tel    *telemetry.Telemetry

	server   *http.Server
	registry *prometheus.Registry

	threadHashrate *prometheus.GaugeVec
	totalHashrate  prometheus.Gauge
}

// NewMetricsExporter creates an exporter reading from tel.
func NewMetricsExporter(cfg Config, tel *telemetry.Telemetry, logger *zap.Logger) *MetricsExporter {
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = 10 * time.Second
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}

	registry := prometheus.NewRegistry()
	e := &MetricsExporter{
		logger:   logger,
		config:   cfg,
		tel:      tel,
		registry: registry,
		threadHashrate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "kagura",
			Name:      "thread_hashrate_hs",
			Help:      "Per-thread hashrate in hashes per second",
		}, []string{"thread"}),
		totalHashrate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kagura",
			Name:      "hashrate_hs",
			Help:      "Total hashrate in hashes per second",
		}),
	}
	registry.MustRegister(e.threadHashrate, e.totalHashrate)
	return e
}

// Start serves the metrics endpoint and refreshes the gauges until ctx is
// cancelled.
func (e *MetricsExporter) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	e.server = &http.Server{Addr: e.config.ListenAddr, Handler: mux}

	go func() {
		e.logger.Info("Metrics exporter listening", zap.String("addr", e.config.ListenAddr))
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Warn("Metrics server stopped", zap.Error(err))
		}
	}()

	go func() {
		ticker := time.NewTicker(e.config.UpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = e.server.Shutdown(shutdownCtx)
				cancel()
				return
			case <-ticker.C:
				e.update()
			}
		}
	}()
}

func (e *MetricsExporter) update() {
	var total float64
	for i := 0; i < e.tel.Threads(); i++ {
		rate := e.tel.Rate(i, e.config.RateWindow)
		if math.IsNaN(rate) {
			continue
		}
		e.threadHashrate.WithLabelValues(strconv.Itoa(i)).Set(rate)
		total += rate
	}
	e.totalHashrate.Set(total)
}
