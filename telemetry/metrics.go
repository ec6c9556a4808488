package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pthm-cable/ecosim/components"
)

// Metrics exposes the population as Prometheus gauges and counters.
// It keeps its own registry so several simulations can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	prey      prometheus.Gauge
	predators prometheus.Gauge
	day       prometheus.Gauge
	collapsed prometheus.Gauge
	created   *prometheus.CounterVec
	destroyed *prometheus.CounterVec
}

// NewMetrics creates and registers the simulation metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		prey: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_prey",
			Help: "Current prey count.",
		}),
		predators: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_predators",
			Help: "Current predator count.",
		}),
		day: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_day",
			Help: "Number of simulated days.",
		}),
		collapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ecosim_collapsed",
			Help: "1 once the ecosystem has collapsed.",
		}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosim_instances_created_total",
			Help: "Visual instances created by reconciliation.",
		}, []string{"species"}),
		destroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecosim_instances_destroyed_total",
			Help: "Visual instances destroyed by reconciliation.",
		}, []string{"species"}),
	}
	m.registry.MustRegister(m.prey, m.predators, m.day, m.collapsed, m.created, m.destroyed)

	// Expose both series from the start, not only after the first change.
	for _, k := range components.Kinds {
		m.created.WithLabelValues(k.String())
		m.destroyed.WithLabelValues(k.String())
	}
	return m
}

// Report implements Sink.
func (m *Metrics) Report(_ context.Context, r DayReport) error {
	m.prey.Set(float64(r.Prey))
	m.predators.Set(float64(r.Predators))
	m.day.Set(float64(r.Day))
	if r.Collapsed {
		m.collapsed.Set(1)
	} else {
		m.collapsed.Set(0)
	}

	prey, pred := components.KindPrey.String(), components.KindPredator.String()
	m.created.WithLabelValues(prey).Add(float64(r.PreyCreated))
	m.created.WithLabelValues(pred).Add(float64(r.PredCreated))
	m.destroyed.WithLabelValues(prey).Add(float64(r.PreyDestroyed))
	m.destroyed.WithLabelValues(pred).Add(float64(r.PredDestroyed))
	return nil
}

// Registry returns the registry backing the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return serveHTTP(ctx, addr, mux, "metrics")
}

// serveHTTP runs an HTTP server until ctx is done, then shuts it down.
func serveHTTP(ctx context.Context, addr string, h http.Handler, name string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%s listen %s: %w", name, addr, err)
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	slog.Info("http_listening", "server", name, "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s shutdown: %w", name, err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s serve: %w", name, err)
	}
}
