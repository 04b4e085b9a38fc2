// Package metrics exposes Prometheus collectors for simulations and sweeps.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

// Metrics holds the simulator's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	cellsTotal      *prometheus.CounterVec   // Evaluated (scheme, SNR) cells (by scheme)
	bitsTotal       *prometheus.CounterVec   // Message bits compared (by scheme)
	bitErrorsTotal  *prometheus.CounterVec   // Bit errors counted (by scheme)
	ber             *prometheus.GaugeVec     // Last measured BER (by scheme, snr_db)
	cellDuration    *prometheus.HistogramVec // Time spent on one cell (by scheme)
	simulations     *prometheus.CounterVec   // Single-message simulations (by scheme, outcome)
	sweepsTotal     *prometheus.CounterVec   // Sweeps finished (by status)
	sweepsRunning   prometheus.Gauge         // Sweeps currently in progress
	wsClients       prometheus.Gauge         // Connected websocket clients
	publishFailures prometheus.Counter       // Failed MQTT publishes
}

// New registers all collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		cellsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modemsim_cells_total",
			Help: "Total number of evaluated scheme/SNR cells",
		}, []string{"scheme"}),
		bitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modemsim_bits_total",
			Help: "Total number of message bits compared",
		}, []string{"scheme"}),
		bitErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modemsim_bit_errors_total",
			Help: "Total number of bit errors counted",
		}, []string{"scheme"}),
		ber: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "modemsim_ber",
			Help: "Most recently measured bit error rate",
		}, []string{"scheme", "snr_db"}),
		cellDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modemsim_cell_duration_seconds",
			Help:    "Time taken to evaluate one scheme/SNR cell",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"scheme"}),
		simulations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modemsim_simulations_total",
			Help: "Total number of single-message simulations",
		}, []string{"scheme", "outcome"}),
		sweepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "modemsim_sweeps_total",
			Help: "Total number of finished sweeps",
		}, []string{"status"}),
		sweepsRunning: f.NewGauge(prometheus.GaugeOpts{
			Name: "modemsim_sweeps_running",
			Help: "Number of sweeps currently running",
		}),
		wsClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "modemsim_websocket_clients",
			Help: "Number of connected websocket clients",
		}),
		publishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "modemsim_mqtt_publish_failures_total",
			Help: "Total number of failed MQTT publishes",
		}),
	}
}

// CellDone implements sim.Observer.
func (m *Metrics) CellDone(p sim.Point, elapsed time.Duration) {
	scheme := p.Scheme.String()
	m.cellsTotal.WithLabelValues(scheme).Inc()
	m.bitsTotal.WithLabelValues(scheme).Add(float64(p.Bits))
	m.bitErrorsTotal.WithLabelValues(scheme).Add(float64(p.BitErrors))
	m.ber.WithLabelValues(scheme, strconv.Itoa(p.SNR)).Set(p.BER)
	m.cellDuration.WithLabelValues(scheme).Observe(elapsed.Seconds())
}

// ObserveSimulation records one single-message simulation.
func (m *Metrics) ObserveSimulation(scheme string, decoded bool) {
	outcome := "decoded"
	if !decoded {
		outcome = "decode_error"
	}
	m.simulations.WithLabelValues(scheme, outcome).Inc()
}

// SweepStarted marks a sweep as running.
func (m *Metrics) SweepStarted() {
	m.sweepsRunning.Inc()
}

// SweepFinished records the end of a sweep. A nil err counts as completed.
func (m *Metrics) SweepFinished(err error) {
	m.sweepsRunning.Dec()
	status := "completed"
	if err != nil {
		status = "failed"
	}
	m.sweepsTotal.WithLabelValues(status).Inc()
}

// SetWebSocketClients updates the connected client gauge.
func (m *Metrics) SetWebSocketClients(n int) {
	m.wsClients.Set(float64(n))
}

// PublishFailed counts a failed MQTT publish.
func (m *Metrics) PublishFailed() {
	m.publishFailures.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
