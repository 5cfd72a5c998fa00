package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "runboard"

// Collector agrupa las métricas de board (consola) y de backend.
// Backend y consola comparten el tipo; cada uno reporta solo lo suyo.
type Collector struct {
	reg *prometheus.Registry

	placements  *prometheus.CounterVec
	saves       *prometheus.CounterVec
	gatewayTime *prometheus.HistogramVec
	utilization *prometheus.GaugeVec
	writes      *prometheus.CounterVec
}

// New crea un Registry propio (sin el default global) con collectors de proceso y Go.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	c := &Collector{
		reg: reg,
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "placements_total",
			Help:      "Placement outcomes (committed, failed, cancelled).",
		}, []string{"result"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "bulk_saves_total",
			Help:      "Manual bulk save outcomes (saved, failed).",
		}, []string{"result"}),
		gatewayTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "gateway_request_seconds",
			Help:      "Latency of persistence gateway calls by operation and outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms .. ~5s
		}, []string{"op", "outcome"}),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "console",
			Name:      "run_utilization_percent",
			Help:      "Unclipped run utilization in the active draft.",
		}, []string{"run_id"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "board_writes_total",
			Help:      "Board writes by source (replace_all, create, delete).",
		}, []string{"source"}),
	}
	reg.MustRegister(c.placements, c.saves, c.gatewayTime, c.utilization, c.writes)
	return c
}

func (c *Collector) ObservePlacement(result string) {
	c.placements.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveSave(result string) {
	c.saves.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveGateway(op string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.gatewayTime.WithLabelValues(op, outcome).Observe(d.Seconds())
}

func (c *Collector) SetUtilization(runID string, percent int) {
	c.utilization.WithLabelValues(runID).Set(float64(percent))
}

func (c *Collector) BoardWritten(source string) {
	c.writes.WithLabelValues(source).Inc()
}

// Registry expone el registry (tests usan testutil sobre él).
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler sirve /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
