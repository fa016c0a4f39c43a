// Package observability implements the logging and metrics port on
// log/slog and Prometheus. Metric names not registered here are ignored,
// so callers can emit freely without coordinating with this package.
package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marvin21/MBP/internal/ports"
)

type PromObs struct {
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(logger *slog.Logger) *PromObs {
	if logger == nil {
		logger = slog.Default()
	}

	ingested := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbp_values_ingested_total",
		Help: "Value logs accepted by the receiver and dispatched to observers.",
	})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbp_payload_malformed_total",
		Help: "Inbound payloads dropped because the envelope failed to parse.",
	})
	queueDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbp_queue_dropped_total",
		Help: "Inbound messages lost to the queue backpressure policy.",
	})
	observerPanics := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbp_observer_panics_total",
		Help: "Observer callbacks that panicked and were isolated.",
	})
	connLost := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbp_connection_lost_total",
		Help: "Broker connection losses seen by the transport.",
	})
	testsStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbp_tests_started_total",
		Help: "Tests that claimed their devices and started.",
	})
	testsCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbp_tests_completed_total",
		Help: "Tests that ran to completion and were evaluated.",
	})
	valuesBuffered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mbp_test_values_buffered_total",
		Help: "Sensor values buffered for active tests.",
	})
	activeDevices := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbp_active_devices",
		Help: "Devices currently claimed by running tests.",
	})
	queueGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbp_queue_length",
		Help: "Messages buffered in the inbound queue.",
	})
	journalGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mbp_journal_size_bytes",
		Help: "Size of the value-log journal on disk.",
	})
	dispatch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mbp_dispatch_seconds",
		Help:    "Latency from dequeued message to observer fan-out.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	testDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mbp_test_duration_seconds",
		Help:    "Wall-clock duration of completed tests.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	prometheus.MustRegister(ingested, malformed, queueDrops, observerPanics, connLost,
		testsStarted, testsCompleted, valuesBuffered, activeDevices, queueGauge,
		journalGauge, dispatch, testDuration)

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			"mbp_values_ingested_total":      ingested,
			"mbp_payload_malformed_total":    malformed,
			"mbp_queue_dropped_total":        queueDrops,
			"mbp_observer_panics_total":      observerPanics,
			"mbp_connection_lost_total":      connLost,
			"mbp_tests_started_total":        testsStarted,
			"mbp_tests_completed_total":      testsCompleted,
			"mbp_test_values_buffered_total": valuesBuffered,
		},
		gauges: map[string]prometheus.Gauge{
			"mbp_active_devices":     activeDevices,
			"mbp_queue_length":       queueGauge,
			"mbp_journal_size_bytes": journalGauge,
		},
		histos: map[string]prometheus.Observer{
			"mbp_dispatch_seconds":      dispatch,
			"mbp_test_duration_seconds": testDuration,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(attrs(fields), slog.Any("err", err))...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(attrs(fields), slog.Any("err", err), slog.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
