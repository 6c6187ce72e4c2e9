package observability

import (
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs() *PromObs {
	framesWritten := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquire_frames_written_total",
		Help: "Frames appended to the output sink.",
	})
	drains := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquire_drains_total",
		Help: "Drain calls issued against the device.",
	})
	partialDrains := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquire_partial_drains_total",
		Help: "Drains that returned fewer packets than the status snapshot promised.",
	})
	idlePolls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquire_idle_polls_total",
		Help: "Loop iterations that skipped the drain because too few packets were available.",
	})
	overflow := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquire_buffer_overflow_total",
		Help: "Status snapshots reporting loss in the device-internal buffer.",
	})
	instrumentLoss := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquire_instrument_loss_total",
		Help: "Status snapshots reporting loss at the instrument acquisition stage.",
	})
	disconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquire_disconnect_attempts_total",
		Help: "Disconnect attempts issued during teardown.",
	})
	available := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "acquire_available_packets",
		Help: "Available packet count from the latest status snapshot.",
	})
	drainLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "acquire_drain_latency_seconds",
		Help:    "Latency of a single drain call.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	prometheus.MustRegister(framesWritten, drains, partialDrains, idlePolls,
		overflow, instrumentLoss, disconnects, available, drainLatency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"acquire_frames_written_total":      framesWritten,
			"acquire_drains_total":              drains,
			"acquire_partial_drains_total":      partialDrains,
			"acquire_idle_polls_total":          idlePolls,
			"acquire_buffer_overflow_total":     overflow,
			"acquire_instrument_loss_total":     instrumentLoss,
			"acquire_disconnect_attempts_total": disconnects,
		},
		gauges: map[string]prometheus.Gauge{
			"acquire_available_packets": available,
		},
		histos: map[string]prometheus.Observer{
			"acquire_drain_latency_seconds": drainLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDataLoss(kind string, status domain.DeviceStatus) {
	switch kind {
	case "buffer_overflow":
		p.IncCounter("acquire_buffer_overflow_total", 1)
		log.Printf("WARN: lost data to buffer overflow; raise min_packets_to_read (available=%d)", status.AvailablePackets)
	case "instrument":
		p.IncCounter("acquire_instrument_loss_total", 1)
		log.Printf("WARN: instrument-level data loss; lower the sampling rate or system load (available=%d)", status.AvailablePackets)
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	out := ""
	for _, f := range fields {
		out += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
