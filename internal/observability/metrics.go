package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the service. A nil
// *Metrics is valid everywhere it is passed; callers must guard, which
// keeps tests free of registry collisions.
type Metrics struct {
	ChatTurns         *prometheus.CounterVec
	SeededPrompts     prometheus.Counter
	ProviderErrors    *prometheus.CounterVec
	TurnLatency       prometheus.Histogram
	SnapshotWrites    *prometheus.CounterVec
	ActiveRoomStreams prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ChatTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns processed, labelled by outcome.",
		}, []string{"outcome"}),
		SeededPrompts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seeded_prompts_total",
			Help:      "System prompts seeded into chat rooms.",
		}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Completion provider failures, labelled by code.",
		}, []string{"code"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_turn_latency_ms",
			Help:      "End to end chat turn latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		}),
		SnapshotWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_writes_total",
			Help:      "Snapshot rows written, labelled by entity kind and operation.",
		}, []string{"kind", "op"}),
		ActiveRoomStreams: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_room_streams",
			Help:      "Open websocket streams across all rooms.",
		}),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.TurnLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) CountTurn(outcome string) {
	if m == nil {
		return
	}
	m.ChatTurns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CountSeed() {
	if m == nil {
		return
	}
	m.SeededPrompts.Inc()
}

func (m *Metrics) CountProviderError(code string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) CountSnapshotWrite(kind, op string) {
	if m == nil {
		return
	}
	m.SnapshotWrites.WithLabelValues(kind, op).Inc()
}

func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.ActiveRoomStreams.Inc()
}

func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.ActiveRoomStreams.Dec()
}

// MetricsHandler exposes the default registry, which promauto
// registers into.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
