// Package metrics exposes per-run simulation counters through Prometheus.
//
// Every run owns its own registry so concurrent or repeated runs never share
// counters. Metrics implements both sim.Observer and activity.Metrics.
package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clsim"

// Metrics holds the collectors of one simulation run.
type Metrics struct {
	registry   *prometheus.Registry
	events     *prometheus.CounterVec
	registered *prometheus.CounterVec
	completed  *prometheus.CounterVec
	claims     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	waits      *prometheus.HistogramVec
}

// New creates a registry and registers every collector on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	// Simulated time is unitless ticks; buckets cover short and long activities alike.
	buckets := prometheus.ExponentialBuckets(1, 4, 8)

	return &Metrics{
		registry: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Kernel events processed, by event name.",
		}, []string{"event"}),
		registered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_registered_total",
			Help:      "Activities registered, by activity name.",
		}, []string{"activity"}),
		completed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_completed_total",
			Help:      "Activities whose body completed, by activity name.",
		}, []string{"activity"}),
		claims: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_claims_total",
			Help:      "Resource claims issued through activity ledgers.",
		}, []string{"resource"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "activity_duration_ticks",
			Help:      "Simulated time between START and STOP.",
			Buckets:   buckets,
		}, []string{"activity"}),
		waits: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "start_wait_ticks",
			Help:      "Simulated time spent waiting for a start condition.",
			Buckets:   buckets,
		}, []string{"activity"}),
	}
}

// Registry returns the run's registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// EventProcessed implements sim.Observer.
func (m *Metrics) EventProcessed(name string) {
	m.events.WithLabelValues(eventFamily(name)).Inc()
}

// ActivityRegistered implements activity.Metrics.
func (m *Metrics) ActivityRegistered(name string) {
	m.registered.WithLabelValues(name).Inc()
}

// ActivityCompleted implements activity.Metrics.
func (m *Metrics) ActivityCompleted(name string, duration int64) {
	m.completed.WithLabelValues(name).Inc()
	m.duration.WithLabelValues(name).Observe(float64(duration))
}

// ResourceClaimed implements activity.Metrics.
func (m *Metrics) ResourceClaimed(resource string) {
	m.claims.WithLabelValues(resource).Inc()
}

// WaitObserved implements activity.Metrics.
func (m *Metrics) WaitObserved(activity string, ticks int64) {
	m.waits.WithLabelValues(activity).Observe(float64(ticks))
}

// Sample is one gathered counter or histogram count.
type Sample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// Snapshot gathers every series. Histograms report their sample count.
// Samples are sorted by name, then by label values.
func (m *Metrics) Snapshot() ([]Sample, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			s := Sample{Name: fam.GetName(), Labels: labels}
			switch {
			case metric.GetCounter() != nil:
				s.Value = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				s.Value = float64(metric.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return labelKey(out[i].Labels) < labelKey(out[j].Labels)
	})
	return out, nil
}

func labelKey(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + "=" + labels[k] + ",")
	}
	return b.String()
}

// eventFamily strips the per-instance suffix from kernel event names
// ("request:crane" -> "request", "full:barge/default" -> "full").
func eventFamily(name string) string {
	if i := strings.IndexByte(name, ':'); i > 0 {
		return name[:i]
	}
	return name
}
