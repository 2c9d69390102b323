// Package metrics exposes library changes as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leibooks/leibooks/internal/domain/library"
)

// DefaultNamespace prefixes every metric name when none is configured.
const DefaultNamespace = "leibooks"

// Recorder is a library listener that counts events by kind and tracks the
// number of documents held by the library.
type Recorder struct {
	events    *prometheus.CounterVec
	documents prometheus.Gauge
}

// NewRecorder registers the library metrics on reg. A nil reg registers on a
// fresh private registry, which keeps repeated construction in tests safe.
func NewRecorder(reg prometheus.Registerer, namespace string) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	r := &Recorder{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "library_events_total",
				Help:      "Total number of library change events by kind",
			},
			[]string{"kind"},
		),
		documents: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "library_documents",
				Help:      "Current number of documents in the library",
			},
		),
	}
	// Pre-create the label values so all three series exist from the start.
	for _, k := range []library.Kind{library.Added, library.Removed, library.Updated} {
		r.events.WithLabelValues(string(k))
	}
	return r
}

// Handle updates the metrics for e. It never fails.
func (r *Recorder) Handle(e library.Event) error {
	if !e.Kind.Valid() {
		return nil
	}
	r.events.WithLabelValues(string(e.Kind)).Inc()
	switch e.Kind {
	case library.Added:
		r.documents.Inc()
	case library.Removed:
		r.documents.Dec()
	}
	return nil
}

// SetDocuments sets the document gauge directly, for libraries that already
// held documents before the recorder subscribed.
func (r *Recorder) SetDocuments(n int) {
	r.documents.Set(float64(n))
}

var _ library.Listener = (*Recorder)(nil)
