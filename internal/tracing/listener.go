package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leibooks/leibooks/internal/domain/library"
)

type identified interface {
	ID() string
}

// Listener records one span per library event.
type Listener struct {
	tracer trace.Tracer
}

// NewListener returns a listener that starts spans on tracer.
func NewListener(tracer trace.Tracer) *Listener {
	return &Listener{tracer: tracer}
}

// Handle records a zero-work span describing e. It never fails.
func (l *Listener) Handle(e library.Event) error {
	attrs := []attribute.KeyValue{attribute.String(AttrEventKind, string(e.Kind))}
	if e.Document != nil {
		attrs = append(attrs, attribute.String(AttrDocumentTitle, e.Document.Title()))
		if d, ok := e.Document.(identified); ok {
			attrs = append(attrs, attribute.String(AttrDocumentID, d.ID()))
		}
	}

	_, span := l.tracer.Start(context.Background(), SpanPrefixLibrary+string(e.Kind),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	span.End()
	return nil
}

var _ library.Listener = (*Listener)(nil)
