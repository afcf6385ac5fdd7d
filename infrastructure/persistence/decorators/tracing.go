package decorators

import (
	"context"

	"journals-backend/application/ports"
	"journals-backend/domain/journal"
	apperrors "journals-backend/pkg/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingStore opens a client span around every store operation
type TracingStore struct {
	inner  ports.JournalStore
	tracer trace.Tracer
	system string
}

// NewTracingStore creates a tracing decorator. system names the backend
// ("mongodb", "dynamodb", "memory") on every span.
func NewTracingStore(inner ports.JournalStore, tracer trace.Tracer, system string) *TracingStore {
	return &TracingStore{inner: inner, tracer: tracer, system: system}
}

func (s *TracingStore) List(ctx context.Context, opts ports.ListOptions) ([]journal.Journal, error) {
	ctx, span := s.start(ctx, "list")
	defer span.End()

	span.SetAttributes(attribute.StringSlice("journal.fields", opts.Fields))
	journals, err := s.inner.List(ctx, opts)
	if err == nil {
		span.SetAttributes(attribute.Int("journal.count", len(journals)))
	}
	finish(span, err)
	return journals, err
}

func (s *TracingStore) Create(ctx context.Context, fields journal.Fields) (journal.Journal, error) {
	ctx, span := s.start(ctx, "create")
	defer span.End()

	j, err := s.inner.Create(ctx, fields)
	if err == nil {
		span.SetAttributes(attribute.String("journal.id", j.ID))
	}
	finish(span, err)
	return j, err
}

func (s *TracingStore) Update(ctx context.Context, id string, patch journal.Patch) (journal.Journal, error) {
	ctx, span := s.start(ctx, "update")
	defer span.End()

	span.SetAttributes(attribute.String("journal.id", id))
	j, err := s.inner.Update(ctx, id, patch)
	finish(span, err)
	return j, err
}

func (s *TracingStore) Delete(ctx context.Context, id string) error {
	ctx, span := s.start(ctx, "delete")
	defer span.End()

	span.SetAttributes(attribute.String("journal.id", id))
	err := s.inner.Delete(ctx, id)
	finish(span, err)
	return err
}

func (s *TracingStore) start(ctx context.Context, operation string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "JournalStore."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.system),
			attribute.String("db.operation", operation),
		),
	)
}

// finish marks the span failed for faults. Not-found and validation outcomes
// are recorded as attributes only.
func finish(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(attribute.String("error.type", string(apperrors.TypeOf(err))))
	if apperrors.IsNotFound(err) || apperrors.IsValidation(err) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
