// Package records provides the generic CRUD application service used for
// every plain document collection: customers, products, invoices,
// payments and KPI snapshots.
package records

import (
	"context"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/telemetry"
	"github.com/erp/smarterp/internal/infrastructure/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Validator is implemented by records with business rules beyond their
// validate tags
type Validator interface {
	Validate() error
}

// Service wraps a repository with validation, timestamps and logging
type Service[T any, PT shared.DocumentPtr[T]] struct {
	repo       shared.Repository[T]
	collection string
	now        func() time.Time
}

// Option configures a Service
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewService creates a service over repo, which holds collection
func NewService[T any, PT shared.DocumentPtr[T]](repo shared.Repository[T], collection string, opts ...Option) *Service[T, PT] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service[T, PT]{
		repo:       repo,
		collection: collection,
		now:        o.now,
	}
}

// Collection returns the collection name
func (s *Service[T, PT]) Collection() string {
	return s.collection
}

// List returns the records matching q
func (s *Service[T, PT]) List(ctx context.Context, q shared.Query) ([]T, error) {
	ctx, span := s.span(ctx, "list")
	defer span.End()

	out, err := s.repo.GetAll(ctx, q)
	telemetry.RecordError(span, err)
	return out, err
}

// Get returns the record with id, or shared.ErrNotFound
func (s *Service[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	ctx, span := s.span(ctx, "get")
	defer span.End()

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if rec == nil {
		return nil, shared.ErrNotFound
	}
	return rec, nil
}

// Create validates and stores record. Any id already set is ignored.
// Records implementing shared.Stamped get their timestamps set.
func (s *Service[T, PT]) Create(ctx context.Context, record *T) (*T, error) {
	ctx, span := s.span(ctx, "create")
	defer span.End()

	PT(record).SetID("")
	if stamped, ok := any(record).(shared.Stamped); ok {
		stamped.StampCreated(s.now())
	}
	if err := check(record); err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, record)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	PT(record).SetID(id)

	logger.L(ctx).Info("Record created",
		zap.String("collection", s.collection),
		zap.String("id", id),
	)
	return record, nil
}

// Update merges fields into the record with id and returns the result.
// The merged record must still pass validation or nothing is written.
func (s *Service[T, PT]) Update(ctx context.Context, id string, fields shared.Fields) (*T, error) {
	ctx, span := s.span(ctx, "update")
	defer span.End()

	if len(fields) == 0 {
		return nil, shared.NewValidationError("", "no fields to update")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := merge[T, PT](current, fields)
	if err != nil {
		return nil, err
	}
	if stamped, ok := any(merged).(shared.Stamped); ok {
		stamped.StampUpdated(s.now())
		fields = withField(fields, "updatedAt")
	}
	if err := check(merged); err != nil {
		return nil, err
	}

	updates, err := typedFields(merged, fields)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("Record updated",
		zap.String("collection", s.collection),
		zap.String("id", id),
		zap.Int("fields", len(updates)),
	)
	return merged, nil
}

// Delete removes the record with id. Deleting a missing record succeeds.
func (s *Service[T, PT]) Delete(ctx context.Context, id string) error {
	ctx, span := s.span(ctx, "delete")
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	logger.L(ctx).Info("Record deleted",
		zap.String("collection", s.collection),
		zap.String("id", id),
	)
	return nil
}

func (s *Service[T, PT]) span(ctx context.Context, method string) (context.Context, trace.Span) {
	return telemetry.StartSpan(ctx, "records", method, attribute.String(telemetry.SpanAttrCollection, s.collection))
}

// check runs tag validation and then the record's own rules
func check(record any) error {
	if err := validation.Struct(record); err != nil {
		return err
	}
	if v, ok := record.(Validator); ok {
		return v.Validate()
	}
	return nil
}

func withField(fields shared.Fields, name string) shared.Fields {
	out := make(shared.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[name] = nil
	return out
}
