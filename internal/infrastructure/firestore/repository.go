package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/validation"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Repository implements shared.Repository over one Firestore collection
type Repository[T any, PT shared.DocumentPtr[T]] struct {
	coll *firestore.CollectionRef
	name string
}

// NewRepository creates a repository for collection
func NewRepository[T any, PT shared.DocumentPtr[T]](client *firestore.Client, collection string) *Repository[T, PT] {
	return &Repository[T, PT]{
		coll: client.Collection(collection),
		name: collection,
	}
}

// GetAll runs q against the collection
func (r *Repository[T, PT]) GetAll(ctx context.Context, q shared.Query) ([]T, error) {
	fq, err := buildQuery(r.coll.Query, q)
	if err != nil {
		return nil, err
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	out := []T{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, r.fail(ctx, "getAll", err)
		}
		rec, err := decode[T, PT](snap)
		if err != nil {
			return nil, r.fail(ctx, "getAll", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetByID returns the record or nil when it does not exist
func (r *Repository[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	snap, err := r.coll.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, r.fail(ctx, "getById", err)
	}

	rec, err := decode[T, PT](snap)
	if err != nil {
		return nil, r.fail(ctx, "getById", err)
	}
	return &rec, nil
}

// Create adds record with a store-generated id and sets it on record
func (r *Repository[T, PT]) Create(ctx context.Context, record *T) (string, error) {
	ref, _, err := r.coll.Add(ctx, record)
	if err != nil {
		return "", r.fail(ctx, "create", err)
	}
	PT(record).SetID(ref.ID)
	return ref.ID, nil
}

// Put creates or replaces the document stored under id
func (r *Repository[T, PT]) Put(ctx context.Context, id string, record *T) error {
	if id == "" {
		return shared.NewValidationError("id", "document key cannot be empty")
	}
	if _, err := r.coll.Doc(id).Set(ctx, record); err != nil {
		return r.fail(ctx, "put", err)
	}
	PT(record).SetID(id)
	return nil
}

// Update merges fields into the document. Dotted keys address nested fields.
func (r *Repository[T, PT]) Update(ctx context.Context, id string, fields shared.Fields) error {
	updates := toUpdates(fields)
	if len(updates) == 0 {
		snap, err := r.coll.Doc(id).Get(ctx)
		if status.Code(err) == codes.NotFound || (err == nil && !snap.Exists()) {
			return r.fail(ctx, "update", shared.ErrNotFound)
		}
		return r.fail(ctx, "update", err)
	}

	if _, err := r.coll.Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return r.fail(ctx, "update", shared.ErrNotFound)
		}
		return r.fail(ctx, "update", err)
	}
	return nil
}

// Delete removes the document. Deleting a missing id succeeds.
func (r *Repository[T, PT]) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.Doc(id).Delete(ctx); err != nil {
		return r.fail(ctx, "delete", err)
	}
	return nil
}

func (r *Repository[T, PT]) fail(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	logger.L(ctx).Error("Document store operation failed",
		zap.String("collection", r.name),
		zap.String("op", op),
		zap.Error(err),
	)
	return shared.NewRepositoryError(r.name, op, err)
}

func decode[T any, PT shared.DocumentPtr[T]](snap *firestore.DocumentSnapshot) (T, error) {
	var rec T
	if err := snap.DataTo(PT(&rec)); err != nil {
		return rec, fmt.Errorf("document %s: %w", snap.Ref.ID, err)
	}
	if err := validation.Struct(PT(&rec)); err != nil {
		return rec, fmt.Errorf("document %s: %w", snap.Ref.ID, err)
	}
	PT(&rec).SetID(snap.Ref.ID)
	return rec, nil
}

// buildQuery translates q onto base
func buildQuery(base firestore.Query, q shared.Query) (firestore.Query, error) {
	if err := q.Validate(); err != nil {
		return base, err
	}
	for _, f := range q.Filters {
		base = base.Where(f.Field, string(f.Op), f.Value)
	}
	if q.Order != nil {
		base = base.OrderBy(q.Order.Field, direction(q.Order.Direction))
	}
	if q.Max > 0 {
		base = base.Limit(q.Max)
	}
	return base, nil
}

func direction(d shared.Direction) firestore.Direction {
	if d == shared.Desc {
		return firestore.Desc
	}
	return firestore.Asc
}

// toUpdates converts fields to Firestore updates in a stable order
func toUpdates(fields shared.Fields) []firestore.Update {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}
	return updates
}
