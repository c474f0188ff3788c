package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/persistence/models"
	"github.com/erp/smarterp/internal/infrastructure/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRepository implements shared.Repository over one collection of
// the documents table.
type DocumentRepository[T any, PT shared.DocumentPtr[T]] struct {
	db         *gorm.DB
	collection string
	now        func() time.Time
}

// NewDocumentRepository creates a repository for collection
func NewDocumentRepository[T any, PT shared.DocumentPtr[T]](db *gorm.DB, collection string) *DocumentRepository[T, PT] {
	return &DocumentRepository[T, PT]{
		db:         db,
		collection: collection,
		now:        time.Now,
	}
}

// Collection returns the collection name
func (r *DocumentRepository[T, PT]) Collection() string {
	return r.collection
}

// GetAll returns the records matching q.
// Only string equality filters run in SQL. Other filters and ordering are
// evaluated in memory over every row of the collection that passes them, so
// their cost grows with the collection. A limit without filters or ordering
// is applied in SQL.
func (r *DocumentRepository[T, PT]) GetAll(ctx context.Context, q shared.Query) ([]T, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var rows []models.DocumentModel
	tx := r.db.WithContext(ctx).Where("collection = ?", r.collection)
	tx = pushDownEquality(tx, q.Filters)
	if q.Max > 0 && len(q.Filters) == 0 && q.Order == nil {
		tx = tx.Limit(q.Max)
	}
	err := tx.Order("created_at ASC").Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, r.fail(ctx, "getAll", err)
	}

	decoded := make([]row[T], 0, len(rows))
	for _, m := range rows {
		rec, doc, err := r.decode(m)
		if err != nil {
			return nil, r.fail(ctx, "getAll", err)
		}
		decoded = append(decoded, row[T]{record: rec, doc: doc})
	}

	out, err := applyQuery(decoded, q)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns the record or nil when it does not exist
func (r *DocumentRepository[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	var m models.DocumentModel
	err := r.db.WithContext(ctx).
		Where("collection = ? AND id = ?", r.collection, id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.fail(ctx, "getById", err)
	}

	rec, _, err := r.decode(m)
	if err != nil {
		return nil, r.fail(ctx, "getById", err)
	}
	return &rec, nil
}

// Create stores record under a new id, sets it on record and returns it.
// Any id already on record is ignored.
func (r *DocumentRepository[T, PT]) Create(ctx context.Context, record *T) (string, error) {
	body, err := encodeBody(record)
	if err != nil {
		return "", r.fail(ctx, "create", err)
	}

	now := r.now()
	m := models.DocumentModel{
		Collection: r.collection,
		ID:         uuid.NewString(),
		Data:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return "", r.fail(ctx, "create", err)
	}

	PT(record).SetID(m.ID)
	return m.ID, nil
}

// Put creates or replaces the record stored under id
func (r *DocumentRepository[T, PT]) Put(ctx context.Context, id string, record *T) error {
	if id == "" {
		return shared.NewValidationError("id", "document key cannot be empty")
	}
	body, err := encodeBody(record)
	if err != nil {
		return r.fail(ctx, "put", err)
	}

	now := r.now()
	m := models.DocumentModel{
		Collection: r.collection,
		ID:         id,
		Data:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return r.fail(ctx, "put", err)
	}

	PT(record).SetID(id)
	return nil
}

// Update merges fields into the stored document. Applying the same fields
// twice leaves the document as after the first call.
func (r *DocumentRepository[T, PT]) Update(ctx context.Context, id string, fields shared.Fields) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.DocumentModel
		err := tx.Where("collection = ? AND id = ?", r.collection, id).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}

		doc := map[string]any{}
		if err := json.Unmarshal([]byte(m.Data), &doc); err != nil {
			return fmt.Errorf("decode stored document: %w", err)
		}
		for k, v := range fields {
			if k == "id" {
				continue
			}
			nv, err := normalize(v)
			if err != nil {
				return fmt.Errorf("encode field %s: %w", k, err)
			}
			doc[k] = nv
		}

		merged, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if _, _, err := r.decode(models.DocumentModel{ID: id, Data: string(merged)}); err != nil {
			return err
		}

		return tx.Model(&models.DocumentModel{}).
			Where("collection = ? AND id = ?", r.collection, id).
			Updates(map[string]any{"data": string(merged), "updated_at": r.now()}).Error
	})
	if err != nil {
		var ve *shared.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		return r.fail(ctx, "update", err)
	}
	return nil
}

// Delete removes the record. Deleting a missing id is a no-op.
func (r *DocumentRepository[T, PT]) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Where("collection = ? AND id = ?", r.collection, id).
		Delete(&models.DocumentModel{}).Error
	if err != nil {
		return r.fail(ctx, "delete", err)
	}
	return nil
}

// decode parses a stored body into T and checks its shape
func (r *DocumentRepository[T, PT]) decode(m models.DocumentModel) (T, document, error) {
	var rec T
	doc := document{}
	if err := json.Unmarshal([]byte(m.Data), &doc); err != nil {
		return rec, nil, fmt.Errorf("document %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(m.Data), PT(&rec)); err != nil {
		return rec, nil, fmt.Errorf("document %s: %w", m.ID, err)
	}
	if err := validation.Struct(PT(&rec)); err != nil {
		return rec, nil, fmt.Errorf("document %s: %w", m.ID, err)
	}
	PT(&rec).SetID(m.ID)
	return rec, doc, nil
}

func (r *DocumentRepository[T, PT]) fail(ctx context.Context, op string, err error) error {
	logger.L(ctx).Error("Document store operation failed",
		zap.String("collection", r.collection),
		zap.String("op", op),
		zap.Error(err),
	)
	return shared.NewRepositoryError(r.collection, op, err)
}

// encodeBody serialises record without its id
func encodeBody(record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	delete(doc, "id")
	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

