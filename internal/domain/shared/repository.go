package shared

import "context"

// Repository is the typed data-access interface over one document collection.
type Repository[T any] interface {
	// GetAll returns every record matching q.
	GetAll(ctx context.Context, q Query) ([]T, error)
	// GetByID returns nil and no error when the record does not exist.
	GetByID(ctx context.Context, id string) (*T, error)
	// Create stores record and returns the identifier assigned by the store.
	Create(ctx context.Context, record *T) (string, error)
	// Update merges fields into an existing record. Missing ids fail with ErrNotFound.
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
}

// Fields is a partial record keyed by document field name.
type Fields map[string]any

// KeyedWriter is implemented by repositories whose records can be stored
// under a caller-chosen key, such as user profiles keyed by email.
type KeyedWriter[T any] interface {
	// Put creates or replaces the record stored under id.
	Put(ctx context.Context, id string, record *T) error
}
