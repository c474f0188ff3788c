package shared

import "time"

// Document is implemented by every record stored in a collection.
// The ID is the document key assigned by the store and is never
// written as a document field.
type Document interface {
	GetID() string
	SetID(id string)
}

// DocumentID is embedded by records to carry their store-assigned key.
type DocumentID struct {
	ID string `json:"id,omitempty" firestore:"-"`
}

// GetID returns the document key
func (d *DocumentID) GetID() string {
	return d.ID
}

// SetID sets the document key
func (d *DocumentID) SetID(id string) {
	d.ID = id
}

// DocumentPtr constrains a pointer to a record type so generic code can
// allocate a T and still call the pointer-receiver Document methods.
type DocumentPtr[T any] interface {
	*T
	Document
}

// Stamped is implemented by records that track creation and update times.
type Stamped interface {
	StampCreated(now time.Time)
	StampUpdated(now time.Time)
}
