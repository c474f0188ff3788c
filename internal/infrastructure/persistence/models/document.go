// Package models contains GORM persistence models for the sql document store.
// Records of every collection share one table, keyed by (collection, id),
// with the record body held as a JSON object.
package models

import "time"

// DocumentModel is one stored record
type DocumentModel struct {
	Collection string    `gorm:"type:varchar(64);primaryKey"`
	ID         string    `gorm:"type:varchar(64);primaryKey"`
	Data       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}
