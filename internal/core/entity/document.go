package entity

import (
	"time"

	"pharmapos/internal/core/id"
)

// Document is the header of an immutable business transaction such as a
// sale. Documents are written once and never updated.
type Document struct {
	ID id.ID `db:"id" json:"id"`

	// Number is unique per document type and period, e.g. INV-2026-00042.
	Number string `db:"number" json:"number"`

	// Date is the business date.
	Date time.Time `db:"date" json:"date"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewDocument returns a document with a fresh ID, dated now.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		ID:        id.New(),
		Date:      now,
		CreatedAt: now,
	}
}
