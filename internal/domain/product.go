// Package domain contains the core business entities for Stockroom.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeletedUserPlaceholder is substituted for the username of a log entry
// whose author no longer exists. Log entries hold a weak reference to the
// user; deleting the user must not break the product read path.
const DeletedUserPlaceholder = "[deleted-user]"

// LogEntry is one audit record of a quantity-changing operation applied
// to a product. Entries are append-only: no exposed operation removes or
// edits an existing entry.
type LogEntry struct {
	// UserID references the user who performed the operation.
	UserID string `json:"userId"`

	// Amount is the quantity delta recorded by the operation.
	// Zero is a valid amount.
	Amount float64 `json:"amount"`

	// OperationTime is when the operation happened.
	OperationTime time.Time `json:"operationTime"`
}

// ResolvedLogEntry is a LogEntry enriched with the author's current
// username for the read path. Username is DeletedUserPlaceholder when the
// referenced user has been deleted.
type ResolvedLogEntry struct {
	LogEntry
	Username string `json:"username"`
}

// Product represents an inventory item with its embedded change log.
type Product struct {
	// ID is the opaque unique identifier for the product.
	ID string `json:"id"`

	// No is a storage-assigned, strictly increasing sequence number.
	// Assigned once at creation and never reused, even after deletion.
	No int64 `json:"no"`

	// Title is the unique product title. Uniqueness is enforced case-
	// and accent-insensitively, like User.Username.
	Title string `json:"title"`

	// TitleFold is the folded form of Title used for uniqueness checks.
	TitleFold string `json:"-"`

	// Description is the free-form product description.
	Description string `json:"description"`

	// ImgURLs is the ordered list of product image URLs. Always present
	// in responses, possibly empty.
	ImgURLs []string `json:"imgUrls"`

	// Available indicates whether the product can currently be ordered.
	Available bool `json:"available"`

	// Log is the ordered, append-only sequence of quantity-change records.
	Log []LogEntry `json:"log"`

	// CreatedAt is the timestamp when the product was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the product was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewProduct creates a new Product with default values and a single seed
// log entry recording the creating operation. No is assigned by storage.
func NewProduct(title, description string, imgURLs []string, seed LogEntry) *Product {
	if imgURLs == nil {
		imgURLs = []string{}
	}
	now := time.Now().UTC()
	return &Product{
		ID:          uuid.NewString(),
		Title:       title,
		TitleFold:   Fold(title),
		Description: description,
		ImgURLs:     imgURLs,
		Available:   true,
		Log:         []LogEntry{seed},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AppendLog appends one entry to the product's change log.
// Existing entries are never modified.
func (p *Product) AppendLog(entry LogEntry) {
	p.Log = append(p.Log, entry)
}
