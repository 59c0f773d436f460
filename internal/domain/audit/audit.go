package audit

import "time"

// Kind is the request type recorded in the audit log.
type Kind string

// Audit kinds.
const (
	Text     Kind = "text"
	Document Kind = "document"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Text || k == Document
}

// Record is one audit log entry. ItemCount is the character count for text
// and the page count for documents.
type Record struct {
	ID        string
	Kind      Kind
	ItemCount int
	Timestamp time.Time
}

// Stats aggregates the audit log.
type Stats struct {
	Total     int64
	Text      int64
	Documents int64
	Recent    []Record
}
