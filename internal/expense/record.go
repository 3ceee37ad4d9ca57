package expense

import (
	"time"
)

// SyncState tracks whether the remote service has confirmed a record.
type SyncState string

const (
	Pending SyncState = "pending"
	Synced  SyncState = "synced"
)

// Record represents a single tracked expense.
type Record struct {
	LocalID     string    `json:"localId,omitempty"`
	RemoteID    string    `json:"remoteId,omitempty"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	OccurredAt  time.Time `json:"occurredAt"`
	State       SyncState `json:"syncState"`
}

// Identity is the key used to match local and remote copies of a record:
// the server identity once assigned, the local one before that.
func (r Record) Identity() string {
	if r.RemoteID != "" {
		return r.RemoteID
	}
	return r.LocalID
}

func (r Record) IsPending() bool {
	return r.State == Pending
}

// SameContent reports whether two records carry the same user-entered fields,
// ignoring identity and sync metadata.
func (r Record) SameContent(o Record) bool {
	return r.Amount == o.Amount &&
		r.Description == o.Description &&
		r.Category == o.Category &&
		r.OccurredAt.Equal(o.OccurredAt)
}
