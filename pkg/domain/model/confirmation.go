package model

import (
	"time"

	"github.com/google/uuid"
)

// ClosureConfirmationID identifies a pending staff decision
type ClosureConfirmationID string

// NewClosureConfirmationID generates a new confirmation id
func NewClosureConfirmationID() ClosureConfirmationID {
	return ClosureConfirmationID(uuid.NewString())
}

// ClosureConfirmation is the in-memory state of a pending staff decision on a
// ticket's final status. It is never persisted.
type ClosureConfirmation struct {
	ID        ClosureConfirmationID
	ChannelID string
	MessageID string
	// CloseMessageID is the message carrying the close button, re-armed when
	// the confirmation times out
	CloseMessageID string
	CreatorID      string
	CloserID       string
	CloserIsStaff  bool
	CreatedAt      time.Time
	TTL            time.Duration
}

// ExpiresAt returns when the confirmation times out
func (c *ClosureConfirmation) ExpiresAt() time.Time {
	return c.CreatedAt.Add(c.TTL)
}

// Expired reports whether the confirmation has timed out at now
func (c *ClosureConfirmation) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt())
}
