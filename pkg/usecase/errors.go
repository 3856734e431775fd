package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// Reconciliation errors
	ErrInvalidTarget = goerr.New("invalid reconcile target")

	// Template errors
	ErrInvalidTemplate = goerr.New("invalid posting template")

	// Ticket errors
	ErrShuttingDown = goerr.New("ticket manager is shutting down")
)

// Context keys for error values
const (
	ChannelIDKey  = "channel_id"
	MessageIDKey  = "message_id"
	PostingKeyKey = "posting_key"
	UserIDKey     = "user_id"
)
