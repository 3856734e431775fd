package interfaces

import (
	"context"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
)

// Repository defines the interface for the bot's durable state
type Repository interface {
	Posting() PostingRepository
	Close() error
}

// PostingRepository stores the reference and content hash of managed postings.
// Get never fails for a missing record; it returns an empty posting instead.
type PostingRepository interface {
	Get(ctx context.Context, key model.PostingKey) (*model.Posting, error)
	Put(ctx context.Context, posting *model.Posting) error
	List(ctx context.Context, document string) ([]*model.Posting, error)
}
