package usecase

import (
	"context"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// PostingStatus is the stored state of one managed posting
type PostingStatus struct {
	Key       string `json:"key"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id,omitempty"`
	Synced    bool   `json:"synced"`
}

// Status is a snapshot of the bot's managed state
type Status struct {
	GuildID              string          `json:"guild_id"`
	AnchorMessageID      string          `json:"anchor_message_id,omitempty"`
	PendingConfirmations int             `json:"pending_confirmations"`
	Postings             []PostingStatus `json:"postings"`
}

// Status reports every managed posting with its stored message id. Synced is
// true when the stored hash matches the current content.
func (uc *UseCases) Status(ctx context.Context) (*Status, error) {
	targets, err := uc.Targets()
	if err != nil {
		return nil, err
	}

	status := &Status{
		GuildID:              uc.guild.GuildID,
		AnchorMessageID:      uc.Role.AnchorMessageID(),
		PendingConfirmations: uc.Ticket.PendingConfirmations(),
		Postings:             make([]PostingStatus, 0, len(targets)),
	}

	for _, t := range targets {
		posting, err := uc.repo.Posting().Get(ctx, t.Key)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load posting", goerr.V(PostingKeyKey, t.Key.String()))
		}
		hash, err := t.Content.Hash()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to hash content", goerr.V(PostingKeyKey, t.Key.String()))
		}
		status.Postings = append(status.Postings, PostingStatus{
			Key:       t.Key.String(),
			ChannelID: t.ChannelID,
			MessageID: posting.MessageID.String(),
			Synced:    !posting.MessageID.IsZero() && posting.ContentHash == hash,
		})
	}

	if uc.Role.Enabled() && uc.guild.ReactionRoles.AnchorMessageID == "" {
		posting, err := uc.repo.Posting().Get(ctx, model.NewPostingKey(model.PostingDocReactionRoles))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load role selection posting")
		}
		status.Postings = append(status.Postings, PostingStatus{
			Key:       posting.Key.String(),
			ChannelID: uc.guild.ReactionRoles.ChannelID,
			MessageID: posting.MessageID.String(),
			Synced:    !posting.MessageID.IsZero(),
		})
	}

	return status, nil
}
