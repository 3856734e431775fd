package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/interfaces"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/service/auditlog"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/homedocks/homedocks-bot/pkg/utils/errutil"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// adoptScanLimit is how many recent messages are searched for an orphaned
// posting when no message id is stored
const adoptScanLimit = 50

// Target is one managed posting
type Target struct {
	Key       model.PostingKey
	ChannelID string
	Content   *model.Content

	// AdoptMarker, when set, lets the reconciler adopt a bot message whose
	// first embed title contains it instead of posting a duplicate.
	AdoptMarker string
}

// ReconcileUseCase keeps managed postings in sync with their content
type ReconcileUseCase struct {
	svc     discord.Service
	repo    interfaces.PostingRepository
	sink    auditlog.Sink
	now     func() time.Time
	limiter *rate.Limiter

	// inflight runs at most one reconciliation per posting key at a time
	inflight singleflight.Group
}

// NewReconcileUseCase creates a new ReconcileUseCase. pacing is the minimum
// interval between targets in ReconcileAll, zero disables pacing.
func NewReconcileUseCase(svc discord.Service, repo interfaces.PostingRepository, sink auditlog.Sink, now func() time.Time, pacing time.Duration) *ReconcileUseCase {
	return &ReconcileUseCase{
		svc:     svc,
		repo:    repo,
		sink:    sink,
		now:     now,
		limiter: newLimiter(pacing),
	}
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Reconcile ensures exactly one live message in the target channel reflects
// the content, sending or editing at most once. The stored record is only
// replaced after the network call succeeded. Concurrent calls for the same
// key share one run.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, t Target) (*model.Posting, error) {
	if t.ChannelID == "" || t.Content == nil || t.Key.Document == "" {
		return nil, goerr.Wrap(ErrInvalidTarget, "channel and content are required",
			goerr.V(PostingKeyKey, t.Key.String()), goerr.V(ChannelIDKey, t.ChannelID))
	}

	v, err, shared := uc.inflight.Do(t.Key.String(), func() (any, error) {
		return uc.reconcile(ctx, t)
	})
	if shared {
		logging.From(ctx).Debug("Joined running reconciliation", "posting", t.Key.String())
	}
	if err != nil {
		return nil, err
	}
	return v.(*model.Posting), nil
}

func (uc *ReconcileUseCase) reconcile(ctx context.Context, t Target) (*model.Posting, error) {
	logger := logging.From(ctx).With("posting", t.Key.String(), "channel_id", t.ChannelID)

	hash, err := t.Content.Hash()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to hash content", goerr.V(PostingKeyKey, t.Key.String()))
	}

	stored, err := uc.repo.Get(ctx, t.Key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load posting", goerr.V(PostingKeyKey, t.Key.String()))
	}

	var live *discordgo.Message
	if !stored.MessageID.IsZero() {
		msg, err := uc.svc.GetMessage(ctx, t.ChannelID, stored.MessageID.String())
		switch {
		case err == nil:
			live = msg
		case discord.IsNotFound(err):
			logger.Info("Stored posting no longer exists, invalidating", "message_id", stored.MessageID)
			stored.Invalidate()
			if err := uc.repo.Put(ctx, stored); err != nil {
				return nil, goerr.Wrap(err, "failed to persist invalidated posting", goerr.V(PostingKeyKey, t.Key.String()))
			}
		default:
			return nil, goerr.Wrap(err, "failed to fetch managed posting",
				goerr.V(PostingKeyKey, t.Key.String()),
				goerr.V(MessageIDKey, stored.MessageID.String()),
				goerr.V("outcome", discord.Classify(err).String()))
		}
	}

	if live == nil && t.AdoptMarker != "" {
		adopted, err := uc.adopt(ctx, t)
		if err != nil {
			if discord.IsForbidden(err) {
				return nil, goerr.Wrap(err, "failed to scan channel for posting", goerr.V(PostingKeyKey, t.Key.String()))
			}
			logger.Warn("Failed to scan channel for an existing posting", "error", err.Error())
		}
		if adopted != nil {
			logger.Info("Adopting existing posting", "message_id", adopted.ID)
			live = adopted
		}
	}

	if live != nil && live.ID == stored.MessageID.String() && stored.ContentHash == hash {
		logger.Debug("Posting is up to date")
		return stored, nil
	}

	embeds := []*discordgo.MessageEmbed{discord.RenderEmbed(t.Content, discord.LastUpdatedFooter(uc.now()))}
	components := discord.RenderComponents(t.Content.Buttons)

	var (
		msg    *discordgo.Message
		action string
	)
	if live != nil {
		action = "updated"
		msg, err = uc.svc.EditMessage(ctx, &discordgo.MessageEdit{
			ID:         live.ID,
			Channel:    t.ChannelID,
			Embeds:     &embeds,
			Components: &components,
		})
	} else {
		action = "created"
		msg, err = uc.svc.SendMessage(ctx, t.ChannelID, &discordgo.MessageSend{
			Embeds:     embeds,
			Components: components,
		})
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to publish posting",
			goerr.V(PostingKeyKey, t.Key.String()),
			goerr.V("action", action),
			goerr.V("outcome", discord.Classify(err).String()))
	}

	next := &model.Posting{
		Key:         t.Key,
		MessageID:   model.Snowflake(msg.ID),
		ContentHash: hash,
	}
	if err := uc.repo.Put(ctx, next); err != nil {
		return nil, goerr.Wrap(err, "failed to persist posting", goerr.V(PostingKeyKey, t.Key.String()))
	}

	logger.Info("Posting reconciled", "action", action, "message_id", msg.ID)
	uc.sink.Line(ctx, fmt.Sprintf("Managed posting **%s** %s in %s (message ID %s).",
		t.Key, action, discord.ChannelMention(t.ChannelID), msg.ID))

	return next, nil
}

func (uc *ReconcileUseCase) adopt(ctx context.Context, t Target) (*discordgo.Message, error) {
	msgs, err := uc.svc.RecentMessages(ctx, t.ChannelID, adoptScanLimit)
	if err != nil {
		return nil, err
	}

	botID := uc.svc.BotUserID()
	for _, m := range msgs {
		if m.Author == nil || m.Author.ID != botID {
			continue
		}
		if strings.Contains(discord.FirstEmbedTitle(m), t.AdoptMarker) {
			return m, nil
		}
	}
	return nil, nil
}

// ReconcileAll reconciles every target, paced by the rate limiter. A failing
// target is logged and never stops the others. The returned error joins all
// failures.
func (uc *ReconcileUseCase) ReconcileAll(ctx context.Context, targets []Target) error {
	var errs []error
	for _, t := range targets {
		if err := uc.limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "reconciliation interrupted")
		}
		if _, err := uc.Reconcile(ctx, t); err != nil {
			errs = append(errs, errutil.Handle(ctx, err, "failed to reconcile posting"))
		}
	}
	return errors.Join(errs...)
}
