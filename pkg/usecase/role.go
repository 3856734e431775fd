package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/service/auditlog"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

// RoleUseCase grants mutually exclusive roles from reactions on the anchor
// message
type RoleUseCase struct {
	svc       discord.Service
	sink      auditlog.Sink
	reconcile *ReconcileUseCase
	templates *Templates
	guildID   string
	settings  model.ReactionRoles
	limiter   *rate.Limiter

	mu       sync.RWMutex
	anchorID string
}

// NewRoleUseCase creates a new RoleUseCase
func NewRoleUseCase(svc discord.Service, sink auditlog.Sink, reconcile *ReconcileUseCase, templates *Templates, guild *model.Guild, limiter *rate.Limiter) *RoleUseCase {
	return &RoleUseCase{
		svc:       svc,
		sink:      sink,
		reconcile: reconcile,
		templates: templates,
		guildID:   guild.GuildID,
		settings:  guild.ReactionRoles,
		limiter:   limiter,
		anchorID:  guild.ReactionRoles.AnchorMessageID,
	}
}

// AnchorMessageID returns the message role reactions are tracked on. Empty
// until EnsureAnchor succeeded, unless configured explicitly.
func (uc *RoleUseCase) AnchorMessageID() string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.anchorID
}

// SetAnchor replaces the anchor message id
func (uc *RoleUseCase) SetAnchor(messageID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.anchorID = messageID
}

// Enabled reports whether role selection is configured
func (uc *RoleUseCase) Enabled() bool {
	return uc.settings.ChannelID != "" && len(uc.settings.Bindings) > 0
}

// EnsureAnchor resolves the anchor message, creating it as a managed posting
// when no fixed message is configured, and seeds one bot reaction per
// binding.
func (uc *RoleUseCase) EnsureAnchor(ctx context.Context) error {
	if !uc.Enabled() {
		return nil
	}

	anchorID := uc.settings.AnchorMessageID
	if anchorID == "" {
		posting, err := uc.reconcile.Reconcile(ctx, Target{
			Key:       model.NewPostingKey(model.PostingDocReactionRoles),
			ChannelID: uc.settings.ChannelID,
			Content:   uc.templates.Anchor(uc.settings.Bindings),
		})
		if err != nil {
			return goerr.Wrap(err, "failed to reconcile role selection message")
		}
		anchorID = posting.MessageID.String()
	}

	msg, err := uc.svc.GetMessage(ctx, uc.settings.ChannelID, anchorID)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch role selection message",
			goerr.V(ChannelIDKey, uc.settings.ChannelID), goerr.V(MessageIDKey, anchorID))
	}
	uc.SetAnchor(msg.ID)

	for _, b := range uc.settings.Bindings {
		if reactedByBot(msg, b.Emoji) {
			continue
		}
		if err := uc.limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "seeding reactions interrupted")
		}
		if err := uc.svc.AddReaction(ctx, msg.ChannelID, msg.ID, b.Emoji); err != nil {
			if discord.IsForbidden(err) {
				return goerr.Wrap(err, "failed to seed role reaction", goerr.V("emoji", b.Emoji))
			}
			logging.From(ctx).Warn("Failed to seed role reaction", "emoji", b.Emoji, "error", err.Error())
		}
	}

	logging.From(ctx).Info("Role selection message ready", "message_id", msg.ID)
	return nil
}

// HandleReactionAdd grants the role bound to the emoji and drops every other
// configured role and reaction of the member
func (uc *RoleUseCase) HandleReactionAdd(ctx context.Context, r *discordgo.MessageReaction) error {
	binding, ok := uc.accept(r)
	if !ok {
		return nil
	}
	logger := logging.From(ctx).With("user_id", r.UserID, "emoji", binding.Emoji)

	member, err := uc.svc.GetMember(ctx, uc.guildID, r.UserID)
	if err != nil {
		return uc.contain(ctx, err, "failed to fetch member")
	}
	name := discord.DisplayName(member)

	if held := uc.settings.Bindings.Others(binding.Emoji).HeldBy(member.Roles); len(held) > 0 {
		labels := make([]string, 0, len(held))
		for _, other := range held {
			if err := uc.svc.RemoveRole(ctx, uc.guildID, r.UserID, other.RoleID); err != nil {
				return uc.contain(ctx, err, "failed to remove previous role")
			}
			labels = append(labels, other.Label)
		}
		logger.Info("Removed previous roles", "roles", labels)
		uc.sink.Line(ctx, fmt.Sprintf("Roles **%s** removed from **%s** (ID: %s) to keep a single role selection.",
			strings.Join(labels, ", "), name, r.UserID))
	}

	if !slices.Contains(member.Roles, binding.RoleID) {
		if err := uc.svc.AddRole(ctx, uc.guildID, r.UserID, binding.RoleID); err != nil {
			return uc.contain(ctx, err, "failed to grant role")
		}
		logger.Info("Granted role", "role_id", binding.RoleID)
		uc.sink.Line(ctx, fmt.Sprintf("Role **%s** added to **%s** (ID: %s) by reaction '%s' on message ID %s.",
			binding.Label, name, r.UserID, binding.Emoji, r.MessageID))
	}

	return uc.stripOtherReactions(ctx, r, binding)
}

// stripOtherReactions removes the member's reactions for every other
// binding. The message is fetched again so that concurrent handlers act on
// current state.
func (uc *RoleUseCase) stripOtherReactions(ctx context.Context, r *discordgo.MessageReaction, keep model.RoleBinding) error {
	msg, err := uc.svc.GetMessage(ctx, r.ChannelID, r.MessageID)
	if err != nil {
		return uc.contain(ctx, err, "failed to refresh role selection message")
	}

	for _, other := range uc.settings.Bindings.Others(keep.Emoji) {
		if !hasReaction(msg, other.Emoji) {
			continue
		}
		reacted, err := uc.svc.HasReacted(ctx, r.ChannelID, r.MessageID, other.Emoji, r.UserID)
		if err != nil {
			return uc.contain(ctx, err, "failed to read reaction users")
		}
		if !reacted {
			continue
		}
		if err := uc.limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "reaction cleanup interrupted")
		}
		if err := uc.svc.RemoveReaction(ctx, r.ChannelID, r.MessageID, other.Emoji, r.UserID); err != nil {
			return uc.contain(ctx, err, "failed to remove reaction")
		}
	}
	return nil
}

// HandleReactionRemove revokes the role bound to the emoji if held
func (uc *RoleUseCase) HandleReactionRemove(ctx context.Context, r *discordgo.MessageReaction) error {
	binding, ok := uc.accept(r)
	if !ok {
		return nil
	}

	member, err := uc.svc.GetMember(ctx, uc.guildID, r.UserID)
	if err != nil {
		if discord.IsNotFound(err) {
			return nil
		}
		return uc.contain(ctx, err, "failed to fetch member")
	}
	if !slices.Contains(member.Roles, binding.RoleID) {
		return nil
	}

	if err := uc.svc.RemoveRole(ctx, uc.guildID, r.UserID, binding.RoleID); err != nil {
		return uc.contain(ctx, err, "failed to revoke role")
	}
	logging.From(ctx).Info("Revoked role", "user_id", r.UserID, "role_id", binding.RoleID)
	uc.sink.Line(ctx, fmt.Sprintf("Role **%s** removed from **%s** (ID: %s) by reaction '%s' on message ID %s.",
		binding.Label, discord.DisplayName(member), r.UserID, binding.Emoji, r.MessageID))
	return nil
}

// accept filters reactions on other messages, reactions of the bot itself
// and unknown emoji
func (uc *RoleUseCase) accept(r *discordgo.MessageReaction) (model.RoleBinding, bool) {
	anchor := uc.AnchorMessageID()
	if anchor == "" || r.MessageID != anchor {
		return model.RoleBinding{}, false
	}
	if r.UserID == "" || r.UserID == uc.svc.BotUserID() {
		return model.RoleBinding{}, false
	}
	if b, ok := uc.settings.Bindings.ByEmoji(r.Emoji.Name); ok {
		return b, true
	}
	if b, ok := uc.settings.Bindings.ByEmoji(r.Emoji.APIName()); ok {
		return b, true
	}
	return model.RoleBinding{}, false
}

// contain swallows permission failures after logging them
func (uc *RoleUseCase) contain(ctx context.Context, err error, msg string) error {
	if discord.IsForbidden(err) {
		logging.From(ctx).Warn("Missing permission for role update", "reason", msg, "error", err.Error())
		return nil
	}
	return goerr.Wrap(err, msg)
}

func matchEmoji(e *discordgo.Emoji, emoji string) bool {
	return e != nil && (e.Name == emoji || e.APIName() == emoji)
}

func hasReaction(msg *discordgo.Message, emoji string) bool {
	for _, r := range msg.Reactions {
		if r != nil && r.Count > 0 && matchEmoji(r.Emoji, emoji) {
			return true
		}
	}
	return false
}

func reactedByBot(msg *discordgo.Message, emoji string) bool {
	for _, r := range msg.Reactions {
		if r != nil && r.Me && matchEmoji(r.Emoji, emoji) {
			return true
		}
	}
	return false
}
