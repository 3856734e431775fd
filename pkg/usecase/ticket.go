package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/domain/types"
	"github.com/homedocks/homedocks-bot/pkg/service/auditlog"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// User facing messages
const (
	msgGuildOnly            = "This action is only available in a server."
	msgBotsCannotOpen       = "Bots cannot create tickets."
	msgCreateForbidden      = "Error: I don't have permissions to create channels or set up their permissions. Please check my role permissions (Manage Channels, Manage Roles)."
	msgCreateFailed         = "An unexpected error occurred while creating your ticket. Please try again later."
	msgTicketCreated        = "Your ticket channel has been created: %s"
	msgNoClosePermission    = "You do not have permission to close this ticket."
	msgAlreadyClosing       = "This ticket is already being closed."
	msgConfirmInChannel     = "Please confirm the ticket status in the channel."
	msgConfirmFailed        = "Failed to post the closure confirmation. Please try again."
	msgClosingOwnTicket     = "Closing your ticket. Archiving the conversation..."
	msgStaffOnly            = "Only staff can mark ticket status."
	msgConfirmationExpired  = "This confirmation is no longer active. Please click 'Close Ticket' again to restart the process."
	msgInitiatingClosure    = "Initiating ticket closure with status: **%s**..."
	msgConfirmationTimedOut = "Ticket closure confirmation timed out. Please click 'Close Ticket' again to restart the process."

	welcomeDescription = "Please describe your problem in detail below. Our team will review your issue and get back to you as soon as possible.\n" +
		"If your issue is resolved, or you no longer need assistance, you can close this ticket at any time by clicking the button below."
	confirmTitle       = "Confirm Ticket Closure"
	confirmDescription = "Are you sure you want to close this ticket? Please mark its final status:"
)

// TicketUseCase drives the support ticket lifecycle
type TicketUseCase struct {
	svc           discord.Service
	sink          auditlog.Sink
	guild         *model.Guild
	now           func() time.Time
	confirmations *confirmationRegistry

	mu     sync.Mutex
	states map[string]types.TicketState
}

// NewTicketUseCase creates a new TicketUseCase
func NewTicketUseCase(svc discord.Service, sink auditlog.Sink, guild *model.Guild, now func() time.Time) *TicketUseCase {
	return &TicketUseCase{
		svc:           svc,
		sink:          sink,
		guild:         guild,
		now:           now,
		confirmations: newConfirmationRegistry(),
		states:        make(map[string]types.TicketState),
	}
}

// Close stops every pending confirmation timer
func (uc *TicketUseCase) Close() {
	uc.confirmations.close()
}

// PendingConfirmations returns the number of confirmations awaiting a staff
// decision
func (uc *TicketUseCase) PendingConfirmations() int {
	return uc.confirmations.len()
}

// State returns the lifecycle state of a ticket channel. Channels that were
// never tracked by this process are open.
func (uc *TicketUseCase) State(channelID string) types.TicketState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.states[channelID].Normalize()
}

// transition moves a ticket to next if the lifecycle allows it
func (uc *TicketUseCase) transition(channelID string, next types.TicketState) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	current := uc.states[channelID].Normalize()
	if !current.CanTransitionTo(next) {
		return false
	}
	uc.states[channelID] = next
	return true
}

// forget drops the tracked state of a ticket, which makes it open again
func (uc *TicketUseCase) forget(channelID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.states, channelID)
}

// IsStaff reports whether the member has the administrator permission or a
// staff role
func (uc *TicketUseCase) IsStaff(m *discordgo.Member) bool {
	return discord.IsAdmin(m) || discord.HasAnyRole(m, uc.guild.StaffRoleIDs)
}

// MayClose reports whether the member may close a ticket created by
// creatorID. An empty creatorID means the creator is unknown.
func (uc *TicketUseCase) MayClose(m *discordgo.Member, creatorID string) bool {
	if m == nil || m.User == nil {
		return false
	}
	if uc.IsStaff(m) {
		return true
	}
	return creatorID != "" && m.User.ID == creatorID
}

// OpenTicket creates a private ticket channel for the member who clicked a
// panel button. The interaction must already be deferred.
func (uc *TicketUseCase) OpenTicket(ctx context.Context, i *discordgo.Interaction, problem types.ProblemType) error {
	member := i.Member
	if member == nil || member.User == nil {
		return uc.followup(ctx, i, msgGuildOnly)
	}
	user := member.User
	if user.Bot {
		return uc.followup(ctx, i, msgBotsCannotOpen)
	}

	guildID := i.GuildID
	if guildID == "" {
		guildID = uc.guild.GuildID
	}
	logger := logging.From(ctx).With("user_id", user.ID, "problem", problem.String())

	name := discord.UserName(user)
	display := discord.DisplayName(member)
	topic := model.TicketTopic{CreatorName: display, CreatorID: user.ID, Problem: problem.String()}

	ch, err := uc.svc.CreateChannel(ctx, guildID, discordgo.GuildChannelCreateData{
		Name:                 discord.GenerateTicketChannelName(name, problem),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                topic.String(),
		ParentID:             uc.guild.TicketCategoryID,
		PermissionOverwrites: uc.overwrites(guildID, user.ID),
	})
	if err != nil {
		if discord.IsForbidden(err) {
			logger.Warn("Missing permission to create ticket channel", "error", err.Error())
			return uc.followup(ctx, i, msgCreateForbidden)
		}
		_ = uc.followup(ctx, i, msgCreateFailed)
		return goerr.Wrap(err, "failed to create ticket channel", goerr.V(UserIDKey, user.ID))
	}
	logger = logger.With("channel_id", ch.ID)
	logger.Info("Ticket channel created", "name", ch.Name)

	welcome := &discordgo.MessageSend{
		Content: fmt.Sprintf("%s %s, a new ticket has been opened for you.", discord.Mention(user.ID), uc.staffMentions()),
		Embeds: []*discordgo.MessageEmbed{{
			Title:       fmt.Sprintf("👋 Welcome to your %s Ticket, %s!", problem, display),
			Description: welcomeDescription,
			Color:       discord.ColorGreen,
		}},
		Components: discord.CloseTicketComponents(),
	}
	if _, err := uc.svc.SendMessage(ctx, ch.ID, welcome); err != nil {
		logger.Warn("Failed to post welcome message", "error", err.Error())
	}

	if err := uc.followup(ctx, i, fmt.Sprintf(msgTicketCreated, discord.ChannelMention(ch.ID))); err != nil {
		logger.Warn("Failed to confirm ticket creation", "error", err.Error())
	}

	origin := discord.ChannelMention(i.ChannelID)
	if label, ok := uc.guild.SupportChannelName(i.ChannelID); ok {
		origin += " (" + label + ")"
	}
	uc.sink.Embed(ctx, &discordgo.MessageEmbed{
		Title: "🎟️ New Ticket Opened",
		Color: discord.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			discord.EmbedField("Opened By", discord.Mention(user.ID)+" ("+display+")"),
			discord.EmbedField("Problem Type", problem.String()),
			discord.EmbedField("Origin Channel", origin),
			discord.EmbedField("Ticket Channel", discord.ChannelMention(ch.ID)),
			discord.EmbedField("Opened At", uc.now().UTC().Format(discord.TimestampFormatUTC)),
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Ticket ID: " + ch.ID},
	})

	return nil
}

func (uc *TicketUseCase) overwrites(guildID, creatorID string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    creatorID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles | discordgo.PermissionEmbedLinks,
		},
	}
	if botID := uc.svc.BotUserID(); botID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    botID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageChannels | discordgo.PermissionManageMessages,
		})
	}
	for _, roleID := range uc.guild.StaffRoleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageChannels,
		})
	}
	return overwrites
}

func (uc *TicketUseCase) staffMentions() string {
	if len(uc.guild.StaffRoleIDs) == 0 {
		return "Our support team"
	}
	mentions := make([]string, 0, len(uc.guild.StaffRoleIDs))
	for _, id := range uc.guild.StaffRoleIDs {
		mentions = append(mentions, discord.RoleMention(id))
	}
	return strings.Join(mentions, ", ")
}

// RequestClose handles a click on the close button. Staff get a status
// confirmation, the creator closes the ticket directly.
func (uc *TicketUseCase) RequestClose(ctx context.Context, i *discordgo.Interaction) error {
	member := i.Member
	if member == nil || member.User == nil {
		return uc.followup(ctx, i, msgGuildOnly)
	}
	if member.User.Bot {
		return nil
	}
	logger := logging.From(ctx).With("channel_id", i.ChannelID, "user_id", member.User.ID)

	ch, err := uc.svc.GetChannel(ctx, i.ChannelID)
	if err != nil {
		return goerr.Wrap(err, "failed to resolve ticket channel", goerr.V(ChannelIDKey, i.ChannelID))
	}

	topic, err := model.ParseTicketTopic(ch.Topic)
	if err != nil {
		logger.Warn("Ticket creator unknown", "topic", ch.Topic)
	}

	if !uc.MayClose(member, topic.CreatorID) {
		return uc.followup(ctx, i, msgNoClosePermission)
	}
	if !uc.transition(ch.ID, types.TicketStateCloseRequested) {
		return uc.followup(ctx, i, msgAlreadyClosing)
	}

	closeMessageID := ""
	if i.Message != nil {
		closeMessageID = i.Message.ID
		uc.disableButtons(ctx, i.Message)
	}

	if uc.IsStaff(member) {
		if err := uc.requestConfirmation(ctx, ch, member, topic.CreatorID, closeMessageID); err != nil {
			uc.forget(ch.ID)
			uc.rearm(ctx, ch.ID, closeMessageID)
			_ = uc.followup(ctx, i, msgConfirmFailed)
			return err
		}
		return uc.followup(ctx, i, msgConfirmInChannel)
	}

	if err := uc.followup(ctx, i, msgClosingOwnTicket); err != nil {
		logger.Warn("Failed to acknowledge closure", "error", err.Error())
	}
	uc.transition(ch.ID, types.TicketStateClosing)
	return uc.Finalize(ctx, &Closure{
		Channel:        ch,
		Closer:         member,
		Status:         types.TicketStatusUserClosed,
		CreatorID:      topic.CreatorID,
		CreatorName:    topic.CreatorName,
		CloseMessageID: closeMessageID,
	})
}

func (uc *TicketUseCase) requestConfirmation(ctx context.Context, ch *discordgo.Channel, closer *discordgo.Member, creatorID, closeMessageID string) error {
	msg, err := uc.svc.SendMessage(ctx, ch.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       confirmTitle,
			Description: confirmDescription,
			Color:       discord.ColorOrange,
		}},
		Components: discord.ConfirmClosureComponents(),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to post closure confirmation", goerr.V(ChannelIDKey, ch.ID))
	}

	c := &model.ClosureConfirmation{
		ID:             model.NewClosureConfirmationID(),
		ChannelID:      ch.ID,
		MessageID:      msg.ID,
		CloseMessageID: closeMessageID,
		CreatorID:      creatorID,
		CloserID:       closer.User.ID,
		CloserIsStaff:  true,
		CreatedAt:      uc.now(),
		TTL:            uc.guild.ConfirmationTTL(),
	}
	uc.transition(ch.ID, types.TicketStateConfirming)

	expireCtx := context.WithoutCancel(ctx)
	if !uc.confirmations.register(c, func(c *model.ClosureConfirmation) {
		uc.expire(expireCtx, c)
	}) {
		uc.disableButtons(ctx, msg)
		return goerr.Wrap(ErrShuttingDown, "confirmation not registered", goerr.V(ChannelIDKey, ch.ID))
	}

	logging.From(ctx).Info("Closure confirmation requested",
		"channel_id", ch.ID, "confirmation_id", c.ID, "expires_at", c.ExpiresAt())
	return nil
}

// expire disables a confirmation that received no decision and returns the
// ticket to open
func (uc *TicketUseCase) expire(ctx context.Context, c *model.ClosureConfirmation) {
	logger := logging.From(ctx).With("channel_id", c.ChannelID, "confirmation_id", c.ID)
	logger.Info("Closure confirmation timed out")

	disabled, _ := discord.DisableComponents(discord.ConfirmClosureComponents())
	content := msgConfirmationTimedOut
	if _, err := uc.svc.EditMessage(ctx, &discordgo.MessageEdit{
		ID:         c.MessageID,
		Channel:    c.ChannelID,
		Content:    &content,
		Components: &disabled,
	}); err != nil {
		logger.Warn("Failed to disable timed out confirmation", "error", err.Error())
	}

	uc.transition(c.ChannelID, types.TicketStateOpen)
	uc.rearm(ctx, c.ChannelID, c.CloseMessageID)
	uc.sink.Line(ctx, fmt.Sprintf("Closure confirmation in %s timed out; ticket stays open.", discord.ChannelMention(c.ChannelID)))
}

// ConfirmClose handles a staff decision on a pending confirmation
func (uc *TicketUseCase) ConfirmClose(ctx context.Context, i *discordgo.Interaction, status types.TicketStatus) error {
	member := i.Member
	if member == nil || member.User == nil {
		return uc.followup(ctx, i, msgGuildOnly)
	}
	if member.User.Bot || i.Message == nil {
		return nil
	}
	if !uc.IsStaff(member) {
		return uc.followup(ctx, i, msgStaffOnly)
	}

	c, ok := uc.confirmations.take(i.Message.ID)
	if !ok {
		uc.disableButtons(ctx, i.Message)
		return uc.followup(ctx, i, msgConfirmationExpired)
	}
	if !uc.transition(c.ChannelID, types.TicketStateClosing) {
		return uc.followup(ctx, i, msgAlreadyClosing)
	}
	uc.disableButtons(ctx, i.Message)

	if err := uc.followup(ctx, i, fmt.Sprintf(msgInitiatingClosure, status.Upper())); err != nil {
		logging.From(ctx).Warn("Failed to acknowledge closure", "error", err.Error())
	}

	ch, err := uc.svc.GetChannel(ctx, c.ChannelID)
	if err != nil {
		uc.forget(c.ChannelID)
		uc.rearm(ctx, c.ChannelID, c.CloseMessageID)
		return goerr.Wrap(err, "failed to resolve ticket channel", goerr.V(ChannelIDKey, c.ChannelID))
	}

	creatorName := ""
	if topic, err := model.ParseTicketTopic(ch.Topic); err == nil {
		creatorName = topic.CreatorName
	}

	return uc.Finalize(ctx, &Closure{
		Channel:        ch,
		Closer:         member,
		Status:         status,
		CreatorID:      c.CreatorID,
		CreatorName:    creatorName,
		CloserIsStaff:  true,
		CloseMessageID: c.CloseMessageID,
	})
}

// disableButtons disables every button of msg. Missing messages and
// permission failures are tolerated.
func (uc *TicketUseCase) disableButtons(ctx context.Context, msg *discordgo.Message) {
	components, changed := discord.DisableComponents(msg.Components)
	if !changed {
		return
	}
	if _, err := uc.svc.EditMessage(ctx, &discordgo.MessageEdit{
		ID:         msg.ID,
		Channel:    msg.ChannelID,
		Components: &components,
	}); err != nil {
		logging.From(ctx).Warn("Failed to disable buttons",
			"message_id", msg.ID, "outcome", discord.Classify(err).String(), "error", err.Error())
	}
}

// rearm enables the close button again
func (uc *TicketUseCase) rearm(ctx context.Context, channelID, messageID string) {
	if messageID == "" {
		return
	}
	components := discord.CloseTicketComponents()
	if _, err := uc.svc.EditMessage(ctx, &discordgo.MessageEdit{
		ID:         messageID,
		Channel:    channelID,
		Components: &components,
	}); err != nil {
		logging.From(ctx).Warn("Failed to re-enable close button", "message_id", messageID, "error", err.Error())
	}
}

func (uc *TicketUseCase) followup(ctx context.Context, i *discordgo.Interaction, content string) error {
	if err := uc.svc.Followup(ctx, i, content); err != nil {
		return goerr.Wrap(err, "failed to send follow-up", goerr.V("interaction_id", i.ID))
	}
	return nil
}
