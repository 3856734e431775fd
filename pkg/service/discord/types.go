package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Service provides the subset of the Discord API the bot relies on.
// Every method returns errors classifiable with Classify.
type Service interface {
	// BotUserID returns the user id of the connected bot. Empty until the
	// gateway session is ready.
	BotUserID() string

	// GetMessage fetches a single message
	GetMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)

	// SendMessage posts a message to a channel
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	// EditMessage edits an existing message
	EditMessage(ctx context.Context, edit *discordgo.MessageEdit) (*discordgo.Message, error)

	// History returns up to limit messages of a channel, oldest first
	History(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)

	// RecentMessages returns up to limit of the latest messages, newest first
	RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)

	// AddReaction adds the bot's reaction to a message
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error

	// RemoveReaction removes a user's reaction from a message
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error

	// HasReacted reports whether userID currently reacted with emoji
	HasReacted(ctx context.Context, channelID, messageID, emoji, userID string) (bool, error)

	// GetChannel resolves a channel, cache first
	GetChannel(ctx context.Context, channelID string) (*discordgo.Channel, error)

	// CreateChannel creates a guild channel
	CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)

	// DeleteChannel deletes a channel, recording reason in the audit log
	DeleteChannel(ctx context.Context, channelID, reason string) error

	// GetMember resolves a guild member from the API, bypassing the cache
	GetMember(ctx context.Context, guildID, userID string) (*discordgo.Member, error)

	// GetUser resolves a user, cache first
	GetUser(ctx context.Context, userID string) (*discordgo.User, error)

	// AddRole grants a role to a member
	AddRole(ctx context.Context, guildID, userID, roleID string) error

	// RemoveRole revokes a role from a member
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error

	// SendDirectMessage delivers a private message to a user
	SendDirectMessage(ctx context.Context, userID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	// DeferInteraction acknowledges an interaction with a deferred ephemeral response
	DeferInteraction(ctx context.Context, i *discordgo.Interaction) error

	// RespondEphemeral answers an interaction immediately with an ephemeral message
	RespondEphemeral(ctx context.Context, i *discordgo.Interaction, content string) error

	// Followup sends an ephemeral follow-up to a deferred interaction
	Followup(ctx context.Context, i *discordgo.Interaction, content string) error
}
