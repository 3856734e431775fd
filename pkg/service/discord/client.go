package discord

import (
	"context"
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultIntents are the gateway intents the bot subscribes to
	DefaultIntents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildMembers

	pageSize = 100
)

// Client implements Service on top of a discordgo session
type Client struct {
	session *discordgo.Session
}

var _ Service = &Client{}

// Option is a functional option for client configuration
type Option func(*Client)

// WithIntents overrides the gateway intents
func WithIntents(intents discordgo.Intent) Option {
	return func(c *Client) {
		c.session.Identify.Intents = intents
	}
}

// WithStateTracking toggles discordgo's in-memory cache
func WithStateTracking(enabled bool) Option {
	return func(c *Client) {
		c.session.StateEnabled = enabled
	}
}

// New creates a Discord client for the given bot token. The gateway is not
// opened until Open is called.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, goerr.New("Discord bot token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create discord session")
	}
	session.Identify.Intents = DefaultIntents

	c := &Client{session: session}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AddHandler registers a gateway event handler, see discordgo.Session.AddHandler
func (c *Client) AddHandler(handler any) func() {
	return c.session.AddHandler(handler)
}

// Open connects to the gateway
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return goerr.Wrap(err, "failed to open discord gateway")
	}
	return nil
}

// Close disconnects from the gateway
func (c *Client) Close() error {
	if err := c.session.Close(); err != nil {
		return goerr.Wrap(err, "failed to close discord gateway")
	}
	return nil
}

func (c *Client) BotUserID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *Client) GetMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	msg, err := c.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch message",
			goerr.V("channel_id", channelID), goerr.V("message_id", messageID))
	}
	return msg, nil
}

func (c *Client) SendMessage(ctx context.Context, channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	msg, err := c.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to send message", goerr.V("channel_id", channelID))
	}
	return msg, nil
}

func (c *Client) EditMessage(ctx context.Context, edit *discordgo.MessageEdit) (*discordgo.Message, error) {
	msg, err := c.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to edit message",
			goerr.V("channel_id", edit.Channel), goerr.V("message_id", edit.ID))
	}
	return msg, nil
}

func (c *Client) History(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	var result []*discordgo.Message
	after := "0"

	for len(result) < limit {
		size := min(pageSize, limit-len(result))
		page, err := c.session.ChannelMessages(channelID, size, "", after, "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrapErr(err, "failed to read channel history",
				goerr.V("channel_id", channelID), goerr.V("after", after))
		}
		if len(page) == 0 {
			break
		}

		SortMessages(page)
		result = append(result, page...)
		after = page[len(page)-1].ID

		if len(page) < size {
			break
		}
	}

	return result, nil
}

func (c *Client) RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	msgs, err := c.session.ChannelMessages(channelID, min(limit, pageSize), "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to read recent messages", goerr.V("channel_id", channelID))
	}
	return msgs, nil
}

func (c *Client) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := c.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return wrapErr(err, "failed to add reaction",
			goerr.V("channel_id", channelID), goerr.V("message_id", messageID), goerr.V("emoji", emoji))
	}
	return nil
}

func (c *Client) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	if err := c.session.MessageReactionRemove(channelID, messageID, emoji, userID, discordgo.WithContext(ctx)); err != nil {
		return wrapErr(err, "failed to remove reaction",
			goerr.V("channel_id", channelID), goerr.V("message_id", messageID),
			goerr.V("emoji", emoji), goerr.V("user_id", userID))
	}
	return nil
}

func (c *Client) HasReacted(ctx context.Context, channelID, messageID, emoji, userID string) (bool, error) {
	after := ""
	for {
		users, err := c.session.MessageReactions(channelID, messageID, emoji, pageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return false, wrapErr(err, "failed to list reaction users",
				goerr.V("channel_id", channelID), goerr.V("message_id", messageID), goerr.V("emoji", emoji))
		}
		for _, u := range users {
			if u.ID == userID {
				return true, nil
			}
		}
		if len(users) < pageSize {
			return false, nil
		}
		after = users[len(users)-1].ID
	}
}

func (c *Client) GetChannel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if c.session.StateEnabled && c.session.State != nil {
		if ch, err := c.session.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}

	ch, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch channel", goerr.V("channel_id", channelID))
	}
	return ch, nil
}

func (c *Client) CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	ch, err := c.session.GuildChannelCreateComplex(guildID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to create channel",
			goerr.V("guild_id", guildID), goerr.V("name", data.Name))
	}
	return ch, nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelID, reason string) error {
	if _, err := c.session.ChannelDelete(channelID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason)); err != nil {
		return wrapErr(err, "failed to delete channel", goerr.V("channel_id", channelID))
	}
	return nil
}

func (c *Client) GetMember(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	member, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch member",
			goerr.V("guild_id", guildID), goerr.V("user_id", userID))
	}
	return member, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (*discordgo.User, error) {
	user, err := c.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to fetch user", goerr.V("user_id", userID))
	}
	return user, nil
}

func (c *Client) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return wrapErr(err, "failed to add role",
			goerr.V("guild_id", guildID), goerr.V("user_id", userID), goerr.V("role_id", roleID))
	}
	return nil
}

func (c *Client) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return wrapErr(err, "failed to remove role",
			goerr.V("guild_id", guildID), goerr.V("user_id", userID), goerr.V("role_id", roleID))
	}
	return nil
}

func (c *Client) SendDirectMessage(ctx context.Context, userID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	ch, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to open direct message channel", goerr.V("user_id", userID))
	}

	msg, err := c.session.ChannelMessageSendComplex(ch.ID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr(err, "failed to send direct message", goerr.V("user_id", userID))
	}
	return msg, nil
}

func (c *Client) DeferInteraction(ctx context.Context, i *discordgo.Interaction) error {
	err := c.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return wrapErr(err, "failed to defer interaction", goerr.V("interaction_id", i.ID))
	}
	return nil
}

func (c *Client) RespondEphemeral(ctx context.Context, i *discordgo.Interaction, content string) error {
	err := c.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return wrapErr(err, "failed to respond to interaction", goerr.V("interaction_id", i.ID))
	}
	return nil
}

func (c *Client) Followup(ctx context.Context, i *discordgo.Interaction, content string) error {
	_, err := c.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return wrapErr(err, "failed to send follow-up", goerr.V("interaction_id", i.ID))
	}
	return nil
}

// SortMessages orders messages oldest first by snowflake
func SortMessages(msgs []*discordgo.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return snowflakeLess(msgs[i].ID, msgs[j].ID)
	})
}

func snowflakeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
