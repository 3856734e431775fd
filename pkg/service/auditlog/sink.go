package auditlog

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
)

// Sink appends best-effort audit entries to a fixed channel. No method
// returns an error: delivery failures are logged and swallowed.
type Sink interface {
	// Line posts "[timestamp] text"
	Line(ctx context.Context, text string)
	// Embed posts an embed with optional file attachments
	Embed(ctx context.Context, embed *discordgo.MessageEmbed, files ...*discordgo.File)
}

// ChannelSink posts to one Discord channel
type ChannelSink struct {
	svc       discord.Service
	channelID string
	now       func() time.Time
}

var _ Sink = &ChannelSink{}

// Option is a functional option for ChannelSink
type Option func(*ChannelSink)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *ChannelSink) {
		s.now = now
	}
}

// New returns a sink writing to channelID. An empty channelID yields a sink
// that only logs locally.
func New(svc discord.Service, channelID string, opts ...Option) *ChannelSink {
	s := &ChannelSink{
		svc:       svc,
		channelID: channelID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChannelID returns the audit channel id
func (s *ChannelSink) ChannelID() string {
	return s.channelID
}

func (s *ChannelSink) Line(ctx context.Context, text string) {
	line := "[" + s.now().Format(discord.TimestampFormat) + "] " + text
	logging.From(ctx).Info("audit", "line", line)

	if s.channelID == "" || s.svc == nil {
		return
	}
	if _, err := s.svc.SendMessage(ctx, s.channelID, &discordgo.MessageSend{Content: line}); err != nil {
		s.warn(ctx, err)
	}
}

func (s *ChannelSink) Embed(ctx context.Context, embed *discordgo.MessageEmbed, files ...*discordgo.File) {
	logging.From(ctx).Info("audit", "title", embed.Title, "files", len(files))

	if s.channelID == "" || s.svc == nil {
		return
	}
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  files,
	}
	if _, err := s.svc.SendMessage(ctx, s.channelID, msg); err != nil {
		s.warn(ctx, err)
	}
}

// Startup announces that the bot is connected
func (s *ChannelSink) Startup(ctx context.Context, botName string) {
	if s.channelID == "" || s.svc == nil {
		return
	}
	if _, err := s.svc.GetChannel(ctx, s.channelID); err != nil {
		s.warn(ctx, err)
		return
	}

	text := "Bot **" + botName + "** started and logging active. (" + s.now().Format(discord.TimestampFormat) + ")"
	if _, err := s.svc.SendMessage(ctx, s.channelID, &discordgo.MessageSend{Content: text}); err != nil {
		s.warn(ctx, err)
	}
}

func (s *ChannelSink) warn(ctx context.Context, err error) {
	logging.From(ctx).Warn("Failed to write audit log",
		"channel_id", s.channelID,
		"outcome", discord.Classify(err).String(),
		"error", err.Error(),
	)
}
