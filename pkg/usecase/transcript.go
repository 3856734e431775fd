package usecase

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
)

// buildTranscript records the ticket history oldest first. A failed history
// read yields a transcript with the header only.
func (uc *TicketUseCase) buildTranscript(ctx context.Context, c *Closure) *model.Transcript {
	ch := c.Channel
	t := &model.Transcript{
		Header: model.TranscriptHeader{
			ChannelName:   ch.Name,
			CreatorName:   c.CreatorName,
			CreatorID:     c.CreatorID,
			OpenedAt:      uc.openedAt(ch),
			CloserName:    c.closerName(),
			CloserID:      c.closerID(),
			ClosedAt:      c.closedAt,
			Status:        c.Status,
			CloserIsStaff: c.CloserIsStaff,
		},
	}

	msgs, err := uc.svc.History(ctx, ch.ID, uc.guild.MaxTranscriptMessages())
	if err != nil {
		logging.From(ctx).Warn("Failed to read ticket history", "channel_id", ch.ID, "error", err.Error())
		return t
	}

	botID := uc.svc.BotUserID()
	for _, m := range msgs {
		if isControlMessage(m, botID) {
			continue
		}
		entry := model.TranscriptEntry{
			Timestamp:  m.Timestamp,
			AuthorName: authorName(m),
			Content:    m.Content,
		}
		if m.Author != nil {
			entry.AuthorID = m.Author.ID
		}
		for _, a := range m.Attachments {
			entry.Attachments = append(entry.Attachments, a.URL)
		}
		t.Entries = append(t.Entries, entry)
	}

	return t
}

// isControlMessage reports whether m is one of the bot's own lifecycle
// messages, which are left out of transcripts
func isControlMessage(m *discordgo.Message, botID string) bool {
	if m.Author == nil || m.Author.ID != botID {
		return false
	}
	title := discord.FirstEmbedTitle(m)
	switch {
	case strings.Contains(title, "Welcome to your"),
		strings.Contains(title, confirmTitle),
		strings.Contains(m.Content, "Ticket closure confirmed as"),
		discord.HasAnyCustomID(m, discord.LifecycleCustomIDs):
		return true
	default:
		return false
	}
}

func authorName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	return discord.UserName(m.Author)
}
