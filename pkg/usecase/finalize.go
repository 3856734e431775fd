package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/domain/types"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/homedocks/homedocks-bot/pkg/utils/errutil"
	"github.com/homedocks/homedocks-bot/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Closure describes a ticket being finalized
type Closure struct {
	Channel       *discordgo.Channel
	Closer        *discordgo.Member
	Status        types.TicketStatus
	CreatorID     string
	CreatorName   string
	CloserIsStaff bool

	// CloseMessageID is the message carrying the close button, re-enabled
	// when the channel survives the closure
	CloseMessageID string

	closedAt time.Time
}

func (c *Closure) closerName() string {
	return discord.DisplayName(c.Closer)
}

func (c *Closure) closerID() string {
	if c.Closer == nil || c.Closer.User == nil {
		return ""
	}
	return c.Closer.User.ID
}

func (c *Closure) creatorMention() string {
	if c.CreatorID == "" {
		return "N/A"
	}
	return discord.Mention(c.CreatorID)
}

func (c *Closure) color() int {
	switch c.Status {
	case types.TicketStatusSolved:
		return discord.ColorGreen
	case types.TicketStatusUserClosed:
		return discord.ColorGreyple
	default:
		return discord.ColorRed
	}
}

// Finalize archives a ticket and deletes its channel. Notice, archive, audit
// mirror and creator notification are best effort; the channel is deleted
// whatever their outcome.
func (uc *TicketUseCase) Finalize(ctx context.Context, c *Closure) error {
	ch := c.Channel
	c.closedAt = uc.now()
	logger := logging.From(ctx).With("channel_id", ch.ID, "status", c.Status.String())

	by := "by the ticket creator"
	if c.CloserIsStaff {
		by = "by a staff member"
	}
	notice := fmt.Sprintf("Ticket closure confirmed as **%s** %s (%s). Compiling transcript...", c.Status.Upper(), by, c.closerName())
	if _, err := uc.svc.SendMessage(ctx, ch.ID, &discordgo.MessageSend{Content: notice}); err != nil {
		logger.Warn("Failed to post closure notice", "error", err.Error())
	}

	transcript := uc.buildTranscript(ctx, c).Render()

	var eg errgroup.Group
	eg.Go(func() error {
		if err := uc.archive(ctx, c, transcript); err != nil {
			_ = errutil.Handle(ctx, err, "failed to archive ticket transcript")
		}
		return nil
	})
	eg.Go(func() error {
		uc.mirror(ctx, c, transcript)
		return nil
	})
	eg.Go(func() error {
		if err := uc.notifyCreator(ctx, c, transcript); err != nil {
			if discord.Classify(err) == discord.OutcomeFatal {
				logger.Warn("Creator does not accept direct messages", "creator_id", c.CreatorID)
			} else {
				_ = errutil.Handle(ctx, err, "failed to notify ticket creator")
			}
		}
		return nil
	})
	_ = eg.Wait()

	reason := fmt.Sprintf("Ticket closed by %s (%s)", c.closerName(), c.Status)
	if err := uc.svc.DeleteChannel(ctx, ch.ID, reason); err != nil && !discord.IsNotFound(err) {
		uc.forget(ch.ID)
		uc.rearm(ctx, ch.ID, c.CloseMessageID)
		return goerr.Wrap(err, "failed to delete ticket channel", goerr.V(ChannelIDKey, ch.ID))
	}

	uc.transition(ch.ID, types.TicketStateDeleted)
	logger.Info("Ticket closed", "closer_id", c.closerID())
	return nil
}

func (uc *TicketUseCase) openedAt(ch *discordgo.Channel) time.Time {
	ts, err := discordgo.SnowflakeTimestamp(ch.ID)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func transcriptFile(prefix, channelName, transcript string) *discordgo.File {
	return &discordgo.File{
		Name:        prefix + channelName + ".txt",
		ContentType: "text/plain",
		Reader:      strings.NewReader(transcript),
	}
}

// archive posts the summary and transcript to the archive channel. A failed
// delivery is reported in the ticket channel before it is deleted.
func (uc *TicketUseCase) archive(ctx context.Context, c *Closure, transcript string) error {
	if uc.guild.ArchiveChannelID == "" {
		return nil
	}
	ch := c.Channel

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Ticket Closed: %s (%s)", ch.Name, c.Status.Upper()),
		Description: fmt.Sprintf("Ticket by %s closed by %s.", c.creatorMention(), discord.Mention(c.closerID())),
		Color:       c.color(),
		Fields: []*discordgo.MessageEmbedField{
			discord.EmbedField("Channel", "#"+ch.Name),
			discord.EmbedField("Opened At", uc.openedAt(ch).UTC().Format(discord.TimestampFormatUTC)),
			discord.EmbedField("Closed At", c.closedAt.UTC().Format(discord.TimestampFormatUTC)),
			discord.EmbedField("Closer", discord.Mention(c.closerID())),
			discord.EmbedField("Final Status", c.Status.Upper()),
			discord.EmbedField("Closed by Role", closerRole(c.CloserIsStaff)),
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Ticket ID: " + ch.ID},
	}

	_, err := uc.svc.SendMessage(ctx, uc.guild.ArchiveChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  []*discordgo.File{transcriptFile("transcript-", ch.Name, transcript)},
	})
	if err == nil {
		return nil
	}

	reason := "the archive channel rejected the message"
	if discord.IsTooLarge(err) {
		reason = "the transcript exceeds the upload size limit"
	}
	notice := fmt.Sprintf("⚠️ Error archiving transcript: %s. The channel will still be deleted.", reason)
	if _, noticeErr := uc.svc.SendMessage(ctx, ch.ID, &discordgo.MessageSend{Content: notice}); noticeErr != nil {
		logging.From(ctx).Warn("Failed to post archive failure notice", "error", noticeErr.Error())
	}

	return goerr.Wrap(err, "failed to send transcript to archive channel",
		goerr.V(ChannelIDKey, ch.ID),
		goerr.V("transcript_bytes", len(transcript)))
}

// mirror posts the closure summary and transcript to the audit channel
func (uc *TicketUseCase) mirror(ctx context.Context, c *Closure, transcript string) {
	ch := c.Channel
	uc.sink.Embed(ctx, &discordgo.MessageEmbed{
		Title:       "Ticket Closed",
		Description: fmt.Sprintf("Ticket %s has been closed.", ch.Name),
		Color:       c.color(),
		Fields: []*discordgo.MessageEmbedField{
			discord.EmbedField("Channel", "#"+ch.Name),
			discord.EmbedField("Closed By", discord.Mention(c.closerID())),
			discord.EmbedField("Original Creator", c.creatorMention()),
			discord.EmbedField("Final Status", c.Status.Upper()),
			discord.EmbedField("Closing Role", closerRole(c.CloserIsStaff)),
			discord.EmbedField("Closed At", c.closedAt.UTC().Format(discord.TimestampFormatUTC)),
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Ticket ID: " + ch.ID},
	}, transcriptFile("log_transcript-", ch.Name, transcript))
}

// notifyCreator sends the creator a status specific DM with the transcript
func (uc *TicketUseCase) notifyCreator(ctx context.Context, c *Closure, transcript string) error {
	if c.CreatorID == "" {
		return nil
	}
	ch := c.Channel

	if _, err := uc.svc.GetUser(ctx, c.CreatorID); err != nil {
		return goerr.Wrap(err, "failed to resolve ticket creator", goerr.V(UserIDKey, c.CreatorID))
	}

	var description string
	switch c.Status {
	case types.TicketStatusSolved:
		description = fmt.Sprintf("Your support ticket in **#%s** has been closed by %s with status: **%s**.\nWe hope your issue was resolved!",
			ch.Name, c.closerName(), c.Status.Label())
	case types.TicketStatusUnresolved:
		description = fmt.Sprintf("Your support ticket in **#%s** has been closed by %s with status: **%s**.\nIf your issue persists, please open a new ticket.",
			ch.Name, c.closerName(), c.Status.Label())
	default:
		description = fmt.Sprintf("Your support ticket in **#%s** has been closed by you.\nIf you need further assistance, please open a new ticket.",
			ch.Name)
	}

	_, err := uc.svc.SendDirectMessage(ctx, c.CreatorID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Your Homedocks Ticket Has Been Closed",
			Description: description,
			Color:       discord.ColorLightGrey,
			Fields: []*discordgo.MessageEmbedField{
				discord.EmbedField("Ticket Channel", "#"+ch.Name),
				discord.EmbedField("Closed By", c.closerName()),
				discord.EmbedField("Final Status", c.Status.Upper()),
			},
			Footer: &discordgo.MessageEmbedFooter{Text: "Thank you for using Homedocks Support!"},
		}},
		Files: []*discordgo.File{transcriptFile("transcript-", ch.Name, transcript)},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to send closure DM", goerr.V(UserIDKey, c.CreatorID))
	}
	return nil
}

func closerRole(staff bool) string {
	return model.TranscriptHeader{CloserIsStaff: staff}.CloserRole()
}
