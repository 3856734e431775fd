package auditlog_test

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/service/auditlog"
	"github.com/homedocks/homedocks-bot/pkg/service/discord/discordtest"
	"github.com/m-mizutani/gt"
)

const logChannelID = "1383000000000000001"

func fixedClock() func() time.Time {
	ts := time.Date(2025, 6, 10, 14, 3, 9, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestChannelSink_Line(t *testing.T) {
	t.Run("posts timestamped line", func(t *testing.T) {
		fake := discordtest.New()
		fake.AddChannel(logChannelID, "bot-log")
		sink := auditlog.New(fake, logChannelID, auditlog.WithClock(fixedClock()))

		sink.Line(t.Context(), "Role **Linux** added to **alice**")

		msgs := fake.Messages(logChannelID)
		gt.Array(t, msgs).Length(1)
		gt.Value(t, msgs[0].Content).Equal("[2025-06-10 14:03:09] Role **Linux** added to **alice**")
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		fake := discordtest.New()
		fake.AddChannel(logChannelID, "bot-log")
		fake.FailFn = func(method, target string) error {
			return discordtest.Forbidden()
		}
		sink := auditlog.New(fake, logChannelID)

		sink.Line(t.Context(), "anything")
		gt.Number(t, fake.Calls(discordtest.MethodSendMessage)).Equal(1)
	})

	t.Run("no channel configured only logs", func(t *testing.T) {
		fake := discordtest.New()
		sink := auditlog.New(fake, "")

		sink.Line(t.Context(), "anything")
		gt.Number(t, fake.Calls(discordtest.MethodSendMessage)).Equal(0)
	})
}

func TestChannelSink_Embed(t *testing.T) {
	fake := discordtest.New()
	fake.AddChannel(logChannelID, "bot-log")
	sink := auditlog.New(fake, logChannelID)

	sink.Embed(t.Context(),
		&discordgo.MessageEmbed{Title: "Ticket Closed: ticket-alice-web-problem (SOLVED)"},
		&discordgo.File{Name: "log_transcript-ticket-alice-web-problem.txt", Reader: strings.NewReader("body")},
	)

	msgs := fake.Messages(logChannelID)
	gt.Array(t, msgs).Length(1)
	gt.Value(t, msgs[0].Embeds[0].Title).Equal("Ticket Closed: ticket-alice-web-problem (SOLVED)")

	files := fake.Files(msgs[0].ID)
	gt.Array(t, files).Length(1)
	gt.Value(t, files[0].Name).Equal("log_transcript-ticket-alice-web-problem.txt")
	gt.Value(t, files[0].Content).Equal("body")
}

func TestChannelSink_Startup(t *testing.T) {
	t.Run("announces bot", func(t *testing.T) {
		fake := discordtest.New()
		fake.AddChannel(logChannelID, "bot-log")
		sink := auditlog.New(fake, logChannelID, auditlog.WithClock(fixedClock()))

		sink.Startup(t.Context(), "Homedocks Bot")

		msgs := fake.Messages(logChannelID)
		gt.Array(t, msgs).Length(1)
		gt.Value(t, msgs[0].Content).Equal("Bot **Homedocks Bot** started and logging active. (2025-06-10 14:03:09)")
	})

	t.Run("unknown channel is skipped", func(t *testing.T) {
		fake := discordtest.New()
		sink := auditlog.New(fake, logChannelID)

		sink.Startup(t.Context(), "Homedocks Bot")
		gt.Number(t, fake.Calls(discordtest.MethodSendMessage)).Equal(0)
	})
}
