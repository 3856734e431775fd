package usecase_test

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/repository/memory"
	"github.com/homedocks/homedocks-bot/pkg/service/auditlog"
	"github.com/homedocks/homedocks-bot/pkg/service/discord/discordtest"
	"github.com/homedocks/homedocks-bot/pkg/usecase"
	"github.com/m-mizutani/gt"
)

const (
	supportChannelID = "1382486905098076210"
	archiveChannelID = "1382761178551291924"
	logChannelID     = "1382493194016522353"
	categoryID       = "1382766193232056340"
	staffRoleID      = "1382054051130118327"
	roleChannelID    = "1382490687391400057"
	rulesChannelID   = "1381296490923954228"
	infoChannelID    = "1382500000000000001"

	windowsRoleID = "1382519354629029928"
	macRoleID     = "1382519429736304650"
	linuxRoleID   = "1382519529455747072"
)

var (
	creatorUser = &discordgo.User{ID: "111", Username: "alice"}
	staffUser   = &discordgo.User{ID: "222", Username: "mod"}
	otherUser   = &discordgo.User{ID: "333", Username: "carol"}
)

var fixedNow = time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	fake  *discordtest.Fake
	repo  *memory.Memory
	guild *model.Guild
	uc    *usecase.UseCases
}

func newTestEnv(t *testing.T, configure ...func(*model.Guild)) *testEnv {
	t.Helper()

	fake := discordtest.New()
	fake.Now = func() time.Time { return fixedNow }
	for id, name := range map[string]string{
		supportChannelID: "support-web",
		archiveChannelID: "ticket-archive",
		logChannelID:     "bot-log",
		roleChannelID:    "choose-your-os",
		rulesChannelID:   "rules",
		infoChannelID:    "ticket-info",
	} {
		fake.AddChannel(id, name)
	}
	fake.AddMember(creatorUser)
	fake.AddMember(staffUser, staffRoleID)
	fake.AddMember(otherUser)

	guild := &model.Guild{
		GuildID:          fake.GuildID,
		LogChannelID:     logChannelID,
		ArchiveChannelID: archiveChannelID,
		TicketCategoryID: categoryID,
		StaffRoleIDs:     []string{staffRoleID},
		SupportChannels: []model.SupportChannel{
			{ChannelID: supportChannelID, Name: "Web Support"},
		},
		Postings: model.PostingChannels{
			Rules:      rulesChannelID,
			TicketInfo: infoChannelID,
		},
		ReactionRoles: model.ReactionRoles{
			ChannelID: roleChannelID,
			Bindings: model.RoleBindings{
				{Emoji: "🪟", RoleID: windowsRoleID, Label: "Windows"},
				{Emoji: "🍎", RoleID: macRoleID, Label: "macOS"},
				{Emoji: "🐧", RoleID: linuxRoleID, Label: "Linux"},
			},
		},
	}
	for _, fn := range configure {
		fn(guild)
	}

	repo := memory.New()
	sink := auditlog.New(fake, guild.LogChannelID, auditlog.WithClock(func() time.Time { return fixedNow }))

	uc, err := usecase.New(fake, repo, sink, guild,
		usecase.WithClock(func() time.Time { return fixedNow }),
		usecase.WithPacing(0),
		usecase.WithReactionPacing(0),
	)
	gt.NoError(t, err).Required()
	t.Cleanup(uc.Close)

	return &testEnv{fake: fake, repo: repo, guild: guild, uc: uc}
}

func memberOf(user *discordgo.User, roles ...string) *discordgo.Member {
	return &discordgo.Member{User: user, Roles: roles}
}

func newInteraction(id, channelID string, member *discordgo.Member, msg *discordgo.Message) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        id,
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "800000000000000001",
		ChannelID: channelID,
		Member:    member,
		Message:   msg,
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
