package usecase_test

import (
	"slices"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/service/discord/discordtest"
	"github.com/m-mizutani/gt"
)

func reaction(messageID, emoji, userID string) *discordgo.MessageReaction {
	return &discordgo.MessageReaction{
		UserID:    userID,
		MessageID: messageID,
		ChannelID: roleChannelID,
		GuildID:   "800000000000000001",
		Emoji:     discordgo.Emoji{Name: emoji},
	}
}

// selectRole simulates a user clicking emoji on the anchor and the gateway
// delivering the event
func selectRole(t *testing.T, env *testEnv, anchorID, emoji, userID string) {
	t.Helper()
	env.fake.React(anchorID, emoji, userID)
	gt.NoError(t, env.uc.Role.HandleReactionAdd(t.Context(), reaction(anchorID, emoji, userID))).Required()
}

func prepareAnchor(t *testing.T, env *testEnv) string {
	t.Helper()
	gt.NoError(t, env.uc.Role.EnsureAnchor(t.Context())).Required()
	anchorID := env.uc.Role.AnchorMessageID()
	gt.Value(t, anchorID).NotEqual("")
	return anchorID
}

func TestEnsureAnchor(t *testing.T) {
	t.Run("creates the anchor and seeds one reaction per binding", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)

		msgs := env.fake.Messages(roleChannelID)
		gt.Array(t, msgs).Length(1)
		gt.Value(t, msgs[0].ID).Equal(anchorID)
		gt.Value(t, msgs[0].Embeds[0].Title).Equal("Select your Operating System")
		gt.Array(t, msgs[0].Embeds[0].Fields).Length(3)

		for _, emoji := range []string{"🪟", "🍎", "🐧"} {
			gt.Array(t, env.fake.Reactors(anchorID, emoji)).Equal([]string{env.fake.BotUserID()})
		}

		stored, err := env.repo.Posting().Get(t.Context(), model.NewPostingKey(model.PostingDocReactionRoles))
		gt.NoError(t, err).Required()
		gt.Value(t, stored.MessageID.String()).Equal(anchorID)
	})

	t.Run("second run adds nothing", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)

		gt.NoError(t, env.uc.Role.EnsureAnchor(t.Context())).Required()
		gt.Value(t, env.uc.Role.AnchorMessageID()).Equal(anchorID)
		gt.Number(t, env.fake.Calls(discordtest.MethodAddReaction)).Equal(3)
		gt.Array(t, env.fake.Messages(roleChannelID)).Length(1)
	})

	t.Run("fixed anchor message is used as-is", func(t *testing.T) {
		// the fake assigns sequential ids, the first message is 1001
		env := newTestEnv(t, func(g *model.Guild) {
			g.ReactionRoles.AnchorMessageID = "1001"
		})
		msg := env.fake.Post(roleChannelID, staffUser, "Pick your OS below")
		gt.Value(t, msg.ID).Equal("1001").Required()

		gt.NoError(t, env.uc.Role.EnsureAnchor(t.Context())).Required()
		gt.Value(t, env.uc.Role.AnchorMessageID()).Equal("1001")
		gt.Array(t, env.fake.Messages(roleChannelID)).Length(1)
		gt.Number(t, env.fake.Calls(discordtest.MethodSendMessage)).Equal(0)
		gt.Array(t, env.fake.Reactors("1001", "🐧")).Equal([]string{env.fake.BotUserID()})
	})

	t.Run("missing permission to react fails", func(t *testing.T) {
		env := newTestEnv(t)
		env.fake.FailFn = func(method, _ string) error {
			if method == discordtest.MethodAddReaction {
				return discordtest.Forbidden()
			}
			return nil
		}
		gt.Error(t, env.uc.Role.EnsureAnchor(t.Context()))
	})

	t.Run("disabled without bindings", func(t *testing.T) {
		env := newTestEnv(t, func(g *model.Guild) {
			g.ReactionRoles.Bindings = nil
		})
		gt.NoError(t, env.uc.Role.EnsureAnchor(t.Context())).Required()
		gt.Array(t, env.fake.Messages(roleChannelID)).Length(0)
		gt.Value(t, env.uc.Role.AnchorMessageID()).Equal("")
	})
}

func TestHandleReactionAdd(t *testing.T) {
	t.Run("member holds at most one bound role", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)
		uid := creatorUser.ID

		selectRole(t, env, anchorID, "🪟", uid)
		gt.Array(t, env.fake.Roles(uid)).Equal([]string{windowsRoleID})

		selectRole(t, env, anchorID, "🐧", uid)
		gt.Array(t, env.fake.Roles(uid)).Equal([]string{linuxRoleID})
		gt.B(t, slices.Contains(env.fake.Reactors(anchorID, "🪟"), uid)).False()
		gt.B(t, slices.Contains(env.fake.Reactors(anchorID, "🐧"), uid)).True()

		selectRole(t, env, anchorID, "🍎", uid)
		gt.Array(t, env.fake.Roles(uid)).Equal([]string{macRoleID})
		gt.B(t, slices.Contains(env.fake.Reactors(anchorID, "🐧"), uid)).False()

		// bot seed reactions stay in place
		for _, emoji := range []string{"🪟", "🍎", "🐧"} {
			gt.B(t, slices.Contains(env.fake.Reactors(anchorID, emoji), env.fake.BotUserID())).True()
		}
	})

	t.Run("unrelated roles are kept", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)

		selectRole(t, env, anchorID, "🍎", staffUser.ID)
		gt.Array(t, env.fake.Roles(staffUser.ID)).Equal([]string{staffRoleID, macRoleID})
	})

	t.Run("repeated reaction does not re-grant", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)

		selectRole(t, env, anchorID, "🪟", otherUser.ID)
		selectRole(t, env, anchorID, "🪟", otherUser.ID)
		gt.Number(t, env.fake.Calls(discordtest.MethodAddRole)).Equal(1)
	})

	t.Run("audit lines describe every role change", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)
		before := len(env.fake.Messages(logChannelID))

		selectRole(t, env, anchorID, "🪟", creatorUser.ID)
		selectRole(t, env, anchorID, "🐧", creatorUser.ID)

		logs := env.fake.Messages(logChannelID)[before:]
		gt.Array(t, logs).Length(3)
		gt.String(t, logs[0].Content).Contains("Role **Windows** added to **alice** (ID: 111) by reaction '🪟' on message ID " + anchorID + ".")
		gt.String(t, logs[1].Content).Contains("Roles **Windows** removed from **alice** (ID: 111) to keep a single role selection.")
		gt.String(t, logs[2].Content).Contains("Role **Linux** added to **alice**")
	})

	t.Run("ignores reactions that are not role selections", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)
		other := env.fake.Post(roleChannelID, otherUser, "hello")

		ctx := t.Context()
		gt.NoError(t, env.uc.Role.HandleReactionAdd(ctx, reaction(other.ID, "🪟", creatorUser.ID)))
		gt.NoError(t, env.uc.Role.HandleReactionAdd(ctx, reaction(anchorID, "🔥", creatorUser.ID)))
		gt.NoError(t, env.uc.Role.HandleReactionAdd(ctx, reaction(anchorID, "🪟", env.fake.BotUserID())))

		gt.Number(t, env.fake.Calls(discordtest.MethodGetMember)).Equal(0)
		gt.Array(t, env.fake.Roles(creatorUser.ID)).Length(0)
	})

	t.Run("nothing is tracked before the anchor is known", func(t *testing.T) {
		env := newTestEnv(t)
		gt.NoError(t, env.uc.Role.HandleReactionAdd(t.Context(), reaction("123", "🪟", creatorUser.ID)))
		gt.Number(t, env.fake.Calls(discordtest.MethodGetMember)).Equal(0)
	})

	t.Run("missing permission is contained", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)
		env.fake.FailFn = func(method, _ string) error {
			if method == discordtest.MethodAddRole {
				return discordtest.Forbidden()
			}
			return nil
		}

		gt.NoError(t, env.uc.Role.HandleReactionAdd(t.Context(), reaction(anchorID, "🪟", creatorUser.ID)))
		gt.Array(t, env.fake.Roles(creatorUser.ID)).Length(0)
	})

	t.Run("other failures are returned", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)
		env.fake.FailFn = func(method, _ string) error {
			if method == discordtest.MethodGetMember {
				return discordtest.NotFound()
			}
			return nil
		}

		gt.Error(t, env.uc.Role.HandleReactionAdd(t.Context(), reaction(anchorID, "🪟", creatorUser.ID)))
	})
}

func TestHandleReactionRemove(t *testing.T) {
	t.Run("revokes the bound role", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)
		selectRole(t, env, anchorID, "🐧", creatorUser.ID)

		gt.NoError(t, env.uc.Role.HandleReactionRemove(t.Context(), reaction(anchorID, "🐧", creatorUser.ID))).Required()
		gt.Array(t, env.fake.Roles(creatorUser.ID)).Length(0)

		logs := env.fake.Messages(logChannelID)
		gt.String(t, logs[len(logs)-1].Content).Contains("Role **Linux** removed from **alice** (ID: 111)")
	})

	t.Run("role not held is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)

		gt.NoError(t, env.uc.Role.HandleReactionRemove(t.Context(), reaction(anchorID, "🐧", creatorUser.ID))).Required()
		gt.Number(t, env.fake.Calls(discordtest.MethodRemoveRole)).Equal(0)
	})

	t.Run("member who left is ignored", func(t *testing.T) {
		env := newTestEnv(t)
		anchorID := prepareAnchor(t, env)

		gt.NoError(t, env.uc.Role.HandleReactionRemove(t.Context(), reaction(anchorID, "🐧", "404"))).Required()
	})
}
