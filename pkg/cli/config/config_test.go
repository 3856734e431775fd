package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

const validConfig = `
guild_id = "800"
log_channel_id = "801"
archive_channel_id = "802"
ticket_category_id = "803"
staff_role_ids = ["900", "901"]
confirmation_timeout = "5m"
transcript_limit = 500
templates_dir = "templates"

[postings]
rules_channel_id = "810"
ticket_info_channel_id = "811"

[[support_channel]]
channel_id = "820"
name = "Web Support"

[[support_channel]]
channel_id = "821"
name = "App Support"

[reaction_roles]
channel_id = "830"

  [[reaction_roles.binding]]
  emoji = "🪟"
  role_id = "940"
  label = "Windows"

  [[reaction_roles.binding]]
  emoji = "🐧"
  role_id = "941"
  label = "Linux"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homedocks.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadGuildConfig(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		path := writeConfig(t, validConfig)

		cfg, err := config.LoadGuildConfig(path)
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.GuildID).Equal("800")
		gt.Array(t, cfg.StaffRoleIDs).Equal([]string{"900", "901"})
		gt.Array(t, cfg.SupportChannels).Length(2)
		gt.Array(t, cfg.ReactionRoles.Bindings).Length(2)
		gt.Value(t, cfg.TemplatesDir).Equal(filepath.Join(filepath.Dir(path), "templates"))
		gt.Value(t, cfg.StateDir).Equal(filepath.Join(filepath.Dir(path), "state"))
	})

	t.Run("absolute state dir is kept", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, validConfig+"\n")
		content, err := os.ReadFile(path)
		gt.NoError(t, err).Required()
		gt.NoError(t, os.WriteFile(path, append([]byte("state_dir = \""+dir+"\"\n"), content...), 0600)).Required()

		cfg, err := config.LoadGuildConfig(path)
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.StateDir).Equal(dir)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadGuildConfig(filepath.Join(t.TempDir(), "absent.toml"))
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		path := writeConfig(t, validConfig+"\nlog_chanel_id = \"1\"\n")
		_, err := config.LoadGuildConfig(path)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("malformed TOML", func(t *testing.T) {
		path := writeConfig(t, "guild_id = ")
		_, err := config.LoadGuildConfig(path)
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func validGuildConfig() *config.GuildConfig {
	return &config.GuildConfig{
		GuildID:          "800",
		LogChannelID:     "801",
		ArchiveChannelID: "802",
		TicketCategoryID: "803",
		StaffRoleIDs:     []string{"900"},
		SupportChannels: []config.SupportChannel{
			{ChannelID: "820", Name: "Web Support"},
		},
		ReactionRoles: config.ReactionRoles{
			ChannelID: "830",
			Bindings: []config.RoleBinding{
				{Emoji: "🪟", RoleID: "940"},
				{Emoji: "🐧", RoleID: "941"},
			},
		},
	}
}

func TestGuildConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *config.GuildConfig)
		wantErr error
	}{
		{
			name:   "valid",
			modify: func(c *config.GuildConfig) {},
		},
		{
			name:    "missing guild id",
			modify:  func(c *config.GuildConfig) { c.GuildID = "" },
			wantErr: config.ErrMissingField,
		},
		{
			name:    "missing archive channel",
			modify:  func(c *config.GuildConfig) { c.ArchiveChannelID = "" },
			wantErr: config.ErrMissingField,
		},
		{
			name:    "non numeric log channel",
			modify:  func(c *config.GuildConfig) { c.LogChannelID = "#logs" },
			wantErr: config.ErrInvalidSnowflake,
		},
		{
			name:    "no staff roles",
			modify:  func(c *config.GuildConfig) { c.StaffRoleIDs = nil },
			wantErr: config.ErrMissingField,
		},
		{
			name:    "invalid optional posting channel",
			modify:  func(c *config.GuildConfig) { c.Postings.RulesChannelID = "rules" },
			wantErr: config.ErrInvalidSnowflake,
		},
		{
			name: "duplicate support channel",
			modify: func(c *config.GuildConfig) {
				c.SupportChannels = append(c.SupportChannels, config.SupportChannel{ChannelID: "820", Name: "Again"})
			},
			wantErr: config.ErrDuplicateChannel,
		},
		{
			name: "support channel without name",
			modify: func(c *config.GuildConfig) {
				c.SupportChannels[0].Name = ""
			},
			wantErr: config.ErrMissingName,
		},
		{
			name: "duplicate emoji",
			modify: func(c *config.GuildConfig) {
				c.ReactionRoles.Bindings[1].Emoji = "🪟"
			},
			wantErr: config.ErrDuplicateEmoji,
		},
		{
			name: "duplicate role",
			modify: func(c *config.GuildConfig) {
				c.ReactionRoles.Bindings[1].RoleID = "940"
			},
			wantErr: config.ErrDuplicateRole,
		},
		{
			name: "bindings without anchor channel",
			modify: func(c *config.GuildConfig) {
				c.ReactionRoles.ChannelID = ""
			},
			wantErr: config.ErrIncompleteAnchor,
		},
		{
			name: "no bindings disables reaction roles",
			modify: func(c *config.GuildConfig) {
				c.ReactionRoles = config.ReactionRoles{}
			},
		},
		{
			name:    "unparsable timeout",
			modify:  func(c *config.GuildConfig) { c.ConfirmationTimeout = "ten minutes" },
			wantErr: config.ErrInvalidDuration,
		},
		{
			name:    "negative timeout",
			modify:  func(c *config.GuildConfig) { c.ConfirmationTimeout = "-1m" },
			wantErr: config.ErrInvalidDuration,
		},
		{
			name:    "negative transcript limit",
			modify:  func(c *config.GuildConfig) { c.TranscriptLimit = -1 },
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validGuildConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				gt.NoError(t, err)
				return
			}
			gt.Error(t, err).Is(tt.wantErr)
		})
	}
}

func TestGuildConfig_ToDomainGuild(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, err := config.LoadGuildConfig(path)
	gt.NoError(t, err).Required()

	guild := cfg.ToDomainGuild()
	gt.Value(t, guild.GuildID).Equal("800")
	gt.Value(t, guild.LogChannelID).Equal("801")
	gt.Value(t, guild.ArchiveChannelID).Equal("802")
	gt.Value(t, guild.TicketCategoryID).Equal("803")
	gt.Value(t, guild.ConfirmationTTL()).Equal(5 * time.Minute)
	gt.Number(t, guild.MaxTranscriptMessages()).Equal(500)
	gt.Value(t, guild.Postings.Rules).Equal("810")
	gt.Value(t, guild.Postings.Resources).Equal("")
	gt.Value(t, guild.Postings.TicketInfo).Equal("811")
	gt.B(t, guild.IsStaffRole("901")).True()

	name, ok := guild.SupportChannelName("821")
	gt.B(t, ok).True()
	gt.Value(t, name).Equal("App Support")

	binding, ok := guild.ReactionRoles.Bindings.ByEmoji("🐧")
	gt.B(t, ok).True()
	gt.Value(t, binding.RoleID).Equal("941")
	gt.Value(t, binding.Label).Equal("Linux")
	gt.Value(t, guild.ReactionRoles.ChannelID).Equal("830")

	t.Run("defaults apply when unset", func(t *testing.T) {
		guild := validGuildConfig().ToDomainGuild()
		gt.Value(t, guild.ConfirmationTTL()).Equal(10 * time.Minute)
		gt.Number(t, guild.MaxTranscriptMessages()).Equal(1000)
	})
}
