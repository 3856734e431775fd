package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

const defaultStateDir = "state"

// AppConfig holds the path of the guild configuration file
type AppConfig struct {
	path string
}

func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the guild configuration file (TOML)",
			Value:       "homedocks.toml",
			Sources:     cli.EnvVars("HOMEDOCKS_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Path returns the configuration file path
func (a *AppConfig) Path() string {
	return a.path
}

// Configure loads and validates the configuration file
func (a *AppConfig) Configure() (*GuildConfig, error) {
	return LoadGuildConfig(a.path)
}

// GuildConfig is the TOML representation of the served guild
type GuildConfig struct {
	GuildID             string           `toml:"guild_id"`
	LogChannelID        string           `toml:"log_channel_id"`
	ArchiveChannelID    string           `toml:"archive_channel_id"`
	TicketCategoryID    string           `toml:"ticket_category_id"`
	StaffRoleIDs        []string         `toml:"staff_role_ids"`
	ConfirmationTimeout string           `toml:"confirmation_timeout"`
	TranscriptLimit     int              `toml:"transcript_limit"`
	TemplatesDir        string           `toml:"templates_dir"`
	StateDir            string           `toml:"state_dir"`
	Postings            Postings         `toml:"postings"`
	SupportChannels     []SupportChannel `toml:"support_channel"`
	ReactionRoles       ReactionRoles    `toml:"reaction_roles"`
}

// Postings are the channels of the static postings. Empty disables a posting.
type Postings struct {
	RulesChannelID      string `toml:"rules_channel_id"`
	ResourcesChannelID  string `toml:"resources_channel_id"`
	TicketInfoChannelID string `toml:"ticket_info_channel_id"`
}

type SupportChannel struct {
	ChannelID string `toml:"channel_id"`
	Name      string `toml:"name"`
}

type ReactionRoles struct {
	ChannelID       string        `toml:"channel_id"`
	AnchorMessageID string        `toml:"anchor_message_id"`
	Bindings        []RoleBinding `toml:"binding"`
}

type RoleBinding struct {
	Emoji  string `toml:"emoji"`
	RoleID string `toml:"role_id"`
	Label  string `toml:"label"`
}

// LoadGuildConfig reads, validates and resolves a TOML configuration file.
// Relative templates_dir and state_dir are resolved against the file's directory.
func LoadGuildConfig(path string) (*GuildConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "failed to read config file", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var cfg GuildConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()),
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	base := filepath.Dir(path)
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir
	}
	cfg.StateDir = resolvePath(base, cfg.StateDir)
	if cfg.TemplatesDir != "" {
		cfg.TemplatesDir = resolvePath(base, cfg.TemplatesDir)
	}

	return &cfg, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate checks required ids, snowflake formats and duplicates
func (c *GuildConfig) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"guild_id", c.GuildID},
		{"log_channel_id", c.LogChannelID},
		{"archive_channel_id", c.ArchiveChannelID},
		{"ticket_category_id", c.TicketCategoryID},
	}
	for _, r := range required {
		if r.value == "" {
			return goerr.Wrap(ErrMissingField, "field is required", goerr.V(FieldKey, r.field))
		}
		if err := validateSnowflake(r.field, r.value); err != nil {
			return err
		}
	}

	if len(c.StaffRoleIDs) == 0 {
		return goerr.Wrap(ErrMissingField, "at least one staff role is required", goerr.V(FieldKey, "staff_role_ids"))
	}
	for i, id := range c.StaffRoleIDs {
		if err := validateSnowflake("staff_role_ids", id); err != nil {
			return goerr.Wrap(err, "invalid staff role", goerr.V(IndexKey, i))
		}
	}

	optional := []struct {
		field string
		value string
	}{
		{"postings.rules_channel_id", c.Postings.RulesChannelID},
		{"postings.resources_channel_id", c.Postings.ResourcesChannelID},
		{"postings.ticket_info_channel_id", c.Postings.TicketInfoChannelID},
		{"reaction_roles.channel_id", c.ReactionRoles.ChannelID},
		{"reaction_roles.anchor_message_id", c.ReactionRoles.AnchorMessageID},
	}
	for _, o := range optional {
		if o.value == "" {
			continue
		}
		if err := validateSnowflake(o.field, o.value); err != nil {
			return err
		}
	}

	channels := make(map[string]bool)
	for i, ch := range c.SupportChannels {
		if err := validateSnowflake("support_channel.channel_id", ch.ChannelID); err != nil {
			return goerr.Wrap(err, "invalid support channel", goerr.V(IndexKey, i))
		}
		if ch.Name == "" {
			return goerr.Wrap(ErrMissingName, "support channel name is required", goerr.V(IndexKey, i))
		}
		if channels[ch.ChannelID] {
			return goerr.Wrap(ErrDuplicateChannel, "support channel listed twice", goerr.V(ValueKey, ch.ChannelID))
		}
		channels[ch.ChannelID] = true
	}

	if err := c.ReactionRoles.validate(); err != nil {
		return err
	}

	if c.ConfirmationTimeout != "" {
		d, err := time.ParseDuration(c.ConfirmationTimeout)
		if err != nil || d <= 0 {
			return goerr.Wrap(ErrInvalidDuration, "confirmation_timeout must be a positive duration",
				goerr.V(ValueKey, c.ConfirmationTimeout))
		}
	}
	if c.TranscriptLimit < 0 {
		return goerr.Wrap(ErrInvalidConfig, "transcript_limit must not be negative", goerr.V(ValueKey, c.TranscriptLimit))
	}

	return nil
}

func (r *ReactionRoles) validate() error {
	if len(r.Bindings) == 0 {
		return nil
	}
	if r.ChannelID == "" {
		return goerr.Wrap(ErrIncompleteAnchor, "reaction_roles.channel_id is required with bindings")
	}

	emojis := make(map[string]bool)
	roles := make(map[string]bool)
	for i, b := range r.Bindings {
		if b.Emoji == "" {
			return goerr.Wrap(ErrMissingField, "binding emoji is required", goerr.V(IndexKey, i))
		}
		if err := validateSnowflake("reaction_roles.binding.role_id", b.RoleID); err != nil {
			return goerr.Wrap(err, "invalid binding", goerr.V(IndexKey, i))
		}
		if emojis[b.Emoji] {
			return goerr.Wrap(ErrDuplicateEmoji, "emoji bound twice", goerr.V(ValueKey, b.Emoji))
		}
		if roles[b.RoleID] {
			return goerr.Wrap(ErrDuplicateRole, "role bound twice", goerr.V(ValueKey, b.RoleID))
		}
		emojis[b.Emoji] = true
		roles[b.RoleID] = true
	}
	return nil
}

func validateSnowflake(field, value string) error {
	if value == "" {
		return goerr.Wrap(ErrInvalidSnowflake, "snowflake is empty", goerr.V(FieldKey, field))
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return goerr.Wrap(ErrInvalidSnowflake, "snowflake must be decimal digits",
				goerr.V(FieldKey, field),
				goerr.V(ValueKey, value),
			)
		}
	}
	return nil
}

// ToDomainGuild converts the validated file into the guild topology
func (c *GuildConfig) ToDomainGuild() *model.Guild {
	guild := &model.Guild{
		GuildID:          c.GuildID,
		LogChannelID:     c.LogChannelID,
		ArchiveChannelID: c.ArchiveChannelID,
		TicketCategoryID: c.TicketCategoryID,
		StaffRoleIDs:     append([]string(nil), c.StaffRoleIDs...),
		Postings: model.PostingChannels{
			Rules:      c.Postings.RulesChannelID,
			Resources:  c.Postings.ResourcesChannelID,
			TicketInfo: c.Postings.TicketInfoChannelID,
		},
		ReactionRoles: model.ReactionRoles{
			ChannelID:       c.ReactionRoles.ChannelID,
			AnchorMessageID: c.ReactionRoles.AnchorMessageID,
		},
		TranscriptLimit: c.TranscriptLimit,
	}

	if c.ConfirmationTimeout != "" {
		// validated by Validate
		d, _ := time.ParseDuration(c.ConfirmationTimeout)
		guild.ConfirmationTimeout = d
	}

	for _, ch := range c.SupportChannels {
		guild.SupportChannels = append(guild.SupportChannels, model.SupportChannel{
			ChannelID: ch.ChannelID,
			Name:      ch.Name,
		})
	}
	for _, b := range c.ReactionRoles.Bindings {
		guild.ReactionRoles.Bindings = append(guild.ReactionRoles.Bindings, model.RoleBinding{
			Emoji:  b.Emoji,
			RoleID: b.RoleID,
			Label:  b.Label,
		})
	}

	return guild
}
