package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
)

// Embed colors
const (
	ColorGreen     = 0x2ECC71
	ColorRed       = 0xE74C3C
	ColorOrange    = 0xE67E22
	ColorGold      = 0xF1C40F
	ColorBlue      = 0x3498DB
	ColorGreyple   = 0x99AAB5
	ColorLightGrey = 0x979C9F
)

const (
	// TimestampFormat is used in footers and audit lines
	TimestampFormat = "2006-01-02 15:04:05"
	// TimestampFormatUTC is used in summary embeds
	TimestampFormatUTC = "2006-01-02 15:04:05 UTC"
)

// LastUpdatedFooter returns the dynamic footer of managed postings
func LastUpdatedFooter(now time.Time) string {
	return "Last updated: " + now.Format(TimestampFormat)
}

// RenderEmbed turns content into an embed with the given footer
func RenderEmbed(c *model.Content, footer string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Description,
		Color:       c.Color,
	}
	for _, f := range c.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}
	return embed
}

// FirstEmbedTitle returns the title of the first embed of a message
func FirstEmbedTitle(msg *discordgo.Message) string {
	if msg == nil || len(msg.Embeds) == 0 || msg.Embeds[0] == nil {
		return ""
	}
	return msg.Embeds[0].Title
}

// EmbedField is a shorthand for an inline embed field
func EmbedField(name, value string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
}
