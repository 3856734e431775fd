package discord

import (
	"strings"
	"unicode"

	"github.com/homedocks/homedocks-bot/pkg/domain/types"
)

const (
	// MaxTicketChannelNameLength caps generated ticket channel names
	MaxTicketChannelNameLength = 95

	ticketChannelPrefix = "ticket"
	fallbackUserName    = "user"
)

// NormalizeChannelName lower-cases name, turns spaces into hyphens and drops
// everything that is not a letter, a digit or a hyphen.
func NormalizeChannelName(name string) string {
	name = strings.ReplaceAll(strings.ToLower(name), " ", "-")

	var result strings.Builder
	result.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			result.WriteRune(unicode.ToLower(r))
		}
	}
	return result.String()
}

// GenerateTicketChannelName builds a ticket channel name
// Format: ticket-{normalized-user}-{problem-slug}
func GenerateTicketChannelName(userName string, problem types.ProblemType) string {
	user := NormalizeChannelName(userName)
	if strings.Trim(user, "-") == "" {
		user = fallbackUserName
	}

	name := ticketChannelPrefix + "-" + user + "-" + problem.Slug()

	runes := []rune(name)
	if len(runes) > MaxTicketChannelNameLength {
		name = string(runes[:MaxTicketChannelNameLength])
	}

	return strings.TrimRight(name, "-")
}
