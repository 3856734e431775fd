package model

import (
	"slices"
	"time"
)

const (
	DefaultConfirmationTimeout = 10 * time.Minute
	DefaultTranscriptLimit     = 1000
)

// SupportChannel is a channel that hosts a ticket panel
type SupportChannel struct {
	ChannelID string
	Name      string
}

// PostingChannels are the target channels of the static postings. An empty
// id disables the posting.
type PostingChannels struct {
	Rules      string
	Resources  string
	TicketInfo string
}

// ReactionRoles configures the role selection anchor. When AnchorMessageID
// is set the existing message is used as is, otherwise the anchor is a
// managed posting in ChannelID.
type ReactionRoles struct {
	ChannelID       string
	AnchorMessageID string
	Bindings        RoleBindings
}

// Guild is the topology of the one guild the bot serves
type Guild struct {
	GuildID             string
	LogChannelID        string
	ArchiveChannelID    string
	TicketCategoryID    string
	StaffRoleIDs        []string
	SupportChannels     []SupportChannel
	Postings            PostingChannels
	ReactionRoles       ReactionRoles
	ConfirmationTimeout time.Duration
	TranscriptLimit     int
}

// SupportChannelName returns the display name of a support channel
func (g *Guild) SupportChannelName(channelID string) (string, bool) {
	for _, ch := range g.SupportChannels {
		if ch.ChannelID == channelID {
			return ch.Name, true
		}
	}
	return "", false
}

// IsStaffRole reports whether roleID is one of the staff roles
func (g *Guild) IsStaffRole(roleID string) bool {
	return slices.Contains(g.StaffRoleIDs, roleID)
}

// ConfirmationTTL returns the confirmation timeout, falling back to the default
func (g *Guild) ConfirmationTTL() time.Duration {
	if g.ConfirmationTimeout <= 0 {
		return DefaultConfirmationTimeout
	}
	return g.ConfirmationTimeout
}

// MaxTranscriptMessages returns the transcript cap, falling back to the default
func (g *Guild) MaxTranscriptMessages() int {
	if g.TranscriptLimit <= 0 {
		return DefaultTranscriptLimit
	}
	return g.TranscriptLimit
}
