package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// UserName returns the global display name of a user, falling back to the username
func UserName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// DisplayName returns the guild nickname of a member, falling back to UserName
func DisplayName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	return UserName(m.User)
}

// IsAdmin reports whether the member has the administrator permission
func IsAdmin(m *discordgo.Member) bool {
	return m != nil && m.Permissions&discordgo.PermissionAdministrator != 0
}

// HasAnyRole reports whether the member holds at least one of roleIDs
func HasAnyRole(m *discordgo.Member, roleIDs []string) bool {
	if m == nil {
		return false
	}
	for _, id := range m.Roles {
		if slices.Contains(roleIDs, id) {
			return true
		}
	}
	return false
}

// Mention returns the mention markup of a user id
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// RoleMention returns the mention markup of a role id
func RoleMention(roleID string) string {
	return "<@&" + roleID + ">"
}

// ChannelMention returns the mention markup of a channel id
func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}
