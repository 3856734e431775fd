package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/domain/types"
)

// Stable custom ids of the ticket buttons. They must not change between
// releases: clicks on messages posted by older processes are routed by them.
const (
	CustomIDTicketApp        = "ticket_app_problem"
	CustomIDTicketWeb        = "ticket_web_problem"
	CustomIDTicketDiscord    = "ticket_discord_problem"
	CustomIDTicketClose      = "ticket_close_button"
	CustomIDTicketSolved     = "ticket_solved_button"
	CustomIDTicketUnresolved = "ticket_unresolved_button"
)

// Button styles accepted in posting templates
const (
	ButtonStylePrimary   = "primary"
	ButtonStyleSecondary = "secondary"
	ButtonStyleSuccess   = "success"
	ButtonStyleDanger    = "danger"
)

// LifecycleCustomIDs are the controls posted inside ticket channels
var LifecycleCustomIDs = []string{
	CustomIDTicketClose,
	CustomIDTicketSolved,
	CustomIDTicketUnresolved,
}

// TicketCreateCustomID returns the panel button id of a problem type
func TicketCreateCustomID(p types.ProblemType) string {
	switch p {
	case types.ProblemTypeApp:
		return CustomIDTicketApp
	case types.ProblemTypeWeb:
		return CustomIDTicketWeb
	case types.ProblemTypeDiscord:
		return CustomIDTicketDiscord
	default:
		return ""
	}
}

// ProblemTypeFromCustomID resolves a panel button id
func ProblemTypeFromCustomID(customID string) (types.ProblemType, bool) {
	for _, p := range types.AllProblemTypes() {
		if TicketCreateCustomID(p) == customID {
			return p, true
		}
	}
	return "", false
}

// TicketPanelButtons returns the creation buttons shown in support channels
func TicketPanelButtons() []model.Button {
	buttons := make([]model.Button, 0, len(types.AllProblemTypes()))
	for _, p := range types.AllProblemTypes() {
		buttons = append(buttons, model.Button{
			CustomID: TicketCreateCustomID(p),
			Label:    p.String(),
			Emoji:    p.Emoji(),
			Style:    ButtonStylePrimary,
		})
	}
	return buttons
}

// CloseTicketComponents returns the close control posted in a new ticket
func CloseTicketComponents() []discordgo.MessageComponent {
	return RenderComponents([]model.Button{
		{CustomID: CustomIDTicketClose, Label: "Close Ticket", Emoji: "🔒", Style: ButtonStyleDanger},
	})
}

// ConfirmClosureComponents returns the staff decision controls
func ConfirmClosureComponents() []discordgo.MessageComponent {
	return RenderComponents([]model.Button{
		{CustomID: CustomIDTicketSolved, Label: "Mark as Solved", Emoji: "✅", Style: ButtonStyleSuccess},
		{CustomID: CustomIDTicketUnresolved, Label: "Mark as Unresolved", Emoji: "❌", Style: ButtonStyleDanger},
	})
}

// RenderComponents turns template buttons into a single action row
func RenderComponents(buttons []model.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}

	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		btn := discordgo.Button{
			Label:    b.Label,
			Style:    buttonStyle(b.Style),
			CustomID: b.CustomID,
		}
		if b.Emoji != "" {
			btn.Emoji = &discordgo.ComponentEmoji{Name: b.Emoji}
		}
		row.Components = append(row.Components, btn)
	}
	return []discordgo.MessageComponent{row}
}

func buttonStyle(style string) discordgo.ButtonStyle {
	switch style {
	case ButtonStyleSecondary:
		return discordgo.SecondaryButton
	case ButtonStyleSuccess:
		return discordgo.SuccessButton
	case ButtonStyleDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

// DisableComponents returns a copy of components with every button disabled.
// changed is false when all buttons were already disabled, which lets callers
// skip a redundant edit.
func DisableComponents(components []discordgo.MessageComponent) (result []discordgo.MessageComponent, changed bool) {
	result = make([]discordgo.MessageComponent, 0, len(components))
	for _, c := range components {
		var row discordgo.ActionsRow
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			row = *v
		case discordgo.ActionsRow:
			row = v
		default:
			result = append(result, c)
			continue
		}

		disabled := discordgo.ActionsRow{Components: make([]discordgo.MessageComponent, 0, len(row.Components))}
		for _, child := range row.Components {
			var btn discordgo.Button
			switch b := child.(type) {
			case *discordgo.Button:
				btn = *b
			case discordgo.Button:
				btn = b
			default:
				disabled.Components = append(disabled.Components, child)
				continue
			}
			if !btn.Disabled {
				changed = true
			}
			btn.Disabled = true
			disabled.Components = append(disabled.Components, btn)
		}
		result = append(result, disabled)
	}
	return result, changed
}

// ComponentCustomIDs lists the custom ids of every button of a message
func ComponentCustomIDs(components []discordgo.MessageComponent) []string {
	var ids []string
	for _, c := range components {
		var children []discordgo.MessageComponent
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			children = v.Components
		case discordgo.ActionsRow:
			children = v.Components
		}
		for _, child := range children {
			switch b := child.(type) {
			case *discordgo.Button:
				ids = append(ids, b.CustomID)
			case discordgo.Button:
				ids = append(ids, b.CustomID)
			}
		}
	}
	return ids
}

// HasAnyCustomID reports whether the message carries one of the custom ids
func HasAnyCustomID(msg *discordgo.Message, customIDs []string) bool {
	if msg == nil {
		return false
	}
	for _, id := range ComponentCustomIDs(msg.Components) {
		if slices.Contains(customIDs, id) {
			return true
		}
	}
	return false
}
