package model

// RoleBinding associates one emoji on the anchor message with one role
type RoleBinding struct {
	Emoji  string
	RoleID string
	Label  string
}

// RoleBindings is the configured, mutually exclusive role set
type RoleBindings []RoleBinding

// ByEmoji resolves an emoji to its binding
func (b RoleBindings) ByEmoji(emoji string) (RoleBinding, bool) {
	for _, binding := range b {
		if binding.Emoji == emoji {
			return binding, true
		}
	}
	return RoleBinding{}, false
}

// ByRole resolves a role id to its binding
func (b RoleBindings) ByRole(roleID string) (RoleBinding, bool) {
	for _, binding := range b {
		if binding.RoleID == roleID {
			return binding, true
		}
	}
	return RoleBinding{}, false
}

// Others returns every binding except the one for emoji
func (b RoleBindings) Others(emoji string) RoleBindings {
	others := make(RoleBindings, 0, len(b))
	for _, binding := range b {
		if binding.Emoji != emoji {
			others = append(others, binding)
		}
	}
	return others
}

// HeldBy returns the bindings whose role appears in roleIDs
func (b RoleBindings) HeldBy(roleIDs []string) RoleBindings {
	held := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		held[id] = struct{}{}
	}

	var result RoleBindings
	for _, binding := range b {
		if _, ok := held[binding.RoleID]; ok {
			result = append(result, binding)
		}
	}
	return result
}
