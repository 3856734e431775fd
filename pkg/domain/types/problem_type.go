package types

import (
	"fmt"
	"strings"
)

// ProblemType is the category a member picks when opening a ticket
type ProblemType string

const (
	ProblemTypeApp     ProblemType = "App Problem"
	ProblemTypeWeb     ProblemType = "Web Problem"
	ProblemTypeDiscord ProblemType = "Discord Problem"
)

// AllProblemTypes returns all problem types in panel order
func AllProblemTypes() []ProblemType {
	return []ProblemType{
		ProblemTypeApp,
		ProblemTypeWeb,
		ProblemTypeDiscord,
	}
}

// IsValid checks if the problem type is valid
func (p ProblemType) IsValid() bool {
	switch p {
	case ProblemTypeApp,
		ProblemTypeWeb,
		ProblemTypeDiscord:
		return true
	default:
		return false
	}
}

// String returns the display label of the problem type
func (p ProblemType) String() string {
	return string(p)
}

// Emoji returns the emoji shown on the panel button
func (p ProblemType) Emoji() string {
	switch p {
	case ProblemTypeApp:
		return "💻"
	case ProblemTypeWeb:
		return "🌐"
	case ProblemTypeDiscord:
		return "💬"
	default:
		return ""
	}
}

// Slug returns the lower-case hyphenated form used in channel names, e.g. "web-problem"
func (p ProblemType) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(p)), " ", "-")
}

// ParseProblemType parses a display label into a ProblemType
func ParseProblemType(s string) (ProblemType, error) {
	p := ProblemType(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid problem type: %s", s)
	}
	return p, nil
}
