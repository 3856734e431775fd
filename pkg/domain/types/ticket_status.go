package types

import (
	"fmt"
	"strings"
)

// TicketStatus is the final status a ticket is closed with
type TicketStatus string

const (
	TicketStatusSolved     TicketStatus = "solved"
	TicketStatusUnresolved TicketStatus = "unresolved"
	TicketStatusUserClosed TicketStatus = "user-closed"
)

// AllTicketStatuses returns all valid ticket statuses
func AllTicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusSolved,
		TicketStatusUnresolved,
		TicketStatusUserClosed,
	}
}

// IsValid checks if the ticket status is valid
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusSolved,
		TicketStatusUnresolved,
		TicketStatusUserClosed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the ticket status
func (s TicketStatus) String() string {
	return string(s)
}

// Upper returns the status as shown in summaries, e.g. "USER-CLOSED"
func (s TicketStatus) Upper() string {
	return strings.ToUpper(string(s))
}

// Label returns a capitalized label, e.g. "Solved"
func (s TicketStatus) Label() string {
	switch s {
	case TicketStatusSolved:
		return "Solved"
	case TicketStatusUnresolved:
		return "Unresolved"
	case TicketStatusUserClosed:
		return "User-Closed"
	default:
		return string(s)
	}
}

// ParseTicketStatus parses a string into a TicketStatus
func ParseTicketStatus(s string) (TicketStatus, error) {
	status := TicketStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", s)
	}
	return status, nil
}
