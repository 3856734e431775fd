package types

// TicketState is the lifecycle state of a ticket channel
type TicketState string

const (
	TicketStateOpen           TicketState = "open"
	TicketStateCloseRequested TicketState = "close-requested"
	TicketStateConfirming     TicketState = "confirming"
	TicketStateClosing        TicketState = "closing"
	TicketStateDeleted        TicketState = "deleted"
)

// IsValid checks if the ticket state is valid
func (s TicketState) IsValid() bool {
	switch s {
	case TicketStateOpen,
		TicketStateCloseRequested,
		TicketStateConfirming,
		TicketStateClosing,
		TicketStateDeleted:
		return true
	default:
		return false
	}
}

// Normalize treats an unknown (untracked) state as open. Tickets created
// before a restart are not tracked in memory but their channel still exists.
func (s TicketState) Normalize() TicketState {
	if s == "" {
		return TicketStateOpen
	}
	return s
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next
func (s TicketState) CanTransitionTo(next TicketState) bool {
	switch s.Normalize() {
	case TicketStateOpen:
		return next == TicketStateCloseRequested
	case TicketStateCloseRequested:
		return next == TicketStateConfirming || next == TicketStateClosing || next == TicketStateOpen
	case TicketStateConfirming:
		return next == TicketStateClosing || next == TicketStateOpen
	case TicketStateClosing:
		return next == TicketStateDeleted
	default:
		return false
	}
}

// String returns the string representation of the ticket state
func (s TicketState) String() string {
	return string(s)
}
