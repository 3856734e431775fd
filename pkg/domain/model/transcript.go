package model

import (
	"strings"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/domain/types"
)

const (
	transcriptTimeFormat = "2006-01-02 15:04:05"
	headerTimeFormat     = "2006-01-02 15:04:05 UTC"
)

// UnknownCreatorName is used when the topic carries no creator name
const UnknownCreatorName = "Unknown User"

// TranscriptHeader summarises a closed ticket
type TranscriptHeader struct {
	ChannelName   string
	CreatorName   string
	CreatorID     string
	OpenedAt      time.Time
	CloserName    string
	CloserID      string
	ClosedAt      time.Time
	Status        types.TicketStatus
	CloserIsStaff bool
}

// CloserRole returns the role label of the closer
func (h TranscriptHeader) CloserRole() string {
	if h.CloserIsStaff {
		return "Admin/Mod"
	}
	return "User"
}

// TranscriptEntry is one recorded message
type TranscriptEntry struct {
	Timestamp   time.Time
	AuthorName  string
	AuthorID    string
	Content     string
	Attachments []string
}

// Transcript is the textual record of a ticket channel
type Transcript struct {
	Header  TranscriptHeader
	Entries []TranscriptEntry
}

// Render serialises the transcript as plain text
func (t *Transcript) Render() string {
	var b strings.Builder
	h := t.Header

	creatorName := h.CreatorName
	if creatorName == "" {
		creatorName = UnknownCreatorName
	}
	creatorID := h.CreatorID
	if creatorID == "" {
		creatorID = "N/A"
	}

	b.WriteString("--- Ticket Transcript for Channel: #" + h.ChannelName + " ---\n")
	b.WriteString("Ticket opened by: " + creatorName + " (ID: " + creatorID + ")\n")
	b.WriteString("Ticket opened at: " + h.OpenedAt.UTC().Format(headerTimeFormat) + "\n")
	b.WriteString("Ticket closed by: " + h.CloserName + " (ID: " + h.CloserID + ")\n")
	b.WriteString("Ticket closed at: " + h.ClosedAt.UTC().Format(headerTimeFormat) + "\n")
	b.WriteString("Final Status: " + h.Status.Upper() + "\n")
	b.WriteString("Closed by Role: " + h.CloserRole() + "\n")
	b.WriteString(strings.Repeat("-", 50) + "\n\n")

	for _, e := range t.Entries {
		b.WriteString("[" + e.Timestamp.UTC().Format(transcriptTimeFormat) + "] " + e.AuthorName + " (" + e.AuthorID + "): " + e.Content + "\n")
		for _, url := range e.Attachments {
			b.WriteString("        Attachment: " + url + "\n")
		}
	}

	return b.String()
}
