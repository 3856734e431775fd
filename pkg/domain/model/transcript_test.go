package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/homedocks/homedocks-bot/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestTranscript_Render(t *testing.T) {
	opened := time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)
	closed := opened.Add(2 * time.Hour)

	tr := &model.Transcript{
		Header: model.TranscriptHeader{
			ChannelName:   "ticket-alice-web-problem",
			CreatorName:   "Alice",
			CreatorID:     "111",
			OpenedAt:      opened,
			CloserName:    "Bob",
			CloserID:      "222",
			ClosedAt:      closed,
			Status:        types.TicketStatusSolved,
			CloserIsStaff: true,
		},
		Entries: []model.TranscriptEntry{
			{Timestamp: opened.Add(time.Minute), AuthorName: "Alice", AuthorID: "111", Content: "my site is down",
				Attachments: []string{"https://cdn.example.com/a.png"}},
			{Timestamp: opened.Add(2 * time.Minute), AuthorName: "Bob", AuthorID: "222", Content: "fixed"},
		},
	}

	want := strings.Join([]string{
		"--- Ticket Transcript for Channel: #ticket-alice-web-problem ---",
		"Ticket opened by: Alice (ID: 111)",
		"Ticket opened at: 2025-06-12 10:00:00 UTC",
		"Ticket closed by: Bob (ID: 222)",
		"Ticket closed at: 2025-06-12 12:00:00 UTC",
		"Final Status: SOLVED",
		"Closed by Role: Admin/Mod",
		strings.Repeat("-", 50),
		"",
		"[2025-06-12 10:01:00] Alice (111): my site is down",
		"        Attachment: https://cdn.example.com/a.png",
		"[2025-06-12 10:02:00] Bob (222): fixed",
		"",
	}, "\n")

	gt.Value(t, tr.Render()).Equal(want)
}

func TestTranscript_RenderUnknownCreator(t *testing.T) {
	tr := &model.Transcript{Header: model.TranscriptHeader{ChannelName: "c", Status: types.TicketStatusUserClosed}}
	out := tr.Render()
	gt.String(t, out).Contains("Ticket opened by: Unknown User (ID: N/A)")
	gt.String(t, out).Contains("Closed by Role: User")
}
