package dispatch

import (
	"fmt"
	"strings"
	"testing"

	"firewatch/internal/events"
)

func slackBatch(n int) []events.SecurityEvent {
	out := make([]events.SecurityEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, events.SecurityEvent{
			ID:        fmt.Sprintf("r%d", i),
			Timestamp: fmt.Sprintf("2026-08-24T10:%02d:00Z", n-i),
			Action:    "block",
			ClientIP:  "1.2.3.4",
			Country:   "DE",
			Host:      "example.com",
			URI:       "/",
			RuleName:  "rule",
		})
	}
	return out
}

func countBlocks(msg slackMessage, typ string) int {
	n := 0
	for _, b := range msg.Blocks {
		if b.Type == typ {
			n++
		}
	}
	return n
}

func TestSlackMessageCapsDetailsAtFive(t *testing.T) {
	t.Parallel()
	msg := buildSlackMessage(slackBatch(7))

	// header + summary section + 5 detail sections + context note
	if got := countBlocks(msg, "section"); got != 6 {
		t.Fatalf("section blocks = %d, want 6 (summary + 5 details)", got)
	}
	if got := countBlocks(msg, "context"); got != 1 {
		t.Fatalf("context blocks = %d, want 1", got)
	}

	last := msg.Blocks[len(msg.Blocks)-1]
	if len(last.Elements) != 1 || !strings.Contains(last.Elements[0].Text, "2 more events") {
		t.Fatalf("remainder note = %+v, want mention of 2 more events", last)
	}
}

func TestSlackMessageSmallBatchHasNoRemainderNote(t *testing.T) {
	t.Parallel()
	msg := buildSlackMessage(slackBatch(3))

	if got := countBlocks(msg, "context"); got != 0 {
		t.Fatalf("context blocks = %d, want 0", got)
	}
	// summary + 3 details
	if got := countBlocks(msg, "section"); got != 4 {
		t.Fatalf("section blocks = %d, want 4", got)
	}
}

func TestSlackSummaryAggregatesActionsAndRange(t *testing.T) {
	t.Parallel()
	batch := []events.SecurityEvent{
		{ID: "1", Action: "block", Timestamp: "2026-08-24T10:04:00Z"},
		{ID: "2", Action: "challenge", Timestamp: "2026-08-24T10:03:00Z"},
		{ID: "3", Action: "block", Timestamp: "2026-08-24T10:02:00Z"},
		{ID: "4", Action: "block", Timestamp: "2026-08-24T10:01:00Z"},
	}

	line := summaryLine(batch)
	if !strings.Contains(line, "BLOCK: 3") || !strings.Contains(line, "CHALLENGE: 1") {
		t.Fatalf("summary = %q, want per-action counts", line)
	}
	// Time range spans first to last event in batch order.
	if !strings.Contains(line, "2026-08-24T10:04:00Z — 2026-08-24T10:01:00Z") {
		t.Fatalf("summary = %q, want batch time range", line)
	}
}

func TestSlackHeaderCarriesTotalCount(t *testing.T) {
	t.Parallel()
	msg := buildSlackMessage(slackBatch(7))
	if len(msg.Blocks) == 0 || msg.Blocks[0].Type != "header" {
		t.Fatalf("first block = %+v, want header", msg.Blocks)
	}
	if !strings.Contains(msg.Blocks[0].Text.Text, "7") {
		t.Fatalf("header = %q, want total count", msg.Blocks[0].Text.Text)
	}
}
