package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"firewatch/internal/events"
	"firewatch/internal/registry"
)

// maxDetailEvents caps per-event detail blocks in a slack message; the rest
// of the batch is summarized in a trailing note.
const maxDetailEvents = 5

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackSender struct {
	client *http.Client
}

func (s *slackSender) Send(ctx context.Context, ep registry.Endpoint, evs []events.SecurityEvent) error {
	b, err := json.Marshal(buildSlackMessage(evs))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// buildSlackMessage renders one message for the whole batch: a header with
// the total count, a summary line (per-action counts + time range in batch
// order), up to maxDetailEvents detail blocks, and a remainder note.
func buildSlackMessage(evs []events.SecurityEvent) slackMessage {
	msg := slackMessage{
		Text: fmt.Sprintf("%d security events detected", len(evs)),
	}

	msg.Blocks = append(msg.Blocks, slackBlock{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("🚨 %d Security Events", len(evs))},
	})

	msg.Blocks = append(msg.Blocks, slackBlock{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: summaryLine(evs)},
	})

	n := len(evs)
	if n > maxDetailEvents {
		n = maxDetailEvents
	}
	for _, ev := range evs[:n] {
		detail := fmt.Sprintf("*%s* `%s` (%s)\n%s%s\nRule: %s\n%s",
			strings.ToUpper(ev.Action), ev.ClientIP, ev.Country,
			ev.Host, ev.URI, ev.RuleName, ev.Timestamp)
		msg.Blocks = append(msg.Blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: detail},
		})
	}

	if rest := len(evs) - maxDetailEvents; rest > 0 {
		msg.Blocks = append(msg.Blocks, slackBlock{
			Type: "context",
			Elements: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("... and %d more events", rest)},
			},
		})
	}

	return msg
}

// summaryLine aggregates counts per action (in order of first appearance)
// and the time range spanned by the batch, first to last event.
func summaryLine(evs []events.SecurityEvent) string {
	var order []string
	counts := map[string]int{}
	for _, ev := range evs {
		a := strings.ToUpper(ev.Action)
		if counts[a] == 0 {
			order = append(order, a)
		}
		counts[a]++
	}

	parts := make([]string, 0, len(order))
	for _, a := range order {
		parts = append(parts, fmt.Sprintf("%s: %d", a, counts[a]))
	}

	line := strings.Join(parts, ", ")
	if len(evs) > 0 {
		line += fmt.Sprintf("\n%s — %s", evs[0].Timestamp, evs[len(evs)-1].Timestamp)
	}
	return line
}
