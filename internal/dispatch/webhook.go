package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"firewatch/internal/events"
	"firewatch/internal/registry"
)

// webhookPayload is the generic JSON envelope: the full batch in one POST.
type webhookPayload struct {
	Type      string                 `json:"type"`
	Events    []events.SecurityEvent `json:"events"`
	Count     int                    `json:"count"`
	Timestamp string                 `json:"timestamp"`
}

type webhookSender struct {
	client *http.Client
}

func (s *webhookSender) Send(ctx context.Context, ep registry.Endpoint, evs []events.SecurityEvent) error {
	payload := webhookPayload{
		Type:      "batch",
		Events:    evs,
		Count:     len(evs),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(payload)
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
