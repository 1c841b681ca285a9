package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	logx "firewatch/pkg/logx"
)

const (
	defaultAPIBase = "https://api.cloudflare.com/client/v4"
	pageSize       = 100
)

// RemoteAPIError is returned when the upstream feed answers with a
// non-success HTTP status. The orchestrator treats it as a transient miss.
type RemoteAPIError struct {
	Status int
	Body   string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("upstream events api: status %d: %s", e.Status, e.Body)
}

type Config struct {
	APIBase  string
	APIToken string
	ZoneID   string
	Timeout  time.Duration
}

// Fetcher queries the upstream security-events feed for a time window.
type Fetcher struct {
	cfg    Config
	client *http.Client
	log    logx.Logger
}

func NewFetcher(cfg Config, log logx.Logger) *Fetcher {
	if strings.TrimSpace(cfg.APIBase) == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// rawEvent mirrors the upstream wire record.
type rawEvent struct {
	RayID       string `json:"ray_id"`
	OccurredAt  string `json:"occurred_at"`
	Action      string `json:"action"`
	ClientIP    string `json:"client_ip"`
	Country     string `json:"country"`
	Method      string `json:"method"`
	Host        string `json:"host"`
	URI         string `json:"uri"`
	UserAgent   string `json:"user_agent"`
	RuleID      string `json:"rule_id"`
	RuleMessage string `json:"rule_message"`
}

type eventsResponse struct {
	Result []rawEvent `json:"result"`
}

// Fetch queries the half-open window [since, until), newest first, and
// returns the allow-listed events in upstream order.
func (f *Fetcher) Fetch(ctx context.Context, since, until time.Time) ([]SecurityEvent, error) {
	u := fmt.Sprintf("%s/zones/%s/security/events", strings.TrimRight(f.cfg.APIBase, "/"), url.PathEscape(f.cfg.ZoneID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	q.Set("until", until.UTC().Format(time.RFC3339))
	q.Set("per_page", fmt.Sprint(pageSize))
	q.Set("direction", "desc")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+f.cfg.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream events api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &RemoteAPIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var er eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decode events response: %w", err)
	}

	out := make([]SecurityEvent, 0, len(er.Result))
	for _, r := range er.Result {
		if !Notifiable(r.Action) {
			continue
		}
		out = append(out, normalize(r))
	}

	f.log.Debug("events fetched",
		logx.Int("raw", len(er.Result)),
		logx.Int("notifiable", len(out)),
		logx.Time("since", since),
		logx.Time("until", until))
	return out, nil
}

func normalize(r rawEvent) SecurityEvent {
	name := r.RuleMessage
	if strings.TrimSpace(name) == "" {
		name = UnknownRule
	}
	return SecurityEvent{
		ID:        r.RayID,
		Timestamp: r.OccurredAt,
		Action:    r.Action,
		ClientIP:  r.ClientIP,
		Country:   r.Country,
		Method:    r.Method,
		Host:      r.Host,
		URI:       r.URI,
		UserAgent: r.UserAgent,
		RuleID:    r.RuleID,
		RuleName:  name,
	}
}
