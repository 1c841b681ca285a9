package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "firewatch/pkg/logx"
)

const sampleFeed = `{"result":[
  {"ray_id":"r1","occurred_at":"2026-08-24T10:04:00Z","action":"block","client_ip":"1.2.3.4","country":"DE","method":"GET","host":"example.com","uri":"/admin","user_agent":"curl","rule_id":"100","rule_message":"SQLi probe"},
  {"ray_id":"r2","occurred_at":"2026-08-24T10:03:00Z","action":"allow","client_ip":"5.6.7.8","country":"US","method":"GET","host":"example.com","uri":"/","user_agent":"moz","rule_id":"","rule_message":""},
  {"ray_id":"r3","occurred_at":"2026-08-24T10:02:00Z","action":"log","client_ip":"5.6.7.8","country":"US","method":"GET","host":"example.com","uri":"/x","user_agent":"moz","rule_id":"","rule_message":""},
  {"ray_id":"r4","occurred_at":"2026-08-24T10:01:00Z","action":"challenge","client_ip":"9.9.9.9","country":"FR","method":"POST","host":"example.com","uri":"/login","user_agent":"bot","rule_id":"200","rule_message":""}
]}`

func testWindow() (time.Time, time.Time) {
	until := time.Date(2026, 8, 24, 10, 5, 0, 0, time.UTC)
	return until.Add(-5 * time.Minute), until
}

func TestFetchFiltersActions(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	f := NewFetcher(Config{APIBase: srv.URL, APIToken: "tok", ZoneID: "zone1"}, logx.Nop())
	since, until := testWindow()
	got, err := f.Fetch(context.Background(), since, until)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// allow and log are dropped; order follows upstream (descending).
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].ID != "r1" || got[1].ID != "r4" {
		t.Fatalf("order = [%s %s], want [r1 r4]", got[0].ID, got[1].ID)
	}
	if got[0].Action != "block" || got[1].Action != "challenge" {
		t.Fatalf("actions = [%s %s]", got[0].Action, got[1].Action)
	}
}

func TestFetchMissingRuleMessageDefaultsToUnknown(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	f := NewFetcher(Config{APIBase: srv.URL, APIToken: "tok", ZoneID: "zone1"}, logx.Nop())
	since, until := testWindow()
	got, err := f.Fetch(context.Background(), since, until)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if got[0].RuleName != "SQLi probe" {
		t.Fatalf("RuleName = %q, want %q", got[0].RuleName, "SQLi probe")
	}
	if got[1].RuleName != UnknownRule {
		t.Fatalf("RuleName = %q, want %q", got[1].RuleName, UnknownRule)
	}
}

func TestFetchRequestShape(t *testing.T) {
	t.Parallel()
	var gotReq *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	f := NewFetcher(Config{APIBase: srv.URL, APIToken: "secret-token", ZoneID: "zone1"}, logx.Nop())
	since, until := testWindow()
	if _, err := f.Fetch(context.Background(), since, until); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotReq.URL.Path != "/zones/zone1/security/events" {
		t.Fatalf("path = %q", gotReq.URL.Path)
	}
	if got := gotReq.Header.Get("Authorization"); got != "Bearer secret-token" {
		t.Fatalf("Authorization = %q", got)
	}
	q := gotReq.URL.Query()
	if q.Get("per_page") != "100" || q.Get("direction") != "desc" {
		t.Fatalf("query = %q", gotReq.URL.RawQuery)
	}
	if q.Get("since") != since.UTC().Format(time.RFC3339) || q.Get("until") != until.UTC().Format(time.RFC3339) {
		t.Fatalf("window query = %q", gotReq.URL.RawQuery)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(Config{APIBase: srv.URL, APIToken: "tok", ZoneID: "zone1"}, logx.Nop())
	since, until := testWindow()
	_, err := f.Fetch(context.Background(), since, until)
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}

	var rerr *RemoteAPIError
	if !errors.As(err, &rerr) {
		t.Fatalf("error type = %T, want *RemoteAPIError", err)
	}
	if rerr.Status != http.StatusForbidden {
		t.Fatalf("Status = %d, want %d", rerr.Status, http.StatusForbidden)
	}
}

func TestNotifiable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		action string
		want   bool
	}{
		{"block", true},
		{"challenge", true},
		{"jschallenge", true},
		{"allow", false},
		{"log", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Notifiable(tt.action); got != tt.want {
			t.Fatalf("Notifiable(%q) = %v, want %v", tt.action, got, tt.want)
		}
	}
}
