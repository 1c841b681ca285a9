// Package events fetches and normalizes security events from the upstream feed.
package events

// UnknownRule is substituted when the upstream record carries no rule message.
const UnknownRule = "Unknown"

// SecurityEvent is one normalized firewall event. Immutable once constructed;
// not retained beyond the processed-marker record.
//
// Timestamp is kept as the upstream string, opaque and unvalidated.
type SecurityEvent struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	ClientIP  string `json:"clientIP"`
	Country   string `json:"country"`
	Method    string `json:"method"`
	Host      string `json:"host"`
	URI       string `json:"uri"`
	UserAgent string `json:"userAgent"`
	RuleID    string `json:"ruleId"`
	RuleName  string `json:"ruleName"`
}

// notifiableActions is the allow-list of actions worth notifying about.
// Everything else (allow, log, skip, ...) is dropped at fetch time.
var notifiableActions = map[string]bool{
	"block":       true,
	"challenge":   true,
	"jschallenge": true,
}

func Notifiable(action string) bool { return notifiableActions[action] }
