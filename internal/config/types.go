package config

type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Upstream UpstreamConfig `json:"upstream"`
	Poll     PollConfig     `json:"poll"`
	Dispatch DispatchConfig `json:"dispatch"`
	Email    EmailConfig    `json:"email,omitempty"`
	HTTP     HTTPConfig     `json:"http"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig selects the keyed store backing endpoint registrations
// and processed-event markers.
//
// Driver values:
//   - "memory": in-process map (state lost on restart)
//   - "sqlite": SQLite database file
//   - "redis":  Redis via URL (redis:// or rediss://)
type StorageConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
	URL    string `json:"url,omitempty"`

	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty"`

	// Partition names the single-writer state handle. Defaults to "notifier".
	Partition string `json:"partition,omitempty"`
}

// UpstreamConfig points at the security-events feed.
type UpstreamConfig struct {
	APIBase  string `json:"api_base,omitempty"`
	APIToken string `json:"api_token"`
	ZoneID   string `json:"zone_id"`
}

type PollConfig struct {
	Enabled bool `json:"enabled"`

	// Interval between polls; Go duration string. Default "5m".
	Interval string `json:"interval,omitempty"`

	// Lookback is the width of each poll window; Go duration string.
	// Default "5m" (matching the interval so windows overlap on drift).
	Lookback string `json:"lookback,omitempty"`
}

type DispatchConfig struct {
	// RatePerSec caps outbound notification sends. Default 5.
	RatePerSec int `json:"rate_per_sec,omitempty"`

	// Timeout per outbound HTTP send; Go duration string. Default "15s".
	Timeout string `json:"timeout,omitempty"`
}

// EmailConfig enables real SMTP delivery for email endpoints.
// When Host is empty, email sends are recorded in the log only.
type EmailConfig struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	From     string `json:"from,omitempty"`
}

type HTTPConfig struct {
	Addr string `json:"addr,omitempty"`
}
