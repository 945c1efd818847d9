package config

import "time"

// Config is the bot's optional configuration file (JSON or YAML).
// The Discord token is deliberately not part of it; it comes from the
// DISCORD_TOKEN environment variable only.
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Data      DataConfig      `json:"data"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
}

type LoggingConfig struct {
	Level   string           `json:"level,omitempty"`
	Console bool             `json:"console"`
	File    FileLogConfig    `json:"file"`
	Discord DiscordLogConfig `json:"discord"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// DiscordLogConfig mirrors warn+ log lines to an ops channel,
// rate-limited so a failure loop cannot flood the guild.
type DiscordLogConfig struct {
	Enabled    bool   `json:"enabled"`
	ChannelID  uint64 `json:"channel_id,omitempty"`
	MinLevel   string `json:"min_level,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// SchedulerConfig tunes the polling cadence. All durations are Go
// duration strings ("30s", "1m"). Zero values fall back to the
// defaults below.
type SchedulerConfig struct {
	// CheckInterval is the schedule-check poll cadence (default 30s).
	CheckInterval string `json:"check_interval,omitempty"`
	// DigestInterval is the hourly-digest poll cadence (default 30s).
	DigestInterval string `json:"digest_interval,omitempty"`
	// DigestWindowSeconds is how far past the top of the hour a tick
	// still counts as "the hour" (default 5).
	DigestWindowSeconds int `json:"digest_window_seconds,omitempty"`
}

const (
	DefaultCheckInterval  = 30 * time.Second
	DefaultDigestInterval = 30 * time.Second
	DefaultDigestWindow   = 5 * time.Second
)

// DataConfig locates the three snapshot files.
type DataConfig struct {
	SchedulesPath string `json:"schedules_path,omitempty"`
	TasksPath     string `json:"tasks_path,omitempty"`
	FlagsPath     string `json:"flags_path,omitempty"`
}

// StorageConfig enables the delivery audit log.
//
// Driver values:
//   - "" or "none": disabled
//   - "file":       JSON Lines append file
//   - "sqlite":     SQLite database (build with -tags sqlite)
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// Default returns the configuration used when no config file exists:
// console logging at info, stock cadence, snapshot files in the
// working directory, audit storage off.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
	}
}

// SchedulesPath and friends apply the file-name defaults the original
// deployment used.
func (d DataConfig) SchedulesFile() string { return orDefault(d.SchedulesPath, "schedules.json") }
func (d DataConfig) TasksFile() string     { return orDefault(d.TasksPath, "tasks.json") }
func (d DataConfig) FlagsFile() string     { return orDefault(d.FlagsPath, "flags.json") }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
