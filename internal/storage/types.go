package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the audit store.
//
// Driver values:
//   - "file": append-only JSON Lines file
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Audit kinds.
const (
	KindSchedule = "schedule"
	KindDigest   = "digest"
)

// AuditEntry records one delivery attempt. Keep it compact and
// schema-stable.
type AuditEntry struct {
	At        time.Time `json:"at"`
	Kind      string    `json:"kind"`
	GuildID   uint64    `json:"guild_id"`
	ChannelID uint64    `json:"channel_id"`
	ItemID    uint64    `json:"item_id,omitempty"`
	Tasks     int       `json:"tasks,omitempty"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}
