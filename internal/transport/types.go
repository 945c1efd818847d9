// Package transport defines the gateway surface the scheduler and
// command handlers need from the chat platform, keeping them free of
// the concrete client library.
package transport

import (
	"context"
	"errors"
)

// ErrNotTextChannel is returned by Gateway.ResolveText when the id
// resolves to a channel that cannot receive text messages (voice,
// category, forum, ...). Callers branch on it explicitly instead of
// probing channel attributes.
var ErrNotTextChannel = errors.New("channel is not a text channel")

// Guild is the slice of guild state the scheduler cares about.
// SystemChannelID is 0 when the guild has no system channel.
type Guild struct {
	ID              uint64
	SystemChannelID uint64
}

// Digest is the structured checklist summary posted by the hourly
// loop, already sorted for display.
type Digest struct {
	Entries []DigestEntry
}

// DigestEntry is one checklist line. Urgency and Deadline are empty
// when the task carries no label.
type DigestEntry struct {
	ID       uint64
	Task     string
	Urgency  string
	Deadline string
}

// TextChannel is a resolved, text-capable delivery target.
type TextChannel interface {
	ID() uint64
	Send(ctx context.Context, text string) error
	SendDigest(ctx context.Context, d Digest) error
}

// Gateway is what the delivery scheduler needs from the platform
// client: channel resolution (cache first, remote fetch on miss) and
// the guild membership list.
type Gateway interface {
	ResolveText(ctx context.Context, channelID uint64) (TextChannel, error)
	Guilds() []Guild
}
