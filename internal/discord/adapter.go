// Package discord adapts the discordgo session to the transport
// gateway surface used by the scheduler and command handlers.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"remindbot/internal/transport"
)

type Config struct {
	Token string
}

type Adapter struct {
	log  zerolog.Logger
	sess *discordgo.Session

	readyOnce sync.Once
	ready     chan struct{}
}

func New(cfg Config, log zerolog.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("discord token is empty")
	}
	sess, err := discordgo.New("Bot " + strings.TrimSpace(cfg.Token))
	if err != nil {
		return nil, err
	}
	sess.Identify.Intents = discordgo.IntentsGuilds

	a := &Adapter{log: log, sess: sess, ready: make(chan struct{})}
	sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.readyOnce.Do(func() {
			a.log.Info().
				Str("user", r.User.Username).
				Int("guilds", len(r.Guilds)).
				Msg("gateway ready")
			close(a.ready)
		})
	})
	return a, nil
}

// Open connects to the gateway. Readiness is signalled separately via
// Ready() once the Ready event arrives.
func (a *Adapter) Open() error {
	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error { return a.sess.Close() }

// Ready is closed once the gateway has reported ready.
func (a *Adapter) Ready() <-chan struct{} { return a.ready }

// Session exposes the raw session for slash-command registration.
func (a *Adapter) Session() *discordgo.Session { return a.sess }

// ResolveText resolves a channel id to a text-capable channel: state
// cache first, REST fetch on a miss. Non-text channel kinds yield
// transport.ErrNotTextChannel.
func (a *Adapter) ResolveText(ctx context.Context, channelID uint64) (transport.TextChannel, error) {
	id := FormatID(channelID)
	ch, err := a.sess.State.Channel(id)
	if err != nil {
		ch, err = a.sess.Channel(id, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetch channel %s: %w", id, err)
		}
	}
	if !isTextType(ch.Type) {
		return nil, transport.ErrNotTextChannel
	}
	return &textChannel{sess: a.sess, id: id, num: channelID}, nil
}

// Guilds lists the guilds the bot is currently a member of.
func (a *Adapter) Guilds() []transport.Guild {
	a.sess.State.RLock()
	defer a.sess.State.RUnlock()
	out := make([]transport.Guild, 0, len(a.sess.State.Guilds))
	for _, g := range a.sess.State.Guilds {
		gid, err := ParseID(g.ID)
		if err != nil {
			continue
		}
		sys, _ := ParseID(g.SystemChannelID)
		out = append(out, transport.Guild{ID: gid, SystemChannelID: sys})
	}
	return out
}

// SendText is the plain send used by the logging sink.
func (a *Adapter) SendText(channelID uint64, text string) error {
	_, err := a.sess.ChannelMessageSend(FormatID(channelID), text)
	return err
}

func isTextType(t discordgo.ChannelType) bool {
	// News channels accept plain sends just like text channels.
	return t == discordgo.ChannelTypeGuildText || t == discordgo.ChannelTypeGuildNews
}

// ParseID converts a snowflake string to the numeric id the stores
// persist. Empty strings map to 0.
func ParseID(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func FormatID(v uint64) string { return strconv.FormatUint(v, 10) }
