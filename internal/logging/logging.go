// Package logging builds the bot's zerolog root logger: console
// writer, optional JSON file sink, and an optional Discord ops-channel
// sink for warn+ events.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type Config struct {
	Level   string
	Console bool
	File    FileConfig
	Discord DiscordConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
}

type DiscordConfig struct {
	Enabled    bool
	ChannelID  uint64
	MinLevel   string
	RatePerSec int
}

// Service is the swappable sink behind the root logger. Every child
// logger handed to a component writes through it, so Apply() re-routes
// all of them at once without replacing logger values.
type Service struct {
	mu    sync.RWMutex
	level zerolog.Level
	sinks zerolog.LevelWriter
	file  *os.File

	discord *discordSink
}

// New builds the service and the root logger. Components derive child
// loggers with .With().Str("comp", ...).Logger().
func New(cfg Config) (*Service, zerolog.Logger) {
	s := &Service{discord: &discordSink{}}
	log := zerolog.New(s).With().Timestamp().Logger()
	s.Apply(cfg)
	return s, log
}

// Apply reconfigures level and sinks. Safe to call while logging.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = ParseLevel(cfg.Level, zerolog.InfoLevel)

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat})
	}
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	if cfg.File.Enabled && strings.TrimSpace(cfg.File.Path) != "" {
		f, err := os.OpenFile(cfg.File.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			s.file = f
			writers = append(writers, f)
		}
	}
	if cfg.Discord.Enabled {
		s.discord.configure(cfg.Discord)
		writers = append(writers, s.discord)
	} else {
		s.discord.disable()
	}
	if len(writers) == 0 {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat})
	}
	s.sinks = zerolog.MultiLevelWriter(writers...)
}

// SetDiscordSender wires the gateway send function into the Discord
// sink. Called once the session is open; until then the sink drops.
func (s *Service) SetDiscordSender(send func(channelID uint64, text string) error) {
	s.discord.setSender(send)
}

func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
}

func (s *Service) Write(p []byte) (int, error) {
	return s.WriteLevel(zerolog.NoLevel, p)
}

func (s *Service) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	s.mu.RLock()
	sinks, min := s.sinks, s.level
	s.mu.RUnlock()
	if sinks == nil {
		return len(p), nil
	}
	if l != zerolog.NoLevel && l < min {
		return len(p), nil
	}
	return sinks.WriteLevel(l, p)
}

func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return def
	}
}

// ---- Discord sink ----

// discordSink mirrors log lines to an ops channel. Rate limited so an
// error loop cannot flood the guild; excess lines are dropped, not
// queued.
type discordSink struct {
	mu        sync.Mutex
	enabled   bool
	channelID uint64
	min       zerolog.Level
	limiter   *rate.Limiter
	send      func(channelID uint64, text string) error
}

func (d *discordSink) configure(cfg DiscordConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = true
	d.channelID = cfg.ChannelID
	d.min = ParseLevel(cfg.MinLevel, zerolog.WarnLevel)
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	d.limiter = rate.NewLimiter(rate.Limit(rps), rps)
}

func (d *discordSink) disable() {
	d.mu.Lock()
	d.enabled = false
	d.mu.Unlock()
}

func (d *discordSink) setSender(send func(channelID uint64, text string) error) {
	d.mu.Lock()
	d.send = send
	d.mu.Unlock()
}

func (d *discordSink) Write(p []byte) (int, error) {
	return d.WriteLevel(zerolog.NoLevel, p)
}

func (d *discordSink) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	d.mu.Lock()
	enabled, send, chID, min, lim := d.enabled, d.send, d.channelID, d.min, d.limiter
	d.mu.Unlock()

	if !enabled || send == nil || chID == 0 || l < min {
		return len(p), nil
	}
	if lim != nil && !lim.Allow() {
		return len(p), nil
	}

	line := strings.TrimRight(string(p), "\n")
	// Discord caps messages at 2000 chars; leave room for the fence.
	if len(line) > 1900 {
		line = line[:1900]
	}
	_ = send(chID, "```json\n"+line+"\n```")
	return len(p), nil
}
