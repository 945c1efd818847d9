package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"remindbot/internal/storage"
	"remindbot/internal/store"
	"remindbot/internal/transport"
)

type Config struct {
	CheckInterval  time.Duration // schedule-check cadence, default 30s
	DigestInterval time.Duration // digest-check cadence, default 30s
	DigestWindow   time.Duration // top-of-hour match window, default 5s
}

func (c Config) withDefaults() Config {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 30 * time.Second
	}
	if c.DigestInterval <= 0 {
		c.DigestInterval = 30 * time.Second
	}
	if c.DigestWindow <= 0 {
		c.DigestWindow = 5 * time.Second
	}
	return c
}

// ScheduleSource is the slice of the schedule store the loops need.
type ScheduleSource interface {
	All() []store.ScheduleItem
	UpdateLastRun(id uint64, day string) error
}

// TaskSource supplies a guild's checklist for the digest.
type TaskSource interface {
	ListForGuild(guildID uint64) []store.TaskItem
}

// FlagSource supplies the digest feature flag per guild.
type FlagSource interface {
	GetHourlyTaskList(guildID uint64) store.FlagSettings
}

// Service owns the two polling loops. Construct with New, then Start
// once the gateway has reported ready.
type Service struct {
	cfg   Config
	log   zerolog.Logger
	gw    transport.Gateway
	items ScheduleSource
	tasks TaskSource
	flags FlagSource
	audit storage.Store // nil when auditing is disabled

	// now is swapped in tests to drive ticks with a fixed clock.
	now func() time.Time

	mu sync.Mutex
	c  *cron.Cron
}

func New(cfg Config, gw transport.Gateway, items ScheduleSource, tasks TaskSource, flags FlagSource, audit storage.Store, log zerolog.Logger) *Service {
	return &Service{
		cfg:   cfg.withDefaults(),
		log:   log,
		gw:    gw,
		items: items,
		tasks: tasks,
		flags: flags,
		audit: audit,
		now:   time.Now,
	}
}

// Start registers the two @every entries and begins polling. Each
// firing runs in its own goroutine; overlapping ticks are possible and
// not guarded against. No-op if already started.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.startLocked(ctx)
}

func (s *Service) startLocked(ctx context.Context) {
	clog := cronLogger{s.log}
	c := cron.New(cron.WithChain(cron.Recover(clog)))

	spec := fmt.Sprintf("@every %s", s.cfg.CheckInterval)
	if _, err := c.AddFunc(spec, func() { s.checkSchedules(ctx, s.now()) }); err != nil {
		s.log.Error().Err(err).Str("spec", spec).Msg("register schedule-check loop")
	}
	spec = fmt.Sprintf("@every %s", s.cfg.DigestInterval)
	if _, err := c.AddFunc(spec, func() { s.checkDigest(ctx, s.now()) }); err != nil {
		s.log.Error().Err(err).Str("spec", spec).Msg("register digest loop")
	}

	c.Start()
	s.c = c
	s.log.Info().
		Dur("check_interval", s.cfg.CheckInterval).
		Dur("digest_interval", s.cfg.DigestInterval).
		Msg("delivery scheduler started")
}

// Stop halts polling. In-flight ticks finish; Stop waits for them
// until ctx expires.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
		s.log.Info().Msg("delivery scheduler stopped")
	case <-ctx.Done():
	}
}

// Apply swaps the polling cadence, restarting the cron runner when it
// is live.
func (s *Service) Apply(ctx context.Context, cfg Config) {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg {
		return
	}
	s.cfg = cfg
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.startLocked(ctx)
}

// checkSchedules is one tick of the schedule-check loop. Matching is
// exact string equality of the formatted local time against the item's
// HH:MM; the last-run date keeps an item to one fire per calendar day.
func (s *Service) checkSchedules(ctx context.Context, now time.Time) {
	nowTime := now.Format("15:04")
	today := now.Format("2006-01-02")

	for _, item := range s.items.All() {
		if item.Time != nowTime {
			continue
		}
		if item.LastRunDate != nil && *item.LastRunDate == today {
			continue
		}
		// One item's failure never aborts the tick.
		s.deliverSchedule(ctx, item, today)
	}
}

func (s *Service) deliverSchedule(ctx context.Context, item store.ScheduleItem, today string) {
	entry := storage.AuditEntry{
		At:        s.now(),
		Kind:      storage.KindSchedule,
		GuildID:   item.GuildID,
		ChannelID: item.ChannelID,
		ItemID:    item.ID,
	}

	ch, err := s.gw.ResolveText(ctx, item.ChannelID)
	if err != nil {
		s.log.Warn().Err(err).Uint64("id", item.ID).Uint64("channel", item.ChannelID).
			Msg("schedule delivery: channel unavailable")
		entry.Error = err.Error()
		s.recordAudit(ctx, entry)
		return
	}
	if err := ch.Send(ctx, item.Message); err != nil {
		s.log.Warn().Err(err).Uint64("id", item.ID).Msg("schedule delivery: send failed")
		entry.Error = err.Error()
		s.recordAudit(ctx, entry)
		return
	}
	if err := s.items.UpdateLastRun(item.ID, today); err != nil {
		s.log.Error().Err(err).Uint64("id", item.ID).Msg("schedule delivery: last-run persist failed")
	}
	entry.OK = true
	s.recordAudit(ctx, entry)
	s.log.Info().Uint64("id", item.ID).Str("at", item.Time).Uint64("guild", item.GuildID).
		Msg("scheduled message delivered")
}

// checkDigest is one tick of the hourly-digest loop. It only acts when
// the tick lands inside the window right after the top of the hour.
func (s *Service) checkDigest(ctx context.Context, now time.Time) {
	if now.Minute() != 0 {
		return
	}
	if time.Duration(now.Second())*time.Second > s.cfg.DigestWindow {
		return
	}
	for _, g := range s.gw.Guilds() {
		// Failures are isolated per guild.
		s.digestGuild(ctx, g)
	}
}

func (s *Service) digestGuild(ctx context.Context, g transport.Guild) {
	flags := s.flags.GetHourlyTaskList(g.ID)
	if !flags.Enabled {
		return
	}
	channelID := g.SystemChannelID
	if flags.ChannelID != nil {
		channelID = *flags.ChannelID
	}
	if channelID == 0 {
		return
	}
	items := s.tasks.ListForGuild(g.ID)
	if len(items) == 0 {
		return
	}

	entry := storage.AuditEntry{
		At:        s.now(),
		Kind:      storage.KindDigest,
		GuildID:   g.ID,
		ChannelID: channelID,
		Tasks:     len(items),
	}

	ch, err := s.gw.ResolveText(ctx, channelID)
	if err != nil {
		s.log.Warn().Err(err).Uint64("guild", g.ID).Uint64("channel", channelID).
			Msg("digest: channel unavailable")
		entry.Error = err.Error()
		s.recordAudit(ctx, entry)
		return
	}
	if err := ch.SendDigest(ctx, BuildDigest(items)); err != nil {
		s.log.Warn().Err(err).Uint64("guild", g.ID).Msg("digest: send failed")
		entry.Error = err.Error()
		s.recordAudit(ctx, entry)
		return
	}
	entry.OK = true
	s.recordAudit(ctx, entry)
	s.log.Info().Uint64("guild", g.ID).Int("tasks", len(items)).Msg("hourly digest posted")
}

func (s *Service) recordAudit(ctx context.Context, e storage.AuditEntry) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AppendAudit(ctx, e); err != nil {
		s.log.Debug().Err(err).Msg("audit append failed")
	}
}

// cronLogger adapts zerolog to cron's recovery logger.
type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug().Fields(kv).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error().Err(err).Fields(kv).Msg(msg)
}
