// Package core wires the bot together: config, logging, the Discord
// gateway, the three stores, the audit log, the delivery scheduler,
// and the slash-command surface.
package core

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"remindbot/internal/commands"
	"remindbot/internal/config"
	"remindbot/internal/discord"
	"remindbot/internal/logging"
	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
	"remindbot/internal/store"
)

// tokenEnv is the one required external secret. The process aborts at
// startup when it is absent.
const tokenEnv = "DISCORD_TOKEN"

type App struct {
	cfgm *config.Manager
	logs *logging.Service
	log  zerolog.Logger

	adapter   *discord.Adapter
	schedules *store.ScheduleStore
	tasks     *store.TaskStore
	flags     *store.FlagStore
	audit     storage.Store

	sched *scheduler.Service
	cmds  *commands.Registry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewApp(cfgPath string) (*App, error) {
	// Boot with console logging so config problems are visible, then
	// re-apply from the loaded file.
	logs, log := logging.New(logging.Config{Console: true})

	cfgm := config.NewManager(cfgPath, log.With().Str("comp", "config").Logger())
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	logs.Apply(loggingConfig(cfg))
	log = log.With().Str("comp", "app").Logger()

	token := strings.TrimSpace(os.Getenv(tokenEnv))
	if token == "" {
		return nil, errors.New(tokenEnv + " is not set")
	}

	adapter, err := discord.New(discord.Config{Token: token}, log.With().Str("comp", "discord").Logger())
	if err != nil {
		return nil, err
	}

	schedules, err := store.OpenScheduleStore(cfg.Data.SchedulesFile())
	if err != nil {
		return nil, err
	}
	tasks, err := store.OpenTaskStore(cfg.Data.TasksFile())
	if err != nil {
		return nil, err
	}
	flags, err := store.OpenFlagStore(cfg.Data.FlagsFile())
	if err != nil {
		return nil, err
	}

	audit, err := storage.Open(storageConfig(cfg), log.With().Str("comp", "storage").Logger())
	if err != nil {
		return nil, err
	}

	schedCfg, err := schedulerConfig(cfg)
	if err != nil {
		return nil, err
	}
	sched := scheduler.New(schedCfg, adapter, schedules, tasks, flags, audit,
		log.With().Str("comp", "scheduler").Logger())

	cmds := commands.New(schedules, tasks, flags, adapter, log.With().Str("comp", "commands").Logger())

	return &App{
		cfgm:      cfgm,
		logs:      logs,
		log:       log,
		adapter:   adapter,
		schedules: schedules,
		tasks:     tasks,
		flags:     flags,
		audit:     audit,
		sched:     sched,
		cmds:      cmds,
	}, nil
}

// Start opens the gateway and launches the background goroutines. The
// scheduler only begins polling once the gateway reports ready.
func (a *App) Start(ctx context.Context) error {
	rctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.cmds.Attach(a.adapter.Session())
	if err := a.adapter.Open(); err != nil {
		return err
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(rctx); err != nil {
			a.log.Warn().Err(err).Msg("config watch unavailable")
		}
	}()

	a.wg.Add(1)
	go a.applyLoop(rctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		select {
		case <-rctx.Done():
			return
		case <-a.adapter.Ready():
		}
		if err := a.cmds.Register(a.adapter.Session()); err != nil {
			a.log.Error().Err(err).Msg("slash command registration failed")
		}
		a.logs.SetDiscordSender(a.adapter.SendText)
		if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			a.log.Debug().Err(err).Msg("sd_notify failed")
		} else if sent {
			a.log.Debug().Msg("notified systemd: ready")
		}
		a.sched.Start(rctx)
	}()

	a.log.Info().Msg("bot started")
	return nil
}

// applyLoop re-applies hot-reloadable config: logging sinks/level and
// scheduler cadence.
func (a *App) applyLoop(ctx context.Context) {
	defer a.wg.Done()
	ch := a.cfgm.Subscribe(1)
	defer a.cfgm.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			a.logs.Apply(loggingConfig(cfg))
			schedCfg, err := schedulerConfig(cfg)
			if err != nil {
				a.log.Warn().Err(err).Msg("scheduler config invalid, keeping previous")
				continue
			}
			a.sched.Apply(ctx, schedCfg)
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.sched.Stop(ctx)
	err := a.adapter.Close()
	if a.audit != nil {
		_ = a.audit.Close()
	}
	a.wg.Wait()
	a.logs.Close()
	a.log.Info().Msg("bot stopped")
	return err
}

// ---- config mapping ----

func loggingConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logging.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Discord: logging.DiscordConfig{
			Enabled:    cfg.Logging.Discord.Enabled,
			ChannelID:  cfg.Logging.Discord.ChannelID,
			MinLevel:   cfg.Logging.Discord.MinLevel,
			RatePerSec: cfg.Logging.Discord.RatePerSec,
		},
	}
}

func schedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	check, err := config.ParseDurationOrDefault("scheduler.check_interval",
		cfg.Scheduler.CheckInterval, config.DefaultCheckInterval)
	if err != nil {
		return scheduler.Config{}, err
	}
	digest, err := config.ParseDurationOrDefault("scheduler.digest_interval",
		cfg.Scheduler.DigestInterval, config.DefaultDigestInterval)
	if err != nil {
		return scheduler.Config{}, err
	}
	window := config.DefaultDigestWindow
	if cfg.Scheduler.DigestWindowSeconds > 0 {
		window = time.Duration(cfg.Scheduler.DigestWindowSeconds) * time.Second
	}
	return scheduler.Config{
		CheckInterval:  check,
		DigestInterval: digest,
		DigestWindow:   window,
	}, nil
}

func storageConfig(cfg *config.Config) storage.Config {
	if cfg.Storage == nil {
		return storage.Config{}
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		busy = 0
	}
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}
}
