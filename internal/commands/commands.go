// Package commands is the slash-command surface: six operations over
// the three stores, plus ping. Handlers validate, mutate, and reply;
// all delivery is the scheduler's job.
package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"remindbot/internal/discord"
	"remindbot/internal/store"
	"remindbot/internal/transport"
)

type Registry struct {
	log       zerolog.Logger
	schedules *store.ScheduleStore
	tasks     *store.TaskStore
	flags     *store.FlagStore
	gw        transport.Gateway

	now func() time.Time

	handlers map[string]handlerFunc
}

// request is one invocation, with ids already converted and options
// flattened into a name map.
type request struct {
	guildID   uint64
	channelID uint64
	opts      map[string]*discordgo.ApplicationCommandInteractionDataOption
	sess      *discordgo.Session
}

// handlerFunc returns the text reply for the invocation.
type handlerFunc func(ctx context.Context, req *request) string

func New(schedules *store.ScheduleStore, tasks *store.TaskStore, flags *store.FlagStore, gw transport.Gateway, log zerolog.Logger) *Registry {
	r := &Registry{
		log:       log,
		schedules: schedules,
		tasks:     tasks,
		flags:     flags,
		gw:        gw,
		now:       time.Now,
	}
	r.handlers = map[string]handlerFunc{
		"ping":            r.ping,
		"schedule add":    r.scheduleAdd,
		"schedule list":   r.scheduleList,
		"schedule remove": r.scheduleRemove,
		"task add":        r.taskAdd,
		"task list":       r.taskList,
		"task remove":     r.taskRemove,
		"tasklist auto":   r.tasklistAuto,
		"tasklist status": r.tasklistStatus,
	}
	return r
}

// Definitions is the full command tree pushed to Discord on startup.
func Definitions() []*discordgo.ApplicationCommand {
	textOnly := []discordgo.ChannelType{discordgo.ChannelTypeGuildText}
	urgencies := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "low", Value: store.UrgencyLow},
		{Name: "medium", Value: store.UrgencyMedium},
		{Name: "high", Value: store.UrgencyHigh},
	}
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check if the bot is alive",
		},
		{
			Name:        "schedule",
			Description: "Manage scheduled messages",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a scheduled message",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "time", Description: "Local time in HH:MM (24h) format", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "message", Description: "Message to send", Required: true},
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel to send to (defaults to current channel)", ChannelTypes: textOnly},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List schedules for this server",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a schedule by id",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Schedule id to remove", Required: true},
					},
				},
			},
		},
		{
			Name:        "task",
			Description: "Manage the shared checklist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a checklist task",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "task", Description: "What needs doing", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "urgency", Description: "How urgent it is", Choices: urgencies},
						{Type: discordgo.ApplicationCommandOptionString, Name: "deadline", Description: "Due date, YYYY-MM-DD"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List checklist tasks for this server",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a task by id",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Task id to remove", Required: true},
					},
				},
			},
		},
		{
			Name:        "tasklist",
			Description: "Hourly task digest",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "auto",
					Description: "Enable or disable the hourly task digest",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "enabled", Description: "Post the checklist every hour", Required: true},
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel to post in (defaults to current channel)", ChannelTypes: textOnly},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show digest settings and store counts",
				},
			},
		},
	}
}

// Register pushes the definitions globally. Call after the gateway is
// ready so the application id is known.
func (r *Registry) Register(sess *discordgo.Session) error {
	_, err := sess.ApplicationCommandBulkOverwrite(sess.State.User.ID, "", Definitions())
	return err
}

// Attach installs the interaction handler on the session.
func (r *Registry) Attach(sess *discordgo.Session) {
	sess.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		r.dispatch(s, i)
	})
}

func (r *Registry) dispatch(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	route := data.Name
	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		route += " " + opts[0].Name
		opts = opts[0].Options
	}
	h, ok := r.handlers[route]
	if !ok {
		r.log.Warn().Str("route", route).Msg("unknown command route")
		return
	}

	guildID, err := discord.ParseID(i.GuildID)
	if err != nil {
		guildID = 0
	}
	channelID, err := discord.ParseID(i.ChannelID)
	if err != nil {
		channelID = 0
	}
	req := &request{
		guildID:   guildID,
		channelID: channelID,
		opts:      optionMap(opts),
		sess:      s,
	}

	reply := h(context.Background(), req)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: reply},
	}); err != nil {
		r.log.Warn().Err(err).Str("route", route).Msg("interaction respond failed")
	}
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}
