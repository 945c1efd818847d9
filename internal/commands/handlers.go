package commands

import (
	"context"
	"fmt"
	"strings"

	"remindbot/internal/discord"
	"remindbot/internal/store"
)

func (r *Registry) ping(context.Context, *request) string {
	return "Pong!"
}

// ---- /schedule ----

func (r *Registry) scheduleAdd(ctx context.Context, req *request) string {
	if req.guildID == 0 {
		return "Schedules must be created in a server."
	}
	at := req.opts["time"].StringValue()
	if !ValidClock(at) {
		return "Invalid time. Use HH:MM in 24h format."
	}
	message := req.opts["message"].StringValue()

	channelID := req.channelID
	if o, ok := req.opts["channel"]; ok {
		id, err := discord.ParseID(o.ChannelValue(nil).ID)
		if err != nil {
			return "Could not resolve a text channel."
		}
		channelID = id
	}
	// The destination must be text-capable before anything is stored.
	if _, err := r.gw.ResolveText(ctx, channelID); err != nil {
		return "Could not resolve a text channel."
	}

	item, err := r.schedules.Add(req.guildID, channelID, at, message)
	if err != nil {
		r.log.Error().Err(err).Msg("schedule add failed")
		return "Could not save the schedule."
	}
	return fmt.Sprintf("Scheduled #%d at %s in <#%s>.", item.ID, item.Time, discord.FormatID(channelID))
}

func (r *Registry) scheduleList(_ context.Context, req *request) string {
	if req.guildID == 0 {
		return "No schedules found."
	}
	items := r.schedules.ListForGuild(req.guildID)
	if len(items) == 0 {
		return "No schedules found."
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("#%d: %s in <#%s> -> %s", it.ID, it.Time, discord.FormatID(it.ChannelID), it.Message))
	}
	return strings.Join(lines, "\n")
}

func (r *Registry) scheduleRemove(_ context.Context, req *request) string {
	id := uint64(req.opts["id"].IntValue())
	removed, err := r.schedules.Remove(id)
	if err != nil {
		r.log.Error().Err(err).Uint64("id", id).Msg("schedule remove failed")
		return "Could not remove the schedule."
	}
	if !removed {
		return fmt.Sprintf("Schedule #%d not found.", id)
	}
	return fmt.Sprintf("Removed schedule #%d.", id)
}

// ---- /task ----

func (r *Registry) taskAdd(_ context.Context, req *request) string {
	if req.guildID == 0 {
		return "Tasks must be created in a server."
	}
	text := req.opts["task"].StringValue()

	var urgency, deadline *string
	if o, ok := req.opts["urgency"]; ok {
		u := o.StringValue()
		urgency = &u
	}
	if o, ok := req.opts["deadline"]; ok {
		d := o.StringValue()
		if !ValidDate(d) {
			return "Invalid deadline. Use YYYY-MM-DD."
		}
		deadline = &d
	}

	item, err := r.tasks.Add(req.guildID, text, urgency, deadline, r.now())
	if err != nil {
		r.log.Error().Err(err).Msg("task add failed")
		return "Could not save the task."
	}
	return fmt.Sprintf("Added task #%d: %s", item.ID, item.Task)
}

func (r *Registry) taskList(_ context.Context, req *request) string {
	if req.guildID == 0 {
		return "No tasks found."
	}
	items := r.tasks.ListForGuild(req.guildID)
	if len(items) == 0 {
		return "No tasks found."
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, formatTaskLine(it))
	}
	return strings.Join(lines, "\n")
}

func formatTaskLine(it store.TaskItem) string {
	line := fmt.Sprintf("#%d: %s", it.ID, it.Task)
	if it.Urgency != nil {
		line += fmt.Sprintf(" [%s]", *it.Urgency)
	}
	if it.Deadline != nil {
		line += fmt.Sprintf(" (due %s)", *it.Deadline)
	}
	return line
}

func (r *Registry) taskRemove(_ context.Context, req *request) string {
	id := uint64(req.opts["id"].IntValue())
	removed, err := r.tasks.Remove(id)
	if err != nil {
		r.log.Error().Err(err).Uint64("id", id).Msg("task remove failed")
		return "Could not remove the task."
	}
	if !removed {
		return fmt.Sprintf("Task #%d not found.", id)
	}
	return fmt.Sprintf("Removed task #%d.", id)
}

// ---- /tasklist ----

func (r *Registry) tasklistAuto(ctx context.Context, req *request) string {
	if req.guildID == 0 {
		return "The task digest can only be configured in a server."
	}
	enabled := req.opts["enabled"].BoolValue()

	channelID := req.channelID
	if o, ok := req.opts["channel"]; ok {
		id, err := discord.ParseID(o.ChannelValue(nil).ID)
		if err != nil {
			return "Could not resolve a text channel."
		}
		channelID = id
	}
	if enabled {
		if _, err := r.gw.ResolveText(ctx, channelID); err != nil {
			return "Could not resolve a text channel."
		}
	}

	if err := r.flags.SetHourlyTaskList(req.guildID, enabled, &channelID); err != nil {
		r.log.Error().Err(err).Uint64("guild", req.guildID).Msg("flag save failed")
		return "Could not save the setting."
	}
	if enabled {
		return fmt.Sprintf("Hourly task list enabled in <#%s>.", discord.FormatID(channelID))
	}
	return "Hourly task list disabled."
}

func (r *Registry) tasklistStatus(_ context.Context, req *request) string {
	if req.guildID == 0 {
		return "The task digest can only be configured in a server."
	}
	flags := r.flags.GetHourlyTaskList(req.guildID)
	tasks := len(r.tasks.ListForGuild(req.guildID))
	schedules := len(r.schedules.ListForGuild(req.guildID))

	state := "disabled"
	if flags.Enabled {
		if flags.ChannelID != nil {
			state = fmt.Sprintf("enabled in <#%s>", discord.FormatID(*flags.ChannelID))
		} else {
			state = "enabled (system channel)"
		}
	}
	return fmt.Sprintf("Hourly task list: %s. %d task(s), %d schedule(s).", state, tasks, schedules)
}
