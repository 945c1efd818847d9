package commands

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"remindbot/internal/store"
	"remindbot/internal/transport"
)

// stubGateway resolves any channel id not in the broken set.
type stubGateway struct {
	broken map[uint64]error
}

type stubChannel struct{ id uint64 }

func (c stubChannel) ID() uint64                                         { return c.id }
func (c stubChannel) Send(context.Context, string) error                 { return nil }
func (c stubChannel) SendDigest(context.Context, transport.Digest) error { return nil }

func (g *stubGateway) ResolveText(_ context.Context, channelID uint64) (transport.TextChannel, error) {
	if err, ok := g.broken[channelID]; ok {
		return nil, err
	}
	return stubChannel{id: channelID}, nil
}

func (g *stubGateway) Guilds() []transport.Guild { return nil }

func newTestRegistry(t *testing.T) (*Registry, *stubGateway) {
	t.Helper()
	dir := t.TempDir()
	schedules, err := store.OpenScheduleStore(filepath.Join(dir, "schedules.json"))
	if err != nil {
		t.Fatalf("open schedules: %v", err)
	}
	tasks, err := store.OpenTaskStore(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("open tasks: %v", err)
	}
	flags, err := store.OpenFlagStore(filepath.Join(dir, "flags.json"))
	if err != nil {
		t.Fatalf("open flags: %v", err)
	}
	gw := &stubGateway{broken: map[uint64]error{}}
	return New(schedules, tasks, flags, gw, zerolog.Nop()), gw
}

func strOpt(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v,
	}
}

func intOpt(name string, v int64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(v),
	}
}

func boolOpt(name string, v bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionBoolean, Value: v,
	}
}

func reqWith(guildID, channelID uint64, opts ...*discordgo.ApplicationCommandInteractionDataOption) *request {
	return &request{guildID: guildID, channelID: channelID, opts: optionMap(opts)}
}

func TestPing(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	if got := r.ping(context.Background(), nil); got != "Pong!" {
		t.Fatalf("ping = %q", got)
	}
}

func TestScheduleAddRejectsInvalidTime(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	reply := r.scheduleAdd(context.Background(), reqWith(1, 10,
		strOpt("time", "9:00"), strOpt("message", "hi")))
	if !strings.Contains(reply, "Invalid time") {
		t.Fatalf("reply = %q", reply)
	}
	if r.schedules.Len() != 0 {
		t.Fatal("invalid input mutated the store")
	}
}

func TestScheduleAddOutsideGuildRejected(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	reply := r.scheduleAdd(context.Background(), reqWith(0, 10,
		strOpt("time", "09:00"), strOpt("message", "hi")))
	if !strings.Contains(reply, "server") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestScheduleAddDefaultsToInvokingChannel(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	reply := r.scheduleAdd(context.Background(), reqWith(1, 10,
		strOpt("time", "09:00"), strOpt("message", "hi")))
	if !strings.Contains(reply, "Scheduled #1 at 09:00") {
		t.Fatalf("reply = %q", reply)
	}
	items := r.schedules.ListForGuild(1)
	if len(items) != 1 || items[0].ChannelID != 10 {
		t.Fatalf("stored = %+v, want channel 10", items)
	}
}

func TestScheduleAddUnresolvableChannel(t *testing.T) {
	t.Parallel()
	r, gw := newTestRegistry(t)
	gw.broken[10] = errors.New("no such channel")
	reply := r.scheduleAdd(context.Background(), reqWith(1, 10,
		strOpt("time", "09:00"), strOpt("message", "hi")))
	if !strings.Contains(reply, "Could not resolve a text channel") {
		t.Fatalf("reply = %q", reply)
	}
	if r.schedules.Len() != 0 {
		t.Fatal("failed resolution mutated the store")
	}
}

func TestScheduleRemoveReportsMissing(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	reply := r.scheduleRemove(context.Background(), reqWith(1, 10, intOpt("id", 7)))
	if !strings.Contains(reply, "not found") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestTaskAddRejectsInvalidDeadline(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	reply := r.taskAdd(context.Background(), reqWith(1, 10,
		strOpt("task", "water plants"), strOpt("deadline", "tomorrow")))
	if !strings.Contains(reply, "Invalid deadline") {
		t.Fatalf("reply = %q", reply)
	}
	if r.tasks.Len() != 0 {
		t.Fatal("invalid input mutated the store")
	}
}

func TestTaskAddStoresLabels(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	reply := r.taskAdd(context.Background(), reqWith(1, 10,
		strOpt("task", "water plants"), strOpt("urgency", "high"), strOpt("deadline", "2024-04-01")))
	if !strings.Contains(reply, "Added task #1") {
		t.Fatalf("reply = %q", reply)
	}
	it := r.tasks.ListForGuild(1)[0]
	if it.Urgency == nil || *it.Urgency != "high" || it.Deadline == nil || *it.Deadline != "2024-04-01" {
		t.Fatalf("stored = %+v", it)
	}
}

func TestTasklistAutoStoresInvokingChannel(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	reply := r.tasklistAuto(context.Background(), reqWith(1, 10, boolOpt("enabled", true)))
	if !strings.Contains(reply, "enabled") {
		t.Fatalf("reply = %q", reply)
	}
	got := r.flags.GetHourlyTaskList(1)
	if !got.Enabled || got.ChannelID == nil || *got.ChannelID != 10 {
		t.Fatalf("flag = %+v, want enabled in channel 10", got)
	}
}

func TestTasklistAutoDisable(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	if reply := r.tasklistAuto(context.Background(), reqWith(1, 10, boolOpt("enabled", false))); !strings.Contains(reply, "disabled") {
		t.Fatalf("reply = %q", reply)
	}
	if got := r.flags.GetHourlyTaskList(1); got.Enabled {
		t.Fatalf("flag = %+v, want disabled", got)
	}
}

func TestTasklistStatus(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	reply := r.tasklistStatus(context.Background(), reqWith(1, 10))
	if !strings.Contains(reply, "disabled") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestFormatTaskLine(t *testing.T) {
	t.Parallel()
	u, d := "high", "2024-04-01"
	tests := []struct {
		name string
		item store.TaskItem
		want string
	}{
		{name: "bare", item: store.TaskItem{ID: 1, Task: "a"}, want: "#1: a"},
		{name: "urgency", item: store.TaskItem{ID: 2, Task: "b", Urgency: &u}, want: "#2: b [high]"},
		{name: "full", item: store.TaskItem{ID: 3, Task: "c", Urgency: &u, Deadline: &d}, want: "#3: c [high] (due 2024-04-01)"},
	}
	for _, tt := range tests {
		if got := formatTaskLine(tt.item); got != tt.want {
			t.Fatalf("%s: formatTaskLine = %q, want %q", tt.name, got, tt.want)
		}
	}
}
