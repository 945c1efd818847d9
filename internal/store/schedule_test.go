package store

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func scheduleStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "schedules.json")
}

func TestScheduleAddAssignsMonotonicIDs(t *testing.T) {
	t.Parallel()
	s, err := OpenScheduleStore(scheduleStorePath(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	a, err := s.Add(1, 10, "09:00", "first")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := s.Add(1, 10, "10:00", "second")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", a.ID, b.ID)
	}

	items := s.ListForGuild(1)
	if len(items) != 2 || items[0].ID != a.ID || items[1].ID != b.ID {
		t.Fatalf("ListForGuild = %+v, want both items in insertion order", items)
	}
}

func TestScheduleIDsNeverReused(t *testing.T) {
	t.Parallel()
	s, err := OpenScheduleStore(scheduleStorePath(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := s.Add(1, 10, "09:00", "a"); err != nil {
		t.Fatalf("add: %v", err)
	}
	b, _ := s.Add(1, 10, "10:00", "b")
	if ok, err := s.Remove(b.ID); err != nil || !ok {
		t.Fatalf("remove = %v, %v", ok, err)
	}
	c, err := s.Add(1, 10, "11:00", "c")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.ID != 3 {
		t.Fatalf("id after remove = %d, want 3", c.ID)
	}
}

func TestScheduleListFiltersByGuild(t *testing.T) {
	t.Parallel()
	s, err := OpenScheduleStore(scheduleStorePath(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Add(1, 10, "09:00", "mine"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(2, 20, "09:00", "theirs"); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := s.ListForGuild(1)
	if len(items) != 1 || items[0].Message != "mine" {
		t.Fatalf("ListForGuild(1) = %+v", items)
	}
}

func TestScheduleRemoveMissingLeavesSnapshotUntouched(t *testing.T) {
	t.Parallel()
	path := scheduleStorePath(t)
	s, err := OpenScheduleStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Add(1, 10, "09:00", "a"); err != nil {
		t.Fatalf("add: %v", err)
	}

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	ok, err := s.Remove(99)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok {
		t.Fatal("Remove(99) = true, want false")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("snapshot rewritten by a no-op remove")
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	t.Parallel()
	path := scheduleStorePath(t)
	s, err := OpenScheduleStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a, _ := s.Add(1, 10, "09:00", "a")
	if _, err := s.Add(2, 20, "18:30", "b"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.UpdateLastRun(a.ID, "2024-03-14"); err != nil {
		t.Fatalf("update last run: %v", err)
	}

	reopened, err := OpenScheduleStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reflect.DeepEqual(s.All(), reopened.All()) {
		t.Fatalf("reload mismatch:\n  was  %+v\n  got  %+v", s.All(), reopened.All())
	}
	// The id counter must survive the round trip too.
	c, err := reopened.Add(1, 10, "12:00", "c")
	if err != nil {
		t.Fatalf("add after reload: %v", err)
	}
	if c.ID != 3 {
		t.Fatalf("next id after reload = %d, want 3", c.ID)
	}
}

func TestScheduleLoadMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()
	s, err := OpenScheduleStore(scheduleStorePath(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := s.Len(); got != 0 {
		t.Fatalf("Len = %d, want 0", got)
	}
	item, err := s.Add(1, 10, "09:00", "first")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.ID != 1 {
		t.Fatalf("first id = %d, want 1", item.ID)
	}
}

func TestScheduleLoadCorruptFileFails(t *testing.T) {
	t.Parallel()
	path := scheduleStorePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := OpenScheduleStore(path); err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
}

func TestScheduleSnapshotFieldNames(t *testing.T) {
	t.Parallel()
	path := scheduleStorePath(t)
	s, err := OpenScheduleStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Add(1, 10, "09:00", "a"); err != nil {
		t.Fatalf("add: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, key := range []string{`"next_id"`, `"items"`, `"id"`, `"guild_id"`, `"channel_id"`, `"time"`, `"message"`, `"last_run_date"`} {
		if !bytes.Contains(b, []byte(key)) {
			t.Fatalf("snapshot missing key %s:\n%s", key, b)
		}
	}
	// An unfired item persists an explicit null, matching files
	// written by earlier versions.
	if !bytes.Contains(b, []byte(`"last_run_date": null`)) {
		t.Fatalf("unfired item should persist last_run_date null:\n%s", b)
	}
}
