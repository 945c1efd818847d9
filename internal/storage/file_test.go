package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " None "} {
		st, err := Open(Config{Driver: driver}, zerolog.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) = %T, want nil store", driver, st)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileDriverRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "file"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestFileAppendAudit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit", "audit.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	entries := []AuditEntry{
		{Kind: KindSchedule, GuildID: 1, ChannelID: 10, ItemID: 3, OK: true},
		{Kind: KindDigest, GuildID: 1, ChannelID: 11, Tasks: 4, OK: false, Error: "boom"},
	}
	for _, e := range entries {
		if err := st.AppendAudit(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	var got []AuditEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %d: %v", len(got)+1, err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}
	if got[0].Kind != KindSchedule || got[0].ItemID != 3 || !got[0].OK {
		t.Fatalf("first entry = %+v", got[0])
	}
	if got[1].Kind != KindDigest || got[1].Tasks != 4 || got[1].Error != "boom" {
		t.Fatalf("second entry = %+v", got[1])
	}
	// The store stamps entries that arrive without a timestamp.
	if got[0].At.IsZero() || time.Since(got[0].At) > time.Minute {
		t.Fatalf("first entry timestamp = %v", got[0].At)
	}
}

func TestFileAppendAfterClose(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := st.AppendAudit(context.Background(), AuditEntry{Kind: KindSchedule}); err == nil {
		t.Fatal("expected error after close")
	}
}
