package scheduler

import (
	"sort"

	"remindbot/internal/store"
	"remindbot/internal/transport"
)

// urgencyRank orders labels for the digest: high before medium before
// low, anything else (or no label) last.
func urgencyRank(u *string) int {
	if u == nil {
		return 3
	}
	switch *u {
	case store.UrgencyHigh:
		return 0
	case store.UrgencyMedium:
		return 1
	case store.UrgencyLow:
		return 2
	default:
		return 3
	}
}

// BuildDigest sorts a guild's checklist for display: deadline
// ascending with undated items last, then urgency, then id.
// ISO "YYYY-MM-DD" dates compare correctly as strings.
func BuildDigest(items []store.TaskItem) transport.Digest {
	sorted := make([]store.TaskItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.Deadline != nil && b.Deadline == nil:
			return true
		case a.Deadline == nil && b.Deadline != nil:
			return false
		case a.Deadline != nil && b.Deadline != nil && *a.Deadline != *b.Deadline:
			return *a.Deadline < *b.Deadline
		}
		if ra, rb := urgencyRank(a.Urgency), urgencyRank(b.Urgency); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})

	d := transport.Digest{Entries: make([]transport.DigestEntry, 0, len(sorted))}
	for _, it := range sorted {
		e := transport.DigestEntry{ID: it.ID, Task: it.Task}
		if it.Urgency != nil {
			e.Urgency = *it.Urgency
		}
		if it.Deadline != nil {
			e.Deadline = *it.Deadline
		}
		d.Entries = append(d.Entries, e)
	}
	return d
}
