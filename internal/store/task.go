package store

import (
	"sync"
	"time"
)

// Urgency labels recognized by the digest sort. Anything else (or no
// label at all) sorts after these.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// TaskItem is one checklist entry. Immutable after creation except for
// deletion. Deadline is "YYYY-MM-DD"; CreatedAt is an RFC 3339
// timestamp.
type TaskItem struct {
	ID        uint64  `json:"id"`
	GuildID   uint64  `json:"guild_id"`
	Task      string  `json:"task"`
	Urgency   *string `json:"urgency"`
	Deadline  *string `json:"deadline"`
	CreatedAt string  `json:"created_at"`
}

// TaskStore keeps checklist items, snapshot-persisted like
// ScheduleStore.
type TaskStore struct {
	path string

	mu     sync.Mutex
	items  []TaskItem
	nextID uint64
}

func OpenTaskStore(path string) (*TaskStore, error) {
	snap, err := loadSnapshot[TaskItem](path)
	if err != nil {
		return nil, err
	}
	return &TaskStore{path: path, items: snap.Items, nextID: snap.NextID}, nil
}

func (s *TaskStore) saveLocked() error {
	return saveSnapshot(s.path, snapshot[TaskItem]{NextID: s.nextID, Items: s.items})
}

// Add creates a task with the next id and persists. urgency and
// deadline may be nil.
func (s *TaskStore) Add(guildID uint64, task string, urgency, deadline *string, createdAt time.Time) (TaskItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := TaskItem{
		ID:        s.nextID,
		GuildID:   guildID,
		Task:      task,
		Urgency:   urgency,
		Deadline:  deadline,
		CreatedAt: createdAt.Format(time.RFC3339),
	}
	s.nextID++
	s.items = append(s.items, item)
	if err := s.saveLocked(); err != nil {
		return TaskItem{}, err
	}
	return item, nil
}

// Remove deletes by id; persists only if something was removed.
func (s *TaskStore) Remove(id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(s.items) {
		return false, nil
	}
	s.items = kept
	return true, s.saveLocked()
}

// ListForGuild returns the guild's tasks in insertion order.
func (s *TaskStore) ListForGuild(guildID uint64) []TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TaskItem
	for _, it := range s.items {
		if it.GuildID == guildID {
			out = append(out, it)
		}
	}
	return out
}

// All returns a point-in-time copy of every task.
func (s *TaskStore) All() []TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the number of stored tasks.
func (s *TaskStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
