package store

import "sync"

// ScheduleItem is one recurring daily message.
//
// Time is local wall-clock "HH:MM" (24h). LastRunDate is the ISO date
// of the last successful delivery; the scheduler uses it to fire at
// most once per calendar day.
type ScheduleItem struct {
	ID          uint64  `json:"id"`
	GuildID     uint64  `json:"guild_id"`
	ChannelID   uint64  `json:"channel_id"`
	Time        string  `json:"time"`
	Message     string  `json:"message"`
	LastRunDate *string `json:"last_run_date"`
}

// ScheduleStore keeps schedule items in memory, mirrored to a JSON
// snapshot file on every mutation. Only the scheduler mutates
// LastRunDate; time/message are never updated in place.
type ScheduleStore struct {
	path string

	mu     sync.Mutex
	items  []ScheduleItem
	nextID uint64
}

// OpenScheduleStore loads the snapshot at path, or starts an empty
// store when the file does not exist yet.
func OpenScheduleStore(path string) (*ScheduleStore, error) {
	snap, err := loadSnapshot[ScheduleItem](path)
	if err != nil {
		return nil, err
	}
	return &ScheduleStore{path: path, items: snap.Items, nextID: snap.NextID}, nil
}

func (s *ScheduleStore) saveLocked() error {
	return saveSnapshot(s.path, snapshot[ScheduleItem]{NextID: s.nextID, Items: s.items})
}

// Add assigns the next id, appends the item, and persists.
func (s *ScheduleStore) Add(guildID, channelID uint64, at, message string) (ScheduleItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := ScheduleItem{
		ID:        s.nextID,
		GuildID:   guildID,
		ChannelID: channelID,
		Time:      at,
		Message:   message,
	}
	s.nextID++
	s.items = append(s.items, item)
	if err := s.saveLocked(); err != nil {
		return ScheduleItem{}, err
	}
	return item, nil
}

// Remove deletes the item with the given id. It reports whether
// anything was removed and persists only on an actual removal.
func (s *ScheduleStore) Remove(id uint64) (bool, error) {
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

// ListForGuild returns the guild's items in insertion order.
func (s *ScheduleStore) ListForGuild(guildID uint64) []ScheduleItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ScheduleItem
	for _, it := range s.items {
		if it.GuildID == guildID {
			out = append(out, it)
		}
	}
	return out
}

// All returns a point-in-time copy of every item.
func (s *ScheduleStore) All() []ScheduleItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduleItem, len(s.items))
	copy(out, s.items)
	return out
}

// UpdateLastRun records day as the item's last fired date and persists
// unconditionally.
func (s *ScheduleStore) UpdateLastRun(id uint64, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			d := day
			s.items[i].LastRunDate = &d
			break
		}
	}
	return s.saveLocked()
}

// Len reports the number of stored items.
func (s *ScheduleStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
