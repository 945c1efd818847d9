package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
)

// FlagSettings is one guild's configuration for the hourly task
// digest. ChannelID nil means "use the guild's system channel".
type FlagSettings struct {
	Enabled   bool    `json:"enabled"`
	ChannelID *uint64 `json:"channel_id"`
}

// flagsFile is the on-disk shape: one top-level key per feature,
// guild ids as decimal string keys.
type flagsFile struct {
	HourlyTaskList map[string]FlagSettings `json:"hourly_task_list"`
}

// FlagStore keeps per-guild feature flags, snapshot-persisted.
// Reads never create entries; absent guilds get the zero default.
type FlagStore struct {
	path string

	mu             sync.Mutex
	hourlyTaskList map[string]FlagSettings
}

func OpenFlagStore(path string) (*FlagStore, error) {
	st := &FlagStore{path: path, hourlyTaskList: map[string]FlagSettings{}}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, err
	}
	var f flagsFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if f.HourlyTaskList != nil {
		st.hourlyTaskList = f.HourlyTaskList
	}
	return st, nil
}

func (s *FlagStore) saveLocked() error {
	b, err := json.MarshalIndent(flagsFile{HourlyTaskList: s.hourlyTaskList}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, append(b, '\n'))
}

// SetHourlyTaskList upserts the guild's record and persists.
func (s *FlagStore) SetHourlyTaskList(guildID uint64, enabled bool, channelID *uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hourlyTaskList[strconv.FormatUint(guildID, 10)] = FlagSettings{
		Enabled:   enabled,
		ChannelID: channelID,
	}
	return s.saveLocked()
}

// GetHourlyTaskList returns the guild's record, or the disabled
// default when none exists. Never fails, never writes.
func (s *FlagStore) GetHourlyTaskList(guildID uint64) FlagSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fs, ok := s.hourlyTaskList[strconv.FormatUint(guildID, 10)]; ok {
		return fs
	}
	return FlagSettings{}
}
