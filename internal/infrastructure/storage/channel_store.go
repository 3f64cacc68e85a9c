package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// ChannelStore holds the static channel mapping (guide channel id to
// appliance DVB id). The file is loaded once and can be reloaded on demand;
// the core never mutates it.
type ChannelStore struct {
	mu       sync.RWMutex
	path     string
	channels map[string]domain.Channel
}

// NewChannelStore creates a channel store backed by the given file path.
func NewChannelStore(path string) *ChannelStore {
	return &ChannelStore{
		path:     path,
		channels: make(map[string]domain.Channel),
	}
}

// Load reads the mapping file. The on-disk shape is a JSON object keyed by
// channel id: {"37": {"name": "...", "dvbId": "...", "category": "..."}}.
func (s *ChannelStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.channels = make(map[string]domain.Channel)
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to read channel mapping: %w", err)
	}

	var raw map[string]domain.Channel
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse channel mapping: %w", err)
	}

	channels := make(map[string]domain.Channel, len(raw))
	for id, ch := range raw {
		ch.ID = id
		channels[id] = ch
	}

	s.mu.Lock()
	s.channels = channels
	s.mu.Unlock()
	return nil
}

// Get returns the channel for an id.
func (s *ChannelStore) Get(id string) (domain.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	return ch, ok
}

// List returns all channels sorted by id.
func (s *ChannelStore) List() []domain.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns all channel ids sorted.
func (s *ChannelStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
