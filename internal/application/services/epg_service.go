package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/smetzlaff/epgrec/internal/domain"
	"github.com/smetzlaff/epgrec/internal/ports"
)

// DefaultSegment is the whole-day time segment of the upstream site.
const DefaultSegment = "ganztags"

// ChannelDirectory provides read access to the static channel mapping.
type ChannelDirectory interface {
	Get(id string) (domain.Channel, bool)
	List() []domain.Channel
	IDs() []string
}

// EPGService handles EPG-related operations with caching
type EPGService struct {
	guide    ports.GuideClient
	cache    *EPGCache
	channels ChannelDirectory
	logger   *slog.Logger
}

// SearchOptions narrows a program search. Empty Channels means all known
// channels; empty Days means the given default lookahead window.
type SearchOptions struct {
	Channels []string
	Days     []int
	Genre    string
	Segment  string
}

// NewEPGService creates a new EPG service
func NewEPGService(guide ports.GuideClient, cache *EPGCache, channels ChannelDirectory, logger *slog.Logger) *EPGService {
	return &EPGService{
		guide:    guide,
		cache:    cache,
		channels: channels,
		logger:   logger,
	}
}

// GetEPG returns the listing page for a channel/day/segment, serving from
// cache when fresh. Fetch errors are never cached, so the next call retries.
func (s *EPGService) GetEPG(ctx context.Context, channelID string, day int, segment string) (*domain.EPGPage, error) {
	if segment == "" {
		segment = DefaultSegment
	}

	if page, ok := s.cache.Get(channelID, day, segment); ok {
		return page, nil
	}

	page, err := s.guide.GetListing(ctx, channelID, day, segment)
	if err != nil {
		return nil, err
	}

	// The scraped channel name is best-effort; fall back to the mapping.
	if page.ChannelName == "" {
		if ch, ok := s.channels.Get(channelID); ok {
			page.ChannelName = ch.Name
		}
	}

	s.cache.Put(channelID, day, segment, page)
	return page, nil
}

// SearchPrograms filters programs across the channel x day product by
// case-insensitive title and genre substrings (AND'd). A failed fetch for
// one pair is logged and contributes zero results.
func (s *EPGService) SearchPrograms(ctx context.Context, query string, opts SearchOptions) ([]domain.Program, error) {
	channels := opts.Channels
	if len(channels) == 0 {
		channels = s.channels.IDs()
	}
	days := opts.Days
	if len(days) == 0 {
		days = []int{0, 1, 2}
	}

	queryLower := strings.ToLower(query)
	genreLower := strings.ToLower(opts.Genre)

	var results []domain.Program
	for _, channelID := range channels {
		for _, day := range days {
			page, err := s.GetEPG(ctx, channelID, day, opts.Segment)
			if err != nil {
				s.logger.Warn("search: skipping channel/day",
					slog.String("channel", channelID),
					slog.Int("day", day),
					slog.Any("error", err),
				)
				continue
			}

			for _, p := range page.Programs {
				if query != "" && !strings.Contains(strings.ToLower(p.Title), queryLower) {
					continue
				}
				if opts.Genre != "" && !strings.Contains(strings.ToLower(p.Genre), genreLower) {
					continue
				}
				results = append(results, p)
			}
		}
	}

	return results, nil
}

// GetProgramDetails fetches the detail page for a broadcast.
func (s *EPGService) GetProgramDetails(ctx context.Context, broadcastID string) (*domain.ProgramDetails, error) {
	return s.guide.GetProgramDetails(ctx, broadcastID)
}

// ClearCache empties the EPG cache.
func (s *EPGService) ClearCache() {
	s.cache.Clear()
}

// CacheStats reports the EPG cache contents.
func (s *EPGService) CacheStats() CacheStats {
	return s.cache.Stats()
}
