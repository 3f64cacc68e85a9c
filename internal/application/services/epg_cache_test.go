package services

import (
	"testing"
	"time"

	"github.com/smetzlaff/epgrec/internal/domain"
)

func newTestCache(ttl time.Duration) (*EPGCache, *time.Time) {
	c := NewEPGCache(ttl)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestEPGCache_PutThenGetHits(t *testing.T) {
	c, _ := newTestCache(6 * time.Hour)

	page := &domain.EPGPage{ChannelID: "37", Day: 0}
	c.Put("37", 0, "ganztags", page)

	got, ok := c.Get("37", 0, "ganztags")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got != page {
		t.Fatalf("expected the stored page back")
	}
}

func TestEPGCache_ExpiresAfterTTL(t *testing.T) {
	c, now := newTestCache(6 * time.Hour)

	c.Put("37", 0, "ganztags", &domain.EPGPage{ChannelID: "37"})

	*now = now.Add(6*time.Hour - time.Second)
	if _, ok := c.Get("37", 0, "ganztags"); !ok {
		t.Fatalf("expected hit just before TTL")
	}

	*now = now.Add(2 * time.Second)
	if _, ok := c.Get("37", 0, "ganztags"); ok {
		t.Fatalf("expected miss after TTL")
	}

	// Expired entries are not evicted, only treated as misses.
	stats := c.Stats()
	if stats.Size != 1 {
		t.Fatalf("expected expired entry to remain, got size %d", stats.Size)
	}
}

func TestEPGCache_OverwriteRefreshesEntry(t *testing.T) {
	c, now := newTestCache(time.Hour)

	c.Put("37", 0, "ganztags", &domain.EPGPage{ChannelID: "37"})
	*now = now.Add(2 * time.Hour)

	if _, ok := c.Get("37", 0, "ganztags"); ok {
		t.Fatalf("expected miss after TTL")
	}

	fresh := &domain.EPGPage{ChannelID: "37", ChannelName: "Das Erste"}
	c.Put("37", 0, "ganztags", fresh)

	got, ok := c.Get("37", 0, "ganztags")
	if !ok || got.ChannelName != "Das Erste" {
		t.Fatalf("expected fresh entry after overwrite")
	}
}

func TestEPGCache_ClearEmptiesEverything(t *testing.T) {
	c, _ := newTestCache(6 * time.Hour)

	c.Put("37", 0, "ganztags", &domain.EPGPage{})
	c.Put("71", 1, "abends", &domain.EPGPage{})

	c.Clear()

	if _, ok := c.Get("37", 0, "ganztags"); ok {
		t.Fatalf("expected miss after clear")
	}
	if _, ok := c.Get("71", 1, "abends"); ok {
		t.Fatalf("expected miss after clear")
	}
	if stats := c.Stats(); stats.Size != 0 {
		t.Fatalf("expected empty stats, got %d keys", stats.Size)
	}
}

func TestEPGCache_KeysAreDistinctPerDimension(t *testing.T) {
	c, _ := newTestCache(6 * time.Hour)

	c.Put("37", 0, "ganztags", &domain.EPGPage{Day: 0})
	c.Put("37", 1, "ganztags", &domain.EPGPage{Day: 1})
	c.Put("37", 0, "abends", &domain.EPGPage{Day: 0})

	stats := c.Stats()
	if stats.Size != 3 {
		t.Fatalf("expected 3 distinct entries, got %d", stats.Size)
	}

	got, ok := c.Get("37", 1, "ganztags")
	if !ok || got.Day != 1 {
		t.Fatalf("expected day-1 page for day-1 key")
	}
}
