package ports

import (
	"context"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// GuideClient defines the interface for fetching EPG data from the upstream
// TV-guide site.
type GuideClient interface {
	// GetListing fetches and parses one listing page for a channel, day
	// offset and time-of-day segment.
	GetListing(ctx context.Context, channelID string, day int, segment string) (*domain.EPGPage, error)

	// GetProgramDetails fetches and parses the detail page for a broadcast.
	GetProgramDetails(ctx context.Context, broadcastID string) (*domain.ProgramDetails, error)

	// Ping checks if the guide site is reachable.
	Ping(ctx context.Context) error
}

// RecorderClient defines the interface for driving the recording appliance.
type RecorderClient interface {
	// CreateTimer schedules a recording on the appliance.
	CreateTimer(ctx context.Context, req *domain.TimerRequest) error

	// Ping checks if the appliance's web interface is reachable.
	Ping(ctx context.Context) error
}
