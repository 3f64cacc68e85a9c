package ports

import (
	"context"
	"sync/atomic"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// MockGuideClient is a configurable GuideClient for tests. Unset functions
// return zero values.
type MockGuideClient struct {
	GetListingFunc        func(ctx context.Context, channelID string, day int, segment string) (*domain.EPGPage, error)
	GetProgramDetailsFunc func(ctx context.Context, broadcastID string) (*domain.ProgramDetails, error)
	PingFunc              func(ctx context.Context) error

	ListingCalls int32
	DetailCalls  int32
}

func (m *MockGuideClient) GetListing(ctx context.Context, channelID string, day int, segment string) (*domain.EPGPage, error) {
	atomic.AddInt32(&m.ListingCalls, 1)
	if m.GetListingFunc != nil {
		return m.GetListingFunc(ctx, channelID, day, segment)
	}
	return &domain.EPGPage{ChannelID: channelID, Day: day}, nil
}

func (m *MockGuideClient) GetProgramDetails(ctx context.Context, broadcastID string) (*domain.ProgramDetails, error) {
	atomic.AddInt32(&m.DetailCalls, 1)
	if m.GetProgramDetailsFunc != nil {
		return m.GetProgramDetailsFunc(ctx, broadcastID)
	}
	return &domain.ProgramDetails{}, nil
}

func (m *MockGuideClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// MockRecorderClient is a configurable RecorderClient for tests.
type MockRecorderClient struct {
	CreateTimerFunc func(ctx context.Context, req *domain.TimerRequest) error
	PingFunc        func(ctx context.Context) error

	CreateCalls int32
	Created     []domain.TimerRequest
}

func (m *MockRecorderClient) CreateTimer(ctx context.Context, req *domain.TimerRequest) error {
	atomic.AddInt32(&m.CreateCalls, 1)
	if m.CreateTimerFunc != nil {
		return m.CreateTimerFunc(ctx, req)
	}
	m.Created = append(m.Created, *req)
	return nil
}

func (m *MockRecorderClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
