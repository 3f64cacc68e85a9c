package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/smetzlaff/epgrec/internal/domain"
	"github.com/smetzlaff/epgrec/internal/ports"
)

const (
	timerDateLayout = "02.01.2006"

	// fallbackDuration is assumed when a matched program has no end time
	// and the task carries no default duration.
	fallbackDuration = 120
)

var clockRe = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// TimerService handles timer-related operations
type TimerService struct {
	recorder ports.RecorderClient
	logger   *slog.Logger
}

// NewTimerService creates a new timer service
func NewTimerService(recorder ports.RecorderClient, logger *slog.Logger) *TimerService {
	return &TimerService{
		recorder: recorder,
		logger:   logger,
	}
}

// CreateTimer validates a timer request and sends it to the appliance.
func (s *TimerService) CreateTimer(ctx context.Context, req *domain.TimerRequest) error {
	if err := validateTimerRequest(req); err != nil {
		return fmt.Errorf("invalid timer: %w", err)
	}

	return s.recorder.CreateTimer(ctx, req)
}

// TimerFromMatch builds the timer request for a matched program. The date
// is today plus the program's day offset; the end time falls back to the
// task's default duration when the listing carried none.
func (s *TimerService) TimerFromMatch(match domain.Match, task domain.Task, today time.Time) (*domain.TimerRequest, error) {
	end := match.Program.EndTime
	if end == "" {
		duration := task.DefaultDuration
		if duration <= 0 {
			duration = fallbackDuration
		}
		var err error
		end, err = CalculateEndTime(match.Program.Time, duration)
		if err != nil {
			return nil, err
		}
	}

	return &domain.TimerRequest{
		ChannelID:   match.Program.ChannelID,
		Title:       match.Program.Title,
		Date:        today.AddDate(0, 0, match.Program.Day).Format(timerDateLayout),
		StartTime:   match.Program.Time,
		EndTime:     end,
		MarginStart: task.MarginStart,
		MarginEnd:   task.MarginEnd,
		Folder:      task.Folder,
		Priority:    task.Priority,
		Series:      task.Series,
	}, nil
}

// TestConnection probes the appliance's web interface.
func (s *TimerService) TestConnection(ctx context.Context) error {
	return s.recorder.Ping(ctx)
}

// CalculateEndTime adds a duration to a wall-clock time, wrapping past
// midnight. The date is deliberately not rolled forward: a 23:30 start with
// 90 minutes yields "01:00" on the same timer date, matching what the
// appliance has always been sent.
func CalculateEndTime(startTime string, durationMinutes int) (string, error) {
	t, err := time.Parse("15:04", startTime)
	if err != nil {
		return "", fmt.Errorf("%w: bad start time %q", domain.ErrInvalidInput, startTime)
	}

	total := (t.Hour()*60 + t.Minute() + durationMinutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

func validateTimerRequest(req *domain.TimerRequest) error {
	if req == nil {
		return domain.ErrInvalidInput
	}

	if req.ChannelID == "" {
		return fmt.Errorf("%w: channel ID required", domain.ErrInvalidInput)
	}

	if req.Title == "" {
		return fmt.Errorf("%w: title required", domain.ErrInvalidInput)
	}

	if _, err := time.Parse(timerDateLayout, req.Date); err != nil {
		return fmt.Errorf("%w: date must be DD.MM.YYYY", domain.ErrInvalidInput)
	}

	if !clockRe.MatchString(req.StartTime) {
		return fmt.Errorf("%w: start time must be HH:MM", domain.ErrInvalidInput)
	}

	if !clockRe.MatchString(req.EndTime) {
		return fmt.Errorf("%w: end time must be HH:MM", domain.ErrInvalidInput)
	}

	if req.Priority < 0 || req.Priority > 100 {
		return fmt.Errorf("%w: priority must be between 0 and 100", domain.ErrInvalidInput)
	}

	if req.MarginStart < 0 || req.MarginEnd < 0 {
		return fmt.Errorf("%w: margins must not be negative", domain.ErrInvalidInput)
	}

	return nil
}
