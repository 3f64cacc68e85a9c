package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// TaskRepository is the slice of the task store the scheduler needs.
type TaskRepository interface {
	ListActive() ([]domain.Task, error)
	Get(id string) (domain.Task, error)
	RecordRun(id string, matches, timers int) error
}

// AuditSink receives one human-readable line per significant event.
type AuditSink interface {
	Logf(format string, args ...any)
}

// SchedulerOptions configures cron specs, the lookahead window and the
// pacing applied to the guide site and the appliance.
type SchedulerOptions struct {
	DailySpec     string
	HourlySpec    string
	CleanupSpec   string
	LookaheadDays int
	FetchDelay    time.Duration
	TimerDelay    time.Duration
}

// SchedulerStatus describes the scheduler for the status endpoint.
type SchedulerStatus struct {
	Running     bool       `json:"running"`
	NextDaily   *time.Time `json:"nextDaily,omitempty"`
	NextHourly  *time.Time `json:"nextHourly,omitempty"`
	NextCleanup *time.Time `json:"nextCleanup,omitempty"`
}

// TaskScheduler owns the cron triggers and runs the daily task-matching
// pass. Only the scheduled daily pass is gated against itself; a manual
// ExecuteTaskNow can run concurrently with it, matching the behavior the
// dashboard has always had.
type TaskScheduler struct {
	epg      *EPGService
	timers   *TimerService
	matcher  *TaskMatcher
	tasks    TaskRepository
	channels ChannelDirectory
	audit    AuditSink
	logger   *slog.Logger
	opts     SchedulerOptions

	cron         *cron.Cron
	dailyEntry   cron.EntryID
	hourlyEntry  cron.EntryID
	cleanupEntry cron.EntryID

	running      atomic.Bool
	fetchLimiter *rate.Limiter
	timerLimiter *rate.Limiter
	now          func() time.Time
}

// NewTaskScheduler creates a new task scheduler
func NewTaskScheduler(epg *EPGService, timers *TimerService, matcher *TaskMatcher, tasks TaskRepository, channels ChannelDirectory, audit AuditSink, logger *slog.Logger, opts SchedulerOptions) *TaskScheduler {
	if opts.LookaheadDays <= 0 {
		opts.LookaheadDays = 3
	}

	return &TaskScheduler{
		epg:          epg,
		timers:       timers,
		matcher:      matcher,
		tasks:        tasks,
		channels:     channels,
		audit:        audit,
		logger:       logger,
		opts:         opts,
		cron:         cron.New(),
		fetchLimiter: rate.NewLimiter(rate.Every(opts.FetchDelay), 1),
		timerLimiter: rate.NewLimiter(rate.Every(opts.TimerDelay), 1),
		now:          time.Now,
	}
}

// Start registers the cron triggers and starts the cron loop.
func (s *TaskScheduler) Start() error {
	var err error

	s.dailyEntry, err = s.cron.AddFunc(s.opts.DailySpec, func() {
		s.RunDailyPass(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid daily cron spec %q: %w", s.opts.DailySpec, err)
	}

	s.hourlyEntry, err = s.cron.AddFunc(s.opts.HourlySpec, s.hourlyCheck)
	if err != nil {
		return fmt.Errorf("invalid hourly cron spec %q: %w", s.opts.HourlySpec, err)
	}

	s.cleanupEntry, err = s.cron.AddFunc(s.opts.CleanupSpec, s.RunCleanup)
	if err != nil {
		return fmt.Errorf("invalid cleanup cron spec %q: %w", s.opts.CleanupSpec, err)
	}

	s.cron.Start()
	s.logger.Info("task scheduler started",
		slog.String("daily", s.opts.DailySpec),
		slog.String("hourly", s.opts.HourlySpec),
		slog.String("cleanup", s.opts.CleanupSpec),
	)
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *TaskScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("task scheduler stopped")
}

// Status reports the running flag and the next trigger times.
func (s *TaskScheduler) Status() SchedulerStatus {
	status := SchedulerStatus{Running: s.running.Load()}

	if e := s.cron.Entry(s.dailyEntry); e.Valid() {
		next := e.Next
		status.NextDaily = &next
	}
	if e := s.cron.Entry(s.hourlyEntry); e.Valid() {
		next := e.Next
		status.NextHourly = &next
	}
	if e := s.cron.Entry(s.cleanupEntry); e.Valid() {
		next := e.Next
		status.NextCleanup = &next
	}

	return status
}

// RunDailyPass executes the daily task-matching pass. At most one pass runs
// at a time; a trigger arriving while one is running is dropped, not
// queued. Returns false when the pass was skipped for that reason.
func (s *TaskScheduler) RunDailyPass(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Info("daily pass already running, skipping trigger")
		return false
	}

	defer func() {
		// The flag must return to idle on every exit path, including a
		// panic somewhere in the pass.
		if r := recover(); r != nil {
			s.logger.Error("daily pass panicked", slog.Any("panic", r))
		}
		s.running.Store(false)
	}()

	s.logger.Info("daily pass starting")

	// Force fresh data for today's evaluation.
	s.epg.ClearCache()

	tasks, err := s.tasks.ListActive()
	if err != nil {
		s.logger.Error("daily pass: failed to load tasks", slog.Any("error", err))
		return true
	}
	if len(tasks) == 0 {
		s.logger.Info("daily pass: no active tasks")
		return true
	}

	totalMatches, totalTimers := 0, 0
	for _, task := range tasks {
		matches, timers := s.processTask(ctx, task)
		totalMatches += matches
		totalTimers += timers

		if err := s.tasks.RecordRun(task.ID, matches, timers); err != nil {
			s.logger.Warn("failed to record task run",
				slog.String("task", task.ID),
				slog.Any("error", err),
			)
		}
	}

	s.audit.Logf("daily pass complete: %d tasks, %d matches, %d timers created", len(tasks), totalMatches, totalTimers)
	s.logger.Info("daily pass complete",
		slog.Int("tasks", len(tasks)),
		slog.Int("matches", totalMatches),
		slog.Int("timers", totalTimers),
	)
	return true
}

// ExecuteTaskNow runs the matching/timer phase for one task immediately,
// independent of the daily-pass gate, and updates the task's statistics.
func (s *TaskScheduler) ExecuteTaskNow(ctx context.Context, taskID string) (int, int, error) {
	task, err := s.tasks.Get(taskID)
	if err != nil {
		return 0, 0, err
	}

	matches, timers := s.processTask(ctx, task)

	if err := s.tasks.RecordRun(task.ID, matches, timers); err != nil {
		return matches, timers, err
	}

	s.audit.Logf("task %q executed manually: %d matches, %d timers created", task.Name, matches, timers)
	return matches, timers, nil
}

// RunCleanup clears the EPG cache. The task list itself is left alone.
func (s *TaskScheduler) RunCleanup() {
	s.epg.ClearCache()
	s.audit.Logf("cleanup pass: EPG cache cleared")
}

// processTask sweeps the task's channel x day window, matches programs and
// creates timers for the matches. A failed fetch skips that pair only; a
// failed timer creation skips that match only.
func (s *TaskScheduler) processTask(ctx context.Context, task domain.Task) (int, int) {
	channels := task.Channels
	if len(channels) == 0 {
		channels = s.channels.IDs()
	}

	days := task.Days
	if len(days) == 0 {
		days = make([]int, s.opts.LookaheadDays)
		for i := range days {
			days[i] = i
		}
	}

	var matches []domain.Match
	for _, channelID := range channels {
		for _, day := range days {
			page, err := s.epg.GetEPG(ctx, channelID, day, "")
			if err != nil {
				s.logger.Warn("task sweep: fetch failed",
					slog.String("task", task.ID),
					slog.String("channel", channelID),
					slog.Int("day", day),
					slog.Any("error", err),
				)
			} else {
				for _, program := range page.Programs {
					if s.matcher.Matches(program, task) {
						matches = append(matches, domain.Match{
							Program:  program,
							TaskID:   task.ID,
							TaskName: task.Name,
						})
					}
				}
			}

			// Pace the guide site between channel/day pairs.
			if err := s.fetchLimiter.Wait(ctx); err != nil {
				return len(matches), 0
			}
		}
	}

	timers := 0
	today := s.now()
	for _, match := range matches {
		req, err := s.timers.TimerFromMatch(match, task, today)
		if err != nil {
			s.logger.Warn("task sweep: bad match",
				slog.String("task", task.ID),
				slog.String("title", match.Program.Title),
				slog.Any("error", err),
			)
			continue
		}

		if err := s.timers.CreateTimer(ctx, req); err != nil {
			s.logger.Warn("task sweep: timer creation failed",
				slog.String("task", task.ID),
				slog.String("title", req.Title),
				slog.Any("error", err),
			)
			continue
		}
		timers++
	}

	// Pace the appliance between tasks.
	if err := s.timerLimiter.Wait(ctx); err != nil {
		return len(matches), timers
	}

	return len(matches), timers
}

// hourlyCheck is a lightweight liveness trigger: it only reports status.
// Kept as a separate cron entry so a future placeholder-timer refresh has
// somewhere to live.
func (s *TaskScheduler) hourlyCheck() {
	s.logger.Debug("hourly check", slog.Bool("daily_pass_running", s.running.Load()))
}
