package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smetzlaff/epgrec/internal/domain"
	"github.com/smetzlaff/epgrec/internal/ports"
)

func TestCalculateEndTime(t *testing.T) {
	tests := []struct {
		start    string
		duration int
		expected string
	}{
		{"20:15", 120, "22:15"},
		{"23:30", 90, "01:00"}, // wraps past midnight, date stays the same
		{"00:00", 1440, "00:00"},
		{"12:00", 0, "12:00"},
		{"22:45", 30, "23:15"},
	}

	for _, tt := range tests {
		got, err := CalculateEndTime(tt.start, tt.duration)
		if err != nil {
			t.Fatalf("CalculateEndTime(%q, %d): %v", tt.start, tt.duration, err)
		}
		if got != tt.expected {
			t.Fatalf("CalculateEndTime(%q, %d) = %q, expected %q", tt.start, tt.duration, got, tt.expected)
		}
	}
}

func TestCalculateEndTime_BadStart(t *testing.T) {
	if _, err := CalculateEndTime("25:99", 30); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestTimerFromMatch_UsesTaskDefaults(t *testing.T) {
	svc := NewTimerService(&ports.MockRecorderClient{}, testLogger())

	match := domain.Match{
		Program: domain.Program{
			ChannelID: "37",
			Day:       0,
			Time:      "20:15",
			Title:     "Tatort: Der Tod und das Mädchen",
			Genre:     "Krimi",
		},
		TaskID:   "1",
		TaskName: "Tatort Test",
	}
	task := domain.Task{
		ID:              "1",
		Name:            "Tatort Test",
		Priority:        50,
		Folder:          "Auto",
		DefaultDuration: 120,
	}

	today := time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local)
	req, err := svc.TimerFromMatch(match, task, today)
	if err != nil {
		t.Fatalf("TimerFromMatch: %v", err)
	}

	if req.Date != "01.09.2026" {
		t.Fatalf("expected date 01.09.2026, got %q", req.Date)
	}
	if req.StartTime != "20:15" {
		t.Fatalf("expected start 20:15, got %q", req.StartTime)
	}
	if req.EndTime != "22:15" {
		t.Fatalf("expected end 22:15 from default duration, got %q", req.EndTime)
	}
	if req.Folder != "Auto" || req.Priority != 50 {
		t.Fatalf("expected folder/priority from task, got %q/%d", req.Folder, req.Priority)
	}
}

func TestTimerFromMatch_DayOffsetMovesDate(t *testing.T) {
	svc := NewTimerService(&ports.MockRecorderClient{}, testLogger())

	match := domain.Match{
		Program: domain.Program{ChannelID: "37", Day: 2, Time: "20:15", Title: "X", EndTime: "21:45"},
	}

	today := time.Date(2026, 12, 30, 8, 0, 0, 0, time.Local)
	req, err := svc.TimerFromMatch(match, domain.Task{}, today)
	if err != nil {
		t.Fatalf("TimerFromMatch: %v", err)
	}

	if req.Date != "01.01.2027" {
		t.Fatalf("expected year rollover to 01.01.2027, got %q", req.Date)
	}
	if req.EndTime != "21:45" {
		t.Fatalf("expected explicit end time to win, got %q", req.EndTime)
	}
}

func TestCreateTimer_RejectsInvalidRequests(t *testing.T) {
	recorder := &ports.MockRecorderClient{}
	svc := NewTimerService(recorder, testLogger())
	ctx := context.Background()

	valid := domain.TimerRequest{
		ChannelID: "37",
		Title:     "Tatort",
		Date:      "01.09.2026",
		StartTime: "20:15",
		EndTime:   "22:15",
		Priority:  50,
	}

	bad := []func(r *domain.TimerRequest){
		func(r *domain.TimerRequest) { r.ChannelID = "" },
		func(r *domain.TimerRequest) { r.Title = "" },
		func(r *domain.TimerRequest) { r.Date = "2026-09-01" },
		func(r *domain.TimerRequest) { r.StartTime = "20.15" },
		func(r *domain.TimerRequest) { r.EndTime = "24:00" },
		func(r *domain.TimerRequest) { r.Priority = 101 },
		func(r *domain.TimerRequest) { r.MarginStart = -1 },
	}

	for i, mutate := range bad {
		req := valid
		mutate(&req)
		if err := svc.CreateTimer(ctx, &req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("case %d: expected invalid input error, got %v", i, err)
		}
	}

	if got := atomic.LoadInt32(&recorder.CreateCalls); got != 0 {
		t.Fatalf("expected no recorder calls for invalid requests, got %d", got)
	}

	if err := svc.CreateTimer(ctx, &valid); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if got := atomic.LoadInt32(&recorder.CreateCalls); got != 1 {
		t.Fatalf("expected 1 recorder call, got %d", got)
	}
}
