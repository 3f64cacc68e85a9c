package domain

import "time"

// Channel maps a guide channel to the recording appliance's DVB id.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	DVBID    string `json:"dvbId"`
	Category string `json:"category"`
}

// Program represents one EPG listing entry scraped from the guide site.
// BroadcastID is assigned by the upstream site and is only unique within
// one (channel, day) fetch.
type Program struct {
	BroadcastID string
	ChannelID   string
	Day         int // day offset relative to "today" at fetch time, 0 = today
	Time        string
	Title       string
	Genre       string
	EndTime     string
	DetailURL   string
}

// EPGPage is the result of one listing fetch. Programs reflect exactly one
// HTML response in document order; pages are never merged across fetches.
type EPGPage struct {
	ChannelID   string
	ChannelName string
	Day         int
	Programs    []Program
	LastUpdated time.Time
}

// ProgramDetails holds the best-effort extraction from a detail page.
// Any field may be empty when the upstream markup doesn't match.
type ProgramDetails struct {
	Date           string
	Time           string
	ChannelName    string
	Title          string
	Description    string
	AdditionalInfo string
}

// TaskType selects how a task's criteria are matched against a program.
type TaskType string

const (
	TaskTitleContains TaskType = "title_contains"
	TaskTitleExact    TaskType = "title_exact"
	TaskGenre         TaskType = "genre"
	TaskTitleAndGenre TaskType = "title_and_genre"
	TaskRegex         TaskType = "regex"
)

// TaskTypes lists all supported match types.
func TaskTypes() []TaskType {
	return []TaskType{TaskTitleContains, TaskTitleExact, TaskGenre, TaskTitleAndGenre, TaskRegex}
}

// TaskCriteria carries the match criteria. Value is used by all types
// except title_and_genre, which uses the Title/Genre pair.
type TaskCriteria struct {
	Value string `json:"value,omitempty"`
	Title string `json:"title,omitempty"`
	Genre string `json:"genre,omitempty"`
}

// Task is a persisted recording rule evaluated against EPG programs.
type Task struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Type            TaskType     `json:"type"`
	Criteria        TaskCriteria `json:"criteria"`
	Channels        []string     `json:"channels"` // empty = all known channels
	Days            []int        `json:"days"`     // empty = default lookahead window
	Active          bool         `json:"active"`
	Priority        int          `json:"priority"` // 0-100
	MarginStart     int          `json:"marginStart"`
	MarginEnd       int          `json:"marginEnd"`
	Folder          string       `json:"folder"`
	Series          string       `json:"series"`
	DefaultDuration int          `json:"defaultDuration"` // minutes, used when a match has no end time
	CreatedAt       time.Time    `json:"createdAt"`
	LastRun         *time.Time   `json:"lastRun"`
	MatchCount      int          `json:"matchCount"`
	TimerCount      int          `json:"timerCount"`
}

// TimerRequest is a normalized recording instruction, independent of the
// appliance's query-string wire format.
type TimerRequest struct {
	ChannelID   string `json:"channelId"`
	Title       string `json:"title"`
	Date        string `json:"date"` // DD.MM.YYYY
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	MarginStart int    `json:"marginStart"`
	MarginEnd   int    `json:"marginEnd"`
	Folder      string `json:"folder"`
	Priority    int    `json:"priority"`
	Series      string `json:"series"`
}

// Match is a program annotated with the task that selected it. Matches are
// produced during one scheduler pass and consumed immediately.
type Match struct {
	Program  Program
	TaskID   string
	TaskName string
}
