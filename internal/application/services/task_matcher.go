package services

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// TaskMatcher evaluates tasks against programs. Task definitions come from
// user-edited JSON, so every malformed input degrades to a non-match
// instead of an error.
type TaskMatcher struct {
	logger *slog.Logger
}

// NewTaskMatcher creates a new task matcher
func NewTaskMatcher(logger *slog.Logger) *TaskMatcher {
	return &TaskMatcher{logger: logger}
}

// Matches reports whether a program satisfies a task's criteria.
func (m *TaskMatcher) Matches(program domain.Program, task domain.Task) bool {
	switch task.Type {
	case domain.TaskTitleContains:
		return containsFold(program.Title, task.Criteria.Value)

	case domain.TaskTitleExact:
		return strings.EqualFold(program.Title, task.Criteria.Value)

	case domain.TaskGenre:
		return containsFold(program.Genre, task.Criteria.Value)

	case domain.TaskTitleAndGenre:
		return containsFold(program.Title, task.Criteria.Title) &&
			containsFold(program.Genre, task.Criteria.Genre)

	case domain.TaskRegex:
		re, err := regexp.Compile("(?i)" + task.Criteria.Value)
		if err != nil {
			m.logger.Warn("task has invalid regex criteria",
				slog.String("task", task.ID),
				slog.String("pattern", task.Criteria.Value),
				slog.Any("error", err),
			)
			return false
		}
		return re.MatchString(program.Title)

	default:
		// Unknown types are tolerated so a hand-edited task file can never
		// crash the scheduler.
		return false
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
