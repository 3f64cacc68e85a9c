package services

import (
	"testing"

	"github.com/smetzlaff/epgrec/internal/domain"
)

func TestTaskMatcher_Matches(t *testing.T) {
	m := NewTaskMatcher(testLogger())

	tests := []struct {
		name     string
		program  domain.Program
		task     domain.Task
		expected bool
	}{
		{
			name:     "title_contains matches substring case-insensitively",
			program:  domain.Program{Title: "ARD Tatort: Der Fall", Genre: "Krimi"},
			task:     domain.Task{Type: domain.TaskTitleContains, Criteria: domain.TaskCriteria{Value: "tatort"}},
			expected: true,
		},
		{
			name:     "title_contains does not match unrelated title",
			program:  domain.Program{Title: "Tagesschau", Genre: "Nachrichten"},
			task:     domain.Task{Type: domain.TaskTitleContains, Criteria: domain.TaskCriteria{Value: "Tatort"}},
			expected: false,
		},
		{
			name:     "title_exact requires full equality",
			program:  domain.Program{Title: "Tatort: Der Fall"},
			task:     domain.Task{Type: domain.TaskTitleExact, Criteria: domain.TaskCriteria{Value: "tatort: der fall"}},
			expected: true,
		},
		{
			name:     "title_exact rejects substring",
			program:  domain.Program{Title: "ARD Tatort: Der Fall"},
			task:     domain.Task{Type: domain.TaskTitleExact, Criteria: domain.TaskCriteria{Value: "Tatort: Der Fall"}},
			expected: false,
		},
		{
			name:     "genre matches substring",
			program:  domain.Program{Title: "Irgendwas", Genre: "Krimi-Serie"},
			task:     domain.Task{Type: domain.TaskGenre, Criteria: domain.TaskCriteria{Value: "krimi"}},
			expected: true,
		},
		{
			name:     "title_and_genre requires both",
			program:  domain.Program{Title: "Tatort: Kiel", Genre: "Krimi"},
			task:     domain.Task{Type: domain.TaskTitleAndGenre, Criteria: domain.TaskCriteria{Title: "Tatort", Genre: "Krimi"}},
			expected: true,
		},
		{
			name:     "title_and_genre fails on genre mismatch",
			program:  domain.Program{Title: "Tatort: Kiel", Genre: "Doku"},
			task:     domain.Task{Type: domain.TaskTitleAndGenre, Criteria: domain.TaskCriteria{Title: "Tatort", Genre: "Krimi"}},
			expected: false,
		},
		{
			name:     "regex matches anchored pattern",
			program:  domain.Program{Title: "Tatort: X"},
			task:     domain.Task{Type: domain.TaskRegex, Criteria: domain.TaskCriteria{Value: "^(Tatort|Polizeiruf).*"}},
			expected: true,
		},
		{
			name: "regex anchor rejects prefix mismatch",
			// The anchored pattern must not match a title that merely
			// contains the word later on.
			program:  domain.Program{Title: "Die Tatortreinigung"},
			task:     domain.Task{Type: domain.TaskRegex, Criteria: domain.TaskCriteria{Value: "^(Tatort|Polizeiruf).*"}},
			expected: false,
		},
		{
			name:     "regex is case-insensitive",
			program:  domain.Program{Title: "tatort: nachtsicht"},
			task:     domain.Task{Type: domain.TaskRegex, Criteria: domain.TaskCriteria{Value: "^Tatort"}},
			expected: true,
		},
		{
			name:     "invalid regex never matches and never panics",
			program:  domain.Program{Title: "Tatort: X"},
			task:     domain.Task{Type: domain.TaskRegex, Criteria: domain.TaskCriteria{Value: "("}},
			expected: false,
		},
		{
			name:     "unknown type is a non-match",
			program:  domain.Program{Title: "Tatort: X"},
			task:     domain.Task{Type: "bogus", Criteria: domain.TaskCriteria{Value: "Tatort"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Matches(tt.program, tt.task); got != tt.expected {
				t.Fatalf("Matches() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
