// Package storage implements the flat JSON-file persistence for tasks and
// the channel mapping. Files are read and written whole; there is no
// cross-process locking, which is an accepted limitation of this setup.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smetzlaff/epgrec/internal/domain"
)

// taskDocument is the on-disk shape: the task list plus the last assigned
// id, which drives monotonic id generation.
type taskDocument struct {
	Tasks  []domain.Task `json:"tasks"`
	LastID int           `json:"lastId"`
}

// TaskStore persists tasks in one JSON document.
type TaskStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewTaskStore creates a task store backed by the given file path.
func NewTaskStore(path string) *TaskStore {
	return &TaskStore{path: path, now: time.Now}
}

// Create validates the task, assigns the next id and persists it.
func (s *TaskStore) Create(task domain.Task) (domain.Task, error) {
	if err := validateTask(&task); err != nil {
		return domain.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return domain.Task{}, err
	}

	for _, existing := range doc.Tasks {
		if strings.EqualFold(existing.Name, task.Name) {
			return domain.Task{}, fmt.Errorf("%w: task name %q already exists", domain.ErrConflict, task.Name)
		}
	}

	doc.LastID++
	task.ID = strconv.Itoa(doc.LastID)
	task.CreatedAt = s.now()
	task.LastRun = nil
	task.MatchCount = 0
	task.TimerCount = 0

	doc.Tasks = append(doc.Tasks, task)
	if err := s.save(doc); err != nil {
		return domain.Task{}, err
	}

	return task, nil
}

// List returns all tasks in persisted order.
func (s *TaskStore) List() ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}

// ListActive returns the active tasks in persisted order.
func (s *TaskStore) ListActive() ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	active := make([]domain.Task, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

// Get returns the task with the given id.
func (s *TaskStore) Get(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return domain.Task{}, err
	}

	for _, t := range doc.Tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, fmt.Errorf("%w: task %s", domain.ErrNotFound, id)
}

// Update replaces the stored task with the same id. Id, creation time and
// run statistics are kept from the stored version.
func (s *TaskStore) Update(task domain.Task) (domain.Task, error) {
	if err := validateTask(&task); err != nil {
		return domain.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return domain.Task{}, err
	}

	for _, existing := range doc.Tasks {
		if existing.ID != task.ID && strings.EqualFold(existing.Name, task.Name) {
			return domain.Task{}, fmt.Errorf("%w: task name %q already exists", domain.ErrConflict, task.Name)
		}
	}

	for i, existing := range doc.Tasks {
		if existing.ID == task.ID {
			task.CreatedAt = existing.CreatedAt
			task.LastRun = existing.LastRun
			task.MatchCount = existing.MatchCount
			task.TimerCount = existing.TimerCount
			doc.Tasks[i] = task
			if err := s.save(doc); err != nil {
				return domain.Task{}, err
			}
			return task, nil
		}
	}

	return domain.Task{}, fmt.Errorf("%w: task %s", domain.ErrNotFound, task.ID)
}

// Delete removes a task.
func (s *TaskStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i, t := range doc.Tasks {
		if t.ID == id {
			doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
			return s.save(doc)
		}
	}
	return fmt.Errorf("%w: task %s", domain.ErrNotFound, id)
}

// Toggle flips a task's active flag and returns the updated task.
func (s *TaskStore) Toggle(id string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return domain.Task{}, err
	}

	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			doc.Tasks[i].Active = !doc.Tasks[i].Active
			if err := s.save(doc); err != nil {
				return domain.Task{}, err
			}
			return doc.Tasks[i], nil
		}
	}
	return domain.Task{}, fmt.Errorf("%w: task %s", domain.ErrNotFound, id)
}

// RecordRun updates a task's run statistics after a scheduler pass.
func (s *TaskStore) RecordRun(id string, matches, timers int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			ts := s.now()
			doc.Tasks[i].LastRun = &ts
			doc.Tasks[i].MatchCount += matches
			doc.Tasks[i].TimerCount += timers
			return s.save(doc)
		}
	}
	return fmt.Errorf("%w: task %s", domain.ErrNotFound, id)
}

func (s *TaskStore) load() (*taskDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &taskDocument{Tasks: []domain.Task{}}, nil
		}
		return nil, fmt.Errorf("failed to read task store: %w", err)
	}

	var doc taskDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse task store: %w", err)
	}
	if doc.Tasks == nil {
		doc.Tasks = []domain.Task{}
	}
	return &doc, nil
}

func (s *TaskStore) save(doc *taskDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write task store: %w", err)
	}
	return nil
}

func validateTask(task *domain.Task) error {
	if task.Name == "" {
		return fmt.Errorf("%w: task name required", domain.ErrInvalidInput)
	}

	valid := false
	for _, t := range domain.TaskTypes() {
		if task.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidInput, task.Type)
	}

	if task.Type == domain.TaskTitleAndGenre {
		if task.Criteria.Title == "" || task.Criteria.Genre == "" {
			return fmt.Errorf("%w: title_and_genre requires title and genre criteria", domain.ErrInvalidInput)
		}
	} else if task.Criteria.Value == "" {
		return fmt.Errorf("%w: criteria required", domain.ErrInvalidInput)
	}

	if task.Priority < 0 || task.Priority > 100 {
		return fmt.Errorf("%w: priority must be between 0 and 100", domain.ErrInvalidInput)
	}

	for _, day := range task.Days {
		if day < 0 {
			return fmt.Errorf("%w: day offsets must be >= 0", domain.ErrInvalidInput)
		}
	}

	return nil
}
