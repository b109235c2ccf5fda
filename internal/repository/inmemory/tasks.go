package inmemory

import (
	"context"
	"sort"
	"strings"
	"time"

	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/task"
	repo "taskBoard/internal/repository"

	"github.com/google/uuid"
)

// withTags возвращает копию задачи с подставленными метками
func (st *state) withTags(t *task.Task) *task.Task {
	c := t.Clone()
	ids := st.taskTags[t.ID]
	c.Tags = make([]task.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := st.tags[id]; ok {
			c.Tags = append(c.Tags, *tag)
		}
	}
	return c
}

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.tasks[t.ID]; ok {
		return repo.ErrDuplicate
	}
	if _, ok := s.st.boards[t.BoardID]; !ok {
		return repo.ErrNotFound
	}
	c := t.Clone()
	c.Tags = nil
	s.st.tasks[t.ID] = c
	s.st.taskIDs = append(s.st.taskIDs, t.ID)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.st.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return s.st.withTags(t), nil
}

// UpdateTask записывает поля задачи; метки меняются только через SetTaskTags
func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.tasks[t.ID]; !ok {
		return repo.ErrNotFound
	}
	if _, ok := s.st.boards[t.BoardID]; !ok {
		return repo.ErrNotFound
	}
	c := t.Clone()
	c.Tags = nil
	s.st.tasks[t.ID] = c
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.tasks[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.st.tasks, id)
	delete(s.st.taskTags, id)
	s.st.taskIDs = removeID(s.st.taskIDs, id)
	return nil
}

func (s *Storage) ListTasks(ctx context.Context, f task.Filter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var boards map[uuid.UUID]struct{}
	if f.BoardIDs != nil {
		boards = make(map[uuid.UUID]struct{}, len(f.BoardIDs))
		for _, id := range f.BoardIDs {
			boards[id] = struct{}{}
		}
	}
	search := strings.ToLower(f.Search)

	matched := []*task.Task{}
	for _, id := range s.st.taskIDs {
		t := s.st.tasks[id]
		if boards != nil {
			if _, ok := boards[t.BoardID]; !ok {
				continue
			}
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		matched = append(matched, t)
	}

	sortTasks(matched, f.Sort)

	offset := f.Offset()
	if offset >= len(matched) {
		return []*task.Task{}, nil
	}
	matched = matched[offset:]
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	res := make([]*task.Task, 0, len(matched))
	for _, t := range matched {
		res = append(res, s.st.withTags(t))
	}
	return res, nil
}

// sortTasks повторяет порядок postgres-реализации: срок по возрастанию
// с пустыми в конце, приоритет от urgent к low, иначе новые первыми
func sortTasks(tasks []*task.Task, field task.SortField) {
	newerFirst := func(a, b *task.Task) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}

	var less func(a, b *task.Task) bool
	switch field {
	case task.SortDueDate:
		less = func(a, b *task.Task) bool {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return newerFirst(a, b)
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			case !a.DueDate.Equal(*b.DueDate):
				return a.DueDate.Before(*b.DueDate)
			}
			return newerFirst(a, b)
		}
	case task.SortPriority:
		less = func(a, b *task.Task) bool {
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() < b.Priority.Rank()
			}
			return newerFirst(a, b)
		}
	default:
		less = newerFirst
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j])
	})
}

func (s *Storage) ListOverdueTasks(ctx context.Context, now time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var overdue []*task.Task
	for _, id := range s.st.taskIDs {
		t := s.st.tasks[id]
		if t.IsOverdueAt(now) {
			overdue = append(overdue, t)
		}
	}
	sortTasks(overdue, task.SortDueDate)
	if limit > 0 && len(overdue) > limit {
		overdue = overdue[:limit]
	}

	res := make([]*task.Task, 0, len(overdue))
	for _, t := range overdue {
		res = append(res, s.st.withTags(t))
	}
	return res, nil
}

func (s *Storage) CountTasks(ctx context.Context) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.st.tasks), nil
}

func (s *Storage) GetOrCreateTag(ctx context.Context, name string) (*task.Tag, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if id, ok := s.st.tagIDs[name]; ok {
		tag := *s.st.tags[id]
		return &tag, nil
	}
	tag := &task.Tag{ID: uuid.New(), Name: name, Color: task.DefaultTagColor}
	s.st.tags[tag.ID] = tag
	s.st.tagIDs[name] = tag.ID
	c := *tag
	return &c, nil
}

func (s *Storage) SetTaskTags(ctx context.Context, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.tasks[taskID]; !ok {
		return repo.ErrNotFound
	}
	if len(tagIDs) == 0 {
		delete(s.st.taskTags, taskID)
		return nil
	}
	s.st.taskTags[taskID] = append([]uuid.UUID(nil), tagIDs...)
	return nil
}

func (s *Storage) ListTags(ctx context.Context) ([]*task.Tag, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Tag, 0, len(s.st.tags))
	for _, tag := range s.st.tags {
		c := *tag
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (s *Storage) AppendAudit(ctx context.Context, e *audit.Entry) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	c := *e
	s.st.audits = append(s.st.audits, &c)
	return nil
}

// ListAuditByTask - в порядке записи
func (s *Storage) ListAuditByTask(ctx context.Context, taskID uuid.UUID) ([]*audit.Entry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*audit.Entry{}
	for _, e := range s.st.audits {
		if e.TaskID == taskID {
			c := *e
			res = append(res, &c)
		}
	}
	return res, nil
}
