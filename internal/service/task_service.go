package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"taskBoard/internal/access"
	"taskBoard/internal/auditlog"
	"taskBoard/internal/logger"
	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService - жизненный цикл задач: проверка прав, запись, журнал.
// Каждая мутация вместе с журналом выполняется в одной транзакции.
type TaskService struct {
	store    Store
	recorder *auditlog.Recorder
	now      func() time.Time
}

func NewTaskService(store Store, opts ...Option) *TaskService {
	o := buildOptions(opts)
	return &TaskService{
		store:    store,
		recorder: o.recorder,
		now:      o.now,
	}
}

type TaskInput struct {
	Title                  string        `json:"title" validate:"required,max=200"`
	Description            string        `json:"description"`
	DueDate                *time.Time    `json:"due_date"`
	Priority               task.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status                 task.Status   `json:"status" validate:"omitempty,oneof=pending in_progress completed archived"`
	Tags                   []string      `json:"tags"`
	AIGeneratedDescription bool          `json:"ai_generated_description"`
}

// TaskQuery - параметры списка задач. BoardID == nil - все видимые доски.
type TaskQuery struct {
	BoardID  *uuid.UUID
	Status   task.Status
	Priority task.Priority
	Search   string
	Sort     task.SortField
	Page     int
	Limit    int
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *TaskService) CreateTask(ctx context.Context, actor user.Actor, boardID uuid.UUID, in TaskInput) (*task.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	t := &task.Task{
		ID:                     uuid.New(),
		BoardID:                boardID,
		UserID:                 actor.ID,
		Title:                  in.Title,
		Description:            in.Description,
		DueDate:                in.DueDate,
		Priority:               in.Priority,
		Status:                 in.Status,
		CreatedAt:              now,
		UpdatedAt:              now,
		AIGeneratedDescription: in.AIGeneratedDescription,
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if t.Status == "" {
		t.Status = task.StatusPending
	}
	t.CompletedAt = task.CompletedAtFor(task.StatusPending, t.Status, nil, now)
	names := task.NormalizeTagNames(in.Tags)
	if err := validateTagNames(names); err != nil {
		return nil, err
	}

	err := s.store.InTx(ctx, func(repo Repository) error {
		b, err := loadBoard(ctx, repo, boardID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Edit, b, actor); err != nil {
			return err
		}

		if err := repo.CreateTask(ctx, t); err != nil {
			return fmt.Errorf("создание задачи: %w", err)
		}
		if len(names) > 0 {
			tags, err := s.applyTags(ctx, repo, t.ID, names)
			if err != nil {
				return err
			}
			t.Tags = tags
		}

		return s.recorder.RecordCreation(ctx, repo, t, actor)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", t.ID.String()),
		zap.String("board_id", boardID.String()))
	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error) {
	t, err := loadTask(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	b, err := loadBoard(ctx, s.store, t.BoardID)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(ctx, s.store, access.View, b, actor); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask применяет опции к копии задачи и записывает результат.
// Если ни одно поле не изменилось, запись и журнал пропускаются.
func (s *TaskService) UpdateTask(ctx context.Context, actor user.Actor, id uuid.UUID, opts ...task.TaskOption) (*task.Task, error) {
	var updated *task.Task

	err := s.store.InTx(ctx, func(repo Repository) error {
		current, err := loadTask(ctx, repo, id)
		if err != nil {
			return err
		}
		b, err := loadBoard(ctx, repo, current.BoardID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Edit, b, actor); err != nil {
			return err
		}

		next := current.Clone()
		for _, opt := range opts {
			if opt != nil {
				opt(next)
			}
		}
		next.ID, next.UserID, next.CreatedAt = current.ID, current.UserID, current.CreatedAt

		if err := validateTask(next); err != nil {
			return err
		}
		if next.BoardID != current.BoardID {
			dest, err := loadBoard(ctx, repo, next.BoardID)
			if err != nil {
				return err
			}
			if err := requireCapability(ctx, repo, access.Edit, dest, actor); err != nil {
				return err
			}
		}
		if !task.CanTransition(current.Status, next.Status) {
			return NewInvalidTransition(current.Status, next.Status)
		}

		now := s.now()
		next.CompletedAt = task.CompletedAtFor(current.Status, next.Status, current.CompletedAt, now)

		before, after := auditlog.SnapshotOf(current), auditlog.SnapshotOf(next)
		names := task.NormalizeTagNames(next.TagNames())
		if err := validateTagNames(names); err != nil {
			return err
		}
		tagsChanged := !slices.Equal(current.TagNames(), names)

		if len(auditlog.Diff(before, after)) == 0 && !tagsChanged &&
			next.BoardID == current.BoardID &&
			next.AIGeneratedDescription == current.AIGeneratedDescription {
			updated = current
			return nil
		}

		next.UpdatedAt = now
		next.Tags = current.Tags
		if err := repo.UpdateTask(ctx, next); err != nil {
			return fmt.Errorf("обновление задачи: %w", err)
		}
		if tagsChanged {
			tags, err := s.applyTags(ctx, repo, next.ID, names)
			if err != nil {
				return err
			}
			next.Tags = tags
		}

		if _, err := s.recorder.RecordFieldChanges(ctx, repo, before, after, next, actor); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask пишет запись deleted до удаления: журнал переживает задачу
func (s *TaskService) DeleteTask(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	return s.store.InTx(ctx, func(repo Repository) error {
		t, err := loadTask(ctx, repo, id)
		if err != nil {
			return err
		}
		b, err := loadBoard(ctx, repo, t.BoardID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Delete, b, actor); err != nil {
			return err
		}

		if err := s.recorder.RecordDeletion(ctx, repo, t, actor); err != nil {
			return err
		}
		if err := repo.DeleteTask(ctx, t.ID); err != nil {
			return fmt.Errorf("удаление задачи: %w", err)
		}
		logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
		return nil
	})
}

func (s *TaskService) ArchiveTask(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error) {
	var archived *task.Task

	err := s.store.InTx(ctx, func(repo Repository) error {
		current, err := loadTask(ctx, repo, id)
		if err != nil {
			return err
		}
		b, err := loadBoard(ctx, repo, current.BoardID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Edit, b, actor); err != nil {
			return err
		}
		if current.Status == task.StatusArchived {
			return NewBusinessError(CodeAlreadyArchived, "Задача уже в архиве",
				ToDetail("task_id", id.String()))
		}

		now := s.now()
		next := current.Clone()
		next.Status = task.StatusArchived
		next.CompletedAt = task.CompletedAtFor(current.Status, task.StatusArchived, current.CompletedAt, now)
		next.UpdatedAt = now

		if err := repo.UpdateTask(ctx, next); err != nil {
			return fmt.Errorf("архивация задачи: %w", err)
		}
		if err := s.recorder.RecordArchive(ctx, repo, next, actor); err != nil {
			return err
		}
		archived = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}

// ToggleComplete переключает completed <-> pending
func (s *TaskService) ToggleComplete(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error) {
	var toggled *task.Task

	err := s.store.InTx(ctx, func(repo Repository) error {
		current, err := loadTask(ctx, repo, id)
		if err != nil {
			return err
		}
		b, err := loadBoard(ctx, repo, current.BoardID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Edit, b, actor); err != nil {
			return err
		}

		to := task.StatusCompleted
		if current.Status == task.StatusCompleted {
			to = task.StatusPending
		}
		if !task.CanTransition(current.Status, to) {
			return NewInvalidTransition(current.Status, to)
		}

		now := s.now()
		next := current.Clone()
		next.Status = to
		next.CompletedAt = task.CompletedAtFor(current.Status, to, current.CompletedAt, now)
		next.UpdatedAt = now

		if err := repo.UpdateTask(ctx, next); err != nil {
			return fmt.Errorf("обновление статуса: %w", err)
		}
		if _, err := s.recorder.RecordFieldChanges(ctx, repo, auditlog.SnapshotOf(current), auditlog.SnapshotOf(next), next, actor); err != nil {
			return err
		}
		if to == task.StatusCompleted {
			if err := s.recorder.RecordCompletion(ctx, repo, next, actor); err != nil {
				return err
			}
		}
		toggled = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

func (s *TaskService) ListTasks(ctx context.Context, actor user.Actor, q TaskQuery) ([]*task.Task, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, NewValidationError("status", "unknown status")
	}
	if q.Priority != "" && !q.Priority.Valid() {
		return nil, NewValidationError("priority", "unknown priority")
	}
	switch q.Sort {
	case "", task.SortCreatedAt, task.SortDueDate, task.SortPriority:
	default:
		return nil, NewValidationError("sort", "unknown sort field")
	}

	f := task.Filter{
		Status:   q.Status,
		Priority: q.Priority,
		Search:   strings.TrimSpace(q.Search),
		Sort:     q.Sort,
	}
	f.Page, f.Limit = normalizePage(q.Page, q.Limit)

	if q.BoardID != nil {
		b, err := loadBoard(ctx, s.store, *q.BoardID)
		if err != nil {
			return nil, err
		}
		if err := requireCapability(ctx, s.store, access.View, b, actor); err != nil {
			return nil, err
		}
		f.BoardIDs = []uuid.UUID{b.ID}
	} else {
		ids, err := s.visibleBoardIDs(ctx, actor)
		if err != nil {
			return nil, err
		}
		f.BoardIDs = ids
	}

	tasks, err := s.store.ListTasks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// Stats считает сводку по задачам всех досок, видимых пользователю
func (s *TaskService) Stats(ctx context.Context, actor user.Actor) (task.Stats, error) {
	ids, err := s.visibleBoardIDs(ctx, actor)
	if err != nil {
		return task.Stats{}, err
	}
	tasks, err := s.store.ListTasks(ctx, task.Filter{BoardIDs: ids})
	if err != nil {
		return task.Stats{}, fmt.Errorf("получение задач: %w", err)
	}
	return task.Summarize(tasks, s.now()), nil
}

// ListTags - справочник меток; метки общие для всех досок
func (s *TaskService) ListTags(ctx context.Context, actor user.Actor) ([]*task.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение меток: %w", err)
	}
	return tags, nil
}

// visibleBoardIDs никогда не возвращает nil: пустой срез отсекает все задачи
func (s *TaskService) visibleBoardIDs(ctx context.Context, actor user.Actor) ([]uuid.UUID, error) {
	boards, err := visibleBoards(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(boards))
	for _, b := range boards {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

// History возвращает журнал задачи в порядке записи.
// Журнал удалённой задачи доступен только админу.
func (s *TaskService) History(ctx context.Context, actor user.Actor, id uuid.UUID) ([]*audit.Entry, error) {
	t, err := loadTask(ctx, s.store, id)
	switch {
	case err != nil && IsNotFound(err) && actor.IsAdmin:
	case err != nil:
		return nil, err
	default:
		b, err := loadBoard(ctx, s.store, t.BoardID)
		if err != nil {
			return nil, err
		}
		if err := requireCapability(ctx, s.store, access.View, b, actor); err != nil {
			return nil, err
		}
	}

	entries, err := s.store.ListAuditByTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение журнала: %w", err)
	}
	if len(entries) == 0 && t == nil {
		return nil, NewNotFound(ResourceTask, id)
	}
	return entries, nil
}

// applyTags находит или создаёт метки по именам и заменяет ими набор меток задачи.
// Пустой список снимает все метки.
func (s *TaskService) applyTags(ctx context.Context, repo Repository, taskID uuid.UUID, names []string) ([]task.Tag, error) {
	tags := make([]task.Tag, 0, len(names))
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		tag, err := repo.GetOrCreateTag(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("метка %q: %w", name, err)
		}
		tags = append(tags, *tag)
		ids = append(ids, tag.ID)
	}
	if err := repo.SetTaskTags(ctx, taskID, ids); err != nil {
		return nil, fmt.Errorf("привязка меток: %w", err)
	}
	return tags, nil
}

func validateTagNames(names []string) error {
	for _, name := range names {
		if utf8.RuneCountInString(name) > task.MaxTagLength {
			return NewValidationError("tags", "max")
		}
	}
	return nil
}

func validateTask(t *task.Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return NewValidationError("title", "required")
	}
	if utf8.RuneCountInString(t.Title) > task.MaxTitleLength {
		return NewValidationError("title", "max")
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "oneof")
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "oneof")
	}
	return nil
}
