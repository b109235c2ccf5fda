package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskBoard/internal/access"
	"taskBoard/internal/auditlog"
	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/task"
	"taskBoard/internal/repository/inmemory"
	"taskBoard/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUpdateTask_WithoutAccess тестирует отказ в правке чужой задачи без доступа
func TestUpdateTask_WithoutAccess(t *testing.T) {
	e := newEnv(t)
	alice, aliceBoard := e.register(t, "alice")
	bob, _ := e.register(t, "bob")

	created := e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "Plan"})

	_, err := e.tasks.UpdateTask(e.ctx, bob, created.ID, task.WithTitle("Hijack"))
	require.Error(t, err)
	assert.True(t, service.IsAccessDenied(err, access.Edit))

	got, err := e.tasks.GetTask(e.ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan", got.Title)
	assert.Len(t, e.history(t, alice, created.ID), 1)
}

// TestUpdateTask_Complete тестирует завершение задачи через обновление статуса
func TestUpdateTask_Complete(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")

	yesterday := e.now.Add(-24 * time.Hour)
	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "Report", DueDate: &yesterday})
	assert.Equal(t, task.StatusPending, created.Status)
	assert.True(t, created.IsOverdueAt(e.now))

	e.now = e.now.Add(time.Hour)
	updated, err := e.tasks.UpdateTask(e.ctx, alice, created.ID, task.WithStatus(task.StatusCompleted))
	require.NoError(t, err)

	require.NotNil(t, updated.CompletedAt)
	assert.True(t, updated.CompletedAt.Equal(e.now))
	assert.False(t, updated.IsOverdueAt(e.now))

	entries := e.history(t, alice, created.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionCreated, entries[0].Action)
	assert.Equal(t, []string{auditlog.FieldStatus}, updatedFields(entries))
	assert.Equal(t, "pending", *entries[1].OldValue)
	assert.Equal(t, "completed", *entries[1].NewValue)
}

// TestGrantedEditor тестирует права участника с правкой, но без удаления
func TestGrantedEditor(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")
	bob, _ := e.register(t, "bob")

	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "Shared"})
	_, err := e.boards.GrantAccess(e.ctx, alice, boardID, bob.ID, board.Perms{CanEdit: true})
	require.NoError(t, err)

	updated, err := e.tasks.UpdateTask(e.ctx, bob, created.ID, task.WithTitle("Shared v2"))
	require.NoError(t, err)
	assert.Equal(t, "Shared v2", updated.Title)

	err = e.tasks.DeleteTask(e.ctx, bob, created.ID)
	require.Error(t, err)
	assert.True(t, service.IsAccessDenied(err, access.Delete))

	_, err = e.tasks.GetTask(e.ctx, bob, created.ID)
	assert.NoError(t, err)

	entries := e.history(t, alice, created.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, bob.ID, entries[1].UserID)
}

// TestArchiveTask тестирует архивацию просроченной задачи
func TestArchiveTask(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")

	yesterday := e.now.Add(-24 * time.Hour)
	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "Old", DueDate: &yesterday})
	assert.True(t, created.IsOverdueAt(e.now))

	archived, err := e.tasks.ArchiveTask(e.ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusArchived, archived.Status)
	assert.False(t, archived.IsOverdueAt(e.now))
	require.NotNil(t, archived.CompletedAt)

	_, err = e.tasks.ArchiveTask(e.ctx, alice, created.ID)
	assert.True(t, service.HasCode(err, service.CodeAlreadyArchived))

	_, err = e.tasks.UpdateTask(e.ctx, alice, created.ID, task.WithStatus(task.StatusPending))
	assert.True(t, service.HasCode(err, service.CodeInvalidTransition))

	_, err = e.tasks.ToggleComplete(e.ctx, alice, created.ID)
	assert.True(t, service.HasCode(err, service.CodeInvalidTransition))

	assert.Equal(t,
		[]audit.Action{audit.ActionCreated, audit.ActionArchived},
		actions(e.history(t, alice, created.ID)))
}

// TestUpdateTask_OnlyChangedFieldsAudited тестирует, что неизменённые поля не попадают в журнал
func TestUpdateTask_OnlyChangedFieldsAudited(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")
	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "Buy milk"})

	_, err := e.tasks.UpdateTask(e.ctx, alice, created.ID,
		task.WithTitle("Buy milk"),
		task.WithDescription("Get groceries"),
	)
	require.NoError(t, err)

	entries := e.history(t, alice, created.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{auditlog.FieldDescription}, updatedFields(entries))
	assert.Equal(t, "", *entries[1].OldValue)
	assert.Equal(t, "Get groceries", *entries[1].NewValue)
}

// TestUpdateTask_NoChanges тестирует пустое обновление
func TestUpdateTask_NoChanges(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")
	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "Same", Priority: task.PriorityHigh})

	e.now = e.now.Add(time.Minute)
	got, err := e.tasks.UpdateTask(e.ctx, alice, created.ID,
		task.WithTitle("  Same "),
		task.WithPriority(task.PriorityHigh),
		task.WithStatus(""),
	)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(created.UpdatedAt))
	assert.Len(t, e.history(t, alice, created.ID), 1)
}

// TestUpdateTask_MultipleFieldsOrder тестирует порядок строк журнала при правке нескольких полей
func TestUpdateTask_MultipleFieldsOrder(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")
	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "A"})

	due := e.now.Add(48 * time.Hour)
	_, err := e.tasks.UpdateTask(e.ctx, alice, created.ID,
		task.WithStatus(task.StatusInProgress),
		task.WithPriority(task.PriorityUrgent),
		task.WithDueDate(&due),
		task.WithTitle("B"),
	)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{auditlog.FieldTitle, auditlog.FieldDueDate, auditlog.FieldPriority, auditlog.FieldStatus},
		updatedFields(e.history(t, alice, created.ID)))
}

// TestCreateTask_Validation тестирует проверку входных данных задачи
func TestCreateTask_Validation(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")

	tests := []struct {
		name  string
		in    service.TaskInput
		field string
	}{
		{name: "пустой заголовок", in: service.TaskInput{Title: "   "}, field: "title"},
		{name: "неизвестный приоритет", in: service.TaskInput{Title: "x", Priority: "asap"}, field: "priority"},
		{name: "неизвестный статус", in: service.TaskInput{Title: "x", Status: "done"}, field: "status"},
		{name: "слишком длинная метка", in: service.TaskInput{Title: "x", Tags: []string{"ok", strings.Repeat("м", task.MaxTagLength+1)}}, field: "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.tasks.CreateTask(e.ctx, alice, boardID, tt.in)
			var be *service.BusinessError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, service.CodeValidation, be.Code)
			assert.Equal(t, tt.field, be.Details["field"])
		})
	}

	t.Run("несуществующая доска", func(t *testing.T) {
		_, err := e.tasks.CreateTask(e.ctx, alice, uuid.New(), service.TaskInput{Title: "x"})
		assert.True(t, service.IsNotFound(err))
	})
}

// TestCreateTask_Defaults тестирует значения по умолчанию и создание завершённой задачи
func TestCreateTask_Defaults(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")

	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "x"})
	assert.Equal(t, task.PriorityMedium, created.Priority)
	assert.Equal(t, task.StatusPending, created.Status)
	assert.Nil(t, created.CompletedAt)
	assert.Equal(t, alice.ID, created.UserID)

	done := e.createTask(t, alice, boardID, service.TaskInput{Title: "y", Status: task.StatusCompleted})
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(e.now))
}

// TestTaskTags тестирует нормализацию меток и их замену
func TestTaskTags(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")

	created := e.createTask(t, alice, boardID, service.TaskInput{
		Title: "Tagged",
		Tags:  []string{"work", " work", "", "q1", "Work"},
	})
	assert.Equal(t, []string{"work", "q1", "Work"}, created.TagNames())

	got, err := e.tasks.GetTask(e.ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "q1", "Work"}, got.TagNames())
	assert.Equal(t, task.DefaultTagColor, got.Tags[0].Color)

	updated, err := e.tasks.UpdateTask(e.ctx, alice, created.ID, task.WithTagNames([]string{"q1"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, updated.TagNames())

	other := e.createTask(t, alice, boardID, service.TaskInput{Title: "Other", Tags: []string{"q1"}})
	assert.Equal(t, got.Tags[1].ID, other.Tags[0].ID)

	cleared, err := e.tasks.UpdateTask(e.ctx, alice, created.ID, task.WithTagNames(nil))
	require.NoError(t, err)
	assert.Empty(t, cleared.TagNames())

	// метки в журнал не попадают
	assert.Len(t, e.history(t, alice, created.ID), 1)
}

// TestTaskTags_Length тестирует предел длины имени метки при создании и правке
func TestTaskTags_Length(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")

	longest := strings.Repeat("м", task.MaxTagLength)
	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "x", Tags: []string{longest}})
	assert.Equal(t, []string{longest}, created.TagNames())

	_, err := e.tasks.UpdateTask(e.ctx, alice, created.ID,
		task.WithTitle("renamed"),
		task.WithTagNames([]string{longest + "м"}))
	var be *service.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, service.CodeValidation, be.Code)
	assert.Equal(t, "tags", be.Details["field"])

	got, err := e.tasks.GetTask(e.ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)
	assert.Equal(t, []string{longest}, got.TagNames())

	tags, err := e.tasks.ListTags(e.ctx, alice)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
	assert.Len(t, e.history(t, alice, created.ID), 1)
}

// TestTaskStats тестирует сводку по задачам всех видимых досок
func TestTaskStats(t *testing.T) {
	e := newEnv(t)
	alice, aliceBoard := e.register(t, "alice")
	bob, bobBoard := e.register(t, "bob")
	carol, _ := e.register(t, "carol")

	yesterday := e.now.Add(-24 * time.Hour)
	e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "done", Status: task.StatusCompleted})
	e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "late", DueDate: &yesterday})
	e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "doing", Status: task.StatusInProgress})
	e.createTask(t, bob, bobBoard, service.TaskInput{Title: "bob's", Status: task.StatusCompleted})

	t.Run("только свои доски", func(t *testing.T) {
		stats, err := e.tasks.Stats(e.ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, task.Stats{
			Total:          3,
			Completed:      1,
			Pending:        1,
			InProgress:     1,
			Overdue:        1,
			CompletionRate: 33.3,
		}, stats)
	})

	t.Run("общая доска учитывается", func(t *testing.T) {
		_, err := e.boards.GrantAccess(e.ctx, alice, aliceBoard, bob.ID, board.Perms{})
		require.NoError(t, err)

		stats, err := e.tasks.Stats(e.ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Total)
		assert.Equal(t, 2, stats.Completed)
		assert.Equal(t, 50.0, stats.CompletionRate)
	})

	t.Run("нет задач", func(t *testing.T) {
		stats, err := e.tasks.Stats(e.ctx, carol)
		require.NoError(t, err)
		assert.Equal(t, task.Stats{}, stats)
	})

	t.Run("админ видит все активные доски", func(t *testing.T) {
		stats, err := e.tasks.Stats(e.ctx, e.root)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Total)
	})
}

// TestListTags тестирует справочник меток
func TestListTags(t *testing.T) {
	e := newEnv(t)
	alice, aliceBoard := e.register(t, "alice")
	bob, _ := e.register(t, "bob")

	tags, err := e.tasks.ListTags(e.ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, tags)

	e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "x", Tags: []string{"work", "q1"}})
	e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "y", Tags: []string{"q1"}})

	tags, err = e.tasks.ListTags(e.ctx, bob)
	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"work", "q1"}, names)
}

// TestMoveTask тестирует перенос задачи между досками
func TestMoveTask(t *testing.T) {
	e := newEnv(t)
	alice, aliceBoard := e.register(t, "alice")
	bob, bobBoard := e.register(t, "bob")

	created := e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "Move me"})

	_, err := e.tasks.UpdateTask(e.ctx, alice, created.ID, task.WithBoard(bobBoard))
	assert.True(t, service.IsAccessDenied(err, access.Edit))

	_, err = e.boards.GrantAccess(e.ctx, bob, bobBoard, alice.ID, board.Perms{CanEdit: true})
	require.NoError(t, err)

	moved, err := e.tasks.UpdateTask(e.ctx, alice, created.ID, task.WithBoard(bobBoard))
	require.NoError(t, err)
	assert.Equal(t, bobBoard, moved.BoardID)

	_, err = e.tasks.GetTask(e.ctx, bob, created.ID)
	assert.NoError(t, err)
}

// TestToggleComplete тестирует переключение completed <-> pending
func TestToggleComplete(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")
	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "Toggle"})

	done, err := e.tasks.ToggleComplete(e.ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	reopened, err := e.tasks.ToggleComplete(e.ctx, alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)

	assert.Equal(t,
		[]audit.Action{audit.ActionCreated, audit.ActionUpdated, audit.ActionCompleted, audit.ActionUpdated},
		actions(e.history(t, alice, created.ID)))
}

// TestProvenanceRecorded тестирует запись адреса и клиента в журнал
func TestProvenanceRecorded(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")

	ctx := auditlog.WithProvenance(e.ctx, auditlog.Provenance{IP: "10.0.0.1", UserAgent: "curl/8"})
	created, err := e.tasks.CreateTask(ctx, alice, boardID, service.TaskInput{Title: "x"})
	require.NoError(t, err)

	entries := e.history(t, alice, created.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, "10.0.0.1", entries[0].IPAddress)
	assert.Equal(t, "curl/8", entries[0].UserAgent)
	assert.True(t, entries[0].Timestamp.Equal(e.now))
}

// TestDeleteTask тестирует удаление задачи с сохранением журнала
func TestDeleteTask(t *testing.T) {
	e := newEnv(t)
	alice, boardID := e.register(t, "alice")
	created := e.createTask(t, alice, boardID, service.TaskInput{Title: "Gone"})

	require.NoError(t, e.tasks.DeleteTask(e.ctx, alice, created.ID))

	_, err := e.tasks.GetTask(e.ctx, alice, created.ID)
	assert.True(t, service.IsNotFound(err))

	_, err = e.tasks.History(e.ctx, alice, created.ID)
	assert.True(t, service.IsNotFound(err))

	entries := e.history(t, e.root, created.ID)
	assert.Equal(t, []audit.Action{audit.ActionCreated, audit.ActionDeleted}, actions(entries))

	err = e.tasks.DeleteTask(e.ctx, alice, created.ID)
	assert.True(t, service.IsNotFound(err))
}

// TestListTasks тестирует видимость, фильтры и пагинацию списка задач
func TestListTasks(t *testing.T) {
	e := newEnv(t)
	alice, aliceBoard := e.register(t, "alice")
	bob, bobBoard := e.register(t, "bob")

	e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "Quarterly report", Priority: task.PriorityLow})
	e.now = e.now.Add(time.Minute)
	e.createTask(t, alice, aliceBoard, service.TaskInput{Title: "Fix bug", Priority: task.PriorityUrgent})
	e.now = e.now.Add(time.Minute)
	e.createTask(t, bob, bobBoard, service.TaskInput{Title: "Bob's report"})

	t.Run("только свои доски", func(t *testing.T) {
		tasks, err := e.tasks.ListTasks(e.ctx, bob, service.TaskQuery{})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Bob's report", tasks[0].Title)
	})

	t.Run("чужая доска без доступа", func(t *testing.T) {
		_, err := e.tasks.ListTasks(e.ctx, bob, service.TaskQuery{BoardID: &aliceBoard})
		assert.True(t, service.IsAccessDenied(err, access.View))
	})

	t.Run("поиск и сортировка", func(t *testing.T) {
		tasks, err := e.tasks.ListTasks(e.ctx, alice, service.TaskQuery{Search: "REPORT"})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Quarterly report", tasks[0].Title)

		tasks, err = e.tasks.ListTasks(e.ctx, alice, service.TaskQuery{Sort: task.SortPriority})
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "Fix bug", tasks[0].Title)
	})

	t.Run("пагинация", func(t *testing.T) {
		tasks, err := e.tasks.ListTasks(e.ctx, alice, service.TaskQuery{Page: 2, Limit: 1})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Quarterly report", tasks[0].Title)
	})

	t.Run("неизвестная сортировка", func(t *testing.T) {
		_, err := e.tasks.ListTasks(e.ctx, alice, service.TaskQuery{Sort: "title"})
		assert.True(t, service.HasCode(err, service.CodeValidation))
	})

	t.Run("админ видит все активные доски", func(t *testing.T) {
		tasks, err := e.tasks.ListTasks(e.ctx, e.root, service.TaskQuery{})
		require.NoError(t, err)
		assert.Len(t, tasks, 3)
	})
}

// failingStore - хранилище, у которого запись журнала внутри транзакции всегда падает
type failingStore struct {
	service.Store
}

type failingRepo struct {
	service.Repository
}

var errAuditDown = errors.New("audit storage down")

func (f failingRepo) AppendAudit(ctx context.Context, e *audit.Entry) error {
	return errAuditDown
}

func (f failingStore) InTx(ctx context.Context, fn func(service.Repository) error) error {
	return f.Store.InTx(ctx, func(repo service.Repository) error {
		return fn(failingRepo{Repository: repo})
	})
}

// TestMutationRollsBackWithAudit тестирует откат изменения, если журнал не записался
func TestMutationRollsBackWithAudit(t *testing.T) {
	store := inmemory.NewStorage()
	healthy := newEnvWithStore(t, store)
	alice, boardID := healthy.register(t, "alice")
	created := healthy.createTask(t, alice, boardID, service.TaskInput{Title: "Stable"})

	broken := newEnvWithStore(t, failingStore{Store: store})

	_, err := broken.tasks.CreateTask(broken.ctx, alice, boardID, service.TaskInput{Title: "Lost"})
	assert.ErrorIs(t, err, errAuditDown)

	_, err = broken.tasks.UpdateTask(broken.ctx, alice, created.ID, task.WithTitle("Changed"))
	assert.ErrorIs(t, err, errAuditDown)

	err = broken.tasks.DeleteTask(broken.ctx, alice, created.ID)
	assert.ErrorIs(t, err, errAuditDown)

	tasks, err := healthy.tasks.ListTasks(healthy.ctx, alice, service.TaskQuery{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Stable", tasks[0].Title)
	assert.Len(t, healthy.history(t, alice, created.ID), 1)
}
