package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"taskBoard/internal/access"
	"taskBoard/internal/auth"
	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"
	"taskBoard/internal/repository/inmemory"
	"taskBoard/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// env - сервисы поверх одного хранилища в памяти и управляемые часы
type env struct {
	ctx    context.Context
	store  service.Store
	now    time.Time
	tasks  *service.TaskService
	boards *service.BoardService
	users  *service.UserService
	admin  *service.AdminService
	root   user.Actor
}

func newEnv(t *testing.T) *env {
	return newEnvWithStore(t, inmemory.NewStorage())
}

func newEnvWithStore(t *testing.T, store service.Store) *env {
	t.Helper()
	e := &env{
		ctx:   context.Background(),
		store: store,
		now:   time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		root:  user.Actor{ID: uuid.New(), IsAdmin: true},
	}
	clock := service.WithClock(func() time.Time { return e.now })
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	e.tasks = service.NewTaskService(store, clock)
	e.boards = service.NewBoardService(store, clock)
	e.users = service.NewUserService(store, hasher, clock)
	e.admin = service.NewAdminService(store, hasher, clock)
	return e
}

// register создаёт пользователя и возвращает его вместе с доской по умолчанию
func (e *env) register(t *testing.T, name string) (user.Actor, uuid.UUID) {
	t.Helper()
	u, err := e.users.Register(e.ctx, service.RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	actor := u.Actor()
	boards, err := e.boards.ListBoards(e.ctx, actor, board.ListOwned, "")
	require.NoError(t, err)
	require.Len(t, boards, 1)
	return actor, boards[0].ID
}

func (e *env) createTask(t *testing.T, actor user.Actor, boardID uuid.UUID, in service.TaskInput) *task.Task {
	t.Helper()
	created, err := e.tasks.CreateTask(e.ctx, actor, boardID, in)
	require.NoError(t, err)
	return created
}

func (e *env) history(t *testing.T, actor user.Actor, id uuid.UUID) []*audit.Entry {
	t.Helper()
	entries, err := e.tasks.History(e.ctx, actor, id)
	require.NoError(t, err)
	return entries
}

func updatedFields(entries []*audit.Entry) []string {
	var fields []string
	for _, e := range entries {
		if e.Action == audit.ActionUpdated && e.FieldName != nil {
			fields = append(fields, *e.FieldName)
		}
	}
	return fields
}

func actions(entries []*audit.Entry) []audit.Action {
	res := make([]audit.Action, 0, len(entries))
	for _, e := range entries {
		res = append(res, e.Action)
	}
	return res
}

// TestBusinessErrorHelpers тестирует распознавание бизнес-ошибок через обёртки
func TestBusinessErrorHelpers(t *testing.T) {
	boardID := uuid.New()

	tests := []struct {
		name     string
		err      error
		notFound bool
		denied   access.Capability
		code     string
	}{
		{
			name:     "не найдено в обёртке",
			err:      fmt.Errorf("получение задачи: %w", service.NewNotFound(service.ResourceTask, uuid.New())),
			notFound: true,
			code:     service.CodeNotFound,
		},
		{
			name:   "отказ в удалении",
			err:    fmt.Errorf("удаление: %w", service.NewAccessDenied(access.Delete, boardID)),
			denied: access.Delete,
			code:   service.CodeAccessDenied,
		},
		{
			name: "повторная выдача",
			err:  service.NewDuplicateGrant(boardID, uuid.New()),
			code: service.CodeDuplicateGrant,
		},
		{
			name: "обычная ошибка",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, service.IsNotFound(tt.err))
			if tt.denied != "" {
				assert.True(t, service.IsAccessDenied(tt.err, tt.denied))
				assert.False(t, service.IsAccessDenied(tt.err, access.Edit))
			}
			if tt.code != "" {
				assert.True(t, service.HasCode(tt.err, tt.code))
			} else {
				assert.False(t, service.HasCode(tt.err, service.CodeNotFound))
			}
		})
	}

	t.Run("текст ошибки", func(t *testing.T) {
		err := service.NewBusinessError(service.CodeValidation, "плохо")
		assert.Equal(t, "[VALIDATION_ERROR] плохо", err.Error())

		err.Err = errors.New("причина")
		assert.Equal(t, "[VALIDATION_ERROR] плохо: причина", err.Error())
		assert.ErrorIs(t, err, err.Err)
	})
}
