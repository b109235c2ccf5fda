package handlers_test

import (
	"context"
	"time"

	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"
	"taskBoard/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) CreateTask(ctx context.Context, actor user.Actor, boardID uuid.UUID, in service.TaskInput) (*task.Task, error) {
	args := m.Called(ctx, actor, boardID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, actor user.Actor, id uuid.UUID, opts ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, actor, id, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockTaskService) ArchiveTask(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ToggleComplete(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, actor user.Actor, q service.TaskQuery) ([]*task.Task, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) History(ctx context.Context, actor user.Actor, id uuid.UUID) ([]*audit.Entry, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Entry), args.Error(1)
}

func (m *MockTaskService) Stats(ctx context.Context, actor user.Actor) (task.Stats, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(task.Stats), args.Error(1)
}

func (m *MockTaskService) ListTags(ctx context.Context, actor user.Actor) ([]*task.Tag, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Tag), args.Error(1)
}

// MockBoardService - мок сервиса досок
type MockBoardService struct {
	mock.Mock
}

func (m *MockBoardService) CreateBoard(ctx context.Context, actor user.Actor, in service.BoardInput) (*board.Board, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*board.Board), args.Error(1)
}

func (m *MockBoardService) GetBoard(ctx context.Context, actor user.Actor, id uuid.UUID) (*board.Board, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*board.Board), args.Error(1)
}

func (m *MockBoardService) ListBoards(ctx context.Context, actor user.Actor, kind board.ListKind, search string) ([]*board.Board, error) {
	args := m.Called(ctx, actor, kind, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*board.Board), args.Error(1)
}

func (m *MockBoardService) UpdateBoard(ctx context.Context, actor user.Actor, id uuid.UUID, upd service.BoardUpdate) (*board.Board, error) {
	args := m.Called(ctx, actor, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*board.Board), args.Error(1)
}

func (m *MockBoardService) SetBoardActive(ctx context.Context, actor user.Actor, id uuid.UUID, active bool) (*board.Board, error) {
	args := m.Called(ctx, actor, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*board.Board), args.Error(1)
}

func (m *MockBoardService) DeleteBoard(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockBoardService) BoardStats(ctx context.Context, actor user.Actor, id uuid.UUID) (board.Stats, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(board.Stats), args.Error(1)
}

func (m *MockBoardService) GrantAccess(ctx context.Context, actor user.Actor, boardID, userID uuid.UUID, perms board.Perms) (*board.Access, error) {
	args := m.Called(ctx, actor, boardID, userID, perms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*board.Access), args.Error(1)
}

func (m *MockBoardService) UpdateAccess(ctx context.Context, actor user.Actor, accessID uuid.UUID, perms board.Perms) (*board.Access, error) {
	args := m.Called(ctx, actor, accessID, perms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*board.Access), args.Error(1)
}

func (m *MockBoardService) RevokeAccess(ctx context.Context, actor user.Actor, accessID uuid.UUID) error {
	args := m.Called(ctx, actor, accessID)
	return args.Error(0)
}

func (m *MockBoardService) ListAccess(ctx context.Context, actor user.Actor, boardID uuid.UUID) ([]*board.Access, error) {
	args := m.Called(ctx, actor, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*board.Access), args.Error(1)
}

// MockUserService - мок сервиса пользователей
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in service.RegisterInput) (*user.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) GetProfile(ctx context.Context, actor user.Actor) (*user.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, actor user.Actor, in service.ProfileInput) (*user.User, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, actor user.Actor, in service.PasswordChange) error {
	args := m.Called(ctx, actor, in)
	return args.Error(0)
}

// MockAdminService - мок консоли администратора
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Stats(ctx context.Context, actor user.Actor) (service.SystemStats, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(service.SystemStats), args.Error(1)
}

func (m *MockAdminService) ListUsers(ctx context.Context, actor user.Actor, page, limit int) ([]*user.User, error) {
	args := m.Called(ctx, actor, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockAdminService) CreateUser(ctx context.Context, actor user.Actor, in service.AdminUserInput) (*user.User, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockAdminService) UpdateUser(ctx context.Context, actor user.Actor, id uuid.UUID, in service.AdminUserUpdate) (*user.User, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockAdminService) DeleteUser(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// MockTokens выпускает и проверяет токены
type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) Issue(u *user.User) (string, time.Time, error) {
	args := m.Called(u)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokens) Parse(raw string) (user.Actor, error) {
	args := m.Called(raw)
	return args.Get(0).(user.Actor), args.Error(1)
}

// MockUserLookup отдаёт текущую запись пользователя для Authenticate
type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}
