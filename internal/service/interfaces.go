package service

import (
	"context"
	"time"

	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"

	"github.com/google/uuid"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, page, limit int) ([]*user.User, error)
	CountUsers(ctx context.Context) (int, error)
	// CountRegularUsers - пользователи без флага админа
	CountRegularUsers(ctx context.Context) (int, error)
}

type BoardRepository interface {
	CreateBoard(ctx context.Context, b *board.Board) error
	GetBoardByID(ctx context.Context, id uuid.UUID) (*board.Board, error)
	UpdateBoard(ctx context.Context, b *board.Board) error
	DeleteBoard(ctx context.Context, id uuid.UUID) error
	ListBoards(ctx context.Context, f board.Filter) ([]*board.Board, error)
	CountBoardsByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	CountActiveBoards(ctx context.Context) (int, error)
}

type AccessRepository interface {
	// CreateAccess возвращает repository.ErrDuplicate, если пара (board, user) уже есть
	CreateAccess(ctx context.Context, a *board.Access) error
	GetAccess(ctx context.Context, boardID, userID uuid.UUID) (*board.Access, error)
	GetAccessByID(ctx context.Context, id uuid.UUID) (*board.Access, error)
	UpdateAccess(ctx context.Context, a *board.Access) error
	DeleteAccess(ctx context.Context, id uuid.UUID) error
	ListAccessByBoard(ctx context.Context, boardID uuid.UUID) ([]*board.Access, error)
	DeleteAccessByBoard(ctx context.Context, boardID uuid.UUID) error
	DeleteAccessByUser(ctx context.Context, userID uuid.UUID) error
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *task.Task) error
	// GetTaskByID возвращает задачу вместе с тегами
	GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, t *task.Task) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	ListTasks(ctx context.Context, f task.Filter) ([]*task.Task, error)
	ListOverdueTasks(ctx context.Context, now time.Time, limit int) ([]*task.Task, error)
	CountTasks(ctx context.Context) (int, error)
}

type TagRepository interface {
	// GetOrCreateTag возвращает существующую метку с таким именем или создаёт новую
	GetOrCreateTag(ctx context.Context, name string) (*task.Tag, error)
	SetTaskTags(ctx context.Context, taskID uuid.UUID, tagIDs []uuid.UUID) error
	ListTags(ctx context.Context) ([]*task.Tag, error)
}

type AuditRepository interface {
	AppendAudit(ctx context.Context, e *audit.Entry) error
	ListAuditByTask(ctx context.Context, taskID uuid.UUID) ([]*audit.Entry, error)
}

type Repository interface {
	UserRepository
	BoardRepository
	AccessRepository
	TaskRepository
	TagRepository
	AuditRepository
	HealthCheck(ctx context.Context) error
}

// Store - хранилище с транзакциями. fn получает репозиторий, привязанный
// к транзакции; ошибка fn откатывает все изменения.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(Repository) error) error
}
