package handlers

import (
	"context"
	"time"

	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"
	"taskBoard/internal/service"

	"github.com/google/uuid"
)

type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*user.User, error)
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
	GetProfile(ctx context.Context, actor user.Actor) (*user.User, error)
	UpdateProfile(ctx context.Context, actor user.Actor, in service.ProfileInput) (*user.User, error)
	ChangePassword(ctx context.Context, actor user.Actor, in service.PasswordChange) error
}

type TokenIssuer interface {
	Issue(u *user.User) (string, time.Time, error)
}

type BoardService interface {
	CreateBoard(ctx context.Context, actor user.Actor, in service.BoardInput) (*board.Board, error)
	GetBoard(ctx context.Context, actor user.Actor, id uuid.UUID) (*board.Board, error)
	ListBoards(ctx context.Context, actor user.Actor, kind board.ListKind, search string) ([]*board.Board, error)
	UpdateBoard(ctx context.Context, actor user.Actor, id uuid.UUID, upd service.BoardUpdate) (*board.Board, error)
	SetBoardActive(ctx context.Context, actor user.Actor, id uuid.UUID, active bool) (*board.Board, error)
	DeleteBoard(ctx context.Context, actor user.Actor, id uuid.UUID) error
	BoardStats(ctx context.Context, actor user.Actor, id uuid.UUID) (board.Stats, error)
	GrantAccess(ctx context.Context, actor user.Actor, boardID, userID uuid.UUID, perms board.Perms) (*board.Access, error)
	UpdateAccess(ctx context.Context, actor user.Actor, accessID uuid.UUID, perms board.Perms) (*board.Access, error)
	RevokeAccess(ctx context.Context, actor user.Actor, accessID uuid.UUID) error
	ListAccess(ctx context.Context, actor user.Actor, boardID uuid.UUID) ([]*board.Access, error)
}

type TaskService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, actor user.Actor, boardID uuid.UUID, in service.TaskInput) (*task.Task, error)
	GetTask(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, actor user.Actor, id uuid.UUID, opts ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, actor user.Actor, id uuid.UUID) error
	ArchiveTask(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error)
	ToggleComplete(ctx context.Context, actor user.Actor, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, actor user.Actor, q service.TaskQuery) ([]*task.Task, error)
	History(ctx context.Context, actor user.Actor, id uuid.UUID) ([]*audit.Entry, error)
	Stats(ctx context.Context, actor user.Actor) (task.Stats, error)
	ListTags(ctx context.Context, actor user.Actor) ([]*task.Tag, error)
}

type AdminService interface {
	Stats(ctx context.Context, actor user.Actor) (service.SystemStats, error)
	ListUsers(ctx context.Context, actor user.Actor, page, limit int) ([]*user.User, error)
	CreateUser(ctx context.Context, actor user.Actor, in service.AdminUserInput) (*user.User, error)
	UpdateUser(ctx context.Context, actor user.Actor, id uuid.UUID, in service.AdminUserUpdate) (*user.User, error)
	DeleteUser(ctx context.Context, actor user.Actor, id uuid.UUID) error
}

var _ UserService = (*service.UserService)(nil)
var _ BoardService = (*service.BoardService)(nil)
var _ TaskService = (*service.TaskService)(nil)
var _ AdminService = (*service.AdminService)(nil)
