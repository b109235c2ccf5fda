package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskBoard/internal/logger"
	"taskBoard/internal/models/user"
	rep "taskBoard/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminService - консоль администратора. Все методы требуют флаг админа.
type AdminService struct {
	store  Store
	hasher PasswordHasher
	now    func() time.Time
}

func NewAdminService(store Store, hasher PasswordHasher, opts ...Option) *AdminService {
	o := buildOptions(opts)
	return &AdminService{
		store:  store,
		hasher: hasher,
		now:    o.now,
	}
}

type SystemStats struct {
	TotalUsers   int `json:"total_users"`
	RegularUsers int `json:"active_users"`
	ActiveBoards int `json:"total_boards"`
	TotalTasks   int `json:"total_tasks"`
}

type AdminUserInput struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6"`
	IsAdmin  bool   `json:"is_admin"`
}

// AdminUserUpdate - пустой Password оставляет пароль прежним
type AdminUserUpdate struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"omitempty,min=6"`
	IsAdmin  bool   `json:"is_admin"`
}

func requireAdmin(actor user.Actor) error {
	if !actor.IsAdmin {
		return NewBusinessError(CodeAccessDenied, "Требуются права администратора",
			ToDetail("capability", "admin"))
	}
	return nil
}

func (s *AdminService) Stats(ctx context.Context, actor user.Actor) (SystemStats, error) {
	if err := requireAdmin(actor); err != nil {
		return SystemStats{}, err
	}

	var st SystemStats
	var err error
	if st.TotalUsers, err = s.store.CountUsers(ctx); err != nil {
		return SystemStats{}, fmt.Errorf("подсчёт пользователей: %w", err)
	}
	if st.RegularUsers, err = s.store.CountRegularUsers(ctx); err != nil {
		return SystemStats{}, fmt.Errorf("подсчёт пользователей: %w", err)
	}
	if st.ActiveBoards, err = s.store.CountActiveBoards(ctx); err != nil {
		return SystemStats{}, fmt.Errorf("подсчёт досок: %w", err)
	}
	if st.TotalTasks, err = s.store.CountTasks(ctx); err != nil {
		return SystemStats{}, fmt.Errorf("подсчёт задач: %w", err)
	}
	return st, nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor user.Actor, page, limit int) ([]*user.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)
	users, err := s.store.ListUsers(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	return users, nil
}

// CreateUser создаёт пользователя с личной доской
func (s *AdminService) CreateUser(ctx context.Context, actor user.Actor, in AdminUserInput) (*user.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var created *user.User
	err := s.store.InTx(ctx, func(repo Repository) error {
		u, err := createUserWithBoard(ctx, repo, s.hasher, s.now(), newUser{
			username:  in.Username,
			email:     in.Email,
			password:  in.Password,
			isAdmin:   in.IsAdmin,
			boardName: fmt.Sprintf("%s's Personal Board", in.Username),
			boardDesc: fmt.Sprintf("Personal board for %s", in.Username),
		})
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Админ создал пользователя",
		zap.String("admin_id", actor.ID.String()),
		zap.String("user_id", created.ID.String()))
	return created, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, actor user.Actor, id uuid.UUID, in AdminUserUpdate) (*user.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var updated *user.User
	err := s.store.InTx(ctx, func(repo Repository) error {
		current, err := loadUser(ctx, repo, id)
		if err != nil {
			return err
		}
		next := *current
		next.Username = in.Username
		next.Email = in.Email
		next.IsAdmin = in.IsAdmin
		if in.Password != "" {
			hash, err := s.hasher.Hash(in.Password)
			if err != nil {
				return err
			}
			next.PasswordHash = hash
		}
		now := s.now()
		next.UpdatedAt = &now

		if err := repo.UpdateUser(ctx, &next); err != nil {
			if errors.Is(err, rep.ErrDuplicate) {
				return usernameTaken(in.Username)
			}
			return fmt.Errorf("обновление пользователя: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser удаляет пользователя и его доступы к чужим доскам.
// Владельца досок удалить нельзя: сначала нужно удалить или передать доски.
func (s *AdminService) DeleteUser(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return NewValidationError("id", "cannot delete yourself")
	}

	return s.store.InTx(ctx, func(repo Repository) error {
		if _, err := loadUser(ctx, repo, id); err != nil {
			return err
		}
		owned, err := repo.CountBoardsByOwner(ctx, id)
		if err != nil {
			return fmt.Errorf("подсчёт досок пользователя: %w", err)
		}
		if owned > 0 {
			return NewBusinessError(CodeUserOwnsBoards, "Пользователь владеет досками",
				ToDetail("user_id", id.String()),
				ToDetail("boards", owned))
		}

		if err := repo.DeleteAccessByUser(ctx, id); err != nil {
			return fmt.Errorf("удаление доступов пользователя: %w", err)
		}
		if err := repo.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("удаление пользователя: %w", err)
		}
		logger.Info("Service: Пользователь удалён",
			zap.String("admin_id", actor.ID.String()),
			zap.String("user_id", id.String()))
		return nil
	})
}
