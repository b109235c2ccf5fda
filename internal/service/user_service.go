package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskBoard/internal/logger"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/user"
	rep "taskBoard/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type UserService struct {
	store  Store
	hasher PasswordHasher
	now    func() time.Time
}

func NewUserService(store Store, hasher PasswordHasher, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{
		store:  store,
		hasher: hasher,
		now:    o.now,
	}
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6"`
}

type ProfileInput struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
}

type PasswordChange struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,min=6"`
}

// Register создаёт пользователя и его доску по умолчанию в одной транзакции
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
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
			boardName: fmt.Sprintf("%s's Board", in.Username),
			boardDesc: "Default board",
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

	logger.Info("Service: Пользователь зарегистрирован",
		zap.String("user_id", created.ID.String()),
		zap.String("username", created.Username))
	return created, nil
}

// Authenticate не различает неизвестное имя и неверный пароль
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		logger.Info("Service: Неверный пароль", zap.String("user_id", u.ID.String()))
		return nil, invalidCredentials()
	}
	return u, nil
}

func (s *UserService) GetProfile(ctx context.Context, actor user.Actor) (*user.User, error) {
	return loadUser(ctx, s.store, actor.ID)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor user.Actor, in ProfileInput) (*user.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var updated *user.User
	err := s.store.InTx(ctx, func(repo Repository) error {
		current, err := loadUser(ctx, repo, actor.ID)
		if err != nil {
			return err
		}
		next := *current
		next.Username = in.Username
		next.Email = in.Email
		now := s.now()
		next.UpdatedAt = &now

		if err := repo.UpdateUser(ctx, &next); err != nil {
			if errors.Is(err, rep.ErrDuplicate) {
				return usernameTaken(in.Username)
			}
			return fmt.Errorf("обновление профиля: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) ChangePassword(ctx context.Context, actor user.Actor, in PasswordChange) error {
	if err := validateInput(in); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(repo Repository) error {
		current, err := loadUser(ctx, repo, actor.ID)
		if err != nil {
			return err
		}
		if err := s.hasher.Compare(current.PasswordHash, in.Current); err != nil {
			return invalidCredentials()
		}

		hash, err := s.hasher.Hash(in.New)
		if err != nil {
			return err
		}
		next := *current
		next.PasswordHash = hash
		now := s.now()
		next.UpdatedAt = &now
		if err := repo.UpdateUser(ctx, &next); err != nil {
			return fmt.Errorf("смена пароля: %w", err)
		}
		logger.Info("Service: Пароль изменён", zap.String("user_id", actor.ID.String()))
		return nil
	})
}

type newUser struct {
	username  string
	email     string
	password  string
	isAdmin   bool
	boardName string
	boardDesc string
}

// createUserWithBoard - общий путь регистрации и создания пользователя админом
func createUserWithBoard(ctx context.Context, repo Repository, hasher PasswordHasher, now time.Time, nu newUser) (*user.User, error) {
	if _, err := repo.GetUserByUsername(ctx, nu.username); err == nil {
		return nil, usernameTaken(nu.username)
	} else if !errors.Is(err, rep.ErrNotFound) {
		return nil, fmt.Errorf("проверка имени: %w", err)
	}

	hash, err := hasher.Hash(nu.password)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		ID:           uuid.New(),
		Username:     nu.username,
		Email:        nu.email,
		PasswordHash: hash,
		IsAdmin:      nu.isAdmin,
		CreatedAt:    now,
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, rep.ErrDuplicate) {
			return nil, usernameTaken(nu.username)
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	b := &board.Board{
		ID:          uuid.New(),
		Name:        nu.boardName,
		Description: nu.boardDesc,
		OwnerID:     u.ID,
		IsActive:    true,
		CreatedAt:   now,
	}
	if err := repo.CreateBoard(ctx, b); err != nil {
		return nil, fmt.Errorf("создание доски по умолчанию: %w", err)
	}
	return u, nil
}

func usernameTaken(username string) *BusinessError {
	return NewBusinessError(CodeUsernameTaken, "Имя пользователя или email уже заняты",
		ToDetail("username", username))
}

func invalidCredentials() *BusinessError {
	return NewBusinessError(CodeInvalidCredentials, "Неверное имя пользователя или пароль")
}
