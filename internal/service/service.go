package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"taskBoard/internal/access"
	"taskBoard/internal/auditlog"
	"taskBoard/internal/logger"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"
	rep "taskBoard/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultPageLimit = 20
const MaxPageLimit = 100

type options struct {
	now      func() time.Time
	recorder *auditlog.Recorder
}

// Option настраивает сервисы; общий для всех сервисов пакета
type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	o.recorder = auditlog.NewRecorder(auditlog.WithClock(o.now))
	return o
}

var validate = newValidator()

// newValidator называет поля в ошибках по json-тегу входной структуры
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput прогоняет теги validate и отдаёт первую ошибку как VALIDATION_ERROR
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewValidationError(fe.Field(), fe.Tag())
	}
	return fmt.Errorf("валидация: %w", err)
}

func loadBoard(ctx context.Context, repo Repository, id uuid.UUID) (*board.Board, error) {
	b, err := repo.GetBoardByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Доска не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceBoard, id)
		}
		return nil, fmt.Errorf("получение доски: %w", err)
	}
	return b, nil
}

func loadTask(ctx context.Context, repo Repository, id uuid.UUID) (*task.Task, error) {
	t, err := repo.GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound(ResourceTask, id)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func loadUser(ctx context.Context, repo Repository, id uuid.UUID) (*user.User, error) {
	u, err := repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(ResourceUser, id)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

// requireCapability проверяет права и возвращает ACCESS_DENIED с нужной возможностью
func requireCapability(ctx context.Context, repo Repository, c access.Capability, b *board.Board, actor user.Actor) error {
	ok, err := access.NewEvaluator(repo).Check(ctx, c, b, actor)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("Service: Доступ запрещён",
			zap.String("capability", string(c)),
			zap.String("board_id", b.ID.String()),
			zap.String("user_id", actor.ID.String()))
		return NewAccessDenied(c, b.ID)
	}
	return nil
}

// visibleBoards - доски, содержимое которых пользователь может видеть.
// Админ видит все активные доски, остальные - свои и активные чужие с доступом.
func visibleBoards(ctx context.Context, repo Repository, actor user.Actor) ([]*board.Board, error) {
	if actor.IsAdmin {
		boards, err := repo.ListBoards(ctx, board.Filter{Kind: board.ListAll, ActiveOnly: true})
		if err != nil {
			return nil, fmt.Errorf("получение досок: %w", err)
		}
		return boards, nil
	}

	member := actor.ID
	boards, err := repo.ListBoards(ctx, board.Filter{MemberID: &member, Kind: board.ListAll})
	if err != nil {
		return nil, fmt.Errorf("получение досок: %w", err)
	}
	return dropInactiveShared(boards, actor), nil
}

func dropInactiveShared(boards []*board.Board, actor user.Actor) []*board.Board {
	res := boards[:0]
	for _, b := range boards {
		if b.IsActive || b.OwnerID == actor.ID {
			res = append(res, b)
		}
	}
	return res
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
