package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskBoard/internal/access"
	"taskBoard/internal/auditlog"
	"taskBoard/internal/logger"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"
	rep "taskBoard/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BoardService struct {
	store    Store
	recorder *auditlog.Recorder
	now      func() time.Time
}

func NewBoardService(store Store, opts ...Option) *BoardService {
	o := buildOptions(opts)
	return &BoardService{
		store:    store,
		recorder: o.recorder,
		now:      o.now,
	}
}

// BoardInput - данные новой доски. OwnerID и Members учитываются только для админа.
type BoardInput struct {
	Name        string      `json:"name" validate:"required,max=100"`
	Description string      `json:"description"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Members     []uuid.UUID `json:"members"`
}

// BoardUpdate - частичное изменение доски, nil поля не меняются
type BoardUpdate struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description"`
}

func (s *BoardService) CreateBoard(ctx context.Context, actor user.Actor, in BoardInput) (*board.Board, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	ownerID := actor.ID
	var members []uuid.UUID
	if actor.IsAdmin {
		if in.OwnerID != uuid.Nil {
			ownerID = in.OwnerID
		}
		members = in.Members
	}

	now := s.now()
	b := &board.Board{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     ownerID,
		IsActive:    true,
		CreatedAt:   now,
	}

	err := s.store.InTx(ctx, func(repo Repository) error {
		if ownerID != actor.ID {
			if _, err := loadUser(ctx, repo, ownerID); err != nil {
				return err
			}
		}
		if err := repo.CreateBoard(ctx, b); err != nil {
			return fmt.Errorf("создание доски: %w", err)
		}

		granter := actor.ID
		for _, memberID := range members {
			if memberID == ownerID {
				continue
			}
			if _, err := loadUser(ctx, repo, memberID); err != nil {
				return err
			}
			// участники, добавленные при создании, могут править, но не удалять
			grant := &board.Access{
				ID:          uuid.New(),
				BoardID:     b.ID,
				UserID:      memberID,
				CanEdit:     true,
				GrantedByID: &granter,
				GrantedAt:   now,
			}
			if err := repo.CreateAccess(ctx, grant); err != nil && !errors.Is(err, rep.ErrDuplicate) {
				return fmt.Errorf("выдача доступа: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Доска создана",
		zap.String("board_id", b.ID.String()),
		zap.String("owner_id", ownerID.String()))
	return b, nil
}

func (s *BoardService) GetBoard(ctx context.Context, actor user.Actor, id uuid.UUID) (*board.Board, error) {
	b, err := loadBoard(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(ctx, s.store, access.View, b, actor); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBoards - доски пользователя по виду all|owned|shared|active и строке поиска.
// Для админа вид all означает все доски системы.
func (s *BoardService) ListBoards(ctx context.Context, actor user.Actor, kind board.ListKind, search string) ([]*board.Board, error) {
	if kind == "" {
		kind = board.ListAll
	}
	switch kind {
	case board.ListAll, board.ListOwned, board.ListShared, board.ListActive:
	default:
		return nil, NewValidationError("filter", "oneof")
	}

	f := board.Filter{
		Kind:       kind,
		ActiveOnly: kind == board.ListActive,
		Search:     strings.TrimSpace(search),
	}
	if !actor.IsAdmin || kind == board.ListOwned || kind == board.ListShared {
		member := actor.ID
		f.MemberID = &member
	}

	boards, err := s.store.ListBoards(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("получение досок: %w", err)
	}
	if actor.IsAdmin {
		return boards, nil
	}
	return dropInactiveShared(boards, actor), nil
}

func (s *BoardService) UpdateBoard(ctx context.Context, actor user.Actor, id uuid.UUID, upd BoardUpdate) (*board.Board, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, NewValidationError("name", "required")
		}
		upd.Name = &name
	}
	if err := validateInput(upd); err != nil {
		return nil, err
	}

	return s.mutateBoard(ctx, actor, id, func(b *board.Board) {
		if upd.Name != nil {
			b.Name = *upd.Name
		}
		if upd.Description != nil {
			b.Description = *upd.Description
		}
	})
}

// SetBoardActive включает или выключает доску. Выключенная доска
// недоступна по выданным правам, но остаётся у владельца и админа.
func (s *BoardService) SetBoardActive(ctx context.Context, actor user.Actor, id uuid.UUID, active bool) (*board.Board, error) {
	return s.mutateBoard(ctx, actor, id, func(b *board.Board) {
		b.IsActive = active
	})
}

func (s *BoardService) mutateBoard(ctx context.Context, actor user.Actor, id uuid.UUID, apply func(*board.Board)) (*board.Board, error) {
	var updated *board.Board
	err := s.store.InTx(ctx, func(repo Repository) error {
		current, err := loadBoard(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Manage, current, actor); err != nil {
			return err
		}

		next := *current
		apply(&next)
		now := s.now()
		next.UpdatedAt = &now

		if err := repo.UpdateBoard(ctx, &next); err != nil {
			return fmt.Errorf("обновление доски: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBoard удаляет доску вместе с задачами и выданными доступами.
// По каждой задаче пишется запись deleted, журнал задач не удаляется.
func (s *BoardService) DeleteBoard(ctx context.Context, actor user.Actor, id uuid.UUID) error {
	return s.store.InTx(ctx, func(repo Repository) error {
		b, err := loadBoard(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Manage, b, actor); err != nil {
			return err
		}

		tasks, err := repo.ListTasks(ctx, task.Filter{BoardIDs: []uuid.UUID{b.ID}})
		if err != nil {
			return fmt.Errorf("получение задач доски: %w", err)
		}
		for _, t := range tasks {
			if err := s.recorder.RecordDeletion(ctx, repo, t, actor); err != nil {
				return err
			}
			if err := repo.DeleteTask(ctx, t.ID); err != nil {
				return fmt.Errorf("удаление задачи: %w", err)
			}
		}
		if err := repo.DeleteAccessByBoard(ctx, b.ID); err != nil {
			return fmt.Errorf("удаление доступов: %w", err)
		}
		if err := repo.DeleteBoard(ctx, b.ID); err != nil {
			return fmt.Errorf("удаление доски: %w", err)
		}

		logger.Info("Service: Доска удалена",
			zap.String("board_id", id.String()),
			zap.Int("tasks", len(tasks)))
		return nil
	})
}

func (s *BoardService) BoardStats(ctx context.Context, actor user.Actor, id uuid.UUID) (board.Stats, error) {
	b, err := loadBoard(ctx, s.store, id)
	if err != nil {
		return board.Stats{}, err
	}
	if err := requireCapability(ctx, s.store, access.View, b, actor); err != nil {
		return board.Stats{}, err
	}

	tasks, err := s.store.ListTasks(ctx, task.Filter{BoardIDs: []uuid.UUID{b.ID}})
	if err != nil {
		return board.Stats{}, fmt.Errorf("получение задач доски: %w", err)
	}
	grants, err := s.store.ListAccessByBoard(ctx, b.ID)
	if err != nil {
		return board.Stats{}, fmt.Errorf("получение доступов: %w", err)
	}

	return board.Stats{
		Stats:       task.Summarize(tasks, s.now()),
		MemberCount: len(grants) + 1,
	}, nil
}

// GrantAccess выдаёт доступ к доске. Повторная выдача той же паре
// возвращает DUPLICATE_GRANT и не меняет существующую запись.
func (s *BoardService) GrantAccess(ctx context.Context, actor user.Actor, boardID, userID uuid.UUID, perms board.Perms) (*board.Access, error) {
	var grant *board.Access

	err := s.store.InTx(ctx, func(repo Repository) error {
		b, err := loadBoard(ctx, repo, boardID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Manage, b, actor); err != nil {
			return err
		}
		if userID == b.OwnerID {
			return NewValidationError("user_id", "owner already has full access")
		}
		if _, err := loadUser(ctx, repo, userID); err != nil {
			return err
		}

		if _, err := repo.GetAccess(ctx, boardID, userID); err == nil {
			return NewDuplicateGrant(boardID, userID)
		} else if !errors.Is(err, rep.ErrNotFound) {
			return fmt.Errorf("проверка доступа: %w", err)
		}

		granter := actor.ID
		grant = &board.Access{
			ID:          uuid.New(),
			BoardID:     boardID,
			UserID:      userID,
			CanEdit:     perms.CanEdit,
			CanDelete:   perms.CanDelete,
			GrantedByID: &granter,
			GrantedAt:   s.now(),
		}
		if err := repo.CreateAccess(ctx, grant); err != nil {
			if errors.Is(err, rep.ErrDuplicate) {
				return NewDuplicateGrant(boardID, userID)
			}
			return fmt.Errorf("выдача доступа: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Service: Доступ выдан",
		zap.String("board_id", boardID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("can_edit", perms.CanEdit),
		zap.Bool("can_delete", perms.CanDelete))
	return grant, nil
}

func (s *BoardService) UpdateAccess(ctx context.Context, actor user.Actor, accessID uuid.UUID, perms board.Perms) (*board.Access, error) {
	var updated *board.Access

	err := s.store.InTx(ctx, func(repo Repository) error {
		grant, b, err := s.loadGrant(ctx, repo, accessID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Manage, b, actor); err != nil {
			return err
		}

		next := *grant
		next.CanEdit = perms.CanEdit
		next.CanDelete = perms.CanDelete
		if err := repo.UpdateAccess(ctx, &next); err != nil {
			return fmt.Errorf("обновление доступа: %w", err)
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BoardService) RevokeAccess(ctx context.Context, actor user.Actor, accessID uuid.UUID) error {
	return s.store.InTx(ctx, func(repo Repository) error {
		_, b, err := s.loadGrant(ctx, repo, accessID)
		if err != nil {
			return err
		}
		if err := requireCapability(ctx, repo, access.Manage, b, actor); err != nil {
			return err
		}
		if err := repo.DeleteAccess(ctx, accessID); err != nil {
			return fmt.Errorf("отзыв доступа: %w", err)
		}
		logger.Info("Service: Доступ отозван", zap.String("access_id", accessID.String()))
		return nil
	})
}

func (s *BoardService) ListAccess(ctx context.Context, actor user.Actor, boardID uuid.UUID) ([]*board.Access, error) {
	b, err := loadBoard(ctx, s.store, boardID)
	if err != nil {
		return nil, err
	}
	if err := requireCapability(ctx, s.store, access.View, b, actor); err != nil {
		return nil, err
	}
	grants, err := s.store.ListAccessByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("получение доступов: %w", err)
	}
	return grants, nil
}

func (s *BoardService) loadGrant(ctx context.Context, repo Repository, accessID uuid.UUID) (*board.Access, *board.Board, error) {
	grant, err := repo.GetAccessByID(ctx, accessID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, nil, NewNotFound(ResourceAccess, accessID)
		}
		return nil, nil, fmt.Errorf("получение доступа: %w", err)
	}
	b, err := loadBoard(ctx, repo, grant.BoardID)
	if err != nil {
		return nil, nil, err
	}
	return grant, b, nil
}
