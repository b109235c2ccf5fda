// Package access решает, может ли пользователь видеть, редактировать или
// удалять содержимое доски. Пакет только классифицирует запрос и ничего
// не меняет; отказ оформляет вызывающий сервис.
package access

import (
	"context"
	"errors"
	"fmt"

	"taskBoard/internal/models/board"
	"taskBoard/internal/models/user"
	repo "taskBoard/internal/repository"

	"github.com/google/uuid"
)

type Capability string

const View Capability = "view"
const Edit Capability = "edit"
const Delete Capability = "delete"
const Manage Capability = "manage"

// privileged - админ и владелец доски имеют полный доступ независимо от выданных прав
func privileged(b *board.Board, actor user.Actor) bool {
	return actor.IsAdmin || b.OwnerID == actor.ID
}

// grantFor возвращает запись доступа, только если она относится к этой доске
// и этому пользователю, и доска активна
func grantFor(b *board.Board, actor user.Actor, grant *board.Access) *board.Access {
	if grant == nil || !b.IsActive {
		return nil
	}
	if grant.BoardID != b.ID || grant.UserID != actor.ID {
		return nil
	}
	return grant
}

func HasAccess(b *board.Board, actor user.Actor, grant *board.Access) bool {
	if privileged(b, actor) {
		return true
	}
	return grantFor(b, actor, grant) != nil
}

func CanEdit(b *board.Board, actor user.Actor, grant *board.Access) bool {
	if privileged(b, actor) {
		return true
	}
	g := grantFor(b, actor, grant)
	return g != nil && g.CanEdit
}

func CanDelete(b *board.Board, actor user.Actor, grant *board.Access) bool {
	if privileged(b, actor) {
		return true
	}
	g := grantFor(b, actor, grant)
	return g != nil && g.CanDelete
}

// CanManage - выдача и отзыв доступа, правка и удаление самой доски
func CanManage(b *board.Board, actor user.Actor) bool {
	return privileged(b, actor)
}

func Allows(c Capability, b *board.Board, actor user.Actor, grant *board.Access) bool {
	switch c {
	case View:
		return HasAccess(b, actor, grant)
	case Edit:
		return CanEdit(b, actor, grant)
	case Delete:
		return CanDelete(b, actor, grant)
	case Manage:
		return CanManage(b, actor)
	}
	return false
}

type GrantFinder interface {
	GetAccess(ctx context.Context, boardID, userID uuid.UUID) (*board.Access, error)
}

// Evaluator подгружает запись доступа из хранилища и применяет правила выше
type Evaluator struct {
	grants GrantFinder
}

func NewEvaluator(grants GrantFinder) *Evaluator {
	return &Evaluator{grants: grants}
}

func (e *Evaluator) Check(ctx context.Context, c Capability, b *board.Board, actor user.Actor) (bool, error) {
	if privileged(b, actor) {
		return true, nil
	}
	if c == Manage {
		return false, nil
	}

	grant, err := e.grants.GetAccess(ctx, b.ID, actor.ID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return false, fmt.Errorf("получение доступа к доске: %w", err)
		}
		grant = nil
	}
	return Allows(c, b, actor, grant), nil
}
