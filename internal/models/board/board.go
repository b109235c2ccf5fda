package board

import (
	"time"

	"taskBoard/internal/models/task"

	"github.com/google/uuid"
)

type Board struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Access - выданный доступ пользователя к чужой доске.
// На пару (board, user) существует не больше одной записи.
type Access struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	BoardID     uuid.UUID  `json:"board_id" db:"board_id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	CanEdit     bool       `json:"can_edit" db:"can_edit"`
	CanDelete   bool       `json:"can_delete" db:"can_delete"`
	GrantedByID *uuid.UUID `json:"granted_by_id,omitempty" db:"granted_by_id"`
	GrantedAt   time.Time  `json:"granted_at" db:"granted_at"`
}

// Perms - независимые флаги доступа
type Perms struct {
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func (a *Access) Perms() Perms {
	return Perms{CanEdit: a.CanEdit, CanDelete: a.CanDelete}
}

const MaxNameLength = 100

type ListKind string

const ListAll ListKind = "all"
const ListOwned ListKind = "owned"
const ListShared ListKind = "shared"
const ListActive ListKind = "active"

// Filter - выборка досок. MemberID == nil означает все доски (для админа).
type Filter struct {
	MemberID   *uuid.UUID
	Kind       ListKind
	ActiveOnly bool
	Search     string
}

// Stats - сводка по задачам доски плюс число участников
type Stats struct {
	task.Stats
	MemberCount int `json:"member_count"`
}
