package access_test

import (
	"context"
	"errors"
	"testing"

	"taskBoard/internal/access"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/user"
	"taskBoard/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGrantFinder struct {
	mock.Mock
}

func (m *MockGrantFinder) GetAccess(ctx context.Context, boardID, userID uuid.UUID) (*board.Access, error) {
	args := m.Called(ctx, boardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*board.Access), args.Error(1)
}

var _ access.GrantFinder = (*MockGrantFinder)(nil)

func newBoard(owner uuid.UUID) *board.Board {
	return &board.Board{ID: uuid.New(), Name: "Board", OwnerID: owner, IsActive: true}
}

// TestAccess_Rules проверяет правила для разных ролей
func TestAccess_Rules(t *testing.T) {
	owner := user.Actor{ID: uuid.New()}
	admin := user.Actor{ID: uuid.New(), IsAdmin: true}
	stranger := user.Actor{ID: uuid.New()}
	b := newBoard(owner.ID)

	grant := func(edit, del bool) *board.Access {
		return &board.Access{ID: uuid.New(), BoardID: b.ID, UserID: stranger.ID, CanEdit: edit, CanDelete: del}
	}

	tests := []struct {
		name       string
		actor      user.Actor
		grant      *board.Access
		wantView   bool
		wantEdit   bool
		wantDelete bool
		wantManage bool
	}{
		{name: "владелец без доступа", actor: owner, wantView: true, wantEdit: true, wantDelete: true, wantManage: true},
		{name: "админ без доступа", actor: admin, wantView: true, wantEdit: true, wantDelete: true, wantManage: true},
		{name: "посторонний без доступа", actor: stranger},
		{name: "только просмотр", actor: stranger, grant: grant(false, false), wantView: true},
		{name: "доступ на правку", actor: stranger, grant: grant(true, false), wantView: true, wantEdit: true},
		{name: "удаление без правки", actor: stranger, grant: grant(false, true), wantView: true, wantDelete: true},
		{name: "полный доступ", actor: stranger, grant: grant(true, true), wantView: true, wantEdit: true, wantDelete: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantView, access.HasAccess(b, tt.actor, tt.grant))
			assert.Equal(t, tt.wantEdit, access.CanEdit(b, tt.actor, tt.grant))
			assert.Equal(t, tt.wantDelete, access.CanDelete(b, tt.actor, tt.grant))
			assert.Equal(t, tt.wantManage, access.CanManage(b, tt.actor))
		})
	}
}

// TestAccess_InactiveBoard - деактивация доски снимает выданный доступ, но не доступ владельца
func TestAccess_InactiveBoard(t *testing.T) {
	owner := user.Actor{ID: uuid.New()}
	member := user.Actor{ID: uuid.New()}
	b := newBoard(owner.ID)
	b.IsActive = false
	g := &board.Access{BoardID: b.ID, UserID: member.ID, CanEdit: true, CanDelete: true}

	assert.False(t, access.HasAccess(b, member, g))
	assert.False(t, access.CanEdit(b, member, g))
	assert.True(t, access.HasAccess(b, owner, nil))
	assert.True(t, access.CanEdit(b, owner, nil))
}

// TestAccess_ForeignGrant - запись доступа к другой доске или другому пользователю не учитывается
func TestAccess_ForeignGrant(t *testing.T) {
	b := newBoard(uuid.New())
	member := user.Actor{ID: uuid.New()}

	otherBoard := &board.Access{BoardID: uuid.New(), UserID: member.ID, CanEdit: true}
	otherUser := &board.Access{BoardID: b.ID, UserID: uuid.New(), CanEdit: true}

	assert.False(t, access.HasAccess(b, member, otherBoard))
	assert.False(t, access.CanEdit(b, member, otherUser))
}

// TestAccess_GrantMonotonic - выдача доступа переводит has_access из false в true
func TestAccess_GrantMonotonic(t *testing.T) {
	b := newBoard(uuid.New())
	for i := 0; i < 20; i++ {
		member := user.Actor{ID: uuid.New()}
		before := access.HasAccess(b, member, nil)
		g := &board.Access{BoardID: b.ID, UserID: member.ID, CanEdit: i%2 == 0, CanDelete: i%3 == 0}
		after := access.HasAccess(b, member, g)

		assert.False(t, before)
		assert.True(t, after)
	}
}

// TestEvaluator_Check проверяет подгрузку доступа из хранилища
func TestEvaluator_Check(t *testing.T) {
	ctx := context.Background()
	owner := user.Actor{ID: uuid.New()}
	member := user.Actor{ID: uuid.New()}
	b := newBoard(owner.ID)

	t.Run("владелец без обращения к хранилищу", func(t *testing.T) {
		finder := new(MockGrantFinder)
		ev := access.NewEvaluator(finder)

		ok, err := ev.Check(ctx, access.Delete, b, owner)
		require.NoError(t, err)
		assert.True(t, ok)
		finder.AssertNotCalled(t, "GetAccess", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("управление не смотрит на выданный доступ", func(t *testing.T) {
		finder := new(MockGrantFinder)
		ev := access.NewEvaluator(finder)

		ok, err := ev.Check(ctx, access.Manage, b, member)
		require.NoError(t, err)
		assert.False(t, ok)
		finder.AssertExpectations(t)
	})

	t.Run("нет записи доступа - отказ", func(t *testing.T) {
		finder := new(MockGrantFinder)
		finder.On("GetAccess", mock.Anything, b.ID, member.ID).Return(nil, repository.ErrNotFound)
		ev := access.NewEvaluator(finder)

		ok, err := ev.Check(ctx, access.View, b, member)
		require.NoError(t, err)
		assert.False(t, ok)
		finder.AssertExpectations(t)
	})

	t.Run("правка разрешена, удаление нет", func(t *testing.T) {
		finder := new(MockGrantFinder)
		finder.On("GetAccess", mock.Anything, b.ID, member.ID).
			Return(&board.Access{BoardID: b.ID, UserID: member.ID, CanEdit: true}, nil)
		ev := access.NewEvaluator(finder)

		ok, err := ev.Check(ctx, access.Edit, b, member)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = ev.Check(ctx, access.Delete, b, member)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ошибка хранилища возвращается", func(t *testing.T) {
		finder := new(MockGrantFinder)
		finder.On("GetAccess", mock.Anything, b.ID, member.ID).Return(nil, errors.New("db down"))
		ev := access.NewEvaluator(finder)

		ok, err := ev.Check(ctx, access.View, b, member)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
