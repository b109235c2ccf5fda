package inmemory

import (
	"context"
	"strings"

	"taskBoard/internal/models/board"
	repo "taskBoard/internal/repository"

	"github.com/google/uuid"
)

func copyBoard(b *board.Board) *board.Board {
	c := *b
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func copyAccess(a *board.Access) *board.Access {
	c := *a
	if a.GrantedByID != nil {
		id := *a.GrantedByID
		c.GrantedByID = &id
	}
	return &c
}

func (s *Storage) CreateBoard(ctx context.Context, b *board.Board) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.boards[b.ID]; ok {
		return repo.ErrDuplicate
	}
	s.st.boards[b.ID] = copyBoard(b)
	s.st.boardIDs = append(s.st.boardIDs, b.ID)
	return nil
}

func (s *Storage) GetBoardByID(ctx context.Context, id uuid.UUID) (*board.Board, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	b, ok := s.st.boards[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyBoard(b), nil
}

func (s *Storage) UpdateBoard(ctx context.Context, b *board.Board) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.boards[b.ID]; !ok {
		return repo.ErrNotFound
	}
	s.st.boards[b.ID] = copyBoard(b)
	return nil
}

func (s *Storage) DeleteBoard(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.boards[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.st.boards, id)
	s.st.boardIDs = removeID(s.st.boardIDs, id)
	return nil
}

// ListBoards - от новых к старым
func (s *Storage) ListBoards(ctx context.Context, f board.Filter) ([]*board.Board, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	search := strings.ToLower(f.Search)
	res := []*board.Board{}
	for i := len(s.st.boardIDs) - 1; i >= 0; i-- {
		b := s.st.boards[s.st.boardIDs[i]]
		if f.ActiveOnly && !b.IsActive {
			continue
		}
		if f.MemberID != nil && !s.st.matchesMember(b, *f.MemberID, f.Kind) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Name), search) &&
			!strings.Contains(strings.ToLower(b.Description), search) {
			continue
		}
		res = append(res, copyBoard(b))
	}
	return res, nil
}

func (st *state) matchesMember(b *board.Board, member uuid.UUID, kind board.ListKind) bool {
	owned := b.OwnerID == member
	switch kind {
	case board.ListOwned:
		return owned
	case board.ListShared:
		return !owned && st.grantFor(b.ID, member) != nil
	default:
		return owned || st.grantFor(b.ID, member) != nil
	}
}

func (st *state) grantFor(boardID, userID uuid.UUID) *board.Access {
	for _, a := range st.grants {
		if a.BoardID == boardID && a.UserID == userID {
			return a
		}
	}
	return nil
}

func (s *Storage) CountBoardsByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	n := 0
	for _, b := range s.st.boards {
		if b.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *Storage) CountActiveBoards(ctx context.Context) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	n := 0
	for _, b := range s.st.boards {
		if b.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Storage) CreateAccess(ctx context.Context, a *board.Access) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.grants[a.ID]; ok || s.st.grantFor(a.BoardID, a.UserID) != nil {
		return repo.ErrDuplicate
	}
	s.st.grants[a.ID] = copyAccess(a)
	s.st.grantIDs = append(s.st.grantIDs, a.ID)
	return nil
}

func (s *Storage) GetAccess(ctx context.Context, boardID, userID uuid.UUID) (*board.Access, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	a := s.st.grantFor(boardID, userID)
	if a == nil {
		return nil, repo.ErrNotFound
	}
	return copyAccess(a), nil
}

func (s *Storage) GetAccessByID(ctx context.Context, id uuid.UUID) (*board.Access, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	a, ok := s.st.grants[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyAccess(a), nil
}

// UpdateAccess меняет только флаги: пара (board, user) у записи постоянна
func (s *Storage) UpdateAccess(ctx context.Context, a *board.Access) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.st.grants[a.ID]
	if !ok {
		return repo.ErrNotFound
	}
	next := copyAccess(existing)
	next.CanEdit = a.CanEdit
	next.CanDelete = a.CanDelete
	s.st.grants[a.ID] = next
	return nil
}

func (s *Storage) DeleteAccess(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.grants[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.st.grants, id)
	s.st.grantIDs = removeID(s.st.grantIDs, id)
	return nil
}

// ListAccessByBoard - в порядке выдачи
func (s *Storage) ListAccessByBoard(ctx context.Context, boardID uuid.UUID) ([]*board.Access, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*board.Access{}
	for _, id := range s.st.grantIDs {
		a := s.st.grants[id]
		if a.BoardID == boardID {
			res = append(res, copyAccess(a))
		}
	}
	return res, nil
}

func (s *Storage) DeleteAccessByBoard(ctx context.Context, boardID uuid.UUID) error {
	return s.deleteGrants(func(a *board.Access) bool { return a.BoardID == boardID })
}

func (s *Storage) DeleteAccessByUser(ctx context.Context, userID uuid.UUID) error {
	return s.deleteGrants(func(a *board.Access) bool { return a.UserID == userID })
}

func (s *Storage) deleteGrants(match func(*board.Access) bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	kept := make([]uuid.UUID, 0, len(s.st.grantIDs))
	for _, id := range s.st.grantIDs {
		if match(s.st.grants[id]) {
			delete(s.st.grants, id)
			continue
		}
		kept = append(kept, id)
	}
	s.st.grantIDs = kept
	return nil
}
