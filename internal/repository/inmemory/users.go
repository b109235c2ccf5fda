package inmemory

import (
	"context"

	"taskBoard/internal/models/user"
	repo "taskBoard/internal/repository"

	"github.com/google/uuid"
)

func copyUser(u *user.User) *user.User {
	c := *u
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// conflict - имя или email уже заняты другим пользователем
func (st *state) userConflict(u *user.User) bool {
	for _, other := range st.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username || other.Email == u.Email {
			return true
		}
	}
	return false
}

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.users[u.ID]; ok || s.st.userConflict(u) {
		return repo.ErrDuplicate
	}
	s.st.users[u.ID] = copyUser(u)
	s.st.userIDs = append(s.st.userIDs, u.ID)
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.st.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, u := range s.st.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Storage) UpdateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	if s.st.userConflict(u) {
		return repo.ErrDuplicate
	}
	s.st.users[u.ID] = copyUser(u)
	return nil
}

func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.st.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.st.users, id)
	s.st.userIDs = removeID(s.st.userIDs, id)
	return nil
}

// ListUsers - от новых к старым
func (s *Storage) ListUsers(ctx context.Context, page, limit int) ([]*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*user.User{}
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	for i := len(s.st.userIDs) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(res) >= limit {
			break
		}
		res = append(res, copyUser(s.st.users[s.st.userIDs[i]]))
	}
	return res, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.st.users), nil
}

func (s *Storage) CountRegularUsers(ctx context.Context) (int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	n := 0
	for _, u := range s.st.users {
		if !u.IsAdmin {
			n++
		}
	}
	return n, nil
}
