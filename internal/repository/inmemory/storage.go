// Package inmemory - хранилище в памяти процесса. Используется в тестах
// сервисов и при repository.type: inmemory.
package inmemory

import (
	"context"
	"sync"

	"taskBoard/internal/logger"
	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/board"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"
	"taskBoard/internal/service"

	"github.com/google/uuid"
)

type state struct {
	users    map[uuid.UUID]*user.User
	userIDs  []uuid.UUID
	boards   map[uuid.UUID]*board.Board
	boardIDs []uuid.UUID
	grants   map[uuid.UUID]*board.Access
	grantIDs []uuid.UUID
	tasks    map[uuid.UUID]*task.Task
	taskIDs  []uuid.UUID
	tags     map[uuid.UUID]*task.Tag
	tagIDs   map[string]uuid.UUID
	taskTags map[uuid.UUID][]uuid.UUID
	audits   []*audit.Entry
}

func newState() *state {
	return &state{
		users:    make(map[uuid.UUID]*user.User),
		boards:   make(map[uuid.UUID]*board.Board),
		grants:   make(map[uuid.UUID]*board.Access),
		tasks:    make(map[uuid.UUID]*task.Task),
		tags:     make(map[uuid.UUID]*task.Tag),
		tagIDs:   make(map[string]uuid.UUID),
		taskTags: make(map[uuid.UUID][]uuid.UUID),
	}
}

// clone копирует мапы и срезы; сами записи не копируются, см. Storage
func (st *state) clone() *state {
	c := &state{
		users:    make(map[uuid.UUID]*user.User, len(st.users)),
		userIDs:  append([]uuid.UUID(nil), st.userIDs...),
		boards:   make(map[uuid.UUID]*board.Board, len(st.boards)),
		boardIDs: append([]uuid.UUID(nil), st.boardIDs...),
		grants:   make(map[uuid.UUID]*board.Access, len(st.grants)),
		grantIDs: append([]uuid.UUID(nil), st.grantIDs...),
		tasks:    make(map[uuid.UUID]*task.Task, len(st.tasks)),
		taskIDs:  append([]uuid.UUID(nil), st.taskIDs...),
		tags:     make(map[uuid.UUID]*task.Tag, len(st.tags)),
		tagIDs:   make(map[string]uuid.UUID, len(st.tagIDs)),
		taskTags: make(map[uuid.UUID][]uuid.UUID, len(st.taskTags)),
		audits:   append([]*audit.Entry(nil), st.audits...),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.boards {
		c.boards[k] = v
	}
	for k, v := range st.grants {
		c.grants[k] = v
	}
	for k, v := range st.tasks {
		c.tasks[k] = v
	}
	for k, v := range st.tags {
		c.tags[k] = v
	}
	for k, v := range st.tagIDs {
		c.tagIDs[k] = v
	}
	for k, v := range st.taskTags {
		c.taskTags[k] = append([]uuid.UUID(nil), v...)
	}
	return c
}

// Storage хранит записи по значению: наружу всегда отдаются копии,
// а изменения записываются новыми копиями, поэтому clone не обязан
// копировать сами структуры.
type Storage struct {
	st   *state
	mtx  *sync.RWMutex
	inTx bool
}

var _ service.Store = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		st:  newState(),
		mtx: &sync.RWMutex{},
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

// InTx выполняет fn над копией состояния и подменяет состояние только при успехе.
// На время транзакции хранилище заблокировано на запись и чтение.
func (s *Storage) InTx(ctx context.Context, fn func(service.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx := &Storage{
		st:   s.st.clone(),
		mtx:  &sync.RWMutex{},
		inTx: true,
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
