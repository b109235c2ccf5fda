package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	BoardID                uuid.UUID  `json:"board_id" db:"board_id"`
	UserID                 uuid.UUID  `json:"user_id" db:"user_id"`
	Title                  string     `json:"title" db:"title"`
	Description            string     `json:"description" db:"description"`
	DueDate                *time.Time `json:"due_date,omitempty" db:"due_date"`
	Priority               Priority   `json:"priority" db:"priority"`
	Status                 Status     `json:"status" db:"status"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt            *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	AIGeneratedDescription bool       `json:"ai_generated_description" db:"ai_generated_description"`
	Tags                   []Tag      `json:"tags"`
}

type Status string
type Priority string

const StatusPending Status = "pending"
const StatusInProgress Status = "in_progress"
const StatusCompleted Status = "completed"
const StatusArchived Status = "archived"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"
const PriorityUrgent Priority = "urgent"

const MaxTitleLength = 200

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Active - задача ещё в работе (pending или in_progress)
func (s Status) Active() bool {
	return s == StatusPending || s == StatusInProgress
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank - порядок сортировки по приоритету, urgent первым
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	case PriorityLow:
		return 4
	}
	return 5
}

// допустимые переходы статусов; из archived выхода нет
var transitions = map[Status]map[Status]bool{
	StatusPending:    {StatusInProgress: true, StatusCompleted: true, StatusArchived: true},
	StatusInProgress: {StatusPending: true, StatusCompleted: true, StatusArchived: true},
	StatusCompleted:  {StatusPending: true, StatusInProgress: true, StatusArchived: true},
	StatusArchived:   {},
}

// CanTransition сообщает, разрешён ли переход from -> to.
// Переход в тот же статус всегда разрешён.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	nexts, ok := transitions[from]
	if !ok {
		return false
	}
	return nexts[to]
}

// CompletedAtFor вычисляет completed_at после перехода from -> to.
// Вход в completed ставит now, выход из completed в активный статус
// очищает значение, вход в archived сохраняет или проставляет его.
func CompletedAtFor(from, to Status, current *time.Time, now time.Time) *time.Time {
	switch {
	case to == StatusCompleted && from != StatusCompleted:
		return timePtr(now)
	case to == StatusCompleted:
		if current == nil {
			return timePtr(now)
		}
		return current
	case to == StatusArchived:
		if current == nil {
			return timePtr(now)
		}
		return current
	case to.Active():
		return nil
	}
	return current
}

func (t *Task) IsOverdue() bool {
	return t.IsOverdueAt(time.Now())
}

// IsOverdueAt - срок задан, строго в прошлом и задача ещё активна
func (t *Task) IsOverdueAt(now time.Time) bool {
	if t.DueDate == nil || !t.Status.Active() {
		return false
	}
	return t.DueDate.Before(now)
}

// Clone возвращает независимую копию задачи, включая теги и указатели на время
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		c.DueDate = timePtr(*t.DueDate)
	}
	if t.CompletedAt != nil {
		c.CompletedAt = timePtr(*t.CompletedAt)
	}
	if t.Tags != nil {
		c.Tags = make([]Tag, len(t.Tags))
		copy(c.Tags, t.Tags)
	}
	return &c
}

func (t *Task) TagNames() []string {
	names := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		names = append(names, tag.Name)
	}
	return names
}

func timePtr(t time.Time) *time.Time {
	return &t
}
