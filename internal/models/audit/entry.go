package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Action string

const ActionCreated Action = "created"
const ActionUpdated Action = "updated"
const ActionCompleted Action = "completed"
const ActionArchived Action = "archived"
const ActionDeleted Action = "deleted"

// Entry - неизменяемая запись журнала изменений задачи.
// Переживает удаление самой задачи.
type Entry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TaskID    uuid.UUID `json:"task_id" db:"task_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Action    Action    `json:"action" db:"action"`
	FieldName *string   `json:"field_name,omitempty" db:"field_name"`
	OldValue  *string   `json:"old_value,omitempty" db:"old_value"`
	NewValue  *string   `json:"new_value,omitempty" db:"new_value"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	IPAddress string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
}

// Describe - читаемое описание записи для истории задачи
func (e *Entry) Describe() string {
	switch e.Action {
	case ActionCreated:
		return "Task created"
	case ActionUpdated:
		if e.FieldName != nil {
			return fmt.Sprintf("Changed %s from '%s' to '%s'",
				strings.ReplaceAll(*e.FieldName, "_", " "), text(e.OldValue), text(e.NewValue))
		}
	case ActionCompleted:
		return "Task marked as completed"
	case ActionArchived:
		return "Task archived"
	case ActionDeleted:
		return "Task deleted"
	}
	return fmt.Sprintf("Action: %s", e.Action)
}

func text(v *string) string {
	if v == nil {
		return "None"
	}
	return *v
}
