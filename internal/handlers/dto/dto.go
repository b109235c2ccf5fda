package dto

import (
	"time"

	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	BoardID                uuid.UUID     `json:"board_id"`
	Title                  string        `json:"title"`
	Description            string        `json:"description"`
	DueDate                *time.Time    `json:"due_date,omitempty"`
	Priority               task.Priority `json:"priority,omitempty"`
	Status                 task.Status   `json:"status,omitempty"`
	Tags                   []string      `json:"tags,omitempty"`
	AIGeneratedDescription bool          `json:"ai_generated_description"`
}

// UpdateTaskRequest - частичное обновление, отсутствующие поля не меняются.
// ClearDueDate снимает срок.
type UpdateTaskRequest struct {
	BoardID                *uuid.UUID     `json:"board_id,omitempty"`
	Title                  *string        `json:"title,omitempty"`
	Description            *string        `json:"description,omitempty"`
	DueDate                *time.Time     `json:"due_date,omitempty"`
	ClearDueDate           bool           `json:"clear_due_date,omitempty"`
	Priority               *task.Priority `json:"priority,omitempty"`
	Status                 *task.Status   `json:"status,omitempty"`
	Tags                   *[]string      `json:"tags,omitempty"`
	AIGeneratedDescription *bool          `json:"ai_generated_description,omitempty"`
}

// Options переводит запрос в опции задачи
func (r UpdateTaskRequest) Options() []task.TaskOption {
	var opts []task.TaskOption
	if r.BoardID != nil {
		opts = append(opts, task.WithBoard(*r.BoardID))
	}
	if r.Title != nil {
		opts = append(opts, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		opts = append(opts, task.WithDescription(*r.Description))
	}
	if r.ClearDueDate {
		opts = append(opts, task.WithDueDate(nil))
	} else if r.DueDate != nil {
		opts = append(opts, task.WithDueDate(r.DueDate))
	}
	if r.Priority != nil {
		opts = append(opts, task.WithPriority(*r.Priority))
	}
	if r.Status != nil {
		opts = append(opts, task.WithStatus(*r.Status))
	}
	if r.Tags != nil {
		opts = append(opts, task.WithTagNames(*r.Tags))
	}
	if r.AIGeneratedDescription != nil {
		opts = append(opts, task.WithAIGeneratedDescription(*r.AIGeneratedDescription))
	}
	return opts
}

type TaskResponse struct {
	ID                     uuid.UUID  `json:"id"`
	BoardID                uuid.UUID  `json:"board_id"`
	UserID                 uuid.UUID  `json:"user_id"`
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	DueDate                *time.Time `json:"due_date,omitempty"`
	Priority               string     `json:"priority"`
	Status                 string     `json:"status"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
	AIGeneratedDescription bool       `json:"ai_generated_description"`
	Tags                   []task.Tag `json:"tags"`
	IsOverdue              bool       `json:"is_overdue"`
}

func FromTask(t *task.Task, now time.Time) TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []task.Tag{}
	}
	return TaskResponse{
		ID:                     t.ID,
		BoardID:                t.BoardID,
		UserID:                 t.UserID,
		Title:                  t.Title,
		Description:            t.Description,
		DueDate:                t.DueDate,
		Priority:               string(t.Priority),
		Status:                 string(t.Status),
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
		CompletedAt:            t.CompletedAt,
		AIGeneratedDescription: t.AIGeneratedDescription,
		Tags:                   tags,
		IsOverdue:              t.IsOverdueAt(now),
	}
}

func FromTaskList(tasks []*task.Task, now time.Time) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now)
	}
	return result
}

type HistoryEntry struct {
	*audit.Entry
	Description string `json:"description"`
}

func FromHistory(entries []*audit.Entry) []HistoryEntry {
	result := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		result[i] = HistoryEntry{Entry: e, Description: e.Describe()}
	}
	return result
}

type CreateBoardRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     uuid.UUID   `json:"owner_id,omitempty"`
	Members     []uuid.UUID `json:"members,omitempty"`
}

type UpdateBoardRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type GrantAccessRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	CanEdit   bool      `json:"can_edit"`
	CanDelete bool      `json:"can_delete"`
}

type UpdateAccessRequest struct {
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *user.User `json:"user"`
}
