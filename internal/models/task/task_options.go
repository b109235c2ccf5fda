package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = strings.TrimSpace(title)
	}
}

// пустое описание - валидное значение, им описание очищается
func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

// nil снимает срок
func WithDueDate(dueDate *time.Time) TaskOption {
	return func(task *Task) {
		if dueDate == nil {
			task.DueDate = nil
			return
		}
		d := *dueDate
		task.DueDate = &d
	}
}

func WithBoard(boardID uuid.UUID) TaskOption {
	if boardID == uuid.Nil {
		return nil
	}
	return func(task *Task) {
		task.BoardID = boardID
	}
}

// WithTagNames заменяет набор тегов; id и цвет подставит сервис
func WithTagNames(names []string) TaskOption {
	return func(task *Task) {
		task.Tags = make([]Tag, 0, len(names))
		for _, name := range names {
			task.Tags = append(task.Tags, Tag{Name: name})
		}
	}
}

func WithAIGeneratedDescription(generated bool) TaskOption {
	return func(task *Task) {
		task.AIGeneratedDescription = generated
	}
}
