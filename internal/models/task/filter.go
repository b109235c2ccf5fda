package task

import (
	"time"

	"github.com/google/uuid"
)

type SortField string

const SortCreatedAt SortField = "created_at"
const SortDueDate SortField = "due_date"
const SortPriority SortField = "priority"

// Filter - параметры выборки задач.
// BoardIDs == nil означает любые доски, пустой не-nil срез - ни одной.
// Limit <= 0 - без ограничения, пустой Sort - по created_at от новых к старым.
type Filter struct {
	BoardIDs []uuid.UUID
	Status   Status
	Priority Priority
	Search   string
	Sort     SortField
	Page     int
	Limit    int
}

func (f Filter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Stats - сводка по задачам доски
type Stats struct {
	Total          int     `json:"total_tasks"`
	Completed      int     `json:"completed_tasks"`
	Pending        int     `json:"pending_tasks"`
	InProgress     int     `json:"in_progress_tasks"`
	Overdue        int     `json:"overdue_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// Summarize считает сводку по уже загруженным задачам
func Summarize(tasks []*Task, now time.Time) Stats {
	var st Stats
	for _, t := range tasks {
		st.Total++
		switch t.Status {
		case StatusCompleted:
			st.Completed++
		case StatusPending:
			st.Pending++
		case StatusInProgress:
			st.InProgress++
		}
		if t.IsOverdueAt(now) {
			st.Overdue++
		}
	}
	if st.Total > 0 {
		rate := float64(st.Completed) / float64(st.Total) * 100
		st.CompletionRate = float64(int(rate*10+0.5)) / 10
	}
	return st
}
