package auditlog

import (
	"time"

	"taskBoard/internal/models/task"
)

const FieldTitle = "title"
const FieldDescription = "description"
const FieldDueDate = "due_date"
const FieldPriority = "priority"
const FieldStatus = "status"

// TrackedFields - порядок, в котором пишутся строки изменений
var TrackedFields = []string{FieldTitle, FieldDescription, FieldDueDate, FieldPriority, FieldStatus}

// Snapshot - текстовые значения отслеживаемых полей задачи на момент времени.
// nil у строки срока означает "срок не задан".
type Snapshot struct {
	Title       string
	Description string
	DueDate     *string
	Priority    string
	Status      string
}

func SnapshotOf(t *task.Task) Snapshot {
	return Snapshot{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     FormatDueDate(t.DueDate),
		Priority:    string(t.Priority),
		Status:      string(t.Status),
	}
}

// FormatDueDate приводит срок к RFC 3339 в UTC, чтобы один и тот же момент
// в разных зонах не давал ложного изменения
func FormatDueDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.UTC().Format(time.RFC3339)
	return &s
}

type FieldChange struct {
	Field string
	Old   *string
	New   *string
}

// Diff сравнивает снимки в порядке TrackedFields
func Diff(before, after Snapshot) []FieldChange {
	var changes []FieldChange
	for _, field := range TrackedFields {
		o, n := before.value(field), after.value(field)
		if equal(o, n) {
			continue
		}
		changes = append(changes, FieldChange{Field: field, Old: o, New: n})
	}
	return changes
}

func (s Snapshot) value(field string) *string {
	switch field {
	case FieldTitle:
		return &s.Title
	case FieldDescription:
		return &s.Description
	case FieldDueDate:
		return s.DueDate
	case FieldPriority:
		return &s.Priority
	case FieldStatus:
		return &s.Status
	}
	return nil
}

func equal(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
