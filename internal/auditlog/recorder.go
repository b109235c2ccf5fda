// Package auditlog пишет журнал изменений задач.
//
// Recorder не открывает транзакций сам: ему передают Appender, привязанный
// к транзакции операции, поэтому записи журнала фиксируются или
// откатываются вместе с изменением задачи.
package auditlog

import (
	"context"
	"fmt"
	"time"

	"taskBoard/internal/models/audit"
	"taskBoard/internal/models/task"
	"taskBoard/internal/models/user"

	"github.com/google/uuid"
)

type Appender interface {
	AppendAudit(ctx context.Context, entry *audit.Entry) error
}

type Recorder struct {
	now func() time.Time
}

type RecorderOption func(*Recorder)

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) RecordCreation(ctx context.Context, app Appender, t *task.Task, actor user.Actor) error {
	return r.append(ctx, app, t.ID, actor, audit.ActionCreated, nil)
}

// RecordFieldChanges пишет по одной строке updated на каждое изменившееся
// отслеживаемое поле и возвращает число записанных строк.
func (r *Recorder) RecordFieldChanges(ctx context.Context, app Appender, before, after Snapshot, t *task.Task, actor user.Actor) (int, error) {
	changes := Diff(before, after)
	for i := range changes {
		if err := r.append(ctx, app, t.ID, actor, audit.ActionUpdated, &changes[i]); err != nil {
			return i, err
		}
	}
	return len(changes), nil
}

func (r *Recorder) RecordCompletion(ctx context.Context, app Appender, t *task.Task, actor user.Actor) error {
	return r.append(ctx, app, t.ID, actor, audit.ActionCompleted, nil)
}

func (r *Recorder) RecordArchive(ctx context.Context, app Appender, t *task.Task, actor user.Actor) error {
	return r.append(ctx, app, t.ID, actor, audit.ActionArchived, nil)
}

func (r *Recorder) RecordDeletion(ctx context.Context, app Appender, t *task.Task, actor user.Actor) error {
	return r.append(ctx, app, t.ID, actor, audit.ActionDeleted, nil)
}

func (r *Recorder) append(ctx context.Context, app Appender, taskID uuid.UUID, actor user.Actor, action audit.Action, change *FieldChange) error {
	prov := ProvenanceFrom(ctx)
	entry := &audit.Entry{
		ID:        uuid.New(),
		TaskID:    taskID,
		UserID:    actor.ID,
		Action:    action,
		Timestamp: r.now().UTC(),
		IPAddress: prov.IP,
		UserAgent: prov.UserAgent,
	}
	if change != nil {
		field := change.Field
		entry.FieldName = &field
		entry.OldValue = change.Old
		entry.NewValue = change.New
	}

	if err := app.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("запись журнала (%s): %w", action, err)
	}
	return nil
}
