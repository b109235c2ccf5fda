package postgres

import (
	"context"
	"fmt"
	"time"

	"taskBoard/internal/logger"
	"taskBoard/internal/models/audit"

	"github.com/google/uuid"
)

// task_audits только дописывается: ни UPDATE, ни DELETE для журнала нет
func (s *Storage) AppendAudit(ctx context.Context, e *audit.Entry) error {
	start := time.Now()
	defer warnIfSlow("append_audit", start)

	query := `INSERT INTO task_audits
				(id, task_id, user_id, action, field_name, old_value, new_value, timestamp, ip_address, user_agent)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.Exec(ctx, query,
		e.ID,
		e.TaskID,
		e.UserID,
		e.Action,
		e.FieldName,
		e.OldValue,
		e.NewValue,
		e.Timestamp,
		e.IPAddress,
		e.UserAgent,
	)
	if err != nil {
		logger.Error("Repository: Не удалось записать журнал", err)
		return fmt.Errorf("запись журнала: %w", mapErr(err))
	}
	return nil
}

func (s *Storage) ListAuditByTask(ctx context.Context, taskID uuid.UUID) ([]*audit.Entry, error) {
	start := time.Now()
	defer warnIfSlow("list_audit", start)

	query := `SELECT id, task_id, user_id, action, field_name, old_value, new_value, timestamp, ip_address, user_agent
				FROM task_audits
				WHERE task_id = $1
				ORDER BY seq`

	rows, err := s.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение журнала: %w", err)
	}
	defer rows.Close()

	entries := []*audit.Entry{}
	for rows.Next() {
		e := &audit.Entry{}
		err := rows.Scan(
			&e.ID,
			&e.TaskID,
			&e.UserID,
			&e.Action,
			&e.FieldName,
			&e.OldValue,
			&e.NewValue,
			&e.Timestamp,
			&e.IPAddress,
			&e.UserAgent,
		)
		if err != nil {
			return nil, fmt.Errorf("сканирование журнала: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return entries, nil
}
