package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskBoard/internal/logger"
	"taskBoard/internal/models/task"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const taskColumns = `id, board_id, user_id, title, description, due_date, priority, status,
				created_at, updated_at, completed_at, ai_generated_description`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.ID,
		&t.BoardID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
		&t.AIGeneratedDescription,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer warnIfSlow("create_task", start)

	query := `INSERT INTO tasks (` + taskColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.Exec(ctx, query,
		t.ID,
		t.BoardID,
		t.UserID,
		t.Title,
		t.Description,
		t.DueDate,
		t.Priority,
		t.Status,
		t.CreatedAt,
		t.UpdatedAt,
		t.CompletedAt,
		t.AIGeneratedDescription,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", mapErr(err))
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("get_task", start)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("получение задачи: %w", mapErr(err))
	}

	if err := s.attachTags(ctx, []*task.Task{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask записывает поля задачи; метки меняются только через SetTaskTags
func (s *Storage) UpdateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer warnIfSlow("update_task", start)

	query := `UPDATE tasks
			SET board_id = $1,
				title = $2,
				description = $3,
				due_date = $4,
				priority = $5,
				status = $6,
				updated_at = $7,
				completed_at = $8,
				ai_generated_description = $9
			WHERE id = $10`

	tag, err := s.db.Exec(ctx, query,
		t.BoardID,
		t.Title,
		t.Description,
		t.DueDate,
		t.Priority,
		t.Status,
		t.UpdatedAt,
		t.CompletedAt,
		t.AIGeneratedDescription,
		t.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", mapErr(err))
	}
	return affected(tag)
}

func (s *Storage) DeleteTask(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("delete_task", start)

	if _, err := s.db.Exec(ctx, `DELETE FROM task_tags WHERE task_id = $1`, id); err != nil {
		return fmt.Errorf("удаление меток задачи: %w", err)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return fmt.Errorf("удаление задачи: %w", mapErr(err))
	}
	return affected(tag)
}

func (s *Storage) ListTasks(ctx context.Context, f task.Filter) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("list_tasks", start)

	if f.BoardIDs != nil && len(f.BoardIDs) == 0 {
		return []*task.Task{}, nil
	}

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.BoardIDs != nil {
		conds = append(conds, "board_id = ANY("+arg(f.BoardIDs)+")")
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.Priority != "" {
		conds = append(conds, "priority = "+arg(f.Priority))
	}
	if f.Search != "" {
		p := arg(likePattern(f.Search))
		conds = append(conds, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY ` + orderBy(f.Sort)
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset())
	}

	return s.queryTasks(ctx, query, args...)
}

func orderBy(field task.SortField) string {
	switch field {
	case task.SortDueDate:
		return `due_date ASC NULLS LAST, created_at DESC`
	case task.SortPriority:
		return `CASE priority
					WHEN 'urgent' THEN 1
					WHEN 'high' THEN 2
					WHEN 'medium' THEN 3
					WHEN 'low' THEN 4
					ELSE 5
				END, created_at DESC`
	}
	return `created_at DESC`
}

func (s *Storage) ListOverdueTasks(ctx context.Context, now time.Time, limit int) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("list_overdue_tasks", start)

	query := `SELECT ` + taskColumns + ` FROM tasks
				WHERE status IN ('pending', 'in_progress')
					AND due_date IS NOT NULL
					AND due_date < $1
				ORDER BY due_date ASC
				LIMIT $2`

	return s.queryTasks(ctx, query, now, limit)
}

func (s *Storage) CountTasks(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM tasks`)
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// attachTags подгружает метки одним запросом для всех задач
func (s *Storage) attachTags(ctx context.Context, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*task.Task, len(tasks))
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		t.Tags = []task.Tag{}
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	query := `SELECT tt.task_id, t.id, t.name, t.color
				FROM task_tags tt
				JOIN tags t ON t.id = tt.tag_id
				WHERE tt.task_id = ANY($1)
				ORDER BY tt.task_id, tt.position`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("получение меток: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID uuid.UUID
		var tag task.Tag
		if err := rows.Scan(&taskID, &tag.ID, &tag.Name, &tag.Color); err != nil {
			return fmt.Errorf("сканирование метки: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.Tags = append(t.Tags, tag)
		}
	}
	return rows.Err()
}

// GetOrCreateTag устойчив к гонке: при конфликте имени вставка пропускается,
// а метка читается уже зафиксированной
func (s *Storage) GetOrCreateTag(ctx context.Context, name string) (*task.Tag, error) {
	start := time.Now()
	defer warnIfSlow("get_or_create_tag", start)

	_, err := s.db.Exec(ctx,
		`INSERT INTO tags (id, name, color) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
		uuid.New(), name, task.DefaultTagColor)
	if err != nil {
		return nil, fmt.Errorf("создание метки: %w", mapErr(err))
	}

	tag := &task.Tag{}
	err = s.db.QueryRow(ctx, `SELECT id, name, color FROM tags WHERE name = $1`, name).
		Scan(&tag.ID, &tag.Name, &tag.Color)
	if err != nil {
		return nil, fmt.Errorf("получение метки: %w", mapErr(err))
	}
	return tag, nil
}

func (s *Storage) SetTaskTags(ctx context.Context, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("set_task_tags", start)

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, taskID).Scan(&exists); err != nil {
		return fmt.Errorf("проверка задачи: %w", err)
	}
	if !exists {
		return fmt.Errorf("привязка меток: %w", mapErr(pgx.ErrNoRows))
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM task_tags WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("очистка меток: %w", err)
	}
	for i, tagID := range tagIDs {
		_, err := s.db.Exec(ctx,
			`INSERT INTO task_tags (task_id, tag_id, position) VALUES ($1, $2, $3)`,
			taskID, tagID, i)
		if err != nil {
			return fmt.Errorf("привязка метки: %w", mapErr(err))
		}
	}
	return nil
}

func (s *Storage) ListTags(ctx context.Context) ([]*task.Tag, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("получение меток: %w", err)
	}
	defer rows.Close()

	tags := []*task.Tag{}
	for rows.Next() {
		tag := &task.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color); err != nil {
			return nil, fmt.Errorf("сканирование метки: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
