package worker

import (
	"context"
	"fmt"
	"time"

	"taskBoard/internal/logger"
	"taskBoard/internal/models/task"

	"go.uber.org/zap"
)

const defaultInterval = 5 * time.Minute
const defaultBatchSize = 100

// OverdueSource - выборка просроченных задач
type OverdueSource interface {
	ListOverdueTasks(ctx context.Context, now time.Time, limit int) ([]*task.Task, error)
}

// Notifier получает найденные просроченные задачи
type Notifier interface {
	NotifyOverdue(ctx context.Context, t *task.Task, overdueBy time.Duration) error
}

// LogNotifier пишет по строке в лог на каждую задачу
type LogNotifier struct{}

func (LogNotifier) NotifyOverdue(ctx context.Context, t *task.Task, overdueBy time.Duration) error {
	logger.Info("Worker: Задача просрочена",
		zap.String("task_id", t.ID.String()),
		zap.String("board_id", t.BoardID.String()),
		zap.String("title", t.Title),
		zap.String("status", string(t.Status)),
		zap.Duration("overdue_by", overdueBy))
	return nil
}

// OverdueWorker периодически ищет просроченные задачи.
// Задачи не меняет: просрочка вычисляется, а не хранится.
type OverdueWorker struct {
	source    OverdueSource
	notifier  Notifier
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

type Option func(*OverdueWorker)

func WithInterval(d time.Duration) Option {
	return func(w *OverdueWorker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *OverdueWorker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(w *OverdueWorker) {
		if n != nil {
			w.notifier = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *OverdueWorker) {
		w.now = now
	}
}

func NewOverdueWorker(source OverdueSource, opts ...Option) *OverdueWorker {
	w := &OverdueWorker{
		source:    source,
		notifier:  LogNotifier{},
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start крутит проверки до отмены контекста
func (w *OverdueWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка запущена", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая проверка задач на просроченность", zap.Time("started_at", w.now()))
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: Ошибка проверки", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return nil
		}
	}
}

// Check выполняет один проход и возвращает число найденных задач
func (w *OverdueWorker) Check(ctx context.Context) (int, error) {
	start := time.Now()
	now := w.now()

	tasks, err := w.source.ListOverdueTasks(ctx, now, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("получение просроченных задач: %w", err)
	}

	overdueCount := 0
	for _, t := range tasks {
		// выборка могла устареть, перепроверяем по модели
		if !t.IsOverdueAt(now) {
			continue
		}
		if err := w.notifier.NotifyOverdue(ctx, t, now.Sub(*t.DueDate)); err != nil {
			logger.Warn("Worker: Ошибка уведомления", zap.Error(err), zap.String("task_id", t.ID.String()))
			continue
		}
		overdueCount++
	}

	logger.Info(
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("overdue", overdueCount),
	)
	return overdueCount, nil
}
