package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskBoard/internal/config"
	"taskBoard/internal/logger"
	repo "taskBoard/internal/repository"
	"taskBoard/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

// querier - общее у пула и транзакции
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage работает либо поверх пула, либо внутри транзакции (pool == nil)
type Storage struct {
	pool *pgxpool.Pool
	db   querier
}

var _ service.Store = (*Storage)(nil)

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnIdleTime = time.Minute * 5
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = int32(cfg.MinConnections)
	}
	if cfg.IdleTimeout > 0 {
		poolCfg.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL",
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Storage{pool: pool, db: pool}, nil
}

func (s *Storage) Close() {
	if s.pool == nil {
		return
	}
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// InTx открывает транзакцию read committed. Вложенный вызов выполняется
// в уже открытой транзакции.
func (s *Storage) InTx(ctx context.Context, fn func(service.Repository) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return fmt.Errorf("открытие транзакции: %w", err)
	}

	if err := fn(&Storage{db: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error("Repository: Не удалось откатить транзакцию", rbErr)
			return multierr.Append(err, fmt.Errorf("откат транзакции: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	return nil
}

// mapErr переводит ошибки драйвера в ошибки пакета repository
func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", repo.ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", repo.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func warnIfSlow(op string, start time.Time) {
	if d := time.Since(start); d > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.String("op", op), zap.Duration("ms", d))
	}
}

// affected возвращает ErrNotFound, если команда не затронула ни одной строки
func affected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
