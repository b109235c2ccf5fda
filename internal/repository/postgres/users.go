package postgres

import (
	"context"
	"fmt"
	"time"

	"taskBoard/internal/logger"
	"taskBoard/internal/models/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = `id, username, email, password_hash, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	start := time.Now()
	defer warnIfSlow("create_user", start)

	query := `INSERT INTO users (` + userColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		logger.Warn("Repository: Не удалось добавить пользователя", zap.Error(err))
		return fmt.Errorf("добавление пользователя: %w", mapErr(err))
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	start := time.Now()
	defer warnIfSlow("get_user", start)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", mapErr(err))
	}
	return u, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	start := time.Now()
	defer warnIfSlow("get_user_by_username", start)

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", mapErr(err))
	}
	return u, nil
}

func (s *Storage) UpdateUser(ctx context.Context, u *user.User) error {
	start := time.Now()
	defer warnIfSlow("update_user", start)

	query := `UPDATE users
			SET username = $1,
				email = $2,
				password_hash = $3,
				is_admin = $4,
				updated_at = $5
			WHERE id = $6`

	tag, err := s.db.Exec(ctx, query, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("обновление пользователя: %w", mapErr(err))
	}
	return affected(tag)
}

func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("delete_user", start)

	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить пользователя", err)
		return fmt.Errorf("удаление пользователя: %w", mapErr(err))
	}
	return affected(tag)
}

func (s *Storage) ListUsers(ctx context.Context, page, limit int) ([]*user.User, error) {
	start := time.Now()
	defer warnIfSlow("list_users", start)

	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + userColumns + ` FROM users
				ORDER BY created_at DESC
				LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err)
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование пользователя: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (s *Storage) CountRegularUsers(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM users WHERE NOT is_admin`)
}

func (s *Storage) count(ctx context.Context, query string, args ...any) (int, error) {
	start := time.Now()
	defer warnIfSlow("count", start)

	var n int
	if err := s.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("подсчёт: %w", err)
	}
	return n, nil
}
