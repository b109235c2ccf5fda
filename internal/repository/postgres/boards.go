package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskBoard/internal/logger"
	"taskBoard/internal/models/board"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const boardColumns = `b.id, b.name, b.description, b.owner_id, b.is_active, b.created_at, b.updated_at`
const accessColumns = `id, board_id, user_id, can_edit, can_delete, granted_by_id, granted_at`

func scanBoard(row pgx.Row) (*board.Board, error) {
	b := &board.Board{}
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.OwnerID, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanAccess(row pgx.Row) (*board.Access, error) {
	a := &board.Access{}
	err := row.Scan(&a.ID, &a.BoardID, &a.UserID, &a.CanEdit, &a.CanDelete, &a.GrantedByID, &a.GrantedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Storage) CreateBoard(ctx context.Context, b *board.Board) error {
	start := time.Now()
	defer warnIfSlow("create_board", start)

	query := `INSERT INTO boards (id, name, description, owner_id, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, query, b.ID, b.Name, b.Description, b.OwnerID, b.IsActive, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось добавить доску", err)
		return fmt.Errorf("добавление доски: %w", mapErr(err))
	}
	return nil
}

func (s *Storage) GetBoardByID(ctx context.Context, id uuid.UUID) (*board.Board, error) {
	start := time.Now()
	defer warnIfSlow("get_board", start)

	query := `SELECT ` + boardColumns + ` FROM boards b WHERE b.id = $1`
	b, err := scanBoard(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("получение доски: %w", mapErr(err))
	}
	return b, nil
}

func (s *Storage) UpdateBoard(ctx context.Context, b *board.Board) error {
	start := time.Now()
	defer warnIfSlow("update_board", start)

	query := `UPDATE boards
			SET name = $1,
				description = $2,
				is_active = $3,
				updated_at = $4
			WHERE id = $5`

	tag, err := s.db.Exec(ctx, query, b.Name, b.Description, b.IsActive, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("обновление доски: %w", mapErr(err))
	}
	return affected(tag)
}

func (s *Storage) DeleteBoard(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("delete_board", start)

	tag, err := s.db.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить доску", err)
		return fmt.Errorf("удаление доски: %w", mapErr(err))
	}
	return affected(tag)
}

func (s *Storage) ListBoards(ctx context.Context, f board.Filter) ([]*board.Board, error) {
	start := time.Now()
	defer warnIfSlow("list_boards", start)

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActiveOnly {
		conds = append(conds, "b.is_active")
	}
	if f.MemberID != nil {
		m := arg(*f.MemberID)
		shared := `EXISTS (SELECT 1 FROM board_access a WHERE a.board_id = b.id AND a.user_id = ` + m + `)`
		switch f.Kind {
		case board.ListOwned:
			conds = append(conds, "b.owner_id = "+m)
		case board.ListShared:
			conds = append(conds, "b.owner_id <> "+m+" AND "+shared)
		default:
			conds = append(conds, "(b.owner_id = "+m+" OR "+shared+")")
		}
	}
	if f.Search != "" {
		p := arg(likePattern(f.Search))
		conds = append(conds, "(b.name ILIKE "+p+" OR b.description ILIKE "+p+")")
	}

	query := `SELECT ` + boardColumns + ` FROM boards b`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY b.created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить доски", err)
		return nil, fmt.Errorf("получение досок: %w", err)
	}
	defer rows.Close()

	boards := []*board.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование доски: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return boards, nil
}

func (s *Storage) CountBoardsByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM boards WHERE owner_id = $1`, ownerID)
}

func (s *Storage) CountActiveBoards(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM boards WHERE is_active`)
}

func (s *Storage) CreateAccess(ctx context.Context, a *board.Access) error {
	start := time.Now()
	defer warnIfSlow("create_access", start)

	query := `INSERT INTO board_access (` + accessColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.Exec(ctx, query, a.ID, a.BoardID, a.UserID, a.CanEdit, a.CanDelete, a.GrantedByID, a.GrantedAt)
	if err != nil {
		return fmt.Errorf("выдача доступа: %w", mapErr(err))
	}
	return nil
}

func (s *Storage) GetAccess(ctx context.Context, boardID, userID uuid.UUID) (*board.Access, error) {
	start := time.Now()
	defer warnIfSlow("get_access", start)

	query := `SELECT ` + accessColumns + ` FROM board_access WHERE board_id = $1 AND user_id = $2`
	a, err := scanAccess(s.db.QueryRow(ctx, query, boardID, userID))
	if err != nil {
		return nil, fmt.Errorf("получение доступа: %w", mapErr(err))
	}
	return a, nil
}

func (s *Storage) GetAccessByID(ctx context.Context, id uuid.UUID) (*board.Access, error) {
	start := time.Now()
	defer warnIfSlow("get_access_by_id", start)

	query := `SELECT ` + accessColumns + ` FROM board_access WHERE id = $1`
	a, err := scanAccess(s.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("получение доступа: %w", mapErr(err))
	}
	return a, nil
}

func (s *Storage) UpdateAccess(ctx context.Context, a *board.Access) error {
	start := time.Now()
	defer warnIfSlow("update_access", start)

	tag, err := s.db.Exec(ctx,
		`UPDATE board_access SET can_edit = $1, can_delete = $2 WHERE id = $3`,
		a.CanEdit, a.CanDelete, a.ID)
	if err != nil {
		return fmt.Errorf("обновление доступа: %w", mapErr(err))
	}
	return affected(tag)
}

func (s *Storage) DeleteAccess(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("delete_access", start)

	tag, err := s.db.Exec(ctx, `DELETE FROM board_access WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("отзыв доступа: %w", mapErr(err))
	}
	return affected(tag)
}

func (s *Storage) ListAccessByBoard(ctx context.Context, boardID uuid.UUID) ([]*board.Access, error) {
	start := time.Now()
	defer warnIfSlow("list_access", start)

	query := `SELECT ` + accessColumns + ` FROM board_access
				WHERE board_id = $1
				ORDER BY granted_at, id`

	rows, err := s.db.Query(ctx, query, boardID)
	if err != nil {
		return nil, fmt.Errorf("получение доступов: %w", err)
	}
	defer rows.Close()

	grants := []*board.Access{}
	for rows.Next() {
		a, err := scanAccess(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование доступа: %w", err)
		}
		grants = append(grants, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return grants, nil
}

func (s *Storage) DeleteAccessByBoard(ctx context.Context, boardID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM board_access WHERE board_id = $1`, boardID); err != nil {
		return fmt.Errorf("удаление доступов доски: %w", err)
	}
	return nil
}

func (s *Storage) DeleteAccessByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM board_access WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("удаление доступов пользователя: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
