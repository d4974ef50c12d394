package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/faithbyexperiments/content-api/internal/models"
)

// CreateResetToken сохраняет новый токен восстановления пароля.
func (s *Storage) CreateResetToken(ctx context.Context, token models.ResetToken) error {
	const op = "storage.CreateResetToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO password_resets (token, user_uid, email, expires_at, used)
			  VALUES ($1, $2, $3, $4, false)`
	_, err := s.DB.ExecContext(ctx, query,
		token.Token, token.UserUID, token.Email, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetActiveResetToken возвращает ещё не использованный токен по его значению.
func (s *Storage) GetActiveResetToken(ctx context.Context, token string) (*models.ResetToken, error) {
	const op = "storage.GetActiveResetToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT token, user_uid, email, expires_at, used, created_at
			  FROM password_resets
			  WHERE token = $1 AND used = false`
	t := &models.ResetToken{}
	err := s.DB.QueryRowContext(ctx, query, token).Scan(
		&t.Token, &t.UserUID, &t.Email, &t.ExpiresAt, &t.Used, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// MarkResetTokenUsed помечает токен использованным. Возвращает количество
// затронутых строк: 0 означает, что токен уже был потреблён конкурентным запросом.
func (s *Storage) MarkResetTokenUsed(ctx context.Context, token string) (int, error) {
	const op = "storage.MarkResetTokenUsed"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE password_resets
			  SET used = true
			  WHERE token = $1 AND used = false`
	result, err := s.DB.ExecContext(ctx, query, token)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
