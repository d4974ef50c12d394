package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/faithbyexperiments/content-api/internal/models"
)

const postColumns = `id, title, slug, excerpt, content, is_premium, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	p := &models.Post{}
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content,
		&p.IsPremium, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePost вставляет новую публикацию и возвращает её ID.
func (s *Storage) CreatePost(ctx context.Context, post models.Post) (string, error) {
	const op = "storage.CreatePost"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO posts (id, title, slug, excerpt, content, is_premium)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Content, post.IsPremium).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPostByIDOrSlug возвращает публикацию по её ID, а если такой нет — по slug.
func (s *Storage) GetPostByIDOrSlug(ctx context.Context, idOrSlug string) (*models.Post, error) {
	const op = "storage.GetPostByIDOrSlug"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + postColumns + `
			  FROM posts
			  WHERE id::text = $1 OR slug = $1
			  LIMIT 1`
	p, err := scanPost(s.DB.QueryRowContext(ctx, query, idOrSlug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPosts возвращает публикации, сначала самые новые.
func (s *Storage) ListPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	const op = "storage.ListPosts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + postColumns + `
			  FROM posts
			  ORDER BY created_at DESC
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SlugExists проверяет, занят ли slug другой публикацией.
// excludeID исключает собственную запись при обновлении; пустая строка
// означает "проверить среди всех".
func (s *Storage) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	const op = "storage.SlugExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM posts WHERE slug = $1 AND id::text <> $2
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// UpdatePost обновляет публикацию по её ID и возвращает количество изменённых строк.
func (s *Storage) UpdatePost(ctx context.Context, post models.Post) (int, error) {
	const op = "storage.UpdatePost"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE posts
			  SET title = $1, slug = $2, excerpt = $3, content = $4,
			      is_premium = $5, updated_at = now()
			  WHERE id = $6`
	result, err := s.DB.ExecContext(ctx, query,
		post.Title, post.Slug, post.Excerpt, post.Content, post.IsPremium, post.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemovePost удаляет публикацию по ID и возвращает количество удалённых строк.
func (s *Storage) RemovePost(ctx context.Context, id string) (int, error) {
	const op = "storage.RemovePost"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM posts WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
