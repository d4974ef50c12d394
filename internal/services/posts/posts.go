// Package posts реализует публикации блога: CRUD для администратора,
// генерацию уникальных slug и выдачу контента с учётом подписки читателя.
package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
)

// previewLength максимальная длина превью премиум-публикации в символах.
const previewLength = 500

// cacheTTL время жизни закэшированной публикации.
const cacheTTL = 10 * time.Minute

// ErrPostNotFound возвращается, если публикация не найдена.
var ErrPostNotFound = errors.New("post not found")

// PostRepository описывает контракт хранилища публикаций.
type PostRepository interface {
	CreatePost(ctx context.Context, post models.Post) (string, error)
	GetPostByIDOrSlug(ctx context.Context, idOrSlug string) (*models.Post, error)
	ListPosts(ctx context.Context, limit int) ([]*models.Post, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	UpdatePost(ctx context.Context, post models.Post) (int, error)
	RemovePost(ctx context.Context, id string) (int, error)
}

// Cache описывает кэш для горячих публикаций. Сбои кэша не фатальны:
// сервис падает обратно на базу.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// PostService отдаёт публикации читателям и управляет ими от имени администратора.
type PostService struct {
	log   *slog.Logger
	posts PostRepository
	cache Cache
}

// NewPostService создает новый экземпляр PostService.
// Кэш может быть nil, тогда все чтения идут в базу.
func NewPostService(log *slog.Logger, posts PostRepository, cache Cache) *PostService {
	return &PostService{log: log, posts: posts, cache: cache}
}

// View строит представление публикации для читателя. Полный текст
// премиум-публикации доступен только подписчику; остальные видят первые
// 500 символов с многоточием. Короткий премиум-текст отдается целиком.
func View(p *models.Post, subscribed bool) models.PostView {
	content := p.Content
	if p.IsPremium && !subscribed {
		runes := []rune(content)
		if len(runes) > previewLength {
			content = string(runes[:previewLength]) + "..."
		}
	}
	return models.PostView{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Excerpt:   p.Excerpt,
		Content:   content,
		IsPremium: p.IsPremium,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// GetPost возвращает публикацию по ID или slug с учётом подписки читателя.
func (s *PostService) GetPost(ctx context.Context, idOrSlug string, subscribed bool) (*models.PostView, error) {
	const op = "posts.GetPost"

	post, err := s.cachedPost(ctx, idOrSlug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	view := View(post, subscribed)
	return &view, nil
}

func (s *PostService) cachedPost(ctx context.Context, idOrSlug string) (*models.Post, error) {
	key := "post:" + idOrSlug
	if s.cache != nil {
		var cached models.Post
		found, err := s.cache.Get(key, &cached)
		if err != nil {
			s.log.Warn("post cache read failed", sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	post, err := s.posts.GetPostByIDOrSlug(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(key, post, cacheTTL); err != nil {
			s.log.Warn("post cache write failed", sl.Err(err))
		}
	}
	return post, nil
}

func (s *PostService) invalidatePost(post *models.Post) {
	if s.cache == nil {
		return
	}
	for _, key := range []string{"post:" + post.ID, "post:" + post.Slug} {
		if err := s.cache.Invalidate(key); err != nil {
			s.log.Warn("post cache invalidation failed", sl.Err(err))
		}
	}
}

// ListPosts возвращает последние публикации с учётом подписки читателя.
func (s *PostService) ListPosts(ctx context.Context, limit int, subscribed bool) ([]models.PostView, error) {
	const op = "posts.ListPosts"

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	posts, err := s.posts.ListPosts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, View(p, subscribed))
	}
	return views, nil
}

// generateSlug строит уникальный slug из заголовка. При коллизии к базовому
// slug добавляется числовой суффикс -1, -2 и так далее. excludeID исключает
// собственную запись при обновлении.
func (s *PostService) generateSlug(ctx context.Context, title, excludeID string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 1; ; i++ {
		exists, err := s.posts.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// CreatePost создает публикацию с уникальным slug, сгенерированным из заголовка.
func (s *PostService) CreatePost(ctx context.Context, title, excerpt, content string, isPremium bool) (*models.Post, error) {
	const op = "posts.CreatePost"

	postSlug, err := s.generateSlug(ctx, title, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := time.Now().UTC()
	post := models.Post{
		ID:        uuid.New().String(),
		Title:     title,
		Slug:      postSlug,
		Excerpt:   excerpt,
		Content:   content,
		IsPremium: isPremium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &post, nil
}

// UpdatePost обновляет публикацию. При смене заголовка slug пересчитывается,
// собственная запись при проверке уникальности не учитывается.
func (s *PostService) UpdatePost(ctx context.Context, id, title, excerpt, content string, isPremium bool) (*models.Post, error) {
	const op = "posts.UpdatePost"

	existing, err := s.posts.GetPostByIDOrSlug(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	newSlug := existing.Slug
	if title != existing.Title {
		newSlug, err = s.generateSlug(ctx, title, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	updated := models.Post{
		ID:        existing.ID,
		Title:     title,
		Slug:      newSlug,
		Excerpt:   excerpt,
		Content:   content,
		IsPremium: isPremium,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	rows, err := s.posts.UpdatePost(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return nil, ErrPostNotFound
	}

	s.invalidatePost(existing)
	s.invalidatePost(&updated)
	return &updated, nil
}

// RemovePost удаляет публикацию по ID.
func (s *PostService) RemovePost(ctx context.Context, id string) error {
	const op = "posts.RemovePost"

	existing, err := s.posts.GetPostByIDOrSlug(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.posts.RemovePost(ctx, existing.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return ErrPostNotFound
	}
	s.invalidatePost(existing)
	return nil
}
