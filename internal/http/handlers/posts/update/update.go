// Package update реализует HTTP-обработчик обновления публикации администратором.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/services/posts"
)

// Request — входные данные для обновления публикации
type Request struct {
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Excerpt   string `json:"excerpt" validate:"max=500"`
	Content   string `json:"content" validate:"required"`
	IsPremium bool   `json:"is_premium"`
}

// Service описывает интерфейс бизнес-логики обновления публикации.
type Service interface {
	UpdatePost(ctx context.Context, id, title, excerpt, content string, isPremium bool) (*models.Post, error)
}

// Handler управляет HTTP-запросами на обновление публикаций.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновить публикацию
// @Description Обновляет публикацию. При смене заголовка slug пересчитывается. Только для администратора.
// @Tags Posts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID публикации"
// @Param request body Request true "Новые данные публикации"
// @Success 200 {object} response.Response "Обновленная публикация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Публикация не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /posts/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	post, err := h.service.UpdatePost(r.Context(), id, req.Title, req.Excerpt, req.Content, req.IsPremium)
	if errors.Is(err, posts.ErrPostNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("post not found"))
		return
	}
	if err != nil {
		log.Error("failed to update post", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update post"))
		return
	}

	log.Info("post updated", slog.String("post_id", post.ID), slog.String("slug", post.Slug))
	render.JSON(w, r, response.OKWithData(posts.View(post, true)))
}
