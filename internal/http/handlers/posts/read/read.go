// Package read реализует HTTP-обработчик чтения одной публикации по ID или slug.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/faithbyexperiments/content-api/internal/http/middlewarectx"
	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/services/posts"
)

// Service описывает интерфейс бизнес-логики чтения публикации.
type Service interface {
	GetPost(ctx context.Context, idOrSlug string, subscribed bool) (*models.PostView, error)
}

// UserService описывает интерфейс загрузки пользователя для определения подписки.
type UserService interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Handler управляет HTTP-запросами на чтение публикации.
type Handler struct {
	log     *slog.Logger
	service Service
	users   UserService
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, users UserService) *Handler {
	return &Handler{log: log, service: service, users: users}
}

// ServeHTTP godoc
// @Summary Прочитать публикацию
// @Description Возвращает публикацию по ID или slug. Полный текст премиум-публикации доступен только подписчикам.
// @Tags Posts
// @Produce  json
// @Param id path string true "ID или slug публикации"
// @Success 200 {object} response.Response "Публикация"
// @Failure 404 {object} response.ErrorResponse "Публикация не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /posts/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	idOrSlug := chi.URLParam(r, "id")
	if idOrSlug == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("post identifier is required"))
		return
	}

	subscribed := h.resolveSubscribed(r.Context(), log)
	view, err := h.service.GetPost(r.Context(), idOrSlug, subscribed)
	if errors.Is(err, posts.ErrPostNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("post not found"))
		return
	}
	if err != nil {
		log.Error("failed to read post", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read post"))
		return
	}

	render.JSON(w, r, response.OKWithData(view))
}

func (h *Handler) resolveSubscribed(ctx context.Context, log *slog.Logger) bool {
	userUID, ok := middlewarectx.UserUIDFromContext(ctx)
	if !ok {
		return false
	}
	user, err := h.users.GetUser(ctx, userUID)
	if err != nil {
		log.Warn("failed to load user for gating", sl.Err(err))
		return false
	}
	return user.IsSubscribed
}
