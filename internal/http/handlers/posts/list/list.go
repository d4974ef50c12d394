// Package list реализует HTTP-обработчик списка публикаций.
//
// Авторизация необязательна: подписчик получает полный текст
// премиум-публикаций, остальные — усечённое превью.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/faithbyexperiments/content-api/internal/http/middlewarectx"
	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/models"
)

// Service описывает интерфейс бизнес-логики списка публикаций.
type Service interface {
	ListPosts(ctx context.Context, limit int, subscribed bool) ([]models.PostView, error)
}

// UserService описывает интерфейс загрузки пользователя для определения подписки.
type UserService interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Handler управляет HTTP-запросами на получение списка публикаций.
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
// @Summary Список публикаций
// @Description Возвращает последние публикации. Полный текст премиум-публикаций доступен только подписчикам.
// @Tags Posts
// @Produce  json
// @Param limit query int false "Максимум публикаций в ответе"
// @Success 200 {object} response.Response "Список публикаций"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /posts [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	subscribed := resolveSubscribed(r.Context(), h.users, log)
	views, err := h.service.ListPosts(r.Context(), limit, subscribed)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list posts"))
		return
	}

	render.JSON(w, r, response.OKWithData(views))
}

// resolveSubscribed определяет статус подписки читателя. Анонимный
// читатель и любой сбой загрузки пользователя трактуются как
// отсутствие подписки.
func resolveSubscribed(ctx context.Context, users UserService, log *slog.Logger) bool {
	userUID, ok := middlewarectx.UserUIDFromContext(ctx)
	if !ok {
		return false
	}
	user, err := users.GetUser(ctx, userUID)
	if err != nil {
		log.Warn("failed to load user for gating", sl.Err(err))
		return false
	}
	return user.IsSubscribed
}
