// Package remove реализует HTTP-обработчик удаления публикации администратором.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/services/posts"
)

// Service описывает интерфейс бизнес-логики удаления публикации.
type Service interface {
	RemovePost(ctx context.Context, id string) error
}

// Handler управляет HTTP-запросами на удаление публикаций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить публикацию
// @Description Удаляет публикацию по ID. Только для администратора.
// @Tags Posts
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID публикации"
// @Success 200 {object} response.Response "Публикация удалена"
// @Failure 404 {object} response.ErrorResponse "Публикация не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /posts/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	err := h.service.RemovePost(r.Context(), id)
	if errors.Is(err, posts.ErrPostNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("post not found"))
		return
	}
	if err != nil {
		log.Error("failed to remove post", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to remove post"))
		return
	}

	log.Info("post removed", slog.String("post_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{"deleted": true}))
}
