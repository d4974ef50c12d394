// Package check реализует HTTP-обработчик ручного запуска свипа подписок.
// Фоновый свип идет раз в сутки; этот эндпоинт позволяет администратору
// запустить проход немедленно.
package check

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/services/expiry"
)

// Service описывает интерфейс свипа подписок.
type Service interface {
	Sweep(ctx context.Context, now time.Time) (*expiry.SweepReport, error)
}

// Handler управляет HTTP-запросами на ручной запуск свипа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить свип подписок
// @Description Деактивирует подписки с истекшим окном и возвращает отчет. Только для администратора.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Отчет свипа"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions/check-expiry-sync [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.expiry.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	report, err := h.service.Sweep(r.Context(), time.Now().UTC())
	if err != nil {
		log.Error("subscription sweep failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to run expiry sweep"))
		return
	}

	log.Info("subscription sweep finished",
		slog.Int("checked", report.Checked),
		slog.Int("deactivated", report.Deactivated))
	render.JSON(w, r, response.OKWithData(report))
}
