// Package trigger реализует HTTP-обработчик асинхронного запуска свипа
// подписок: проход стартует в фоне, ответ возвращается сразу.
package trigger

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

// Handler управляет HTTP-запросами на асинхронный запуск свипа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить свип подписок в фоне
// @Description Запускает деактивацию истекших подписок в фоне и сразу возвращает подтверждение. Только для администратора.
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Свип запущен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Router /subscriptions/check-expiry [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.expiry.trigger"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// Свип переживает запрос, поэтому не наследует его контекст
	go func() {
		report, err := h.service.Sweep(context.Background(), time.Now().UTC())
		if err != nil {
			log.Error("background subscription sweep failed", sl.Err(err))
			return
		}
		log.Info("background subscription sweep finished",
			slog.Int("checked", report.Checked),
			slog.Int("deactivated", report.Deactivated))
	}()

	log.Info("subscription sweep started")
	render.JSON(w, r, response.OKWithData(map[string]any{"started": true}))
}
