// Package request реализует HTTP-обработчик запроса восстановления пароля.
//
// Ответ одинаков для известного и неизвестного email: эндпоинт не позволяет
// перебирать зарегистрированные адреса.
package request

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
)

// Request — входные данные для восстановления пароля
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики выдачи токена восстановления.
type Service interface {
	RequestReset(ctx context.Context, email string) (devToken string, err error)
}

// Handler управляет HTTP-запросами на восстановление пароля.
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
// @Summary Запросить восстановление пароля
// @Description Отправляет письмо со ссылкой на восстановление. Ответ не раскрывает, зарегистрирован ли email.
// @Tags PasswordReset
// @Accept  json
// @Produce  json
// @Param request body Request true "Email аккаунта"
// @Success 200 {object} response.Response "Запрос принят"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /password-reset/request [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.passwordreset.request"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	devToken, err := h.service.RequestReset(r.Context(), req.Email)
	if err != nil {
		log.Error("failed to request password reset", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to request password reset"))
		return
	}

	data := map[string]any{
		"message": "if the email is registered, a reset link has been sent",
	}
	if devToken != "" {
		data["dev_token"] = devToken
	}
	render.JSON(w, r, response.OKWithData(data))
}
