// Package validate реализует HTTP-обработчик предварительной проверки
// токена восстановления: фронт проверяет токен до показа формы нового пароля.
package validate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/services/passwordreset"
)

// Request — токен для проверки
type Request struct {
	Token string `json:"token" validate:"required"`
}

// Service описывает интерфейс проверки токена восстановления.
type Service interface {
	ValidateToken(ctx context.Context, token string) error
}

// Handler управляет HTTP-запросами на проверку токена восстановления.
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
// @Summary Проверить токен восстановления
// @Description Сообщает, действителен ли токен, без его потребления.
// @Tags PasswordReset
// @Accept  json
// @Produce  json
// @Param request body Request true "Токен восстановления"
// @Success 200 {object} response.Response "Результат проверки"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /password-reset/validate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.passwordreset.validate"
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

	err := h.service.ValidateToken(r.Context(), req.Token)
	if errors.Is(err, passwordreset.ErrInvalidToken) {
		render.JSON(w, r, response.OKWithData(map[string]any{"valid": false}))
		return
	}
	if err != nil {
		log.Error("failed to validate reset token", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to validate token"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"valid": true}))
}
