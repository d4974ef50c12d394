// Package checkuser реализует HTTP-обработчик проверки, зарегистрирован ли email.
// Используется фронтом перед оформлением покупки, чтобы выбрать между
// обычным ордером и ордером с отложенной регистрацией.
package checkuser

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
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
)

// Request — входные данные для проверки email
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс поиска пользователя по email.
type Service interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Handler управляет HTTP-запросами на проверку email.
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
// @Summary Проверить, зарегистрирован ли email
// @Description Возвращает признак существования аккаунта с указанным email.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email для проверки"
// @Success 200 {object} response.Response "Признак существования аккаунта"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/check-user [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.checkuser"
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

	_, err := h.service.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		render.JSON(w, r, response.OKWithData(map[string]any{"exists": false}))
		return
	}
	if err != nil {
		log.Error("failed to check user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to check user"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"exists": true}))
}
