// Package pendingsignup реализует HTTP-обработчик создания платёжного ордера
// с отложенной регистрацией: покупатель еще не имеет аккаунта, его данные
// сохраняются в ордере и превращаются в аккаунт после подтверждения оплаты.
package pendingsignup

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
	"github.com/faithbyexperiments/content-api/internal/services/billing"
)

// Request — входные данные для ордера с отложенной регистрацией
type Request struct {
	PlanID   string  `json:"plan_id" validate:"required,oneof=monthly yearly"`
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Mobile   *string `json:"mobile,omitempty"`
}

// Service описывает интерфейс бизнес-логики отложенной регистрации.
type Service interface {
	CreatePendingSignupOrder(ctx context.Context, planID, name, email, rawPassword string, mobile *string) (*billing.CheckoutOrder, error)
}

// Handler управляет HTTP-запросами на создание ордеров с отложенной регистрацией.
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
// @Summary Создать ордер с отложенной регистрацией
// @Description Создает ордер для покупателя без аккаунта. Аккаунт будет создан после подтверждения оплаты.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Тариф и данные будущего аккаунта"
// @Success 200 {object} response.Response "Данные для checkout"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неизвестный тариф"
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/create-order-signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.pendingsignup"
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

	order, err := h.service.CreatePendingSignupOrder(r.Context(), req.PlanID, req.Name, req.Email, req.Password, req.Mobile)
	switch {
	case errors.Is(err, billing.ErrUnknownPlan):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown plan"))
		return
	case errors.Is(err, billing.ErrEmailTaken):
		log.Warn("email already registered", slog.String("email", req.Email))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("email already registered"))
		return
	case err != nil:
		log.Error("failed to create pending signup order", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create order"))
		return
	}

	log.Info("pending signup order created", slog.String("order_id", order.ProviderOrderID))
	render.JSON(w, r, response.OKWithData(order))
}
