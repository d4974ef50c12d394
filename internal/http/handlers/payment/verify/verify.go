// Package verify реализует HTTP-обработчик сверки оплаты: проверяет подпись
// провайдера и активирует подписку. Авторизация необязательна — ордер
// с отложенной регистрацией сверяется анонимно, ордер существующего
// пользователя требует токен владельца.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/faithbyexperiments/content-api/internal/http/middlewarectx"
	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/services/billing"
)

// Request — параметры подтверждения оплаты от провайдера
type Request struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// Service описывает интерфейс бизнес-логики сверки оплаты.
type Service interface {
	VerifyAndActivate(ctx context.Context, providerOrderID, providerPaymentID, signature string, authUserUID *string) (*billing.ActivationResult, error)
}

// Handler управляет HTTP-запросами на сверку оплаты.
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
// @Summary Подтвердить оплату
// @Description Проверяет подпись провайдера и активирует подписку. Повторная сверка оплаченного ордера идемпотентна.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Параметры подтверждения от провайдера"
// @Success 200 {object} response.Response "Результат активации"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неверная подпись"
// @Failure 401 {object} response.ErrorResponse "Требуется авторизация владельца ордера"
// @Failure 403 {object} response.ErrorResponse "Ордер принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Ордер не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.verify"
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

	var authUserUID *string
	if uid, ok := middlewarectx.UserUIDFromContext(r.Context()); ok {
		authUserUID = &uid
	}

	result, err := h.service.VerifyAndActivate(r.Context(), req.OrderID, req.PaymentID, req.Signature, authUserUID)
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		log.Warn("invalid payment signature", slog.String("order_id", req.OrderID))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payment signature"))
		return
	case errors.Is(err, billing.ErrOrderNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("order not found"))
		return
	case errors.Is(err, billing.ErrAuthRequired):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	case errors.Is(err, billing.ErrOrderOwnership):
		log.Warn("order ownership mismatch", slog.String("order_id", req.OrderID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("order belongs to another user"))
		return
	case err != nil:
		log.Error("failed to verify payment", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to verify payment"))
		return
	}

	data := map[string]any{
		"already_paid":      result.AlreadyPaid,
		"subscription_type": result.SubscriptionType,
	}
	if result.Token != "" {
		data["token"] = result.Token
	}
	log.Info("payment verified", slog.String("order_id", req.OrderID),
		slog.Bool("already_paid", result.AlreadyPaid))
	render.JSON(w, r, response.OKWithData(data))
}
