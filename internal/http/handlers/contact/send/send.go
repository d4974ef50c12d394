// Package send реализует HTTP-обработчик контактной формы: сообщение
// публикуется в очередь уведомлений и пересылается оператору по почте.
package send

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/streadway/amqp"

	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/rabbitmq"
)

// Request — сообщение с контактной формы
type Request struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	WhatsApp *string `json:"whatsapp,omitempty"`
	Message  string  `json:"message" validate:"required,min=5,max=5000"`
}

// Handler управляет HTTP-запросами контактной формы.
type Handler struct {
	log      *slog.Logger
	amqpCh   *amqp.Channel
	validate *validator.Validate
}

// New создает новый Handler. Канал amqpCh может быть nil:
// сообщения тогда только логируются.
func New(log *slog.Logger, amqpCh *amqp.Channel) *Handler {
	return &Handler{
		log:      log,
		amqpCh:   amqpCh,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отправить сообщение с контактной формы
// @Description Пересылает сообщение оператору сервиса.
// @Tags Contact
// @Accept  json
// @Produce  json
// @Param request body Request true "Сообщение"
// @Success 200 {object} response.Response "Сообщение принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /contact [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.contact.send"
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

	msg := models.ContactNotification{
		Name:     req.Name,
		Email:    req.Email,
		WhatsApp: req.WhatsApp,
		Message:  req.Message,
	}
	if h.amqpCh == nil {
		log.Warn("notifications broker is not connected, contact message dropped",
			slog.String("from", req.Email))
	} else if err := rabbitmq.PublishMessage(h.amqpCh, rabbitmq.NotificationsExchange, rabbitmq.RoutingContact, msg); err != nil {
		log.Error("failed to publish contact message", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to send message"))
		return
	}

	log.Info("contact message accepted", slog.String("from", req.Email))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "thank you, we will get back to you soon",
	}))
}
