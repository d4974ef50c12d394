// Package config реализует HTTP-обработчик выдачи публичной конфигурации
// платежей: ключа провайдера для checkout и таблицы тарифов.
package config

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/faithbyexperiments/content-api/internal/http/response"
	"github.com/faithbyexperiments/content-api/internal/services/billing"
)

// Handler управляет HTTP-запросами на получение конфигурации платежей.
type Handler struct {
	log        *slog.Logger
	keyID      string
	configured bool
}

// New создает новый Handler. keyID может быть пустым, если платежи
// не сконфигурированы.
func New(log *slog.Logger, keyID string, configured bool) *Handler {
	return &Handler{log: log, keyID: keyID, configured: configured}
}

type planView struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

// ServeHTTP godoc
// @Summary Конфигурация платежей
// @Description Возвращает публичный ключ провайдера и таблицу тарифов для checkout.
// @Tags Payments
// @Produce  json
// @Success 200 {object} response.Response "Ключ и тарифы"
// @Router /payments/config [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	plans := []planView{
		{ID: billing.PlanMonthly, Amount: billing.Plans[billing.PlanMonthly].Amount, Currency: billing.Plans[billing.PlanMonthly].Currency},
		{ID: billing.PlanYearly, Amount: billing.Plans[billing.PlanYearly].Amount, Currency: billing.Plans[billing.PlanYearly].Currency},
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"configured": h.configured,
		"key_id":     h.keyID,
		"plans":      plans,
	}))
}
