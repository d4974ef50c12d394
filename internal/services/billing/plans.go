package billing

import "time"

// Идентификаторы тарифов подписки.
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

// Plan описывает тариф подписки: цену в минимальных единицах валюты
// и фиксированную длительность окна подписки.
type Plan struct {
	ID       string
	Amount   int    // в пайсах
	Currency string
	Duration time.Duration
}

// Plans статическая таблица тарифов. Цены заданы в пайсах:
// 49900 = 499 рупий, 499900 = 4999 рупий.
var Plans = map[string]Plan{
	PlanMonthly: {ID: PlanMonthly, Amount: 49900, Currency: "INR", Duration: 30 * 24 * time.Hour},
	PlanYearly:  {ID: PlanYearly, Amount: 499900, Currency: "INR", Duration: 365 * 24 * time.Hour},
}
