package models

import "time"

// Статусы платёжного ордера. Ордер создаётся один раз и ровно один раз
// переводится из created/pending_signup в paid.
const (
	// OrderStatusCreated — ордер существующего пользователя, ждет оплаты.
	OrderStatusCreated = "created"
	// OrderStatusPendingSignup — ордер с отложенной регистрацией:
	// аккаунт будет создан только после подтверждения оплаты.
	OrderStatusPendingSignup = "pending_signup"
	// OrderStatusPaid — оплата подтверждена, подписка активирована.
	OrderStatusPaid = "paid"
)

// Order представляет платёжный ордер у провайдера.
//
// Инварианты: status == pending_signup влечёт Pending != nil и UserUID == nil;
// status == paid влечёт UserUID != nil и Pending == nil (отложенные данные
// содержат хэш пароля и стираются при фулфилменте).
type Order struct {
	ID                string     // Внутренний идентификатор ордера
	ProviderOrderID   string     // Идентификатор ордера у провайдера (уникальный)
	UserUID           *string    // Владелец; nil до фулфилмента pending_signup ордера
	PlanID            string     // Тариф: monthly или yearly
	Amount            int        // Сумма в минимальных единицах валюты (пайсах)
	Currency          string     // Валюта, например INR
	Status            string     // created | pending_signup | paid
	ProviderPaymentID *string    // Идентификатор платежа у провайдера
	Pending           *PendingSignup // Отложенные данные регистрации
	CreatedAt         time.Time
	PaidAt            *time.Time
}

// PendingSignup данные будущего аккаунта, хранящиеся в ордере
// до подтверждения оплаты и потребляемые ровно один раз.
type PendingSignup struct {
	Name         string
	Email        string
	PasswordHash string
	Mobile       *string
}

// OrderView представление ордера для ответов API:
// отложенные данные регистрации наружу не отдаются никогда.
type OrderView struct {
	ID              string     `json:"id"`
	ProviderOrderID string     `json:"razorpay_order_id"`
	PlanID          string     `json:"plan_id"`
	Amount          int        `json:"amount"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
}

// View конвертирует Order в публичное представление.
func (o *Order) View() OrderView {
	return OrderView{
		ID:              o.ID,
		ProviderOrderID: o.ProviderOrderID,
		PlanID:          o.PlanID,
		Amount:          o.Amount,
		Currency:        o.Currency,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		PaidAt:          o.PaidAt,
	}
}
