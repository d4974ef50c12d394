package paymentprovider

// CreateOrderRequest запрос на создание ордера у Razorpay.
// Сумма указывается в минимальных единицах валюты (пайсах).
type CreateOrderRequest struct {
	Amount         int               `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

// CreateOrderResponse ответ Razorpay при создании ордера.
type CreateOrderResponse struct {
	ID       string `json:"id"` // идентификатор ордера у провайдера
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}
