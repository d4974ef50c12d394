package models

// PurchaseNotification сообщение о покупке подписки,
// публикуется в очередь уведомлений после фиксации оплаты.
type PurchaseNotification struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Mobile           *string `json:"mobile,omitempty"`
	SubscriptionType string  `json:"subscription_type"`
	AmountRupees     string  `json:"amount"` // Сумма в рупиях, строкой
}

// ExpiryNotification сообщение об истечении подписки.
type ExpiryNotification struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Mobile           *string `json:"mobile,omitempty"`
	SubscriptionType string  `json:"subscription_type"`
}

// ResetNotification письмо со ссылкой на восстановление пароля.
type ResetNotification struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// ContactNotification заявка с контактной формы, пересылается оператору.
type ContactNotification struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	WhatsApp *string `json:"whatsapp,omitempty"`
	Message  string  `json:"message"`
}
