// Package models содержит доменные структуры сервиса: пользователей,
// публикации, платёжные ордера и токены восстановления пароля.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
//
// Инвариант: если IsSubscribed == true, то SubscriptionType и
// SubscriptionEndAt заполнены, причём на момент установки флага
// SubscriptionEndAt лежит в будущем. Флаг снимает только expiry‑сервис.
type User struct {
	UID                   string     // Уникальный идентификатор пользователя
	Email                 string     // Электронная почта (уникальная)
	Name                  string     // Отображаемое имя
	PasswordHash          string     // Хэш пароля пользователя
	IsAdmin               bool       // Признак администратора
	IsSubscribed          bool       // Активна ли платная подписка
	SubscriptionType      *string    // Тариф подписки: monthly или yearly
	Mobile                *string    // Телефон для SMS-уведомлений
	SubscriptionStartedAt *time.Time // Начало оплаченного периода
	SubscriptionEndAt     *time.Time // Конец оплаченного периода
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// UserInfo публичное представление пользователя для ответов API,
// без хэша пароля и служебных полей.
type UserInfo struct {
	UID              string  `json:"id"`
	Email            string  `json:"email"`
	Name             string  `json:"name"`
	IsAdmin          bool    `json:"is_admin"`
	IsSubscribed     bool    `json:"is_subscribed"`
	SubscriptionType *string `json:"subscription_type"`
}

// Info конвертирует User в публичное представление.
func (u *User) Info() UserInfo {
	return UserInfo{
		UID:              u.UID,
		Email:            u.Email,
		Name:             u.Name,
		IsAdmin:          u.IsAdmin,
		IsSubscribed:     u.IsSubscribed,
		SubscriptionType: u.SubscriptionType,
	}
}
