package models

import "time"

// ResetToken токен восстановления пароля. Живет около часа,
// используется строго один раз: Used == true навсегда запрещает
// повторную смену пароля по этому токену.
type ResetToken struct {
	Token     string // Случайное неугадываемое значение (уникальное)
	UserUID   string
	Email     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
