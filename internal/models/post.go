package models

import "time"

// Post представляет публикацию блога.
//
// Slug уникален и генерируется из заголовка; при смене заголовка
// он пересчитывается с тем же разрешением коллизий.
type Post struct {
	ID        string    // Уникальный идентификатор публикации
	Title     string    // Заголовок
	Slug      string    // URL-идентификатор (уникальный)
	Excerpt   string    // Короткая аннотация
	Content   string    // Полный текст публикации
	IsPremium bool      // Доступен ли полный текст только подписчикам
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostView представление публикации для ответов API. Поле Content
// может содержать усечённый текст в зависимости от подписки читателя.
type PostView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content"`
	IsPremium bool   `json:"is_premium"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
