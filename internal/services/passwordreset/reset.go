// Package passwordreset реализует восстановление пароля по одноразовому
// токену, который отправляется пользователю на email.
package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/faithbyexperiments/content-api/internal/lib/password"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/rabbitmq"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
)

// tokenTTL время жизни токена восстановления.
const tokenTTL = time.Hour

// ErrInvalidToken возвращается для несуществующего, просроченного
// или уже использованного токена.
var ErrInvalidToken = errors.New("invalid or expired token")

// UserRepository описывает операции с пользователями для восстановления пароля.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userUID, passwordHash string) error
}

// TokenRepository описывает контракт хранилища токенов восстановления.
type TokenRepository interface {
	CreateResetToken(ctx context.Context, token models.ResetToken) error
	GetActiveResetToken(ctx context.Context, token string) (*models.ResetToken, error)
	MarkResetTokenUsed(ctx context.Context, token string) (int, error)
}

// ResetService отвечает за выдачу и потребление токенов восстановления пароля.
type ResetService struct {
	log            *slog.Logger
	users          UserRepository
	tokens         TokenRepository
	amqpCh         *amqp.Channel
	mailConfigured bool
}

// NewResetService создает новый экземпляр ResetService.
// При mailConfigured == false письмо не отправляется, а токен возвращается
// вызывающему напрямую для ручного тестирования.
func NewResetService(log *slog.Logger, users UserRepository, tokens TokenRepository,
	amqpCh *amqp.Channel, mailConfigured bool) *ResetService {
	return &ResetService{
		log:            log,
		users:          users,
		tokens:         tokens,
		amqpCh:         amqpCh,
		mailConfigured: mailConfigured,
	}
}

// RequestReset выдает токен восстановления и ставит письмо в очередь отправки.
// Для неизвестного email запрос завершается успехом без каких-либо действий:
// ответ не раскрывает, зарегистрирован ли адрес.
// Возвращаемый devToken непустой только при неподключенной почте.
func (s *ResetService) RequestReset(ctx context.Context, email string) (devToken string, err error) {
	const op = "passwordreset.RequestReset"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token := models.ResetToken{
		Token:     uuid.New().String(),
		UserUID:   user.UID,
		Email:     user.Email,
		ExpiresAt: time.Now().UTC().Add(tokenTTL),
	}
	if err := s.tokens.CreateResetToken(ctx, token); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !s.mailConfigured {
		s.log.Warn("mail is not configured, returning reset token to caller", slog.String("email", email))
		return token.Token, nil
	}

	if s.amqpCh != nil {
		msg := models.ResetNotification{Name: user.Name, Email: user.Email, Token: token.Token}
		if err := rabbitmq.PublishMessage(s.amqpCh, rabbitmq.NotificationsExchange, rabbitmq.RoutingReset, msg); err != nil {
			s.log.Error("failed to publish reset notification", sl.Err(err))
		}
	}
	return "", nil
}

// ValidateToken проверяет, что токен существует, не использован и не просрочен.
func (s *ResetService) ValidateToken(ctx context.Context, token string) error {
	const op = "passwordreset.ValidateToken"

	t, err := s.tokens.GetActiveResetToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return ErrInvalidToken
	}
	return nil
}

// ConfirmReset потребляет токен и устанавливает новый пароль.
// Токен помечается использованным до смены пароля: конкурентный запрос
// с тем же токеном получит отказ, а не вторую смену.
func (s *ResetService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	const op = "passwordreset.ConfirmReset"

	t, err := s.tokens.GetActiveResetToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return ErrInvalidToken
	}

	rows, err := s.tokens.MarkResetTokenUsed(ctx, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return ErrInvalidToken
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePasswordHash(ctx, t.UserUID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
