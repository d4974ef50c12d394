// Package expiry реализует периодическую деактивацию истекших подписок.
// Свип идемпотентен: обработанный пользователь теряет флаг подписки
// и в следующую выборку уже не попадает.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/rabbitmq"
)

// sweepInterval период фонового свипа.
const sweepInterval = 24 * time.Hour

// UserRepository описывает операции с пользователями для свипа подписок.
type UserRepository interface {
	FindExpiredSubscribers(ctx context.Context, now time.Time) ([]*models.User, error)
	DeactivateSubscription(ctx context.Context, userUID string, now time.Time) error
}

// SweepReport итог одного прохода свипа.
type SweepReport struct {
	Checked     int      `json:"checked"`
	Deactivated int      `json:"deactivated"`
	Failed      int      `json:"failed"`
	Emails      []string `json:"emails,omitempty"`
}

// ExpiryService деактивирует подписки с истекшим окном действия.
type ExpiryService struct {
	log    *slog.Logger
	users  UserRepository
	amqpCh *amqp.Channel
}

// NewExpiryService создает новый экземпляр ExpiryService.
func NewExpiryService(log *slog.Logger, users UserRepository, amqpCh *amqp.Channel) *ExpiryService {
	return &ExpiryService{log: log, users: users, amqpCh: amqpCh}
}

// Sweep находит пользователей с истекшей подпиской и снимает флаг подписки.
// Тариф и окно остаются в записи как история. Сбой на одном пользователе
// не прерывает проход: остальные обрабатываются дальше.
func (s *ExpiryService) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	const op = "expiry.Sweep"

	expired, err := s.users.FindExpiredSubscribers(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &SweepReport{Checked: len(expired)}
	for _, user := range expired {
		if err := s.users.DeactivateSubscription(ctx, user.UID, now); err != nil {
			report.Failed++
			s.log.Error("failed to deactivate subscription",
				slog.String("user_uid", user.UID), sl.Err(err))
			continue
		}
		report.Deactivated++
		report.Emails = append(report.Emails, user.Email)
		s.publishExpiry(user)
	}
	return report, nil
}

// publishExpiry отправляет уведомление об истечении подписки в очередь.
// Сбой публикации не откатывает деактивацию и только логируется.
func (s *ExpiryService) publishExpiry(user *models.User) {
	if s.amqpCh == nil {
		return
	}
	subType := ""
	if user.SubscriptionType != nil {
		subType = *user.SubscriptionType
	}
	msg := models.ExpiryNotification{
		Name:             user.Name,
		Email:            user.Email,
		Mobile:           user.Mobile,
		SubscriptionType: subType,
	}
	if err := rabbitmq.PublishMessage(s.amqpCh, rabbitmq.NotificationsExchange, rabbitmq.RoutingExpiry, msg); err != nil {
		s.log.Error("failed to publish expiry notification", sl.Err(err))
	}
}

// Run запускает периодический свип до отмены контекста.
// Первый проход выполняется сразу при старте.
func (s *ExpiryService) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ExpiryService) runOnce(ctx context.Context) {
	report, err := s.Sweep(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error("subscription sweep failed", sl.Err(err))
		return
	}
	s.log.Info("subscription sweep finished",
		slog.Int("checked", report.Checked),
		slog.Int("deactivated", report.Deactivated),
		slog.Int("failed", report.Failed))
}
