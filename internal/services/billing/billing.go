// Package billing реализует платёжный контур: создание ордеров у провайдера,
// сверку подписи оплаты и активацию подписки. Активация идемпотентна:
// повторная сверка уже оплаченного ордера завершается успехом без побочных
// эффектов.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/faithbyexperiments/content-api/internal/lib/jwt"
	"github.com/faithbyexperiments/content-api/internal/lib/password"
	"github.com/faithbyexperiments/content-api/internal/lib/sl"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/paymentprovider"
	"github.com/faithbyexperiments/content-api/internal/rabbitmq"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
	"github.com/streadway/amqp"
)

// Ошибки бизнес-уровня платёжного контура.
var (
	// ErrUnknownPlan возвращается при запросе несуществующего тарифа.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrEmailTaken возвращается при отложенной регистрации на занятый email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidSignature возвращается при несовпадении подписи оплаты.
	// До успешной проверки подписи никакие записи не изменяются.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrOrderNotFound возвращается, если ордер провайдера неизвестен сервису.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAuthRequired возвращается при сверке ордера существующего
	// пользователя без авторизации.
	ErrAuthRequired = errors.New("authentication required")
	// ErrOrderOwnership возвращается при попытке сверить чужой ордер.
	ErrOrderOwnership = errors.New("order belongs to another user")
)

// OrderRepository описывает контракт хранилища ордеров.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order models.Order) (string, error)
	GetOrderByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, providerOrderID, providerPaymentID, userUID string, paidAt time.Time) error
	ListOrdersByUser(ctx context.Context, userUID string, limit int) ([]*models.Order, error)
}

// UserRepository описывает операции с пользователями, нужные платёжному контуру.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ActivateSubscription(ctx context.Context, userUID, planID string, startedAt, endAt time.Time) error
}

// PaymentProvider описывает операции платёжного провайдера.
type PaymentProvider interface {
	CreateOrder(ctx context.Context, reqParams paymentprovider.CreateOrderRequest) (*paymentprovider.CreateOrderResponse, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// BillingService отвечает за создание ордеров и активацию подписки по оплате.
type BillingService struct {
	log           *slog.Logger
	orders        OrderRepository
	users         UserRepository
	provider      PaymentProvider
	jwtMaker      jwt.Maker
	amqpCh        *amqp.Channel
	operatorEmail string
}

// NewBillingService создает новый экземпляр BillingService.
// Канал amqpCh может быть nil: уведомления о покупке тогда не публикуются.
func NewBillingService(log *slog.Logger, orders OrderRepository, users UserRepository,
	provider PaymentProvider, jwtMaker jwt.Maker, amqpCh *amqp.Channel, operatorEmail string) *BillingService {
	return &BillingService{
		log:           log,
		orders:        orders,
		users:         users,
		provider:      provider,
		jwtMaker:      jwtMaker,
		amqpCh:        amqpCh,
		operatorEmail: operatorEmail,
	}
}

// CheckoutOrder данные для инициализации checkout на фронте.
type CheckoutOrder struct {
	ProviderOrderID string `json:"order_id"`
	Amount          int    `json:"amount"`
	Currency        string `json:"currency"`
	PlanID          string `json:"plan_id"`
	KeyID           string `json:"key_id"`
}

// CreateOrder создает ордер провайдера для существующего пользователя.
func (s *BillingService) CreateOrder(ctx context.Context, userUID, planID string) (*CheckoutOrder, error) {
	const op = "billing.CreateOrder"

	plan, ok := Plans[planID]
	if !ok {
		return nil, ErrUnknownPlan
	}
	if _, err := s.users.GetUser(ctx, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.provider.CreateOrder(ctx, paymentprovider.CreateOrderRequest{
		Amount:         plan.Amount,
		Currency:       plan.Currency,
		Receipt:        uuid.New().String(),
		PaymentCapture: 1,
		Notes:          map[string]string{"plan_id": plan.ID},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order := models.Order{
		ID:              uuid.New().String(),
		ProviderOrderID: resp.ID,
		UserUID:         &userUID,
		PlanID:          plan.ID,
		Amount:          plan.Amount,
		Currency:        plan.Currency,
		Status:          models.OrderStatusCreated,
	}
	if _, err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &CheckoutOrder{
		ProviderOrderID: resp.ID,
		Amount:          plan.Amount,
		Currency:        plan.Currency,
		PlanID:          plan.ID,
		KeyID:           s.provider.KeyID(),
	}, nil
}

// CreatePendingSignupOrder создает ордер с отложенной регистрацией:
// аккаунта еще нет, данные будущего пользователя (включая хэш пароля)
// сохраняются в ордере и потребляются при фулфилменте.
func (s *BillingService) CreatePendingSignupOrder(ctx context.Context, planID, name, email, rawPassword string, mobile *string) (*CheckoutOrder, error) {
	const op = "billing.CreatePendingSignupOrder"

	plan, ok := Plans[planID]
	if !ok {
		return nil, ErrUnknownPlan
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.provider.CreateOrder(ctx, paymentprovider.CreateOrderRequest{
		Amount:         plan.Amount,
		Currency:       plan.Currency,
		Receipt:        uuid.New().String(),
		PaymentCapture: 1,
		Notes:          map[string]string{"plan_id": plan.ID, "flow": "pending_signup"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order := models.Order{
		ID:              uuid.New().String(),
		ProviderOrderID: resp.ID,
		PlanID:          plan.ID,
		Amount:          plan.Amount,
		Currency:        plan.Currency,
		Status:          models.OrderStatusPendingSignup,
		Pending: &models.PendingSignup{
			Name:         name,
			Email:        email,
			PasswordHash: hashed,
			Mobile:       mobile,
		},
	}
	if _, err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &CheckoutOrder{
		ProviderOrderID: resp.ID,
		Amount:          plan.Amount,
		Currency:        plan.Currency,
		PlanID:          plan.ID,
		KeyID:           s.provider.KeyID(),
	}, nil
}

// ActivationResult итог сверки оплаты.
type ActivationResult struct {
	// AlreadyPaid true, если ордер был оплачен раньше: повторная сверка
	// ничего не меняет.
	AlreadyPaid bool
	// Token непустой только для ветки отложенной регистрации:
	// свежесозданный аккаунт сразу получает JWT.
	Token string
	// UserUID владелец ордера после активации.
	UserUID string
	// SubscriptionType тариф активированной подписки из ордера.
	SubscriptionType string
}

// VerifyAndActivate сверяет подпись оплаты и активирует подписку.
//
// Порядок фиксированный: подпись проверяется до любых изменений, запись
// аккаунта обновляется раньше перевода ордера в paid. Если процесс упадет
// между этими шагами, повторная сверка безопасно доведет ордер до конца.
// Для ордеров существующих пользователей требуется авторизация владельца
// (authUserUID), для отложенной регистрации — нет.
func (s *BillingService) VerifyAndActivate(ctx context.Context, providerOrderID, providerPaymentID, signature string, authUserUID *string) (*ActivationResult, error) {
	const op = "billing.VerifyAndActivate"

	if !s.provider.VerifySignature(providerOrderID, providerPaymentID, signature) {
		return nil, ErrInvalidSignature
	}

	order, err := s.orders.GetOrderByProviderOrderID(ctx, providerOrderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if order.Status == models.OrderStatusPaid {
		res := &ActivationResult{AlreadyPaid: true, SubscriptionType: order.PlanID}
		if order.UserUID != nil {
			res.UserUID = *order.UserUID
		}
		return res, nil
	}

	plan, ok := Plans[order.PlanID]
	if !ok {
		return nil, ErrUnknownPlan
	}
	now := time.Now().UTC()
	endAt := now.Add(plan.Duration)

	switch order.Status {
	case models.OrderStatusPendingSignup:
		return s.fulfillPendingSignup(ctx, order, plan, providerPaymentID, now, endAt)
	default:
		return s.fulfillCreated(ctx, order, plan, providerPaymentID, authUserUID, now, endAt)
	}
}

func (s *BillingService) fulfillPendingSignup(ctx context.Context, order *models.Order, plan Plan,
	providerPaymentID string, now, endAt time.Time) (*ActivationResult, error) {
	const op = "billing.fulfillPendingSignup"

	pending := order.Pending
	if pending == nil {
		return nil, fmt.Errorf("%s: order %s has no pending signup data", op, order.ID)
	}

	user := models.User{
		UID:                   uuid.New().String(),
		Email:                 pending.Email,
		Name:                  pending.Name,
		PasswordHash:          pending.PasswordHash,
		Mobile:                pending.Mobile,
		IsAdmin:               s.operatorEmail != "" && strings.EqualFold(pending.Email, s.operatorEmail),
		IsSubscribed:          true,
		SubscriptionType:      &plan.ID,
		SubscriptionStartedAt: &now,
		SubscriptionEndAt:     &endAt,
	}
	if _, err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.orders.MarkOrderPaid(ctx, order.ProviderOrderID, providerPaymentID, user.UID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publishPurchase(models.PurchaseNotification{
		Name:             user.Name,
		Email:            user.Email,
		Mobile:           user.Mobile,
		SubscriptionType: plan.ID,
		AmountRupees:     strconv.Itoa(order.Amount / 100),
	})

	return &ActivationResult{Token: token, UserUID: user.UID, SubscriptionType: plan.ID}, nil
}

func (s *BillingService) fulfillCreated(ctx context.Context, order *models.Order, plan Plan,
	providerPaymentID string, authUserUID *string, now, endAt time.Time) (*ActivationResult, error) {
	const op = "billing.fulfillCreated"

	if authUserUID == nil {
		return nil, ErrAuthRequired
	}
	if order.UserUID == nil || *order.UserUID != *authUserUID {
		return nil, ErrOrderOwnership
	}

	if err := s.users.ActivateSubscription(ctx, *order.UserUID, plan.ID, now, endAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.orders.MarkOrderPaid(ctx, order.ProviderOrderID, providerPaymentID, *order.UserUID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.GetUser(ctx, *order.UserUID)
	if err != nil {
		s.log.Error("failed to load user for purchase notification", sl.Err(err))
	} else {
		s.publishPurchase(models.PurchaseNotification{
			Name:             user.Name,
			Email:            user.Email,
			Mobile:           user.Mobile,
			SubscriptionType: plan.ID,
			AmountRupees:     strconv.Itoa(order.Amount / 100),
		})
	}

	return &ActivationResult{UserUID: *order.UserUID, SubscriptionType: plan.ID}, nil
}

// publishPurchase отправляет уведомление о покупке в очередь.
// Сбой публикации не откатывает активацию и только логируется.
func (s *BillingService) publishPurchase(msg models.PurchaseNotification) {
	if s.amqpCh == nil {
		return
	}
	if err := rabbitmq.PublishMessage(s.amqpCh, rabbitmq.NotificationsExchange, rabbitmq.RoutingPurchase, msg); err != nil {
		s.log.Error("failed to publish purchase notification", sl.Err(err))
	}
}

// ListOrders возвращает ордера пользователя, сначала самые новые.
func (s *BillingService) ListOrders(ctx context.Context, userUID string, limit int) ([]*models.Order, error) {
	const op = "billing.ListOrders"

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	orders, err := s.orders.ListOrdersByUser(ctx, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}
