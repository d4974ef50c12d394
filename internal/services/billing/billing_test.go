package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/faithbyexperiments/content-api/internal/lib/jwt"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/paymentprovider"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
)

// MockOrderRepo реализует интерфейс OrderRepository
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) CreateOrder(ctx context.Context, order models.Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepo) GetOrderByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Order, error) {
	args := m.Called(ctx, providerOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepo) MarkOrderPaid(ctx context.Context, providerOrderID, providerPaymentID, userUID string, paidAt time.Time) error {
	args := m.Called(ctx, providerOrderID, providerPaymentID, userUID, paidAt)
	return args.Error(0)
}

func (m *MockOrderRepo) ListOrdersByUser(ctx context.Context, userUID string, limit int) ([]*models.Order, error) {
	args := m.Called(ctx, userUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

// MockUserRepo реализует интерфейс UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepo) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) ActivateSubscription(ctx context.Context, userUID, planID string, startedAt, endAt time.Time) error {
	args := m.Called(ctx, userUID, planID, startedAt, endAt)
	return args.Error(0)
}

// MockProvider реализует интерфейс PaymentProvider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateOrder(ctx context.Context, reqParams paymentprovider.CreateOrderRequest) (*paymentprovider.CreateOrderResponse, error) {
	args := m.Called(ctx, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.CreateOrderResponse), args.Error(1)
}

func (m *MockProvider) VerifySignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

func (m *MockProvider) KeyID() string {
	args := m.Called()
	return args.String(0)
}

func newTestService(orders *MockOrderRepo, users *MockUserRepo, provider *MockProvider) *BillingService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtMaker := jwt.NewJWTMaker("test-secret", time.Hour)
	return NewBillingService(logger, orders, users, provider, jwtMaker, nil, "admin@example.com")
}

func strPtr(s string) *string { return &s }

func TestVerifyAndActivate_InvalidSignature(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "bad").Return(false)

	svc := newTestService(orders, users, provider)
	_, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "bad", nil)

	assert.ErrorIs(t, err, ErrInvalidSignature)
	orders.AssertNotCalled(t, "GetOrderByProviderOrderID", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "MarkOrderPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyAndActivate_OrderNotFound(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	orders.On("GetOrderByProviderOrderID", mock.Anything, "order_1").
		Return(nil, fmt.Errorf("storage: %w", repository.ErrNotFound))

	svc := newTestService(orders, users, provider)
	_, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "sig", nil)

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestVerifyAndActivate_AlreadyPaidIsIdempotent(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	orders.On("GetOrderByProviderOrderID", mock.Anything, "order_1").Return(&models.Order{
		ProviderOrderID: "order_1",
		PlanID:          PlanMonthly,
		Status:          models.OrderStatusPaid,
		UserUID:         strPtr("uid-1"),
	}, nil)

	svc := newTestService(orders, users, provider)
	result, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "sig", nil)

	require.NoError(t, err)
	assert.True(t, result.AlreadyPaid)
	assert.Equal(t, "uid-1", result.UserUID)
	assert.Equal(t, PlanMonthly, result.SubscriptionType)
	orders.AssertNotCalled(t, "MarkOrderPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "ActivateSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyAndActivate_PendingSignupCreatesAccountFirst(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	orders.On("GetOrderByProviderOrderID", mock.Anything, "order_1").Return(&models.Order{
		ProviderOrderID: "order_1",
		PlanID:          PlanYearly,
		Amount:          499900,
		Currency:        "INR",
		Status:          models.OrderStatusPendingSignup,
		Pending: &models.PendingSignup{
			Name:         "Asha",
			Email:        "asha@example.com",
			PasswordHash: "$2a$10$hash",
		},
	}, nil)

	userCreated := false
	users.On("CreateUser", mock.Anything, mock.Anything).Run(func(_ mock.Arguments) {
		userCreated = true
	}).Return("new-uid", nil)
	orders.On("MarkOrderPaid", mock.Anything, "order_1", "pay_1", mock.Anything, mock.Anything).
		Run(func(_ mock.Arguments) {
			// аккаунт должен существовать раньше перевода ордера в paid
			assert.True(t, userCreated)
		}).Return(nil)

	svc := newTestService(orders, users, provider)
	result, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "sig", nil)

	require.NoError(t, err)
	assert.False(t, result.AlreadyPaid)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.UserUID)
	assert.Equal(t, PlanYearly, result.SubscriptionType)

	createdUser := users.Calls[0].Arguments.Get(1).(models.User)
	assert.Equal(t, "asha@example.com", createdUser.Email)
	assert.Equal(t, "$2a$10$hash", createdUser.PasswordHash)
	assert.False(t, createdUser.IsAdmin)
	assert.True(t, createdUser.IsSubscribed)
	require.NotNil(t, createdUser.SubscriptionType)
	assert.Equal(t, PlanYearly, *createdUser.SubscriptionType)
	require.NotNil(t, createdUser.SubscriptionStartedAt)
	require.NotNil(t, createdUser.SubscriptionEndAt)
	assert.Equal(t, Plans[PlanYearly].Duration,
		createdUser.SubscriptionEndAt.Sub(*createdUser.SubscriptionStartedAt))

	orders.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestVerifyAndActivate_PendingSignupOperatorBecomesAdmin(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	orders.On("GetOrderByProviderOrderID", mock.Anything, "order_1").Return(&models.Order{
		ProviderOrderID: "order_1",
		PlanID:          PlanMonthly,
		Amount:          49900,
		Currency:        "INR",
		Status:          models.OrderStatusPendingSignup,
		Pending: &models.PendingSignup{
			Name:         "Admin",
			Email:        "Admin@Example.com",
			PasswordHash: "$2a$10$hash",
		},
	}, nil)
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.IsAdmin
	})).Return("new-uid", nil)
	orders.On("MarkOrderPaid", mock.Anything, "order_1", "pay_1", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(orders, users, provider)
	_, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "sig", nil)

	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestVerifyAndActivate_CreatedRequiresAuth(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	orders.On("GetOrderByProviderOrderID", mock.Anything, "order_1").Return(&models.Order{
		ProviderOrderID: "order_1",
		PlanID:          PlanMonthly,
		Status:          models.OrderStatusCreated,
		UserUID:         strPtr("owner-uid"),
	}, nil)

	svc := newTestService(orders, users, provider)
	_, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "sig", nil)

	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestVerifyAndActivate_CreatedRejectsForeignOrder(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	orders.On("GetOrderByProviderOrderID", mock.Anything, "order_1").Return(&models.Order{
		ProviderOrderID: "order_1",
		PlanID:          PlanMonthly,
		Status:          models.OrderStatusCreated,
		UserUID:         strPtr("owner-uid"),
	}, nil)

	svc := newTestService(orders, users, provider)
	_, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "sig", strPtr("intruder-uid"))

	assert.ErrorIs(t, err, ErrOrderOwnership)
	users.AssertNotCalled(t, "ActivateSubscription", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "MarkOrderPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyAndActivate_CreatedActivatesSubscriptionFirst(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	orders.On("GetOrderByProviderOrderID", mock.Anything, "order_1").Return(&models.Order{
		ProviderOrderID: "order_1",
		PlanID:          PlanMonthly,
		Amount:          49900,
		Currency:        "INR",
		Status:          models.OrderStatusCreated,
		UserUID:         strPtr("owner-uid"),
	}, nil)

	activated := false
	users.On("ActivateSubscription", mock.Anything, "owner-uid", PlanMonthly, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			activated = true
			startedAt := args.Get(3).(time.Time)
			endAt := args.Get(4).(time.Time)
			assert.Equal(t, Plans[PlanMonthly].Duration, endAt.Sub(startedAt))
		}).Return(nil)
	orders.On("MarkOrderPaid", mock.Anything, "order_1", "pay_1", "owner-uid", mock.Anything).
		Run(func(_ mock.Arguments) {
			assert.True(t, activated)
		}).Return(nil)
	users.On("GetUser", mock.Anything, "owner-uid").Return(&models.User{
		UID:   "owner-uid",
		Email: "owner@example.com",
		Name:  "Owner",
	}, nil)

	svc := newTestService(orders, users, provider)
	result, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "sig", strPtr("owner-uid"))

	require.NoError(t, err)
	assert.False(t, result.AlreadyPaid)
	assert.Empty(t, result.Token)
	assert.Equal(t, "owner-uid", result.UserUID)
	assert.Equal(t, PlanMonthly, result.SubscriptionType)
	orders.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestCreateOrder_UnknownPlan(t *testing.T) {
	svc := newTestService(new(MockOrderRepo), new(MockUserRepo), new(MockProvider))
	_, err := svc.CreateOrder(context.Background(), "uid-1", "weekly")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestCreateOrder_Success(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	users.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil)
	provider.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req paymentprovider.CreateOrderRequest) bool {
		return req.Amount == 49900 && req.Currency == "INR"
	})).Return(&paymentprovider.CreateOrderResponse{ID: "order_rzp"}, nil)
	provider.On("KeyID").Return("rzp_test_key")
	orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
		return o.ProviderOrderID == "order_rzp" &&
			o.Status == models.OrderStatusCreated &&
			o.UserUID != nil && *o.UserUID == "uid-1" &&
			o.Pending == nil
	})).Return("internal-id", nil)

	svc := newTestService(orders, users, provider)
	checkout, err := svc.CreateOrder(context.Background(), "uid-1", PlanMonthly)

	require.NoError(t, err)
	assert.Equal(t, "order_rzp", checkout.ProviderOrderID)
	assert.Equal(t, "rzp_test_key", checkout.KeyID)
	assert.Equal(t, 49900, checkout.Amount)
	orders.AssertExpectations(t)
}

func TestCreatePendingSignupOrder_EmailTaken(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	users.On("GetUserByEmail", mock.Anything, "taken@example.com").
		Return(&models.User{UID: "uid-1", Email: "taken@example.com"}, nil)

	svc := newTestService(orders, users, provider)
	_, err := svc.CreatePendingSignupOrder(context.Background(), PlanMonthly, "Asha", "taken@example.com", "secret123", nil)

	assert.ErrorIs(t, err, ErrEmailTaken)
	provider.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreatePendingSignupOrder_StoresHashedPassword(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	users.On("GetUserByEmail", mock.Anything, "new@example.com").
		Return(nil, fmt.Errorf("storage: %w", repository.ErrNotFound))
	provider.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&paymentprovider.CreateOrderResponse{ID: "order_rzp"}, nil)
	provider.On("KeyID").Return("rzp_test_key")
	orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderStatusPendingSignup &&
			o.UserUID == nil &&
			o.Pending != nil &&
			o.Pending.Email == "new@example.com" &&
			o.Pending.PasswordHash != "secret123" &&
			o.Pending.PasswordHash != ""
	})).Return("internal-id", nil)

	svc := newTestService(orders, users, provider)
	checkout, err := svc.CreatePendingSignupOrder(context.Background(), PlanMonthly, "Asha", "new@example.com", "secret123", nil)

	require.NoError(t, err)
	assert.Equal(t, "order_rzp", checkout.ProviderOrderID)
	orders.AssertExpectations(t)
}

func TestListOrders_DefaultsLimit(t *testing.T) {
	orders := new(MockOrderRepo)
	orders.On("ListOrdersByUser", mock.Anything, "uid-1", 50).Return([]*models.Order{}, nil)

	svc := newTestService(orders, new(MockUserRepo), new(MockProvider))
	_, err := svc.ListOrders(context.Background(), "uid-1", 0)

	require.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestVerifyAndActivate_MarkOrderPaidFailureSurfacesError(t *testing.T) {
	orders := new(MockOrderRepo)
	users := new(MockUserRepo)
	provider := new(MockProvider)
	provider.On("VerifySignature", "order_1", "pay_1", "sig").Return(true)
	orders.On("GetOrderByProviderOrderID", mock.Anything, "order_1").Return(&models.Order{
		ProviderOrderID: "order_1",
		PlanID:          PlanMonthly,
		Status:          models.OrderStatusCreated,
		UserUID:         strPtr("owner-uid"),
	}, nil)
	users.On("ActivateSubscription", mock.Anything, "owner-uid", PlanMonthly, mock.Anything, mock.Anything).Return(nil)
	orders.On("MarkOrderPaid", mock.Anything, "order_1", "pay_1", "owner-uid", mock.Anything).
		Return(errors.New("connection reset"))

	svc := newTestService(orders, users, provider)
	_, err := svc.VerifyAndActivate(context.Background(), "order_1", "pay_1", "sig", strPtr("owner-uid"))

	assert.Error(t, err)
}
