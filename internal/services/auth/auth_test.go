package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/faithbyexperiments/content-api/internal/lib/jwt"
	"github.com/faithbyexperiments/content-api/internal/lib/password"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
)

// MockUserRepo реализует интерфейс UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) ActivateSubscription(ctx context.Context, userUID, planID string, startedAt, endAt time.Time) error {
	args := m.Called(ctx, userUID, planID, startedAt, endAt)
	return args.Error(0)
}

func newTestService(users *MockUserRepo, operatorEmail string) *AuthService {
	jwtMaker := jwt.NewJWTMaker("test-secret", time.Hour)
	return NewAuthService(users, jwtMaker, operatorEmail)
}

func TestRegister_EmailTaken(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetUserByEmail", mock.Anything, "taken@example.com").
		Return(&models.User{UID: "uid-1"}, nil)

	svc := newTestService(users, "")
	_, _, err := svc.Register(context.Background(), "taken@example.com", "User", "secret123")

	assert.ErrorIs(t, err, ErrEmailTaken)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestRegister_OperatorBecomesAdmin(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetUserByEmail", mock.Anything, "Admin@Example.com").
		Return(nil, repository.ErrNotFound)
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.IsAdmin && !u.IsSubscribed && u.PasswordHash != "secret123"
	})).Return("new-uid", nil)

	svc := newTestService(users, "admin@example.com")
	token, user, err := svc.Register(context.Background(), "Admin@Example.com", "Admin", "secret123")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.IsAdmin)
	users.AssertExpectations(t)
}

func TestRegister_RegularUserIsNotAdmin(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(nil, repository.ErrNotFound)
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return !u.IsAdmin
	})).Return("new-uid", nil)

	svc := newTestService(users, "admin@example.com")
	_, user, err := svc.Register(context.Background(), "user@example.com", "User", "secret123")

	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
}

func TestLogin_Success(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	users := new(MockUserRepo)
	users.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid-1", Email: "user@example.com", PasswordHash: hash}, nil)

	svc := newTestService(users, "")
	token, user, err := svc.Login(context.Background(), "user@example.com", "secret123")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "uid-1", user.UID)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	users := new(MockUserRepo)
	users.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid-1", PasswordHash: hash}, nil)

	svc := newTestService(users, "")
	_, _, err = svc.Login(context.Background(), "user@example.com", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").
		Return(nil, repository.ErrNotFound)

	svc := newTestService(users, "")
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "secret123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMockSubscribe_ActivatesMonthlyWindow(t *testing.T) {
	users := new(MockUserRepo)
	users.On("ActivateSubscription", mock.Anything, "uid-1", "monthly", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			startedAt := args.Get(3).(time.Time)
			endAt := args.Get(4).(time.Time)
			assert.Equal(t, 30*24*time.Hour, endAt.Sub(startedAt))
		}).Return(nil)

	svc := newTestService(users, "")
	err := svc.MockSubscribe(context.Background(), "uid-1")

	require.NoError(t, err)
	users.AssertExpectations(t)
}
