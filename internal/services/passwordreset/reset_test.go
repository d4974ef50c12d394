package passwordreset

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/faithbyexperiments/content-api/internal/lib/password"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
)

// MockUserRepo реализует интерфейс UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) UpdatePasswordHash(ctx context.Context, userUID, passwordHash string) error {
	args := m.Called(ctx, userUID, passwordHash)
	return args.Error(0)
}

// MockTokenRepo реализует интерфейс TokenRepository
type MockTokenRepo struct {
	mock.Mock
}

func (m *MockTokenRepo) CreateResetToken(ctx context.Context, token models.ResetToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepo) GetActiveResetToken(ctx context.Context, token string) (*models.ResetToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResetToken), args.Error(1)
}

func (m *MockTokenRepo) MarkResetTokenUsed(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

func newTestService(users *MockUserRepo, tokens *MockTokenRepo, mailConfigured bool) *ResetService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResetService(logger, users, tokens, nil, mailConfigured)
}

func TestRequestReset_UnknownEmailIsSilentSuccess(t *testing.T) {
	users := new(MockUserRepo)
	tokens := new(MockTokenRepo)
	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").
		Return(nil, repository.ErrNotFound)

	svc := newTestService(users, tokens, true)
	devToken, err := svc.RequestReset(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	assert.Empty(t, devToken)
	tokens.AssertNotCalled(t, "CreateResetToken", mock.Anything, mock.Anything)
}

func TestRequestReset_ReturnsDevTokenWithoutMail(t *testing.T) {
	users := new(MockUserRepo)
	tokens := new(MockTokenRepo)
	users.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid-1", Email: "user@example.com", Name: "User"}, nil)
	tokens.On("CreateResetToken", mock.Anything, mock.MatchedBy(func(tok models.ResetToken) bool {
		return tok.UserUID == "uid-1" && tok.Token != "" &&
			time.Until(tok.ExpiresAt) > 50*time.Minute
	})).Return(nil)

	svc := newTestService(users, tokens, false)
	devToken, err := svc.RequestReset(context.Background(), "user@example.com")

	require.NoError(t, err)
	assert.NotEmpty(t, devToken)
	tokens.AssertExpectations(t)
}

func TestRequestReset_NoDevTokenWithMailConfigured(t *testing.T) {
	users := new(MockUserRepo)
	tokens := new(MockTokenRepo)
	users.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid-1", Email: "user@example.com"}, nil)
	tokens.On("CreateResetToken", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(users, tokens, true)
	devToken, err := svc.RequestReset(context.Background(), "user@example.com")

	require.NoError(t, err)
	assert.Empty(t, devToken)
}

func TestValidateToken_Expired(t *testing.T) {
	tokens := new(MockTokenRepo)
	tokens.On("GetActiveResetToken", mock.Anything, "tok-1").Return(&models.ResetToken{
		Token:     "tok-1",
		UserUID:   "uid-1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}, nil)

	svc := newTestService(new(MockUserRepo), tokens, true)
	err := svc.ValidateToken(context.Background(), "tok-1")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Unknown(t *testing.T) {
	tokens := new(MockTokenRepo)
	tokens.On("GetActiveResetToken", mock.Anything, "missing").
		Return(nil, repository.ErrNotFound)

	svc := newTestService(new(MockUserRepo), tokens, true)
	err := svc.ValidateToken(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmReset_SingleUse(t *testing.T) {
	users := new(MockUserRepo)
	tokens := new(MockTokenRepo)
	tokens.On("GetActiveResetToken", mock.Anything, "tok-1").Return(&models.ResetToken{
		Token:     "tok-1",
		UserUID:   "uid-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}, nil)
	// Токен уже потреблён конкурентным запросом
	tokens.On("MarkResetTokenUsed", mock.Anything, "tok-1").Return(0, nil)

	svc := newTestService(users, tokens, true)
	err := svc.ConfirmReset(context.Background(), "tok-1", "newsecret")

	assert.ErrorIs(t, err, ErrInvalidToken)
	users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmReset_SetsNewPassword(t *testing.T) {
	users := new(MockUserRepo)
	tokens := new(MockTokenRepo)
	tokens.On("GetActiveResetToken", mock.Anything, "tok-1").Return(&models.ResetToken{
		Token:     "tok-1",
		UserUID:   "uid-1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}, nil)
	tokens.On("MarkResetTokenUsed", mock.Anything, "tok-1").Return(1, nil)
	users.On("UpdatePasswordHash", mock.Anything, "uid-1", mock.MatchedBy(func(hash string) bool {
		return password.CompareHash(hash, "newsecret") == nil
	})).Return(nil)

	svc := newTestService(users, tokens, true)
	err := svc.ConfirmReset(context.Background(), "tok-1", "newsecret")

	require.NoError(t, err)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}
