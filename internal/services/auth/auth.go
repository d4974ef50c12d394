// Package auth содержит логику бизнес-уровня для регистрации,
// входа и выдачи JWT пользователям.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/faithbyexperiments/content-api/internal/lib/jwt"
	"github.com/faithbyexperiments/content-api/internal/lib/password"
	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/services/billing"
	"github.com/faithbyexperiments/content-api/internal/storage/repository"
)

// Ошибки бизнес-уровня; обработчики переводят их в HTTP-статусы.
var (
	// ErrEmailTaken возвращается при попытке регистрации на занятый email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ActivateSubscription(ctx context.Context, userUID, planID string, startedAt, endAt time.Time) error
}

// AuthService отвечает за регистрацию, авторизацию и выдачу JWT.
type AuthService struct {
	users         UserRepository
	jwtMaker      jwt.Maker
	operatorEmail string // email оператора; совпадение дает права администратора
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, operatorEmail string) *AuthService {
	return &AuthService{
		users:         users,
		jwtMaker:      jwtMaker,
		operatorEmail: operatorEmail,
	}
}

// IsOperator сообщает, принадлежит ли email оператору сервиса.
// Сравнение без учета регистра.
func (s *AuthService) IsOperator(email string) bool {
	return s.operatorEmail != "" && strings.EqualFold(email, s.operatorEmail)
}

// Register создает нового пользователя без подписки и возвращает токен.
func (s *AuthService) Register(ctx context.Context, email, name, rawPassword string) (string, *models.User, error) {
	const op = "auth.Register"

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return "", nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		UID:          uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		IsAdmin:      s.IsOperator(email),
		IsSubscribed: false,
	}
	if _, err := s.users.CreateUser(ctx, user); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, &user, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// GetUser возвращает пользователя по UID.
func (s *AuthService) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	return s.users.GetUser(ctx, userUID)
}

// GetUserByEmail возвращает пользователя по email (для административных проверок).
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetUserByEmail(ctx, email)
}

// MockSubscribe активирует месячную подписку без оплаты.
// Используется для ручного тестирования витрины.
func (s *AuthService) MockSubscribe(ctx context.Context, userUID string) error {
	const op = "auth.MockSubscribe"

	now := time.Now().UTC()
	end := now.Add(billing.Plans[billing.PlanMonthly].Duration)
	if err := s.users.ActivateSubscription(ctx, userUID, billing.PlanMonthly, now, end); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
