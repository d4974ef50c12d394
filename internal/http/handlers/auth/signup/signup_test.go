package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/faithbyexperiments/content-api/internal/models"
	"github.com/faithbyexperiments/content-api/internal/services/auth"
)

// MockService реализует интерфейс Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, email, name, rawPassword string) (string, *models.User, error) {
	args := m.Called(ctx, email, name, rawPassword)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func newTestHandler(service *MockService) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, service)
}

func doRequest(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestSignup_Success(t *testing.T) {
	service := new(MockService)
	service.On("Register", mock.Anything, "user@example.com", "User", "secret123").
		Return("jwt-token", &models.User{UID: "uid-1", Email: "user@example.com", Name: "User"}, nil)

	rr := doRequest(t, newTestHandler(service),
		`{"email": "user@example.com", "name": "User", "password": "secret123"}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Token string          `json:"token"`
			User  models.UserInfo `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "jwt-token", resp.Data.Token)
	assert.Equal(t, "uid-1", resp.Data.User.UID)
	assert.False(t, resp.Data.User.IsSubscribed)
	service.AssertExpectations(t)
}

func TestSignup_EmailTaken(t *testing.T) {
	service := new(MockService)
	service.On("Register", mock.Anything, "taken@example.com", "User", "secret123").
		Return("", nil, auth.ErrEmailTaken)

	rr := doRequest(t, newTestHandler(service),
		`{"email": "taken@example.com", "name": "User", "password": "secret123"}`)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"status": "Error", "error": "email already registered"}`, rr.Body.String())
}

func TestSignup_InvalidJSON(t *testing.T) {
	service := new(MockService)

	rr := doRequest(t, newTestHandler(service), `{"email": `)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	service.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSignup_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"пустой email", `{"name": "User", "password": "secret123"}`},
		{"некорректный email", `{"email": "not-an-email", "name": "User", "password": "secret123"}`},
		{"слишком короткий пароль", `{"email": "user@example.com", "name": "User", "password": "123"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			rr := doRequest(t, newTestHandler(service), tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			service.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSignup_ServiceFailure(t *testing.T) {
	service := new(MockService)
	service.On("Register", mock.Anything, "user@example.com", "User", "secret123").
		Return("", nil, errors.New("database down"))

	rr := doRequest(t, newTestHandler(service),
		`{"email": "user@example.com", "name": "User", "password": "secret123"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
