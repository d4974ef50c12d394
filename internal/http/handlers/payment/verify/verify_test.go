package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/faithbyexperiments/content-api/internal/http/middlewarectx"
	"github.com/faithbyexperiments/content-api/internal/services/billing"
)

// MockService реализует интерфейс Service
type MockService struct {
	mock.Mock
}

func (m *MockService) VerifyAndActivate(ctx context.Context, providerOrderID, providerPaymentID, signature string, authUserUID *string) (*billing.ActivationResult, error) {
	args := m.Called(ctx, providerOrderID, providerPaymentID, signature, authUserUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ActivationResult), args.Error(1)
}

func newTestHandler(service *MockService) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, service)
}

func doRequest(t *testing.T, handler *Handler, body string, userUID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", bytes.NewBufferString(body))
	if userUID != "" {
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, userUID))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

const validBody = `{"razorpay_order_id": "order_1", "razorpay_payment_id": "pay_1", "razorpay_signature": "sig"}`

func TestVerify_AnonymousSignupFlow(t *testing.T) {
	service := new(MockService)
	service.On("VerifyAndActivate", mock.Anything, "order_1", "pay_1", "sig", (*string)(nil)).
		Return(&billing.ActivationResult{Token: "jwt-token", UserUID: "uid-new", SubscriptionType: "monthly"}, nil)

	rr := doRequest(t, newTestHandler(service), validBody, "")

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			AlreadyPaid      bool   `json:"already_paid"`
			Token            string `json:"token"`
			SubscriptionType string `json:"subscription_type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.False(t, resp.Data.AlreadyPaid)
	assert.Equal(t, "jwt-token", resp.Data.Token)
	assert.Equal(t, "monthly", resp.Data.SubscriptionType)
	service.AssertExpectations(t)
}

func TestVerify_AuthenticatedFlowPassesUID(t *testing.T) {
	service := new(MockService)
	service.On("VerifyAndActivate", mock.Anything, "order_1", "pay_1", "sig",
		mock.MatchedBy(func(uid *string) bool {
			return uid != nil && *uid == "uid-1"
		})).Return(&billing.ActivationResult{UserUID: "uid-1"}, nil)

	rr := doRequest(t, newTestHandler(service), validBody, "uid-1")

	assert.Equal(t, http.StatusOK, rr.Code)
	service.AssertExpectations(t)
}

func TestVerify_AlreadyPaidIsIdempotent(t *testing.T) {
	service := new(MockService)
	service.On("VerifyAndActivate", mock.Anything, "order_1", "pay_1", "sig", mock.Anything).
		Return(&billing.ActivationResult{AlreadyPaid: true, SubscriptionType: "yearly"}, nil)

	rr := doRequest(t, newTestHandler(service), validBody, "uid-1")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status": "OK", "data": {"already_paid": true, "subscription_type": "yearly"}}`, rr.Body.String())
}

func TestVerify_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{"неверная подпись", billing.ErrInvalidSignature, http.StatusBadRequest},
		{"ордер не найден", billing.ErrOrderNotFound, http.StatusNotFound},
		{"требуется авторизация", billing.ErrAuthRequired, http.StatusUnauthorized},
		{"чужой ордер", billing.ErrOrderOwnership, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			service.On("VerifyAndActivate", mock.Anything, "order_1", "pay_1", "sig", mock.Anything).
				Return(nil, tt.err)

			rr := doRequest(t, newTestHandler(service), validBody, "uid-1")

			assert.Equal(t, tt.expectedCode, rr.Code)
		})
	}
}

func TestVerify_MissingFields(t *testing.T) {
	service := new(MockService)

	rr := doRequest(t, newTestHandler(service), `{"razorpay_order_id": "order_1"}`, "")

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	service.AssertNotCalled(t, "VerifyAndActivate",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
