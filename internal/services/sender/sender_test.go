package sender

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/faithbyexperiments/content-api/internal/lib/smtp"
	"github.com/faithbyexperiments/content-api/internal/rabbitmq"
)

// MockTransport реализует интерфейс smtp.TransportInterface
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

// fakeClient записывает письмо вместо отправки.
type fakeClient struct {
	rcpt string
	body bytes.Buffer
}

type bodyWriter struct{ c *fakeClient }

func (w bodyWriter) Write(p []byte) (int, error) { return w.c.body.Write(p) }
func (w bodyWriter) Close() error                { return nil }

func (c *fakeClient) Mail(string) error             { return nil }
func (c *fakeClient) Rcpt(to string) error          { c.rcpt = to; return nil }
func (c *fakeClient) Data() (io.WriteCloser, error) { return bodyWriter{c}, nil }
func (c *fakeClient) Quit() error                   { return nil }
func (c *fakeClient) Close() error                  { return nil }

func newTestService(transport *MockTransport, operatorEmail string) *SenderService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSenderService(logger, transport, nil, "https://faithbyexperiments.com", operatorEmail)
}

func TestHandlePurchase_MalformedPayloadIsRejected(t *testing.T) {
	transport := new(MockTransport)
	svc := newTestService(transport, "operator@example.com")

	err := svc.handlePurchase(context.Background(), []byte("{not json"))

	require.Error(t, err)
	// сообщение неисправимо и не должно возвращаться в очередь
	assert.ErrorIs(t, err, rabbitmq.ErrReject)
	transport.AssertNotCalled(t, "Connect")
}

func TestHandleContact_MalformedPayloadIsRejected(t *testing.T) {
	transport := new(MockTransport)
	svc := newTestService(transport, "operator@example.com")

	err := svc.handleContact(context.Background(), []byte("[]"))

	require.Error(t, err)
	assert.ErrorIs(t, err, rabbitmq.ErrReject)
	transport.AssertNotCalled(t, "Connect")
}

func TestHandleContact_SendsToOperator(t *testing.T) {
	client := &fakeClient{}
	transport := new(MockTransport)
	transport.On("Connect").Return(client, nil)
	transport.On("GetSMTPUser").Return("noreply@faithbyexperiments.com")

	svc := newTestService(transport, "operator@example.com")
	body := []byte(`{"name": "Asha", "email": "asha@example.com", "message": "How do I renew?"}`)

	err := svc.handleContact(context.Background(), body)

	require.NoError(t, err)
	assert.Equal(t, "operator@example.com", client.rcpt)
	assert.Contains(t, client.body.String(), "How do I renew?")
	assert.Contains(t, client.body.String(), "asha@example.com")
}

func TestHandleReset_DeliveryFailureRequeues(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Connect").Return(nil, errors.New("connection refused"))

	svc := newTestService(transport, "operator@example.com")
	body := []byte(`{"name": "Asha", "email": "asha@example.com", "token": "tok-1"}`)

	err := svc.handleReset(context.Background(), body)

	require.Error(t, err)
	// временный сбой доставки, сообщение должно вернуться в очередь
	assert.NotErrorIs(t, err, rabbitmq.ErrReject)
}
