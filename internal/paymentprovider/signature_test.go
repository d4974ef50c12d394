package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("rzp_test_key", "test-secret")

	valid := signPayload("test-secret", "order_1", "pay_1")

	assert.True(t, client.VerifySignature("order_1", "pay_1", valid))
	// Подпись привязана к конкретной паре ордер/платеж
	assert.False(t, client.VerifySignature("order_2", "pay_1", valid))
	assert.False(t, client.VerifySignature("order_1", "pay_2", valid))
	// Подпись на чужом секрете отклоняется
	assert.False(t, client.VerifySignature("order_1", "pay_1",
		signPayload("another-secret", "order_1", "pay_1")))
	assert.False(t, client.VerifySignature("order_1", "pay_1", ""))
}
