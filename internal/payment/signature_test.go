package payment

import (
	"strings"
	"testing"

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSign_KnownVector(t *testing.T) {
	// echo -n "order_1|pay_1" | openssl dgst -sha256 -hmac secret
	got := Sign("secret", "order_1", "pay_1")
	assert.Equal(t, "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb", got)
	assert.NotEqual(t, got, Sign("secret", "order_1", "pay_2"))
	assert.NotEqual(t, got, Sign("other", "order_1", "pay_1"))
}

func TestVerify(t *testing.T) {
	v := NewSignatureVerifier("secret")
	valid := Sign("secret", "order_1", "pay_1")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		wantErr   bool
	}{
		{"valid", "order_1", "pay_1", valid, false},
		{"tampered payment id", "order_1", "pay_2", valid, true},
		{"tampered order id", "order_2", "pay_1", valid, true},
		{"swapped ids", "pay_1", "order_1", valid, true},
		{"truncated signature", "order_1", "pay_1", valid[:63], true},
		{"uppercased signature", "order_1", "pay_1", strings.ToUpper(valid), true},
		{"empty signature", "order_1", "pay_1", "", true},
		{"empty payment id", "order_1", "", Sign("secret", "order_1", ""), true},
		{"signed with other secret", "order_1", "pay_1", Sign("other", "order_1", "pay_1"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.orderID, tt.paymentID, tt.signature)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrSignatureMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
