package payment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
)

func TestMockGatewayCharge(t *testing.T) {
	gateway := NewMockGateway()

	result, err := gateway.Charge(t.Context(), "ORD-20260901-0001", decimal.NewFromFloat(118.80))
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPaid, result.Status)
	assert.Equal(t, "Mock Payment Gateway", result.Details.PaymentGateway)
	assert.True(t, strings.HasPrefix(result.Details.TransactionID, "MOCK-"))
	assert.True(t, strings.HasSuffix(result.Details.TransactionID, "ORD-20260901-0001"))
	require.NotNil(t, result.Details.PaidAt)
}

type brokenGateway struct{}

func (brokenGateway) Charge(context.Context, string, decimal.Decimal) (port.PaymentResult, error) {
	return port.PaymentResult{}, errors.New("provider unavailable")
}

func TestBreakerGatewayPassesThrough(t *testing.T) {
	gateway := NewBreakerGateway(NewMockGateway())

	result, err := gateway.Charge(t.Context(), "ORD-20260901-0002", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, result.Status)
}

func TestBreakerGatewayOpensAfterFailures(t *testing.T) {
	gateway := NewBreakerGateway(brokenGateway{})

	for i := 0; i < 5; i++ {
		_, err := gateway.Charge(t.Context(), "ORD-20260901-0003", decimal.NewFromInt(10))
		require.Error(t, err)
	}

	// the breaker is now open and fails fast without calling the provider
	_, err := gateway.Charge(t.Context(), "ORD-20260901-0003", decimal.NewFromInt(10))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "provider unavailable")
}
