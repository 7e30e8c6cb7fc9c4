// Package payment settles checkout payments. Only a mock synchronous
// gateway is wired; it stands in for a real PSP integration.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
)

// MockGateway settles instantly and always succeeds.
type MockGateway struct {
	now func() time.Time
}

func NewMockGateway() *MockGateway {
	return &MockGateway{now: time.Now}
}

func (g *MockGateway) Charge(_ context.Context, orderNumber string, _ decimal.Decimal) (port.PaymentResult, error) {
	paidAt := g.now()
	return port.PaymentResult{
		Status: domain.PaymentStatusPaid,
		Details: domain.PaymentDetails{
			TransactionID:  fmt.Sprintf("MOCK-%d-%s", paidAt.UnixMilli(), orderNumber),
			PaymentGateway: "Mock Payment Gateway",
			PaidAt:         &paidAt,
		},
	}, nil
}

// BreakerGateway wraps a gateway in a circuit breaker so a failing payment
// provider sheds load fast instead of tying up checkout requests.
type BreakerGateway struct {
	inner   port.PaymentGateway
	breaker *gobreaker.CircuitBreaker[port.PaymentResult]
}

func NewBreakerGateway(inner port.PaymentGateway) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &BreakerGateway{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[port.PaymentResult](settings),
	}
}

func (g *BreakerGateway) Charge(ctx context.Context, orderNumber string, amount decimal.Decimal) (port.PaymentResult, error) {
	result, err := g.breaker.Execute(func() (port.PaymentResult, error) {
		return g.inner.Charge(ctx, orderNumber, amount)
	})
	if err != nil {
		return port.PaymentResult{}, fmt.Errorf("charge %s: %w", orderNumber, err)
	}
	return result, nil
}
