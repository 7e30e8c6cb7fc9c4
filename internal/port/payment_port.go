package port

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/shopstack/commerce-core/internal/domain"
)

type PaymentResult struct {
	Status  domain.PaymentStatus
	Details domain.PaymentDetails
}

// PaymentGateway settles a payment synchronously. Only the mock method is
// wired; card and transfer methods stay pending for asynchronous settlement.
type PaymentGateway interface {
	Charge(ctx context.Context, orderNumber string, amount decimal.Decimal) (PaymentResult, error)
}
