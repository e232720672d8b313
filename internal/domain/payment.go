package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentResult is the provider's answer for a transaction reference.
type PaymentResult struct {
	Success    bool
	AmountPaid decimal.Decimal
	Currency   string
	Reference  string
}

// PaymentVerifier confirms a payment with an external provider.
// Any failure, including timeouts and declined transactions, wraps ErrPaymentFailed.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*PaymentResult, error)
}
