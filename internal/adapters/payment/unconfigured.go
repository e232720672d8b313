package payment

import (
	"context"
	"fmt"

	"eventticketing/internal/domain"
)

type unconfiguredVerifier struct{}

// NewUnconfiguredVerifier returns a PaymentVerifier that rejects every reference.
// It is used when no provider credentials are set, so paid events cannot be joined.
func NewUnconfiguredVerifier() domain.PaymentVerifier {
	return unconfiguredVerifier{}
}

func (unconfiguredVerifier) Verify(_ context.Context, reference string) (*domain.PaymentResult, error) {
	return nil, fmt.Errorf("%w: no payment provider configured", domain.ErrPaymentFailed)
}
