package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"eventticketing/internal/domain"
)

// DefaultBaseURL is the Paystack API root.
const DefaultBaseURL = "https://api.paystack.co"

// DefaultTimeout bounds a single verification round trip.
const DefaultTimeout = 10 * time.Second

// DefaultCurrency is the currency event prices are quoted in.
const DefaultCurrency = "NGN"

type paystackVerifier struct {
	client    *http.Client
	baseURL   string
	secretKey string
	currency  string
	timeout   time.Duration
}

// NewPaystackVerifier returns a PaymentVerifier backed by the Paystack transaction verify API.
// A nil client gets one with the given timeout. Payments settled in any currency
// other than currency are rejected.
func NewPaystackVerifier(client *http.Client, baseURL, secretKey, currency string, timeout time.Duration) domain.PaymentVerifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if currency = strings.ToUpper(strings.TrimSpace(currency)); currency == "" {
		currency = DefaultCurrency
	}
	return &paystackVerifier{
		client:    client,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		secretKey: secretKey,
		currency:  currency,
		timeout:   timeout,
	}
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

func (v *paystackVerifier) Verify(ctx context.Context, reference string) (*domain.PaymentResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: missing payment reference", domain.ErrPaymentFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/transaction/verify/%s", v.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrPaymentFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+v.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: provider unreachable: %v", domain.ErrPaymentFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", domain.ErrPaymentFailed, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode provider response: %v", domain.ErrPaymentFailed, err)
	}
	if !body.Status || body.Data.Status != "success" {
		return nil, fmt.Errorf("%w: transaction %q not successful (%s)", domain.ErrPaymentFailed, reference, body.Data.Status)
	}

	if !strings.EqualFold(body.Data.Currency, v.currency) {
		return nil, fmt.Errorf("%w: transaction %q settled in %q, expected %s", domain.ErrPaymentFailed, reference, body.Data.Currency, v.currency)
	}

	// Amounts are reported in the currency's subunit (kobo, cents).
	return &domain.PaymentResult{
		Success:    true,
		AmountPaid: decimal.New(body.Data.Amount, -2),
		Currency:   v.currency,
		Reference:  reference,
	}, nil
}
