package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

func TestPaystackVerifier_Verify(t *testing.T) {
	tests := []struct {
		name       string
		reference  string
		status     int
		body       string
		delay      time.Duration
		wantAmount string
		wantErr    bool
	}{
		{
			name:       "success converts subunits",
			reference:  "ref_ok",
			status:     http.StatusOK,
			body:       `{"status":true,"message":"Verification successful","data":{"status":"success","reference":"ref_ok","amount":250050,"currency":"NGN"}}`,
			wantAmount: "2500.50",
		},
		{
			name:       "currency compared case-insensitively",
			reference:  "ref_lower",
			status:     http.StatusOK,
			body:       `{"status":true,"data":{"status":"success","reference":"ref_lower","amount":100000,"currency":"ngn"}}`,
			wantAmount: "1000.00",
		},
		{
			name:      "settled in another currency",
			reference: "ref_usd",
			status:    http.StatusOK,
			body:      `{"status":true,"data":{"status":"success","reference":"ref_usd","amount":500000,"currency":"GHS"}}`,
			wantErr:   true,
		},
		{
			name:      "declined transaction",
			reference: "ref_failed",
			status:    http.StatusOK,
			body:      `{"status":true,"data":{"status":"failed","amount":250000}}`,
			wantErr:   true,
		},
		{
			name:      "provider status false",
			reference: "ref_x",
			status:    http.StatusOK,
			body:      `{"status":false,"message":"Transaction reference not found"}`,
			wantErr:   true,
		},
		{
			name:      "non 200",
			reference: "ref_missing",
			status:    http.StatusNotFound,
			body:      `{"status":false}`,
			wantErr:   true,
		},
		{
			name:      "malformed body",
			reference: "ref_bad",
			status:    http.StatusOK,
			body:      `{`,
			wantErr:   true,
		},
		{
			name:      "timeout",
			reference: "ref_slow",
			status:    http.StatusOK,
			body:      `{"status":true,"data":{"status":"success","amount":100,"currency":"NGN"}}`,
			delay:     200 * time.Millisecond,
			wantErr:   true,
		},
		{
			name:      "empty reference",
			reference: "  ",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				if tt.delay > 0 {
					select {
					case <-time.After(tt.delay):
					case <-r.Context().Done():
						return
					}
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			v := NewPaystackVerifier(srv.Client(), srv.URL, "sk_test_123", "NGN", 50*time.Millisecond)
			res, err := v.Verify(context.Background(), tt.reference)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrPaymentFailed)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.True(t, res.AmountPaid.Equal(decimal.RequireFromString(tt.wantAmount)), "amount %s", res.AmountPaid)
			assert.Equal(t, "/transaction/verify/"+tt.reference, gotPath)
			assert.Equal(t, "Bearer sk_test_123", gotAuth)
			assert.Equal(t, "NGN", res.Currency)
		})
	}
}

func TestUnconfiguredVerifier_Verify(t *testing.T) {
	_, err := NewUnconfiguredVerifier().Verify(context.Background(), "ref")
	require.ErrorIs(t, err, domain.ErrPaymentFailed)
}
