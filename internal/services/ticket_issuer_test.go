package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/clock"
	"eventticketing/internal/domain"
)

var ticketCodePattern = regexp.MustCompile(`^TKT-[0-9a-f]{12}$`)

type issuerFixture struct {
	store     *memStore
	tx        *memTransactor
	tickets   *memTickets
	payments  *fakePayments
	qr        *fakeQR
	publisher *fakePublisher
	issuer    *ticketIssuer
}

func newIssuerFixture() *issuerFixture {
	store := newMemStore()
	f := &issuerFixture{
		store:     store,
		tx:        &memTransactor{store: store},
		tickets:   &memTickets{memStore: store},
		payments:  newFakePayments(),
		qr:        &fakeQR{},
		publisher: &fakePublisher{},
	}
	f.issuer = NewTicketIssuer(
		f.tx,
		&memEvents{memStore: store},
		&memRegistrations{memStore: store},
		f.tickets,
		f.payments,
		f.qr,
		f.publisher,
		clock.NewFixed(testNow),
		discardLogger(),
	).(*ticketIssuer)
	return f
}

func (f *issuerFixture) event(price string, capacity *int, sold int) *domain.Event {
	return f.store.addEvent(domain.Event{
		OwnerID:      "organizer-1",
		Title:        "Lagos Tech Summit",
		Date:         time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Time:         "10:00",
		Location:     "Landmark Centre",
		Price:        decimal.RequireFromString(price),
		TotalTickets: capacity,
		TicketsSold:  sold,
	})
}

func issueInput(eventID, userID, ref string) domain.IssueTicketInput {
	return domain.IssueTicketInput{
		EventID:          eventID,
		UserID:           userID,
		Contact:          domain.Contact{Name: "Ada Obi", Email: "Ada@Example.com ", Phone: "+2348000000000"},
		PaymentReference: ref,
	}
}

func decodeFakeQR(t *testing.T, uri string) domain.QRPayload {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, fakeQRPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, fakeQRPrefix))
	require.NoError(t, err)
	var p domain.QRPayload
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func TestTicketIssuer_Issue_FreeEvent(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", intPtr(10), 3)

	got, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
	require.NoError(t, err)

	reg := got.Registration
	assert.Equal(t, domain.PaymentStatusPaid, reg.PaymentStatus)
	assert.True(t, reg.AmountPaid.IsZero())
	assert.Nil(t, reg.PaymentReference)
	assert.Equal(t, "ada@example.com", reg.Email)
	assert.Equal(t, testNow, reg.CreatedAt)

	ticket := got.Ticket
	assert.Regexp(t, ticketCodePattern, ticket.TicketCode)
	assert.Equal(t, reg.ID, ticket.RegistrationID)
	assert.False(t, ticket.Used)
	assert.Nil(t, ticket.UsedAt)
	assert.Equal(t, domain.EventDetails{Title: "Lagos Tech Summit", Date: "2026-05-01", Time: "10:00", Location: "Landmark Centre"}, ticket.EventDetails)

	payload := decodeFakeQR(t, ticket.QRCode)
	assert.Equal(t, ticket.ID, payload.TicketID)
	assert.Equal(t, ticket.TicketCode, payload.TicketCode)
	assert.Equal(t, ev.ID, payload.EventID)
	assert.Equal(t, "Lagos Tech Summit", payload.EventDetails.Title)

	assert.Equal(t, 4, f.store.event(ev.ID).TicketsSold)
	assert.Zero(t, f.payments.calls, "free events never reach the payment provider")

	msgs := f.publisher.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoutingKeyTicketIssued, msgs[0].routingKey)
	issued, ok := msgs[0].payload.(domain.TicketIssuedEvent)
	require.True(t, ok)
	assert.Equal(t, ticket.TicketCode, issued.TicketCode)
	assert.Equal(t, "0.00", issued.AmountPaid)
}

func TestTicketIssuer_Issue_PaidEventRecordsProviderAmount(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("5000", nil, 0)
	f.payments.succeed("ref-123", "5500")

	got, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", " ref-123 "))
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPaid, got.Registration.PaymentStatus)
	assert.True(t, decimal.RequireFromString("5500").Equal(got.Registration.AmountPaid))
	require.NotNil(t, got.Registration.PaymentReference)
	assert.Equal(t, "ref-123", *got.Registration.PaymentReference)
	assert.Equal(t, 1, f.store.event(ev.ID).TicketsSold)
}

func TestTicketIssuer_Issue_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		cap     *int
		sold    int
		ref     string
		setup   func(f *issuerFixture, eventID string)
		input   func(eventID string) domain.IssueTicketInput
		wantErr error
	}{
		{
			name:    "sold out",
			price:   "0",
			cap:     intPtr(2),
			sold:    2,
			wantErr: domain.ErrSoldOut,
		},
		{
			name:    "missing payment reference",
			price:   "1000",
			wantErr: domain.ErrPaymentFailed,
		},
		{
			name:    "provider rejects reference",
			price:   "1000",
			ref:     "unknown",
			wantErr: domain.ErrPaymentFailed,
		},
		{
			name:  "underpayment",
			price: "1000",
			ref:   "ref-low",
			setup: func(f *issuerFixture, _ string) {
				f.payments.succeed("ref-low", "999.99")
			},
			wantErr: domain.ErrPaymentFailed,
		},
		{
			name:  "provider unreachable",
			price: "1000",
			ref:   "ref-1",
			setup: func(f *issuerFixture, _ string) {
				f.payments.err = errors.New("dial tcp: connection refused")
			},
			wantErr: domain.ErrPaymentFailed,
		},
		{
			name:  "unsuccessful transaction",
			price: "1000",
			ref:   "ref-abandoned",
			setup: func(f *issuerFixture, _ string) {
				f.payments.results["ref-abandoned"] = &domain.PaymentResult{Success: false, AmountPaid: decimal.NewFromInt(1000)}
			},
			wantErr: domain.ErrPaymentFailed,
		},
		{
			name:  "unknown event",
			price: "0",
			input: func(string) domain.IssueTicketInput {
				return issueInput("missing-event", "user-1", "")
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name:  "missing contact",
			price: "0",
			input: func(eventID string) domain.IssueTicketInput {
				in := issueInput(eventID, "user-1", "")
				in.Contact.Phone = "  "
				return in
			},
			wantErr: domain.ErrValidation,
		},
		{
			name:  "invalid email",
			price: "0",
			input: func(eventID string) domain.IssueTicketInput {
				in := issueInput(eventID, "user-1", "")
				in.Contact.Email = "not-an-email"
				return in
			},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIssuerFixture()
			ev := f.event(tt.price, tt.cap, tt.sold)
			if tt.setup != nil {
				tt.setup(f, ev.ID)
			}
			in := issueInput(ev.ID, "user-1", tt.ref)
			if tt.input != nil {
				in = tt.input(ev.ID)
			}

			got, err := f.issuer.Issue(context.Background(), in)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
			assert.Zero(t, f.store.registrationCount())
			assert.Zero(t, f.store.ticketCount())
			assert.Equal(t, tt.sold, f.store.event(ev.ID).TicketsSold)
			assert.Empty(t, f.publisher.published())
		})
	}
}

func TestTicketIssuer_Issue_DuplicateRegistration(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", intPtr(5), 0)

	_, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
	require.NoError(t, err)

	_, err = f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
	require.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	assert.Equal(t, 1, f.store.registrationCount())
	assert.Equal(t, 1, f.store.ticketCount())
	assert.Equal(t, 1, f.store.event(ev.ID).TicketsSold)
}

func TestTicketIssuer_Issue_PaymentReferenceReuse(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("1000", nil, 0)
	f.payments.succeed("ref-shared", "1000")

	_, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", "ref-shared"))
	require.NoError(t, err)

	_, err = f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-2", "ref-shared"))
	require.ErrorIs(t, err, domain.ErrPaymentFailed)
	assert.Equal(t, 1, f.store.event(ev.ID).TicketsSold, "capacity increment rolls back with the registration")
	assert.Equal(t, 1, f.store.ticketCount())
}

func TestTicketIssuer_Issue_RetriesCodeCollision(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", nil, 0)
	f.store.tickets["TKT-000000000001"] = &domain.Ticket{ID: "existing", TicketCode: "TKT-000000000001", RegistrationID: "other"}

	codes := []string{"TKT-000000000001", "TKT-000000000001", "TKT-00000000000a"}
	f.issuer.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	got, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
	require.NoError(t, err)
	assert.Equal(t, "TKT-00000000000a", got.Ticket.TicketCode)
	assert.Empty(t, codes)
}

func TestTicketIssuer_Issue_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", intPtr(3), 0)
	f.store.tickets["TKT-000000000001"] = &domain.Ticket{ID: "existing", TicketCode: "TKT-000000000001", RegistrationID: "other"}
	f.issuer.newCode = func() (string, error) { return "TKT-000000000001", nil }

	_, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no unique code")
	assert.Equal(t, 0, f.store.event(ev.ID).TicketsSold)
	assert.Zero(t, f.store.registrationCount())
}

func TestTicketIssuer_Issue_RollsBackWhenQREncodingFails(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", intPtr(1), 0)
	f.qr.err = errors.New("qr: payload too large")

	_, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
	require.Error(t, err)

	assert.Equal(t, 0, f.store.event(ev.ID).TicketsSold)
	assert.Zero(t, f.store.registrationCount())
	assert.Zero(t, f.store.ticketCount())
}

func TestTicketIssuer_Issue_RollsBackWhenCommitFails(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", intPtr(1), 0)
	f.tx.commitErr = errors.New("connection reset")

	_, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
	require.Error(t, err)

	assert.Equal(t, 0, f.store.event(ev.ID).TicketsSold)
	assert.Zero(t, f.store.ticketCount())
	assert.Empty(t, f.publisher.published())
}

// repricingEvents applies an organizer price edit just before the reservation lands.
type repricingEvents struct {
	*memEvents
	price decimal.Decimal
}

func (r *repricingEvents) ReserveTicket(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	if e, ok := r.events[id]; ok {
		e.Price = r.price
	}
	r.mu.Unlock()
	return r.memEvents.ReserveTicket(ctx, id)
}

func TestTicketIssuer_Issue_PriceChangedBeforeReservation(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		newPrice string
		paid     string
		ref      string
		wantErr  error
	}{
		{name: "free event turned paid", price: "0", newPrice: "50", ref: "", wantErr: domain.ErrPaymentFailed},
		{name: "price raised above payment", price: "5000", newPrice: "6000", paid: "5000", ref: "ref-1", wantErr: domain.ErrPaymentFailed},
		{name: "price raised but still covered", price: "5000", newPrice: "5500", paid: "5500", ref: "ref-1"},
		{name: "paid event made free", price: "5000", newPrice: "0", paid: "5000", ref: "ref-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIssuerFixture()
			ev := f.event(tt.price, intPtr(5), 0)
			if tt.paid != "" {
				f.payments.succeed(tt.ref, tt.paid)
			}
			f.issuer.eventRepo = &repricingEvents{
				memEvents: &memEvents{memStore: f.store},
				price:     decimal.RequireFromString(tt.newPrice),
			}

			got, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", tt.ref))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.Equal(t, 0, f.store.event(ev.ID).TicketsSold)
				assert.Zero(t, f.store.registrationCount())
				assert.Zero(t, f.store.ticketCount())
				assert.Empty(t, f.publisher.published())
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.paid).Equal(got.Registration.AmountPaid))
			assert.Equal(t, 1, f.store.event(ev.ID).TicketsSold)
		})
	}
}

func TestTicketIssuer_Issue_PublishFailureDoesNotFailIssuance(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", nil, 0)
	f.publisher.err = errors.New("channel closed")

	got, err := f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
	require.NoError(t, err)
	assert.NotNil(t, got.Ticket)
	assert.Equal(t, 1, f.store.ticketCount())
}

func TestTicketIssuer_Issue_ConcurrentRegistrationsRespectCapacity(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", intPtr(1), 0)

	const attendees = 20
	var wg sync.WaitGroup
	errs := make([]error, attendees)
	for i := range attendees {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-"+string(rune('a'+i)), ""))
		}(i)
	}
	wg.Wait()

	var ok, soldOut int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attendees-1, soldOut)
	assert.Equal(t, 1, f.store.event(ev.ID).TicketsSold)
	assert.Equal(t, 1, f.store.ticketCount())
}

func TestTicketIssuer_Issue_ConcurrentDuplicatesFromOneUser(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", intPtr(100), 0)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.issuer.Issue(context.Background(), issueInput(ev.ID, "user-1", ""))
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, f.store.event(ev.ID).TicketsSold)
	assert.Equal(t, 1, f.store.registrationCount())
}

func TestTicketIssuer_CheckRegistration(t *testing.T) {
	f := newIssuerFixture()
	ev := f.event("0", nil, 0)
	ctx := context.Background()

	require.NoError(t, f.issuer.CheckRegistration(ctx, ev.ID, "user-1"))

	_, err := f.issuer.Issue(ctx, issueInput(ev.ID, "user-1", ""))
	require.NoError(t, err)

	assert.ErrorIs(t, f.issuer.CheckRegistration(ctx, ev.ID, "user-1"), domain.ErrAlreadyRegistered)
	assert.NoError(t, f.issuer.CheckRegistration(ctx, ev.ID, "user-2"))
	assert.ErrorIs(t, f.issuer.CheckRegistration(ctx, " ", "user-2"), domain.ErrValidation)
}

func TestNewTicketCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 200 {
		code, err := newTicketCode()
		require.NoError(t, err)
		require.Regexp(t, ticketCodePattern, code)
		require.False(t, seen[code])
		seen[code] = true
	}
}
