package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"eventticketing/internal/delivery/http/helpers"
	"eventticketing/internal/delivery/http/middleware"
	"eventticketing/internal/domain"
)

const testEventID = "6f1c2a9e-4b7d-4c55-9a0e-0d6c1f2b3a4e"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	return httptest.NewRequest(method, target, &buf)
}

func asUser(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(middleware.SetIdentity(r.Context(), &domain.Identity{UserID: userID, Role: role}))
}

// serve routes the request through a mux so PathValue is populated.
func serve(pattern string, handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, r)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	if data != nil && env.Error == nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env.Error
}

type fakeIssuer struct {
	issuance *domain.Issuance
	err      error
	checkErr error
	lastIn   domain.IssueTicketInput
}

func (f *fakeIssuer) Issue(_ context.Context, in domain.IssueTicketInput) (*domain.Issuance, error) {
	f.lastIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.issuance, nil
}

func (f *fakeIssuer) CheckRegistration(_ context.Context, _, _ string) error {
	return f.checkErr
}

type fakeVerifier struct {
	summary *domain.TicketSummary
	err     error
	gotCode string
}

func (f *fakeVerifier) Verify(_ context.Context, _ string, code string) (*domain.TicketSummary, error) {
	f.gotCode = code
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

type fakeUserService struct {
	result *domain.AuthResult
	user   *domain.User
	err    error
}

func (f *fakeUserService) SignUp(_ context.Context, _, _, _, _ string) (*domain.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeUserService) Login(_ context.Context, _, _ string) (*domain.AuthResult, error) {
	return f.result, f.err
}

func (f *fakeUserService) GetByID(_ context.Context, _ string) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) UpdatePayoutReference(_ context.Context, _, ref string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := *f.user
	u.PayoutReference = &ref
	return &u, nil
}

func (f *fakeUserService) UpdateProfile(_ context.Context, userID, username, email string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: userID, Username: username, Email: email, Role: domain.RoleAttendee}, nil
}

type fakeEventService struct {
	event   *domain.Event
	events  []*domain.Event
	total   int
	err     error
	lastIn  domain.EventInput
	lastQ   string
	deleted string
}

func (f *fakeEventService) Create(_ context.Context, _ string, in domain.EventInput) (*domain.Event, error) {
	f.lastIn = in
	return f.event, f.err
}

func (f *fakeEventService) GetByID(_ context.Context, _ string) (*domain.Event, error) {
	return f.event, f.err
}

func (f *fakeEventService) List(_ context.Context, _ domain.PaginationParams) ([]*domain.Event, int, error) {
	return f.events, f.total, f.err
}

func (f *fakeEventService) Search(_ context.Context, q string, _ domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastQ = q
	return f.events, f.total, f.err
}

func (f *fakeEventService) ListByOwner(_ context.Context, _ string) ([]*domain.Event, error) {
	return f.events, f.err
}

func (f *fakeEventService) Update(_ context.Context, _, _ string, in domain.EventInput) (*domain.Event, error) {
	f.lastIn = in
	return f.event, f.err
}

func (f *fakeEventService) Delete(_ context.Context, id, _ string) error {
	f.deleted = id
	return f.err
}

type fakeAttendeeService struct {
	events  []*domain.Event
	tickets []*domain.Ticket
	ticket  *domain.TicketWithQR
	err     error
}

func (f *fakeAttendeeService) ListMyEvents(context.Context, string) ([]*domain.Event, error) {
	return f.events, f.err
}

func (f *fakeAttendeeService) ListMyTickets(context.Context, string) ([]*domain.Ticket, error) {
	return f.tickets, f.err
}

func (f *fakeAttendeeService) GetMyTicket(context.Context, string, string) (*domain.TicketWithQR, error) {
	return f.ticket, f.err
}
