package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"eventticketing/internal/domain"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// memStore is an in-memory backing store shared by the fake repositories. Each
// method holds mu for its whole body so conditional updates behave atomically the
// way the single-statement SQL versions do.
type memStore struct {
	mu            sync.Mutex
	seq           int
	users         map[string]*domain.User
	events        map[string]*domain.Event
	registrations map[string]*domain.Registration
	references    map[string]bool
	tickets       map[string]*domain.Ticket
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[string]*domain.User),
		events:        make(map[string]*domain.Event),
		registrations: make(map[string]*domain.Registration),
		references:    make(map[string]bool),
		tickets:       make(map[string]*domain.Ticket),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func regKey(eventID, userID string) string {
	return eventID + "|" + userID
}

type txLogKey struct{}

// txLog collects undo steps for writes made inside memTransactor.WithinTx.
type txLog struct {
	undo []func()
}

// record must be called with s.mu held.
func (s *memStore) record(ctx context.Context, undo func()) {
	if l, ok := ctx.Value(txLogKey{}).(*txLog); ok {
		l.undo = append(l.undo, undo)
	}
}

func (s *memStore) addEvent(e domain.Event) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.nextID("event")
	}
	s.events[e.ID] = &e
	cp := e
	return &cp
}

func (s *memStore) addUser(u domain.User) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.nextID("user")
	}
	s.users[u.ID] = &u
	cp := u
	return &cp
}

func (s *memStore) event(id string) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.events[id]
}

func (s *memStore) registrationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registrations)
}

func (s *memStore) ticketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *memStore) ticket(code string) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tickets[code]
}

// memTransactor rolls back the writes recorded in its log when fn fails.
type memTransactor struct {
	store     *memStore
	commitErr error
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txLogKey{}).(*txLog); ok {
		return fn(ctx)
	}
	log := &txLog{}
	err := fn(context.WithValue(ctx, txLogKey{}, log))
	if err == nil && t.commitErr != nil {
		err = fmt.Errorf("commit tx: %w", t.commitErr)
	}
	if err != nil {
		t.store.mu.Lock()
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
		t.store.mu.Unlock()
	}
	return err
}

type memUsers struct {
	*memStore
	createErr error
}

func (r *memUsers) Create(ctx context.Context, u *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = r.nextID("user")
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) UpdatePayoutReference(ctx context.Context, userID, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PayoutReference = &reference
	return nil
}

func (r *memUsers) UpdateProfile(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for id, other := range r.users {
		if id != u.ID && other.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	stored.Username = u.Username
	stored.Email = u.Email
	stored.UpdatedAt = u.UpdatedAt
	*u = *stored
	return nil
}

type memEvents struct {
	*memStore
	getErr error
}

func (r *memEvents) Create(ctx context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.nextID("event")
	e.TicketsSold = 0
	cp := *e
	r.events[e.ID] = &cp
	return nil
}

func (r *memEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *memEvents) sorted(keep func(*domain.Event) bool) []*domain.Event {
	var out []*domain.Event
	for _, e := range r.events {
		if keep(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func page(events []*domain.Event, params domain.PaginationParams) []*domain.Event {
	start := params.Offset()
	if start >= len(events) {
		return []*domain.Event{}
	}
	end := start + params.PageSize
	if end > len(events) {
		end = len(events)
	}
	return events[start:end]
}

func (r *memEvents) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(*domain.Event) bool { return true })
	return page(all, params), len(all), nil
}

func (r *memEvents) Search(ctx context.Context, query string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	all := r.sorted(func(e *domain.Event) bool {
		return strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Description), q) ||
			strings.Contains(strings.ToLower(e.Location), q) ||
			strings.Contains(strings.ToLower(e.Category), q)
	})
	return page(all, params), len(all), nil
}

func (r *memEvents) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(e *domain.Event) bool { return e.OwnerID == ownerID }), nil
}

func (r *memEvents) ListByAttendee(ctx context.Context, userID string) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(e *domain.Event) bool {
		_, ok := r.registrations[regKey(e.ID, userID)]
		return ok
	}), nil
}

func (r *memEvents) Update(ctx context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[e.ID]
	if !ok || stored.OwnerID != e.OwnerID {
		return domain.ErrNotFound
	}
	sold := stored.TicketsSold
	*stored = *e
	stored.TicketsSold = sold
	e.TicketsSold = sold
	return nil
}

func (r *memEvents) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	if e.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	for _, t := range r.tickets {
		if t.EventID == id {
			return domain.ErrEventHasTickets
		}
	}
	delete(r.events, id)
	return nil
}

func (r *memEvents) ReserveTicket(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !e.HasCapacity() {
		return nil, domain.ErrSoldOut
	}
	e.TicketsSold++
	r.record(ctx, func() { e.TicketsSold-- })
	cp := *e
	return &cp, nil
}

type memRegistrations struct {
	*memStore
}

func (r *memRegistrations) Create(ctx context.Context, reg *domain.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[reg.EventID]; !ok {
		return domain.ErrNotFound
	}
	key := regKey(reg.EventID, reg.UserID)
	if _, ok := r.registrations[key]; ok {
		return domain.ErrAlreadyRegistered
	}
	if reg.PaymentReference != nil {
		ref := *reg.PaymentReference
		if r.references[ref] {
			return fmt.Errorf("%w: payment reference already used", domain.ErrPaymentFailed)
		}
		r.references[ref] = true
		r.record(ctx, func() { delete(r.references, ref) })
	}
	reg.ID = r.nextID("reg")
	cp := *reg
	r.registrations[key] = &cp
	r.record(ctx, func() { delete(r.registrations, key) })
	return nil
}

func (r *memRegistrations) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registrations[regKey(eventID, userID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

type memTickets struct {
	*memStore
	createErr error
}

func (r *memTickets) Create(ctx context.Context, t *domain.Ticket) (bool, error) {
	if r.createErr != nil {
		return false, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.TicketCode]; ok {
		return false, nil
	}
	for _, existing := range r.tickets {
		if existing.RegistrationID == t.RegistrationID {
			return false, domain.ErrAlreadyRegistered
		}
	}
	t.ID = r.nextID("ticket")
	cp := *t
	code := t.TicketCode
	r.tickets[code] = &cp
	r.record(ctx, func() { delete(r.tickets, code) })
	return true, nil
}

func (r *memTickets) GetByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTickets) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.EventID == eventID && t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTickets) ListByUserID(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Ticket
	for _, t := range r.tickets {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketCode < out[j].TicketCode })
	return out, nil
}

func (r *memTickets) MarkUsed(ctx context.Context, eventID, code string, usedAt time.Time) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[code]
	if !ok || t.EventID != eventID || t.Used {
		return nil, domain.ErrNotFound
	}
	t.Used = true
	at := usedAt
	t.UsedAt = &at
	cp := *t
	return &cp, nil
}

// fakePayments answers Verify from a reference table.
type fakePayments struct {
	mu      sync.Mutex
	results map[string]*domain.PaymentResult
	err     error
	calls   int
}

func newFakePayments() *fakePayments {
	return &fakePayments{results: make(map[string]*domain.PaymentResult)}
}

func (f *fakePayments) succeed(ref, amount string) {
	f.results[ref] = &domain.PaymentResult{
		Success:    true,
		AmountPaid: decimal.RequireFromString(amount),
		Currency:   "NGN",
		Reference:  ref,
	}
}

func (f *fakePayments) Verify(ctx context.Context, ref string) (*domain.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res, ok := f.results[ref]
	if !ok {
		return nil, fmt.Errorf("%w: transaction not found", domain.ErrPaymentFailed)
	}
	return res, nil
}

// fakeQR encodes the payload as base64 so tests can decode it back.
type fakeQR struct {
	err error
}

const fakeQRPrefix = "data:text/plain;base64,"

func (f *fakeQR) Encode(payload []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fakeQRPrefix + base64.StdEncoding.EncodeToString(payload), nil
}

type publishedMessage struct {
	routingKey string
	payload    any
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{routingKey: routingKey, payload: payload})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) published() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage(nil), f.messages...)
}

// fakePasswordHasher implements domain.PasswordHasher without real crypto.
type fakePasswordHasher struct {
	saltErr error
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) {
	if f.saltErr != nil {
		return "", f.saltErr
	}
	return "salt", nil
}

func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash:" + salt + ":" + password, nil
}

func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash:"+salt+":"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokenIssuer struct {
	err error
}

func (f *fakeTokenIssuer) Issue(userID, email, role string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + userID + "-" + role, nil
}

func intPtr(v int) *int { return &v }
