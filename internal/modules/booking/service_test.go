// README: Booking service tests: state machine, submission flow, concurrency, expiry.
package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"lifti/internal/modules/fare"
	"lifti/internal/modules/schedule"
	"lifti/internal/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusRequested, StatusMatched, true},
		{StatusMatched, StatusAccepted, true},
		{StatusAccepted, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		// cancels
		{StatusRequested, StatusCancelled, true},
		{StatusMatched, StatusCancelled, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, false}, // trips in progress run to completion
		// expiry only from requested
		{StatusRequested, StatusExpired, true},
		{StatusMatched, StatusExpired, false},
		// terminal states have no outgoing transitions
		{StatusCompleted, StatusRequested, false},
		{StatusCancelled, StatusRequested, false},
		{StatusExpired, StatusRequested, false},
		// skipping states
		{StatusRequested, StatusAccepted, false},
		{StatusRequested, StatusCompleted, false},
		{StatusMatched, StatusInProgress, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// In-memory fake store
// ---------------------------------------------------------------------------

type fakeStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	events   []Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[types.ID]*Booking)}
}

func (f *fakeStore) Create(_ context.Context, b *Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, driverID *types.ID, reason *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	if driverID != nil {
		d := *driverID
		b.DriverID = &d
	}
	if reason != nil {
		r := *reason
		b.CancelReason = &r
	}
	return true, nil
}

func (f *fakeStore) AppendEvent(_ context.Context, e *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeStore) HasActiveByPassenger(_ context.Context, passengerID types.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.PassengerID != passengerID {
			continue
		}
		switch b.Status {
		case StatusRequested, StatusMatched, StatusAccepted, StatusInProgress:
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListByStatus(_ context.Context, status Status, limit int) ([]*Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Booking
	for _, b := range f.bookings {
		if b.Status == status && len(out) < limit {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeLedger struct {
	mu     sync.Mutex
	debits []types.Money
	err    error
}

func (f *fakeLedger) RecordDebit(_ context.Context, _ types.ID, amount types.Money, _ types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.debits = append(f.debits, amount)
	return nil
}

// newTestService wires the real fare and schedule services with a clock
// pinned to 2025-02-01, so a February weekday pattern expands to all 20 days.
func newTestService(store Store, led Ledger) *Service {
	now := func() time.Time { return time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC) }
	return NewService(store, fare.NewService("ZAR"), schedule.NewService(now), led)
}

func weekdayPattern() schedule.Pattern {
	return schedule.Pattern{Kind: schedule.KindWeekdays, Month: schedule.YearMonth{Year: 2025, Month: time.February}}
}

func singleDayPattern() schedule.Pattern {
	return schedule.Pattern{
		Kind:  schedule.KindSpecificDates,
		Dates: []time.Time{time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)},
	}
}

func mustCreate(t *testing.T, svc *Service, cmd CreateCommand) types.ID {
	t.Helper()
	id, err := svc.Create(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return id
}

func assertStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	b, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if b.Status != want {
		t.Fatalf("status = %s, want %s", b.Status, want)
	}
}

// ---------------------------------------------------------------------------
// Submission
// ---------------------------------------------------------------------------

func TestCreate_SchoolRunMonth(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	id := mustCreate(t, svc, CreateCommand{
		PassengerID: "p1",
		Service:     fare.ServiceSchoolRun,
		RoundTrip:   true,
		DistanceKm:  2,
		Pattern:     weekdayPattern(),
	})

	b, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(b.TripDates) != 20 {
		t.Errorf("trip dates = %d, want 20", len(b.TripDates))
	}
	// Single: 1500 + 2*1600 = 4700. Total: 20 * 4700.
	if b.Fare.Amount != 94000 {
		t.Errorf("fare = %d, want 94000", b.Fare.Amount)
	}
	if b.Fare.Currency != "ZAR" {
		t.Errorf("currency = %q, want ZAR", b.Fare.Currency)
	}
	assertStatus(t, svc, id, StatusRequested)
}

func TestCreate_BadRequests(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCommand{Service: fare.ServiceTaxi, Pattern: singleDayPattern()}); err != ErrBadRequest {
		t.Errorf("missing passenger: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{PassengerID: "p1", Pattern: singleDayPattern()}); err != ErrBadRequest {
		t.Errorf("missing service: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{
		PassengerID: "p1",
		Service:     fare.ServiceTaxi,
		Pattern:     schedule.Pattern{Kind: "every_full_moon"},
	}); err != schedule.ErrInvalidInput {
		t.Errorf("bad pattern: err = %v, want schedule.ErrInvalidInput", err)
	}
	// January 2025 is entirely in the past relative to the pinned clock.
	if _, err := svc.Create(ctx, CreateCommand{
		PassengerID: "p1",
		Service:     fare.ServiceTaxi,
		Pattern:     schedule.Pattern{Kind: schedule.KindWeekdays, Month: schedule.YearMonth{Year: 2025, Month: time.January}},
	}); err != ErrBadRequest {
		t.Errorf("past month: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{
		PassengerID: "p1",
		Service:     "helicopter",
		Pattern:     singleDayPattern(),
	}); err != fare.ErrUnsupportedService {
		t.Errorf("unknown service: err = %v, want fare.ErrUnsupportedService", err)
	}
}

func TestCreate_RejectsSecondActiveBooking(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	cmd := CreateCommand{
		PassengerID: "p1",
		Service:     fare.ServiceTaxi,
		DistanceKm:  5,
		Pattern:     singleDayPattern(),
	}
	mustCreate(t, svc, cmd)
	if _, err := svc.Create(context.Background(), cmd); err != ErrActiveBooking {
		t.Errorf("second booking: err = %v, want ErrActiveBooking", err)
	}
}

func TestCreate_CorporateDebit(t *testing.T) {
	led := &fakeLedger{}
	svc := newTestService(newFakeStore(), led)
	account := types.ID("acct1")

	mustCreate(t, svc, CreateCommand{
		PassengerID: "p1",
		AccountID:   &account,
		Service:     fare.ServiceTaxi,
		DistanceKm:  10,
		Pattern:     singleDayPattern(),
	})

	if len(led.debits) != 1 {
		t.Fatalf("debits = %d, want 1", len(led.debits))
	}
	if led.debits[0].Amount != 14000 { // 2000 + 12000
		t.Errorf("debit = %d, want 14000", led.debits[0].Amount)
	}
}

func TestCreate_FailedDebitCancelsBooking(t *testing.T) {
	store := newFakeStore()
	led := &fakeLedger{err: context.DeadlineExceeded}
	svc := newTestService(store, led)
	account := types.ID("acct1")

	_, err := svc.Create(context.Background(), CreateCommand{
		PassengerID: "p1",
		AccountID:   &account,
		Service:     fare.ServiceTaxi,
		DistanceKm:  10,
		Pattern:     singleDayPattern(),
	})
	if err == nil {
		t.Fatal("expected debit error")
	}

	bookings, _ := store.ListByStatus(context.Background(), StatusCancelled, 10)
	if len(bookings) != 1 {
		t.Fatalf("expected 1 cancelled booking, got %d", len(bookings))
	}
	if bookings[0].CancelReason == nil || *bookings[0].CancelReason != "ledger_debit_failed" {
		t.Errorf("cancel reason = %v, want ledger_debit_failed", bookings[0].CancelReason)
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestBookingFlowHappyPath(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	ctx := context.Background()

	id := mustCreate(t, svc, CreateCommand{
		PassengerID: "p_happy",
		Service:     fare.ServiceTaxi,
		DistanceKm:  5,
		Pattern:     singleDayPattern(),
	})
	assertStatus(t, svc, id, StatusRequested)

	if err := svc.Match(ctx, MatchCommand{BookingID: id, DriverID: "d1"}); err != nil {
		t.Fatalf("match: %v", err)
	}
	assertStatus(t, svc, id, StatusMatched)

	if err := svc.Accept(ctx, AcceptCommand{BookingID: id, DriverID: "d1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	assertStatus(t, svc, id, StatusAccepted)

	if err := svc.Start(ctx, StartCommand{BookingID: id}); err != nil {
		t.Fatalf("start: %v", err)
	}
	assertStatus(t, svc, id, StatusInProgress)

	if err := svc.Complete(ctx, CompleteCommand{BookingID: id}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertStatus(t, svc, id, StatusCompleted)
}

func TestBookingFlowInvalidTransitions(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	ctx := context.Background()

	id := mustCreate(t, svc, CreateCommand{
		PassengerID: "p_invalid",
		Service:     fare.ServiceTaxi,
		DistanceKm:  5,
		Pattern:     singleDayPattern(),
	})

	// Cannot accept or start an unmatched booking.
	if err := svc.Accept(ctx, AcceptCommand{BookingID: id, DriverID: "d1"}); err != ErrInvalidState {
		t.Errorf("accept requested: err = %v, want ErrInvalidState", err)
	}
	if err := svc.Start(ctx, StartCommand{BookingID: id}); err != ErrInvalidState {
		t.Errorf("start requested: err = %v, want ErrInvalidState", err)
	}

	if err := svc.Cancel(ctx, CancelCommand{BookingID: id, ActorType: "passenger", Reason: "changed_mind"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	cancelled, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get cancelled booking: %v", err)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "changed_mind" {
		t.Errorf("cancel reason = %v, want changed_mind", cancelled.CancelReason)
	}
	// Terminal: nothing moves out of cancelled.
	if err := svc.Match(ctx, MatchCommand{BookingID: id, DriverID: "d1"}); err != ErrInvalidState {
		t.Errorf("match cancelled: err = %v, want ErrInvalidState", err)
	}

	if err := svc.Cancel(ctx, CancelCommand{BookingID: "missing", ActorType: "passenger"}); err != ErrNotFound {
		t.Errorf("cancel missing: err = %v, want ErrNotFound", err)
	}
}

// TestConcurrentAcceptSameBooking runs several drivers against one matched
// booking; exactly one accept wins, the rest lose the optimistic lock.
func TestConcurrentAcceptSameBooking(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	ctx := context.Background()

	id := mustCreate(t, svc, CreateCommand{
		PassengerID: "p_race",
		Service:     fare.ServiceTaxi,
		DistanceKm:  5,
		Pattern:     singleDayPattern(),
	})
	if err := svc.Match(ctx, MatchCommand{BookingID: id, DriverID: "d0"}); err != nil {
		t.Fatalf("match: %v", err)
	}

	driverIDs := []types.ID{"d1", "d2", "d3"}
	errs := make(chan error, len(driverIDs))
	start := make(chan struct{})
	var wg sync.WaitGroup

	for _, driverID := range driverIDs {
		wg.Add(1)
		go func(did types.ID) {
			defer wg.Done()
			<-start
			errs <- svc.Accept(ctx, AcceptCommand{BookingID: id, DriverID: did})
		}(driverID)
	}

	close(start)
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if err != ErrConflict && err != ErrInvalidState {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful accept, got %d", success)
	}
	assertStatus(t, svc, id, StatusAccepted)
}

// ---------------------------------------------------------------------------
// Expiry
// ---------------------------------------------------------------------------

func TestExpireStale(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	fresh := mustCreate(t, svc, CreateCommand{
		PassengerID: "p_fresh",
		Service:     fare.ServiceTaxi,
		DistanceKm:  5,
		Pattern:     singleDayPattern(),
	})

	stale := &Booking{
		ID:          "stalebooking",
		PassengerID: "p_stale",
		Status:      StatusRequested,
		Service:     fare.ServiceTaxi,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
	if err := store.Create(ctx, stale); err != nil {
		t.Fatalf("seed stale booking: %v", err)
	}

	if err := svc.expireStale(ctx); err != nil {
		t.Fatalf("expireStale: %v", err)
	}

	assertStatus(t, svc, stale.ID, StatusExpired)
	assertStatus(t, svc, fresh, StatusRequested)
}

// TestExpireStaleFutureTrip: a booking made days ahead of its first trip must
// not expire after requestTimeout, or the day-before broadcast would never
// see it. Only once the trip date itself has passed does it expire.
func TestExpireStaleFutureTrip(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	upcoming := &Booking{
		ID:          "upcomingtrip",
		PassengerID: "p_upcoming",
		Status:      StatusRequested,
		Service:     fare.ServiceTaxi,
		CreatedAt:   time.Now().Add(-2 * time.Hour),
		TripDates:   []time.Time{time.Now().Add(48 * time.Hour)},
	}
	missed := &Booking{
		ID:          "missedtrip",
		PassengerID: "p_missed",
		Status:      StatusRequested,
		Service:     fare.ServiceTaxi,
		CreatedAt:   time.Now().Add(-72 * time.Hour),
		TripDates:   []time.Time{time.Now().Add(-time.Hour)},
	}
	for _, b := range []*Booking{upcoming, missed} {
		if err := store.Create(ctx, b); err != nil {
			t.Fatalf("seed booking %s: %v", b.ID, err)
		}
	}

	if err := svc.expireStale(ctx); err != nil {
		t.Fatalf("expireStale: %v", err)
	}

	assertStatus(t, svc, upcoming.ID, StatusRequested)
	assertStatus(t, svc, missed.ID, StatusExpired)
}
