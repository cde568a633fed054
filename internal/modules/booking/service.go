// README: Booking service implements submission, state transitions, and expiry.
package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math"
	"time"

	"lifti/internal/modules/fare"
	"lifti/internal/modules/schedule"
	"lifti/internal/types"
)

var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("booking not found")
	ErrInvalidState  = errors.New("invalid state transition")
	ErrConflict      = errors.New("booking state conflict")
	ErrActiveBooking = errors.New("passenger has active booking")
)

// requestTimeout is how long a booking may sit unmatched before expiring.
// Future-dated bookings additionally survive until their first trip date so
// they stay on the dispatch list long enough to be broadcast.
const requestTimeout = 5 * time.Minute

// Quoter prices a fare request. Satisfied by *fare.Service.
type Quoter interface {
	Quote(req fare.Request) (fare.Breakdown, error)
}

// Expander turns a recurrence pattern into the bookable dates.
// Satisfied by *schedule.Service.
type Expander interface {
	Remaining(p schedule.Pattern) ([]time.Time, error)
}

// Ledger debits a corporate account for a booking charge.
// Satisfied by *ledger.Service; nil when corporate billing is disabled.
type Ledger interface {
	RecordDebit(ctx context.Context, accountID types.ID, amount types.Money, bookingID types.ID) error
}

// Store is the persistence surface the service needs. The production
// implementation is the pgx-backed Store in this package; tests use an
// in-memory fake.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, reason *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	HasActiveByPassenger(ctx context.Context, passengerID types.ID) (bool, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Booking, error)
}

type Service struct {
	store    Store
	quoter   Quoter
	expander Expander
	ledger   Ledger
}

func NewService(store Store, quoter Quoter, expander Expander, ledger Ledger) *Service {
	return &Service{store: store, quoter: quoter, expander: expander, ledger: ledger}
}

type CreateCommand struct {
	PassengerID  types.ID
	AccountID    *types.ID
	Service      fare.ServiceType
	VehicleClass fare.VehicleClass
	PackageSize  fare.PackageSize
	RoundTrip    bool
	Pickup       types.Point
	Dropoff      types.Point
	DistanceKm   float64 // optional; derived from the points when zero
	Pattern      schedule.Pattern
}

type MatchCommand struct {
	BookingID types.ID
	DriverID  types.ID
}

type AcceptCommand struct {
	BookingID types.ID
	DriverID  types.ID
}

type StartCommand struct {
	BookingID types.ID
}

type CompleteCommand struct {
	BookingID types.ID
}

type CancelCommand struct {
	BookingID types.ID
	ActorType string
	Reason    string
}

// Create validates the submission, expands the recurrence pattern, quotes
// the fare, and persists the booking in the requested state. Corporate
// bookings are debited against the account ledger; a failed debit cancels
// the booking again so no unpaid booking stays live.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.PassengerID == "" || cmd.Service == "" {
		return "", ErrBadRequest
	}
	active, err := s.store.HasActiveByPassenger(ctx, cmd.PassengerID)
	if err != nil {
		return "", err
	}
	if active {
		return "", ErrActiveBooking
	}

	dates, err := s.expander.Remaining(cmd.Pattern)
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", ErrBadRequest
	}

	dist := cmd.DistanceKm
	if dist <= 0 {
		dist = distanceKm(cmd.Pickup, cmd.Dropoff)
	}
	quote, err := s.quoter.Quote(fare.Request{
		DistanceKm:   dist,
		Service:      cmd.Service,
		VehicleClass: cmd.VehicleClass,
		PackageSize:  cmd.PackageSize,
		RoundTrip:    cmd.RoundTrip,
		Trips:        len(dates),
	})
	if err != nil {
		return "", err
	}

	id := newID()
	now := time.Now()
	b := &Booking{
		ID:            id,
		PassengerID:   cmd.PassengerID,
		AccountID:     cmd.AccountID,
		Status:        StatusRequested,
		StatusVersion: 0,
		Service:       cmd.Service,
		VehicleClass:  cmd.VehicleClass,
		PackageSize:   cmd.PackageSize,
		RoundTrip:     cmd.RoundTrip,
		Pickup:        cmd.Pickup,
		Dropoff:       cmd.Dropoff,
		DistanceKm:    dist,
		TripDates:     dates,
		Fare:          types.Money{Amount: quote.Total, Currency: quote.Currency},
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, b); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  id,
		FromStatus: StatusNone,
		ToStatus:   StatusRequested,
		ActorType:  "passenger",
		ActorID:    &cmd.PassengerID,
		CreatedAt:  now,
	})

	if cmd.AccountID != nil && s.ledger != nil {
		if err := s.ledger.RecordDebit(ctx, *cmd.AccountID, b.Fare, id); err != nil {
			_ = s.Cancel(ctx, CancelCommand{BookingID: id, ActorType: "system", Reason: "ledger_debit_failed"})
			return "", err
		}
	}
	return id, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

// ListRequested exposes unmatched bookings for the dispatch scheduler.
func (s *Service) ListRequested(ctx context.Context, limit int) ([]*Booking, error) {
	return s.store.ListByStatus(ctx, StatusRequested, limit)
}

func (s *Service) Match(ctx context.Context, cmd MatchCommand) error {
	return s.transition(ctx, cmd.BookingID, StatusMatched, "system", nil, &cmd.DriverID)
}

func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) error {
	return s.transition(ctx, cmd.BookingID, StatusAccepted, "driver", &cmd.DriverID, &cmd.DriverID)
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	return s.transition(ctx, cmd.BookingID, StatusInProgress, "driver", nil, nil)
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	return s.transition(ctx, cmd.BookingID, StatusCompleted, "driver", nil, nil)
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	b, err := s.store.Get(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return ErrInvalidState
	}
	var reason *string
	if cmd.Reason != "" {
		reason = &cmd.Reason
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, b.StatusVersion, b.DriverID, reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, actorType string, actorID, driverID *types.ID) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, to) {
		return ErrInvalidState
	}
	if driverID == nil {
		driverID = b.DriverID
	}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, driverID, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		BookingID:  b.ID,
		FromStatus: b.Status,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  time.Now(),
	})
	return nil
}

// RunExpiryMonitor expires bookings that sat unmatched past requestTimeout.
func (s *Service) RunExpiryMonitor(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.expireStale(ctx)
		}
	}
}

func (s *Service) expireStale(ctx context.Context) error {
	stale, err := s.store.ListByStatus(ctx, StatusRequested, 100)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, b := range stale {
		if !isStale(b, now) {
			continue
		}
		ok, err := s.store.UpdateStatus(ctx, b.ID, StatusRequested, StatusExpired, b.StatusVersion, b.DriverID, nil)
		if err != nil || !ok {
			continue
		}
		_ = s.store.AppendEvent(ctx, &Event{
			BookingID:  b.ID,
			FromStatus: StatusRequested,
			ToStatus:   StatusExpired,
			ActorType:  "system",
			CreatedAt:  time.Now(),
		})
	}
	return nil
}

// isStale reports whether an unmatched booking should expire. A booking made
// well ahead of its first trip must outlive requestTimeout so the day-before
// broadcast window can still find it; it only expires once the first trip
// date has come and gone.
func isStale(b *Booking, now time.Time) bool {
	if now.Sub(b.CreatedAt) < requestTimeout {
		return false
	}
	if len(b.TripDates) > 0 && now.Before(b.TripDates[0].Add(requestTimeout)) {
		return false
	}
	return true
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}

func distanceKm(a, b types.Point) float64 {
	const R = 6371.0
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dlat := (b.Lat - a.Lat) * math.Pi / 180.0
	dlng := (b.Lng - a.Lng) * math.Pi / 180.0
	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * R * math.Asin(math.Sqrt(h))
}
