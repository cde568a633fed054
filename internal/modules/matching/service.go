// README: Dispatch scheduler: pairs requested bookings with nearby online drivers.
package matching

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"lifti/internal/config"
	"lifti/internal/modules/booking"
	"lifti/internal/types"
)

// BookingDispatcher is the slice of the booking service the scheduler needs.
type BookingDispatcher interface {
	ListRequested(ctx context.Context, limit int) ([]*booking.Booking, error)
	Match(ctx context.Context, cmd booking.MatchCommand) error
	Accept(ctx context.Context, cmd booking.AcceptCommand) error
}

// MatchStore tracks the online driver pool and per-booking dispatch state.
// The production implementation is the Redis-backed Store in this package.
type MatchStore interface {
	AddCandidate(ctx context.Context, c Candidate) error
	RemoveCandidate(ctx context.Context, id types.ID) error
	NearbyDrivers(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
	RecordDispatch(ctx context.Context, bookingID types.ID, driverIDs []types.ID) error
	GetDispatchedAt(ctx context.Context, bookingID types.ID) (time.Time, bool, error)
	MarkBroadcast(ctx context.Context, bookingID types.ID) error
	IsBroadcast(ctx context.Context, bookingID types.ID) (bool, error)
}

// Notifier pushes dispatch notifications to driver devices. Optional.
type Notifier interface {
	NotifyDriversNewBooking(ctx context.Context, driverIDs []types.ID, b *booking.Booking) error
}

type Service struct {
	store    MatchStore
	bookings BookingDispatcher
	notifier Notifier
	cfg      config.MatchingConfig
	log      *logrus.Logger
}

func NewService(store MatchStore, bookings BookingDispatcher, notifier Notifier, cfg config.MatchingConfig, log *logrus.Logger) *Service {
	return &Service{store: store, bookings: bookings, notifier: notifier, cfg: cfg, log: log}
}

// JoinPool puts a driver into the online candidate pool.
func (s *Service) JoinPool(ctx context.Context, c Candidate) error {
	if c.ID == "" {
		return booking.ErrBadRequest
	}
	return s.store.AddCandidate(ctx, c)
}

// LeavePool removes a driver from the online candidate pool.
func (s *Service) LeavePool(ctx context.Context, driverID types.ID) error {
	return s.store.RemoveCandidate(ctx, driverID)
}

// ListOpen returns requested bookings that have been broadcast to all drivers.
func (s *Service) ListOpen(ctx context.Context) ([]*booking.Booking, error) {
	requested, err := s.bookings.ListRequested(ctx, dispatchBatchSize)
	if err != nil {
		return nil, err
	}
	var open []*booking.Booking
	for _, b := range requested {
		broadcast, err := s.store.IsBroadcast(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if broadcast {
			open = append(open, b)
		}
	}
	return open, nil
}

// Claim lets a driver take a booking off the public list. It only applies to
// bookings that have been broadcast; privately dispatched bookings go through
// the normal accept flow. The Match step carries the optimistic lock, so when
// two drivers race for the same booking the loser gets ErrInvalidState.
func (s *Service) Claim(ctx context.Context, bookingID, driverID types.ID) error {
	if bookingID == "" || driverID == "" {
		return booking.ErrBadRequest
	}
	broadcast, err := s.store.IsBroadcast(ctx, bookingID)
	if err != nil {
		return err
	}
	if !broadcast {
		return booking.ErrInvalidState
	}
	if err := s.bookings.Match(ctx, booking.MatchCommand{BookingID: bookingID, DriverID: driverID}); err != nil {
		return err
	}
	return s.bookings.Accept(ctx, booking.AcceptCommand{BookingID: bookingID, DriverID: driverID})
}

// RunScheduler drives dispatch ticks until the context is cancelled.
func (s *Service) RunScheduler(ctx context.Context) {
	tick := time.Duration(s.cfg.TickSeconds) * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickDispatch(ctx)
		}
	}
}

// tickDispatch runs one dispatch pass. New requested bookings get an initial
// batch of nearby drivers; bookings still unclaimed past rebroadcastDelay, or
// whose first trip is within a day, are opened to the public list.
func (s *Service) tickDispatch(ctx context.Context) {
	requested, err := s.bookings.ListRequested(ctx, dispatchBatchSize)
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).Error("dispatch: list requested bookings")
		}
		return
	}

	now := time.Now()
	for _, b := range requested {
		dispatchedAt, dispatched, err := s.store.GetDispatchedAt(ctx, b.ID)
		if err != nil {
			continue
		}
		if !dispatched {
			s.dispatchInitial(ctx, b)
			continue
		}
		if s.shouldBroadcast(b, dispatchedAt, now) {
			_ = s.store.MarkBroadcast(ctx, b.ID)
		}
	}
}

func (s *Service) dispatchInitial(ctx context.Context, b *booking.Booking) {
	nearby, err := s.store.NearbyDrivers(ctx, b.Pickup, s.cfg.RadiusKm)
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).WithField("booking_id", b.ID).Error("dispatch: nearby drivers")
		}
		return
	}
	if len(nearby) > selectPoolSize {
		nearby = nearby[:selectPoolSize]
	}
	notify := PickRandomDrivers(nearby, notifyInitialCount)
	if err := s.store.RecordDispatch(ctx, b.ID, notify); err != nil {
		return
	}
	if len(notify) == 0 {
		return
	}
	if s.notifier != nil {
		_ = s.notifier.NotifyDriversNewBooking(ctx, notify, b)
	}
	if err := s.bookings.Match(ctx, booking.MatchCommand{BookingID: b.ID, DriverID: notify[0]}); err != nil && s.log != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("dispatch: match failed")
	}
}

func (s *Service) shouldBroadcast(b *booking.Booking, dispatchedAt, now time.Time) bool {
	if now.Sub(dispatchedAt) > rebroadcastDelay {
		return true
	}
	if len(b.TripDates) > 0 && b.TripDates[0].Sub(now) < dayBefore {
		return true
	}
	return false
}

// PickRandomDrivers returns up to n drivers sampled uniformly from the pool
// without mutating it.
func PickRandomDrivers(pool []types.ID, n int) []types.ID {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	idx := rand.Perm(len(pool))[:n]
	out := make([]types.ID, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}
