// README: Booking store backed by PostgreSQL with optimistic status locking.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lifti/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const bookingColumns = `
	id, passenger_id, account_id, driver_id, status, status_version,
	service_type, vehicle_class, package_size, round_trip,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, distance_km,
	trip_dates, fare_total, fare_currency,
	created_at, matched_at, accepted_at, started_at, completed_at, cancelled_at, cancel_reason`

func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, passenger_id, account_id, driver_id, status, status_version,
			service_type, vehicle_class, package_size, round_trip,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, distance_km,
			trip_dates, fare_total, fare_currency, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19
		)`,
		string(b.ID),
		string(b.PassengerID),
		idToStringPtr(b.AccountID),
		idToStringPtr(b.DriverID),
		string(b.Status),
		b.StatusVersion,
		string(b.Service),
		string(b.VehicleClass),
		string(b.PackageSize),
		b.RoundTrip,
		b.Pickup.Lat, b.Pickup.Lng,
		b.Dropoff.Lat, b.Dropoff.Lng,
		b.DistanceKm,
		b.TripDates,
		b.Fare.Amount,
		b.Fare.Currency,
		b.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1`, string(id),
	)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// UpdateStatus flips the status only when both the expected current status
// and the version still match, bumping the version. Returns false when the
// row was changed underneath us (optimistic lock lost).
func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET
			status = $1,
			status_version = status_version + 1,
			driver_id = COALESCE($2, driver_id),
			matched_at = CASE WHEN $1 = 'matched' THEN NOW() ELSE matched_at END,
			accepted_at = CASE WHEN $1 = 'accepted' THEN NOW() ELSE accepted_at END,
			started_at = CASE WHEN $1 = 'in_progress' THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
			cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
			cancel_reason = COALESCE($6, cancel_reason)
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		idToStringPtr(driverID),
		string(id),
		string(from),
		version,
		reason,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_state_events (
			booking_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.BookingID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		idToStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *PGStore) HasActiveByPassenger(ctx context.Context, passengerID types.ID) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE passenger_id = $1
			  AND status IN ('requested','matched','accepted','in_progress')
		)`, string(passengerID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *PGStore) ListByStatus(ctx context.Context, status Status, limit int) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`, string(status), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var accountID, driverID, cancelReason sql.NullString
	var matchedAt, acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.PassengerID, &accountID, &driverID, &b.Status, &b.StatusVersion,
		&b.Service, &b.VehicleClass, &b.PackageSize, &b.RoundTrip,
		&b.Pickup.Lat, &b.Pickup.Lng, &b.Dropoff.Lat, &b.Dropoff.Lng, &b.DistanceKm,
		&b.TripDates, &b.Fare.Amount, &b.Fare.Currency,
		&b.CreatedAt, &matchedAt, &acceptedAt, &startedAt, &completedAt, &cancelledAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}

	b.AccountID = stringToIDPtr(accountID)
	b.DriverID = stringToIDPtr(driverID)
	if cancelReason.Valid {
		b.CancelReason = &cancelReason.String
	}
	b.MatchedAt = toTimePtr(matchedAt)
	b.AcceptedAt = toTimePtr(acceptedAt)
	b.StartedAt = toTimePtr(startedAt)
	b.CompletedAt = toTimePtr(completedAt)
	b.CancelledAt = toTimePtr(cancelledAt)
	return &b, nil
}

func idToStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func stringToIDPtr(v sql.NullString) *types.ID {
	if !v.Valid {
		return nil
	}
	id := types.ID(v.String)
	return &id
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
