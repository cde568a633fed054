// README: Booking aggregate, status machine, and event log types.
package booking

import (
	"time"

	"lifti/internal/modules/fare"
	"lifti/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusRequested  Status = "requested"
	StatusMatched    Status = "matched"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

// Booking covers one submission: a single trip or a whole recurring series.
// TripDates holds the concrete dates the schedule pattern expanded to; Fare
// is the quoted total across all of them.
type Booking struct {
	ID            types.ID
	PassengerID   types.ID
	AccountID     *types.ID // corporate account; nil for individual riders
	DriverID      *types.ID
	Status        Status
	StatusVersion int
	Service       fare.ServiceType
	VehicleClass  fare.VehicleClass
	PackageSize   fare.PackageSize
	RoundTrip     bool
	Pickup        types.Point
	Dropoff       types.Point
	DistanceKm    float64
	TripDates     []time.Time
	Fare          types.Money
	CreatedAt     time.Time
	MatchedAt     *time.Time
	AcceptedAt    *time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	CancelReason  *string
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the booking state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusRequested:  {StatusMatched, StatusCancelled, StatusExpired},
	StatusMatched:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
