// README: Driver candidate pool and dispatch tuning constants.
package matching

import (
	"time"

	"lifti/internal/types"
)

// Candidate is an online driver available for dispatch.
type Candidate struct {
	ID           types.ID
	VehicleClass string
	Position     types.Point
	JoinTime     time.Time
}

const (
	// notifyInitialCount is the number of drivers to notify on the first dispatch.
	notifyInitialCount = 5
	// selectPoolSize is how many nearby drivers to sample before picking notifyInitialCount.
	selectPoolSize = 10
	// rebroadcastDelay is how long a dispatched booking may sit unclaimed before it is
	// opened to all drivers via the public open list.
	rebroadcastDelay = 30 * time.Second
	// dayBefore is the lead-time threshold for the wider broadcast before a first trip.
	dayBefore = 24 * time.Hour
	// dispatchBatchSize caps how many requested bookings one tick processes.
	dispatchBatchSize = 100
)
