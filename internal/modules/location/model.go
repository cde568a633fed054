// README: Live location updates, snapshots, and nearby-driver results.
package location

import (
	"errors"
	"time"

	"lifti/internal/types"
)

var ErrBadRequest = errors.New("bad request")

const (
	UserTypeDriver    = "driver"
	UserTypePassenger = "passenger"
)

// Update is one high-frequency position report from a device.
type Update struct {
	UserID   types.ID
	UserType string
	Position types.Point
}

// Snapshot is a periodic position record persisted for audit and replay.
type Snapshot struct {
	ID         int64
	UserID     types.ID
	UserType   string
	Position   types.Point
	RecordedAt time.Time
}

// DriverLocation is a driver's live position with the distance from a query origin.
type DriverLocation struct {
	DriverID   types.ID
	Position   types.Point
	DistanceKm float64
}
