// README: Location service handles high-frequency updates with periodic snapshot flushing.
package location

import (
	"context"
	"time"

	"lifti/internal/types"
)

// Store is the persistence surface: live positions in Redis GEO,
// periodic snapshots in Postgres.
type Store interface {
	SetGeo(ctx context.Context, id types.ID, pos types.Point, userType string) error
	NearbyWithDistance(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]DriverLocation, error)
	SnapshotDue(ctx context.Context, id types.ID) (bool, error)
	AppendSnapshot(ctx context.Context, snap Snapshot) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Update validates and writes a live position. Updates arrive at device
// frequency; only one snapshot per user per snapshotInterval reaches Postgres.
func (s *Service) Update(ctx context.Context, u Update) error {
	if u.UserID == "" {
		return ErrBadRequest
	}
	if u.UserType != UserTypeDriver && u.UserType != UserTypePassenger {
		return ErrBadRequest
	}
	if u.Position.Lat < -90 || u.Position.Lat > 90 || u.Position.Lng < -180 || u.Position.Lng > 180 {
		return ErrBadRequest
	}

	if err := s.store.SetGeo(ctx, u.UserID, u.Position, u.UserType); err != nil {
		return err
	}

	due, err := s.store.SnapshotDue(ctx, u.UserID)
	if err != nil || !due {
		return err
	}
	return s.store.AppendSnapshot(ctx, Snapshot{
		UserID:     u.UserID,
		UserType:   u.UserType,
		Position:   u.Position,
		RecordedAt: time.Now(),
	})
}

// NearestDrivers returns up to limit online drivers within radiusKm of the
// origin, closest first.
func (s *Service) NearestDrivers(ctx context.Context, origin types.Point, radiusKm float64, limit int) ([]DriverLocation, error) {
	drivers, err := s.store.NearbyWithDistance(ctx, origin, radiusKm, limit)
	if err != nil {
		return nil, err
	}
	sortByDistance(drivers, func(d DriverLocation) float64 { return d.DistanceKm })
	return drivers, nil
}
