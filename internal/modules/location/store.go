// README: Location store backed by Redis GEO and Postgres snapshots.
package location

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"lifti/internal/types"
)

const (
	// driverGeoKey is shared with the matching candidate pool so dispatch
	// always sees the freshest driver positions.
	driverGeoKey    = "matching:drivers"
	passengerGeoKey = "geo:passengers"

	snapshotMarkerPrefix = "location:snapshot:"
	snapshotInterval     = 30 * time.Second
)

type RedisStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *RedisStore {
	return &RedisStore{db: db, redis: redis}
}

func (s *RedisStore) SetGeo(ctx context.Context, id types.ID, pos types.Point, userType string) error {
	key := passengerGeoKey
	if userType == UserTypeDriver {
		key = driverGeoKey
	}
	return s.redis.GeoAdd(ctx, key, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *RedisStore) NearbyWithDistance(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]DriverLocation, error) {
	results, err := s.redis.GeoSearchLocation(ctx, driverGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}
	drivers := make([]DriverLocation, len(results))
	for i, r := range results {
		drivers[i] = DriverLocation{
			DriverID:   types.ID(r.Name),
			Position:   types.Point{Lat: r.Latitude, Lng: r.Longitude},
			DistanceKm: r.Dist,
		}
	}
	return drivers, nil
}

// SnapshotDue reports whether a Postgres snapshot should be taken for this
// user, allowing at most one per snapshotInterval via SET NX.
func (s *RedisStore) SnapshotDue(ctx context.Context, id types.ID) (bool, error) {
	return s.redis.SetNX(ctx, snapshotMarkerPrefix+string(id), "1", snapshotInterval).Result()
}

func (s *RedisStore) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO location_snapshots (user_id, user_type, lat, lng, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, string(snap.UserID), snap.UserType, snap.Position.Lat, snap.Position.Lng, snap.RecordedAt)
	return err
}
