// README: Matching store backed by Redis GEO and sets.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lifti/internal/types"
)

const (
	driverGeoKey       = "matching:drivers"
	dispatchKeyPrefix  = "matching:booking:%s:dispatched_at"
	broadcastKeyPrefix = "matching:booking:%s:broadcast"
	// TTL for dispatch and broadcast keys; bookings resolve or expire well within this.
	keyTTL = 7 * 24 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) AddCandidate(ctx context.Context, c Candidate) error {
	return s.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(c.ID),
		Longitude: c.Position.Lng,
		Latitude:  c.Position.Lat,
	}).Err()
}

func (s *Store) RemoveCandidate(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, driverGeoKey, string(id)).Err()
}

func (s *Store) NearbyDrivers(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, driverGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

// RecordDispatch records the dispatch timestamp and the set of notified drivers for a booking.
func (s *Store) RecordDispatch(ctx context.Context, bookingID types.ID, driverIDs []types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.Set(ctx, dispatchedAtKey(bookingID), time.Now().UTC().Format(time.RFC3339), keyTTL)
	if len(driverIDs) > 0 {
		members := make([]interface{}, len(driverIDs))
		for i, d := range driverIDs {
			members[i] = string(d)
		}
		notifiedKey := fmt.Sprintf("matching:booking:%s:notified", string(bookingID))
		pipe.SAdd(ctx, notifiedKey, members...)
		pipe.Expire(ctx, notifiedKey, keyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetDispatchedAt returns when the booking was first dispatched, and whether it has been.
func (s *Store) GetDispatchedAt(ctx context.Context, bookingID types.ID) (time.Time, bool, error) {
	val, err := s.redis.Get(ctx, dispatchedAtKey(bookingID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// MarkBroadcast opens a booking to all drivers via the public list.
func (s *Store) MarkBroadcast(ctx context.Context, bookingID types.ID) error {
	return s.redis.Set(ctx, broadcastKey(bookingID), "1", keyTTL).Err()
}

// IsBroadcast reports whether a booking has been opened to all drivers.
func (s *Store) IsBroadcast(ctx context.Context, bookingID types.ID) (bool, error) {
	val, err := s.redis.Get(ctx, broadcastKey(bookingID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "1", nil
}

func dispatchedAtKey(bookingID types.ID) string {
	return fmt.Sprintf(dispatchKeyPrefix, string(bookingID))
}

func broadcastKey(bookingID types.ID) string {
	return fmt.Sprintf(broadcastKeyPrefix, string(bookingID))
}
