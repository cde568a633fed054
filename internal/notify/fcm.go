// README: FCM push notifications for booking dispatch, with a Redis token registry.
package notify

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"lifti/internal/modules/booking"
	"lifti/internal/types"
)

const deviceTokenKey = "notify:device_tokens"

// Service sends FCM data messages to driver devices. Device tokens are
// registered by the mobile app on login and kept in a Redis hash.
type Service struct {
	msg   *messaging.Client
	redis *redis.Client
	log   *logrus.Logger
}

func NewService(ctx context.Context, app *firebase.App, rdb *redis.Client, log *logrus.Logger) (*Service, error) {
	msg, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	return &Service{msg: msg, redis: rdb, log: log}, nil
}

// RegisterDeviceToken stores or replaces the FCM token for a user.
func (s *Service) RegisterDeviceToken(ctx context.Context, userID types.ID, token string) error {
	if userID == "" || token == "" {
		return fmt.Errorf("user id and token are required")
	}
	return s.redis.HSet(ctx, deviceTokenKey, string(userID), token).Err()
}

// NotifyDriversNewBooking pushes a new-booking data message to each driver
// that has a registered device token. Drivers without tokens are skipped.
func (s *Service) NotifyDriversNewBooking(ctx context.Context, driverIDs []types.ID, b *booking.Booking) error {
	for _, driverID := range driverIDs {
		token, err := s.redis.HGet(ctx, deviceTokenKey, string(driverID)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return err
		}
		if err := s.sendNewBooking(ctx, token, b); err != nil && s.log != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"driver_id":  driverID,
				"booking_id": b.ID,
			}).Warn("fcm push failed")
		}
	}
	return nil
}

func (s *Service) sendNewBooking(ctx context.Context, deviceToken string, b *booking.Booking) error {
	msg := &messaging.Message{
		Token: deviceToken,
		Data: map[string]string{
			"type":          "new_booking",
			"booking_id":    string(b.ID),
			"service":       string(b.Service),
			"pickup_lat":    strconv.FormatFloat(b.Pickup.Lat, 'f', 6, 64),
			"pickup_lng":    strconv.FormatFloat(b.Pickup.Lng, 'f', 6, 64),
			"dropoff_lat":   strconv.FormatFloat(b.Dropoff.Lat, 'f', 6, 64),
			"dropoff_lng":   strconv.FormatFloat(b.Dropoff.Lng, 'f', 6, 64),
			"fare_total":    strconv.FormatInt(b.Fare.Amount, 10),
			"fare_currency": b.Fare.Currency,
			"trips":         strconv.Itoa(len(b.TripDates)),
		},
		Notification: &messaging.Notification{
			Title: "New booking request",
			Body:  fmt.Sprintf("Pickup nearby, fare R%.2f", float64(b.Fare.Amount)/100),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	_, err := s.msg.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sending FCM: %w", err)
	}
	return nil
}
