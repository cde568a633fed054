package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

// RouteEstimate is the driving distance and duration between two addresses.
type RouteEstimate struct {
	DistanceKm   float64
	DistanceText string
	Duration     time.Duration
}

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a RouteService with the given API key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Estimate returns the driving distance and duration from origin to destination,
// summed over all legs when waypoints are given.
func (s *RouteService) Estimate(ctx context.Context, origin, destination string, waypoints ...string) (RouteEstimate, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Waypoints:   waypoints,
		Mode:        maps.TravelModeDriving,
		Region:      "ZA", // bias results to South Africa
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return RouteEstimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return RouteEstimate{}, fmt.Errorf("no route found")
	}

	var est RouteEstimate
	for _, leg := range routes[0].Legs {
		est.DistanceKm += float64(leg.Distance.Meters) / 1000.0
		est.Duration += leg.Duration
	}
	est.DistanceText = fmt.Sprintf("%.1f km", est.DistanceKm)
	return est, nil
}
