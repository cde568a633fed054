package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// Place represents a simplified location result.
type Place struct {
	Name             string
	Address          string
	Rating           float32
	PlaceID          string
	UserRatingsTotal int
}

// SearchOptions holds dynamic search refinement parameters from the concierge.
type SearchOptions struct {
	// SearchKeywords are positive refinements appended to the API query (e.g. "24 hour").
	SearchKeywords string
	// ExcludeKeywords disqualify any result whose name contains them.
	ExcludeKeywords []string
}

// minPlaceRating filters out poorly reviewed stops.
const minPlaceRating = 4.0

// maxPlaceResults caps how many candidate stops a search returns.
const maxPlaceResults = 3

// PlacesService handles interactions with the Google Places API.
type PlacesService struct {
	client *maps.Client
}

// NewPlacesService creates a PlacesService with the given API key.
func NewPlacesService(apiKey string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// SearchNearby searches for errand stops matching the query near the given
// location. opts can be nil for a basic search. SearchKeywords are appended
// to the query; ExcludeKeywords filter results by name.
func (s *PlacesService) SearchNearby(ctx context.Context, location string, query string, opts *SearchOptions) ([]Place, error) {
	fullQuery := query
	if opts != nil && opts.SearchKeywords != "" {
		fullQuery = opts.SearchKeywords + " " + fullQuery
	}
	if location != "" {
		fullQuery = fmt.Sprintf("%s near %s", fullQuery, location)
	}

	r := &maps.TextSearchRequest{
		Query:   fullQuery,
		OpenNow: true, // an errand stop must be open when the driver arrives
		Region:  "ZA",
	}

	resp, err := s.client.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var excluded []string
	if opts != nil {
		excluded = opts.ExcludeKeywords
	}

	var results []Place
	for _, result := range resp.Results {
		if result.Rating < minPlaceRating {
			continue
		}
		skip := false
		for _, kw := range excluded {
			if kw != "" && strings.Contains(strings.ToLower(result.Name), strings.ToLower(kw)) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		results = append(results, Place{
			Name:             result.Name,
			Address:          result.FormattedAddress,
			Rating:           result.Rating,
			PlaceID:          result.PlaceID,
			UserRatingsTotal: result.UserRatingsTotal,
		})
		if len(results) >= maxPlaceResults {
			break
		}
	}
	return results, nil
}

// SearchAlongRoute searches for errand stops near multiple waypoints along a
// route, de-duplicated by place ID.
func (s *PlacesService) SearchAlongRoute(ctx context.Context, waypoints []string, query string, opts *SearchOptions) ([]Place, error) {
	uniquePlaces := make(map[string]Place)
	var allPlaces []Place

	for _, point := range waypoints {
		results, err := s.SearchNearby(ctx, point, query, opts)
		if err != nil {
			continue // skip failed points, try others
		}
		for _, p := range results {
			if _, exists := uniquePlaces[p.PlaceID]; !exists {
				uniquePlaces[p.PlaceID] = p
				allPlaces = append(allPlaces, p)
			}
		}
	}
	return allPlaces, nil
}
