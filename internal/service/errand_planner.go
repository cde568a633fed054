// README: Errand planner orchestrates intent parsing, stop search, routing, and quoting.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"lifti/internal/ai"
	"lifti/internal/maps"
	"lifti/internal/modules/fare"
	"lifti/internal/types"
)

// Parser is satisfied by ai.GeminiParser.
type Parser interface {
	ParseErrand(ctx context.Context, userMessage string, contextMap map[string]string) (*ai.ErrandIntent, error)
}

// Router is satisfied by *maps.RouteService.
type Router interface {
	Estimate(ctx context.Context, origin, destination string, waypoints ...string) (maps.RouteEstimate, error)
}

// StopFinder is satisfied by *maps.PlacesService.
type StopFinder interface {
	SearchNearby(ctx context.Context, location, query string, opts *maps.SearchOptions) ([]maps.Place, error)
}

// QuotaGuard limits concierge usage. Satisfied by *quota.Service.
type QuotaGuard interface {
	Consume(ctx context.Context, userID types.ID) error
}

// Quoter prices the errand. Satisfied by *fare.Service.
type Quoter interface {
	Quote(req fare.Request) (fare.Breakdown, error)
}

// PlannedStop pairs an extracted task with candidate places that could serve it.
type PlannedStop struct {
	Task    ai.ErrandTask
	Options []maps.Place
}

// ErrandPlan is the concierge's answer: either a clarification question or a
// priced, routed plan.
type ErrandPlan struct {
	Reply              string
	NeedsClarification bool
	Stops              []PlannedStop
	Origin             string
	Dropoff            string
	RoundTrip          bool
	Estimate           maps.RouteEstimate
	Quote              *fare.Breakdown
}

// ErrandPlanner turns a free-text errand request into a routed, priced plan.
type ErrandPlanner struct {
	parser Parser
	router Router
	finder StopFinder
	quota  QuotaGuard
	quoter Quoter
	log    *logrus.Logger
	loc    *time.Location
}

func NewErrandPlanner(parser Parser, router Router, finder StopFinder, quota QuotaGuard, quoter Quoter, log *logrus.Logger) (*ErrandPlanner, error) {
	loc, err := time.LoadLocation("Africa/Johannesburg")
	if err != nil {
		return nil, fmt.Errorf("failed to load Africa/Johannesburg location: %w", err)
	}
	return &ErrandPlanner{
		parser: parser,
		router: router,
		finder: finder,
		quota:  quota,
		quoter: quoter,
		log:    log,
		loc:    loc,
	}, nil
}

// Plan processes a user message and returns the concierge response.
// Each call consumes one unit of the user's monthly concierge quota.
func (p *ErrandPlanner) Plan(ctx context.Context, userID types.ID, userMessage, userLocation string) (*ErrandPlan, error) {
	if err := p.quota.Consume(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now().In(p.loc)
	contextMap := map[string]string{
		"current_time":  now.Format(time.RFC3339),
		"user_location": userLocation,
	}

	intent, err := p.parser.ParseErrand(ctx, userMessage, contextMap)
	if err != nil {
		return nil, fmt.Errorf("errand parse: %w", err)
	}

	if intent.Intent != "errand" {
		return &ErrandPlan{Reply: intent.Reply, NeedsClarification: true}, nil
	}

	origin := userLocation
	if intent.Origin != nil && *intent.Origin != "" {
		origin = *intent.Origin
	}
	if origin == "" {
		return &ErrandPlan{
			Reply:              "Where should the driver start? Share a pickup address and I'll plan the route.",
			NeedsClarification: true,
		}, nil
	}

	plan := &ErrandPlan{
		Origin:    origin,
		RoundTrip: intent.RoundTrip,
	}

	var waypoints []string
	for _, task := range intent.Tasks {
		var opts *maps.SearchOptions
		if task.StopKeywords != "" || len(task.ExcludeKeywords) > 0 {
			opts = &maps.SearchOptions{
				SearchKeywords:  task.StopKeywords,
				ExcludeKeywords: task.ExcludeKeywords,
			}
		}
		options, err := p.finder.SearchNearby(ctx, origin, task.StopCategory, opts)
		if err != nil {
			if p.log != nil {
				p.log.WithError(err).WithField("category", task.StopCategory).Warn("stop search failed")
			}
			options = nil
		}
		plan.Stops = append(plan.Stops, PlannedStop{Task: task, Options: options})
		if len(options) > 0 {
			waypoints = append(waypoints, options[0].Address)
		}
	}

	dropoff := origin
	if !intent.RoundTrip && intent.Dropoff != nil && *intent.Dropoff != "" {
		dropoff = *intent.Dropoff
	}
	plan.Dropoff = dropoff

	est, err := p.router.Estimate(ctx, origin, dropoff, waypoints...)
	if err != nil {
		return nil, fmt.Errorf("route estimate: %w", err)
	}
	plan.Estimate = est

	// The model can drift off schema; fall back to the smallest tier.
	vehicle := fare.VehicleClass(intent.SuggestedVehicle)
	switch vehicle {
	case fare.VehicleSedan, fare.VehicleMPV, fare.VehicleLargeMPV, fare.VehicleCombi:
	default:
		vehicle = fare.VehicleSedan
	}
	pkg := fare.PackageSize(intent.PackageSize)
	switch pkg {
	case fare.PackageSmall, fare.PackageMedium, fare.PackageLarge:
	default:
		pkg = fare.PackageSmall
	}

	quote, err := p.quoter.Quote(fare.Request{
		DistanceKm:   est.DistanceKm,
		Service:      fare.ServiceErrands,
		VehicleClass: vehicle,
		PackageSize:  pkg,
		Trips:        1,
	})
	if err != nil {
		return nil, fmt.Errorf("errand quote: %w", err)
	}
	plan.Quote = &quote

	plan.Reply = buildPlanReply(intent.Reply, plan, est, quote)
	return plan, nil
}

func buildPlanReply(modelReply string, plan *ErrandPlan, est maps.RouteEstimate, quote fare.Breakdown) string {
	var b strings.Builder
	b.WriteString(modelReply)
	b.WriteString(fmt.Sprintf("\n\nRoute: about %s, %d min driving.", est.DistanceText, int(est.Duration.Minutes())))
	for _, stop := range plan.Stops {
		if len(stop.Options) == 0 {
			continue
		}
		best := stop.Options[0]
		b.WriteString(fmt.Sprintf("\n- %s: %s (%.1f stars)", stop.Task.Description, best.Name, best.Rating))
	}
	b.WriteString(fmt.Sprintf("\nEstimated fare: R%.2f.", float64(quote.Total)/100))
	return b.String()
}
