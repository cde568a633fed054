// README: Fare service computes deterministic quotes from the rate table.
package fare

import "math"

const (
	surchargePackage = "package_size"
	surchargeVehicle = "vehicle_class"
)

// Service holds the merged rate table. Quote is a pure function over its
// arguments and this table: no I/O, safe for concurrent use once built.
type Service struct {
	rates    map[ServiceType]Rate
	currency string
}

func NewService(currency string) *Service {
	rates := make(map[ServiceType]Rate, len(defaultRates))
	for k, v := range defaultRates {
		rates[k] = v
	}
	return &Service{rates: rates, currency: currency}
}

// ApplyOverrides replaces default rows with rows loaded from storage.
// Call during startup wiring, before the service is shared.
func (s *Service) ApplyOverrides(rates []Rate) {
	for _, r := range rates {
		if _, ok := s.rates[r.Service]; ok {
			s.rates[r.Service] = r
		}
	}
}

// Quote computes the fare for a request.
//
// Per trip: base + distance charge (PerKm x km, doubled for a round trip;
// the base fare is never doubled) + courier tier surcharges. The whole
// per-trip fare is then scaled by Trips with an exact integer multiply, so
// Quote(n trips) == n x Quote(1 trip) component by component.
func (s *Service) Quote(req Request) (Breakdown, error) {
	if req.DistanceKm < 0 || math.IsNaN(req.DistanceKm) || math.IsInf(req.DistanceKm, 0) {
		return Breakdown{}, ErrInvalidInput
	}
	if req.Trips < 1 {
		return Breakdown{}, ErrInvalidInput
	}
	rate, ok := s.rates[req.Service]
	if !ok {
		return Breakdown{}, ErrUnsupportedService
	}

	vehicle := req.VehicleClass
	if vehicle == "" {
		vehicle = VehicleSedan
	}
	vehicleMult, ok := vehicleMultipliers[vehicle]
	if !ok {
		return Breakdown{}, ErrInvalidInput
	}
	pkg := req.PackageSize
	if pkg == "" {
		pkg = PackageSmall
	}
	packageMult, ok := packageMultipliers[pkg]
	if !ok {
		return Breakdown{}, ErrInvalidInput
	}

	base := rate.BaseFare
	distance := roundHalfUp(float64(rate.PerKm) * req.DistanceKm)
	if req.RoundTrip {
		distance *= 2
	}

	surcharges := map[string]int64{}
	if req.Service == ServiceCourier {
		subtotal := float64(base + distance)
		if c := roundHalfUp(subtotal * (packageMult - 1)); c > 0 {
			surcharges[surchargePackage] = c
		}
		if c := roundHalfUp(subtotal * (vehicleMult - 1)); c > 0 {
			surcharges[surchargeVehicle] = c
		}
	}

	trips := int64(req.Trips)
	total := base + distance
	base *= trips
	distance *= trips
	for k, v := range surcharges {
		total += v
		surcharges[k] = v * trips
	}
	total *= trips

	return Breakdown{
		BaseFare:       base,
		DistanceCharge: distance,
		Surcharges:     surcharges,
		Total:          total,
		Trips:          req.Trips,
		Currency:       s.currency,
	}, nil
}

// roundHalfUp rounds to the nearest cent with halves going up. All fare
// components are non-negative, so floor(v+0.5) is exactly half-up.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
