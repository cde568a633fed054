// README: Fare service tests: rate table, courier tiers, round trips, trip linearity, rounding.
package fare

import (
	"math"
	"testing"
)

func TestService_Quote(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantTotal int64
	}{
		{
			name:      "Taxi Base + Distance (10km)",
			req:       Request{DistanceKm: 10, Service: ServiceTaxi, Trips: 1},
			wantTotal: 2000 + 12000, // 14000
		},
		{
			name:      "Taxi Zero Distance (base only)",
			req:       Request{DistanceKm: 0, Service: ServiceTaxi, Trips: 1},
			wantTotal: 2000,
		},
		{
			name: "Taxi Round Trip doubles distance, not base",
			req:  Request{DistanceKm: 10, Service: ServiceTaxi, RoundTrip: true, Trips: 1},
			// Base: 2000. Dist: 2 * 12000 = 24000.
			wantTotal: 26000,
		},
		{
			name:      "Taxi Recurring (3 trips = 3x single)",
			req:       Request{DistanceKm: 10, Service: ServiceTaxi, Trips: 3},
			wantTotal: 3 * 14000, // 42000
		},
		{
			name:      "Courier Small Sedan (no surcharges)",
			req:       Request{DistanceKm: 5, Service: ServiceCourier, Trips: 1},
			wantTotal: 2500 + 5000, // 7500
		},
		{
			name: "Courier Medium Package Combi",
			req: Request{
				DistanceKm:   10,
				Service:      ServiceCourier,
				PackageSize:  PackageMedium,
				VehicleClass: VehicleCombi,
				Trips:        1,
			},
			// Base: 2500. Dist: 10000. Subtotal: 12500.
			// Package: 12500 * 0.25 = 3125. Vehicle: 12500 * 0.6 = 7500.
			wantTotal: 23125,
		},
		{
			name: "Courier Large Package MPV Round Trip",
			req: Request{
				DistanceKm:   4,
				Service:      ServiceCourier,
				PackageSize:  PackageLarge,
				VehicleClass: VehicleMPV,
				RoundTrip:    true,
				Trips:        1,
			},
			// Base: 2500. Dist: 2 * 4000 = 8000. Subtotal: 10500.
			// Package: 10500 * 0.5 = 5250. Vehicle: 10500 * 0.2 = 2100.
			wantTotal: 17850,
		},
		{
			name:      "Errands Zero Distance (flat per-task price)",
			req:       Request{DistanceKm: 0, Service: ServiceErrands, Trips: 1},
			wantTotal: 5000,
		},
		{
			name:      "Errands With Route (5000 + 4 * 500)",
			req:       Request{DistanceKm: 4, Service: ServiceErrands, Trips: 1},
			wantTotal: 7000,
		},
		{
			name: "School Run Round Trip x20 trips (weekday month)",
			req:  Request{DistanceKm: 2, Service: ServiceSchoolRun, RoundTrip: true, Trips: 20},
			// Single: 1500 + 2*1600 = 4700. Total: 20 * 4700.
			wantTotal: 94000,
		},
		{
			name: "Rounding (1.234km taxi -> 1480.8 -> 1481)",
			req:  Request{DistanceKm: 1.234, Service: ServiceTaxi, Trips: 1},
			wantTotal: 2000 + 1481,
		},
		{
			name: "Rounding Half-Up (1.2345km courier -> 1234.5 -> 1235)",
			req:  Request{DistanceKm: 1.2345, Service: ServiceCourier, Trips: 1},
			wantTotal: 2500 + 1235,
		},
	}

	s := NewService("ZAR")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Quote(tt.req)
			if err != nil {
				t.Fatalf("Quote() error = %v", err)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Quote() total = %v, want %v", got.Total, tt.wantTotal)
			}
			if got.Total < 0 {
				t.Errorf("Quote() total is negative: %v", got.Total)
			}
			sum := got.BaseFare + got.DistanceCharge
			for _, v := range got.Surcharges {
				sum += v
			}
			if sum != got.Total {
				t.Errorf("breakdown does not add up: base+distance+surcharges = %v, total = %v", sum, got.Total)
			}
			if got.Currency != "ZAR" {
				t.Errorf("Quote() currency = %q, want ZAR", got.Currency)
			}
		})
	}
}

func TestService_Quote_InvalidInput(t *testing.T) {
	s := NewService("ZAR")

	tests := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{"negative distance", Request{DistanceKm: -1, Service: ServiceTaxi, Trips: 1}, ErrInvalidInput},
		{"NaN distance", Request{DistanceKm: math.NaN(), Service: ServiceTaxi, Trips: 1}, ErrInvalidInput},
		{"zero trips", Request{DistanceKm: 1, Service: ServiceTaxi, Trips: 0}, ErrInvalidInput},
		{"negative trips", Request{DistanceKm: 1, Service: ServiceTaxi, Trips: -2}, ErrInvalidInput},
		{"unknown service", Request{DistanceKm: 1, Service: "helicopter", Trips: 1}, ErrUnsupportedService},
		{"unknown vehicle class", Request{DistanceKm: 1, Service: ServiceCourier, VehicleClass: "truck", Trips: 1}, ErrInvalidInput},
		{"unknown package size", Request{DistanceKm: 1, Service: ServiceCourier, PackageSize: "xl", Trips: 1}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Quote(tt.req); err != tt.wantErr {
				t.Errorf("Quote() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestService_Quote_TripLinearity verifies total(n) == n * total(1) for every
// component, for several services and trip counts.
func TestService_Quote_TripLinearity(t *testing.T) {
	s := NewService("ZAR")

	reqs := []Request{
		{DistanceKm: 7.3, Service: ServiceTaxi},
		{DistanceKm: 12.9, Service: ServiceCourier, PackageSize: PackageLarge, VehicleClass: VehicleCombi},
		{DistanceKm: 3.1, Service: ServiceSchoolRun, RoundTrip: true},
		{DistanceKm: 0, Service: ServiceErrands},
	}
	for _, base := range reqs {
		base.Trips = 1
		single, err := s.Quote(base)
		if err != nil {
			t.Fatalf("Quote(1 trip) error = %v", err)
		}
		for n := 2; n <= 5; n++ {
			req := base
			req.Trips = n
			got, err := s.Quote(req)
			if err != nil {
				t.Fatalf("Quote(%d trips) error = %v", n, err)
			}
			if got.Total != int64(n)*single.Total {
				t.Errorf("%s: total(%d) = %d, want %d", base.Service, n, got.Total, int64(n)*single.Total)
			}
			if got.BaseFare != int64(n)*single.BaseFare || got.DistanceCharge != int64(n)*single.DistanceCharge {
				t.Errorf("%s: components not linear in trips", base.Service)
			}
		}
	}
}

// TestService_Quote_RoundTripDoubling verifies the 8.x property: a round trip
// keeps the base fare and surcharge structure but doubles the distance charge.
func TestService_Quote_RoundTripDoubling(t *testing.T) {
	s := NewService("ZAR")

	single, err := s.Quote(Request{DistanceKm: 6.5, Service: ServiceTaxi, Trips: 1})
	if err != nil {
		t.Fatalf("Quote(single) error = %v", err)
	}
	round, err := s.Quote(Request{DistanceKm: 6.5, Service: ServiceTaxi, RoundTrip: true, Trips: 1})
	if err != nil {
		t.Fatalf("Quote(round trip) error = %v", err)
	}

	if round.BaseFare != single.BaseFare {
		t.Errorf("round trip changed base fare: %d vs %d", round.BaseFare, single.BaseFare)
	}
	if round.DistanceCharge != 2*single.DistanceCharge {
		t.Errorf("round trip distance = %d, want %d", round.DistanceCharge, 2*single.DistanceCharge)
	}
	if round.Total != single.BaseFare+2*single.DistanceCharge {
		t.Errorf("round trip total = %d, want %d", round.Total, single.BaseFare+2*single.DistanceCharge)
	}
}

func TestService_ApplyOverrides(t *testing.T) {
	s := NewService("ZAR")
	s.ApplyOverrides([]Rate{
		{Service: ServiceTaxi, BaseFare: 3000, PerKm: 1500},
		{Service: "helicopter", BaseFare: 1, PerKm: 1}, // unknown rows are ignored
	})

	got, err := s.Quote(Request{DistanceKm: 2, Service: ServiceTaxi, Trips: 1})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if got.Total != 3000+3000 {
		t.Errorf("Quote() with override = %d, want 6000", got.Total)
	}

	if _, err := s.Quote(Request{DistanceKm: 1, Service: "helicopter", Trips: 1}); err != ErrUnsupportedService {
		t.Errorf("unknown service should stay unsupported after override, got %v", err)
	}
}
