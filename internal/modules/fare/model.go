// README: Fare request/breakdown types and the service/vehicle/package enums.
package fare

import "errors"

var (
	// ErrInvalidInput is returned for malformed numeric or enum input.
	ErrInvalidInput = errors.New("invalid fare input")
	// ErrUnsupportedService is returned for a service type outside the rate table.
	ErrUnsupportedService = errors.New("unsupported service type")
)

type ServiceType string

const (
	ServiceTaxi      ServiceType = "taxi"
	ServiceCourier   ServiceType = "courier"
	ServiceSchoolRun ServiceType = "school_run"
	ServiceErrands   ServiceType = "errands"
)

type VehicleClass string

const (
	VehicleSedan    VehicleClass = "sedan"
	VehicleMPV      VehicleClass = "mpv"
	VehicleLargeMPV VehicleClass = "large_mpv"
	VehicleCombi    VehicleClass = "combi"
)

type PackageSize string

const (
	PackageSmall  PackageSize = "small"
	PackageMedium PackageSize = "medium"
	PackageLarge  PackageSize = "large"
)

// Request is the immutable input to a quote. DistanceKm may be zero for
// flat-rate services (errands are priced per task, not per km).
type Request struct {
	DistanceKm   float64
	Service      ServiceType
	VehicleClass VehicleClass // courier tiering; empty means sedan
	PackageSize  PackageSize  // courier tiering; empty means small
	RoundTrip    bool
	Trips        int
}

// Breakdown is the derived, immutable output. All amounts are integer cents
// covering the whole booking (already scaled by Trips), so
// Total == BaseFare + DistanceCharge + sum(Surcharges) always holds.
type Breakdown struct {
	BaseFare       int64
	DistanceCharge int64
	Surcharges     map[string]int64
	Total          int64
	Trips          int
	Currency       string
}

// Rate is the per-service pricing row. Amounts are cents.
type Rate struct {
	Service  ServiceType
	BaseFare int64 // per trip (errands: per task)
	PerKm    int64
}
