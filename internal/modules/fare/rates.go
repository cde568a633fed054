// README: Static default rate table and courier tier multipliers.
package fare

// defaultRates is the single authoritative rate table. Per-city overrides
// loaded from Postgres are merged over these at startup; the quote path
// itself never touches the database.
var defaultRates = map[ServiceType]Rate{
	ServiceTaxi:      {Service: ServiceTaxi, BaseFare: 2000, PerKm: 1200},
	ServiceCourier:   {Service: ServiceCourier, BaseFare: 2500, PerKm: 1000},
	ServiceSchoolRun: {Service: ServiceSchoolRun, BaseFare: 1500, PerKm: 800},
	// Errands are priced per task; the distance component only applies when
	// the caller supplies a route.
	ServiceErrands: {Service: ServiceErrands, BaseFare: 5000, PerKm: 500},
}

// Courier tier multipliers. They materialize in the breakdown as surcharge
// line items of (base + distance) x (multiplier - 1), which keeps the
// total == base + distance + surcharges invariant intact.
var packageMultipliers = map[PackageSize]float64{
	PackageSmall:  1.0,
	PackageMedium: 1.25,
	PackageLarge:  1.5,
}

var vehicleMultipliers = map[VehicleClass]float64{
	VehicleSedan:    1.0,
	VehicleMPV:      1.2,
	VehicleLargeMPV: 1.35,
	VehicleCombi:    1.6,
}
