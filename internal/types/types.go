// README: Common value objects shared across modules.
package types

// ID is an opaque entity identifier (32-char hex in practice).
type ID string

// Money is an amount in integer cents to avoid float drift.
type Money struct {
	Amount   int64
	Currency string
}

// MulTrips scales a per-trip amount by a trip count. Exact integer multiply,
// so linearity in the trip count holds with no rounding step.
func (m Money) MulTrips(n int64) Money {
	return Money{Amount: m.Amount * n, Currency: m.Currency}
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}
