// README: Fare rate store backed by PostgreSQL (per-city overrides).
package fare

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadRates returns the active rate overrides. Missing rows are fine: the
// service keeps its static defaults for any service type not returned here.
func (s *Store) LoadRates(ctx context.Context) ([]Rate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT service_type, base_fare, per_km
		FROM fare_rates
		WHERE active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []Rate
	for rows.Next() {
		var r Rate
		var svc string
		if err := rows.Scan(&svc, &r.BaseFare, &r.PerKm); err != nil {
			return nil, err
		}
		r.Service = ServiceType(svc)
		rates = append(rates, r)
	}
	return rates, rows.Err()
}
