// Package archive persists fetched time series measurements so repeated
// lookups do not have to hit the upstream service again.
package archive

import (
	"context"
	"github.com/google/uuid"
	"github.com/nvxtech/hidroweb-go/hidroweb"
)

// Measurement represents a stored series data point
type Measurement struct {
	ID          uuid.UUID `json:"id"`
	StationCode string    `json:"station_code"`
	Kind        string    `json:"kind"`
	MeasuredAt  string    `json:"measured_at"`
	Value       *float64  `json:"value"`
	Quality     string    `json:"quality"`
	Method      string    `json:"method"`
	FetchedAt   int64     `json:"fetched_at"`
}

// Repository defines the measurement archive API
type Repository interface {
	// Store persists the given series points for one station and one series
	// kind. Points already present (same station, kind and date) are skipped.
	// It returns the number of newly stored points.
	Store(ctx context.Context, kind hidroweb.SeriesKind, stationCode string, points []hidroweb.SeriesPoint) (int, error)

	// GetByFilter retrieves stored measurements following a filter, ordered by
	// their measurement date (descending).
	// If limit <= 0, a default limit value of 100 is used.
	GetByFilter(ctx context.Context, filter *Filter, limit uint64) ([]*Measurement, error)
}

// Filter is used to query stored measurements
type Filter struct {
	StationCode *string
	Kind        *string
	Before      *string
	After       *string
}
