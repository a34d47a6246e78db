package archive

import (
	"context"
	"embed"
	"errors"
	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"time"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Driver represents the PostgreSQL archive implementation
type Driver struct {
	dsn string
	db  *pgxpool.Pool
}

var _ Repository = (*Driver)(nil)

// New creates a new empty PostgreSQL archive driver.
// Use Initialize to open the database connection.
func New(dsn string) *Driver {
	return &Driver{
		dsn: dsn,
	}
}

// Initialize opens the database connection and migrates the database
func (driver *Driver) Initialize(ctx context.Context) error {
	// Perform SQL migrations
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, driver.dsn)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	// Initialize the database connection pool
	pool, err := pgxpool.Connect(ctx, driver.dsn)
	if err != nil {
		return err
	}
	driver.db = pool
	return nil
}

// Close closes the database connection
func (driver *Driver) Close() {
	driver.db.Close()
	driver.db = nil
}

// Store persists the given series points for one station and one series kind.
// Points already present (same station, kind and date) are skipped.
// It returns the number of newly stored points.
func (driver *Driver) Store(ctx context.Context, kind hidroweb.SeriesKind, stationCode string, points []hidroweb.SeriesPoint) (int, error) {
	txn, err := driver.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback(ctx)

	fetchedAt := time.Now().Unix()
	stored := 0
	for _, point := range points {
		var value *float64
		if point.Value.Valid {
			val := point.Value.Float
			value = &val
		}
		tag, err := txn.Exec(
			ctx,
			"INSERT INTO measurements VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT DO NOTHING",
			uuid.New(), stationCode, string(kind), point.Date, value, point.Quality, point.Method, fetchedAt,
		)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() > 0 {
			stored++
		}
	}

	if err := txn.Commit(ctx); err != nil {
		return 0, err
	}
	return stored, nil
}

// GetByFilter retrieves stored measurements following a filter, ordered by
// their measurement date (descending).
// If limit <= 0, a default limit value of 100 is used.
func (driver *Driver) GetByFilter(ctx context.Context, filter *Filter, limit uint64) ([]*Measurement, error) {
	query := squirrel.Select("*").From("measurements").OrderBy("measured_at DESC")
	if filter.StationCode != nil {
		query = query.Where(squirrel.Eq{"station_code": *filter.StationCode})
	}
	if filter.Kind != nil {
		query = query.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.Before != nil {
		query = query.Where(squirrel.Lt{"measured_at": *filter.Before})
	}
	if filter.After != nil {
		query = query.Where(squirrel.Gt{"measured_at": *filter.After})
	}
	if limit <= 0 {
		limit = 100
	}
	query = query.Limit(limit)

	sql, vals, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := driver.db.Query(ctx, sql, vals...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*Measurement{}, nil
		}
		return nil, err
	}
	objs := []*Measurement{}
	for rows.Next() {
		obj, err := rowToMeasurement(rows)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func rowToMeasurement(row pgx.Row) (*Measurement, error) {
	obj := new(Measurement)
	if err := row.Scan(&obj.ID, &obj.StationCode, &obj.Kind, &obj.MeasuredAt, &obj.Value, &obj.Quality, &obj.Method, &obj.FetchedAt); err != nil {
		return nil, err
	}
	return obj, nil
}
