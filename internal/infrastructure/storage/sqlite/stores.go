// Package sqlite provides a SQLite-backed store repository.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/cartpilot/backend/internal/domain"
	"github.com/cartpilot/backend/internal/infrastructure/storage/sqlite/migrations"
)

// milesPerDegreeLat is the length of one degree of latitude on a 3959 mile sphere
const milesPerDegreeLat = 69.09

// boxMargin widens the coarse prefilter so edge stores reach the exact ranker
const boxMargin = 1.1

// StoreRepository persists stores in SQLite
type StoreRepository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a throwaway database.
func Open(path string) (*StoreRepository, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	r := &StoreRepository{db: db}
	if err := r.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return r, nil
}

// Close closes the database connection
func (r *StoreRepository) Close() error {
	return r.db.Close()
}

func (r *StoreRepository) migrate(fsys fs.FS) error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := r.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := r.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := r.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// UpsertStores inserts or replaces stores by ID in a single transaction
func (r *StoreRepository) UpsertStores(ctx context.Context, stores []domain.StoreLocation) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stores (id, name, chain, address, postcode, lat, lng, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			chain = excluded.chain,
			address = excluded.address,
			postcode = excluded.postcode,
			lat = excluded.lat,
			lng = excluded.lng,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stores {
		if err := s.Validate(); err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.Chain, s.Address, s.Postcode, s.Lat, s.Lng); err != nil {
			return 0, fmt.Errorf("upserting store %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing stores: %w", err)
	}
	return len(stores), nil
}

// ListStores returns stores matching the chain filter and, when Near is set,
// lying inside a coarse lat/lng box around it. Exact distance filtering is
// left to the ranker.
func (r *StoreRepository) ListStores(ctx context.Context, query domain.StoreQuery) ([]domain.StoreLocation, error) {
	var (
		where []string
		args  []any
	)

	if query.Chain != "" {
		where = append(where, "chain = ? COLLATE NOCASE")
		args = append(args, query.Chain)
	}

	if query.Near != nil && query.RadiusMiles > 0 {
		latDelta := query.RadiusMiles / milesPerDegreeLat * boxMargin
		where = append(where, "lat BETWEEN ? AND ?")
		args = append(args, query.Near.Lat-latDelta, query.Near.Lat+latDelta)

		// Longitude degrees shrink towards the poles; skip the bound where it degenerates
		cosLat := math.Cos(query.Near.Lat * math.Pi / 180)
		if cosLat > 0.01 {
			lngDelta := latDelta / cosLat
			if query.Near.Lng-lngDelta >= -180 && query.Near.Lng+lngDelta <= 180 {
				where = append(where, "lng BETWEEN ? AND ?")
				args = append(args, query.Near.Lng-lngDelta, query.Near.Lng+lngDelta)
			}
		}
	}

	stmt := "SELECT id, name, chain, address, postcode, lat, lng FROM stores"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY rowid"

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stores: %w", err)
	}
	defer rows.Close()

	var stores []domain.StoreLocation //nolint:prealloc // size unknown from query
	for rows.Next() {
		var s domain.StoreLocation
		if err := rows.Scan(&s.ID, &s.Name, &s.Chain, &s.Address, &s.Postcode, &s.Lat, &s.Lng); err != nil {
			return nil, fmt.Errorf("scanning store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stores: %w", err)
	}

	return stores, nil
}

// Count returns the number of stored stores
func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stores").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting stores: %w", err)
	}
	return n, nil
}
