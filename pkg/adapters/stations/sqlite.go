package stations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite resolves stops from a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the STATION table when missing.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS STATION (
			nodeid  TEXT PRIMARY KEY,
			nodenm  TEXT NOT NULL DEFAULT '',
			gpslati REAL NOT NULL,
			gpslong REAL NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create STATION table: %w", err)
	}
	return nil
}

// Upsert inserts or replaces stops in one transaction.
func (s *SQLite) Upsert(ctx context.Context, stations ...Station) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO STATION (nodeid, nodenm, gpslati, gpslong) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stations {
		if _, err := stmt.ExecContext(ctx, st.NodeID, st.Name, st.Lat, st.Lon); err != nil {
			return fmt.Errorf("failed to insert station %s: %w", st.NodeID, err)
		}
	}
	return tx.Commit()
}

// NearestStation returns the node id closest to (lat, lon). An empty table
// yields an empty id.
func (s *SQLite) NearestStation(ctx context.Context, lat, lon float64) (string, error) {
	var nodeID string
	err := s.db.QueryRowContext(ctx, `
		SELECT nodeid
		FROM STATION
		ORDER BY (gpslati - ?) * (gpslati - ?) + (gpslong - ?) * (gpslong - ?)
		LIMIT 1`, lat, lat, lon, lon).Scan(&nodeID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query nearest station: %w", err)
	}
	return nodeID, nil
}
