package stations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres resolves stops from a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and verifies the connection.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// NearestStation returns the node id closest to (lat, lon). An empty table
// yields an empty id.
func (p *Postgres) NearestStation(ctx context.Context, lat, lon float64) (string, error) {
	var nodeID string
	err := p.pool.QueryRow(ctx, `
		SELECT nodeid
		FROM station
		ORDER BY power(gpslati - $1, 2) + power(gpslong - $2, 2)
		LIMIT 1`, lat, lon).Scan(&nodeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query nearest station: %w", err)
	}
	return nodeID, nil
}
