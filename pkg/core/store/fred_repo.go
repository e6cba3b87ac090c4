package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DONECHAE/Daegu2025/pkg/core/fred"
)

// Macro series tables. One table per FRED series; VALUE stays text so the
// "." no-observation marker round-trips unchanged.
const (
	treasuryTable = `"TB_TREASURY_SECURITY"`
	pceTable      = `"TB_PCE_INFLATION"`
)

// SeriesRepo persists one FRED series into its dedicated table.
type SeriesRepo struct {
	table     string
	hasFriday bool
}

// NewTreasuryRepo covers the 10-year treasury yield table, which carries an
// extra Friday marker used by downstream weekly aggregations.
func NewTreasuryRepo() *SeriesRepo {
	return &SeriesRepo{table: treasuryTable, hasFriday: true}
}

// NewPCERepo covers the PCE inflation table.
func NewPCERepo() *SeriesRepo {
	return &SeriesRepo{table: pceTable}
}

// LatestDate returns the most recent observation date on record, or the zero
// time when the table is empty.
func (r *SeriesRepo) LatestDate(ctx context.Context) (time.Time, error) {
	pool := GetPool()
	if pool == nil {
		return time.Time{}, fmt.Errorf("database pool not initialized")
	}

	query := fmt.Sprintf(`SELECT "DATE" FROM %s ORDER BY "DATE" DESC LIMIT 1`, r.table)
	var latest time.Time
	err := pool.QueryRow(ctx, query).Scan(&latest)
	if err != nil {
		if err == pgx.ErrNoRows {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to query latest observation date: %w", err)
	}
	return latest, nil
}

// InsertObservations appends new observations inside a single transaction.
func (r *SeriesRepo) InsertObservations(ctx context.Context, obs []fred.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`INSERT INTO %s ("DATE", "VALUE") VALUES ($1, $2)`, r.table)
	if r.hasFriday {
		query = fmt.Sprintf(`INSERT INTO %s ("DATE", "VALUE", "IS_FRIDAY") VALUES ($1, $2, $3)`, r.table)
	}

	for _, o := range obs {
		value := "."
		if o.Value != "" {
			value = o.Value
		}
		var execErr error
		if r.hasFriday {
			_, execErr = tx.Exec(ctx, query, o.Date, value, o.Date.Weekday() == time.Friday)
		} else {
			_, execErr = tx.Exec(ctx, query, o.Date, value)
		}
		if execErr != nil {
			return fmt.Errorf("failed to insert observation %s: %w", o.Date.Format("2006-01-02"), execErr)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit observation batch: %w", err)
	}
	return nil
}
