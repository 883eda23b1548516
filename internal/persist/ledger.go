package persist

import (
	"context"
	"fmt"
	"time"
)

// LedgerEntry is one treasury movement.
type LedgerEntry struct {
	RunID   string `db:"run_id"`
	Day     int    `db:"day"`
	Delta   int64  `db:"delta"`
	Balance int64  `db:"balance"`
	Reason  string `db:"reason"`
	AtMs    int64  `db:"at_ms"`
}

// DayReport summarizes the town when a day boundary is crossed.
type DayReport struct {
	RunID      string `db:"run_id"`
	Day        int    `db:"day"`
	Population int    `db:"population"`
	Souls      int64  `db:"souls"`
	AtMs       int64  `db:"at_ms"`
}

func (e LedgerEntry) At() time.Time { return time.UnixMilli(e.AtMs) }
func (r DayReport) At() time.Time   { return time.UnixMilli(r.AtMs) }

type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// WriteBatch writes entries and reports in a single transaction. A report for
// a (run, day) already on file is replaced.
func (r *LedgerRepo) WriteBatch(ctx context.Context, entries []LedgerEntry, reports []DayReport) error {
	if len(entries) == 0 && len(reports) == 0 {
		return nil
	}
	conn := r.db.conn
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback()

	if len(entries) > 0 {
		stmt, err := tx.PreparexContext(ctx, conn.Rebind(
			`INSERT INTO ledger_entries (run_id, day, delta, balance, reason, at_ms)
			 VALUES (?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("ledger prepare: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.RunID, e.Day, e.Delta, e.Balance, e.Reason, e.AtMs); err != nil {
				return fmt.Errorf("ledger insert: %w", err)
			}
		}
	}

	if len(reports) > 0 {
		stmt, err := tx.PreparexContext(ctx, conn.Rebind(
			`INSERT INTO day_reports (run_id, day, population, souls, at_ms)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (run_id, day) DO UPDATE
			 SET population = excluded.population, souls = excluded.souls, at_ms = excluded.at_ms`))
		if err != nil {
			return fmt.Errorf("report prepare: %w", err)
		}
		defer stmt.Close()
		for _, d := range reports {
			if _, err := stmt.ExecContext(ctx, d.RunID, d.Day, d.Population, d.Souls, d.AtMs); err != nil {
				return fmt.Errorf("report insert: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Entries returns a run's ledger in write order.
func (r *LedgerRepo) Entries(ctx context.Context, runID string) ([]LedgerEntry, error) {
	var out []LedgerEntry
	err := r.db.conn.SelectContext(ctx, &out, r.db.conn.Rebind(
		`SELECT run_id, day, delta, balance, reason, at_ms
		 FROM ledger_entries WHERE run_id = ? ORDER BY id`), runID)
	if err != nil {
		return nil, fmt.Errorf("load ledger entries: %w", err)
	}
	return out, nil
}

func (r *LedgerRepo) Reports(ctx context.Context, runID string) ([]DayReport, error) {
	var out []DayReport
	err := r.db.conn.SelectContext(ctx, &out, r.db.conn.Rebind(
		`SELECT run_id, day, population, souls, at_ms
		 FROM day_reports WHERE run_id = ? ORDER BY day`), runID)
	if err != nil {
		return nil, fmt.Errorf("load day reports: %w", err)
	}
	return out, nil
}

// Balance returns the balance after the run's latest entry, false if the run
// has none.
func (r *LedgerRepo) Balance(ctx context.Context, runID string) (int64, bool, error) {
	var bal []int64
	err := r.db.conn.SelectContext(ctx, &bal, r.db.conn.Rebind(
		`SELECT balance FROM ledger_entries WHERE run_id = ? ORDER BY id DESC LIMIT 1`), runID)
	if err != nil {
		return 0, false, fmt.Errorf("load balance: %w", err)
	}
	if len(bal) == 0 {
		return 0, false, nil
	}
	return bal[0], true, nil
}
