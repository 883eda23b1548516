package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/townsim/server/internal/config"
)

// Supported ledger drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB wraps the ledger database. Postgres connections come from a pgx pool;
// SQLite uses the pure-Go driver. Both are driven through sqlx with
// '?'-style queries rebound per dialect.
type DB struct {
	conn   *sqlx.DB
	pool   *pgxpool.Pool // nil for SQLite
	driver string
	log    *zap.Logger
}

func NewDB(ctx context.Context, cfg config.LedgerConfig, log *zap.Logger) (*DB, error) {
	var db *DB
	switch cfg.Driver {
	case DriverPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			poolCfg.MinConns = int32(cfg.MaxIdleConns)
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to db: %w", err)
		}
		db = &DB{
			conn:   sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
			pool:   pool,
			driver: DriverPostgres,
			log:    log,
		}
	case DriverSQLite, "":
		conn, err := sqlx.Open("sqlite", cfg.DSN+"?_journal_mode=WAL&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		// One writer; SQLite serializes them anyway.
		conn.SetMaxOpenConns(1)
		db = &DB{conn: conn, driver: DriverSQLite, log: log}
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", cfg.Driver)
	}

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.conn.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) Driver() string { return db.driver }

func (db *DB) Close() error {
	err := db.conn.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}
