// Package store persists synthetic order feeds and execution reports
// to Postgres, generalizing the reference's db.go (ResetSchema,
// FillTestData, FetchOrders, PersistDeals) from a single Deal row per
// match to the matching core's richer two-report execution model, and
// from the reference's lazy "size set to zero" cancellation marker to
// an explicit cancelled flag matching this engine's real O(1) unlink.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/lightsgoout/matchcore/engine"
	"github.com/lightsgoout/matchcore/internal/feed"
)

// Store wraps a *sql.DB with the schema and bulk-load operations the
// replay harness needs.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

const schemaDDL = `
DROP TYPE IF EXISTS exchange_side CASCADE;
CREATE TYPE exchange_side AS ENUM ('bid', 'ask');

DROP TABLE IF EXISTS orders CASCADE;
CREATE TABLE orders (
	id serial PRIMARY KEY,
	symbol varchar NOT NULL,
	trader varchar NOT NULL,
	side exchange_side NOT NULL,
	price int NOT NULL,
	size bigint NOT NULL,
	cancelled boolean NOT NULL DEFAULT false
) WITH (fillfactor=90);

DROP TABLE IF EXISTS executions CASCADE;
CREATE TABLE executions (
	id serial PRIMARY KEY,
	run_id varchar NOT NULL,
	symbol varchar NOT NULL,
	trader varchar NOT NULL,
	side exchange_side NOT NULL,
	price int NOT NULL,
	size bigint NOT NULL
);
`

// ResetSchema drops and recreates the orders/executions tables, the
// generalization of the reference's ResetSchema (which also tracked a
// separate deals table; here executions carry both counterparties,
// since the engine itself already pairs them).
func (s *Store) ResetSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("resetting schema: %w", err)
	}
	s.logger.Info("db schema created")
	return nil
}

// FillTestData bulk-loads n synthetic feed entries generated by g via
// pq.CopyIn, matching the reference's use of COPY for fast test-data
// load. Unlike the reference, the feed also carries cancellations
// (feed.Entry.IsCancel): those are applied as MarkCancelled calls
// against the freshly-inserted rows they reference once the bulk load
// commits, rather than being silently dropped on the floor.
func (s *Store) FillTestData(ctx context.Context, g *feed.Generator, n int) error {
	entries := g.Generate(n)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(pq.CopyIn("orders", "symbol", "trader", "side", "price", "size"))
	if err != nil {
		return fmt.Errorf("preparing copy-in: %w", err)
	}

	// orders is a fresh table after ResetSchema, so its serial id
	// assigns sequentially in insertion order; rowIDs records, per feed
	// entry, the orders.id it produced (0 for a cancel entry, which
	// inserts nothing).
	rowIDs := make([]int64, len(entries))
	var nextRowID int64 = 1
	var orderCount int

	for i, entry := range entries {
		if entry.IsCancel {
			continue
		}
		o := entry.Order
		if _, err := stmt.Exec(o.Symbol, o.Trader, sideLabel(o.Side), int(o.Price), int64(o.Size)); err != nil {
			return fmt.Errorf("copying order %d: %w", i, err)
		}
		rowIDs[i] = nextRowID
		nextRowID++
		orderCount++
	}

	if _, err := stmt.Exec(); err != nil {
		return fmt.Errorf("flushing copy-in: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("closing copy-in statement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing fill: %w", err)
	}

	s.logger.Info("synthetic orders generated", zap.Int("count", orderCount))

	var cancelCount int
	for i, entry := range entries {
		if !entry.IsCancel || entry.CancelID < 0 || entry.CancelID >= i {
			continue
		}
		targetRowID := rowIDs[entry.CancelID]
		if targetRowID == 0 {
			// The referenced entry was itself a cancel; it has no row.
			continue
		}
		if err := s.MarkCancelled(ctx, targetRowID); err != nil {
			return err
		}
		cancelCount++
	}

	s.logger.Info("synthetic orders cancelled", zap.Int("count", cancelCount))
	return nil
}

const fetchOrdersSQL = `
	SELECT symbol, trader,
	       CASE WHEN side = 'bid' THEN 0 ELSE 1 END AS side,
	       price, size
	FROM orders
	WHERE NOT cancelled
	ORDER BY id ASC
`

// FetchOrders reads back the feed for replay, the generalization of
// the reference's FetchOrders (which additionally subtracted a
// blocked_size column no longer needed now that cancellation removes
// rows from the live set instead of tracking a lazily-applied offset).
func (s *Store) FetchOrders(ctx context.Context) ([]engine.InputOrder, error) {
	rows, err := s.db.QueryContext(ctx, fetchOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("fetching orders: %w", err)
	}
	defer rows.Close()

	var out []engine.InputOrder
	for rows.Next() {
		var (
			o    engine.InputOrder
			side int
		)
		if err := rows.Scan(&o.Symbol, &o.Trader, &side, &o.Price, &o.Size); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		o.Side = engine.Side(side)
		out = append(out, o)
	}
	return out, rows.Err()
}

// PersistExecutions bulk-inserts a batch of execution reports tagged
// with runID, the generalization of the reference's PersistDeals.
func (s *Store) PersistExecutions(ctx context.Context, runID string, executions []engine.Execution) error {
	if len(executions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(pq.CopyIn("executions", "run_id", "symbol", "trader", "side", "price", "size"))
	if err != nil {
		return fmt.Errorf("preparing copy-in: %w", err)
	}

	for _, ex := range executions {
		if _, err := stmt.Exec(runID, ex.Symbol, ex.Trader, sideLabel(ex.Side), int(ex.Price), int64(ex.Size)); err != nil {
			return fmt.Errorf("copying execution: %w", err)
		}
	}

	if _, err := stmt.Exec(); err != nil {
		return fmt.Errorf("flushing copy-in: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("closing copy-in statement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing executions: %w", err)
	}

	s.logger.Info("executions persisted", zap.String("run_id", runID), zap.Int("count", len(executions)))
	return nil
}

// MarkCancelled flags an order as cancelled rather than deleting its
// row, preserving the full history of a replay round for later
// analysis.
func (s *Store) MarkCancelled(ctx context.Context, orderRowID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE orders SET cancelled = true WHERE id = $1`, orderRowID)
	if err != nil {
		return fmt.Errorf("marking order %d cancelled: %w", orderRowID, err)
	}
	return nil
}

func sideLabel(s engine.Side) string {
	if s == engine.Bid {
		return "bid"
	}
	return "ask"
}
