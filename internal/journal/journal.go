// Package journal keeps an audit trail of committed ledger events in SQLite.
//
// The default DSN is an in-memory database, so the trail lives exactly as
// long as the process. It is never read back into the ledger.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"billpay/internal/core"
	"billpay/internal/log"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

type Journal struct {
	db     *sql.DB
	logger *log.Logger
}

// Open connects to dsn and applies migrations. A nil logger discards output.
func Open(dsn string, logger *log.Logger) (*Journal, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	if logger == nil {
		logger = log.Discard()
	}

	if isFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Journal{
		db:     db,
		logger: logger.WithComponent(log.ComponentJournal),
	}, nil
}

func isFilePath(dsn string) bool {
	return dsn != MemoryDSN && !strings.HasPrefix(dsn, "file:")
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Observe implements ledger.Observer. Failures are logged, never returned:
// the ledger has already committed.
func (j *Journal) Observe(ctx context.Context, e core.Event) {
	if err := j.Record(ctx, e); err != nil {
		j.logger.ErrorContext(ctx, "Failed to record ledger event",
			log.NewFields().
				WithOperation(log.OpRecord).
				WithError(err).
				WithErrorType(log.ErrorTypeDatabase).
				With(log.FieldEventID, e.ID).
				With(log.FieldEventKind, string(e.Kind)).ToSlice()...)
	}
}

// Record appends e to the journal.
func (j *Journal) Record(ctx context.Context, e core.Event) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO ledger_events (event_id, kind, bill_id, payment_id, amount, balance, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.BillID, e.PaymentID, e.Amount, e.Balance,
		e.OccurredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.ID, err)
	}

	j.logger.DebugContext(ctx, "Ledger event recorded",
		log.FieldEventID, e.ID,
		log.FieldEventKind, string(e.Kind))

	return nil
}

// Recent returns up to limit events, newest first. A limit <= 0 returns all.
func (j *Journal) Recent(ctx context.Context, limit int) ([]core.Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT event_id, kind, bill_id, payment_id, amount, balance, occurred_at
		 FROM ledger_events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		var (
			e    core.Event
			kind string
			at   string
		)
		if err := rows.Scan(&e.ID, &kind, &e.BillID, &e.PaymentID, &e.Amount, &e.Balance, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = core.EventKind(kind)
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse occurred_at of event %s: %w", e.ID, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// Count returns the number of recorded events.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
