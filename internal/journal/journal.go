// Package journal persists a durable, queryable record of every settled
// Trade, Settle, and Collect outcome. It is purely observational: nothing
// here is consulted by the processor, and replaying it never reconstructs
// a Pool on its own.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/klingon-exchange/duopool/internal/identity"
)

// Kind identifies which mutating instruction a Record describes.
type Kind string

const (
	KindTrade   Kind = "trade"
	KindSettle  Kind = "settle"
	KindCollect Kind = "collect"
)

// Record is one committed instruction as seen by the off-chain journal.
type Record struct {
	Sequence  int64
	Pool      identity.Address
	Kind      Kind
	Primary   identity.Address // buyer/collector/settling authority
	Secondary identity.Address // seller, zero for Settle/Collect
	Amount    uint64           // trade size, or collect reward; zero for Settle
	Timestamp time.Time
}

// Journal is a SQLite-backed append-only log, one row per committed
// mutating instruction, in commit order.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path. An empty path opens
// an in-memory database, useful for tests that don't need durability.
func Open(path string) (*Journal, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	} else {
		dsn += "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: ping %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS entries (
		sequence   INTEGER PRIMARY KEY AUTOINCREMENT,
		pool       TEXT NOT NULL,
		kind       TEXT NOT NULL,
		primary_party   TEXT NOT NULL,
		secondary_party TEXT NOT NULL,
		amount     INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_pool ON entries(pool);
	`
	_, err := j.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("journal: init schema: %w", err)
	}
	return nil
}

// Append records one committed instruction. Never called for an aborted
// instruction: the host only appends after the processor and every
// token-module sub-call it issued have already succeeded.
func (j *Journal) Append(r Record) error {
	_, err := j.db.Exec(
		`INSERT INTO entries (pool, kind, primary_party, secondary_party, amount, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Pool.String(), string(r.Kind), r.Primary.String(), r.Secondary.String(), r.Amount, r.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

// ForPool returns every entry recorded for pool, in commit order.
func (j *Journal) ForPool(pool identity.Address) ([]Record, error) {
	rows, err := j.db.Query(
		`SELECT sequence, pool, kind, primary_party, secondary_party, amount, recorded_at
		 FROM entries WHERE pool = ? ORDER BY sequence ASC`,
		pool.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r                        Record
			poolStr, primary, second string
			kind                     string
			recordedAt               int64
		)
		if err := rows.Scan(&r.Sequence, &poolStr, &kind, &primary, &second, &r.Amount, &recordedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		addr, err := identity.Parse(poolStr)
		if err != nil {
			return nil, fmt.Errorf("journal: decode pool address: %w", err)
		}
		r.Pool = addr
		r.Kind = Kind(kind)
		if r.Primary, err = identity.Parse(primary); err != nil {
			return nil, fmt.Errorf("journal: decode primary party: %w", err)
		}
		if r.Secondary, err = identity.Parse(second); err != nil {
			return nil, fmt.Errorf("journal: decode secondary party: %w", err)
		}
		r.Timestamp = time.Unix(recordedAt, 0).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the total number of entries recorded, across all pools.
func (j *Journal) Count() (int64, error) {
	var n int64
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal: count: %w", err)
	}
	return n, nil
}
