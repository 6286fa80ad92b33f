// Package journal records the TransformUpdates a server sends so a session can
// be replayed offline in send order.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/automoto/openworld-mp/shared/messages"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

var ErrClosed = errors.New("journal is closed")

const schema = `
CREATE TABLE IF NOT EXISTS transform_updates (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	network_id  INTEGER NOT NULL,
	server_time REAL    NOT NULL,
	payload     BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transform_updates_entity ON transform_updates (network_id, server_time);
`

// Journal is a SQLite-backed append-only log of TransformUpdates.
type Journal struct {
	db     *sql.DB
	insert *sql.Stmt
	mu     sync.Mutex
	closed bool
}

// Open opens or creates the journal at dataSourceName, e.g. "session.db" or
// "file::memory:?cache=shared".
func Open(dataSourceName string) (*Journal, error) {
	if dataSourceName == "" {
		return nil, fmt.Errorf("dataSourceName is required")
	}
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// A single writer keeps AUTOINCREMENT order equal to send order.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	insert, err := db.Prepare(`INSERT INTO transform_updates (network_id, server_time, payload) VALUES (?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare journal insert: %w", err)
	}
	return &Journal{db: db, insert: insert}, nil
}

// Record appends u.
func (j *Journal) Record(u messages.TransformUpdate) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if _, err := j.insert.Exec(int64(u.NetworkID), u.ServerTime, u.Payload); err != nil {
		return fmt.Errorf("record update %d: %w", u.NetworkID, err)
	}
	return nil
}

// Replay calls fn for every recorded update in send order. A non-nil error
// from fn stops the replay and is returned.
func (j *Journal) Replay(ctx context.Context, fn func(messages.TransformUpdate) error) error {
	return j.query(ctx, fn, `SELECT network_id, server_time, payload FROM transform_updates ORDER BY seq`)
}

// ReplayEntity is Replay restricted to one entity, ordered by server time.
func (j *Journal) ReplayEntity(ctx context.Context, networkID uint, fn func(messages.TransformUpdate) error) error {
	return j.query(ctx, fn, `SELECT network_id, server_time, payload FROM transform_updates
		WHERE network_id = ? ORDER BY server_time, seq`, int64(networkID))
}

func (j *Journal) query(ctx context.Context, fn func(messages.TransformUpdate) error, q string, args ...any) error {
	j.mu.Lock()
	closed := j.closed
	j.mu.Unlock()
	if closed {
		return ErrClosed
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			u  messages.TransformUpdate
		)
		if err := rows.Scan(&id, &u.ServerTime, &u.Payload); err != nil {
			return fmt.Errorf("scan journal row: %w", err)
		}
		u.NetworkID = uint(id)
		if err := fn(u); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Count returns the number of recorded updates.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transform_updates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal: %w", err)
	}
	return n, nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	j.insert.Close()
	return j.db.Close()
}
