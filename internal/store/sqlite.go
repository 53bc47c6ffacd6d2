package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SQLiteStore implements Store on a SQLite kv table.
//
// Every write stamps the row with a fresh value from the kv_revision
// counter. Watch remembers the watched key's revision and refuses to commit
// if it differs at commit time. The schema lives in migrations/.
//
// The database should be opened with a single connection (see
// database.Open); SQLite serialises writers anyway.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	return getValue(ctx, s.db, key)
}

func getValue(ctx context.Context, q querier, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, nil
}

// MultiGet implements Store.
func (s *SQLiteStore) MultiGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE key IN (`+placeholders+`)`, args...) //nolint:gosec // placeholders only
	if err != nil {
		return nil, fmt.Errorf("sqlite mget: %w", err)
	}
	defer rows.Close()

	found := make(map[string][]byte, len(keys))
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("sqlite mget scan: %w", err)
		}
		found[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite mget rows: %w", err)
	}

	for i, k := range keys {
		out[i] = found[k]
	}
	return out, nil
}

// ScanPrefix implements Store.
func (s *SQLiteStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE substr(key, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("sqlite scan %s*: %w", prefix, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sqlite scan row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite scan rows: %w", err)
	}
	return keys, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putValue(ctx, tx, key, value)
	})
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return 0, fmt.Errorf("sqlite del %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite del %s: %w", key, err)
	}
	return n, nil
}

// Watch implements Store.
func (s *SQLiteStore) Watch(ctx context.Context, key string, fn TxFunc) error {
	watched, err := revision(ctx, s.db, key)
	if err != nil {
		return err
	}

	tx := &sqliteTx{db: s.db}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if len(tx.writes) == 0 {
		return nil
	}

	return s.inTx(ctx, func(sqlTx *sql.Tx) error {
		current, err := revision(ctx, sqlTx, key)
		if err != nil {
			return err
		}
		if current != watched {
			return ErrConflict
		}

		for _, w := range tx.writes {
			value := w.value
			if w.incr {
				value, err = incremented(ctx, sqlTx, w.key)
				if err != nil {
					return err
				}
			}
			if err := putValue(ctx, sqlTx, w.key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// HealthCheck runs a trivial query.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("sqlite health check failed: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// revision returns the key's revision, or 0 when the key is absent.
func revision(ctx context.Context, q querier, key string) (int64, error) {
	var rev int64
	err := q.QueryRowContext(ctx, `SELECT revision FROM kv WHERE key = ?`, key).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite revision %s: %w", key, err)
	}
	return rev, nil
}

// putValue upserts key with the next global revision.
func putValue(ctx context.Context, q querier, key string, value []byte) error {
	var rev int64
	err := q.QueryRowContext(ctx,
		`UPDATE kv_revision SET current = current + 1 WHERE id = 1 RETURNING current`).Scan(&rev)
	if err != nil {
		return fmt.Errorf("sqlite next revision: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO kv (key, value, revision) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, revision = excluded.revision`,
		key, value, rev)
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

// incremented returns the key's integer value plus one, treating absent as 0.
func incremented(ctx context.Context, q querier, key string) ([]byte, error) {
	raw, err := getValue(ctx, q, key)
	if errors.Is(err, ErrNotFound) {
		return []byte("1"), nil
	}
	if err != nil {
		return nil, err
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInteger, key)
	}
	return []byte(strconv.FormatInt(n+1, 10)), nil
}

// sqliteTx reads committed state directly and buffers writes.
type sqliteTx struct {
	buffer
	db *sql.DB
}

func (t *sqliteTx) Get(ctx context.Context, key string) ([]byte, error) {
	return getValue(ctx, t.db, key)
}
