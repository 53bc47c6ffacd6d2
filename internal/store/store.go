package store

import (
	"context"
	"errors"
)

// Store is the key-value surface the coordinator depends on.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// MultiGet returns one entry per key, aligned by index. Absent keys
	// yield a nil entry. An empty key list returns an empty result.
	MultiGet(ctx context.Context, keys []string) ([][]byte, error)

	// ScanPrefix returns every key starting with prefix, in no particular order.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key and reports how many records were removed (0 or 1).
	Delete(ctx context.Context, key string) (int64, error)

	// Watch runs fn once against a snapshot in which key is watched.
	// Writes staged on the Tx are committed atomically only if key was not
	// modified since the watch began; otherwise nothing is written and
	// ErrConflict is returned. An error from fn aborts without writing.
	Watch(ctx context.Context, key string, fn TxFunc) error
}

// Tx is the view a Watch callback works against. Reads execute immediately;
// writes are buffered until commit.
type Tx interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(key string, value []byte)
	Incr(key string)
}

// TxFunc computes the writes for one optimistic attempt. It may run many
// times and must not have side effects outside the Tx.
type TxFunc func(ctx context.Context, tx Tx) error

// RunOptimistic runs Watch until it commits, restarting from scratch on
// every ErrConflict. There is no retry cap; the loop ends on success, on any
// other error, or when ctx is cancelled. It returns the number of attempts made.
func RunOptimistic(ctx context.Context, s Store, key string, fn TxFunc) (int, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return attempts, err
		}
		attempts++
		err := s.Watch(ctx, key, fn)
		if errors.Is(err, ErrConflict) {
			continue
		}
		return attempts, err
	}
}

// write is a buffered Tx mutation.
type write struct {
	key   string
	value []byte
	incr  bool
}

// buffer collects staged writes; shared by both backends.
type buffer struct {
	writes []write
}

func (b *buffer) Set(key string, value []byte) {
	b.writes = append(b.writes, write{key: key, value: value})
}

func (b *buffer) Incr(key string) {
	b.writes = append(b.writes, write{key: key, incr: true})
}
