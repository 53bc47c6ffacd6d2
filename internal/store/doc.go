// Package store is the key-value adapter that owns every persisted
// representation of device and group state.
//
// Callers see a small operation set (get, multi-get, prefix scan, set,
// delete) plus one synchronisation primitive: Watch, an optimistic
// transaction over a single key. Watch buffers the writes staged by its
// callback and commits them only if the watched key was not modified in the
// meantime; otherwise it discards them and returns ErrConflict.
// RunOptimistic wraps Watch in the retry loop that callers normally want.
//
// Two backends implement Store:
//
//   - RedisStore: go-redis, using WATCH/MULTI/EXEC and SCAN.
//   - SQLiteStore: a kv table with a per-row revision, for single-node
//     installations without Redis.
//
// Nothing else in the coordinator locks. Read-modify-write sequences that
// do not go through Watch can lose updates under concurrency.
package store
