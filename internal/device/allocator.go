package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-leds/internal/store"
)

// allocateGroup assigns the next group id and writes the record in one
// optimistic transaction on the counter key:
//
//	WATCH nextGroupId; c := GET nextGroupId (absent = 0)
//	MULTI; INCR nextGroupId; SET group:<c+1> draft+id; EXEC
//
// A concurrent allocation invalidates the watch and the whole attempt is
// recomputed. There is no retry cap; only ctx can stop a livelock.
func (c *Controller) allocateGroup(ctx context.Context, draft Group) (Group, error) {
	var created Group

	attempts, err := store.RunOptimistic(ctx, c.store, NextGroupIDKey, func(ctx context.Context, tx store.Tx) error {
		current, err := readCounter(ctx, tx)
		if err != nil {
			return err
		}

		g := draft
		g.ID = current + 1
		body, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("encoding group: %w", err)
		}

		tx.Incr(NextGroupIDKey)
		tx.Set(GroupKey(g.ID), body)
		created = g
		return nil
	})
	c.metrics.RecordAllocation(attempts)
	if err != nil {
		return Group{}, fmt.Errorf("allocating group id: %w", err)
	}

	if attempts > 1 {
		c.logger.Debug("group id allocated after contention", "group_id", created.ID, "attempts", attempts)
	}
	return created, nil
}

// readCounter returns the counter value, treating an absent key as 0.
func readCounter(ctx context.Context, tx store.Tx) (int64, error) {
	raw, err := tx.Get(ctx, NextGroupIDKey)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s = %q", store.ErrNotInteger, NextGroupIDKey, raw)
	}
	return n, nil
}
