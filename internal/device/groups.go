package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-leds/internal/store"
)

// CreateGroup allocates an id for g and stores it. Duplicate members are
// dropped, keeping first-seen order; a group without members gets "leds": [].
func (c *Controller) CreateGroup(ctx context.Context, g Group) (Group, error) {
	g.dedupe()
	created, err := c.allocateGroup(ctx, g)
	if err != nil {
		return Group{}, err
	}
	c.logger.Info("group created", "group_id", created.ID, "members", len(created.LEDs))
	return created, nil
}

// GetGroup returns the stored group record.
func (c *Controller) GetGroup(ctx context.Context, id int64) (Group, error) {
	raw, err := c.store.Get(ctx, GroupKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return Group{}, fmt.Errorf("%w: %d", ErrGroupNotFound, id)
	}
	if err != nil {
		return Group{}, fmt.Errorf("getting group %d: %w", id, err)
	}
	return decodeStoredGroup(id, raw)
}

// EditMembership adds and removes members. Additions already present and
// removals not present are no-ops.
//
// The read-modify-write runs under a watch on the group key and restarts
// on conflict, so concurrent edits do not lose each other's changes.
func (c *Controller) EditMembership(ctx context.Context, id int64, add, remove []DeviceID) (Group, error) {
	key := GroupKey(id)
	var updated Group

	_, err := store.RunOptimistic(ctx, c.store, key, func(ctx context.Context, tx store.Tx) error {
		raw, err := tx.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrGroupNotFound, id)
		}
		if err != nil {
			return err
		}

		g, err := decodeStoredGroup(id, raw)
		if err != nil {
			return err
		}
		g.add(add...)
		g.remove(remove...)

		body, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("encoding group: %w", err)
		}
		tx.Set(key, body)
		updated = g
		return nil
	})
	if err != nil {
		return Group{}, fmt.Errorf("editing group %d: %w", id, err)
	}
	return updated, nil
}

// ControlGroup applies intent to every member. The group is read once,
// without a guard; membership edits racing with the fan-out are not seen.
// Each member is handled independently and its outcome reported in order.
func (c *Controller) ControlGroup(ctx context.Context, id int64, intent Intent) ([]ControlResult, error) {
	g, err := c.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	results := make([]ControlResult, 0, len(g.LEDs))
	failed := 0
	for _, member := range g.LEDs {
		state, err := c.ApplyControl(ctx, member, intent)
		if err != nil {
			failed++
		}
		results = append(results, ControlResult{ID: member, State: state, Err: err})
	}

	if failed > 0 {
		c.logger.Warn("group control partially failed", "group_id", id, "failed", failed, "members", len(g.LEDs))
	}
	return results, nil
}

// DeleteGroup removes the group record. It reports true only when exactly
// one record was removed.
func (c *Controller) DeleteGroup(ctx context.Context, id int64) (bool, error) {
	n, err := c.store.Delete(ctx, GroupKey(id))
	if err != nil {
		return false, fmt.Errorf("deleting group %d: %w", id, err)
	}
	return n == 1, nil
}

// decodeStoredGroup parses a stored record; the key is authoritative for the id.
func decodeStoredGroup(id int64, raw []byte) (Group, error) {
	g, err := ParseGroup(raw)
	if err != nil {
		return Group{}, fmt.Errorf("group %d: %w", id, err)
	}
	g.ID = id
	return g, nil
}
