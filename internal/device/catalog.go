package device

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// DeviceEntry pairs a device id with its stored state. State is JSON null
// for a group member that has never been seen.
type DeviceEntry struct {
	ID    string          `json:"id"`
	State json.RawMessage `json:"state"`
}

// GroupEntry pairs a group id with its stored record.
type GroupEntry struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

var jsonNull = json.RawMessage("null")

// ListDevices returns every stored device, ordered by id.
func (c *Controller) ListDevices(ctx context.Context) ([]DeviceEntry, error) {
	items, err := c.scan(ctx, DevicePrefix)
	if err != nil {
		return nil, err
	}
	out := make([]DeviceEntry, len(items))
	for i, it := range items {
		out[i] = DeviceEntry{ID: it.id, State: it.value}
	}
	return out, nil
}

// ListGroups returns every stored group, ordered by id.
func (c *Controller) ListGroups(ctx context.Context) ([]GroupEntry, error) {
	items, err := c.scan(ctx, GroupPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]GroupEntry, len(items))
	for i, it := range items {
		out[i] = GroupEntry{ID: it.id, Data: it.value}
	}
	return out, nil
}

// GroupMembers returns each member id, in group order, with its stored state.
func (c *Controller) GroupMembers(ctx context.Context, id int64) ([]DeviceEntry, error) {
	g, err := c.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	members := make([]string, len(g.LEDs))
	keys := make([]string, len(g.LEDs))
	for i, m := range g.LEDs {
		members[i] = string(m)
		keys[i] = DeviceKey(m)
	}

	values, err := c.multiGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]DeviceEntry, 0, len(members))
	for i, mid := range keyIDs(members, true) {
		state := jsonNull
		if values[i] != nil && json.Valid(values[i]) {
			state = values[i]
		}
		out = append(out, DeviceEntry{ID: mid, State: state})
	}
	return out, nil
}

type scanned struct {
	id    string
	value json.RawMessage
}

// scan lists every record under prefix. Keys that vanish between the scan
// and the read are skipped, as are records that are not valid JSON.
func (c *Controller) scan(ctx context.Context, prefix string) ([]scanned, error) {
	keys, err := c.store.ScanPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return []scanned{}, nil
	}

	values, err := c.multiGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	ids := keyIDs(keys, false)
	out := make([]scanned, 0, len(keys))
	for i, v := range values {
		if v == nil {
			continue
		}
		if !json.Valid(v) {
			c.logger.Warn("skipping corrupt record", "key", keys[i])
			continue
		}
		out = append(out, scanned{id: ids[i], value: v})
	}

	sort.Slice(out, func(i, j int) bool { return lessID(out[i].id, out[j].id) })
	return out, nil
}

func (c *Controller) multiGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return [][]byte{}, nil
	}
	values, err := c.store.MultiGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("reading %d keys: %w", len(keys), err)
	}
	return values, nil
}

// lessID orders numeric ids numerically and everything else lexically,
// numbers first.
func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
