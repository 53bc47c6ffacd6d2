package device

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Group is a stored group record: caller-supplied attributes plus the
// allocated id and an ordered, duplicate-free list of member devices.
type Group struct {
	ID         int64
	LEDs       []DeviceID
	Attributes map[string]json.RawMessage
}

// MarshalJSON flattens the attributes alongside "id" and "leds".
func (g Group) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(g.Attributes)+2)
	for k, v := range g.Attributes {
		out[k] = v
	}
	leds := g.LEDs
	if leds == nil {
		leds = []DeviceID{}
	}
	out["leds"] = leds
	if g.ID != 0 {
		out["id"] = g.ID
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any JSON object. "leds" must be a list of device
// ids when present; "id" is dropped and ID left zero.
func (g *Group) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGroup, err)
	}

	*g = Group{}
	if raw, ok := fields["leds"]; ok {
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := json.Unmarshal(raw, &g.LEDs); err != nil {
				return fmt.Errorf("%w: leds: %w", ErrInvalidGroup, err)
			}
		}
		delete(fields, "leds")
	}
	// The id is never read from a body: CreateGroup allocates it and stored
	// records take it from their key.
	delete(fields, "id")
	if len(fields) > 0 {
		g.Attributes = fields
	}
	return nil
}

// ParseGroup decodes a group body from a request or the store.
func ParseGroup(data []byte) (Group, error) {
	var g Group
	if err := json.Unmarshal(data, &g); err != nil {
		return Group{}, err
	}
	return g, nil
}

// has reports whether id is a member.
func (g *Group) has(id DeviceID) bool {
	for _, m := range g.LEDs {
		if m == id {
			return true
		}
	}
	return false
}

// add appends ids not already present, in order.
func (g *Group) add(ids ...DeviceID) {
	for _, id := range ids {
		if id != "" && !g.has(id) {
			g.LEDs = append(g.LEDs, id)
		}
	}
}

// remove drops ids that are present; absent ids are ignored.
func (g *Group) remove(ids ...DeviceID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[DeviceID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := g.LEDs[:0]
	for _, m := range g.LEDs {
		if _, ok := drop[m]; !ok {
			kept = append(kept, m)
		}
	}
	g.LEDs = kept
}

// dedupe removes repeated members, keeping first-seen order.
func (g *Group) dedupe() {
	members := g.LEDs
	g.LEDs = make([]DeviceID, 0, len(members))
	g.add(members...)
}
