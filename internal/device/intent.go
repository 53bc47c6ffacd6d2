package device

import (
	"encoding/json"
	"fmt"
)

// Intent is a control request for one device. It maps to exactly one State.
type Intent interface {
	State() State
}

// SimpleIntent switches a device on, off or toggles it.
type SimpleIntent struct {
	Switch Switch
}

func (i SimpleIntent) State() State { return SimpleState{State: i.Switch} }

// BlinkIntent makes a device blink Count times, or forever when Infinite.
type BlinkIntent struct {
	Infinite bool
	Delay    float64
	Count    int
}

func (i BlinkIntent) State() State {
	return BlinkingState{Infinite: i.Infinite, Delay: i.Delay, Count: i.Count}
}

// blinkRequest is the state name that selects a blink intent.
const blinkRequest = "blink"

// flexBool decodes a JSON boolean or the strings "true"/"false".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected boolean, got %s", data)
	}
	switch s {
	case "true", "false":
		*b = s == "true"
		return nil
	}
	return fmt.Errorf("expected \"true\" or \"false\", got %q", s)
}

// intentRequest is the union of every control body field.
type intentRequest struct {
	State    *string   `json:"state"`
	Infinite *flexBool `json:"infinite"`
	Delay    *float64  `json:"delay"`
	Count    *int      `json:"count"`
}

// ParseIntent decodes {"state": ..., "infinite"?, "delay"?, "count"?}.
// A blink intent is selected by state "blink" or by supplying both infinite
// and delay; it needs both of those, while count defaults to 0.
func ParseIntent(data []byte) (Intent, error) {
	var req intentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}
	return req.intent()
}

// ParseSimpleIntent decodes {"state": "on"|"off"|"toggle"}.
func ParseSimpleIntent(data []byte) (Intent, error) {
	var req intentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}
	if req.State == nil {
		return nil, fmt.Errorf("%w: state is required", ErrInvalidIntent)
	}
	return simpleIntent(*req.State)
}

// ParseBlinkIntent decodes {"infinite", "delay", "count"?}.
func ParseBlinkIntent(data []byte) (Intent, error) {
	var req intentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}
	return req.blink()
}

func (r intentRequest) intent() (Intent, error) {
	if r.State != nil && *r.State == blinkRequest {
		return r.blink()
	}
	if r.Infinite != nil && r.Delay != nil {
		return r.blink()
	}
	if r.State == nil {
		return nil, fmt.Errorf("%w: state is required", ErrInvalidIntent)
	}
	return simpleIntent(*r.State)
}

func (r intentRequest) blink() (Intent, error) {
	if r.Infinite == nil || r.Delay == nil {
		return nil, fmt.Errorf("%w: blink requires infinite and delay", ErrInvalidIntent)
	}
	if *r.Delay < 0 {
		return nil, fmt.Errorf("%w: delay must not be negative", ErrInvalidIntent)
	}
	count := 0
	if r.Count != nil {
		count = *r.Count
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative", ErrInvalidIntent)
	}
	return BlinkIntent{Infinite: bool(*r.Infinite), Delay: *r.Delay, Count: count}, nil
}

func simpleIntent(name string) (Intent, error) {
	sw := Switch(name)
	if !sw.Valid() {
		return nil, fmt.Errorf("%w: state %q is not on, off or toggle", ErrInvalidIntent, name)
	}
	return SimpleIntent{Switch: sw}, nil
}

// Assignment is one entry of a bulk set: {"id": ..., "state": {...}}.
type Assignment struct {
	ID     DeviceID
	Intent Intent
}

// ParseAssignments decodes and validates a bulk set body. Every entry is
// checked before any is returned, so a bad entry rejects the whole batch.
func ParseAssignments(data []byte) ([]Assignment, error) {
	var raw []struct {
		ID    DeviceID        `json:"id"`
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}

	out := make([]Assignment, 0, len(raw))
	for i, entry := range raw {
		if !entry.ID.Valid() {
			return nil, fmt.Errorf("%w: entry %d: id %q is empty or not a topic segment", ErrInvalidIntent, i, entry.ID)
		}
		if len(entry.State) == 0 {
			return nil, fmt.Errorf("%w: entry %d: state is required", ErrInvalidIntent, i)
		}
		intent, err := ParseIntent(entry.State)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, entry.ID, err)
		}
		out = append(out, Assignment{ID: entry.ID, Intent: intent})
	}
	return out, nil
}
