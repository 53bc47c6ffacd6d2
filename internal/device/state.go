package device

import (
	"encoding/json"
	"fmt"
)

// State is the last known or desired state of a device. It is either a
// SimpleState or a BlinkingState; nothing else implements it.
type State interface {
	// Kind is "simple" or "blink".
	Kind() string
	isState()
}

// Switch is a simple state name.
type Switch string

const (
	SwitchOn     Switch = "on"
	SwitchOff    Switch = "off"
	SwitchToggle Switch = "toggle"
)

// Valid reports whether s is on, off or toggle.
func (s Switch) Valid() bool {
	switch s {
	case SwitchOn, SwitchOff, SwitchToggle:
		return true
	}
	return false
}

// State kinds.
const (
	KindSimple = "simple"
	KindBlink  = "blink"
)

// blinkingName is the state name every stored BlinkingState carries.
const blinkingName = "blinking"

// SimpleState is stored as {"state":"on"}.
type SimpleState struct {
	State Switch
}

func (SimpleState) Kind() string { return KindSimple }
func (SimpleState) isState()     {}

// MarshalJSON implements json.Marshaler.
func (s SimpleState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		State Switch `json:"state"`
	}{s.State})
}

// BlinkingState is stored as
// {"state":"blinking","blinkInfinite":true,"blinkDelay":5,"blinkCount":3}.
// Delay is passed through to devices unchanged.
type BlinkingState struct {
	Infinite bool
	Delay    float64
	Count    int
}

func (BlinkingState) Kind() string { return KindBlink }
func (BlinkingState) isState()     {}

// MarshalJSON implements json.Marshaler.
func (s BlinkingState) MarshalJSON() ([]byte, error) {
	return json.Marshal(storedState{
		State:         blinkingName,
		BlinkInfinite: &s.Infinite,
		BlinkDelay:    &s.Delay,
		BlinkCount:    &s.Count,
	})
}

// DefaultState is the state of a newly announced device.
func DefaultState() State {
	return SimpleState{State: SwitchOff}
}

// storedState is the persisted JSON shape of both variants.
type storedState struct {
	State         string   `json:"state"`
	BlinkInfinite *bool    `json:"blinkInfinite,omitempty"`
	BlinkDelay    *float64 `json:"blinkDelay,omitempty"`
	BlinkCount    *int     `json:"blinkCount,omitempty"`
}

// MarshalState encodes s in its stored shape.
func MarshalState(s State) ([]byte, error) {
	switch v := s.(type) {
	case SimpleState:
		if !v.State.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidState, v.State)
		}
		return v.MarshalJSON()
	case BlinkingState:
		return v.MarshalJSON()
	default:
		return nil, fmt.Errorf("%w: unsupported state %T", ErrInvalidState, s)
	}
}

// ParseState decodes a stored state. A blinking state must carry all three
// blink fields; a simple state must carry none of them.
func ParseState(data []byte) (State, error) {
	var raw storedState
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	blinkFields := 0
	for _, present := range []bool{raw.BlinkInfinite != nil, raw.BlinkDelay != nil, raw.BlinkCount != nil} {
		if present {
			blinkFields++
		}
	}

	if raw.State == blinkingName {
		if blinkFields != 3 {
			return nil, fmt.Errorf("%w: blinking state missing blink fields", ErrInvalidState)
		}
		return BlinkingState{
			Infinite: *raw.BlinkInfinite,
			Delay:    *raw.BlinkDelay,
			Count:    *raw.BlinkCount,
		}, nil
	}

	if blinkFields != 0 {
		return nil, fmt.Errorf("%w: %q carries blink fields", ErrInvalidState, raw.State)
	}
	sw := Switch(raw.State)
	if !sw.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, raw.State)
	}
	return SimpleState{State: sw}, nil
}
