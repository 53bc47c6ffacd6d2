package device

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nerrad567/gray-logic-leds/internal/infrastructure/mqtt"
)

// Command is an outbound device instruction ready to publish.
type Command struct {
	Topic   string
	Payload []byte
}

type simpleCommand struct {
	State Switch `json:"state"`
}

// blinkCommand is the set_state payload. Devices parse infinite as the
// string "true" or "false", never a JSON boolean.
type blinkCommand struct {
	State      string  `json:"state"`
	Infinite   string  `json:"infinite"`
	Delay      float64 `json:"delay"`
	BlinkCount int     `json:"blinkCount"`
}

// EncodeCommand builds the command that drives device id into state s.
func EncodeCommand(id DeviceID, s State) (Command, error) {
	var (
		topic   string
		payload any
	)

	switch v := s.(type) {
	case SimpleState:
		if !v.State.Valid() {
			return Command{}, fmt.Errorf("%w: %q", ErrInvalidState, v.State)
		}
		topic = mqtt.Topics{}.SetStateSimple(string(id))
		payload = simpleCommand{State: v.State}
	case BlinkingState:
		topic = mqtt.Topics{}.SetState(string(id))
		payload = blinkCommand{
			State:      blinkRequest,
			Infinite:   strconv.FormatBool(v.Infinite),
			Delay:      v.Delay,
			BlinkCount: v.Count,
		}
	default:
		return Command{}, fmt.Errorf("%w: unsupported state %T", ErrInvalidState, s)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Command{}, fmt.Errorf("encoding command for %s: %w", id, err)
	}
	return Command{Topic: topic, Payload: body}, nil
}
