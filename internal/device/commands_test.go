package device

import (
	"errors"
	"testing"
)

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		wantTopic   string
		wantPayload string
	}{
		{
			name:        "simple",
			state:       SimpleState{State: SwitchOn},
			wantTopic:   "leds/42/set_state_simple",
			wantPayload: `{"state":"on"}`,
		},
		{
			name:        "blink infinite",
			state:       BlinkingState{Infinite: true, Delay: 5, Count: 3},
			wantTopic:   "leds/42/set_state",
			wantPayload: `{"state":"blink","infinite":"true","delay":5,"blinkCount":3}`,
		},
		{
			name:        "blink finite",
			state:       BlinkingState{Infinite: false, Delay: 0.5, Count: 0},
			wantTopic:   "leds/42/set_state",
			wantPayload: `{"state":"blink","infinite":"false","delay":0.5,"blinkCount":0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := EncodeCommand("42", tt.state)
			if err != nil {
				t.Fatalf("EncodeCommand() error = %v", err)
			}
			if cmd.Topic != tt.wantTopic {
				t.Errorf("Topic = %q, want %q", cmd.Topic, tt.wantTopic)
			}
			if string(cmd.Payload) != tt.wantPayload {
				t.Errorf("Payload = %s, want %s", cmd.Payload, tt.wantPayload)
			}
		})
	}
}

func TestEncodeCommand_Invalid(t *testing.T) {
	if _, err := EncodeCommand("1", SimpleState{State: "dim"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("EncodeCommand(dim) error = %v, want ErrInvalidState", err)
	}
	if _, err := EncodeCommand("1", nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("EncodeCommand(nil) error = %v, want ErrInvalidState", err)
	}
}
