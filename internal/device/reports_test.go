package device

import (
	"context"
	"errors"
	"testing"
)

func TestDecodeReport(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		wantID  DeviceID
		want    State
		wantErr error
	}{
		{
			name:    "simple state from topic id",
			topic:   "leds/42/state",
			payload: `{"state":"on"}`,
			wantID:  "42",
			want:    SimpleState{State: SwitchOn},
		},
		{
			name:    "payload id wins over topic",
			topic:   "leds/42/state",
			payload: `{"id":"43","state":"off"}`,
			wantID:  "43",
			want:    SimpleState{State: SwitchOff},
		},
		{
			name:    "blink report",
			topic:   "leds/7/state",
			payload: `{"id":7,"state":"blinking","infinite":"false","blinkCount":2,"blinkDelay":1.5}`,
			wantID:  "7",
			want:    BlinkingState{Infinite: false, Delay: 1.5, Count: 2},
		},
		{
			name:    "blink report with boolean infinite",
			topic:   "leds/7/state",
			payload: `{"state":"blink","infinite":true,"blinkCount":0,"blinkDelay":3}`,
			wantID:  "7",
			want:    BlinkingState{Infinite: true, Delay: 3, Count: 0},
		},
		{
			name:    "partial blink fields",
			topic:   "leds/7/state",
			payload: `{"state":"blinking","infinite":"true"}`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "missing state",
			topic:   "leds/7/state",
			payload: `{"id":"7"}`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "unknown simple state",
			topic:   "leds/7/state",
			payload: `{"state":"purple"}`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "not JSON",
			topic:   "leds/7/state",
			payload: `on`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "announce",
			topic:   "leds/manage/add",
			payload: `{"uuid":"abc"}`,
			wantID:  "abc",
			want:    SimpleState{State: SwitchOff},
		},
		{
			name:    "announce falls back to id",
			topic:   "leds/manage/add",
			payload: `{"id":12}`,
			wantID:  "12",
			want:    SimpleState{State: SwitchOff},
		},
		{
			name:    "announce without id",
			topic:   "leds/manage/add",
			payload: `{}`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "topic id with extra segments",
			topic:   "leds/a/b/state",
			payload: `{"state":"on"}`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "payload id with wildcard",
			topic:   "leds/7/state",
			payload: `{"id":"7/#","state":"on"}`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "announce uuid with separator",
			topic:   "leds/manage/add",
			payload: `{"uuid":"a/b"}`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "announce uuid with wildcard",
			topic:   "leds/manage/add",
			payload: `{"uuid":"+"}`,
			wantErr: ErrInvalidReport,
		},
		{
			name:    "unrecognised segment",
			topic:   "leds/7/disconnect",
			payload: `{}`,
			wantErr: ErrUnrecognisedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeReport(tt.topic, []byte(tt.payload))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeReport() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeReport() error = %v", err)
			}
			if got.DeviceID != tt.wantID {
				t.Errorf("DeviceID = %q, want %q", got.DeviceID, tt.wantID)
			}
			if got.State != tt.want {
				t.Errorf("State = %#v, want %#v", got.State, tt.want)
			}
		})
	}
}

func TestHandleMessage_StateReport(t *testing.T) {
	env := newTestEnv(t)

	if err := env.ctrl.HandleMessage("leds/42/state", []byte(`{"state":"on"}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	stored, err := env.mr.Get("device:42")
	if err != nil {
		t.Fatalf("miniredis Get() error = %v", err)
	}
	if stored != `{"state":"on"}` {
		t.Errorf("device:42 = %s, want {\"state\":\"on\"}", stored)
	}
	if len(env.pub.commands()) != 0 {
		t.Error("reports must not publish commands")
	}
	if len(env.notifier.changed) != 1 {
		t.Errorf("notifications = %v, want one", env.notifier.changed)
	}
}

func TestHandleMessage_ReportOverwritesBlink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.ctrl.ApplyControl(ctx, "5", BlinkIntent{Infinite: true, Delay: 1}); err != nil {
		t.Fatalf("ApplyControl() error = %v", err)
	}
	if err := env.ctrl.HandleMessage("leds/5/state", []byte(`{"state":"off"}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	got, err := env.ctrl.Get(ctx, "5")
	if err != nil || got != (SimpleState{State: SwitchOff}) {
		t.Errorf("Get() = %#v, %v; want off", got, err)
	}
}

func TestHandleMessage_Announce(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		if err := env.ctrl.HandleMessage("leds/manage/add", []byte(`{"uuid":"abc"}`)); err != nil {
			t.Fatalf("HandleMessage() error = %v", err)
		}
		stored, err := env.mr.Get("device:abc")
		if err != nil || stored != `{"state":"off"}` {
			t.Errorf("device:abc = %s, %v; want {\"state\":\"off\"}", stored, err)
		}
	}

	// Announce resets whatever was stored before.
	if err := env.mr.Set("device:abc", `{"state":"on"}`); err != nil {
		t.Fatalf("miniredis Set() error = %v", err)
	}
	if err := env.ctrl.HandleMessage("leds/manage/add", []byte(`{"uuid":"abc"}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if stored, _ := env.mr.Get("device:abc"); stored != `{"state":"off"}` {
		t.Errorf("device:abc = %s after re-announce, want off", stored)
	}
}

func TestHandleMessage_DropsInvalid(t *testing.T) {
	env := newTestEnv(t)

	if err := env.ctrl.HandleMessage("leds/1/state", []byte(`{"state":"on","blinkCount":2}`)); !errors.Is(err, ErrInvalidReport) {
		t.Errorf("HandleMessage() error = %v, want ErrInvalidReport", err)
	}
	if err := env.ctrl.HandleMessage("leds/1/wake", []byte(`{}`)); !errors.Is(err, ErrUnrecognisedMessage) {
		t.Errorf("HandleMessage() error = %v, want ErrUnrecognisedMessage", err)
	}
	if err := env.ctrl.HandleMessage("leds/a/b/state", []byte(`{"state":"on"}`)); !errors.Is(err, ErrInvalidReport) {
		t.Errorf("HandleMessage(leds/a/b/state) error = %v, want ErrInvalidReport", err)
	}
	if env.mr.Exists("device:1") || env.mr.Exists("device:a") {
		t.Error("invalid reports must not be stored")
	}
}
